//go:build integration

package integration

import (
	"fmt"
	"time"
)

// TestPassword satisfies the password policy
const TestPassword = "TestPassword123!"

// TestEmail generates a unique test email using the current time
func TestEmail(suffix string) string {
	return fmt.Sprintf("test-%d-%s@example.com", time.Now().UnixNano(), suffix)
}
