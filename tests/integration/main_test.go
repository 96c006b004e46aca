//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
)

var testDB *TestDB

func TestMain(m *testing.M) {
	ctx := context.Background()

	db, err := SetupTestDatabase(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up test database: %v\n", err)
		os.Exit(1)
	}
	testDB = db

	code := m.Run()

	if err := db.Teardown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to tear down test database: %v\n", err)
	}
	os.Exit(code)
}
