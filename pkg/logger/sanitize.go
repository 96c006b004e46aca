package logger

import (
	"net/url"
	"strings"
)

// Redacted replaces sensitive values in log output
const Redacted = "REDACTED"

// sensitiveQueryKeys are query parameters whose values never reach the logs
var sensitiveQueryKeys = map[string]bool{
	"email":    true,
	"password": true,
	"token":    true,
}

// SanitizedEmail masks an email address for logging, e.g. "u***@*******.com".
// The first character of the local part and the top-level domain survive.
func SanitizedEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" || strings.Contains(domain, "@") {
		return "[invalid-email]"
	}

	first := []rune(local)[0]
	masked := string(first) + strings.Repeat("*", len([]rune(local))-1)

	labels := strings.Split(domain, ".")
	for i := 0; i < len(labels)-1; i++ {
		labels[i] = strings.Repeat("*", len([]rune(labels[i])))
	}
	if len(labels) == 1 {
		labels[0] = strings.Repeat("*", len([]rune(labels[0])))
	}

	return masked + "@" + strings.Join(labels, ".")
}

// RedactQuery replaces the values of sensitive parameters in rawQuery and
// keeps the rest. A query that does not parse is redacted as a whole.
func RedactQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return Redacted
	}
	for key := range values {
		if sensitiveQueryKeys[strings.ToLower(key)] {
			values[key] = []string{Redacted}
		}
	}
	return values.Encode()
}

// SanitizedPath masks path segments that hold an email address, such as the
// identity in /admin/attempts/{email}.
func SanitizedPath(path string) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		decoded, err := url.PathUnescape(segment)
		if err != nil {
			decoded = segment
		}
		if strings.Contains(decoded, "@") {
			segments[i] = SanitizedEmail(strings.TrimSpace(decoded))
		}
	}
	return strings.Join(segments, "/")
}
