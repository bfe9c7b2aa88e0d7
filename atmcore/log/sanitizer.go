package log

import (
	"strings"
	"sync"
)

// defaultSensitiveFields lists field names whose values must never reach log
// output. Matching is case-insensitive on the lowercased field key.
var defaultSensitiveFields = []string{
	"pin",
	"pin_block",
	"pan",
	"card_number",
	"cardnumber",
	"cvv",
	"track2",
	"password",
	"secret",
	"authorization",
	"credential",
	"credentials",
	"api_key",
	"apikey",
	"access_token",
	"private_key",
}

var (
	sensitiveFieldsOnce sync.Once
	sensitiveFieldsMap  map[string]bool
)

// DefaultSensitiveFields returns the built-in sensitive field name list.
func DefaultSensitiveFields() []string {
	return defaultSensitiveFields
}

// isSensitiveKey reports whether a field key names a sensitive value.
func isSensitiveKey(key string) bool {
	sensitiveFieldsOnce.Do(func() {
		sensitiveFieldsMap = make(map[string]bool, len(defaultSensitiveFields))
		for _, field := range defaultSensitiveFields {
			sensitiveFieldsMap[field] = true
		}
	})

	return sensitiveFieldsMap[strings.ToLower(key)]
}

// redacted replaces sensitive values in log output.
const redacted = "[REDACTED]"

// Sanitize returns a copy of fields with sensitive values redacted. Fields
// whose key matches the sensitive list are replaced wholesale; non-sensitive
// fields pass through unchanged.
func Sanitize(fields []Field) []Field {
	sanitized := make([]Field, len(fields))
	for i, field := range fields {
		if isSensitiveKey(field.Key) {
			sanitized[i] = Field{Key: field.Key, Value: redacted}
			continue
		}

		sanitized[i] = field
	}

	return sanitized
}

// MaskToken returns a display-safe form of an opaque token, keeping the first
// and last four characters. Tokens of eight characters or fewer are fully
// masked.
func MaskToken(token string) string {
	const visible = 4

	if len(token) <= 2*visible {
		return strings.Repeat("*", len(token))
	}

	return token[:visible] + strings.Repeat("*", len(token)-2*visible) + token[len(token)-visible:]
}

// CardToken creates a field carrying a masked card token.
func CardToken(token string) Field {
	return Field{Key: "card_token", Value: MaskToken(token)}
}

// SessionToken creates a field carrying a masked session token.
func SessionToken(token string) Field {
	return Field{Key: "session_token", Value: MaskToken(token)}
}
