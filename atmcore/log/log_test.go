//go:build unit

package log

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{input: "error", want: LevelError},
		{input: "WARN", want: LevelWarn},
		{input: "Info", want: LevelInfo},
		{input: "debug", want: LevelDebug},
		{input: "trace", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		level, err := ParseLevel(tt.input)
		if tt.wantErr {
			require.Error(t, err, "input %q", tt.input)

			continue
		}

		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, level)
	}
}

func TestLevel_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "error", LevelError.String())
	assert.Equal(t, "debug", LevelDebug.String())
}

func TestSanitize(t *testing.T) {
	t.Parallel()

	fields := []Field{
		String("card_number", "4111111111111111"),
		String("pin", "4921"),
		String("atm_code", "ATM-01"),
		Any("PIN_BLOCK", "abcdef"),
		String("api_key", "secret-key"),
	}

	sanitized := Sanitize(fields)

	byKey := make(map[string]any, len(sanitized))
	for _, f := range sanitized {
		byKey[f.Key] = f.Value
	}

	assert.Equal(t, "[REDACTED]", byKey["card_number"])
	assert.Equal(t, "[REDACTED]", byKey["pin"])
	assert.Equal(t, "[REDACTED]", byKey["PIN_BLOCK"], "matching is case-insensitive")
	assert.Equal(t, "[REDACTED]", byKey["api_key"])
	assert.Equal(t, "ATM-01", byKey["atm_code"], "benign fields pass through")

	// The input slice is left untouched.
	assert.Equal(t, "4921", fields[1].Value)
}

func TestMaskToken(t *testing.T) {
	t.Parallel()

	masked := MaskToken("tok_1234567890-abcd-1234")
	assert.Equal(t, "tok_"+strings.Repeat("*", 16)+"1234", masked)
	assert.Equal(t, "********", MaskToken("12345678"), "short tokens are fully masked")
	assert.Equal(t, "", MaskToken(""))
}

func TestTokenFields(t *testing.T) {
	t.Parallel()

	cardField := CardToken("tok_1234567890abcdef")
	assert.Equal(t, "card_token", cardField.Key)
	assert.NotContains(t, cardField.Value.(string), "567890abcd", "middle of the token never appears")

	sessField := SessionToken("s3ss10nt0k3nv4lu3xyz")
	assert.Equal(t, "session_token", sessField.Key)
}

func TestNopLogger(t *testing.T) {
	t.Parallel()

	logger := NewNop()
	logger.Log(context.Background(), LevelInfo, "ignored", String("k", "v"))

	assert.False(t, logger.Enabled(LevelError))
	assert.NoError(t, logger.Sync(context.Background()))
	assert.NotNil(t, logger.With(String("k", "v")))
	assert.NotNil(t, logger.WithGroup("group"))
}
