package auth

import (
	"errors"
	"fmt"
	"unicode"
)

// ErrInvalidPINFormat is returned when a PIN fails the format policy. The
// wrapped message never includes the PIN itself.
var ErrInvalidPINFormat = errors.New("invalid pin format")

// Policy holds the attempt and format rules for PIN verification.
type Policy struct {
	MinLength     int
	MaxLength     int
	MaxAttempts   int
	RejectTrivial bool
}

// ShouldBlock reports whether a card with the given failed-attempt count has
// exhausted its allowance. Pure counter arithmetic; persisting a block is a
// separate concern.
func (p Policy) ShouldBlock(failedAttempts int) bool {
	return failedAttempts >= p.MaxAttempts
}

// ValidateFormat checks length and digit-only content, plus the trivial
// pattern rules when enabled: all-same-digit PINs and full ascending or
// descending runs.
func (p Policy) ValidateFormat(pin string) error {
	if len(pin) < p.MinLength || len(pin) > p.MaxLength {
		return fmt.Errorf("%w: length must be between %d and %d digits", ErrInvalidPINFormat, p.MinLength, p.MaxLength)
	}

	for _, r := range pin {
		if !unicode.IsDigit(r) || r > '9' {
			return fmt.Errorf("%w: must contain digits only", ErrInvalidPINFormat)
		}
	}

	if p.RejectTrivial && isTrivialPIN(pin) {
		return fmt.Errorf("%w: trivial sequences are not allowed", ErrInvalidPINFormat)
	}

	return nil
}

func isTrivialPIN(pin string) bool {
	allSame, ascending, descending := true, true, true

	for i := 1; i < len(pin); i++ {
		diff := int(pin[i]) - int(pin[i-1])

		if diff != 0 {
			allSame = false
		}

		if diff != 1 {
			ascending = false
		}

		if diff != -1 {
			descending = false
		}
	}

	return allSame || ascending || descending
}
