package cash

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when a requested withdrawal amount violates
// the configured bounds or step. It is wrapped with a human-readable reason.
var ErrInvalidAmount = errors.New("invalid withdrawal amount")

// AmountPolicy bounds the shape of a withdrawal amount before any inventory
// work happens. All three fields are expressed in minor currency units.
type AmountPolicy struct {
	Min  decimal.Decimal
	Max  decimal.Decimal
	Step decimal.Decimal
}

// NewAmountPolicy builds a policy from the given bounds.
func NewAmountPolicy(minAmount, maxAmount, step decimal.Decimal) AmountPolicy {
	return AmountPolicy{Min: minAmount, Max: maxAmount, Step: step}
}

// Validate checks the amount against the policy and returns a wrapped
// ErrInvalidAmount describing the first violation found. A nil return means
// the amount is positive, within [Min, Max] and an exact multiple of Step.
func (p AmountPolicy) Validate(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidAmount, amount)
	}

	if amount.LessThan(p.Min) {
		return fmt.Errorf("%w: amount %s is below the minimum of %s", ErrInvalidAmount, amount, p.Min)
	}

	if amount.GreaterThan(p.Max) {
		return fmt.Errorf("%w: amount %s exceeds the maximum of %s", ErrInvalidAmount, amount, p.Max)
	}

	if p.Step.IsPositive() && !amount.Mod(p.Step).IsZero() {
		return fmt.Errorf("%w: amount %s is not a multiple of %s", ErrInvalidAmount, amount, p.Step)
	}

	return nil
}
