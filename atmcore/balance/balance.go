package balance

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrAccountNotFound is returned when no account is linked to a card token.
var ErrAccountNotFound = errors.New("account not found for card")

// AccountType classifies the account linked to a card.
type AccountType string

const (
	// AccountTypeSavings identifies a savings account.
	AccountTypeSavings AccountType = "SAVINGS"
	// AccountTypeCurrent identifies a current account.
	AccountTypeCurrent AccountType = "CURRENT"
)

// Service is the balance and limit collaborator contract. Implementations are
// expected to apply their own timeout policies and surface failures as errors,
// never as panics.
type Service interface {
	// CurrentBalance returns the ledger balance of the account.
	CurrentBalance(ctx context.Context, cardToken string) (decimal.Decimal, error)

	// AvailableBalance returns the balance available for withdrawal.
	AvailableBalance(ctx context.Context, cardToken string) (decimal.Decimal, error)

	// HasSufficientBalance reports whether the available balance covers amount.
	HasSufficientBalance(ctx context.Context, cardToken string, amount decimal.Decimal) (bool, error)

	// DailyWithdrawalLimit returns the account's configured daily limit.
	DailyWithdrawalLimit(ctx context.Context, cardToken string) (decimal.Decimal, error)

	// RemainingDailyLimit returns the unconsumed portion of the daily limit.
	RemainingDailyLimit(ctx context.Context, cardToken string) (decimal.Decimal, error)

	// IsWithinDailyLimit reports whether amount fits the remaining daily limit.
	IsWithinDailyLimit(ctx context.Context, cardToken string, amount decimal.Decimal) (bool, error)

	// RegisterWithdrawal consumes amount from the remaining daily limit and
	// the available balance after a successful dispense.
	RegisterWithdrawal(ctx context.Context, cardToken string, amount decimal.Decimal) error

	// AccountType returns the account classification.
	AccountType(ctx context.Context, cardToken string) (AccountType, error)

	// IsBalanceInquiryAllowed reports whether the account permits inquiries.
	IsBalanceInquiryAllowed(ctx context.Context, cardToken string) (bool, error)
}
