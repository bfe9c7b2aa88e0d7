package balance

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

// Account is the in-memory account state keyed by card token.
type Account struct {
	Current        decimal.Decimal
	Available      decimal.Decimal
	DailyLimit     decimal.Decimal
	WithdrawnToday decimal.Decimal
	Type           AccountType
	InquiryAllowed bool
}

// MemoryService is an in-memory Service implementation. Safe for concurrent
// use.
type MemoryService struct {
	mu       sync.RWMutex
	accounts map[string]Account
}

// Compile-time assertion: *MemoryService implements Service.
var _ Service = (*MemoryService)(nil)

// NewMemoryService creates an empty in-memory balance service.
func NewMemoryService() *MemoryService {
	return &MemoryService{accounts: make(map[string]Account)}
}

// Put inserts or replaces the account linked to a card token.
func (s *MemoryService) Put(cardToken string, account Account) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts[cardToken] = account
}

func (s *MemoryService) account(cardToken string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[cardToken]
	if !ok {
		return Account{}, ErrAccountNotFound
	}

	return account, nil
}

// CurrentBalance returns the ledger balance of the account.
func (s *MemoryService) CurrentBalance(_ context.Context, cardToken string) (decimal.Decimal, error) {
	account, err := s.account(cardToken)
	if err != nil {
		return decimal.Zero, err
	}

	return account.Current, nil
}

// AvailableBalance returns the balance available for withdrawal.
func (s *MemoryService) AvailableBalance(_ context.Context, cardToken string) (decimal.Decimal, error) {
	account, err := s.account(cardToken)
	if err != nil {
		return decimal.Zero, err
	}

	return account.Available, nil
}

// HasSufficientBalance reports whether the available balance covers amount.
func (s *MemoryService) HasSufficientBalance(ctx context.Context, cardToken string, amount decimal.Decimal) (bool, error) {
	available, err := s.AvailableBalance(ctx, cardToken)
	if err != nil {
		return false, err
	}

	return available.GreaterThanOrEqual(amount), nil
}

// DailyWithdrawalLimit returns the account's configured daily limit.
func (s *MemoryService) DailyWithdrawalLimit(_ context.Context, cardToken string) (decimal.Decimal, error) {
	account, err := s.account(cardToken)
	if err != nil {
		return decimal.Zero, err
	}

	return account.DailyLimit, nil
}

// RemainingDailyLimit returns the unconsumed portion of the daily limit.
func (s *MemoryService) RemainingDailyLimit(_ context.Context, cardToken string) (decimal.Decimal, error) {
	account, err := s.account(cardToken)
	if err != nil {
		return decimal.Zero, err
	}

	remaining := account.DailyLimit.Sub(account.WithdrawnToday)
	if remaining.IsNegative() {
		return decimal.Zero, nil
	}

	return remaining, nil
}

// IsWithinDailyLimit reports whether amount fits the remaining daily limit.
func (s *MemoryService) IsWithinDailyLimit(ctx context.Context, cardToken string, amount decimal.Decimal) (bool, error) {
	remaining, err := s.RemainingDailyLimit(ctx, cardToken)
	if err != nil {
		return false, err
	}

	return amount.LessThanOrEqual(remaining), nil
}

// RegisterWithdrawal consumes amount from the daily limit and balances.
func (s *MemoryService) RegisterWithdrawal(_ context.Context, cardToken string, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[cardToken]
	if !ok {
		return ErrAccountNotFound
	}

	account.WithdrawnToday = account.WithdrawnToday.Add(amount)
	account.Available = account.Available.Sub(amount)
	account.Current = account.Current.Sub(amount)
	s.accounts[cardToken] = account

	return nil
}

// AccountType returns the account classification.
func (s *MemoryService) AccountType(_ context.Context, cardToken string) (AccountType, error) {
	account, err := s.account(cardToken)
	if err != nil {
		return "", err
	}

	return account.Type, nil
}

// IsBalanceInquiryAllowed reports whether the account permits inquiries.
func (s *MemoryService) IsBalanceInquiryAllowed(_ context.Context, cardToken string) (bool, error) {
	account, err := s.account(cardToken)
	if err != nil {
		return false, err
	}

	return account.InquiryAllowed, nil
}
