package atmcore

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidConfig is returned when configuration validation fails.
var ErrInvalidConfig = errors.New("invalid atmcore configuration")

// Configuration defaults. Amount values are expressed in minor currency units.
const (
	DefaultSessionTimeout       = 300 * time.Second
	DefaultSweepInterval        = 60 * time.Second
	DefaultMaxFailedPINAttempts = 3
	DefaultMinWithdrawalAmount  = 100
	DefaultMaxWithdrawalAmount  = 20000
	DefaultWithdrawalStep       = 100
	DefaultMaxDailyTransactions = 50
	DefaultMinPINLength         = 4
	DefaultMaxPINLength         = 6
)

// Config carries the tunable knobs recognized by the authorization core.
// Zero values are not usable; construct via DefaultConfig or ConfigFromEnv.
type Config struct {
	// SessionTimeout is the sliding inactivity window of a session.
	SessionTimeout time.Duration

	// SweepInterval is the fixed period of the background expiry sweep.
	SweepInterval time.Duration

	// MaxFailedPINAttempts is the consecutive-failure count at which a card
	// is considered blocked.
	MaxFailedPINAttempts int

	// MinWithdrawalAmount, MaxWithdrawalAmount, and WithdrawalStep bound the
	// accepted withdrawal amounts (inclusive, minor currency units).
	MinWithdrawalAmount decimal.Decimal
	MaxWithdrawalAmount decimal.Decimal
	WithdrawalStep      decimal.Decimal

	// MaxDailyTransactions caps the per-card transaction count per day.
	MaxDailyTransactions int

	// MinPINLength and MaxPINLength bound the accepted PIN digit count.
	MinPINLength int
	MaxPINLength int

	// RejectTrivialPINs additionally rejects sequential and repeated-digit
	// PINs (e.g. 1234, 4321, 1111) during format validation.
	RejectTrivialPINs bool
}

// DefaultConfig returns the configuration with all documented defaults.
func DefaultConfig() Config {
	return Config{
		SessionTimeout:       DefaultSessionTimeout,
		SweepInterval:        DefaultSweepInterval,
		MaxFailedPINAttempts: DefaultMaxFailedPINAttempts,
		MinWithdrawalAmount:  decimal.NewFromInt(DefaultMinWithdrawalAmount),
		MaxWithdrawalAmount:  decimal.NewFromInt(DefaultMaxWithdrawalAmount),
		WithdrawalStep:       decimal.NewFromInt(DefaultWithdrawalStep),
		MaxDailyTransactions: DefaultMaxDailyTransactions,
		MinPINLength:         DefaultMinPINLength,
		MaxPINLength:         DefaultMaxPINLength,
		RejectTrivialPINs:    false,
	}
}

// ConfigFromEnv builds a Config from ATM_* environment variables, falling
// back to defaults for unset or malformed values.
//
// Recognized variables:
//
//	ATM_SESSION_TIMEOUT_SECONDS, ATM_SESSION_SWEEP_INTERVAL_SECONDS,
//	ATM_SECURITY_MAX_FAILED_ATTEMPTS, ATM_CASH_MIN_WITHDRAWAL_AMOUNT,
//	ATM_CASH_MAX_WITHDRAWAL_AMOUNT, ATM_CASH_WITHDRAWAL_MULTIPLE,
//	ATM_LIMITS_DAILY_TRANSACTION_COUNT, ATM_SECURITY_REJECT_TRIVIAL_PINS
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	cfg.SessionTimeout = time.Duration(GetenvIntOrDefault("ATM_SESSION_TIMEOUT_SECONDS", int(DefaultSessionTimeout/time.Second))) * time.Second
	cfg.SweepInterval = time.Duration(GetenvIntOrDefault("ATM_SESSION_SWEEP_INTERVAL_SECONDS", int(DefaultSweepInterval/time.Second))) * time.Second
	cfg.MaxFailedPINAttempts = GetenvIntOrDefault("ATM_SECURITY_MAX_FAILED_ATTEMPTS", DefaultMaxFailedPINAttempts)
	cfg.MinWithdrawalAmount = decimal.NewFromInt(int64(GetenvIntOrDefault("ATM_CASH_MIN_WITHDRAWAL_AMOUNT", DefaultMinWithdrawalAmount)))
	cfg.MaxWithdrawalAmount = decimal.NewFromInt(int64(GetenvIntOrDefault("ATM_CASH_MAX_WITHDRAWAL_AMOUNT", DefaultMaxWithdrawalAmount)))
	cfg.WithdrawalStep = decimal.NewFromInt(int64(GetenvIntOrDefault("ATM_CASH_WITHDRAWAL_MULTIPLE", DefaultWithdrawalStep)))
	cfg.MaxDailyTransactions = GetenvIntOrDefault("ATM_LIMITS_DAILY_TRANSACTION_COUNT", DefaultMaxDailyTransactions)
	cfg.RejectTrivialPINs = GetenvBoolOrDefault("ATM_SECURITY_REJECT_TRIVIAL_PINS", false)

	return cfg
}

// Validate reports whether the configuration is internally consistent.
func (cfg Config) Validate() error {
	if cfg.SessionTimeout <= 0 {
		return fmt.Errorf("%w: session timeout must be positive", ErrInvalidConfig)
	}

	if cfg.SweepInterval <= 0 {
		return fmt.Errorf("%w: sweep interval must be positive", ErrInvalidConfig)
	}

	if cfg.MaxFailedPINAttempts < 1 {
		return fmt.Errorf("%w: max failed PIN attempts must be at least 1", ErrInvalidConfig)
	}

	if !cfg.WithdrawalStep.IsPositive() {
		return fmt.Errorf("%w: withdrawal step must be positive", ErrInvalidConfig)
	}

	if cfg.MinWithdrawalAmount.GreaterThan(cfg.MaxWithdrawalAmount) {
		return fmt.Errorf("%w: min withdrawal amount exceeds max", ErrInvalidConfig)
	}

	if cfg.MaxDailyTransactions < 1 {
		return fmt.Errorf("%w: max daily transactions must be at least 1", ErrInvalidConfig)
	}

	if cfg.MinPINLength < 1 || cfg.MinPINLength > cfg.MaxPINLength {
		return fmt.Errorf("%w: PIN length bounds are inconsistent", ErrInvalidConfig)
	}

	return nil
}
