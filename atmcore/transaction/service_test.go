//go:build unit

package transaction

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LerianStudio/lib-atmcore/atmcore/auth"
	"github.com/LerianStudio/lib-atmcore/atmcore/balance"
	"github.com/LerianStudio/lib-atmcore/atmcore/card"
	"github.com/LerianStudio/lib-atmcore/atmcore/cash"
	"github.com/LerianStudio/lib-atmcore/atmcore/constants"
	"github.com/LerianStudio/lib-atmcore/atmcore/session"
	"github.com/LerianStudio/lib-atmcore/atmcore/txlog"
)

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

type fixture struct {
	cards         *card.MemoryService
	balances      *balance.MemoryService
	inventory     *cash.MemoryService
	authenticator *auth.MemoryAuthenticator
	attempts      *auth.MemoryAttemptStore
	sessions      *session.Manager
	journal       *txlog.MemoryRecorder
	service       *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		cards:         card.NewMemoryService(),
		balances:      balance.NewMemoryService(),
		inventory:     cash.NewMemoryService(),
		authenticator: auth.NewMemoryAuthenticator(),
		attempts:      auth.NewMemoryAttemptStore(),
		sessions:      session.NewManager(5 * time.Minute),
		journal:       txlog.NewMemoryRecorder(),
	}

	service, err := NewService(Dependencies{
		Cards:         f.cards,
		Balances:      f.balances,
		Inventory:     f.inventory,
		Authenticator: f.authenticator,
		Attempts:      f.attempts,
		Sessions:      f.sessions,
		Journal:       f.journal,
		PINPolicy:     auth.Policy{MinLength: 4, MaxLength: 6, MaxAttempts: 3},
		AmountPolicy: cash.NewAmountPolicy(
			dec(100), dec(20000), dec(100),
		),
		MaxDailyTransactions: 50,
	})
	require.NoError(t, err)

	f.service = service

	return f
}

// openSession seeds an active card with funds and inventory, then opens a
// session for it.
func (f *fixture) openSession(t *testing.T, cardToken string) session.Session {
	t.Helper()

	f.cards.Put(card.Card{
		Token:       cardToken,
		Brand:       "VISA",
		IIN:         "411111",
		ExpiryMonth: 12,
		ExpiryYear:  2030,
		Status:      card.StatusActive,
	})
	f.authenticator.SetPIN(cardToken, "4921")
	f.balances.Put(cardToken, balance.Account{
		Current:        dec(100000),
		Available:      dec(100000),
		DailyLimit:     dec(25000),
		Type:           balance.AccountTypeSavings,
		InquiryAllowed: true,
	})
	f.inventory.Load("ATM-01", map[int64]cash.Slot{
		2000: {Count: 5, Enabled: true},
		500:  {Count: 10, Enabled: true},
		100:  {Count: 50, Enabled: true},
	})

	sess, err := f.sessions.Create(context.Background(), cardToken, "ATM-01")
	require.NoError(t, err)

	return sess
}

func withdrawalRequest(sess session.Session, amount int64) *Request {
	return &Request{
		SessionToken:   sess.Token,
		CardToken:      sess.CardToken,
		ATMCode:        sess.ATMCode,
		ProcessingCode: constants.ProcessingCodeWithdrawalISO,
		Amount:         dec(amount),
		Currency:       "INR",
		PIN:            "4921",
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code string
		want OperationKind
	}{
		{code: "01", want: KindWithdrawal},
		{code: "010000", want: KindWithdrawal},
		{code: "31", want: KindBalanceInquiry},
		{code: "310000", want: KindBalanceInquiry},
		{code: "21", want: KindDeposit},
		{code: "210000", want: KindDeposit},
		{code: "0100", want: KindUnknown},
		{code: "1", want: KindUnknown},
		{code: "", want: KindUnknown},
		{code: "010000 ", want: KindUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.code), "code %q", tt.code)
	}
}

func TestProcessTransaction_WithdrawalSuccess(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	sess := f.openSession(t, "card-1")

	result := f.service.ProcessTransaction(ctx, withdrawalRequest(sess, 4300))
	require.True(t, result.Success, "message: %s code: %s", result.Message, result.ErrorCode)

	receipt, ok := result.Payload.(Receipt)
	require.True(t, ok)
	assert.Equal(t, map[int64]int{2000: 2, 100: 3}, receipt.Plan)
	assert.Len(t, receipt.RRN, 12)
	assert.Len(t, receipt.STAN, 6)

	// Settlement: the notes left the cassette and the daily usage grew.
	available, err := f.inventory.AvailableDenominations(ctx, "ATM-01")
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{2000: 3, 500: 10, 100: 47}, available)

	remaining, err := f.balances.RemainingDailyLimit(ctx, "card-1")
	require.NoError(t, err)
	assert.True(t, remaining.Equal(dec(20700)))

	// The session slid forward as an observable side effect.
	got, err := f.sessions.Get(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CallCount)
}

func TestProcessTransaction_AmountBelowStepRejectedBeforeDistributor(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	sess := f.openSession(t, "card-1")

	result := f.service.ProcessTransaction(ctx, withdrawalRequest(sess, 50))
	require.False(t, result.Success)
	assert.Equal(t, constants.CodeInvalidWithdrawalAmount, result.ErrorCode)

	// Nothing was dispensed.
	available, err := f.inventory.AvailableDenominations(ctx, "ATM-01")
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{2000: 5, 500: 10, 100: 50}, available)
}

func TestProcessTransaction_SessionFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	sess := f.openSession(t, "card-1")

	t.Run("unknown session", func(t *testing.T) {
		req := withdrawalRequest(sess, 500)
		req.SessionToken = "no-such-session"

		result := f.service.ProcessTransaction(ctx, req)
		require.False(t, result.Success)
		assert.Equal(t, constants.CodeSessionInvalid, result.ErrorCode)
	})

	t.Run("card mismatch", func(t *testing.T) {
		req := withdrawalRequest(sess, 500)
		req.CardToken = "card-other"

		result := f.service.ProcessTransaction(ctx, req)
		require.False(t, result.Success)
		assert.Equal(t, constants.CodeSessionMismatch, result.ErrorCode)
	})

	t.Run("terminated session", func(t *testing.T) {
		terminated, err := f.sessions.Create(ctx, "card-1", "ATM-01")
		require.NoError(t, err)
		require.NoError(t, f.sessions.Terminate(ctx, terminated.Token, constants.TerminationReasonLogout))

		req := withdrawalRequest(sess, 500)
		req.SessionToken = terminated.Token

		result := f.service.ProcessTransaction(ctx, req)
		require.False(t, result.Success)
		assert.Equal(t, constants.CodeSessionInvalid, result.ErrorCode)
	})
}

func TestProcessTransaction_RepeatedWrongPINBlocksCard(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	sess := f.openSession(t, "card-1")

	for i := 0; i < 2; i++ {
		req := withdrawalRequest(sess, 500)
		req.PIN = "0000"

		result := f.service.ProcessTransaction(ctx, req)
		require.False(t, result.Success)
		assert.Equal(t, constants.CodePINIncorrect, result.ErrorCode)
	}

	// Third failure crosses the threshold: the block is persisted and every
	// session the card holds is closed.
	req := withdrawalRequest(sess, 500)
	req.PIN = "0000"

	result := f.service.ProcessTransaction(ctx, req)
	require.False(t, result.Success)
	assert.Equal(t, constants.CodeCardBlocked, result.ErrorCode)

	c, err := f.cards.CardByToken(ctx, "card-1")
	require.NoError(t, err)
	assert.Equal(t, card.StatusBlocked, c.Status)

	got, err := f.sessions.Get(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, session.StatusTerminated, got.Status)
}

func TestProcessTransaction_DailyWithdrawalLimit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	sess := f.openSession(t, "card-1")

	f.balances.Put("card-1", balance.Account{
		Current:        dec(100000),
		Available:      dec(100000),
		DailyLimit:     dec(5000),
		WithdrawnToday: dec(4000),
		Type:           balance.AccountTypeSavings,
		InquiryAllowed: true,
	})

	result := f.service.ProcessTransaction(ctx, withdrawalRequest(sess, 2000))
	require.False(t, result.Success)
	assert.Equal(t, constants.CodeDailyWithdrawalLimitExceeded, result.ErrorCode)
	assert.Contains(t, result.Message, "1000", "remaining limit is embedded in the message")
}

func TestProcessTransaction_InsufficientBalance(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	sess := f.openSession(t, "card-1")

	f.balances.Put("card-1", balance.Account{
		Current:        dec(300),
		Available:      dec(300),
		DailyLimit:     dec(25000),
		Type:           balance.AccountTypeSavings,
		InquiryAllowed: true,
	})

	result := f.service.ProcessTransaction(ctx, withdrawalRequest(sess, 500))
	require.False(t, result.Success)
	assert.Equal(t, constants.CodeInsufficientBalance, result.ErrorCode)
}

func TestProcessTransaction_InsufficientCash(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	sess := f.openSession(t, "card-1")

	f.inventory.Load("ATM-01", map[int64]cash.Slot{
		500: {Count: 2, Enabled: true},
	})

	result := f.service.ProcessTransaction(ctx, withdrawalRequest(sess, 5000))
	require.False(t, result.Success)
	assert.Equal(t, constants.CodeInsufficientCashInATM, result.ErrorCode)
}

func TestProcessTransaction_CannotDispense(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	sess := f.openSession(t, "card-1")

	// Enough total cash, but no exact combination for 300.
	f.inventory.Load("ATM-01", map[int64]cash.Slot{
		200: {Count: 5, Enabled: true},
	})

	result := f.service.ProcessTransaction(ctx, withdrawalRequest(sess, 300))
	require.False(t, result.Success)
	assert.Equal(t, constants.CodeCannotDispenseAmount, result.ErrorCode)
}

func TestProcessTransaction_DisabledDenominationExcluded(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	sess := f.openSession(t, "card-1")

	f.inventory.Load("ATM-01", map[int64]cash.Slot{
		2000: {Count: 5, Enabled: false},
		500:  {Count: 10, Enabled: true},
	})

	result := f.service.ProcessTransaction(ctx, withdrawalRequest(sess, 4000))
	require.True(t, result.Success, "message: %s", result.Message)

	receipt := result.Payload.(Receipt)
	assert.Equal(t, map[int64]int{500: 8}, receipt.Plan, "disabled 2000s never enter the plan")
}

func TestProcessTransaction_DailyTransactionCount(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	sess := f.openSession(t, "card-1")

	service, err := NewService(Dependencies{
		Cards:                f.cards,
		Balances:             f.balances,
		Inventory:            f.inventory,
		Authenticator:        f.authenticator,
		Attempts:             f.attempts,
		Sessions:             f.sessions,
		Journal:              f.journal,
		PINPolicy:            auth.Policy{MinLength: 4, MaxLength: 6, MaxAttempts: 3},
		AmountPolicy:         cash.NewAmountPolicy(dec(100), dec(20000), dec(100)),
		MaxDailyTransactions: 2,
	})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		result := service.ProcessTransaction(ctx, withdrawalRequest(sess, 500))
		require.True(t, result.Success, "transaction %d: %s", i, result.Message)
	}

	result := service.ProcessTransaction(ctx, withdrawalRequest(sess, 500))
	require.False(t, result.Success)
	assert.Equal(t, constants.CodeDailyTxnLimitExceeded, result.ErrorCode)
}

func TestProcessTransaction_UnknownCodeFallsThrough(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	sess := f.openSession(t, "card-1")

	req := withdrawalRequest(sess, 0)
	req.ProcessingCode = "990000"
	req.Amount = decimal.Zero

	// Not a withdrawal, inquiry or deposit: the kind-aware checks are
	// no-ops and the pipeline passes on session, card and PIN alone.
	result := f.service.ProcessTransaction(ctx, req)
	require.True(t, result.Success, "message: %s code: %s", result.Message, result.ErrorCode)

	receipt := result.Payload.(Receipt)
	assert.Equal(t, KindUnknown, receipt.Kind)
	assert.Nil(t, receipt.Plan)
}

func TestProcessTransaction_JournalRecordsOutcome(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	sess := f.openSession(t, "card-1")

	result := f.service.ProcessTransaction(ctx, withdrawalRequest(sess, 4300))
	require.True(t, result.Success)

	count, err := f.journal.DailyCount(ctx, "card-1", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	req := withdrawalRequest(sess, 500)
	req.PIN = "0000"

	result = f.service.ProcessTransaction(ctx, req)
	require.False(t, result.Success)

	count, err = f.journal.DailyCount(ctx, "card-1", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, count, "failed transactions are journaled too")
}

func TestProcessBalanceInquiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	sess := f.openSession(t, "card-1")

	req := &Request{
		SessionToken:   sess.Token,
		CardToken:      "card-1",
		ATMCode:        "ATM-01",
		ProcessingCode: constants.ProcessingCodeBalanceInquiryISO,
		Currency:       "INR",
		PINValidated:   true,
	}

	result := f.service.ProcessBalanceInquiry(ctx, req)
	require.True(t, result.Success, "message: %s code: %s", result.Message, result.ErrorCode)

	receipt, ok := result.Payload.(Receipt)
	require.True(t, ok)
	assert.Equal(t, KindBalanceInquiry, receipt.Kind)
	assert.True(t, receipt.Balance.Equal(dec(100000)))
}

func TestProcessBalanceInquiry_NotAllowed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	sess := f.openSession(t, "card-1")

	f.balances.Put("card-1", balance.Account{
		Current:        dec(100000),
		Available:      dec(100000),
		DailyLimit:     dec(25000),
		Type:           balance.AccountTypeCurrent,
		InquiryAllowed: false,
	})

	req := &Request{
		SessionToken:   sess.Token,
		CardToken:      "card-1",
		ATMCode:        "ATM-01",
		ProcessingCode: constants.ProcessingCodeBalanceInquiryISO,
		PINValidated:   true,
	}

	result := f.service.ProcessBalanceInquiry(ctx, req)
	require.False(t, result.Success)
	assert.Equal(t, constants.CodeBalanceInquiryNotAllowed, result.ErrorCode)
}

func TestPINValidationStep_SkipsRevalidatedInquiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	sess := f.openSession(t, "card-1")

	req := &Request{
		SessionToken:   sess.Token,
		CardToken:      "card-1",
		ATMCode:        "ATM-01",
		ProcessingCode: constants.ProcessingCodeBalanceInquiryShort,
		PINValidated:   true,
		// No PIN supplied at all.
	}

	step := &PINValidationStep{
		Authenticator: f.authenticator,
		Attempts:      f.attempts,
		Policy:        auth.Policy{MinLength: 4, MaxLength: 6, MaxAttempts: 3},
		Cards:         f.cards,
		Sessions:      f.sessions,
	}

	result := step.Handle(ctx, req)
	require.True(t, result.Success)
	assert.True(t, req.State.PINValidated)

	// A withdrawal never skips, even with the flag set.
	req.ProcessingCode = constants.ProcessingCodeWithdrawalShort

	result = step.Handle(ctx, req)
	require.False(t, result.Success)
	assert.Equal(t, constants.CodePINInvalidFormat, result.ErrorCode)
}
