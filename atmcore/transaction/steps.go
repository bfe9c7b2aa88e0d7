package transaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LerianStudio/lib-atmcore/atmcore"
	"github.com/LerianStudio/lib-atmcore/atmcore/auth"
	"github.com/LerianStudio/lib-atmcore/atmcore/balance"
	"github.com/LerianStudio/lib-atmcore/atmcore/card"
	"github.com/LerianStudio/lib-atmcore/atmcore/cash"
	"github.com/LerianStudio/lib-atmcore/atmcore/chain"
	"github.com/LerianStudio/lib-atmcore/atmcore/constants"
	"github.com/LerianStudio/lib-atmcore/atmcore/log"
	"github.com/LerianStudio/lib-atmcore/atmcore/session"
	"github.com/LerianStudio/lib-atmcore/atmcore/txlog"
)

// SessionValidationStep checks that the request rides an active session
// bound to the request's card, then extends the session as an observable
// side effect: every validated call slides the expiry window and bumps the
// call counter.
type SessionValidationStep struct {
	Sessions *session.Manager
}

func (s *SessionValidationStep) Name() string { return "session_validation" }

func (s *SessionValidationStep) Handle(ctx context.Context, req *Request) chain.Result {
	sess, err := s.Sessions.Get(ctx, req.SessionToken)
	if err != nil {
		return chain.Fail("session not found", constants.CodeSessionInvalid)
	}

	if !s.Sessions.Validate(ctx, req.SessionToken) {
		return chain.Fail(
			fmt.Sprintf("session is %s", sess.Status),
			constants.CodeSessionInvalid,
		)
	}

	if sess.CardToken != req.CardToken {
		return chain.Fail("session is bound to a different card", constants.CodeSessionMismatch)
	}

	if _, err := s.Sessions.Extend(ctx, req.SessionToken); err != nil {
		return chain.Fail("session could not be extended", constants.CodeSessionInvalid)
	}

	return chain.Pass()
}

// CardValidationStep re-checks the card at transaction time: it may have
// been blocked or expired since authentication.
type CardValidationStep struct {
	Cards card.Service
}

func (s *CardValidationStep) Name() string { return "card_validation" }

func (s *CardValidationStep) Handle(ctx context.Context, req *Request) chain.Result {
	c, err := s.Cards.CardByToken(ctx, req.CardToken)
	if err != nil {
		if errors.Is(err, card.ErrNotFound) {
			return chain.Fail("card not found", constants.CodeCardNotFound)
		}

		return chain.Fail("card lookup failed", constants.CodeChainError)
	}

	if !c.IsActive() {
		return chain.Fail("card is not active", constants.CodeCardInactive)
	}

	if c.IsExpired(time.Now()) {
		return chain.Fail("card is expired", constants.CodeCardExpired)
	}

	req.State.Card = &c

	return chain.Pass()
}

// PINValidationStep verifies the PIN at transaction time. Unlike the
// authentication pipeline's rate-limit step, exhausting the attempt
// allowance here persists the card block and closes every session the card
// holds. Balance inquiries whose PIN was already verified this session skip
// the step entirely.
type PINValidationStep struct {
	Authenticator auth.Authenticator
	Attempts      auth.AttemptStore
	Policy        auth.Policy
	Cards         card.Service
	Sessions      *session.Manager
}

func (s *PINValidationStep) Name() string { return "pin_validation" }

func (s *PINValidationStep) Handle(ctx context.Context, req *Request) chain.Result {
	if req.Kind() == KindBalanceInquiry && req.PINValidated {
		req.State.PINValidated = true

		return chain.Pass()
	}

	if err := s.Policy.ValidateFormat(req.PIN); err != nil {
		return chain.Fail(err.Error(), constants.CodePINInvalidFormat)
	}

	attempts, err := s.Attempts.Attempts(ctx, req.CardToken)
	if err != nil {
		return chain.Fail("attempt counter unavailable", constants.CodeChainError)
	}

	if s.Policy.ShouldBlock(attempts) {
		return s.blockCard(ctx, req)
	}

	ok, err := s.Authenticator.Authenticate(ctx, req.CardToken, req.PIN)
	if err != nil {
		return chain.Fail("pin verification unavailable", constants.CodeChainError)
	}

	if !ok {
		count, incErr := s.Attempts.Increment(ctx, req.CardToken)
		if incErr != nil {
			logger := atmcore.NewLoggerFromContext(ctx)
			logger.Log(ctx, log.LevelError, "failed to record pin attempt",
				log.CardToken(req.CardToken),
				log.Err(incErr),
			)
		}

		if s.Policy.ShouldBlock(count) {
			return s.blockCard(ctx, req)
		}

		return chain.Fail(
			fmt.Sprintf("incorrect pin (failed attempts: %d)", count),
			constants.CodePINIncorrect,
		)
	}

	if err := s.Attempts.Reset(ctx, req.CardToken); err != nil {
		logger := atmcore.NewLoggerFromContext(ctx)
		logger.Log(ctx, log.LevelError, "failed to reset pin attempts",
			log.CardToken(req.CardToken),
			log.Err(err),
		)
	}

	req.State.PINValidated = true

	return chain.Pass()
}

// blockCard persists the block and force-terminates the card's sessions.
func (s *PINValidationStep) blockCard(ctx context.Context, req *Request) chain.Result {
	logger := atmcore.NewLoggerFromContext(ctx)

	if err := s.Cards.Block(ctx, req.CardToken); err != nil {
		logger.Log(ctx, log.LevelError, "failed to persist card block",
			log.CardToken(req.CardToken),
			log.Err(err),
		)
	}

	if _, err := s.Sessions.TerminateAllForCard(ctx, req.CardToken, constants.TerminationReasonSecurityBlock); err != nil {
		logger.Log(ctx, log.LevelError, "failed to terminate sessions for blocked card",
			log.CardToken(req.CardToken),
			log.Err(err),
		)
	}

	return chain.Fail("card blocked after repeated pin failures", constants.CodeCardBlocked)
}

// LimitValidationStep enforces the daily transaction count for every kind,
// the daily withdrawal limit and balance sufficiency for withdrawals, and
// the inquiry-allowed flag for balance inquiries.
type LimitValidationStep struct {
	Balances             balance.Service
	Journal              txlog.Recorder
	MaxDailyTransactions int
}

func (s *LimitValidationStep) Name() string { return "limit_validation" }

func (s *LimitValidationStep) Handle(ctx context.Context, req *Request) chain.Result {
	count, err := s.Journal.DailyCount(ctx, req.CardToken, time.Now())
	if err != nil {
		return chain.Fail("daily transaction count unavailable", constants.CodeChainError)
	}

	// The record opened for this very request counts toward today.
	if count > s.MaxDailyTransactions {
		return chain.Fail(
			fmt.Sprintf("daily transaction limit of %d reached", s.MaxDailyTransactions),
			constants.CodeDailyTxnLimitExceeded,
		)
	}

	switch req.Kind() {
	case KindWithdrawal:
		return s.validateWithdrawal(ctx, req)
	case KindBalanceInquiry:
		return s.validateInquiry(ctx, req)
	default:
		return chain.Pass()
	}
}

func (s *LimitValidationStep) validateWithdrawal(ctx context.Context, req *Request) chain.Result {
	within, err := s.Balances.IsWithinDailyLimit(ctx, req.CardToken, req.Amount)
	if err != nil {
		return chain.Fail("daily withdrawal limit unavailable", constants.CodeChainError)
	}

	remaining, err := s.Balances.RemainingDailyLimit(ctx, req.CardToken)
	if err != nil {
		return chain.Fail("daily withdrawal limit unavailable", constants.CodeChainError)
	}

	req.State.RemainingDailyLimit = remaining

	if !within {
		return chain.Fail(
			fmt.Sprintf("amount exceeds remaining daily withdrawal limit of %s", remaining),
			constants.CodeDailyWithdrawalLimitExceeded,
		)
	}

	sufficient, err := s.Balances.HasSufficientBalance(ctx, req.CardToken, req.Amount)
	if err != nil {
		return chain.Fail("balance unavailable", constants.CodeChainError)
	}

	if !sufficient {
		return chain.Fail("insufficient account balance", constants.CodeInsufficientBalance)
	}

	return chain.Pass()
}

func (s *LimitValidationStep) validateInquiry(ctx context.Context, req *Request) chain.Result {
	allowed, err := s.Balances.IsBalanceInquiryAllowed(ctx, req.CardToken)
	if err != nil {
		return chain.Fail("inquiry permission unavailable", constants.CodeChainError)
	}

	if !allowed {
		return chain.Fail("balance inquiry is not allowed on this account", constants.CodeBalanceInquiryNotAllowed)
	}

	return chain.Pass()
}

// CashAvailabilityStep validates the amount shape, checks the ATM holds
// enough total cash, and computes an exact denomination plan. Non-withdrawal
// kinds pass through untouched.
type CashAvailabilityStep struct {
	Inventory cash.Service
	Policy    cash.AmountPolicy
}

func (s *CashAvailabilityStep) Name() string { return "cash_availability" }

func (s *CashAvailabilityStep) Handle(ctx context.Context, req *Request) chain.Result {
	if req.Kind() != KindWithdrawal {
		return chain.Pass()
	}

	if err := s.Policy.Validate(req.Amount); err != nil {
		return chain.Fail(err.Error(), constants.CodeInvalidWithdrawalAmount)
	}

	total, err := s.Inventory.TotalAvailable(ctx, req.ATMCode)
	if err != nil {
		return chain.Fail("inventory unavailable", constants.CodeChainError)
	}

	if total.LessThan(req.Amount) {
		return chain.Fail("atm does not hold enough cash", constants.CodeInsufficientCashInATM)
	}

	stock, err := s.Inventory.AvailableDenominations(ctx, req.ATMCode)
	if err != nil {
		return chain.Fail("inventory unavailable", constants.CodeChainError)
	}

	plan, err := cash.Distribute(req.Amount.IntPart(), stock)
	if err != nil {
		return chain.Fail("no exact note combination for the amount", constants.CodeCannotDispenseAmount)
	}

	req.State.Plan = plan

	return chain.PassWith("denomination plan computed", plan)
}
