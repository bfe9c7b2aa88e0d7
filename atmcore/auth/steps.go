package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LerianStudio/lib-atmcore/atmcore"
	"github.com/LerianStudio/lib-atmcore/atmcore/card"
	"github.com/LerianStudio/lib-atmcore/atmcore/chain"
	"github.com/LerianStudio/lib-atmcore/atmcore/constants"
	"github.com/LerianStudio/lib-atmcore/atmcore/log"
)

// CardSecurityStep resolves the card and checks that it is usable. On
// success it enriches the request's security context with the card record
// and its brand and issuer range.
type CardSecurityStep struct {
	Cards card.Service
}

func (s *CardSecurityStep) Name() string { return "card_security" }

func (s *CardSecurityStep) Handle(ctx context.Context, req *Request) chain.Result {
	c, err := s.Cards.CardByToken(ctx, req.CardToken)
	if err != nil {
		if errors.Is(err, card.ErrNotFound) {
			return chain.Fail("card not found", constants.CodeCardNotFound)
		}

		return chain.Fail("card lookup failed", constants.CodeAuthChainError)
	}

	if !c.IsActive() {
		return chain.Fail("card is not active", constants.CodeCardInactive)
	}

	if c.IsExpired(time.Now()) {
		return chain.Fail("card is expired", constants.CodeCardExpired)
	}

	req.Security.Card = &c
	req.Security.Brand = c.Brand
	req.Security.IIN = c.IIN

	return chain.Pass()
}

// RateLimitStep rejects cards that have exhausted their failed-attempt
// allowance and records the remaining attempts for downstream steps.
type RateLimitStep struct {
	Attempts AttemptStore
	Policy   Policy
}

func (s *RateLimitStep) Name() string { return "rate_limit" }

func (s *RateLimitStep) Handle(ctx context.Context, req *Request) chain.Result {
	attempts, err := s.Attempts.Attempts(ctx, req.CardToken)
	if err != nil {
		return chain.Fail("attempt counter unavailable", constants.CodeAuthChainError)
	}

	req.Security.FailedAttempts = attempts

	if s.Policy.ShouldBlock(attempts) {
		return chain.Fail(
			fmt.Sprintf("too many failed attempts (%d of %d allowed)", attempts, s.Policy.MaxAttempts),
			constants.CodeRateLimitExceeded,
		)
	}

	req.Security.RemainingAttempts = s.Policy.MaxAttempts - attempts

	return chain.Pass()
}

// PINSecurityStep verifies the PIN. Wrong PINs increment the attempt counter
// and report the updated count; a correct PIN resets the counter, stamps the
// context and stops the chain successfully.
type PINSecurityStep struct {
	Authenticator Authenticator
	Attempts      AttemptStore
	Policy        Policy
}

func (s *PINSecurityStep) Name() string { return "pin_security" }

func (s *PINSecurityStep) Handle(ctx context.Context, req *Request) chain.Result {
	if err := s.Policy.ValidateFormat(req.PIN); err != nil {
		return chain.Fail(err.Error(), constants.CodePINInvalidFormat)
	}

	ok, err := s.Authenticator.Authenticate(ctx, req.CardToken, req.PIN)
	if err != nil {
		return chain.Fail("pin verification unavailable", constants.CodeAuthChainError)
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

		req.Security.FailedAttempts = count

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

	req.Security.FailedAttempts = 0
	req.Security.PINAuthenticated = true
	req.Security.AuthenticatedAt = time.Now()

	return chain.PassAndStop("pin verified")
}
