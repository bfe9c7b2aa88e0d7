package auth

import (
	"context"
	"fmt"

	"github.com/LerianStudio/lib-atmcore/atmcore"
	"github.com/LerianStudio/lib-atmcore/atmcore/card"
	"github.com/LerianStudio/lib-atmcore/atmcore/chain"
	"github.com/LerianStudio/lib-atmcore/atmcore/constants"
	"github.com/LerianStudio/lib-atmcore/atmcore/log"
	"github.com/LerianStudio/lib-atmcore/atmcore/session"
)

// Service authenticates cardholders. The full pipeline runs card security,
// rate limiting and PIN verification; the quick pipeline stops after rate
// limiting for operations that do not need the PIN re-verified.
type Service struct {
	full     *chain.Pipeline[*Request]
	quick    *chain.Pipeline[*Request]
	sessions *session.Manager
	policy   Policy
}

// NewService wires the authentication pipelines. Both pipelines are built
// once here and never mutated afterwards.
func NewService(
	cards card.Service,
	authenticator Authenticator,
	attempts AttemptStore,
	sessions *session.Manager,
	policy Policy,
) (*Service, error) {
	cardStep := &CardSecurityStep{Cards: cards}
	rateStep := &RateLimitStep{Attempts: attempts, Policy: policy}
	pinStep := &PINSecurityStep{Authenticator: authenticator, Attempts: attempts, Policy: policy}

	full, err := chain.New("authentication", constants.CodeAuthChainError,
		[]chain.Step[*Request]{cardStep, rateStep, pinStep})
	if err != nil {
		return nil, fmt.Errorf("building authentication pipeline: %w", err)
	}

	quick, err := chain.New("quick_authentication", constants.CodeQuickAuthError,
		[]chain.Step[*Request]{cardStep, rateStep})
	if err != nil {
		return nil, fmt.Errorf("building quick authentication pipeline: %w", err)
	}

	return &Service{
		full:     full,
		quick:    quick,
		sessions: sessions,
		policy:   policy,
	}, nil
}

// Authenticate runs the full pipeline. On success it opens a session for the
// card on the requesting ATM and returns the session token as the Result
// payload. When the failure exhausts the attempt allowance, every session
// the card still holds is force-terminated.
func (s *Service) Authenticate(ctx context.Context, req *Request) chain.Result {
	result := s.full.Run(ctx, req)

	if !result.Success {
		s.closeSessionsIfBlocked(ctx, req)

		return result
	}

	sess, err := s.sessions.Create(ctx, req.CardToken, req.ATMCode)
	if err != nil {
		logger := atmcore.NewLoggerFromContext(ctx)
		logger.Log(ctx, log.LevelError, "failed to create session after authentication",
			log.CardToken(req.CardToken),
			log.Err(err),
		)

		return chain.Fail("could not establish session", constants.CodeAuthChainError)
	}

	return chain.PassWith("authentication successful", sess.Token)
}

// QuickAuthenticate runs the card and rate-limit checks only.
func (s *Service) QuickAuthenticate(ctx context.Context, req *Request) chain.Result {
	return s.quick.Run(ctx, req)
}

// closeSessionsIfBlocked terminates all of the card's sessions once its
// failed attempts reach the block threshold, so a stolen card cannot keep
// riding an already-open window.
func (s *Service) closeSessionsIfBlocked(ctx context.Context, req *Request) {
	if !s.policy.ShouldBlock(req.Security.FailedAttempts) {
		return
	}

	if _, err := s.sessions.TerminateAllForCard(ctx, req.CardToken, constants.TerminationReasonSecurityBlock); err != nil {
		logger := atmcore.NewLoggerFromContext(ctx)
		logger.Log(ctx, log.LevelError, "failed to terminate sessions for blocked card",
			log.CardToken(req.CardToken),
			log.Err(err),
		)
	}
}
