package transaction

import (
	"context"
	"fmt"

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

// Dependencies names every collaborator the transaction service needs.
type Dependencies struct {
	Cards         card.Service
	Balances      balance.Service
	Inventory     cash.Service
	Authenticator auth.Authenticator
	Attempts      auth.AttemptStore
	Sessions      *session.Manager
	Journal       txlog.Recorder

	PINPolicy            auth.Policy
	AmountPolicy         cash.AmountPolicy
	MaxDailyTransactions int
}

// Service processes ATM transactions through immutable validation pipelines
// and journals every request. The full pipeline serves withdrawals and
// deposits; balance inquiries run a reduced pipeline without the PIN and
// cash steps.
type Service struct {
	full    *chain.Pipeline[*Request]
	inquiry *chain.Pipeline[*Request]
	deps    Dependencies
}

// NewService wires the two pipelines. Steps are shared between them; the
// pipelines themselves are built once and never mutated.
func NewService(deps Dependencies) (*Service, error) {
	sessionStep := &SessionValidationStep{Sessions: deps.Sessions}
	cardStep := &CardValidationStep{Cards: deps.Cards}
	pinStep := &PINValidationStep{
		Authenticator: deps.Authenticator,
		Attempts:      deps.Attempts,
		Policy:        deps.PINPolicy,
		Cards:         deps.Cards,
		Sessions:      deps.Sessions,
	}
	limitStep := &LimitValidationStep{
		Balances:             deps.Balances,
		Journal:              deps.Journal,
		MaxDailyTransactions: deps.MaxDailyTransactions,
	}
	cashStep := &CashAvailabilityStep{Inventory: deps.Inventory, Policy: deps.AmountPolicy}

	full, err := chain.New("transaction", constants.CodeChainError,
		[]chain.Step[*Request]{sessionStep, cardStep, pinStep, limitStep, cashStep})
	if err != nil {
		return nil, fmt.Errorf("building transaction pipeline: %w", err)
	}

	inquiry, err := chain.New("balance_inquiry", constants.CodeBalanceInquiryError,
		[]chain.Step[*Request]{sessionStep, cardStep, limitStep})
	if err != nil {
		return nil, fmt.Errorf("building balance inquiry pipeline: %w", err)
	}

	return &Service{full: full, inquiry: inquiry, deps: deps}, nil
}

// ProcessTransaction journals the request, runs the full pipeline and, for a
// successful withdrawal, applies the dispense to the inventory and the
// amount to the account's daily usage. The success payload is a Receipt
// carrying the trace numbers and, for withdrawals, the denomination plan.
func (s *Service) ProcessTransaction(ctx context.Context, req *Request) chain.Result {
	record, err := s.deps.Journal.Create(ctx, txlog.Record{
		CardToken:      req.CardToken,
		ATMCode:        req.ATMCode,
		ProcessingCode: req.ProcessingCode,
		Amount:         req.Amount,
		Currency:       req.Currency,
	})
	if err != nil {
		logger := atmcore.NewLoggerFromContext(ctx)
		logger.Log(ctx, log.LevelError, "failed to open transaction record",
			log.CardToken(req.CardToken),
			log.Err(err),
		)

		return chain.Fail("transaction could not be journaled", constants.CodeChainError)
	}

	result := s.full.Run(ctx, req)

	if result.Success && req.Kind() == KindWithdrawal {
		if settleErr := s.settleWithdrawal(ctx, req); settleErr != nil {
			result = chain.Fail("withdrawal could not be settled", constants.CodeChainError)
		}
	}

	s.complete(ctx, record.ID, result)

	if result.Success {
		result.Payload = Receipt{
			RRN:    record.RRN,
			STAN:   record.STAN,
			Kind:   req.Kind(),
			Amount: req.Amount,
			Plan:   req.State.Plan,
		}
	}

	return result
}

// ProcessBalanceInquiry journals the request and runs the reduced pipeline.
// The success payload is a Receipt carrying the account's current balance.
func (s *Service) ProcessBalanceInquiry(ctx context.Context, req *Request) chain.Result {
	record, err := s.deps.Journal.Create(ctx, txlog.Record{
		CardToken:      req.CardToken,
		ATMCode:        req.ATMCode,
		ProcessingCode: req.ProcessingCode,
		Currency:       req.Currency,
	})
	if err != nil {
		logger := atmcore.NewLoggerFromContext(ctx)
		logger.Log(ctx, log.LevelError, "failed to open transaction record",
			log.CardToken(req.CardToken),
			log.Err(err),
		)

		return chain.Fail("transaction could not be journaled", constants.CodeBalanceInquiryError)
	}

	result := s.inquiry.Run(ctx, req)

	if result.Success {
		current, balErr := s.deps.Balances.CurrentBalance(ctx, req.CardToken)
		if balErr != nil {
			result = chain.Fail("balance unavailable", constants.CodeBalanceInquiryError)
		} else {
			result.Payload = Receipt{
				RRN:     record.RRN,
				STAN:    record.STAN,
				Kind:    KindBalanceInquiry,
				Balance: current,
			}
		}
	}

	s.complete(ctx, record.ID, result)

	return result
}

// settleWithdrawal applies the computed plan to the ATM inventory and the
// amount to the account's daily withdrawal usage.
func (s *Service) settleWithdrawal(ctx context.Context, req *Request) error {
	if err := s.deps.Inventory.ApplyDispense(ctx, req.ATMCode, req.State.Plan); err != nil {
		return fmt.Errorf("applying dispense: %w", err)
	}

	if err := s.deps.Balances.RegisterWithdrawal(ctx, req.CardToken, req.Amount); err != nil {
		return fmt.Errorf("registering withdrawal: %w", err)
	}

	return nil
}

func (s *Service) complete(ctx context.Context, recordID string, result chain.Result) {
	status := txlog.StatusSuccess
	if !result.Success {
		status = txlog.StatusFailed
	}

	if _, err := s.deps.Journal.Complete(ctx, recordID, status, result.ErrorCode, result.Message); err != nil {
		logger := atmcore.NewLoggerFromContext(ctx)
		logger.Log(ctx, log.LevelError, "failed to complete transaction record",
			log.String("record_id", recordID),
			log.Err(err),
		)
	}
}
