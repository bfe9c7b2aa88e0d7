package transaction

import (
	"github.com/shopspring/decimal"

	"github.com/LerianStudio/lib-atmcore/atmcore/card"
	"github.com/LerianStudio/lib-atmcore/atmcore/constants"
)

// OperationKind classifies a transaction by its processing code.
type OperationKind string

const (
	// KindWithdrawal is a cash withdrawal.
	KindWithdrawal OperationKind = "WITHDRAWAL"
	// KindBalanceInquiry is a balance lookup.
	KindBalanceInquiry OperationKind = "BALANCE_INQUIRY"
	// KindDeposit is a cash or cheque deposit.
	KindDeposit OperationKind = "DEPOSIT"
	// KindUnknown is any processing code outside the fixed table.
	KindUnknown OperationKind = "UNKNOWN"
)

// Classify maps a processing code to its operation kind by exact match.
// Codes outside the table classify as KindUnknown and take default handling;
// no prefix or fuzzy matching is attempted.
func Classify(processingCode string) OperationKind {
	switch processingCode {
	case constants.ProcessingCodeWithdrawalShort, constants.ProcessingCodeWithdrawalISO:
		return KindWithdrawal
	case constants.ProcessingCodeBalanceInquiryShort, constants.ProcessingCodeBalanceInquiryISO:
		return KindBalanceInquiry
	case constants.ProcessingCodeDepositShort, constants.ProcessingCodeDepositISO:
		return KindDeposit
	default:
		return KindUnknown
	}
}

// Request carries one transaction through the pipeline. Steps enrich State
// as they pass; the struct is never shared across requests.
type Request struct {
	SessionToken   string
	CardToken      string
	ATMCode        string
	ProcessingCode string
	Amount         decimal.Decimal
	Currency       string
	PIN            string

	// PINValidated marks that the PIN was already verified this session,
	// letting balance inquiries skip re-verification.
	PINValidated bool

	State State
}

// Kind returns the request's operation classification.
func (r *Request) Kind() OperationKind {
	return Classify(r.ProcessingCode)
}

// State is the typed context the transaction steps build up.
type State struct {
	Card                *card.Card
	PINValidated        bool
	RemainingDailyLimit decimal.Decimal
	Plan                map[int64]int
}

// Receipt is the payload of a successful pipeline run: the trace numbers
// correlating the operation plus kind-specific results.
type Receipt struct {
	RRN     string          `json:"rrn"`
	STAN    string          `json:"stan"`
	Kind    OperationKind   `json:"kind"`
	Amount  decimal.Decimal `json:"amount"`
	Plan    map[int64]int   `json:"plan,omitempty"`
	Balance decimal.Decimal `json:"balance"`
}
