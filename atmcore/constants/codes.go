package constants

// Card validation error codes.
const (
	// CodeCardNotFound indicates no card record matches the supplied token.
	CodeCardNotFound = "CARD_NOT_FOUND"
	// CodeCardInactive indicates the card exists but is blocked or inactive.
	CodeCardInactive = "CARD_INACTIVE"
	// CodeCardExpired indicates the card is past its expiry date.
	CodeCardExpired = "CARD_EXPIRED"
	// CodeCardBlocked indicates the card was blocked after repeated PIN failures.
	CodeCardBlocked = "CARD_BLOCKED"
)

// PIN and rate-limiting error codes.
const (
	// CodePINInvalidFormat indicates the PIN does not satisfy the format policy.
	CodePINInvalidFormat = "PIN_INVALID_FORMAT"
	// CodePINIncorrect indicates PIN authentication failed.
	CodePINIncorrect = "PIN_INCORRECT"
	// CodeRateLimitExceeded indicates too many consecutive failed attempts.
	CodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
)

// Session error codes.
const (
	// CodeSessionInvalid indicates the session is absent, expired, or terminated.
	CodeSessionInvalid = "SESSION_INVALID"
	// CodeSessionMismatch indicates the session is bound to a different card.
	CodeSessionMismatch = "SESSION_MISMATCH"
)

// Limit and balance error codes.
const (
	// CodeDailyTxnLimitExceeded indicates the daily transaction count is exhausted.
	CodeDailyTxnLimitExceeded = "DAILY_TXN_LIMIT_EXCEEDED"
	// CodeDailyWithdrawalLimitExceeded indicates the amount exceeds the remaining daily limit.
	CodeDailyWithdrawalLimitExceeded = "DAILY_WITHDRAWAL_LIMIT_EXCEEDED"
	// CodeInsufficientBalance indicates the account cannot cover the amount.
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	// CodeBalanceInquiryNotAllowed indicates the account forbids balance inquiries.
	CodeBalanceInquiryNotAllowed = "BALANCE_INQUIRY_NOT_ALLOWED"
)

// Cash error codes.
const (
	// CodeInvalidWithdrawalAmount indicates the amount violates min/max/step policy.
	CodeInvalidWithdrawalAmount = "INVALID_WITHDRAWAL_AMOUNT"
	// CodeInsufficientCashInATM indicates the ATM holds less total cash than requested.
	CodeInsufficientCashInATM = "INSUFFICIENT_CASH_IN_ATM"
	// CodeCannotDispenseAmount indicates no exact note combination exists.
	CodeCannotDispenseAmount = "CANNOT_DISPENSE_AMOUNT"
)

// Chain-level error codes for infrastructure faults caught at the pipeline
// boundary.
const (
	// CodeAuthChainError is the generic failure code of the authentication pipeline.
	CodeAuthChainError = "AUTH_CHAIN_ERROR"
	// CodeQuickAuthError is the generic failure code of the quick authentication pipeline.
	CodeQuickAuthError = "QUICK_AUTH_ERROR"
	// CodeChainError is the generic failure code of the transaction pipeline.
	CodeChainError = "CHAIN_ERROR"
	// CodeBalanceInquiryError is the generic failure code of the balance inquiry pipeline.
	CodeBalanceInquiryError = "BALANCE_INQUIRY_ERROR"
)

// Processing codes classifying transaction operations. Classification uses
// exact matching only; unrecognized codes fall through default handling.
const (
	ProcessingCodeWithdrawalShort     = "01"
	ProcessingCodeWithdrawalISO       = "010000"
	ProcessingCodeDepositShort        = "21"
	ProcessingCodeDepositISO          = "210000"
	ProcessingCodeBalanceInquiryShort = "31"
	ProcessingCodeBalanceInquiryISO   = "310000"
)

// Session termination reasons recorded on forced or voluntary termination.
const (
	// TerminationReasonLogout marks an explicit cardholder logout.
	TerminationReasonLogout = "cardholder logout"
	// TerminationReasonSecurityBlock marks a security-driven mass termination.
	TerminationReasonSecurityBlock = "card blocked after repeated PIN failures"
	// TerminationReasonExpired marks an expiry observed by the sweep.
	TerminationReasonExpired = "session timed out"
)
