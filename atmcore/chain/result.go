package chain

// Result is the outcome of one pipeline step, and of the pipeline as a whole.
//
// Success reports whether the step's validation passed; Continue reports
// whether the runner may proceed to the next step. The four combinations are
// all meaningful (see the package documentation).
type Result struct {
	Success   bool
	Continue  bool
	Message   string
	ErrorCode string
	Payload   any
}

// Pass creates a successful result that continues to the next step.
func Pass() Result {
	return Result{Success: true, Continue: true}
}

// PassWith creates a successful result with a message and payload that
// continues to the next step.
func PassWith(message string, payload any) Result {
	return Result{Success: true, Continue: true, Message: message, Payload: payload}
}

// PassAndStop creates a successful result that stops the chain.
func PassAndStop(message string) Result {
	return Result{Success: true, Continue: false, Message: message}
}

// Fail creates a failure result with an error code that stops the chain.
func Fail(message, errorCode string) Result {
	return Result{Success: false, Continue: false, Message: message, ErrorCode: errorCode}
}

// FailAndContinue creates a failure result that still allows downstream steps
// to run for their side effects.
func FailAndContinue(message, errorCode string) Result {
	return Result{Success: false, Continue: true, Message: message, ErrorCode: errorCode}
}
