// Package chain implements the generic request-processing pipeline used by
// the authentication and transaction flows.
//
// A pipeline is an immutable ordered sequence of steps built once at
// construction time and safe for concurrent use; topology is never mutated
// per call. Each step consumes a mutable request and returns a Result with
// three-valued continue/stop/success semantics:
//
//   - success + continue: pass through to the next step.
//   - success + stop: terminal success, remaining steps are skipped.
//   - failure + stop: terminal failure, remaining steps are skipped.
//   - failure + continue: downstream steps still run for their side effects,
//     and the merge policy decides which Result the caller sees.
//
// Collaborator faults and panics never escape Run: they are converted into a
// failure Result carrying the pipeline's chain-level error code.
package chain
