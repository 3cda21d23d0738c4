package analysis

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	usecaseErrors "github.com/johnquangdev/interview-analyzer/internal/usecase/errors"
)

// Outcome classifies how an analysis attempt ended
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeForbidden
	OutcomeNotFound
	OutcomeInvalidState
	OutcomeTimeout
	OutcomeInvalidResponse
	OutcomePersistenceFailed
	// OutcomeInternal covers provider errors other than a timeout and failed reads
	OutcomeInternal
)

var outcomeNames = map[Outcome]string{
	OutcomeSuccess:           "success",
	OutcomeForbidden:         "forbidden",
	OutcomeNotFound:          "not_found",
	OutcomeInvalidState:      "invalid_state",
	OutcomeTimeout:           "timeout",
	OutcomeInvalidResponse:   "invalid_response",
	OutcomePersistenceFailed: "persistence_failed",
	OutcomeInternal:          "internal",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// MarshalText renders the outcome name in JSON
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Error is a failed analysis attempt. Err wraps one of the usecase sentinel errors,
// so errors.Is(err, usecaseErrors.ErrAnalysisTimeout) identifies a timeout.
type Error struct {
	Outcome Outcome
	CallID  uuid.UUID
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("analysis of call %s failed (%s): %v", e.CallID, e.Outcome, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(outcome Outcome, callID uuid.UUID, err error) *Error {
	return &Error{Outcome: outcome, CallID: callID, Err: err}
}

// OutcomeOf extracts the outcome from an Analyze error; nil means success
func OutcomeOf(err error) Outcome {
	if err == nil {
		return OutcomeSuccess
	}
	var aErr *Error
	if errors.As(err, &aErr) {
		return aErr.Outcome
	}
	return OutcomeInternal
}

// IsTimeout reports whether the analysis failed because the LLM call ran out of time
func IsTimeout(err error) bool {
	return errors.Is(err, usecaseErrors.ErrAnalysisTimeout)
}
