package lifecycle

import (
	"errors"
	"fmt"

	"github.com/mmynk/circles/internal/ledger"
	"github.com/mmynk/circles/internal/storage"
)

// Code classifies a failed operation.
type Code string

const (
	CodeUnauthorized             Code = "unauthorized"
	CodeNotFound                 Code = "not_found"
	CodeInvalidState             Code = "invalid_state"
	CodeInsufficientVacationDays Code = "insufficient_vacation_days"
	CodeInvalidArgument          Code = "invalid_argument"
	CodePersistenceFailure       Code = "persistence_failure"
)

// Result is the outcome of every orchestrator operation. It is the only
// thing that crosses the orchestrator boundary; failures never surface as
// Go errors or panics.
type Result struct {
	Success     bool              `json:"success"`
	Message     string            `json:"message"`
	Code        Code              `json:"code,omitempty"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`

	// ID names the record created or changed, when there is one.
	ID string `json:"id,omitempty"`
}

func succeeded(id, format string, args ...any) Result {
	return Result{Success: true, Message: fmt.Sprintf(format, args...), ID: id}
}

func failure(code Code, message string) Result {
	return Result{Code: code, Message: message}
}

func invalidArgument(fields map[string]string) Result {
	return Result{
		Code:        CodeInvalidArgument,
		Message:     "Some fields are invalid.",
		FieldErrors: fields,
	}
}

var (
	resultUnauthorized = failure(CodeUnauthorized, "You are not allowed to do that.")
	resultRetry        = failure(CodePersistenceFailure, "Something went wrong on our side. Please try again.")
)

// classify maps an error from the ledger or the store onto a Result.
func classify(err error) Result {
	var te *ledger.TransitionError
	switch {
	case errors.Is(err, ledger.ErrUnauthorized):
		return resultUnauthorized
	case errors.Is(err, ledger.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return failure(CodeNotFound, "We could not find that record.")
	case errors.Is(err, ledger.ErrInsufficientVacationDays):
		return failure(CodeInsufficientVacationDays, "You have no vacation days left.")
	case errors.Is(err, ledger.ErrInvalidAmount):
		return failure(CodeInvalidArgument, "The amount is not valid.")
	case errors.Is(err, ledger.ErrMeetingStarted):
		return failure(CodeInvalidState, "The meeting has already started.")
	case errors.As(err, &te):
		return failure(CodeInvalidState, fmt.Sprintf("This %s is %s, so that is not possible.", te.Entity, te.From))
	case errors.Is(err, ledger.ErrInvalidState):
		return failure(CodeInvalidState, "That is not possible right now.")
	case errors.Is(err, storage.ErrConflict):
		return failure(CodeInvalidState, "The record changed in the meantime. Please reload and try again.")
	default:
		return resultRetry
	}
}

// formatMinor renders minor units with two decimals, e.g. 12000 PLN as
// "120.00 PLN".
func formatMinor(amount int64, currency string) string {
	return fmt.Sprintf("%d.%02d %s", amount/100, amount%100, currency)
}
