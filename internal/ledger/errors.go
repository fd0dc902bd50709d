package ledger

import (
	"errors"
	"fmt"
)

// Sentinel errors for rejected operations.
var (
	ErrUnauthorized             = errors.New("ledger: unauthorized")
	ErrNotFound                 = errors.New("ledger: not found")
	ErrInvalidState             = errors.New("ledger: invalid state")
	ErrInsufficientVacationDays = errors.New("ledger: insufficient vacation days")
	ErrInvalidAmount            = errors.New("ledger: invalid amount")

	// ErrMeetingStarted is an InvalidState rejection for meetings that are
	// already history.
	ErrMeetingStarted = fmt.Errorf("%w: meeting already started", ErrInvalidState)
)

// TransitionError reports a transition that is not allowed from the
// current state. It matches ErrInvalidState with errors.Is.
type TransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("ledger: %s cannot move from %s to %s", e.Entity, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidState }

func transitionError[S ~string](entity string, from, to S) error {
	return &TransitionError{Entity: entity, From: string(from), To: string(to)}
}
