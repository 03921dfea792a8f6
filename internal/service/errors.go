package service

import "fmt"

// ValidationError reports which input field failed validation. The record is
// never written when validation fails.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PayOutcome is the result of a MarkPaid call. AlreadyPaid is not an error:
// it is a terminal idempotent state, reported distinctly so the caller can
// phrase feedback accurately.
type PayOutcome int

const (
	PayNotFound PayOutcome = iota
	PayAlreadyPaid
	PayPaid
)

// DeleteOutcome is the result of a DeleteDebt call.
type DeleteOutcome int

const (
	DeleteNotFound DeleteOutcome = iota
	DeleteDeleted
)
