package ponder

import (
	"errors"
	"fmt"
)

// Sentinel errors. Structured errors below unwrap to these so callers can
// branch with errors.Is without caring about the details.
var (
	// ErrMalformedArgument is returned when an argument list cannot be tokenized.
	ErrMalformedArgument = errors.New("malformed argument")

	// ErrUnrecognizedCommand is returned when controller output holds no known command.
	ErrUnrecognizedCommand = errors.New("unrecognized command")

	// ErrMissingField is returned when a retrieval record lacks its text field.
	ErrMissingField = errors.New("missing field")

	// ErrStepBudgetExhausted is returned when a run ends without an answer.
	ErrStepBudgetExhausted = errors.New("step budget exhausted")
)

// MalformedArgumentError reports an unterminated quoted argument.
type MalformedArgumentError struct {
	Input  string // the raw argument string
	Offset int    // byte offset of the opening quote
}

func (e *MalformedArgumentError) Error() string {
	return fmt.Sprintf("malformed argument: unterminated quote at offset %d", e.Offset)
}

func (e *MalformedArgumentError) Unwrap() error {
	return ErrMalformedArgument
}

// UnrecognizedCommandError reports controller output that does not hold a
// usable command, either because nothing matched or the arity was wrong.
type UnrecognizedCommandError struct {
	Output string
	Reason string
}

func (e *UnrecognizedCommandError) Error() string {
	if e.Reason == "" {
		return "unrecognized command"
	}
	return "unrecognized command: " + e.Reason
}

func (e *UnrecognizedCommandError) Unwrap() error {
	return ErrUnrecognizedCommand
}

// MissingFieldError reports a retrieval record without the expected field.
type MissingFieldError struct {
	Field string
	Index int // position of the record in the retrieval response
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("record %d: missing field %q", e.Index, e.Field)
}

func (e *MissingFieldError) Unwrap() error {
	return ErrMissingField
}
