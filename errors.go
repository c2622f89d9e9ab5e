package vcd

import (
	"errors"
	"fmt"
)

var (
	// ErrUsage indicates a Writer method was called in the wrong phase or
	// with invalid arguments (e.g. a value change after Close).
	ErrUsage = errors.New("usage error")

	// ErrValue indicates a value does not fit the declared type or size
	// of its variable.
	ErrValue = errors.New("invalid value")

	// ErrParse indicates a tokenizer failure on malformed VCD input.
	ErrParse = errors.New("parse error")
)

// ParseError reports malformed VCD input. It carries the span of the
// offending text and matches ErrParse with errors.Is.
type ParseError struct {
	Span Span   // Span of the offending text
	Msg  string // Description of the failure
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Span.Start.Line, e.Span.Start.Column, e.Msg)
}

// Unwrap reports ParseError as an ErrParse.
func (e *ParseError) Unwrap() error {
	return ErrParse
}
