package domain

import "fmt"

// ParseError reports malformed input: a missing required column or an
// unparsable token. It is fatal and aborts the run before any stage executes.
type ParseError struct {
	Row    int    // 1-based data row, 0 when the header itself is bad
	Column string // column name, when known
	Msg    string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("parse error at row %d, column %q: %s", e.Row, e.Column, e.Msg)
	}
	return fmt.Sprintf("parse error: %s", e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError reports an out-of-range value or parameter discovered by a
// stage. It is fatal for that stage and identifies the offending record or
// parameter.
type ValidationError struct {
	Subject string // record ID or parameter name
	Msg     string
}

func (e *ValidationError) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("validation error (%s): %s", e.Subject, e.Msg)
	}
	return fmt.Sprintf("validation error: %s", e.Msg)
}
