// Package errs defines the failure taxonomy shared by every analysis stage.
//
// Failures fall into three kinds, each identified by a sentinel usable with
// errors.Is:
//   - ErrShapeViolation: an index expected to be one node kind resolved to
//     another. These are analyzer bugs, not input problems.
//   - ErrUnsupported: the input uses a construct outside the modeled subset.
//   - ErrMissingFact: a fact required to continue (a range, a name, a
//     location) was absent.
//
// None of these are transient. A failure aborts the analysis of the current
// function only.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrShapeViolation marks internal-consistency failures of the graph.
	ErrShapeViolation = errors.New("internal consistency error")

	// ErrUnsupported marks constructs the analyzer does not model.
	ErrUnsupported = errors.New("construct not modeled")

	// ErrMissingFact marks a required fact that was not available.
	ErrMissingFact = errors.New("missing fact")
)

// Error is a typed analysis failure.
type Error struct {
	Kind      error
	Construct string
	Where     fmt.Stringer
	Detail    string
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Construct != "" {
		msg += ": " + e.Construct
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Where != nil {
		msg += " (at " + e.Where.String() + ")"
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Shape reports a graph-shape violation.
func Shape(format string, args ...any) error {
	return &Error{Kind: ErrShapeViolation, Detail: fmt.Sprintf(format, args...)}
}

// Unsupported reports that construct is not modeled. where may be nil.
func Unsupported(construct string, where fmt.Stringer) error {
	return &Error{Kind: ErrUnsupported, Construct: construct, Where: where}
}

// Missing reports an absent fact.
func Missing(construct string, where fmt.Stringer, format string, args ...any) error {
	return &Error{Kind: ErrMissingFact, Construct: construct, Where: where, Detail: fmt.Sprintf(format, args...)}
}

// IsInternal reports whether err is an analyzer bug rather than an input problem.
func IsInternal(err error) bool {
	return errors.Is(err, ErrShapeViolation)
}
