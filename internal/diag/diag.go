// Package diag wraps internal invariant violations with a stack trace, for
// the rare case a debug build wants more than a panic message.
package diag

import "github.com/pkg/errors"

// Violation reports a broken internal invariant (a bug in the replacer
// itself, never a caller contract error). It carries a stack trace captured
// at the point of detection.
type Violation struct {
	err error
}

func (v *Violation) Error() string { return v.err.Error() }

// Unwrap exposes the wrapped cause to errors.Is/As.
func (v *Violation) Unwrap() error { return v.err }

// NewViolation captures msg and a stack trace as a *Violation.
func NewViolation(msg string) *Violation {
	return &Violation{err: errors.New(msg)}
}
