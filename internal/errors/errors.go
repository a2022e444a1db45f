// Package errors defines the coded domain errors shared across services.
// Domain errors identify a violated invariant; they are returned to callers
// for explicit handling and are never surfaced raw to end users.
package errors

import "fmt"

// DomainError is an invariant violation with a stable machine code.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// WithDetail returns a copy of e with extra context appended to the
// message. The code is preserved so errors.Is still matches.
func (e *DomainError) WithDetail(format string, args ...interface{}) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: fmt.Sprintf("%s: %s", e.Message, fmt.Sprintf(format, args...)),
	}
}

// Is matches domain errors by code so wrapped copies compare equal.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}
