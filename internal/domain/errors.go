package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every failure a use case can return.
type ErrorKind string

const (
	KindForbidden           ErrorKind = "FORBIDDEN"
	KindNotFound            ErrorKind = "NOT_FOUND"
	KindInvalidTransition   ErrorKind = "INVALID_TRANSITION"
	KindPaymentNotCompleted ErrorKind = "PAYMENT_NOT_COMPLETED"
	KindAlreadyProcessed    ErrorKind = "ALREADY_PROCESSED"
	KindInvalidInput        ErrorKind = "INVALID_INPUT"
	KindPersistenceFailure  ErrorKind = "PERSISTENCE_FAILURE"
)

// Error carries an error kind plus a human-readable reason. Callers never see
// storage or driver detail through it.
type Error struct {
	Kind   ErrorKind
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) *Error {
	return NewError(KindForbidden, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return NewError(KindNotFound, format, args...)
}

func InvalidTransition(format string, args ...any) *Error {
	return NewError(KindInvalidTransition, format, args...)
}

func PaymentNotCompleted(format string, args ...any) *Error {
	return NewError(KindPaymentNotCompleted, format, args...)
}

func AlreadyProcessed(format string, args ...any) *Error {
	return NewError(KindAlreadyProcessed, format, args...)
}

func InvalidInput(format string, args ...any) *Error {
	return NewError(KindInvalidInput, format, args...)
}

func PersistenceFailure(format string, args ...any) *Error {
	return NewError(KindPersistenceFailure, format, args...)
}

// KindOf returns the kind of err, or "" when err is not a domain error.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
