package app

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorKind discriminates the app error taxonomy. Handlers switch on the
// kind exhaustively instead of probing error shapes at runtime.
type ErrorKind string

const (
	KindValidation          ErrorKind = "validation"
	KindUnauthorized        ErrorKind = "unauthorized"
	KindForbidden           ErrorKind = "forbidden"
	KindInsufficientCredits ErrorKind = "insufficient_credits"
	KindExternalService     ErrorKind = "external_service"
	KindMalformedGeneration ErrorKind = "malformed_generation"
	KindStorage             ErrorKind = "storage"
)

// FieldError names one violated request field. Validation reports every
// violation, not just the first.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Error is the tagged variant carried across the app layer.
type Error struct {
	Kind    ErrorKind
	Message string

	Fields     []FieldError  // KindValidation
	Required   int           // KindInsufficientCredits
	Available  int           // KindInsufficientCredits
	Service    string        // KindExternalService
	RetryAfter time.Duration // KindExternalService, 0 = unknown

	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the kind of err, or empty when err is not an app error.
func KindOf(err error) ErrorKind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// AsError returns the app error inside err, if any.
func AsError(err error) (*Error, bool) {
	var appErr *Error
	ok := errors.As(err, &appErr)
	return appErr, ok
}

func NewValidationError(fields ...FieldError) *Error {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Field
	}
	return &Error{
		Kind:    KindValidation,
		Message: "invalid fields: " + strings.Join(names, ", "),
		Fields:  fields,
	}
}

func NewUnauthorizedError(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func NewForbiddenError(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func NewInsufficientCreditsError(required, available int) *Error {
	return &Error{
		Kind:      KindInsufficientCredits,
		Message:   fmt.Sprintf("requires %d credit(s), %d available", required, available),
		Required:  required,
		Available: available,
	}
}

func NewExternalServiceError(service string, err error) *Error {
	return &Error{
		Kind:       KindExternalService,
		Message:    service + " service unavailable",
		Service:    service,
		RetryAfter: 30 * time.Second,
		Err:        err,
	}
}

func NewMalformedGenerationError(err error) *Error {
	return &Error{
		Kind:    KindMalformedGeneration,
		Message: "generation model returned unparseable output",
		Err:     err,
	}
}

func NewStorageError(message string, err error) *Error {
	return &Error{Kind: KindStorage, Message: message, Err: err}
}
