// Package apperr defines the error taxonomy shared by every domain package.
// Errors carry a stable machine-checkable code and compare by that code, so
// callers can use errors.Is against the exported sentinels even when the
// concrete error carries a more specific message or field details.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

type Kind string

const (
	KindValidation     Kind = "VALIDATION"
	KindAuthentication Kind = "AUTHENTICATION"
	KindAuthorization  Kind = "AUTHORIZATION"
	KindState          Kind = "STATE"
	KindFunds          Kind = "FUNDS"
	KindNotFound       Kind = "NOT_FOUND"
	KindConflict       Kind = "CONFLICT"
	KindInternal       Kind = "INTERNAL"
)

type Error struct {
	Kind    Kind              `json:"-"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func (e *Error) Error() string {
	if len(e.Details) == 0 {
		return e.Code + ": " + e.Message
	}
	parts := make([]string, 0, len(e.Details))
	for k, v := range e.Details {
		parts = append(parts, k+"="+v)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(parts, ", "))
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// WithMessage returns a copy with a more specific human message.
func (e *Error) WithMessage(format string, args ...any) *Error {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

func (e *Error) WithDetail(key, value string) *Error {
	cp := *e
	cp.Details = make(map[string]string, len(e.Details)+1)
	for k, v := range e.Details {
		cp.Details[k] = v
	}
	cp.Details[key] = value
	return &cp
}

var (
	ErrValidation         = New(KindValidation, "VALIDATION_ERROR", "Request validation failed")
	ErrInvalidAmount      = New(KindValidation, "INVALID_AMOUNT", "Amount must be a positive whole number of tokens")
	ErrMissingVariables   = New(KindValidation, "MISSING_VARIABLES", "Template variables are missing")
	ErrUnauthorized       = New(KindAuthentication, "UNAUTHORIZED", "Authentication required")
	ErrAccessDenied       = New(KindAuthorization, "ACCESS_DENIED", "You are not allowed to perform this action")
	ErrAgeNotVerified     = New(KindAuthorization, "AGE_NOT_VERIFIED", "Please complete age verification before booking")
	ErrInvalidTransition  = New(KindState, "INVALID_TRANSITION", "Requested status change is not allowed")
	ErrMessagingClosed    = New(KindState, "MESSAGING_NOT_ALLOWED", "Messaging is not allowed for this booking")
	ErrEscrowMismatch     = New(KindState, "ESCROW_MISMATCH", "Escrow balance does not cover this booking")
	ErrDisputeNotAllowed  = New(KindState, "DISPUTE_NOT_ALLOWED", "A dispute cannot be filed for this booking")
	ErrConcurrentUpdate   = New(KindConflict, "CONCURRENT_UPDATE", "The booking was modified by another request")
	ErrInsufficientFunds  = New(KindFunds, "INSUFFICIENT_FUNDS", "Insufficient funds")
	ErrInsufficientTokens = New(KindFunds, "INSUFFICIENT_TOKENS", "Insufficient tokens")
	ErrNotFound           = New(KindNotFound, "NOT_FOUND", "Resource not found")
	ErrServer             = New(KindInternal, "SERVER_ERROR", "Internal server error")
)

func NotFound(resource string) *Error {
	return New(KindNotFound, ErrNotFound.Code, resource+" not found")
}

// Validation builds a VALIDATION error carrying field-level details.
func Validation(details map[string]string) *Error {
	return &Error{Kind: KindValidation, Code: ErrValidation.Code, Message: ErrValidation.Message, Details: details}
}

// From unwraps err into an *Error, falling back to SERVER_ERROR.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return ErrServer
}
