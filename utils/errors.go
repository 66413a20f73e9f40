// utils/errors.go
package utils

import (
	"errors"
	"fmt"
	"net/http"
)

var ErrUserIDNotFound = errors.New("authentication required: user ID not found")

// Kind is the machine-checkable category of an AppError. Clients branch on it.
type Kind string

const (
	KindValidation              Kind = "validation_error"
	KindAuthorization           Kind = "authorization_error"
	KindStateConflict           Kind = "state_conflict"
	KindNotFound                Kind = "not_found"
	KindInsufficientBalance     Kind = "insufficient_balance"
	KindPayoutAlreadyPending    Kind = "payout_already_pending"
	KindBelowMinimumPayout      Kind = "below_minimum_payout"
	KindMissingBankDetails      Kind = "missing_bank_details"
	KindInvalidSignature        Kind = "invalid_signature"
	KindInvalidVerificationCode Kind = "invalid_verification_code"
	KindTooManyAttempts         Kind = "too_many_attempts"
	KindInternal                Kind = "internal_error"
)

type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// Is matches any AppError of the same kind, so errors.Is(err, ErrInsufficientBalance) works
// regardless of message.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Kind == e.Kind
}

func NewAppError(kind Kind, format string, args ...any) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *AppError {
	return NewAppError(KindValidation, format, args...)
}

func Forbidden(format string, args ...any) *AppError {
	return NewAppError(KindAuthorization, format, args...)
}

func Conflict(format string, args ...any) *AppError {
	return NewAppError(KindStateConflict, format, args...)
}

func NotFound(format string, args ...any) *AppError {
	return NewAppError(KindNotFound, format, args...)
}

// Withf returns a copy of e with a more specific message. The copy still
// matches e under errors.Is.
func (e *AppError) Withf(format string, args ...any) *AppError {
	return &AppError{Kind: e.Kind, Message: fmt.Sprintf(format, args...), Err: e.Err}
}

// Internal wraps an unexpected failure; the cause is kept for logs, not shown to clients.
func Internal(err error, message string) *AppError {
	return &AppError{Kind: KindInternal, Message: message, Err: err}
}

// Sentinels for errors.Is checks.
var (
	ErrInsufficientBalance     = &AppError{Kind: KindInsufficientBalance, Message: "requested amount exceeds available balance"}
	ErrPayoutAlreadyPending    = &AppError{Kind: KindPayoutAlreadyPending, Message: "a payout request is already pending"}
	ErrBelowMinimumPayout      = &AppError{Kind: KindBelowMinimumPayout, Message: "amount is below the minimum payout"}
	ErrMissingBankDetails      = &AppError{Kind: KindMissingBankDetails, Message: "bank account details are required before requesting a payout"}
	ErrInvalidSignature        = &AppError{Kind: KindInvalidSignature, Message: "payment signature verification failed"}
	ErrInvalidVerificationCode = &AppError{Kind: KindInvalidVerificationCode, Message: "verification code does not match"}
	ErrTooManyAttempts         = &AppError{Kind: KindTooManyAttempts, Message: "too many failed verification attempts, try again later"}
)

// KindOf returns the kind of err, or KindInternal for anything that isn't an AppError.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// MessageOf returns the client-safe message for err.
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Kind != KindInternal {
		return appErr.Message
	}
	return "internal server error"
}

func StatusFor(kind Kind) int {
	switch kind {
	case KindValidation, KindBelowMinimumPayout, KindMissingBankDetails, KindInvalidVerificationCode:
		return http.StatusBadRequest
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindStateConflict, KindPayoutAlreadyPending:
		return http.StatusConflict
	case KindInsufficientBalance:
		return http.StatusUnprocessableEntity
	case KindInvalidSignature:
		return http.StatusUnauthorized
	case KindTooManyAttempts:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
