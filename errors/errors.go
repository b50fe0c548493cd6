package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// Validation failures, surfaced synchronously to the caller and never retried.
	ErrInvalidCommand      = fmt.Errorf("malformed command")
	ErrEmptyBody           = fmt.Errorf("message body is empty")
	ErrBodyTooLong         = fmt.Errorf("message body exceeds the maximum length")
	ErrSenderNotRegistered = fmt.Errorf("sender has no registered connection")
	ErrUnknownRecipient    = fmt.Errorf("recipient is not a known user")

	// ErrInvalidTransition marks a backward delivery-status move. Logged, non-fatal.
	ErrInvalidTransition = fmt.Errorf("delivery status cannot move backward")

	ErrMessageNotFound = fmt.Errorf("message not found")

	// Account boundary.
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity requirements")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")

	ErrWorkerPanic   = fmt.Errorf("worker panic")
	ErrEmptyWords    = fmt.Errorf("no words have been found")
	ErrOnlyWordFiles = fmt.Errorf("censored directory contains directories")
)

// MapToHTTPStatus translates domain sentinels into HTTP status codes at the
// transport boundary. Anything unrecognized is a store/internal failure.
func MapToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidCommand),
		errors.Is(err, ErrEmptyBody),
		errors.Is(err, ErrBodyTooLong),
		errors.Is(err, ErrInvalidPassword),
		errors.Is(err, ErrInvalidTransition):
		return http.StatusBadRequest
	case errors.Is(err, ErrSenderNotRegistered),
		errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrUnknownRecipient),
		errors.Is(err, ErrMessageNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUserAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
