package stripe

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes client failures for the engine's retry policy.
type ErrorCode string

const (
	// ErrCodeAuth is a 401/403: the secret key is wrong or revoked. Fatal.
	ErrCodeAuth ErrorCode = "AUTH"

	// ErrCodeRateLimited is a 429. Retried with back-off unless the
	// exit_on_429 escape hatch is set.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"

	// ErrCodeTransient is a 5xx or a network error. Retried with
	// back-off; becomes fatal after the attempt budget is spent.
	ErrCodeTransient ErrorCode = "TRANSIENT"

	// ErrCodeFatal is any other non-2xx response.
	ErrCodeFatal ErrorCode = "FATAL"
)

// Error is a failed provider request.
type Error struct {
	Code      ErrorCode
	Status    int
	RequestID string
	Message   string
}

func (e *Error) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("stripe: %s (http %d, request %s): %s", e.Code, e.Status, e.RequestID, e.Message)
	}
	return fmt.Sprintf("stripe: %s (http %d): %s", e.Code, e.Status, e.Message)
}

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool { return hasCode(err, ErrCodeAuth) }

// IsRateLimited reports whether err is a 429.
func IsRateLimited(err error) bool { return hasCode(err, ErrCodeRateLimited) }

// IsTransient reports whether err is retryable.
func IsTransient(err error) bool { return hasCode(err, ErrCodeTransient) }

func hasCode(err error, code ErrorCode) bool {
	var se *Error
	return errors.As(err, &se) && se.Code == code
}
