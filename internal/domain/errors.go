package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface keeps the handler layer's error mapping
// open for extension without a growing switch.
type HTTPError interface {
	error
	StatusCode() int
}

// Domain error types implementing HTTPError interface
type (
	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}

	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}
)

func (e *ValidationError) Error() string   { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }
func (e *NotFoundError) Error() string     { return e.Message }

func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }
func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")

	// ErrModelCall marks infrastructure failures from the generative
	// model. The pipeline contains these at the smallest unit (one
	// section, one correction attempt); they never abort sibling work.
	ErrModelCall = errors.New("model call failed")
)

// Quota and session errors are user-facing and stop the pipeline before
// any model call is made. The system does not retry them; the user can,
// after waiting or upgrading.
type (
	// QuotaExhaustedError indicates no generations remain for the
	// current period.
	QuotaExhaustedError struct {
		Tier      string
		Remaining int
	}

	// TrialExpiredError indicates the trial window has elapsed.
	TrialExpiredError struct {
		ExpiredAt string
	}

	// SessionCapReachedError indicates all attempts within the active
	// session have been consumed.
	SessionCapReachedError struct {
		Attempts    int
		MaxAttempts int
	}
)

func (e *QuotaExhaustedError) Error() string {
	return "generation quota exhausted"
}

func (e *TrialExpiredError) Error() string {
	return "trial period expired"
}

func (e *SessionCapReachedError) Error() string {
	return "generation attempts for this session are used up"
}

// 402 is deliberate: the actionable fix for an exhausted quota is an
// upgrade, and the frontend routes on the status code.
func (e *QuotaExhaustedError) StatusCode() int    { return http.StatusPaymentRequired }
func (e *TrialExpiredError) StatusCode() int      { return http.StatusPaymentRequired }
func (e *SessionCapReachedError) StatusCode() int { return http.StatusTooManyRequests }

// Sentinels for errors.Is matching against the typed quota errors.
var (
	ErrQuotaExhausted    = errors.New("quota exhausted")
	ErrTrialExpired      = errors.New("trial expired")
	ErrSessionCapReached = errors.New("session attempt cap reached")
)

func (e *QuotaExhaustedError) Is(target error) bool    { return target == ErrQuotaExhausted }
func (e *TrialExpiredError) Is(target error) bool      { return target == ErrTrialExpired }
func (e *SessionCapReachedError) Is(target error) bool { return target == ErrSessionCapReached }
