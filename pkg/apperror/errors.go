package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"error"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Validation (VAL) ----

// Validation reports malformed or semantically invalid input.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

// ---- Authentication (AUTH) ----

func ErrInvalidAPIKey() *AppError {
	return New("AUTH_001", "Invalid API key", http.StatusUnauthorized)
}

func ErrMissingAPIKey() *AppError {
	return New("AUTH_002", "API key required", http.StatusUnauthorized)
}

// ---- Payment provider (PRV) ----

// ErrProviderAuth means the gateway could not log in to the PIX provider.
// It is the gateway's fault from the caller's point of view, hence 500.
func ErrProviderAuth(err error) *AppError {
	return Wrap("PRV_001", "Failed to authenticate with payment provider", http.StatusInternalServerError, err)
}

func ErrProviderDeposit(err error) *AppError {
	return Wrap("PRV_002", "Failed to create charge with payment provider", http.StatusInternalServerError, err)
}

// ---- Lookup (NF) ----

func ErrNotFound(entity string) *AppError {
	return New("NF_001", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// ErrConflict is returned when unique identifiers could not be generated
// after the allowed number of attempts.
func ErrConflict(err error) *AppError {
	return Wrap("SYS_002", "Could not allocate unique identifier", http.StatusInternalServerError, err)
}
