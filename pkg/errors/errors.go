package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard error types
var (
	ErrNotFound             = errors.New("resource not found")
	ErrForbidden            = errors.New("forbidden")
	ErrBadRequest           = errors.New("bad request")
	ErrConflict             = errors.New("resource conflict")
	ErrInternal             = errors.New("internal server error")
	ErrValidation           = errors.New("validation error")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrInsufficientLotStock = errors.New("insufficient lot stock")
	ErrNoValidStock         = errors.New("no valid stock")
	ErrExceedsAvailable     = errors.New("damage exceeds available quantity")
	ErrIdentityRequired     = errors.New("staff identity required")
	ErrStore                = errors.New("store error")
)

// AppError represents an application error with context
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	Code       string            `json:"code"`
	StatusCode int               `json:"status_code"`
	Details    map[string]string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code string, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, code string, message string, statusCode int) *AppError {
	return &AppError{
		Err:        err,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// WithDetails adds details to an AppError
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// Common error constructors

func NotFound(resource string) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Err:        ErrForbidden,
		Code:       "PERMISSION_DENIED",
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func BadRequest(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Code:       "BAD_REQUEST",
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:        ErrConflict,
		Code:       "CONFLICT",
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func Internal(message string) *AppError {
	return &AppError{
		Err:        ErrInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

func Validation(details map[string]string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Code:       "VALIDATION_ERROR",
		Message:    "validation failed",
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

// Ledger error constructors. These are business-rule rejections: the item is
// left unchanged and the specific reason is reported to the caller.

func InsufficientStock(requested, available int) *AppError {
	return &AppError{
		Err:        ErrInsufficientStock,
		Code:       "INSUFFICIENT_STOCK",
		Message:    fmt.Sprintf("requested %d but only %d in stock", requested, available),
		StatusCode: http.StatusUnprocessableEntity,
	}
}

func InsufficientLotStock(requested, available int) *AppError {
	return &AppError{
		Err:        ErrInsufficientLotStock,
		Code:       "INSUFFICIENT_LOT_STOCK",
		Message:    fmt.Sprintf("oldest lot holds %d, cannot cover request of %d", available, requested),
		StatusCode: http.StatusUnprocessableEntity,
	}
}

func NoValidStock() *AppError {
	return &AppError{
		Err:        ErrNoValidStock,
		Code:       "NO_VALID_STOCK",
		Message:    "no unexpired lots available",
		StatusCode: http.StatusUnprocessableEntity,
	}
}

func ExceedsAvailable(requested, available int) *AppError {
	return &AppError{
		Err:        ErrExceedsAvailable,
		Code:       "EXCEEDS_AVAILABLE",
		Message:    fmt.Sprintf("damage of %d exceeds the lot's available %d", requested, available),
		StatusCode: http.StatusUnprocessableEntity,
	}
}

func IdentityRequired() *AppError {
	return &AppError{
		Err:        ErrIdentityRequired,
		Code:       "IDENTITY_REQUIRED",
		Message:    "no authenticated staff member in request context",
		StatusCode: http.StatusUnauthorized,
	}
}

func StoreError(err error) *AppError {
	return &AppError{
		Err:        ErrStore,
		Code:       "STORE_ERROR",
		Message:    fmt.Sprintf("document store failure: %v", err),
		StatusCode: http.StatusServiceUnavailable,
	}
}

// Is checks if the error matches a target error
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to convert an error to a specific type
func As(err error, target any) bool {
	return errors.As(err, target)
}
