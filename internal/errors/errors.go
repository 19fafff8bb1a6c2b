// Package errors provides custom error types for the Plata API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User & organization errors.
var (
	ErrUserNotFound         = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail       = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
	ErrOrganizationNotFound = &AppError{Code: "ORGANIZATION_NOT_FOUND", Message: "Organization not found", StatusCode: http.StatusNotFound}
	ErrOrganizationRequired = &AppError{Code: "ORGANIZATION_REQUIRED", Message: "An organization must be selected for this operation", StatusCode: http.StatusBadRequest}
)

// Category errors.
var (
	ErrCategoryNotFound = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
	ErrCategoryInUse    = &AppError{Code: "CATEGORY_IN_USE", Message: "Category is used by existing transactions or budgets", StatusCode: http.StatusConflict}
)

// Transaction errors.
var (
	ErrTransactionNotFound = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
)

// Budget errors.
var (
	ErrBudgetNotFound       = &AppError{Code: "BUDGET_NOT_FOUND", Message: "Budget not found", StatusCode: http.StatusNotFound}
	ErrInvalidAmount        = &AppError{Code: "INVALID_AMOUNT", Message: "Amount must be positive, at most 999,999,999.99, with at most 2 decimal places", StatusCode: http.StatusBadRequest}
	ErrInvalidThreshold     = &AppError{Code: "INVALID_THRESHOLD", Message: "Alert threshold must be between 0 and 100", StatusCode: http.StatusBadRequest}
	ErrInvalidDateRange     = &AppError{Code: "INVALID_DATE_RANGE", Message: "End date must be after start date", StatusCode: http.StatusBadRequest}
	ErrDuplicateBudgetStart = &AppError{Code: "DUPLICATE_BUDGET_START", Message: "An active budget for this category already starts on that date", StatusCode: http.StatusConflict}
	ErrBudgetOverlap        = &AppError{Code: "BUDGET_OVERLAP", Message: "An active budget for this category overlaps the requested period", StatusCode: http.StatusConflict}
	ErrBudgetNotRecurring   = &AppError{Code: "BUDGET_NOT_RECURRING", Message: "Budget is not recurring", StatusCode: http.StatusBadRequest}
)
