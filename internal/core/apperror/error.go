// Package apperror provides structured error handling following RFC 7807 Problem Details.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"

	// Validation errors (400)
	CodeValidation   = "VALIDATION_ERROR"
	CodeMissingField = "MISSING_REQUIRED_FIELD"

	// Business rule violations (422)
	CodeBusinessRule         = "BUSINESS_RULE_VIOLATION"
	CodeReceivedExceedsTotal = "RECEIVED_EXCEEDS_TOTAL"
	CodeExceedsOutstanding   = "EXCEEDS_OUTSTANDING"
	CodeInsufficientContext  = "INSUFFICIENT_CONTEXT"

	// Authorization errors (401)
	CodeUnauthorized = "UNAUTHORIZED"

	// Idempotency errors (409, 422)
	CodeIdempotencyConflict = "IDEMPOTENCY_CONFLICT"
	CodeIdempotencyMismatch = "IDEMPOTENCY_KEY_REUSED"

	// Not found (404)
	CodeNotFound        = "NOT_FOUND"
	CodeProductNotFound = "PRODUCT_NOT_FOUND"
)

// AppError is the standard error type for the service.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field names, amounts, ids)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// --- Factory functions ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewMissingField reports a required field that was not supplied (400).
func NewMissingField(field string) *AppError {
	return &AppError{
		Code:       CodeMissingField,
		Message:    fmt.Sprintf("%s is required", field),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"field": field},
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewProductNotFound is returned when an item id resolves to neither a product nor a service.
func NewProductNotFound(id any) *AppError {
	return &AppError{
		Code:       CodeProductNotFound,
		Message:    "product not found",
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"id": id},
	}
}

// NewBusinessRule creates a business rule violation error (422)
func NewBusinessRule(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewReceivedExceedsTotal rejects a received amount larger than the bill.
func NewReceivedExceedsTotal(received, total any) *AppError {
	return NewBusinessRule(CodeReceivedExceedsTotal, "received amount exceeds total amount").
		WithDetail("received_amount", received).
		WithDetail("total_amount", total)
}

// NewExceedsOutstanding rejects a payment larger than everything owed.
func NewExceedsOutstanding(amount, outstanding any) *AppError {
	return NewBusinessRule(CodeExceedsOutstanding, "payment exceeds total outstanding amount").
		WithDetail("amount", amount).
		WithDetail("outstanding", outstanding)
}

// NewInsufficientContext is returned when there is nothing to apply an operation to,
// e.g. a supplier payment with no open credit purchases.
func NewInsufficientContext(message string) *AppError {
	return NewBusinessRule(CodeInsufficientContext, message)
}

// NewPersistence wraps a store failure. The client sees a generic message,
// the cause stays attached for logs.
func NewPersistence(err error) *AppError {
	return &AppError{
		Code:       CodeDatabase,
		Message:    "Could not save changes, please try again later",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnauthorized creates an authentication error (401)
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewIdempotencyConflict reports a key whose first request is still running.
func NewIdempotencyConflict(key string) *AppError {
	return &AppError{
		Code:       CodeIdempotencyConflict,
		Message:    "request with this idempotency key is in progress",
		Details:    map[string]any{"idempotency_key": key},
		HTTPStatus: http.StatusConflict,
	}
}

// NewIdempotencyMismatch reports a key reused for a different request.
func NewIdempotencyMismatch(key string) *AppError {
	return &AppError{
		Code:       CodeIdempotencyMismatch,
		Message:    "idempotency key was used for a different request",
		Details:    map[string]any{"idempotency_key": key},
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}

// Persist passes AppErrors through unchanged and wraps anything else
// as a persistence failure.
func Persist(err error) error {
	if err == nil {
		return nil
	}
	if IsAppError(err) {
		return err
	}
	return NewPersistence(err)
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}
