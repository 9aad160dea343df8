package appErrors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies an error class across the API.
type ErrorCode string

// AppError is the application error carried from services to handlers.
type AppError struct {
	Code     ErrorCode   `json:"code"`
	Message  string      `json:"message"`
	Details  interface{} `json:"details,omitempty"`
	Err      error       `json:"-"`
	HTTPCode int         `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code ErrorCode, message string, httpCode int) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		HTTPCode: httpCode,
	}
}

func Wrap(err error, code ErrorCode, message string, httpCode int) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		Err:      err,
		HTTPCode: httpCode,
	}
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

func (e *AppError) WithError(err error) *AppError {
	clone := *e
	clone.Err = err
	return &clone
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	type alias struct {
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}
	return json.Marshal(&alias{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}

func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// Predefined errors.
var (
	// Authentication / authorization
	ErrUnauthorized       = New(CodeUnauthorized, "Authentication required", http.StatusUnauthorized)
	ErrForbidden          = New(CodeForbidden, "Access denied", http.StatusForbidden)
	ErrInvalidToken       = New(CodeInvalidToken, "Invalid or expired token", http.StatusUnauthorized)
	ErrInvalidCredentials = New(CodeInvalidCredentials, "Invalid email or password", http.StatusUnauthorized)

	// Validation
	ErrValidationFailed = New(CodeValidationFailed, "Validation failed", http.StatusBadRequest)

	// Users / registrants
	ErrUserNotFound       = New(CodeUserNotFound, "User not found", http.StatusNotFound)
	ErrEmailAlreadyExists = New(CodeEmailAlreadyExists, "Email already registered", http.StatusConflict)

	// Payment verification
	ErrSignatureMismatch     = New(CodeSignatureMismatch, "Payment signature verification failed", http.StatusBadRequest)
	ErrPaymentNotCaptured    = New(CodePaymentNotCaptured, "Payment is not in a captured or authorized state", http.StatusBadRequest)
	ErrRegistrantNotResolved = New(CodeRegistrantNotResolve, "No registration could be matched to this payment", http.StatusUnauthorized)
	ErrPaymentProcessed      = New(CodePaymentProcessed, "Payment has already been processed", http.StatusOK)
	ErrCommitFailed          = New(CodeCommitFailed, "Failed to record the payment", http.StatusInternalServerError)

	// Pricing configuration
	ErrPricingNotConfigured = New(CodePricingNotConfigured, "No pricing configured for this registration category", http.StatusInternalServerError)
	ErrNoActiveTier         = New(CodeNoActiveTier, "No pricing tier is currently active", http.StatusInternalServerError)

	// Inventory
	ErrWorkshopNotFound = New(CodeWorkshopNotFound, "Workshop not found", http.StatusNotFound)
	ErrWorkshopFull     = New(CodeWorkshopFull, "Workshop has no seats left", http.StatusConflict)

	// State machine
	ErrInvalidTransition = New(CodeInvalidTransition, "Status transition not allowed", http.StatusConflict)
	ErrAuditImmutable    = New(CodeAuditImmutable, "Audit log entries cannot be modified", http.StatusForbidden)

	// Ledger
	ErrAttemptNotFound = New(CodeAttemptNotFound, "Payment attempt not found", http.StatusNotFound)
)

func ValidationError(details interface{}) *AppError {
	return ErrValidationFailed.WithDetails(details)
}

func InternalError(err error) *AppError {
	return Wrap(err, CodeInternalError, "Internal server error", http.StatusInternalServerError)
}

func ExternalServiceError(service string, err error) *AppError {
	return Wrap(err, CodeExternalServiceError, fmt.Sprintf("%s request failed", service), http.StatusBadGateway)
}

func NewBadRequestError(message string) *AppError {
	return New(CodeValidationFailed, message, http.StatusBadRequest)
}

func NewNotFoundError(message string) *AppError {
	return New(CodeUserNotFound, message, http.StatusNotFound)
}

func NewInternalError(message string) *AppError {
	return New(CodeInternalError, message, http.StatusInternalServerError)
}
