package appErrors

// Error codes grouped by domain.
const (
	// Authentication and authorization
	CodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	CodeForbidden          ErrorCode = "FORBIDDEN"
	CodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"

	// Validation
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// Resources
	CodeUserNotFound     ErrorCode = "USER_NOT_FOUND"
	CodeAttemptNotFound  ErrorCode = "ATTEMPT_NOT_FOUND"
	CodeWorkshopNotFound ErrorCode = "WORKSHOP_NOT_FOUND"

	// Payment verification
	CodeSignatureMismatch    ErrorCode = "SIGNATURE_MISMATCH"
	CodePaymentNotCaptured   ErrorCode = "PAYMENT_NOT_CAPTURED"
	CodeRegistrantNotResolve ErrorCode = "REGISTRANT_NOT_RESOLVED"
	CodePaymentProcessed     ErrorCode = "PAYMENT_ALREADY_PROCESSED"
	CodeCommitFailed         ErrorCode = "PAYMENT_COMMIT_FAILED"
	CodeRecoveryNeeded       ErrorCode = "PAYMENT_CAPTURED_COMMIT_FAILED"

	// Pricing configuration
	CodePricingNotConfigured ErrorCode = "PRICING_NOT_CONFIGURED"
	CodeNoActiveTier         ErrorCode = "NO_ACTIVE_PRICING_TIER"

	// Inventory
	CodeWorkshopFull ErrorCode = "WORKSHOP_FULL"

	// Business state
	CodeEmailAlreadyExists ErrorCode = "EMAIL_ALREADY_EXISTS"
	CodeInvalidTransition  ErrorCode = "INVALID_STATUS_TRANSITION"
	CodeAuditImmutable     ErrorCode = "AUDIT_LOG_IMMUTABLE"

	// System
	CodeInternalError        ErrorCode = "INTERNAL_ERROR"
	CodeDatabaseError        ErrorCode = "DATABASE_ERROR"
	CodeExternalServiceError ErrorCode = "EXTERNAL_SERVICE_ERROR"
)
