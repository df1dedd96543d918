package apperrors

import "errors"

// Common errors
var (
	// Resource errors
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenNotFound      = errors.New("token not found")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrInvalidFormat      = errors.New("invalid token format")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")

	// User errors
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
)

// Consultation errors
var (
	// ErrConsultationNotFound is returned when no consultation exists for an id.
	ErrConsultationNotFound = errors.New("consultation not found")
	// ErrConsultationUnavailable is returned when a guarded lifecycle update
	// matched zero rows: another expert already claimed the consultation, it
	// never existed, or it left the required state. Racing callers all observe
	// this error while exactly one wins.
	ErrConsultationUnavailable = errors.New("consultation is no longer available")
	// ErrNotConsultationParty is returned when the caller is neither the
	// farmer nor the assigned consultant on the record.
	ErrNotConsultationParty = errors.New("caller is not a party to this consultation")
	// ErrNotAssignedExpert is returned when a consultant-only operation is
	// attempted by anyone but the assigned consultant.
	ErrNotAssignedExpert = errors.New("caller is not the assigned consultant")
)

// Expert errors
var (
	ErrExpertNotFound      = errors.New("expert not found")
	ErrExpertAlreadyExists = errors.New("expert profile already exists for this user")
)

// Diagnosis errors
var (
	ErrDiagnosisNotFound    = errors.New("diagnosis not found")
	ErrAnalyzerUnavailable  = errors.New("image analysis service unavailable")
	ErrUnsupportedImageType = errors.New("unsupported image type")
)

// Weather errors
var (
	ErrWeatherUnavailable = errors.New("weather service unavailable")
)

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: message,
	}
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) error {
	return &CustomError{
		Err:     ErrConflict,
		Message: message,
	}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return &CustomError{
		Err:     ErrPermissionDenied,
		Message: message,
	}
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Code    string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}
