package middleware

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/baghban/guardian/internal/app/models/dto"
	"github.com/baghban/guardian/internal/pkg/apperrors"
)

func errorResponse(c *gin.Context, status int, code dto.ErrorCode, message string) {
	c.JSON(status, dto.APIResponse{
		Success:   false,
		Error:     dto.NewErrorDetail(code, message),
		Timestamp: time.Now(),
	})
}

// HandleAPIError maps application errors onto HTTP responses. Lifecycle
// precondition failures are 409, access failures 403, token problems 401.
func HandleAPIError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrConsultationUnavailable):
		errorResponse(c, 409, dto.ErrorCodeConsultationUnavailable, "Consultation is no longer available")
	case errors.Is(err, apperrors.ErrNotConsultationParty):
		errorResponse(c, 403, dto.ErrorCodeNotConsultationParty, "Caller is not a party to this consultation")
	case errors.Is(err, apperrors.ErrNotAssignedExpert):
		errorResponse(c, 403, dto.ErrorCodeNotAssignedExpert, "Caller is not the assigned consultant")
	case errors.Is(err, apperrors.ErrConsultationNotFound):
		errorResponse(c, 404, dto.ErrorCodeResourceNotFound, "Consultation not found")
	case errors.Is(err, apperrors.ErrExpertNotFound):
		errorResponse(c, 404, dto.ErrorCodeResourceNotFound, "Expert profile not found")
	case errors.Is(err, apperrors.ErrDiagnosisNotFound):
		errorResponse(c, 404, dto.ErrorCodeResourceNotFound, "Diagnosis not found")
	case errors.Is(err, apperrors.ErrUserNotFound):
		errorResponse(c, 404, dto.ErrorCodeResourceNotFound, "User not found")
	case errors.Is(err, apperrors.ErrResourceNotFound):
		errorResponse(c, 404, dto.ErrorCodeResourceNotFound, "Resource not found")
	case errors.Is(err, apperrors.ErrPermissionDenied):
		errorResponse(c, 403, dto.ErrorCodeForbidden, "Permission denied")
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		errorResponse(c, 401, dto.ErrorCodeInvalidCredentials, "Invalid credentials")
	case errors.Is(err, apperrors.ErrAccountDisabled):
		errorResponse(c, 401, dto.ErrorCodeUnauthorized, "Account is disabled")
	case errors.Is(err, apperrors.ErrTokenExpired):
		errorResponse(c, 401, dto.ErrorCodeExpiredToken, "Token expired")
	case errors.Is(err, apperrors.ErrTokenInvalid):
		errorResponse(c, 401, dto.ErrorCodeInvalidToken, "Invalid token")
	case errors.Is(err, apperrors.ErrTokenNotFound):
		errorResponse(c, 401, dto.ErrorCodeTokenNotFound, "Token not found")
	case errors.Is(err, apperrors.ErrTokenRevoked):
		errorResponse(c, 401, dto.ErrorCodeInvalidToken, "Token revoked")
	case errors.Is(err, apperrors.ErrValidationFailed):
		errorResponse(c, 400, dto.ErrorCodeValidationFailed, "Validation failed")
	case errors.Is(err, apperrors.ErrBadRequest):
		errorResponse(c, 400, dto.ErrorCodeValidationFailed, err.Error())
	case errors.Is(err, apperrors.ErrUnsupportedImageType):
		errorResponse(c, 400, dto.ErrorCodeValidationFailed, "Unsupported image type")
	case errors.Is(err, apperrors.ErrEmailAlreadyExists):
		errorResponse(c, 409, dto.ErrorCodeResourceAlreadyExists, "Email already exists")
	case errors.Is(err, apperrors.ErrExpertAlreadyExists):
		errorResponse(c, 409, dto.ErrorCodeResourceAlreadyExists, "Expert profile already exists")
	case errors.Is(err, apperrors.ErrWeatherUnavailable):
		errorResponse(c, 502, dto.ErrorCodeExternalServiceError, "Weather service unavailable")
	case errors.Is(err, apperrors.ErrAnalyzerUnavailable):
		errorResponse(c, 502, dto.ErrorCodeExternalServiceError, "Image analysis service unavailable")
	default:
		errorResponse(c, 500, dto.ErrorCodeInternalServer, "Internal server error")
	}
}
