package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/baghban/guardian/internal/app/models"
	"github.com/baghban/guardian/internal/app/models/dto"
	"github.com/baghban/guardian/internal/app/services"
	"github.com/baghban/guardian/internal/middleware"
)

// ConsultationController handles the consultation lifecycle action endpoints.
// Both endpoints dispatch on the "action" field of the request body; caller
// identity always comes from verified JWT claims.
type ConsultationController struct {
	consultationService services.ConsultationService
	expertService       services.ExpertService
}

// NewConsultationController creates a new ConsultationController
func NewConsultationController(consultationService services.ConsultationService, expertService services.ExpertService) *ConsultationController {
	return &ConsultationController{
		consultationService: consultationService,
		expertService:       expertService,
	}
}

func invalidRequest(ctx *gin.Context, details string) {
	errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request").
		WithDetails(details)
	ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
}

// bindingFailed turns a binding error into a 400, with per-field tags when
// the failure came from struct validation.
func bindingFailed(ctx *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		fields := make(map[string]string, len(validationErrors))
		for _, fieldErr := range validationErrors {
			fields[fieldErr.Field()] = fieldErr.Tag()
		}
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request").
			WithDetails(fields)
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}
	invalidRequest(ctx, err.Error())
}

func unknownAction(ctx *gin.Context, action string) {
	errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Unknown action").
		WithDetails("Unsupported action: " + action)
	ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
}

func callerIdentity(ctx *gin.Context) (int64, string, bool) {
	userID, ok := middleware.CallerID(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return 0, "", false
	}
	role, _ := middleware.CallerRole(ctx)
	return userID, role, true
}

func roleDenied(ctx *gin.Context, details string) {
	errorDetail := dto.NewErrorDetail(dto.ErrorCodeForbidden, "Access denied").
		WithDetails(details)
	ctx.JSON(http.StatusForbidden, dto.NewErrorResponse(errorDetail))
}

// HandleConsultation dispatches consultation lifecycle actions
// @Summary Handle a consultation lifecycle action
// @Description Dispatches on the action field: create_consultation, accept_consultation, start_call, end_call, cancel_consultation, get_available_experts
// @Tags consultations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ConsultationActionRequest true "Action envelope"
// @Success 200 {object} dto.APIResponse{data=dto.ConsultationResponse} "Action completed"
// @Failure 400 {object} dto.ErrorResponse "Invalid request or unknown action"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - caller lacks the required role"
// @Failure 409 {object} dto.ErrorResponse "Consultation is no longer available"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /handle-consultation [post]
func (c *ConsultationController) HandleConsultation(ctx *gin.Context) {
	var req dto.ConsultationActionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindingFailed(ctx, err)
		return
	}

	userID, role, ok := callerIdentity(ctx)
	if !ok {
		return
	}

	switch req.Action {
	case dto.ActionCreateConsultation:
		if role != string(models.RoleFarmer) {
			roleDenied(ctx, "Only farmers can create consultations")
			return
		}
		consultation, err := c.consultationService.Create(ctx, userID, req.Topic)
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.FromConsultation(consultation)))

	case dto.ActionAcceptConsultation:
		if role != string(models.RoleExpert) {
			roleDenied(ctx, "Only experts can accept consultations")
			return
		}
		if req.ConsultationID <= 0 {
			invalidRequest(ctx, "consultationId is required")
			return
		}
		consultation, err := c.consultationService.Accept(ctx, req.ConsultationID, userID)
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.FromConsultation(consultation)))

	case dto.ActionStartCall:
		if req.ConsultationID <= 0 {
			invalidRequest(ctx, "consultationId is required")
			return
		}
		consultation, err := c.consultationService.StartCall(ctx, req.ConsultationID, userID)
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.FromConsultation(consultation)))

	case dto.ActionEndCall:
		if req.ConsultationID <= 0 {
			invalidRequest(ctx, "consultationId is required")
			return
		}
		consultation, err := c.consultationService.EndCall(ctx, req.ConsultationID, userID)
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.FromConsultation(consultation)))

	case dto.ActionCancelConsultation:
		if role != string(models.RoleFarmer) {
			roleDenied(ctx, "Only farmers can cancel consultations")
			return
		}
		if req.ConsultationID <= 0 {
			invalidRequest(ctx, "consultationId is required")
			return
		}
		consultation, err := c.consultationService.Cancel(ctx, req.ConsultationID, userID)
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.FromConsultation(consultation)))

	case dto.ActionGetAvailableExperts:
		experts, err := c.expertService.ListAvailable(ctx)
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.ExpertListResponse{
			Experts: dto.FromExperts(experts),
		}))

	default:
		unknownAction(ctx, req.Action)
	}
}

// CallManagement dispatches in-call actions
// @Summary Handle a call management action
// @Description Dispatches on the action field: join_call, leave_call, save_notes, get_call_status
// @Tags consultations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ConsultationActionRequest true "Action envelope"
// @Success 200 {object} dto.APIResponse "Action completed"
// @Failure 400 {object} dto.ErrorResponse "Invalid request or unknown action"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - caller is not a party or not the consultant"
// @Failure 404 {object} dto.ErrorResponse "Consultation not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /call-management [post]
func (c *ConsultationController) CallManagement(ctx *gin.Context) {
	var req dto.ConsultationActionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindingFailed(ctx, err)
		return
	}

	userID, _, ok := callerIdentity(ctx)
	if !ok {
		return
	}

	if req.ConsultationID <= 0 {
		invalidRequest(ctx, "consultationId is required")
		return
	}

	switch req.Action {
	case dto.ActionJoinCall:
		consultation, err := c.consultationService.JoinCall(ctx, req.ConsultationID, userID)
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.CallAckResponse{
			ConsultationID: consultation.ID,
			Status:         string(consultation.Status),
			Acknowledged:   true,
		}))

	case dto.ActionLeaveCall:
		consultation, err := c.consultationService.LeaveCall(ctx, req.ConsultationID, userID)
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.CallAckResponse{
			ConsultationID: consultation.ID,
			Status:         string(consultation.Status),
			Acknowledged:   true,
		}))

	case dto.ActionSaveNotes:
		consultation, err := c.consultationService.SaveNotes(ctx, req.ConsultationID, userID, req.Notes)
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.FromConsultation(consultation)))

	case dto.ActionGetCallStatus:
		consultation, err := c.consultationService.GetCallStatus(ctx, req.ConsultationID, userID)
		if err != nil {
			middleware.HandleAPIError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.CallStatusResponse{
			ConsultationID: consultation.ID,
			Status:         string(consultation.Status),
			Topic:          consultation.Topic,
		}))

	default:
		unknownAction(ctx, req.Action)
	}
}

// ListMine retrieves the caller's consultations
// @Summary List my consultations
// @Description Retrieves every consultation the caller is a party to, newest first
// @Tags consultations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.ConsultationListResponse} "Consultations retrieved"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /consultations [get]
func (c *ConsultationController) ListMine(ctx *gin.Context) {
	userID, _, ok := callerIdentity(ctx)
	if !ok {
		return
	}

	consultations, err := c.consultationService.ListMine(ctx, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	responses := make([]dto.ConsultationResponse, 0, len(consultations))
	for _, consultation := range consultations {
		responses = append(responses, dto.FromConsultation(consultation))
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.ConsultationListResponse{
		Consultations: responses,
	}))
}

// ListPending retrieves the unclaimed work queue
// @Summary List pending consultations
// @Description Retrieves unclaimed consultations for experts to accept, oldest first
// @Tags consultations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.ConsultationListResponse} "Pending consultations retrieved"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - caller is not an expert"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /consultations/pending [get]
func (c *ConsultationController) ListPending(ctx *gin.Context) {
	consultations, err := c.consultationService.ListPending(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	responses := make([]dto.ConsultationResponse, 0, len(consultations))
	for _, consultation := range consultations {
		responses = append(responses, dto.FromConsultation(consultation))
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.ConsultationListResponse{
		Consultations: responses,
	}))
}
