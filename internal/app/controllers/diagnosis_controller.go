package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/baghban/guardian/internal/app/models/dto"
	"github.com/baghban/guardian/internal/app/services"
	"github.com/baghban/guardian/internal/middleware"
	"github.com/baghban/guardian/internal/pkg/helpers"
)

// DiagnosisController handles plant disease diagnosis operations
type DiagnosisController struct {
	diagnosisService services.DiagnosisService
}

// NewDiagnosisController creates a new DiagnosisController
func NewDiagnosisController(diagnosisService services.DiagnosisService) *DiagnosisController {
	return &DiagnosisController{
		diagnosisService: diagnosisService,
	}
}

// Diagnose runs a diagnosis on an uploaded plant image
// @Summary Diagnose a plant image
// @Description Uploads a plant photo, runs it through image analysis and stores the verdict
// @Tags diagnoses
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Plant image (jpg, png or webp)"
// @Success 201 {object} dto.APIResponse{data=dto.DiagnosisResponse} "Diagnosis stored"
// @Failure 400 {object} dto.ErrorResponse "Missing or unsupported image"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 502 {object} dto.ErrorResponse "Image analysis service unavailable"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /diagnoses [post]
func (c *DiagnosisController) Diagnose(ctx *gin.Context) {
	userID, _, ok := callerIdentity(ctx)
	if !ok {
		return
	}

	image, err := ctx.FormFile("image")
	if err != nil {
		invalidRequest(ctx, "image file is required")
		return
	}

	diagnosis, err := c.diagnosisService.Diagnose(ctx, userID, image)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(dto.FromDiagnosis(diagnosis)))
}

// History retrieves the caller's diagnosis history
// @Summary List my diagnoses
// @Description Retrieves a page of the caller's past diagnoses, newest first
// @Tags diagnoses
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (1-based)" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse} "Diagnoses retrieved"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /diagnoses [get]
func (c *DiagnosisController) History(ctx *gin.Context) {
	userID, _, ok := callerIdentity(ctx)
	if !ok {
		return
	}

	page, size := helpers.ParsePaginationParams(ctx)

	diagnoses, total, err := c.diagnosisService.History(ctx, userID, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	responses := make([]dto.DiagnosisResponse, 0, len(diagnoses))
	for _, diagnosis := range diagnoses {
		responses = append(responses, dto.FromDiagnosis(diagnosis))
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.PaginatedResponse{
		Items:      responses,
		Pagination: helpers.NewPaginationInfo(total, page, size),
	}))
}
