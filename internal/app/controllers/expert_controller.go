package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/baghban/guardian/internal/app/models/dto"
	"github.com/baghban/guardian/internal/app/services"
	"github.com/baghban/guardian/internal/middleware"
)

// ExpertController handles expert profile operations
type ExpertController struct {
	expertService services.ExpertService
}

// NewExpertController creates a new ExpertController
func NewExpertController(expertService services.ExpertService) *ExpertController {
	return &ExpertController{
		expertService: expertService,
	}
}

// CreateProfile creates the caller's expert profile
// @Summary Create expert profile
// @Description Creates an expert profile for the authenticated expert account
// @Tags experts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateExpertProfileRequest true "Profile information"
// @Success 201 {object} dto.APIResponse{data=dto.ExpertResponse} "Profile created"
// @Failure 400 {object} dto.ErrorResponse "Invalid profile data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 403 {object} dto.ErrorResponse "Forbidden - caller is not an expert"
// @Failure 409 {object} dto.ErrorResponse "Profile already exists"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /experts/profile [post]
func (c *ExpertController) CreateProfile(ctx *gin.Context) {
	var req dto.CreateExpertProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindingFailed(ctx, err)
		return
	}

	userID, _, ok := callerIdentity(ctx)
	if !ok {
		return
	}

	expert, err := c.expertService.CreateProfile(ctx, userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewAPIResponse(dto.FromExpert(expert)))
}

// GetMyProfile retrieves the caller's expert profile
// @Summary Get my expert profile
// @Description Retrieves the authenticated expert's own profile
// @Tags experts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.ExpertResponse} "Profile retrieved"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} dto.ErrorResponse "Profile not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /experts/me [get]
func (c *ExpertController) GetMyProfile(ctx *gin.Context) {
	userID, _, ok := callerIdentity(ctx)
	if !ok {
		return
	}

	expert, err := c.expertService.GetProfile(ctx, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.FromExpert(expert)))
}

// ListAvailable retrieves the expert directory
// @Summary List available experts
// @Description Retrieves available, verified experts ordered by rating
// @Tags experts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.ExpertListResponse} "Experts retrieved"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /experts [get]
func (c *ExpertController) ListAvailable(ctx *gin.Context) {
	experts, err := c.expertService.ListAvailable(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.ExpertListResponse{
		Experts: dto.FromExperts(experts),
	}))
}

// SetAvailability toggles the caller's availability
// @Summary Set availability
// @Description Toggles whether the authenticated expert appears in the directory
// @Tags experts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateAvailabilityRequest true "Availability flag"
// @Success 200 {object} dto.APIResponse{data=dto.ExpertResponse} "Availability updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} dto.ErrorResponse "Profile not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /experts/availability [patch]
func (c *ExpertController) SetAvailability(ctx *gin.Context) {
	var req dto.UpdateAvailabilityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		bindingFailed(ctx, err)
		return
	}

	userID, _, ok := callerIdentity(ctx)
	if !ok {
		return
	}

	expert, err := c.expertService.SetAvailability(ctx, userID, *req.Available)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.FromExpert(expert)))
}
