package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/baghban/guardian/internal/app/models/dto"
	"github.com/baghban/guardian/internal/app/services"
	"github.com/baghban/guardian/internal/middleware"
)

// ProgressController exposes farmer engagement progress
type ProgressController struct {
	progressService services.ProgressService
}

// NewProgressController creates a new ProgressController
func NewProgressController(progressService services.ProgressService) *ProgressController {
	return &ProgressController{
		progressService: progressService,
	}
}

// GetMyProgress retrieves the caller's progress
// @Summary Get my progress
// @Description Retrieves the caller's engagement points, level and activity counters
// @Tags progress
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.ProgressResponse} "Progress retrieved"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /progress [get]
func (c *ProgressController) GetMyProgress(ctx *gin.Context) {
	userID, _, ok := callerIdentity(ctx)
	if !ok {
		return
	}

	progress, err := c.progressService.Get(ctx, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.FromProgress(progress)))
}
