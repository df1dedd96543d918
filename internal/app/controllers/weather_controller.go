package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/baghban/guardian/internal/app/models/dto"
	"github.com/baghban/guardian/internal/app/services"
	"github.com/baghban/guardian/internal/middleware"
)

// WeatherController handles weather-based advisory operations
type WeatherController struct {
	advisoryService services.AdvisoryService
}

// NewWeatherController creates a new WeatherController
func NewWeatherController(advisoryService services.AdvisoryService) *WeatherController {
	return &WeatherController{
		advisoryService: advisoryService,
	}
}

// SprayAdvisory answers whether conditions suit spraying
// @Summary Get spray advisory
// @Description Checks current weather at the given coordinates against spray suitability rules
// @Tags advisory
// @Produce json
// @Security BearerAuth
// @Param lat query number true "Latitude"
// @Param lon query number true "Longitude"
// @Success 200 {object} dto.APIResponse{data=dto.SprayAdvisoryResponse} "Advisory computed"
// @Failure 400 {object} dto.ErrorResponse "Invalid coordinates"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 502 {object} dto.ErrorResponse "Weather service unavailable"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /advisory/spray [get]
func (c *WeatherController) SprayAdvisory(ctx *gin.Context) {
	lat, err := strconv.ParseFloat(ctx.Query("lat"), 64)
	if err != nil {
		invalidRequest(ctx, "lat must be a valid number")
		return
	}

	lon, err := strconv.ParseFloat(ctx.Query("lon"), 64)
	if err != nil {
		invalidRequest(ctx, "lon must be a valid number")
		return
	}

	advisory, err := c.advisoryService.SprayAdvisory(ctx, lat, lon)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewAPIResponse(dto.SprayAdvisoryResponse{
		Suitable:    advisory.Suitable,
		Reasons:     advisory.Reasons,
		Temperature: advisory.Observation.Temperature,
		Humidity:    advisory.Observation.Humidity,
		WindSpeed:   advisory.Observation.WindSpeed,
		Raining:     advisory.Observation.Raining,
		Description: advisory.Observation.Description,
		CheckedAt:   advisory.CheckedAt,
	}))
}
