package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/baghban/guardian/internal/app/controllers"
	"github.com/baghban/guardian/internal/app/models"
	"github.com/baghban/guardian/internal/app/models/dto"
	"github.com/baghban/guardian/internal/middleware"
	"github.com/baghban/guardian/internal/pkg/callhub"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	consultationController *controllers.ConsultationController,
	expertController *controllers.ExpertController,
	weatherController *controllers.WeatherController,
	diagnosisController *controllers.DiagnosisController,
	progressController *controllers.ProgressController,
	callHandler *callhub.Handler,
	authMiddleware *middleware.AuthMiddleware,
) {
	// API version group
	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
		auth.POST("/refresh", authController.Refresh)
	}

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		authenticated.POST("/auth/logout", authController.Logout)

		// Consultation lifecycle action endpoints. The request body's action
		// field selects the operation; ownership and state preconditions are
		// enforced in storage.
		authenticated.POST("/handle-consultation", consultationController.HandleConsultation)
		authenticated.POST("/call-management", consultationController.CallManagement)

		consultations := authenticated.Group("/consultations")
		{
			consultations.GET("", consultationController.ListMine)

			// The pending work queue is expert-only
			consultationsExpertProtected := consultations.Group("")
			consultationsExpertProtected.Use(authMiddleware.RoleRequired(string(models.RoleExpert)))
			{
				consultationsExpertProtected.GET("/pending", consultationController.ListPending)
			}

			// In-call chat and signaling room
			consultations.GET("/:id/call/ws", callHandler.HandleConnection)
		}

		experts := authenticated.Group("/experts")
		{
			experts.GET("", expertController.ListAvailable)

			expertsRoleProtected := experts.Group("")
			expertsRoleProtected.Use(authMiddleware.RoleRequired(string(models.RoleExpert)))
			{
				expertsRoleProtected.POST("/profile", expertController.CreateProfile)
				expertsRoleProtected.GET("/me", expertController.GetMyProfile)
				expertsRoleProtected.PATCH("/availability", expertController.SetAvailability)
			}
		}

		authenticated.GET("/advisory/spray", weatherController.SprayAdvisory)

		diagnoses := authenticated.Group("/diagnoses")
		diagnoses.Use(authMiddleware.RoleRequired(string(models.RoleFarmer)))
		{
			diagnoses.POST("", diagnosisController.Diagnose)
			diagnoses.GET("", diagnosisController.History)
		}

		authenticated.GET("/progress", progressController.GetMyProgress)
	}

	// Health check endpoint (public)
	v1.GET("/health", func(c *gin.Context) {
		c.JSON(200, dto.NewAPIResponse(gin.H{"status": "ok"}))
	})

	// Swagger routes are set up in bootstrap.go already
}
