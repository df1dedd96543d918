package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	appControllers "github.com/baghban/guardian/internal/app/controllers"
	appMigrations "github.com/baghban/guardian/internal/app/migrations"
	appRepos "github.com/baghban/guardian/internal/app/repositories"
	appRoutes "github.com/baghban/guardian/internal/app/routes"
	appServices "github.com/baghban/guardian/internal/app/services"
	"github.com/baghban/guardian/internal/config"
	"github.com/baghban/guardian/internal/db"
	appMiddleware "github.com/baghban/guardian/internal/middleware"
	pkgAuth "github.com/baghban/guardian/internal/pkg/auth"
	"github.com/baghban/guardian/internal/pkg/callhub"
	"github.com/baghban/guardian/internal/pkg/filestorage"
	"github.com/baghban/guardian/internal/pkg/helpers"
	"github.com/baghban/guardian/internal/pkg/logger"
	"github.com/baghban/guardian/internal/pkg/plantvision"
	"github.com/baghban/guardian/internal/pkg/weather"
	"github.com/baghban/guardian/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Services               *appServices.Services
	AuthController         *appControllers.AuthController
	ConsultationController *appControllers.ConsultationController
	ExpertController       *appControllers.ExpertController
	WeatherController      *appControllers.WeatherController
	DiagnosisController    *appControllers.DiagnosisController
	ProgressController     *appControllers.ProgressController
	AuthMiddleware         *appMiddleware.AuthMiddleware
	Repos                  *appRepos.Repositories
	JWTService             *pkgAuth.JWTService
	CallHub                *callhub.Hub
	CallHandler            *callhub.Handler
	FileStorage            *filestorage.LocalStorage
	Scheduler              *cron.Cron
	Logger                 zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs migrations.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dbPool.Ping(ctx); err != nil {
		lgr.Error().Err(err).Msg("Failed to ping database")
		dbPool.Close()
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(dbPool)

	migrationsDir := "migrations"
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	if err := migrator.MigrateFromDirectory(migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}

	lgr.Info().Msg("Database migrations successfully applied.")

	if err := seed.CreateDefaultData(context.Background(), dbPool, lgr); err != nil {
		// Seeding failure should not block startup
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return dbPool, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(dbPool)

	// File storage for diagnosis uploads, served back at /uploads
	var err error
	baseURL := "http://localhost:" + cfg.Server.Port
	fileStorageBaseURL := baseURL + "/uploads"
	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.Server.StoragePath, fileStorageBaseURL)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize file storage")
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 1*time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})

	weatherClient := weather.NewClient(cfg.Weather.BaseURL, cfg.Weather.APIKey)
	weatherSource := weather.NewCachedSource(weatherClient,
		helpers.ParseDuration(cfg.Weather.CacheTTL, 10*time.Minute))

	analyzer := plantvision.NewHTTPAnalyzer(cfg.PlantVision.BaseURL, cfg.PlantVision.APIKey)

	deps.Services = appServices.NewServices(deps.Repos, deps.JWTService, weatherSource, analyzer, deps.FileStorage)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.CallHub = callhub.NewHub(lgr)
	go deps.CallHub.Run()
	deps.CallHandler = callhub.NewHandler(deps.CallHub, deps.Services.Consultation, lgr)

	deps.AuthController = appControllers.NewAuthController(deps.Services.Auth)
	deps.ConsultationController = appControllers.NewConsultationController(deps.Services.Consultation, deps.Services.Expert)
	deps.ExpertController = appControllers.NewExpertController(deps.Services.Expert)
	deps.WeatherController = appControllers.NewWeatherController(deps.Services.Advisory)
	deps.DiagnosisController = appControllers.NewDiagnosisController(deps.Services.Diagnosis)
	deps.ProgressController = appControllers.NewProgressController(deps.Services.Progress)

	deps.Scheduler = setupScheduler(deps.Repos, weatherSource, lgr)

	return deps, nil
}

// setupScheduler starts the background jobs: hourly cleanup of expired
// refresh tokens and an hourly sweep of the weather cache.
func setupScheduler(repos *appRepos.Repositories, weatherSource *weather.CachedSource, lgr zerolog.Logger) *cron.Cron {
	scheduler := cron.New()

	_, err := scheduler.AddFunc("@hourly", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		removed, err := repos.Token.CleanupExpiredTokens(ctx)
		if err != nil {
			lgr.Error().Err(err).Msg("Expired token cleanup failed")
			return
		}
		if removed > 0 {
			lgr.Info().Int64("removed", removed).Msg("Expired refresh tokens cleaned up")
		}
	})
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to schedule token cleanup job")
	}

	_, err = scheduler.AddFunc("@hourly", func() {
		if removed := weatherSource.Sweep(); removed > 0 {
			lgr.Debug().Int("removed", removed).Msg("Stale weather cache entries swept")
		}
	})
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to schedule weather cache sweep job")
	}

	scheduler.Start()
	return scheduler
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.Default()

	router.Use(appMiddleware.CORS())

	// Setup Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json"), ginSwagger.DefaultModelsExpandDepth(1)))

	appRoutes.SetupRouter(router,
		deps.AuthController,
		deps.ConsultationController,
		deps.ExpertController,
		deps.WeatherController,
		deps.DiagnosisController,
		deps.ProgressController,
		deps.CallHandler,
		deps.AuthMiddleware,
	)

	return router
}
