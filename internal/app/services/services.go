package services

import (
	"github.com/baghban/guardian/internal/app/repositories"
	"github.com/baghban/guardian/internal/pkg/auth"
	"github.com/baghban/guardian/internal/pkg/filestorage"
	"github.com/baghban/guardian/internal/pkg/plantvision"
	"github.com/baghban/guardian/internal/pkg/weather"
)

// Services bundles every service for dependency injection.
type Services struct {
	Auth         AuthService
	Consultation ConsultationService
	Expert       ExpertService
	Advisory     AdvisoryService
	Diagnosis    DiagnosisService
	Progress     ProgressService
}

// NewServices wires the service layer onto the repositories and external
// clients.
func NewServices(
	repos *repositories.Repositories,
	jwtService *auth.JWTService,
	weatherSource weather.Source,
	analyzer plantvision.Analyzer,
	storage filestorage.FileStorage,
) *Services {
	return &Services{
		Auth:         NewAuthService(repos.User, repos.Token, jwtService),
		Consultation: NewConsultationService(repos.Consultation, repos.Progress),
		Expert:       NewExpertService(repos.Expert),
		Advisory:     NewAdvisoryService(weatherSource),
		Diagnosis:    NewDiagnosisService(repos.Diagnosis, storage, analyzer, repos.Progress),
		Progress:     NewProgressService(repos.Progress),
	}
}
