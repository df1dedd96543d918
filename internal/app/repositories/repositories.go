package repositories

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories bundles every repository for dependency injection.
type Repositories struct {
	User         *UserRepository
	Token        *TokenRepository
	Expert       *ExpertRepository
	Consultation *ConsultationRepository
	Diagnosis    *DiagnosisRepository
	Progress     *ProgressRepository
}

// NewRepositories creates the repository set backed by the given pool.
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Token:        NewTokenRepository(db),
		Expert:       NewExpertRepository(db),
		Consultation: NewConsultationRepository(db),
		Diagnosis:    NewDiagnosisRepository(db),
		Progress:     NewProgressRepository(db),
	}
}
