package services

import (
	"context"

	"github.com/baghban/guardian/internal/app/models"
)

// ProgressReader reads progress records.
// *repositories.ProgressRepository satisfies it.
type ProgressReader interface {
	GetByUserID(ctx context.Context, userID int64) (*models.FarmerProgress, error)
}

// ProgressService exposes a farmer's engagement progress.
type ProgressService interface {
	Get(ctx context.Context, userID int64) (*models.FarmerProgress, error)
}

type progressService struct {
	reader ProgressReader
}

// NewProgressService creates a new progress service
func NewProgressService(reader ProgressReader) ProgressService {
	return &progressService{reader: reader}
}

// Get returns the farmer's progress, zeroed for farmers with no activity yet.
func (s *progressService) Get(ctx context.Context, userID int64) (*models.FarmerProgress, error) {
	return s.reader.GetByUserID(ctx, userID)
}
