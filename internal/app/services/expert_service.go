package services

import (
	"context"

	"github.com/baghban/guardian/internal/app/models"
	"github.com/baghban/guardian/internal/app/models/dto"
	"github.com/baghban/guardian/internal/pkg/logger"
)

// ExpertStore is the expert profile storage surface.
// *repositories.ExpertRepository satisfies it.
type ExpertStore interface {
	Create(ctx context.Context, expert *models.Expert) (*models.Expert, error)
	GetByUserID(ctx context.Context, userID int64) (*models.Expert, error)
	ListAvailableVerified(ctx context.Context) ([]*models.Expert, error)
	UpdateAvailability(ctx context.Context, userID int64, available bool) (*models.Expert, error)
}

// ExpertService manages expert profiles and the directory farmers browse.
type ExpertService interface {
	CreateProfile(ctx context.Context, userID int64, req *dto.CreateExpertProfileRequest) (*models.Expert, error)
	GetProfile(ctx context.Context, userID int64) (*models.Expert, error)
	ListAvailable(ctx context.Context) ([]*models.Expert, error)
	SetAvailability(ctx context.Context, userID int64, available bool) (*models.Expert, error)
}

type expertService struct {
	store ExpertStore
}

// NewExpertService creates a new expert service
func NewExpertService(store ExpertStore) ExpertService {
	return &expertService{store: store}
}

// CreateProfile creates the caller's expert profile. New profiles start
// available but unverified; verification is an operator action.
func (s *expertService) CreateProfile(ctx context.Context, userID int64, req *dto.CreateExpertProfileRequest) (*models.Expert, error) {
	expert := &models.Expert{
		UserID:    userID,
		Name:      req.Name,
		Specialty: req.Specialty,
		Region:    req.Region,
		Bio:       req.Bio,
		Available: true,
		Verified:  false,
	}

	created, err := s.store.Create(ctx, expert)
	if err != nil {
		return nil, err
	}

	logger.Info().Int64("userID", userID).Str("specialty", req.Specialty).Msg("Expert profile created")

	return created, nil
}

// GetProfile returns the expert profile for a user account.
func (s *expertService) GetProfile(ctx context.Context, userID int64) (*models.Expert, error) {
	return s.store.GetByUserID(ctx, userID)
}

// ListAvailable returns the directory of available, verified experts.
func (s *expertService) ListAvailable(ctx context.Context) ([]*models.Expert, error) {
	return s.store.ListAvailableVerified(ctx)
}

// SetAvailability toggles whether the expert appears in the directory.
func (s *expertService) SetAvailability(ctx context.Context, userID int64, available bool) (*models.Expert, error) {
	return s.store.UpdateAvailability(ctx, userID, available)
}
