package services

import (
	"context"

	"github.com/baghban/guardian/internal/pkg/apperrors"
	"github.com/baghban/guardian/internal/pkg/validation"
	"github.com/baghban/guardian/internal/pkg/weather"
)

// AdvisoryService answers whether field conditions suit pesticide spraying.
type AdvisoryService interface {
	SprayAdvisory(ctx context.Context, lat, lon float64) (*weather.Advisory, error)
}

type advisoryService struct {
	source weather.Source
}

// NewAdvisoryService creates an advisory service on top of a weather source,
// typically a cached one.
func NewAdvisoryService(source weather.Source) AdvisoryService {
	return &advisoryService{source: source}
}

// SprayAdvisory fetches current conditions for the coordinates and applies
// the spray suitability rules.
func (s *advisoryService) SprayAdvisory(ctx context.Context, lat, lon float64) (*weather.Advisory, error) {
	if !validation.ValidCoordinates(lat, lon) {
		return nil, apperrors.NewBadRequestError("coordinates out of range")
	}

	obs, err := s.source.Current(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	advisory := weather.Evaluate(obs)
	return &advisory, nil
}
