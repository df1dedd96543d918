package dto

import "github.com/baghban/guardian/internal/app/models"

// ExpertResponse represents an expert profile in API responses
type ExpertResponse struct {
	ID        int64   `json:"id"`
	UserID    int64   `json:"userId"`
	Name      string  `json:"name"`
	Specialty string  `json:"specialty"`
	Region    string  `json:"region"`
	Bio       *string `json:"bio,omitempty"`
	Available bool    `json:"available"`
	Verified  bool    `json:"verified"`
	Rating    float64 `json:"rating"`
}

// ExpertListResponse represents a list of experts
type ExpertListResponse struct {
	Experts []ExpertResponse `json:"experts"`
}

// UpdateAvailabilityRequest toggles an expert's availability flag
type UpdateAvailabilityRequest struct {
	Available *bool `json:"available" binding:"required"`
}

// CreateExpertProfileRequest creates an expert profile for the caller
type CreateExpertProfileRequest struct {
	Name      string  `json:"name" binding:"required"`
	Specialty string  `json:"specialty" binding:"required"`
	Region    string  `json:"region" binding:"required"`
	Bio       *string `json:"bio,omitempty"`
}

// FromExpert converts an expert model to its response form.
func FromExpert(e *models.Expert) ExpertResponse {
	if e == nil {
		return ExpertResponse{}
	}
	return ExpertResponse{
		ID:        e.ID,
		UserID:    e.UserID,
		Name:      e.Name,
		Specialty: e.Specialty,
		Region:    e.Region,
		Bio:       e.Bio,
		Available: e.Available,
		Verified:  e.Verified,
		Rating:    e.Rating,
	}
}

// FromExperts converts a slice of expert models.
func FromExperts(experts []*models.Expert) []ExpertResponse {
	out := make([]ExpertResponse, 0, len(experts))
	for _, e := range experts {
		out = append(out, FromExpert(e))
	}
	return out
}
