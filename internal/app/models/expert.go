package models

import (
	"time"
)

// Expert defines the expert profile model based on the 'experts' table.
// UserID links the profile to the login account; consultations reference
// the expert by that user id.
type Expert struct {
	ID        int64     `json:"id" db:"id" example:"1"`
	UserID    int64     `json:"userId" db:"user_id" example:"12"`
	Name      string    `json:"name" db:"name" example:"Dr. Sana Malik"`
	Specialty string    `json:"specialty" db:"specialty" example:"Plant Pathology"`
	Region    string    `json:"region" db:"region" example:"Punjab"`
	Bio       *string   `json:"bio,omitempty" db:"bio"`
	Available bool      `json:"available" db:"available" example:"true"`
	Verified  bool      `json:"verified" db:"verified" example:"true"`
	Rating    float64   `json:"rating" db:"rating" example:"4.8"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
