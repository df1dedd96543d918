package models

import (
	"time"
)

// Points awarded per engagement event.
const (
	PointsConsultationCreated   = 10
	PointsConsultationCompleted = 50
	PointsDiagnosisRun          = 5
)

// PointsPerLevel is the number of points needed to advance one level.
const PointsPerLevel = 100

// FarmerProgress defines the gamified engagement record based on the
// 'farmer_progress' table, one row per farmer.
type FarmerProgress struct {
	ID                     int64     `json:"id" db:"id"`
	UserID                 int64     `json:"userId" db:"user_id"`
	Points                 int       `json:"points" db:"points"`
	ConsultationsCompleted int       `json:"consultationsCompleted" db:"consultations_completed"`
	DiagnosesRun           int       `json:"diagnosesRun" db:"diagnoses_run"`
	UpdatedAt              time.Time `json:"updatedAt" db:"updated_at"`
}

// Level derives the farmer's level from accumulated points. Levels are
// 1-based; a fresh farmer with zero points is level 1.
func (p *FarmerProgress) Level() int {
	return p.Points/PointsPerLevel + 1
}
