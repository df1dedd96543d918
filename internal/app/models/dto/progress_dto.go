package dto

import "github.com/baghban/guardian/internal/app/models"

// ProgressResponse represents a farmer's gamified progress
type ProgressResponse struct {
	UserID                 int64 `json:"userId"`
	Points                 int   `json:"points"`
	Level                  int   `json:"level"`
	ConsultationsCompleted int   `json:"consultationsCompleted"`
	DiagnosesRun           int   `json:"diagnosesRun"`
}

// FromProgress converts a progress model to its response form.
func FromProgress(p *models.FarmerProgress) ProgressResponse {
	if p == nil {
		return ProgressResponse{}
	}
	return ProgressResponse{
		UserID:                 p.UserID,
		Points:                 p.Points,
		Level:                  p.Level(),
		ConsultationsCompleted: p.ConsultationsCompleted,
		DiagnosesRun:           p.DiagnosesRun,
	}
}
