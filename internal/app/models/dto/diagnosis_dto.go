package dto

import (
	"time"

	"github.com/baghban/guardian/internal/app/models"
)

// DiagnosisResponse represents a stored diagnosis in API responses
type DiagnosisResponse struct {
	ID         int64     `json:"id"`
	ImageURL   string    `json:"imageUrl"`
	CropName   string    `json:"cropName"`
	Disease    string    `json:"disease"`
	Confidence float64   `json:"confidence"`
	Severity   string    `json:"severity"`
	Treatment  string    `json:"treatment"`
	CreatedAt  time.Time `json:"createdAt"`
}

// FromDiagnosis converts a diagnosis model to its response form.
func FromDiagnosis(d *models.Diagnosis) DiagnosisResponse {
	if d == nil {
		return DiagnosisResponse{}
	}
	return DiagnosisResponse{
		ID:         d.ID,
		ImageURL:   d.ImageURL,
		CropName:   d.CropName,
		Disease:    d.Disease,
		Confidence: d.Confidence,
		Severity:   d.Severity,
		Treatment:  d.Treatment,
		CreatedAt:  d.CreatedAt,
	}
}
