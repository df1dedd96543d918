package models

import (
	"time"
)

// Diagnosis defines a stored plant disease diagnosis based on the
// 'diagnoses' table. The analysis itself is performed by an external
// image-analysis service; this row keeps the uploaded image reference
// and the returned verdict.
type Diagnosis struct {
	ID         int64     `json:"id" db:"id"`
	FarmerID   int64     `json:"farmerId" db:"farmer_id"`
	ImageURL   string    `json:"imageUrl" db:"image_url"`
	CropName   string    `json:"cropName" db:"crop_name" example:"Tomato"`
	Disease    string    `json:"disease" db:"disease" example:"Early blight"`
	Confidence float64   `json:"confidence" db:"confidence" example:"0.93"`
	Severity   string    `json:"severity" db:"severity" example:"moderate"`
	Treatment  string    `json:"treatment" db:"treatment"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}
