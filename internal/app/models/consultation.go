package models

import (
	"time"
)

// Consultation defines the consultation model based on the 'consultations' table.
//
// ConsultantID stays NULL while the consultation is pending; the accept
// transition sets it exactly once via a conditional update and it never
// changes afterwards. Only the farmer and the assigned consultant may read
// or mutate a record.
type Consultation struct {
	ID           int64              `json:"id" db:"id" example:"1"`
	FarmerID     int64              `json:"farmerId" db:"farmer_id" example:"7"`
	ConsultantID *int64             `json:"consultantId,omitempty" db:"consultant_id"`
	Status       ConsultationStatus `json:"status" db:"status" example:"pending"`
	Topic        string             `json:"topic" db:"topic" example:"Aphids on wheat"`
	Notes        *string            `json:"notes,omitempty" db:"notes"`
	CreatedAt    time.Time          `json:"createdAt" db:"created_at"`
	ScheduledAt  *time.Time         `json:"scheduledAt,omitempty" db:"scheduled_at"`
	CompletedAt  *time.Time         `json:"completedAt,omitempty" db:"completed_at"`
}

// IsParty reports whether the given user is the farmer or the assigned
// consultant on this consultation.
func (c *Consultation) IsParty(userID int64) bool {
	if c.FarmerID == userID {
		return true
	}
	return c.ConsultantID != nil && *c.ConsultantID == userID
}
