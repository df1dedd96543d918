package dto

import (
	"time"

	"github.com/baghban/guardian/internal/app/models"
)

// Action names accepted by the handle-consultation endpoint.
const (
	ActionCreateConsultation  = "create_consultation"
	ActionAcceptConsultation  = "accept_consultation"
	ActionStartCall           = "start_call"
	ActionEndCall             = "end_call"
	ActionCancelConsultation  = "cancel_consultation"
	ActionGetAvailableExperts = "get_available_experts"
)

// Action names accepted by the call-management endpoint.
const (
	ActionJoinCall      = "join_call"
	ActionLeaveCall     = "leave_call"
	ActionSaveNotes     = "save_notes"
	ActionGetCallStatus = "get_call_status"
)

// ConsultationActionRequest is the dispatch envelope for both action
// endpoints. Action decides which fields are read; the caller identity always
// comes from the JWT, never the body.
type ConsultationActionRequest struct {
	Action         string `json:"action" binding:"required"`
	ConsultationID int64  `json:"consultationId,omitempty"`
	Topic          string `json:"topic,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

// ConsultationResponse represents a consultation record in API responses
type ConsultationResponse struct {
	ID           int64      `json:"id"`
	FarmerID     int64      `json:"farmerId"`
	ConsultantID *int64     `json:"consultantId,omitempty"`
	Status       string     `json:"status"`
	Topic        string     `json:"topic"`
	Notes        *string    `json:"notes,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	ScheduledAt  *time.Time `json:"scheduledAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

// FromConsultation converts a consultation model to its response form.
func FromConsultation(c *models.Consultation) ConsultationResponse {
	if c == nil {
		return ConsultationResponse{}
	}
	return ConsultationResponse{
		ID:           c.ID,
		FarmerID:     c.FarmerID,
		ConsultantID: c.ConsultantID,
		Status:       string(c.Status),
		Topic:        c.Topic,
		Notes:        c.Notes,
		CreatedAt:    c.CreatedAt,
		ScheduledAt:  c.ScheduledAt,
		CompletedAt:  c.CompletedAt,
	}
}

// CallStatusResponse represents the result of a get_call_status action
type CallStatusResponse struct {
	ConsultationID int64  `json:"consultationId"`
	Status         string `json:"status"`
	Topic          string `json:"topic"`
}

// CallAckResponse acknowledges join/leave actions
type CallAckResponse struct {
	ConsultationID int64  `json:"consultationId"`
	Status         string `json:"status"`
	Acknowledged   bool   `json:"acknowledged"`
}

// ConsultationListResponse represents the caller's consultations
type ConsultationListResponse struct {
	Consultations []ConsultationResponse `json:"consultations"`
}
