package models

// RoleType defines the user role type
type RoleType string

const (
	RoleFarmer RoleType = "FARMER"
	RoleExpert RoleType = "EXPERT"
)

// ConsultationStatus enumerates the lifecycle states of a consultation.
type ConsultationStatus string

const (
	ConsultationPending    ConsultationStatus = "pending"
	ConsultationScheduled  ConsultationStatus = "scheduled"
	ConsultationInProgress ConsultationStatus = "in_progress"
	ConsultationCompleted  ConsultationStatus = "completed"
	ConsultationCancelled  ConsultationStatus = "cancelled"
)

// IsTerminal reports whether no further transitions exist from this status.
func (s ConsultationStatus) IsTerminal() bool {
	return s == ConsultationCompleted || s == ConsultationCancelled
}
