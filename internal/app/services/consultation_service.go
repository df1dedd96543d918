package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/baghban/guardian/internal/app/models"
	"github.com/baghban/guardian/internal/pkg/apperrors"
	"github.com/baghban/guardian/internal/pkg/logger"
	"github.com/baghban/guardian/internal/pkg/validation"
)

// ConsultationStore is the storage surface the consultation service needs.
// *repositories.ConsultationRepository satisfies it. Every mutating method is
// a guarded conditional update: the precondition lives in the query's WHERE
// clause and a zero-row match surfaces as a sentinel error.
type ConsultationStore interface {
	Insert(ctx context.Context, farmerID int64, topic string) (*models.Consultation, error)
	GetByID(ctx context.Context, id int64) (*models.Consultation, error)
	AcceptPending(ctx context.Context, id, expertUserID int64) (*models.Consultation, error)
	UpdateStatusByExpert(ctx context.Context, id, expertUserID int64, status models.ConsultationStatus, completedAt *time.Time) (*models.Consultation, error)
	PromoteScheduled(ctx context.Context, id int64) (*models.Consultation, error)
	CancelPending(ctx context.Context, id, farmerID int64) (*models.Consultation, error)
	SaveNotes(ctx context.Context, id, expertUserID int64, notes string) (*models.Consultation, error)
	ListByParty(ctx context.Context, userID int64) ([]*models.Consultation, error)
	ListPending(ctx context.Context) ([]*models.Consultation, error)
}

// ProgressStore awards engagement points. *repositories.ProgressRepository
// satisfies it.
type ProgressStore interface {
	AddPoints(ctx context.Context, userID int64, points, completedDelta, diagnosesDelta int) (*models.FarmerProgress, error)
}

// ConsultationService defines the consultation lifecycle operations. Caller
// identity always arrives as an explicit argument taken from verified JWT
// claims, never from request payloads.
type ConsultationService interface {
	Create(ctx context.Context, farmerID int64, topic string) (*models.Consultation, error)
	Accept(ctx context.Context, consultationID, expertUserID int64) (*models.Consultation, error)
	StartCall(ctx context.Context, consultationID, expertUserID int64) (*models.Consultation, error)
	EndCall(ctx context.Context, consultationID, expertUserID int64) (*models.Consultation, error)
	Cancel(ctx context.Context, consultationID, farmerID int64) (*models.Consultation, error)
	JoinCall(ctx context.Context, consultationID, userID int64) (*models.Consultation, error)
	LeaveCall(ctx context.Context, consultationID, userID int64) (*models.Consultation, error)
	SaveNotes(ctx context.Context, consultationID, expertUserID int64, notes string) (*models.Consultation, error)
	GetCallStatus(ctx context.Context, consultationID, userID int64) (*models.Consultation, error)
	ListMine(ctx context.Context, userID int64) ([]*models.Consultation, error)
	ListPending(ctx context.Context) ([]*models.Consultation, error)
	IsCallParty(ctx context.Context, consultationID, userID int64) (bool, error)
}

type consultationService struct {
	store    ConsultationStore
	progress ProgressStore
}

// NewConsultationService creates a new consultation service
func NewConsultationService(store ConsultationStore, progress ProgressStore) ConsultationService {
	return &consultationService{
		store:    store,
		progress: progress,
	}
}

// Create opens a new pending consultation for the farmer.
func (s *consultationService) Create(ctx context.Context, farmerID int64, topic string) (*models.Consultation, error) {
	topic = strings.TrimSpace(topic)
	if !validation.ValidTopic(topic) {
		return nil, apperrors.NewBadRequestError("topic must be between 3 and 200 characters")
	}

	consultation, err := s.store.Insert(ctx, farmerID, topic)
	if err != nil {
		return nil, err
	}

	s.award(ctx, farmerID, models.PointsConsultationCreated, 0)

	logger.Info().
		Int64("consultationID", consultation.ID).
		Int64("farmerID", farmerID).
		Msg("Consultation created")

	return consultation, nil
}

// Accept claims a pending consultation for the expert. The claim is a single
// conditional update, so however many experts race, exactly one wins and the
// rest get ErrConsultationUnavailable.
func (s *consultationService) Accept(ctx context.Context, consultationID, expertUserID int64) (*models.Consultation, error) {
	consultation, err := s.store.AcceptPending(ctx, consultationID, expertUserID)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Int64("consultationID", consultationID).
		Int64("expertUserID", expertUserID).
		Msg("Consultation accepted")

	return consultation, nil
}

// StartCall moves the consultation to in_progress. Only the assigned
// consultant may start; no status precondition so a re-start after a dropped
// connection is harmless.
func (s *consultationService) StartCall(ctx context.Context, consultationID, expertUserID int64) (*models.Consultation, error) {
	return s.store.UpdateStatusByExpert(ctx, consultationID, expertUserID, models.ConsultationInProgress, nil)
}

// EndCall completes the consultation and stamps completion time. The farmer
// earns completion points.
func (s *consultationService) EndCall(ctx context.Context, consultationID, expertUserID int64) (*models.Consultation, error) {
	now := time.Now()
	consultation, err := s.store.UpdateStatusByExpert(ctx, consultationID, expertUserID, models.ConsultationCompleted, &now)
	if err != nil {
		return nil, err
	}

	s.award(ctx, consultation.FarmerID, models.PointsConsultationCompleted, 1)

	logger.Info().
		Int64("consultationID", consultationID).
		Int64("expertUserID", expertUserID).
		Msg("Consultation completed")

	return consultation, nil
}

// Cancel withdraws a consultation that nobody has accepted yet. Only the
// owning farmer can cancel, and only while it is still pending.
func (s *consultationService) Cancel(ctx context.Context, consultationID, farmerID int64) (*models.Consultation, error) {
	return s.store.CancelPending(ctx, consultationID, farmerID)
}

// JoinCall lets either party enter the call. Joining a scheduled consultation
// lazily promotes it to in_progress; losing that race to the other party is
// fine, the re-read inside the store reflects whoever got there first.
func (s *consultationService) JoinCall(ctx context.Context, consultationID, userID int64) (*models.Consultation, error) {
	consultation, err := s.store.GetByID(ctx, consultationID)
	if err != nil {
		return nil, err
	}

	if !consultation.IsParty(userID) {
		return nil, apperrors.ErrNotConsultationParty
	}

	if consultation.Status == models.ConsultationScheduled {
		return s.store.PromoteScheduled(ctx, consultationID)
	}

	return consultation, nil
}

// LeaveCall acknowledges a participant leaving. Leaving does not end the
// consultation; only the consultant's end_call does that.
func (s *consultationService) LeaveCall(ctx context.Context, consultationID, userID int64) (*models.Consultation, error) {
	consultation, err := s.store.GetByID(ctx, consultationID)
	if err != nil {
		return nil, err
	}

	if !consultation.IsParty(userID) {
		return nil, apperrors.ErrNotConsultationParty
	}

	return consultation, nil
}

// SaveNotes writes consultant notes. The ownership filter in the store means
// a farmer can never save notes, whatever the request claims.
func (s *consultationService) SaveNotes(ctx context.Context, consultationID, expertUserID int64, notes string) (*models.Consultation, error) {
	if !validation.ValidNotes(notes) {
		return nil, apperrors.NewBadRequestError("notes exceed the maximum length")
	}

	return s.store.SaveNotes(ctx, consultationID, expertUserID, notes)
}

// GetCallStatus returns the consultation for either party.
func (s *consultationService) GetCallStatus(ctx context.Context, consultationID, userID int64) (*models.Consultation, error) {
	consultation, err := s.store.GetByID(ctx, consultationID)
	if err != nil {
		return nil, err
	}

	if !consultation.IsParty(userID) {
		return nil, apperrors.ErrNotConsultationParty
	}

	return consultation, nil
}

// ListMine returns every consultation the caller is a party to.
func (s *consultationService) ListMine(ctx context.Context, userID int64) ([]*models.Consultation, error) {
	return s.store.ListByParty(ctx, userID)
}

// ListPending returns the unclaimed work queue for experts.
func (s *consultationService) ListPending(ctx context.Context) ([]*models.Consultation, error) {
	return s.store.ListPending(ctx)
}

// IsCallParty reports whether the user may enter the consultation's call
// room. Unknown consultations are simply not joinable.
func (s *consultationService) IsCallParty(ctx context.Context, consultationID, userID int64) (bool, error) {
	consultation, err := s.store.GetByID(ctx, consultationID)
	if err != nil {
		if errors.Is(err, apperrors.ErrConsultationNotFound) {
			return false, nil
		}
		return false, err
	}

	return consultation.IsParty(userID), nil
}

// award adds engagement points without failing the primary operation.
func (s *consultationService) award(ctx context.Context, farmerID int64, points, completedDelta int) {
	if s.progress == nil {
		return
	}
	if _, err := s.progress.AddPoints(ctx, farmerID, points, completedDelta, 0); err != nil {
		logger.Warn().Err(err).Int64("farmerID", farmerID).Msg("Failed to award engagement points")
	}
}
