package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/baghban/guardian/internal/app/models"
	"github.com/baghban/guardian/internal/pkg/apperrors"
	"github.com/baghban/guardian/internal/pkg/logger"
)

const consultationColumns = "id, farmer_id, consultant_id, status, topic, notes, created_at, scheduled_at, completed_at"

// ConsultationRepository handles consultation database operations.
//
// Every lifecycle transition is a single conditional UPDATE whose WHERE
// clause carries the precondition (status, ownership). The storage layer
// guarantees that concurrent conditional updates against the same row match
// at most once, so no read-modify-write or application lock is needed: a
// zero-row result means the caller lost the race or never had access.
type ConsultationRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewConsultationRepository creates a new ConsultationRepository
func NewConsultationRepository(db *pgxpool.Pool) *ConsultationRepository {
	return &ConsultationRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanConsultation(row pgx.Row) (*models.Consultation, error) {
	c := &models.Consultation{}
	err := row.Scan(&c.ID, &c.FarmerID, &c.ConsultantID, &c.Status, &c.Topic,
		&c.Notes, &c.CreatedAt, &c.ScheduledAt, &c.CompletedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Insert creates a new pending consultation for the farmer.
func (r *ConsultationRepository) Insert(ctx context.Context, farmerID int64, topic string) (*models.Consultation, error) {
	sql, args, err := r.sb.Insert("consultations").
		Columns("farmer_id", "status", "topic", "created_at").
		Values(farmerID, models.ConsultationPending, topic, time.Now()).
		Suffix("RETURNING " + consultationColumns).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building insert consultation SQL")
		return nil, fmt.Errorf("failed to build insert consultation query: %w", err)
	}

	consultation, err := scanConsultation(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		logger.Error().Err(err).Int64("farmerID", farmerID).Msg("Error executing insert consultation query")
		return nil, fmt.Errorf("error creating consultation: %w", err)
	}

	return consultation, nil
}

// GetByID retrieves a consultation by ID without any access filter. Callers
// that act on behalf of a user must apply the party check themselves.
func (r *ConsultationRepository) GetByID(ctx context.Context, id int64) (*models.Consultation, error) {
	sql, args, err := r.sb.Select(consultationColumns).
		From("consultations").
		Where(squirrel.Eq{"id": id}).
		Limit(1).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get consultation SQL")
		return nil, fmt.Errorf("failed to build get consultation query: %w", err)
	}

	consultation, err := scanConsultation(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrConsultationNotFound
		}
		logger.Error().Err(err).Int64("consultationID", id).Msg("Error scanning consultation row")
		return nil, fmt.Errorf("error getting consultation by ID: %w", err)
	}

	return consultation, nil
}

// AcceptPending claims a pending consultation for an expert. The WHERE clause
// is the whole concurrency story: only a row that is still pending and
// unassigned can match, so of any number of racing accepts exactly one
// succeeds and the rest see ErrConsultationUnavailable.
func (r *ConsultationRepository) AcceptPending(ctx context.Context, id, expertUserID int64) (*models.Consultation, error) {
	now := time.Now()
	sql, args, err := r.sb.Update("consultations").
		Set("consultant_id", expertUserID).
		Set("status", models.ConsultationScheduled).
		Set("scheduled_at", now).
		Where(squirrel.Eq{
			"id":            id,
			"status":        models.ConsultationPending,
			"consultant_id": nil,
		}).
		Suffix("RETURNING " + consultationColumns).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building accept consultation SQL")
		return nil, fmt.Errorf("failed to build accept consultation query: %w", err)
	}

	consultation, err := scanConsultation(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Already claimed, already past pending, or never existed.
			return nil, apperrors.ErrConsultationUnavailable
		}
		logger.Error().Err(err).Int64("consultationID", id).Int64("expertUserID", expertUserID).Msg("Error executing accept consultation query")
		return nil, fmt.Errorf("error accepting consultation: %w", err)
	}

	return consultation, nil
}

// UpdateStatusByExpert transitions a consultation guarded only by consultant
// ownership. completedAt is set when non-nil. Zero rows means the caller is
// not the assigned consultant (or the id does not exist).
func (r *ConsultationRepository) UpdateStatusByExpert(ctx context.Context, id, expertUserID int64, status models.ConsultationStatus, completedAt *time.Time) (*models.Consultation, error) {
	update := r.sb.Update("consultations").
		Set("status", status).
		Where(squirrel.Eq{
			"id":            id,
			"consultant_id": expertUserID,
		})

	if completedAt != nil {
		update = update.Set("completed_at", *completedAt)
	}

	sql, args, err := update.Suffix("RETURNING " + consultationColumns).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building update status SQL")
		return nil, fmt.Errorf("failed to build update status query: %w", err)
	}

	consultation, err := scanConsultation(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotAssignedExpert
		}
		logger.Error().Err(err).Int64("consultationID", id).Int64("expertUserID", expertUserID).Msg("Error executing update status query")
		return nil, fmt.Errorf("error updating consultation status: %w", err)
	}

	return consultation, nil
}

// PromoteScheduled lazily moves a scheduled consultation to in_progress.
// Zero rows is not an error here: it means another party joined first or the
// record already moved on, and the caller should just re-read.
func (r *ConsultationRepository) PromoteScheduled(ctx context.Context, id int64) (*models.Consultation, error) {
	sql, args, err := r.sb.Update("consultations").
		Set("status", models.ConsultationInProgress).
		Where(squirrel.Eq{
			"id":     id,
			"status": models.ConsultationScheduled,
		}).
		Suffix("RETURNING " + consultationColumns).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building promote scheduled SQL")
		return nil, fmt.Errorf("failed to build promote scheduled query: %w", err)
	}

	consultation, err := scanConsultation(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.GetByID(ctx, id)
		}
		logger.Error().Err(err).Int64("consultationID", id).Msg("Error executing promote scheduled query")
		return nil, fmt.Errorf("error promoting consultation: %w", err)
	}

	return consultation, nil
}

// CancelPending cancels a consultation that is still pending, guarded on the
// farmer owning it.
func (r *ConsultationRepository) CancelPending(ctx context.Context, id, farmerID int64) (*models.Consultation, error) {
	sql, args, err := r.sb.Update("consultations").
		Set("status", models.ConsultationCancelled).
		Where(squirrel.Eq{
			"id":        id,
			"farmer_id": farmerID,
			"status":    models.ConsultationPending,
		}).
		Suffix("RETURNING " + consultationColumns).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building cancel consultation SQL")
		return nil, fmt.Errorf("failed to build cancel consultation query: %w", err)
	}

	consultation, err := scanConsultation(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrConsultationUnavailable
		}
		logger.Error().Err(err).Int64("consultationID", id).Int64("farmerID", farmerID).Msg("Error executing cancel consultation query")
		return nil, fmt.Errorf("error cancelling consultation: %w", err)
	}

	return consultation, nil
}

// SaveNotes writes consultant notes, guarded on the caller being the
// assigned consultant. The farmer can never match this filter.
func (r *ConsultationRepository) SaveNotes(ctx context.Context, id, expertUserID int64, notes string) (*models.Consultation, error) {
	sql, args, err := r.sb.Update("consultations").
		Set("notes", notes).
		Where(squirrel.Eq{
			"id":            id,
			"consultant_id": expertUserID,
		}).
		Suffix("RETURNING " + consultationColumns).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building save notes SQL")
		return nil, fmt.Errorf("failed to build save notes query: %w", err)
	}

	consultation, err := scanConsultation(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotAssignedExpert
		}
		logger.Error().Err(err).Int64("consultationID", id).Int64("expertUserID", expertUserID).Msg("Error executing save notes query")
		return nil, fmt.Errorf("error saving notes: %w", err)
	}

	return consultation, nil
}

// ListByParty retrieves every consultation the user is a party to, newest
// first. The OR filter doubles as the access-control relation.
func (r *ConsultationRepository) ListByParty(ctx context.Context, userID int64) ([]*models.Consultation, error) {
	sql, args, err := r.sb.Select(consultationColumns).
		From("consultations").
		Where(squirrel.Or{
			squirrel.Eq{"farmer_id": userID},
			squirrel.Eq{"consultant_id": userID},
		}).
		OrderBy("created_at DESC").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building list consultations SQL")
		return nil, fmt.Errorf("failed to build list consultations query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list consultations query")
		return nil, fmt.Errorf("error querying consultations: %w", err)
	}
	defer rows.Close()

	consultations := []*models.Consultation{}
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning consultation row during list")
			return nil, fmt.Errorf("error scanning consultation row: %w", err)
		}
		consultations = append(consultations, c)
	}

	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating consultation rows")
		return nil, fmt.Errorf("error iterating consultation rows: %w", err)
	}

	return consultations, nil
}

// ListPending retrieves unclaimed consultations for the expert work queue,
// oldest first.
func (r *ConsultationRepository) ListPending(ctx context.Context) ([]*models.Consultation, error) {
	sql, args, err := r.sb.Select(consultationColumns).
		From("consultations").
		Where(squirrel.Eq{
			"status":        models.ConsultationPending,
			"consultant_id": nil,
		}).
		OrderBy("created_at ASC").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building list pending SQL")
		return nil, fmt.Errorf("failed to build list pending query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list pending query")
		return nil, fmt.Errorf("error querying pending consultations: %w", err)
	}
	defer rows.Close()

	consultations := []*models.Consultation{}
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning consultation row during list pending")
			return nil, fmt.Errorf("error scanning consultation row: %w", err)
		}
		consultations = append(consultations, c)
	}

	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating pending consultation rows")
		return nil, fmt.Errorf("error iterating pending consultation rows: %w", err)
	}

	return consultations, nil
}
