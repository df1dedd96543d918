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
	"github.com/baghban/guardian/internal/pkg/logger"
)

const progressColumns = "id, user_id, points, consultations_completed, diagnoses_run, updated_at"

// ProgressRepository handles farmer progress database operations
type ProgressRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewProgressRepository creates a new ProgressRepository
func NewProgressRepository(db *pgxpool.Pool) *ProgressRepository {
	return &ProgressRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanProgress(row pgx.Row) (*models.FarmerProgress, error) {
	p := &models.FarmerProgress{}
	err := row.Scan(&p.ID, &p.UserID, &p.Points, &p.ConsultationsCompleted,
		&p.DiagnosesRun, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetByUserID retrieves the farmer's progress record, returning a zeroed
// record when none exists yet so new farmers start at level 1.
func (r *ProgressRepository) GetByUserID(ctx context.Context, userID int64) (*models.FarmerProgress, error) {
	sql, args, err := r.sb.Select(progressColumns).
		From("farmer_progress").
		Where(squirrel.Eq{"user_id": userID}).
		Limit(1).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get progress SQL")
		return nil, fmt.Errorf("failed to build get progress query: %w", err)
	}

	progress, err := scanProgress(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &models.FarmerProgress{UserID: userID}, nil
		}
		logger.Error().Err(err).Int64("userID", userID).Msg("Error scanning progress row")
		return nil, fmt.Errorf("error getting farmer progress: %w", err)
	}

	return progress, nil
}

// AddPoints awards points to the farmer, upserting the progress row. The
// completed and diagnosed counters are incremented by the given deltas.
func (r *ProgressRepository) AddPoints(ctx context.Context, userID int64, points, completedDelta, diagnosesDelta int) (*models.FarmerProgress, error) {
	now := time.Now()
	sql, args, err := r.sb.Insert("farmer_progress").
		Columns("user_id", "points", "consultations_completed", "diagnoses_run", "updated_at").
		Values(userID, points, completedDelta, diagnosesDelta, now).
		Suffix(`ON CONFLICT (user_id) DO UPDATE SET
			points = farmer_progress.points + EXCLUDED.points,
			consultations_completed = farmer_progress.consultations_completed + EXCLUDED.consultations_completed,
			diagnoses_run = farmer_progress.diagnoses_run + EXCLUDED.diagnoses_run,
			updated_at = EXCLUDED.updated_at
			RETURNING ` + progressColumns).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building add points SQL")
		return nil, fmt.Errorf("failed to build add points query: %w", err)
	}

	progress, err := scanProgress(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error executing add points query")
		return nil, fmt.Errorf("error awarding points: %w", err)
	}

	return progress, nil
}
