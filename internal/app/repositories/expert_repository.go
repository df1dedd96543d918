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
	"github.com/baghban/guardian/internal/pkg/dberrors"
	"github.com/baghban/guardian/internal/pkg/logger"
)

const expertColumns = "id, user_id, name, specialty, region, bio, available, verified, rating, created_at"

// ExpertRepository handles expert profile database operations
type ExpertRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewExpertRepository creates a new ExpertRepository
func NewExpertRepository(db *pgxpool.Pool) *ExpertRepository {
	return &ExpertRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanExpert(row pgx.Row) (*models.Expert, error) {
	e := &models.Expert{}
	err := row.Scan(&e.ID, &e.UserID, &e.Name, &e.Specialty, &e.Region,
		&e.Bio, &e.Available, &e.Verified, &e.Rating, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Create inserts a new expert profile. One profile per user account.
func (r *ExpertRepository) Create(ctx context.Context, expert *models.Expert) (*models.Expert, error) {
	sql, args, err := r.sb.Insert("experts").
		Columns("user_id", "name", "specialty", "region", "bio", "available", "verified", "rating", "created_at").
		Values(expert.UserID, expert.Name, expert.Specialty, expert.Region, expert.Bio,
			expert.Available, expert.Verified, expert.Rating, time.Now()).
		Suffix("RETURNING " + expertColumns).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building insert expert SQL")
		return nil, fmt.Errorf("failed to build insert expert query: %w", err)
	}

	created, err := scanExpert(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if dberrors.IsDuplicateKeyError(err) {
			return nil, apperrors.ErrExpertAlreadyExists
		}
		logger.Error().Err(err).Int64("userID", expert.UserID).Msg("Error executing insert expert query")
		return nil, fmt.Errorf("error creating expert profile: %w", err)
	}

	return created, nil
}

// GetByUserID retrieves the expert profile for a user account.
func (r *ExpertRepository) GetByUserID(ctx context.Context, userID int64) (*models.Expert, error) {
	sql, args, err := r.sb.Select(expertColumns).
		From("experts").
		Where(squirrel.Eq{"user_id": userID}).
		Limit(1).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get expert SQL")
		return nil, fmt.Errorf("failed to build get expert query: %w", err)
	}

	expert, err := scanExpert(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrExpertNotFound
		}
		logger.Error().Err(err).Int64("userID", userID).Msg("Error scanning expert row")
		return nil, fmt.Errorf("error getting expert by user ID: %w", err)
	}

	return expert, nil
}

// ListAvailableVerified retrieves experts that are both available and
// verified, best rated first. This is the directory shown to farmers.
func (r *ExpertRepository) ListAvailableVerified(ctx context.Context) ([]*models.Expert, error) {
	sql, args, err := r.sb.Select(expertColumns).
		From("experts").
		Where(squirrel.Eq{
			"available": true,
			"verified":  true,
		}).
		OrderBy("rating DESC", "name ASC").
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building list experts SQL")
		return nil, fmt.Errorf("failed to build list experts query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list experts query")
		return nil, fmt.Errorf("error querying experts: %w", err)
	}
	defer rows.Close()

	experts := []*models.Expert{}
	for rows.Next() {
		e, err := scanExpert(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning expert row during list")
			return nil, fmt.Errorf("error scanning expert row: %w", err)
		}
		experts = append(experts, e)
	}

	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating expert rows")
		return nil, fmt.Errorf("error iterating expert rows: %w", err)
	}

	return experts, nil
}

// UpdateAvailability toggles the expert's availability flag, guarded on the
// profile belonging to the caller.
func (r *ExpertRepository) UpdateAvailability(ctx context.Context, userID int64, available bool) (*models.Expert, error) {
	sql, args, err := r.sb.Update("experts").
		Set("available", available).
		Where(squirrel.Eq{"user_id": userID}).
		Suffix("RETURNING " + expertColumns).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building update availability SQL")
		return nil, fmt.Errorf("failed to build update availability query: %w", err)
	}

	expert, err := scanExpert(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrExpertNotFound
		}
		logger.Error().Err(err).Int64("userID", userID).Msg("Error executing update availability query")
		return nil, fmt.Errorf("error updating expert availability: %w", err)
	}

	return expert, nil
}
