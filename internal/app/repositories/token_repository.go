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

const tokenColumns = "id, user_id, token, expires_at, created_at"

// TokenRepository handles refresh token database operations
type TokenRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewTokenRepository creates a new TokenRepository
func NewTokenRepository(db *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanToken(row pgx.Row) (*models.RefreshToken, error) {
	t := &models.RefreshToken{}
	err := row.Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Store persists a refresh token for the user.
func (r *TokenRepository) Store(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	sql, args, err := r.sb.Insert("refresh_tokens").
		Columns("user_id", "token", "expires_at", "created_at").
		Values(userID, token, expiresAt, time.Now()).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building store token SQL")
		return fmt.Errorf("failed to build store token query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error executing store token query")
		return fmt.Errorf("error storing refresh token: %w", err)
	}

	return nil
}

// GetByToken retrieves a refresh token record by its value.
func (r *TokenRepository) GetByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	sql, args, err := r.sb.Select(tokenColumns).
		From("refresh_tokens").
		Where(squirrel.Eq{"token": token}).
		Limit(1).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building get token SQL")
		return nil, fmt.Errorf("failed to build get token query: %w", err)
	}

	record, err := scanToken(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTokenNotFound
		}
		logger.Error().Err(err).Msg("Error scanning token row")
		return nil, fmt.Errorf("error getting refresh token: %w", err)
	}

	return record, nil
}

// Delete removes a refresh token, revoking it.
func (r *TokenRepository) Delete(ctx context.Context, token string) error {
	sql, args, err := r.sb.Delete("refresh_tokens").
		Where(squirrel.Eq{"token": token}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building delete token SQL")
		return fmt.Errorf("failed to build delete token query: %w", err)
	}

	result, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing delete token query")
		return fmt.Errorf("error deleting refresh token: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrTokenNotFound
	}

	return nil
}

// DeleteByUserID removes every refresh token belonging to the user.
func (r *TokenRepository) DeleteByUserID(ctx context.Context, userID int64) error {
	sql, args, err := r.sb.Delete("refresh_tokens").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building delete user tokens SQL")
		return fmt.Errorf("failed to build delete user tokens query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error executing delete user tokens query")
		return fmt.Errorf("error deleting user refresh tokens: %w", err)
	}

	return nil
}

// CleanupExpiredTokens removes tokens past their expiry and returns how many
// were deleted. Runs on a schedule.
func (r *TokenRepository) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	sql, args, err := r.sb.Delete("refresh_tokens").
		Where(squirrel.Lt{"expires_at": time.Now()}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building cleanup tokens SQL")
		return 0, fmt.Errorf("failed to build cleanup tokens query: %w", err)
	}

	result, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing cleanup tokens query")
		return 0, fmt.Errorf("error cleaning up expired tokens: %w", err)
	}

	return result.RowsAffected(), nil
}
