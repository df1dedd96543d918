package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/baghban/guardian/internal/app/models"
	"github.com/baghban/guardian/internal/pkg/logger"
)

const diagnosisColumns = "id, farmer_id, image_url, crop_name, disease, confidence, severity, treatment, created_at"

// DiagnosisRepository handles diagnosis database operations
type DiagnosisRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewDiagnosisRepository creates a new DiagnosisRepository
func NewDiagnosisRepository(db *pgxpool.Pool) *DiagnosisRepository {
	return &DiagnosisRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanDiagnosis(row pgx.Row) (*models.Diagnosis, error) {
	d := &models.Diagnosis{}
	err := row.Scan(&d.ID, &d.FarmerID, &d.ImageURL, &d.CropName, &d.Disease,
		&d.Confidence, &d.Severity, &d.Treatment, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Insert stores a completed diagnosis for the farmer.
func (r *DiagnosisRepository) Insert(ctx context.Context, diagnosis *models.Diagnosis) (*models.Diagnosis, error) {
	sql, args, err := r.sb.Insert("diagnoses").
		Columns("farmer_id", "image_url", "crop_name", "disease", "confidence", "severity", "treatment", "created_at").
		Values(diagnosis.FarmerID, diagnosis.ImageURL, diagnosis.CropName, diagnosis.Disease,
			diagnosis.Confidence, diagnosis.Severity, diagnosis.Treatment, time.Now()).
		Suffix("RETURNING " + diagnosisColumns).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building insert diagnosis SQL")
		return nil, fmt.Errorf("failed to build insert diagnosis query: %w", err)
	}

	created, err := scanDiagnosis(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		logger.Error().Err(err).Int64("farmerID", diagnosis.FarmerID).Msg("Error executing insert diagnosis query")
		return nil, fmt.Errorf("error creating diagnosis: %w", err)
	}

	return created, nil
}

// ListByFarmer retrieves a page of the farmer's diagnosis history, newest
// first.
func (r *DiagnosisRepository) ListByFarmer(ctx context.Context, farmerID int64, offset uint64, limit int) ([]*models.Diagnosis, error) {
	sql, args, err := r.sb.Select(diagnosisColumns).
		From("diagnoses").
		Where(squirrel.Eq{"farmer_id": farmerID}).
		OrderBy("created_at DESC").
		Offset(offset).
		Limit(uint64(limit)).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building list diagnoses SQL")
		return nil, fmt.Errorf("failed to build list diagnoses query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list diagnoses query")
		return nil, fmt.Errorf("error querying diagnoses: %w", err)
	}
	defer rows.Close()

	diagnoses := []*models.Diagnosis{}
	for rows.Next() {
		d, err := scanDiagnosis(rows)
		if err != nil {
			logger.Error().Err(err).Msg("Error scanning diagnosis row during list")
			return nil, fmt.Errorf("error scanning diagnosis row: %w", err)
		}
		diagnoses = append(diagnoses, d)
	}

	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Msg("Error iterating diagnosis rows")
		return nil, fmt.Errorf("error iterating diagnosis rows: %w", err)
	}

	return diagnoses, nil
}

// CountByFarmer returns the total number of diagnoses for the farmer.
func (r *DiagnosisRepository) CountByFarmer(ctx context.Context, farmerID int64) (int64, error) {
	sql, args, err := r.sb.Select("COUNT(*)").
		From("diagnoses").
		Where(squirrel.Eq{"farmer_id": farmerID}).
		ToSql()

	if err != nil {
		logger.Error().Err(err).Msg("Error building count diagnoses SQL")
		return 0, fmt.Errorf("failed to build count diagnoses query: %w", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error executing count diagnoses query")
		return 0, fmt.Errorf("error counting diagnoses: %w", err)
	}

	return total, nil
}
