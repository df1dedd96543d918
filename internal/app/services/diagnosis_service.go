package services

import (
	"context"
	"fmt"
	"mime/multipart"

	"github.com/baghban/guardian/internal/app/models"
	"github.com/baghban/guardian/internal/pkg/filestorage"
	"github.com/baghban/guardian/internal/pkg/helpers"
	"github.com/baghban/guardian/internal/pkg/logger"
	"github.com/baghban/guardian/internal/pkg/plantvision"
)

// DiagnosisStore is the diagnosis storage surface.
// *repositories.DiagnosisRepository satisfies it.
type DiagnosisStore interface {
	Insert(ctx context.Context, diagnosis *models.Diagnosis) (*models.Diagnosis, error)
	ListByFarmer(ctx context.Context, farmerID int64, offset uint64, limit int) ([]*models.Diagnosis, error)
	CountByFarmer(ctx context.Context, farmerID int64) (int64, error)
}

// DiagnosisService runs plant disease diagnosis on uploaded images.
type DiagnosisService interface {
	Diagnose(ctx context.Context, farmerID int64, image *multipart.FileHeader) (*models.Diagnosis, error)
	History(ctx context.Context, farmerID int64, page, size int) ([]*models.Diagnosis, int64, error)
}

type diagnosisService struct {
	store    DiagnosisStore
	storage  filestorage.FileStorage
	analyzer plantvision.Analyzer
	progress ProgressStore
}

// NewDiagnosisService creates a new diagnosis service
func NewDiagnosisService(store DiagnosisStore, storage filestorage.FileStorage, analyzer plantvision.Analyzer, progress ProgressStore) DiagnosisService {
	return &diagnosisService{
		store:    store,
		storage:  storage,
		analyzer: analyzer,
		progress: progress,
	}
}

// Diagnose stores the uploaded image, submits it for analysis and persists
// the verdict. The stored image is removed again if analysis fails, so the
// upload directory only holds images with a matching diagnosis row.
func (s *diagnosisService) Diagnose(ctx context.Context, farmerID int64, image *multipart.FileHeader) (*models.Diagnosis, error) {
	imageURL, err := s.storage.SaveImage(image, "diagnoses")
	if err != nil {
		return nil, err
	}

	file, err := image.Open()
	if err != nil {
		_ = s.storage.DeleteFile(imageURL)
		return nil, fmt.Errorf("failed to open uploaded image: %w", err)
	}
	defer file.Close()

	result, err := s.analyzer.Analyze(ctx, image.Filename, file)
	if err != nil {
		_ = s.storage.DeleteFile(imageURL)
		return nil, err
	}

	diagnosis := &models.Diagnosis{
		FarmerID:   farmerID,
		ImageURL:   imageURL,
		CropName:   result.CropName,
		Disease:    result.Disease,
		Confidence: result.Confidence,
		Severity:   result.Severity,
		Treatment:  result.Treatment,
	}

	created, err := s.store.Insert(ctx, diagnosis)
	if err != nil {
		_ = s.storage.DeleteFile(imageURL)
		return nil, err
	}

	if s.progress != nil {
		if _, err := s.progress.AddPoints(ctx, farmerID, models.PointsDiagnosisRun, 0, 1); err != nil {
			logger.Warn().Err(err).Int64("farmerID", farmerID).Msg("Failed to award diagnosis points")
		}
	}

	logger.Info().
		Int64("diagnosisID", created.ID).
		Int64("farmerID", farmerID).
		Str("disease", created.Disease).
		Msg("Diagnosis completed")

	return created, nil
}

// History returns a page of the farmer's past diagnoses, newest first, plus
// the total count for pagination.
func (s *diagnosisService) History(ctx context.Context, farmerID int64, page, size int) ([]*models.Diagnosis, int64, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, size)

	diagnoses, err := s.store.ListByFarmer(ctx, farmerID, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.store.CountByFarmer(ctx, farmerID)
	if err != nil {
		return nil, 0, err
	}

	return diagnoses, total, nil
}
