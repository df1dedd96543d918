package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/baghban/guardian/internal/app/models"
	"github.com/baghban/guardian/internal/pkg/apperrors"
	"github.com/baghban/guardian/internal/pkg/plantvision"
)

type memDiagnosisStore struct {
	nextID    int64
	rows      []*models.Diagnosis
	insertErr error
}

func (s *memDiagnosisStore) Insert(ctx context.Context, diagnosis *models.Diagnosis) (*models.Diagnosis, error) {
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	copied := *diagnosis
	s.nextID++
	copied.ID = s.nextID
	copied.CreatedAt = time.Now()
	s.rows = append(s.rows, &copied)
	return &copied, nil
}

func (s *memDiagnosisStore) ListByFarmer(ctx context.Context, farmerID int64, offset uint64, limit int) ([]*models.Diagnosis, error) {
	matched := []*models.Diagnosis{}
	for _, d := range s.rows {
		if d.FarmerID == farmerID {
			matched = append(matched, d)
		}
	}
	if offset >= uint64(len(matched)) {
		return []*models.Diagnosis{}, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *memDiagnosisStore) CountByFarmer(ctx context.Context, farmerID int64) (int64, error) {
	var total int64
	for _, d := range s.rows {
		if d.FarmerID == farmerID {
			total++
		}
	}
	return total, nil
}

// fakeStorage records saved and deleted paths.
type fakeStorage struct {
	saved   []string
	deleted []string
	saveErr error
}

func (s *fakeStorage) SaveImage(fileHeader *multipart.FileHeader, subPath string) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	path := "/uploads/" + subPath + "/" + fileHeader.Filename
	s.saved = append(s.saved, path)
	return path, nil
}

func (s *fakeStorage) DeleteFile(fileURL string) error {
	s.deleted = append(s.deleted, fileURL)
	return nil
}

type fakeAnalyzer struct {
	result *plantvision.Result
	err    error
}

func (a *fakeAnalyzer) Analyze(ctx context.Context, imageName string, image io.Reader) (*plantvision.Result, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.result, nil
}

// imageUpload builds a multipart file header the way gin hands one to the
// service.
func imageUpload(t *testing.T, filename string) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write([]byte("fake image bytes")); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if err := req.ParseMultipartForm(1 << 20); err != nil {
		t.Fatalf("failed to parse multipart form: %v", err)
	}
	return req.MultipartForm.File["image"][0]
}

func healthyResult() *plantvision.Result {
	return &plantvision.Result{
		CropName:   "Tomato",
		Disease:    "Early blight",
		Confidence: 0.91,
		Severity:   "moderate",
		Treatment:  "Remove affected leaves and apply fungicide",
	}
}

func TestDiagnoseStoresVerdictAndAwardsPoints(t *testing.T) {
	store := &memDiagnosisStore{}
	storage := &fakeStorage{}
	progress := newMemProgressStore()
	svc := NewDiagnosisService(store, storage, &fakeAnalyzer{result: healthyResult()}, progress)

	diagnosis, err := svc.Diagnose(context.Background(), testFarmerID, imageUpload(t, "leaf.jpg"))
	if err != nil {
		t.Fatalf("diagnose failed: %v", err)
	}

	if diagnosis.Disease != "Early blight" {
		t.Errorf("disease = %s, want Early blight", diagnosis.Disease)
	}
	if diagnosis.FarmerID != testFarmerID {
		t.Errorf("farmerID = %d, want %d", diagnosis.FarmerID, testFarmerID)
	}
	if len(storage.saved) != 1 {
		t.Errorf("saved files = %d, want 1", len(storage.saved))
	}
	if len(storage.deleted) != 0 {
		t.Errorf("deleted files = %v, want none", storage.deleted)
	}
	if got := progress.points[testFarmerID]; got != models.PointsDiagnosisRun {
		t.Errorf("points = %d, want %d", got, models.PointsDiagnosisRun)
	}
}

func TestDiagnoseCleansUpOnAnalyzerFailure(t *testing.T) {
	store := &memDiagnosisStore{}
	storage := &fakeStorage{}
	svc := NewDiagnosisService(store, storage, &fakeAnalyzer{err: apperrors.ErrAnalyzerUnavailable}, nil)

	_, err := svc.Diagnose(context.Background(), testFarmerID, imageUpload(t, "leaf.jpg"))
	if !errors.Is(err, apperrors.ErrAnalyzerUnavailable) {
		t.Fatalf("error = %v, want ErrAnalyzerUnavailable", err)
	}

	if len(storage.deleted) != 1 {
		t.Fatalf("deleted files = %d, want 1", len(storage.deleted))
	}
	if storage.deleted[0] != storage.saved[0] {
		t.Errorf("deleted %s, want the saved image %s", storage.deleted[0], storage.saved[0])
	}
	if len(store.rows) != 0 {
		t.Error("no diagnosis row should be stored on failure")
	}
}

func TestDiagnoseCleansUpOnInsertFailure(t *testing.T) {
	store := &memDiagnosisStore{insertErr: errors.New("db down")}
	storage := &fakeStorage{}
	svc := NewDiagnosisService(store, storage, &fakeAnalyzer{result: healthyResult()}, nil)

	if _, err := svc.Diagnose(context.Background(), testFarmerID, imageUpload(t, "leaf.jpg")); err == nil {
		t.Fatal("expected error")
	}
	if len(storage.deleted) != 1 {
		t.Errorf("deleted files = %d, want 1", len(storage.deleted))
	}
}

func TestHistoryPagination(t *testing.T) {
	store := &memDiagnosisStore{}
	for i := 0; i < 25; i++ {
		store.Insert(context.Background(), &models.Diagnosis{FarmerID: testFarmerID, Disease: "Rust"})
	}
	store.Insert(context.Background(), &models.Diagnosis{FarmerID: testFarmerID + 1, Disease: "Other"})

	svc := NewDiagnosisService(store, &fakeStorage{}, &fakeAnalyzer{result: healthyResult()}, nil)

	page1, total, err := svc.History(context.Background(), testFarmerID, 1, 10)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if total != 25 {
		t.Errorf("total = %d, want 25", total)
	}
	if len(page1) != 10 {
		t.Errorf("page 1 size = %d, want 10", len(page1))
	}

	page3, _, err := svc.History(context.Background(), testFarmerID, 3, 10)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(page3) != 5 {
		t.Errorf("page 3 size = %d, want 5", len(page3))
	}
}
