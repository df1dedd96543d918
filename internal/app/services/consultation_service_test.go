package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/baghban/guardian/internal/app/models"
	"github.com/baghban/guardian/internal/pkg/apperrors"
)

// memConsultationStore is an in-memory ConsultationStore whose mutating
// methods apply the same guarded conditional semantics the SQL layer does:
// the precondition is checked and the row updated under one lock, and a
// failed precondition surfaces as the matching sentinel error.
type memConsultationStore struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*models.Consultation
}

func newMemConsultationStore() *memConsultationStore {
	return &memConsultationStore{
		nextID: 1,
		rows:   make(map[int64]*models.Consultation),
	}
}

func (s *memConsultationStore) snapshot(c *models.Consultation) *models.Consultation {
	copied := *c
	return &copied
}

func (s *memConsultationStore) Insert(ctx context.Context, farmerID int64, topic string) (*models.Consultation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := &models.Consultation{
		ID:        s.nextID,
		FarmerID:  farmerID,
		Status:    models.ConsultationPending,
		Topic:     topic,
		CreatedAt: time.Now(),
	}
	s.rows[c.ID] = c
	s.nextID++
	return s.snapshot(c), nil
}

func (s *memConsultationStore) GetByID(ctx context.Context, id int64) (*models.Consultation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.rows[id]
	if !ok {
		return nil, apperrors.ErrConsultationNotFound
	}
	return s.snapshot(c), nil
}

func (s *memConsultationStore) AcceptPending(ctx context.Context, id, expertUserID int64) (*models.Consultation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.rows[id]
	if !ok || c.Status != models.ConsultationPending || c.ConsultantID != nil {
		return nil, apperrors.ErrConsultationUnavailable
	}
	now := time.Now()
	c.ConsultantID = &expertUserID
	c.Status = models.ConsultationScheduled
	c.ScheduledAt = &now
	return s.snapshot(c), nil
}

func (s *memConsultationStore) UpdateStatusByExpert(ctx context.Context, id, expertUserID int64, status models.ConsultationStatus, completedAt *time.Time) (*models.Consultation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.rows[id]
	if !ok || c.ConsultantID == nil || *c.ConsultantID != expertUserID {
		return nil, apperrors.ErrNotAssignedExpert
	}
	c.Status = status
	if completedAt != nil {
		c.CompletedAt = completedAt
	}
	return s.snapshot(c), nil
}

func (s *memConsultationStore) PromoteScheduled(ctx context.Context, id int64) (*models.Consultation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.rows[id]
	if !ok {
		return nil, apperrors.ErrConsultationNotFound
	}
	if c.Status == models.ConsultationScheduled {
		c.Status = models.ConsultationInProgress
	}
	return s.snapshot(c), nil
}

func (s *memConsultationStore) CancelPending(ctx context.Context, id, farmerID int64) (*models.Consultation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.rows[id]
	if !ok || c.FarmerID != farmerID || c.Status != models.ConsultationPending {
		return nil, apperrors.ErrConsultationUnavailable
	}
	c.Status = models.ConsultationCancelled
	return s.snapshot(c), nil
}

func (s *memConsultationStore) SaveNotes(ctx context.Context, id, expertUserID int64, notes string) (*models.Consultation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.rows[id]
	if !ok || c.ConsultantID == nil || *c.ConsultantID != expertUserID {
		return nil, apperrors.ErrNotAssignedExpert
	}
	c.Notes = &notes
	return s.snapshot(c), nil
}

func (s *memConsultationStore) ListByParty(ctx context.Context, userID int64) ([]*models.Consultation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*models.Consultation{}
	for _, c := range s.rows {
		if c.IsParty(userID) {
			out = append(out, s.snapshot(c))
		}
	}
	return out, nil
}

func (s *memConsultationStore) ListPending(ctx context.Context) ([]*models.Consultation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []*models.Consultation{}
	for _, c := range s.rows {
		if c.Status == models.ConsultationPending && c.ConsultantID == nil {
			out = append(out, s.snapshot(c))
		}
	}
	return out, nil
}

// memProgressStore records point awards.
type memProgressStore struct {
	mu     sync.Mutex
	points map[int64]int
	awards int
}

func newMemProgressStore() *memProgressStore {
	return &memProgressStore{points: make(map[int64]int)}
}

func (s *memProgressStore) AddPoints(ctx context.Context, userID int64, points, completedDelta, diagnosesDelta int) (*models.FarmerProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.points[userID] += points
	s.awards++
	return &models.FarmerProgress{UserID: userID, Points: s.points[userID]}, nil
}

const (
	testFarmerID = int64(101)
	testExpertID = int64(202)
)

func newTestService() (ConsultationService, *memConsultationStore, *memProgressStore) {
	store := newMemConsultationStore()
	progress := newMemProgressStore()
	return NewConsultationService(store, progress), store, progress
}

func TestCreateValidatesTopic(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, testFarmerID, "ab"); err == nil {
		t.Error("expected error for too-short topic")
	}
	if _, err := svc.Create(ctx, testFarmerID, "   "); err == nil {
		t.Error("expected error for whitespace topic")
	}

	c, err := svc.Create(ctx, testFarmerID, "Aphids on wheat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Status != models.ConsultationPending {
		t.Errorf("new consultation status = %s, want pending", c.Status)
	}
	if c.ConsultantID != nil {
		t.Error("new consultation must not have a consultant")
	}
}

func TestConcurrentAcceptsExactlyOneWins(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, testFarmerID, "Late blight on potatoes")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	const racers = 32
	var wg sync.WaitGroup
	results := make(chan error, racers)
	winners := make(chan int64, racers)

	for i := 0; i < racers; i++ {
		expertID := int64(1000 + i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Accept(ctx, created.ID, expertID); err != nil {
				results <- err
			} else {
				winners <- expertID
			}
		}()
	}
	wg.Wait()
	close(results)
	close(winners)

	if len(winners) != 1 {
		t.Fatalf("winners = %d, want exactly 1", len(winners))
	}
	winnerID := <-winners

	for err := range results {
		if !errors.Is(err, apperrors.ErrConsultationUnavailable) {
			t.Errorf("loser error = %v, want ErrConsultationUnavailable", err)
		}
	}

	after, err := svc.GetCallStatus(ctx, created.ID, testFarmerID)
	if err != nil {
		t.Fatalf("status read failed: %v", err)
	}
	if after.Status != models.ConsultationScheduled {
		t.Errorf("status = %s, want scheduled", after.Status)
	}
	if after.ConsultantID == nil || *after.ConsultantID != winnerID {
		t.Errorf("consultant = %v, want winner %d", after.ConsultantID, winnerID)
	}
}

func TestAcceptAlreadyClaimedFails(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	created, _ := svc.Create(ctx, testFarmerID, "Wilting tomato seedlings")
	if _, err := svc.Accept(ctx, created.ID, testExpertID); err != nil {
		t.Fatalf("first accept failed: %v", err)
	}

	if _, err := svc.Accept(ctx, created.ID, testExpertID+1); !errors.Is(err, apperrors.ErrConsultationUnavailable) {
		t.Errorf("second accept error = %v, want ErrConsultationUnavailable", err)
	}
}

func TestAcceptUnknownConsultationFails(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.Accept(context.Background(), 9999, testExpertID); !errors.Is(err, apperrors.ErrConsultationUnavailable) {
		t.Errorf("error = %v, want ErrConsultationUnavailable", err)
	}
}

func TestFullLifecycle(t *testing.T) {
	svc, _, progress := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, testFarmerID, "Rust spots on wheat leaves")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	accepted, err := svc.Accept(ctx, created.ID, testExpertID)
	if err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if accepted.Status != models.ConsultationScheduled {
		t.Fatalf("after accept status = %s, want scheduled", accepted.Status)
	}
	if accepted.ScheduledAt == nil {
		t.Error("accept must stamp scheduledAt")
	}

	started, err := svc.StartCall(ctx, created.ID, testExpertID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if started.Status != models.ConsultationInProgress {
		t.Fatalf("after start status = %s, want in_progress", started.Status)
	}

	ended, err := svc.EndCall(ctx, created.ID, testExpertID)
	if err != nil {
		t.Fatalf("end failed: %v", err)
	}
	if ended.Status != models.ConsultationCompleted {
		t.Fatalf("after end status = %s, want completed", ended.Status)
	}
	if ended.CompletedAt == nil {
		t.Error("end must stamp completedAt")
	}
	if !ended.Status.IsTerminal() {
		t.Error("completed must be terminal")
	}

	wantPoints := models.PointsConsultationCreated + models.PointsConsultationCompleted
	if got := progress.points[testFarmerID]; got != wantPoints {
		t.Errorf("farmer points = %d, want %d", got, wantPoints)
	}
}

func TestStartCallRejectsNonConsultant(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	created, _ := svc.Create(ctx, testFarmerID, "Mealybugs on cotton")
	if _, err := svc.Accept(ctx, created.ID, testExpertID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	// The farmer is a party, but not the consultant
	if _, err := svc.StartCall(ctx, created.ID, testFarmerID); !errors.Is(err, apperrors.ErrNotAssignedExpert) {
		t.Errorf("farmer start error = %v, want ErrNotAssignedExpert", err)
	}

	// Another expert entirely
	if _, err := svc.EndCall(ctx, created.ID, testExpertID+5); !errors.Is(err, apperrors.ErrNotAssignedExpert) {
		t.Errorf("stranger end error = %v, want ErrNotAssignedExpert", err)
	}
}

func TestSaveNotesOnlyConsultant(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	created, _ := svc.Create(ctx, testFarmerID, "Leaf curl on chili plants")
	if _, err := svc.Accept(ctx, created.ID, testExpertID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	if _, err := svc.SaveNotes(ctx, created.ID, testFarmerID, "my own notes"); !errors.Is(err, apperrors.ErrNotAssignedExpert) {
		t.Errorf("farmer save error = %v, want ErrNotAssignedExpert", err)
	}

	saved, err := svc.SaveNotes(ctx, created.ID, testExpertID, "apply copper fungicide weekly")
	if err != nil {
		t.Fatalf("consultant save failed: %v", err)
	}
	if saved.Notes == nil || *saved.Notes != "apply copper fungicide weekly" {
		t.Errorf("notes = %v, want saved text", saved.Notes)
	}
}

func TestJoinCallPromotesScheduled(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	created, _ := svc.Create(ctx, testFarmerID, "Yellowing rice paddies")
	if _, err := svc.Accept(ctx, created.ID, testExpertID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	joined, err := svc.JoinCall(ctx, created.ID, testFarmerID)
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if joined.Status != models.ConsultationInProgress {
		t.Errorf("after join status = %s, want in_progress", joined.Status)
	}

	// Second join by the other party is a no-op on status
	again, err := svc.JoinCall(ctx, created.ID, testExpertID)
	if err != nil {
		t.Fatalf("second join failed: %v", err)
	}
	if again.Status != models.ConsultationInProgress {
		t.Errorf("after second join status = %s, want in_progress", again.Status)
	}
}

func TestJoinCallRequiresParty(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	created, _ := svc.Create(ctx, testFarmerID, "Powdery mildew in vineyard")

	if _, err := svc.JoinCall(ctx, created.ID, int64(777)); !errors.Is(err, apperrors.ErrNotConsultationParty) {
		t.Errorf("stranger join error = %v, want ErrNotConsultationParty", err)
	}
	if _, err := svc.GetCallStatus(ctx, created.ID, int64(777)); !errors.Is(err, apperrors.ErrNotConsultationParty) {
		t.Errorf("stranger status error = %v, want ErrNotConsultationParty", err)
	}
	if _, err := svc.LeaveCall(ctx, created.ID, int64(777)); !errors.Is(err, apperrors.ErrNotConsultationParty) {
		t.Errorf("stranger leave error = %v, want ErrNotConsultationParty", err)
	}
}

func TestCancelOnlyPendingByOwner(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	created, _ := svc.Create(ctx, testFarmerID, "Stem borer in maize")

	// Someone else's cancel matches zero rows
	if _, err := svc.Cancel(ctx, created.ID, testFarmerID+1); !errors.Is(err, apperrors.ErrConsultationUnavailable) {
		t.Errorf("non-owner cancel error = %v, want ErrConsultationUnavailable", err)
	}

	cancelled, err := svc.Cancel(ctx, created.ID, testFarmerID)
	if err != nil {
		t.Fatalf("owner cancel failed: %v", err)
	}
	if cancelled.Status != models.ConsultationCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}

	// Once accepted, cancel is off the table
	second, _ := svc.Create(ctx, testFarmerID, "Thrips on onion crop")
	if _, err := svc.Accept(ctx, second.ID, testExpertID); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if _, err := svc.Cancel(ctx, second.ID, testFarmerID); !errors.Is(err, apperrors.ErrConsultationUnavailable) {
		t.Errorf("post-accept cancel error = %v, want ErrConsultationUnavailable", err)
	}
}

func TestIsCallParty(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	created, _ := svc.Create(ctx, testFarmerID, "Fruit flies in mango orchard")
	svc.Accept(ctx, created.ID, testExpertID)

	cases := []struct {
		userID int64
		want   bool
	}{
		{testFarmerID, true},
		{testExpertID, true},
		{555, false},
	}
	for _, tc := range cases {
		got, err := svc.IsCallParty(ctx, created.ID, tc.userID)
		if err != nil {
			t.Fatalf("IsCallParty(%d) failed: %v", tc.userID, err)
		}
		if got != tc.want {
			t.Errorf("IsCallParty(%d) = %v, want %v", tc.userID, got, tc.want)
		}
	}

	// Unknown consultations are simply not joinable
	got, err := svc.IsCallParty(ctx, 9999, testFarmerID)
	if err != nil {
		t.Fatalf("IsCallParty on unknown id failed: %v", err)
	}
	if got {
		t.Error("IsCallParty on unknown id = true, want false")
	}
}

func TestListMineCoversBothSides(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	first, _ := svc.Create(ctx, testFarmerID, "Aphids on wheat crop")
	svc.Create(ctx, testFarmerID+1, "Unrelated consultation")
	svc.Accept(ctx, first.ID, testExpertID)

	mine, err := svc.ListMine(ctx, testExpertID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(mine) != 1 {
		t.Fatalf("expert consultations = %d, want 1", len(mine))
	}
	if mine[0].ID != first.ID {
		t.Errorf("listed id = %d, want %d", mine[0].ID, first.ID)
	}
}
