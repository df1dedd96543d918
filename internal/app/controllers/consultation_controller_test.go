package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/baghban/guardian/internal/app/models"
	"github.com/baghban/guardian/internal/app/models/dto"
	"github.com/baghban/guardian/internal/pkg/apperrors"
)

// stubConsultationService returns canned results per operation.
type stubConsultationService struct {
	consultation *models.Consultation
	err          error
}

func (s *stubConsultationService) Create(ctx context.Context, farmerID int64, topic string) (*models.Consultation, error) {
	return s.consultation, s.err
}

func (s *stubConsultationService) Accept(ctx context.Context, consultationID, expertUserID int64) (*models.Consultation, error) {
	return s.consultation, s.err
}

func (s *stubConsultationService) StartCall(ctx context.Context, consultationID, expertUserID int64) (*models.Consultation, error) {
	return s.consultation, s.err
}

func (s *stubConsultationService) EndCall(ctx context.Context, consultationID, expertUserID int64) (*models.Consultation, error) {
	return s.consultation, s.err
}

func (s *stubConsultationService) Cancel(ctx context.Context, consultationID, farmerID int64) (*models.Consultation, error) {
	return s.consultation, s.err
}

func (s *stubConsultationService) JoinCall(ctx context.Context, consultationID, userID int64) (*models.Consultation, error) {
	return s.consultation, s.err
}

func (s *stubConsultationService) LeaveCall(ctx context.Context, consultationID, userID int64) (*models.Consultation, error) {
	return s.consultation, s.err
}

func (s *stubConsultationService) SaveNotes(ctx context.Context, consultationID, expertUserID int64, notes string) (*models.Consultation, error) {
	return s.consultation, s.err
}

func (s *stubConsultationService) GetCallStatus(ctx context.Context, consultationID, userID int64) (*models.Consultation, error) {
	return s.consultation, s.err
}

func (s *stubConsultationService) ListMine(ctx context.Context, userID int64) ([]*models.Consultation, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []*models.Consultation{s.consultation}, nil
}

func (s *stubConsultationService) ListPending(ctx context.Context) ([]*models.Consultation, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []*models.Consultation{s.consultation}, nil
}

func (s *stubConsultationService) IsCallParty(ctx context.Context, consultationID, userID int64) (bool, error) {
	return true, nil
}

type stubExpertService struct {
	experts []*models.Expert
	err     error
}

func (s *stubExpertService) CreateProfile(ctx context.Context, userID int64, req *dto.CreateExpertProfileRequest) (*models.Expert, error) {
	return nil, s.err
}

func (s *stubExpertService) GetProfile(ctx context.Context, userID int64) (*models.Expert, error) {
	return nil, s.err
}

func (s *stubExpertService) ListAvailable(ctx context.Context) ([]*models.Expert, error) {
	return s.experts, s.err
}

func (s *stubExpertService) SetAvailability(ctx context.Context, userID int64, available bool) (*models.Expert, error) {
	return nil, s.err
}

func sampleConsultation() *models.Consultation {
	return &models.Consultation{
		ID:        7,
		FarmerID:  101,
		Status:    models.ConsultationPending,
		Topic:     "Aphids on wheat",
		CreatedAt: time.Now(),
	}
}

// identityAs stands in for the JWT middleware in tests.
func identityAs(userID int64, role models.RoleType) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Set("roleType", string(role))
		c.Next()
	}
}

func newTestRouter(consultationService *stubConsultationService, expertService *stubExpertService, userID int64, role models.RoleType) *gin.Engine {
	gin.SetMode(gin.TestMode)
	controller := NewConsultationController(consultationService, expertService)

	router := gin.New()
	router.Use(identityAs(userID, role))
	router.POST("/api/v1/handle-consultation", controller.HandleConsultation)
	router.POST("/api/v1/call-management", controller.CallManagement)
	router.GET("/api/v1/consultations", controller.ListMine)
	return router
}

func postAction(t *testing.T, router *gin.Engine, path string, body map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func decodeEnvelope(t *testing.T, recorder *httptest.ResponseRecorder) dto.APIResponse {
	t.Helper()
	var envelope dto.APIResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return envelope
}

func TestHandleConsultationCreate(t *testing.T) {
	router := newTestRouter(&stubConsultationService{consultation: sampleConsultation()}, &stubExpertService{}, 101, models.RoleFarmer)

	recorder := postAction(t, router, "/api/v1/handle-consultation", map[string]interface{}{
		"action": "create_consultation",
		"topic":  "Aphids on wheat",
	})

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", recorder.Code, recorder.Body.String())
	}
	envelope := decodeEnvelope(t, recorder)
	if !envelope.Success {
		t.Error("expected success envelope")
	}
	if envelope.Data == nil {
		t.Error("expected data in envelope")
	}
}

func TestHandleConsultationCreateRequiresFarmer(t *testing.T) {
	router := newTestRouter(&stubConsultationService{consultation: sampleConsultation()}, &stubExpertService{}, 202, models.RoleExpert)

	recorder := postAction(t, router, "/api/v1/handle-consultation", map[string]interface{}{
		"action": "create_consultation",
		"topic":  "Aphids on wheat",
	})

	if recorder.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", recorder.Code)
	}
}

func TestHandleConsultationUnknownAction(t *testing.T) {
	router := newTestRouter(&stubConsultationService{consultation: sampleConsultation()}, &stubExpertService{}, 101, models.RoleFarmer)

	recorder := postAction(t, router, "/api/v1/handle-consultation", map[string]interface{}{
		"action": "make_coffee",
	})

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", recorder.Code)
	}
	envelope := decodeEnvelope(t, recorder)
	if envelope.Success {
		t.Error("expected failure envelope")
	}
	if envelope.Error == nil || envelope.Error.Code != dto.ErrorCodeValidationFailed {
		t.Errorf("error = %+v, want VAL_001", envelope.Error)
	}
}

func TestHandleConsultationMissingAction(t *testing.T) {
	router := newTestRouter(&stubConsultationService{consultation: sampleConsultation()}, &stubExpertService{}, 101, models.RoleFarmer)

	recorder := postAction(t, router, "/api/v1/handle-consultation", map[string]interface{}{
		"topic": "Aphids on wheat",
	})

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", recorder.Code)
	}
}

func TestHandleConsultationAcceptLostRace(t *testing.T) {
	router := newTestRouter(&stubConsultationService{err: apperrors.ErrConsultationUnavailable}, &stubExpertService{}, 202, models.RoleExpert)

	recorder := postAction(t, router, "/api/v1/handle-consultation", map[string]interface{}{
		"action":         "accept_consultation",
		"consultationId": 7,
	})

	if recorder.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", recorder.Code)
	}
	envelope := decodeEnvelope(t, recorder)
	if envelope.Error == nil || envelope.Error.Code != dto.ErrorCodeConsultationUnavailable {
		t.Errorf("error = %+v, want CONS_001", envelope.Error)
	}
}

func TestHandleConsultationAcceptRequiresExpert(t *testing.T) {
	router := newTestRouter(&stubConsultationService{consultation: sampleConsultation()}, &stubExpertService{}, 101, models.RoleFarmer)

	recorder := postAction(t, router, "/api/v1/handle-consultation", map[string]interface{}{
		"action":         "accept_consultation",
		"consultationId": 7,
	})

	if recorder.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", recorder.Code)
	}
}

func TestHandleConsultationAcceptRequiresID(t *testing.T) {
	router := newTestRouter(&stubConsultationService{consultation: sampleConsultation()}, &stubExpertService{}, 202, models.RoleExpert)

	recorder := postAction(t, router, "/api/v1/handle-consultation", map[string]interface{}{
		"action": "accept_consultation",
	})

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", recorder.Code)
	}
}

func TestCallManagementSaveNotesNotConsultant(t *testing.T) {
	router := newTestRouter(&stubConsultationService{err: apperrors.ErrNotAssignedExpert}, &stubExpertService{}, 101, models.RoleFarmer)

	recorder := postAction(t, router, "/api/v1/call-management", map[string]interface{}{
		"action":         "save_notes",
		"consultationId": 7,
		"notes":          "my notes",
	})

	if recorder.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", recorder.Code)
	}
	envelope := decodeEnvelope(t, recorder)
	if envelope.Error == nil || envelope.Error.Code != dto.ErrorCodeNotAssignedExpert {
		t.Errorf("error = %+v, want CONS_003", envelope.Error)
	}
}

func TestCallManagementJoinCall(t *testing.T) {
	consultation := sampleConsultation()
	consultation.Status = models.ConsultationInProgress
	router := newTestRouter(&stubConsultationService{consultation: consultation}, &stubExpertService{}, 101, models.RoleFarmer)

	recorder := postAction(t, router, "/api/v1/call-management", map[string]interface{}{
		"action":         "join_call",
		"consultationId": 7,
	})

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", recorder.Code, recorder.Body.String())
	}

	envelope := decodeEnvelope(t, recorder)
	data, err := json.Marshal(envelope.Data)
	if err != nil {
		t.Fatalf("failed to re-marshal data: %v", err)
	}
	var ack dto.CallAckResponse
	if err := json.Unmarshal(data, &ack); err != nil {
		t.Fatalf("failed to decode ack: %v", err)
	}
	if !ack.Acknowledged {
		t.Error("expected acknowledged join")
	}
	if ack.Status != string(models.ConsultationInProgress) {
		t.Errorf("status = %s, want in_progress", ack.Status)
	}
}

func TestCallManagementNonPartyDenied(t *testing.T) {
	router := newTestRouter(&stubConsultationService{err: apperrors.ErrNotConsultationParty}, &stubExpertService{}, 777, models.RoleFarmer)

	recorder := postAction(t, router, "/api/v1/call-management", map[string]interface{}{
		"action":         "get_call_status",
		"consultationId": 7,
	})

	if recorder.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", recorder.Code)
	}
}

func TestCallManagementRequiresConsultationID(t *testing.T) {
	router := newTestRouter(&stubConsultationService{consultation: sampleConsultation()}, &stubExpertService{}, 101, models.RoleFarmer)

	recorder := postAction(t, router, "/api/v1/call-management", map[string]interface{}{
		"action": "join_call",
	})

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", recorder.Code)
	}
}

func TestGetAvailableExperts(t *testing.T) {
	experts := []*models.Expert{
		{ID: 1, UserID: 202, Name: "Dr. Ahmadi", Specialty: "Plant Pathology", Available: true, Verified: true, Rating: 4.8},
	}
	router := newTestRouter(&stubConsultationService{consultation: sampleConsultation()}, &stubExpertService{experts: experts}, 101, models.RoleFarmer)

	recorder := postAction(t, router, "/api/v1/handle-consultation", map[string]interface{}{
		"action": "get_available_experts",
	})

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", recorder.Code, recorder.Body.String())
	}

	envelope := decodeEnvelope(t, recorder)
	data, err := json.Marshal(envelope.Data)
	if err != nil {
		t.Fatalf("failed to re-marshal data: %v", err)
	}
	var list dto.ExpertListResponse
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatalf("failed to decode expert list: %v", err)
	}
	if len(list.Experts) != 1 {
		t.Fatalf("experts = %d, want 1", len(list.Experts))
	}
	if list.Experts[0].Name != "Dr. Ahmadi" {
		t.Errorf("name = %s, want Dr. Ahmadi", list.Experts[0].Name)
	}
}

func TestListMine(t *testing.T) {
	router := newTestRouter(&stubConsultationService{consultation: sampleConsultation()}, &stubExpertService{}, 101, models.RoleFarmer)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/consultations", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", recorder.Code, recorder.Body.String())
	}

	envelope := decodeEnvelope(t, recorder)
	data, err := json.Marshal(envelope.Data)
	if err != nil {
		t.Fatalf("failed to re-marshal data: %v", err)
	}
	var list dto.ConsultationListResponse
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatalf("failed to decode consultation list: %v", err)
	}
	if len(list.Consultations) != 1 {
		t.Fatalf("consultations = %d, want 1", len(list.Consultations))
	}
}
