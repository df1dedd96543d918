package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func jsonHandler(t *testing.T, status int, body interface{}) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if err := json.NewEncoder(w).Encode(body); err != nil {
			t.Errorf("failed to encode response: %v", err)
		}
	}
}

func successEnvelope(data interface{}) map[string]interface{} {
	return map[string]interface{}{
		"success": true,
		"data":    data,
	}
}

func errorEnvelope(code, message string) map[string]interface{} {
	return map[string]interface{}{
		"success": false,
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	}
}

func TestNoTokenShortCircuits(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	c := New(server.URL)
	if _, err := c.CreateConsultation(context.Background(), "Aphids on wheat"); !errors.Is(err, ErrAuthRequired) {
		t.Errorf("error = %v, want ErrAuthRequired", err)
	}
	if hits.Load() != 0 {
		t.Errorf("server hits = %d, want 0 without a token", hits.Load())
	}
}

func TestCreateConsultationRoundTrip(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody actionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		jsonHandler(t, http.StatusOK, successEnvelope(Consultation{
			ID:        7,
			FarmerID:  101,
			Status:    "pending",
			Topic:     "Aphids on wheat",
			CreatedAt: time.Now(),
		}))(w, r)
	}))
	defer server.Close()

	c := New(server.URL, WithToken("test-token"))
	consultation, err := c.CreateConsultation(context.Background(), "Aphids on wheat")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if gotAuth != "Bearer test-token" {
		t.Errorf("authorization = %s, want Bearer test-token", gotAuth)
	}
	if gotPath != "/api/v1/handle-consultation" {
		t.Errorf("path = %s, want /api/v1/handle-consultation", gotPath)
	}
	if gotBody.Action != "create_consultation" {
		t.Errorf("action = %s, want create_consultation", gotBody.Action)
	}
	if gotBody.Topic != "Aphids on wheat" {
		t.Errorf("topic = %s", gotBody.Topic)
	}
	if consultation.ID != 7 || consultation.Status != "pending" {
		t.Errorf("consultation = %+v", consultation)
	}
}

func TestAcceptLostRaceIsUnavailable(t *testing.T) {
	server := httptest.NewServer(jsonHandler(t, http.StatusConflict,
		errorEnvelope("CONS_001", "Consultation is no longer available")))
	defer server.Close()

	c := New(server.URL, WithToken("test-token"))
	_, err := c.AcceptConsultation(context.Background(), 7)
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsUnavailable(err) {
		t.Errorf("IsUnavailable = false for %v", err)
	}
	if IsAccessDenied(err) {
		t.Error("IsAccessDenied = true, want false")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %v is not an APIError", err)
	}
	if apiErr.Code != "CONS_001" {
		t.Errorf("code = %s, want CONS_001", apiErr.Code)
	}
}

func TestSaveNotesAccessDenied(t *testing.T) {
	server := httptest.NewServer(jsonHandler(t, http.StatusForbidden,
		errorEnvelope("CONS_003", "Caller is not the assigned consultant")))
	defer server.Close()

	c := New(server.URL, WithToken("test-token"))
	_, err := c.SaveNotes(context.Background(), 7, "notes")
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsAccessDenied(err) {
		t.Errorf("IsAccessDenied = false for %v", err)
	}
	if IsUnavailable(err) {
		t.Error("IsUnavailable = true, want false")
	}
}

func TestUnauthorizedMapsToAuthRequired(t *testing.T) {
	server := httptest.NewServer(jsonHandler(t, http.StatusUnauthorized,
		errorEnvelope("AUTH_002", "Invalid token")))
	defer server.Close()

	c := New(server.URL, WithToken("expired-token"))
	if _, err := c.GetCallStatus(context.Background(), 7); !errors.Is(err, ErrAuthRequired) {
		t.Errorf("error = %v, want ErrAuthRequired", err)
	}
}

func TestBusyRejectsConcurrentAction(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var startedOnce sync.Once
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startedOnce.Do(func() { close(started) })
		<-release
		jsonHandler(t, http.StatusOK, successEnvelope(Consultation{ID: 7}))(w, r)
	}))
	defer server.Close()

	c := New(server.URL, WithToken("test-token"))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := c.StartCall(context.Background(), 7); err != nil {
			t.Errorf("first action failed: %v", err)
		}
	}()

	<-started
	if !c.Busy() {
		t.Error("Busy() = false while an action is in flight")
	}
	if _, err := c.EndCall(context.Background(), 7); !errors.Is(err, ErrBusy) {
		t.Errorf("second action error = %v, want ErrBusy", err)
	}

	close(release)
	wg.Wait()

	if c.Busy() {
		t.Error("Busy() = true after the action finished")
	}

	// The flag is released, a new action goes through
	if _, err := c.StartCall(context.Background(), 7); err != nil {
		t.Errorf("follow-up action failed: %v", err)
	}
}

func TestCallManagementPath(t *testing.T) {
	var gotPath string
	var gotBody actionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		jsonHandler(t, http.StatusOK, successEnvelope(CallAck{
			ConsultationID: 7,
			Status:         "in_progress",
			Acknowledged:   true,
		}))(w, r)
	}))
	defer server.Close()

	c := New(server.URL, WithToken("test-token"))
	ack, err := c.JoinCall(context.Background(), 7)
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}

	if gotPath != "/api/v1/call-management" {
		t.Errorf("path = %s, want /api/v1/call-management", gotPath)
	}
	if gotBody.Action != "join_call" || gotBody.ConsultationID != 7 {
		t.Errorf("body = %+v", gotBody)
	}
	if !ack.Acknowledged || ack.Status != "in_progress" {
		t.Errorf("ack = %+v", ack)
	}
}

func TestGetAvailableExperts(t *testing.T) {
	server := httptest.NewServer(jsonHandler(t, http.StatusOK, successEnvelope(map[string]interface{}{
		"experts": []Expert{
			{ID: 1, UserID: 202, Name: "Dr. Ahmadi", Specialty: "Plant Pathology", Available: true, Verified: true},
		},
	})))
	defer server.Close()

	c := New(server.URL, WithToken("test-token"))
	experts, err := c.GetAvailableExperts(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(experts) != 1 {
		t.Fatalf("experts = %d, want 1", len(experts))
	}
	if experts[0].Name != "Dr. Ahmadi" {
		t.Errorf("name = %s, want Dr. Ahmadi", experts[0].Name)
	}
}

func TestSetTokenEnablesRequests(t *testing.T) {
	server := httptest.NewServer(jsonHandler(t, http.StatusOK, successEnvelope(Consultation{ID: 7})))
	defer server.Close()

	c := New(server.URL)
	if _, err := c.GetCallStatus(context.Background(), 7); !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("error = %v, want ErrAuthRequired before SetToken", err)
	}

	c.SetToken("fresh-token")
	// GetCallStatus decodes into CallStatus, reuse a consultation-shaped call
	if _, err := c.StartCall(context.Background(), 7); err != nil {
		t.Errorf("action after SetToken failed: %v", err)
	}
}
