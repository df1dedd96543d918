// Package client is a small Go SDK for the consultation action endpoints.
// It mirrors what the web frontend does: one action request in flight at a
// time, and no network call at all when the caller has no token.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Client errors
var (
	// ErrAuthRequired is returned without touching the network when no token
	// has been set.
	ErrAuthRequired = errors.New("authentication required")
	// ErrBusy is returned when another action is still in flight.
	ErrBusy = errors.New("another action is in progress")
)

// APIError carries the server's error code and message.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// IsUnavailable reports whether the error is a lost lifecycle race: the
// consultation was already claimed or left the required state.
func IsUnavailable(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict
}

// IsAccessDenied reports whether the server rejected the caller's identity
// for the record.
func IsAccessDenied(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusForbidden
}

// Consultation is the consultation record as returned by the API.
type Consultation struct {
	ID           int64      `json:"id"`
	FarmerID     int64      `json:"farmerId"`
	ConsultantID *int64     `json:"consultantId,omitempty"`
	Status       string     `json:"status"`
	Topic        string     `json:"topic"`
	Notes        *string    `json:"notes,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	ScheduledAt  *time.Time `json:"scheduledAt,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

// Expert is an expert directory entry.
type Expert struct {
	ID        int64   `json:"id"`
	UserID    int64   `json:"userId"`
	Name      string  `json:"name"`
	Specialty string  `json:"specialty"`
	Region    string  `json:"region"`
	Available bool    `json:"available"`
	Verified  bool    `json:"verified"`
	Rating    float64 `json:"rating"`
}

// CallStatus is the result of a get_call_status action.
type CallStatus struct {
	ConsultationID int64  `json:"consultationId"`
	Status         string `json:"status"`
	Topic          string `json:"topic"`
}

// CallAck acknowledges join/leave actions.
type CallAck struct {
	ConsultationID int64  `json:"consultationId"`
	Status         string `json:"status"`
	Acknowledged   bool   `json:"acknowledged"`
}

type actionRequest struct {
	Action         string `json:"action"`
	ConsultationID int64  `json:"consultationId,omitempty"`
	Topic          string `json:"topic,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client talks to the consultation API.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string

	busy atomic.Bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithToken sets the initial bearer token.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// New creates a Client for the API at baseURL, e.g. http://localhost:8080.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken updates the bearer token, e.g. after login or refresh.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Busy reports whether an action is currently in flight.
func (c *Client) Busy() bool {
	return c.busy.Load()
}

func (c *Client) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// do posts an action request and decodes the envelope into out. It holds the
// busy flag for the duration so UIs can disable their buttons off it and
// double submissions short-circuit.
func (c *Client) do(ctx context.Context, path string, req actionRequest, out interface{}) error {
	token := c.currentToken()
	if token == "" {
		return ErrAuthRequired
	}

	if !c.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer c.busy.Store(false)

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrAuthRequired
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if !env.Success {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}

	return nil
}

const (
	handleConsultationPath = "/api/v1/handle-consultation"
	callManagementPath     = "/api/v1/call-management"
)

// CreateConsultation opens a new pending consultation.
func (c *Client) CreateConsultation(ctx context.Context, topic string) (*Consultation, error) {
	var out Consultation
	err := c.do(ctx, handleConsultationPath, actionRequest{
		Action: "create_consultation",
		Topic:  topic,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AcceptConsultation claims a pending consultation for the calling expert.
// Losing the claim race surfaces as an error for which IsUnavailable returns
// true.
func (c *Client) AcceptConsultation(ctx context.Context, consultationID int64) (*Consultation, error) {
	var out Consultation
	err := c.do(ctx, handleConsultationPath, actionRequest{
		Action:         "accept_consultation",
		ConsultationID: consultationID,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// StartCall moves an accepted consultation into the call.
func (c *Client) StartCall(ctx context.Context, consultationID int64) (*Consultation, error) {
	var out Consultation
	err := c.do(ctx, handleConsultationPath, actionRequest{
		Action:         "start_call",
		ConsultationID: consultationID,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// EndCall completes the consultation.
func (c *Client) EndCall(ctx context.Context, consultationID int64) (*Consultation, error) {
	var out Consultation
	err := c.do(ctx, handleConsultationPath, actionRequest{
		Action:         "end_call",
		ConsultationID: consultationID,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelConsultation withdraws a pending consultation.
func (c *Client) CancelConsultation(ctx context.Context, consultationID int64) (*Consultation, error) {
	var out Consultation
	err := c.do(ctx, handleConsultationPath, actionRequest{
		Action:         "cancel_consultation",
		ConsultationID: consultationID,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAvailableExperts lists available, verified experts.
func (c *Client) GetAvailableExperts(ctx context.Context) ([]Expert, error) {
	var out struct {
		Experts []Expert `json:"experts"`
	}
	err := c.do(ctx, handleConsultationPath, actionRequest{
		Action: "get_available_experts",
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Experts, nil
}

// JoinCall enters the consultation call.
func (c *Client) JoinCall(ctx context.Context, consultationID int64) (*CallAck, error) {
	var out CallAck
	err := c.do(ctx, callManagementPath, actionRequest{
		Action:         "join_call",
		ConsultationID: consultationID,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// LeaveCall leaves the consultation call.
func (c *Client) LeaveCall(ctx context.Context, consultationID int64) (*CallAck, error) {
	var out CallAck
	err := c.do(ctx, callManagementPath, actionRequest{
		Action:         "leave_call",
		ConsultationID: consultationID,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveNotes writes consultant notes on the consultation.
func (c *Client) SaveNotes(ctx context.Context, consultationID int64, notes string) (*Consultation, error) {
	var out Consultation
	err := c.do(ctx, callManagementPath, actionRequest{
		Action:         "save_notes",
		ConsultationID: consultationID,
		Notes:          notes,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCallStatus fetches the current call state.
func (c *Client) GetCallStatus(ctx context.Context, consultationID int64) (*CallStatus, error) {
	var out CallStatus
	err := c.do(ctx, callManagementPath, actionRequest{
		Action:         "get_call_status",
		ConsultationID: consultationID,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
