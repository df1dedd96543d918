package plantvision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/baghban/guardian/internal/pkg/apperrors"
	"github.com/baghban/guardian/internal/pkg/logger"
)

// Result is the verdict returned by the image analysis service.
type Result struct {
	CropName   string  `json:"cropName"`
	Disease    string  `json:"disease"`
	Confidence float64 `json:"confidence"`
	Severity   string  `json:"severity"`
	Treatment  string  `json:"treatment"`
}

// Analyzer submits plant images for disease analysis.
type Analyzer interface {
	Analyze(ctx context.Context, imageName string, image io.Reader) (*Result, error)
}

// HTTPAnalyzer talks to the external plant vision API over multipart HTTP.
type HTTPAnalyzer struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPAnalyzer creates an analyzer client for the given API root.
func NewHTTPAnalyzer(baseURL, apiKey string) *HTTPAnalyzer {
	return &HTTPAnalyzer{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Analyze uploads the image and returns the service's diagnosis verdict.
func (a *HTTPAnalyzer) Analyze(ctx context.Context, imageName string, image io.Reader) (*Result, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("image", imageName)
	if err != nil {
		return nil, fmt.Errorf("failed to build analysis request body: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, fmt.Errorf("failed to copy image into request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize request body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/analyze", a.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to build analysis request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		logger.Error().Err(err).Msg("Plant vision API request failed")
		return nil, apperrors.ErrAnalyzerUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Error().Int("status", resp.StatusCode).Msg("Plant vision API returned non-OK status")
		return nil, apperrors.ErrAnalyzerUnavailable
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		logger.Error().Err(err).Msg("Failed to decode plant vision response")
		return nil, apperrors.ErrAnalyzerUnavailable
	}

	return &result, nil
}
