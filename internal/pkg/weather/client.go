package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/baghban/guardian/internal/pkg/apperrors"
	"github.com/baghban/guardian/internal/pkg/logger"
)

// Observation is the subset of current-weather data the advisory needs.
type Observation struct {
	Temperature float64
	Humidity    float64
	WindSpeed   float64
	Raining     bool
	Description string
	ObservedAt  time.Time
}

// Client fetches current weather observations from an OpenWeather-compatible
// API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a weather client. baseURL points at the API root, e.g.
// https://api.openweathermap.org/data/2.5.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type currentWeatherPayload struct {
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Rain map[string]float64 `json:"rain"`
	Dt   int64              `json:"dt"`
}

// Current fetches the current observation for the given coordinates.
func (c *Client) Current(ctx context.Context, lat, lon float64) (*Observation, error) {
	query := url.Values{}
	query.Set("lat", fmt.Sprintf("%.4f", lat))
	query.Set("lon", fmt.Sprintf("%.4f", lon))
	query.Set("units", "metric")
	query.Set("appid", c.apiKey)

	endpoint := fmt.Sprintf("%s/weather?%s", c.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build weather request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error().Err(err).Msg("Weather API request failed")
		return nil, apperrors.ErrWeatherUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Error().Int("status", resp.StatusCode).Msg("Weather API returned non-OK status")
		return nil, apperrors.ErrWeatherUnavailable
	}

	var payload currentWeatherPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		logger.Error().Err(err).Msg("Failed to decode weather API response")
		return nil, apperrors.ErrWeatherUnavailable
	}

	obs := &Observation{
		Temperature: payload.Main.Temp,
		Humidity:    payload.Main.Humidity,
		WindSpeed:   payload.Wind.Speed,
		Raining:     len(payload.Rain) > 0,
		ObservedAt:  time.Unix(payload.Dt, 0),
	}
	if len(payload.Weather) > 0 {
		obs.Description = payload.Weather[0].Description
		if payload.Weather[0].Main == "Rain" || payload.Weather[0].Main == "Drizzle" || payload.Weather[0].Main == "Thunderstorm" {
			obs.Raining = true
		}
	}

	return obs, nil
}
