package dto

import "time"

// SprayAdvisoryResponse is the weather-based spray recommendation
type SprayAdvisoryResponse struct {
	Suitable    bool      `json:"suitable"`
	Reasons     []string  `json:"reasons"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	WindSpeed   float64   `json:"windSpeed"`
	Raining     bool      `json:"raining"`
	Description string    `json:"description"`
	CheckedAt   time.Time `json:"checkedAt"`
}
