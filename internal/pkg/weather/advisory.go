package weather

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Spray suitability thresholds. Outside these bounds pesticide application
// is wasteful or unsafe.
const (
	SprayMinTemperature = 10.0 // celsius
	SprayMaxTemperature = 32.0
	SprayMaxWindSpeed   = 6.5 // m/s, drift risk above this
	SprayMaxHumidity    = 90.0
)

// Advisory is the spray recommendation derived from an observation.
type Advisory struct {
	Suitable    bool
	Reasons     []string
	Observation Observation
	CheckedAt   time.Time
}

// Evaluate applies the spray suitability rules to an observation. Reasons
// lists every failed rule so the farmer knows what to wait out.
func Evaluate(obs *Observation) Advisory {
	advisory := Advisory{
		Suitable:    true,
		Reasons:     []string{},
		Observation: *obs,
		CheckedAt:   time.Now(),
	}

	if obs.Raining {
		advisory.Suitable = false
		advisory.Reasons = append(advisory.Reasons, "active rain will wash off spray")
	}
	if obs.WindSpeed > SprayMaxWindSpeed {
		advisory.Suitable = false
		advisory.Reasons = append(advisory.Reasons, "wind speed too high, spray will drift")
	}
	if obs.Temperature < SprayMinTemperature {
		advisory.Suitable = false
		advisory.Reasons = append(advisory.Reasons, "temperature too low for effective application")
	}
	if obs.Temperature > SprayMaxTemperature {
		advisory.Suitable = false
		advisory.Reasons = append(advisory.Reasons, "temperature too high, spray will evaporate")
	}
	if obs.Humidity > SprayMaxHumidity {
		advisory.Suitable = false
		advisory.Reasons = append(advisory.Reasons, "humidity too high for spray to settle")
	}

	return advisory
}

// Source fetches current observations. *Client satisfies this.
type Source interface {
	Current(ctx context.Context, lat, lon float64) (*Observation, error)
}

type cacheEntry struct {
	obs       *Observation
	fetchedAt time.Time
}

// CachedSource wraps a Source with a TTL cache keyed by rounded coordinates,
// so repeated advisory checks from the same field do not hammer the API.
type CachedSource struct {
	source Source
	ttl    time.Duration

	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewCachedSource wraps source with a TTL cache.
func NewCachedSource(source Source, ttl time.Duration) *CachedSource {
	return &CachedSource{
		source:  source,
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

func cacheKey(lat, lon float64) string {
	// Two decimal places is roughly a 1km grid, plenty for field weather.
	return fmt.Sprintf("%.2f:%.2f", lat, lon)
}

// Sweep drops stale cache entries so the map does not grow with every
// distinct field ever queried. Returns the number of entries removed.
func (c *CachedSource) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.entries {
		if time.Since(entry.fetchedAt) >= c.ttl {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Current returns a cached observation when fresh, fetching otherwise.
func (c *CachedSource) Current(ctx context.Context, lat, lon float64) (*Observation, error) {
	key := cacheKey(lat, lon)

	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()

	if ok && time.Since(entry.fetchedAt) < c.ttl {
		return entry.obs, nil
	}

	obs, err := c.source.Current(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{obs: obs, fetchedAt: time.Now()}
	c.mu.Unlock()

	return obs, nil
}
