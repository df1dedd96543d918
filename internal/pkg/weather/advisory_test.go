package weather

import (
	"context"
	"sync"
	"testing"
	"time"
)

func goodObservation() *Observation {
	return &Observation{
		Temperature: 22.0,
		Humidity:    55.0,
		WindSpeed:   3.0,
		Raining:     false,
		Description: "clear sky",
		ObservedAt:  time.Now(),
	}
}

func TestEvaluateSuitable(t *testing.T) {
	advisory := Evaluate(goodObservation())
	if !advisory.Suitable {
		t.Errorf("expected suitable, got reasons %v", advisory.Reasons)
	}
	if len(advisory.Reasons) != 0 {
		t.Errorf("reasons = %v, want none", advisory.Reasons)
	}
}

func TestEvaluateRules(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Observation)
	}{
		{"rain", func(o *Observation) { o.Raining = true }},
		{"high wind", func(o *Observation) { o.WindSpeed = SprayMaxWindSpeed + 0.1 }},
		{"too cold", func(o *Observation) { o.Temperature = SprayMinTemperature - 1 }},
		{"too hot", func(o *Observation) { o.Temperature = SprayMaxTemperature + 1 }},
		{"high humidity", func(o *Observation) { o.Humidity = SprayMaxHumidity + 1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			obs := goodObservation()
			tc.mutate(obs)

			advisory := Evaluate(obs)
			if advisory.Suitable {
				t.Error("expected unsuitable")
			}
			if len(advisory.Reasons) != 1 {
				t.Errorf("reasons = %v, want exactly one", advisory.Reasons)
			}
		})
	}
}

func TestEvaluateBoundaryValuesStillSuitable(t *testing.T) {
	obs := goodObservation()
	obs.Temperature = SprayMinTemperature
	obs.WindSpeed = SprayMaxWindSpeed
	obs.Humidity = SprayMaxHumidity

	if advisory := Evaluate(obs); !advisory.Suitable {
		t.Errorf("boundary values should be suitable, got reasons %v", advisory.Reasons)
	}
}

func TestEvaluateCollectsAllReasons(t *testing.T) {
	obs := &Observation{
		Temperature: 40.0,
		Humidity:    95.0,
		WindSpeed:   10.0,
		Raining:     true,
	}

	advisory := Evaluate(obs)
	if advisory.Suitable {
		t.Error("expected unsuitable")
	}
	if len(advisory.Reasons) != 4 {
		t.Errorf("reasons = %d, want 4: %v", len(advisory.Reasons), advisory.Reasons)
	}
}

// countingSource counts upstream fetches so cache behavior is observable.
type countingSource struct {
	mu    sync.Mutex
	calls int
	obs   *Observation
}

func (s *countingSource) Current(ctx context.Context, lat, lon float64) (*Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.obs, nil
}

func (s *countingSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestCachedSourceServesFromCache(t *testing.T) {
	upstream := &countingSource{obs: goodObservation()}
	cached := NewCachedSource(upstream, time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := cached.Current(ctx, 35.6892, 51.3890); err != nil {
			t.Fatalf("fetch %d failed: %v", i, err)
		}
	}

	if got := upstream.callCount(); got != 1 {
		t.Errorf("upstream calls = %d, want 1", got)
	}
}

func TestCachedSourceKeysByRoundedCoordinates(t *testing.T) {
	upstream := &countingSource{obs: goodObservation()}
	cached := NewCachedSource(upstream, time.Minute)
	ctx := context.Background()

	// Same 1km grid cell
	cached.Current(ctx, 35.6892, 51.3890)
	cached.Current(ctx, 35.6894, 51.3893)
	if got := upstream.callCount(); got != 1 {
		t.Errorf("upstream calls = %d, want 1 for same grid cell", got)
	}

	// A different field
	cached.Current(ctx, 36.3000, 59.6000)
	if got := upstream.callCount(); got != 2 {
		t.Errorf("upstream calls = %d, want 2 after distinct coordinates", got)
	}
}

func TestCachedSourceSweep(t *testing.T) {
	upstream := &countingSource{obs: goodObservation()}
	cached := NewCachedSource(upstream, 10*time.Millisecond)
	ctx := context.Background()

	cached.Current(ctx, 35.69, 51.39)
	cached.Current(ctx, 36.30, 59.60)

	if removed := cached.Sweep(); removed != 0 {
		t.Errorf("sweep removed %d fresh entries, want 0", removed)
	}

	time.Sleep(20 * time.Millisecond)
	if removed := cached.Sweep(); removed != 2 {
		t.Errorf("sweep removed %d, want 2", removed)
	}
}

func TestCachedSourceExpires(t *testing.T) {
	upstream := &countingSource{obs: goodObservation()}
	cached := NewCachedSource(upstream, 10*time.Millisecond)
	ctx := context.Background()

	cached.Current(ctx, 35.69, 51.39)
	time.Sleep(20 * time.Millisecond)
	cached.Current(ctx, 35.69, 51.39)

	if got := upstream.callCount(); got != 2 {
		t.Errorf("upstream calls = %d, want 2 after TTL expiry", got)
	}
}
