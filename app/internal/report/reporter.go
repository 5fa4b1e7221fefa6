package report

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"uptime/app/internal/cache"
	"uptime/app/internal/metrics"
	"uptime/app/internal/models"
	"uptime/app/internal/monitor"
	"uptime/app/internal/stats"
)

// SampleSource returns a snapshot of the full sample history
type SampleSource func() ([]models.StatusSample, error)

// Reporter turns the stored history into chart data and keeps recent results
// in a short-lived cache, one entry per mode. A chart computed from a snapshot
// taken before Invalidate is never cached.
type Reporter struct {
	source SampleSource
	cache  *cache.Cache[stats.Mode, *models.ChartData]
	loc    *time.Location
	mode   stats.Mode

	// Now is the reference instant for live mode; time.Now when nil
	Now func() time.Time
}

// New creates a reporter. A nil loc means UTC and an empty mode means historical.
func New(source SampleSource, loc *time.Location, mode stats.Mode, ttl time.Duration) *Reporter {
	if loc == nil {
		loc = time.UTC
	}
	if mode == "" {
		mode = stats.ModeHistorical
	}
	return &Reporter{
		source: source,
		cache:  cache.New[stats.Mode, *models.ChartData](ttl),
		loc:    loc,
		mode:   mode,
	}
}

// DefaultMode is the mode used when a request does not name one
func (r *Reporter) DefaultMode() stats.Mode { return r.mode }

// Location is the zone that decides calendar dates
func (r *Reporter) Location() *time.Location { return r.loc }

// ChartData returns totals and the offline heatmap for mode, from cache when fresh.
// Callers must not modify the returned value.
func (r *Reporter) ChartData(mode stats.Mode) (*models.ChartData, error) {
	if mode == "" {
		mode = r.mode
	}
	if data, ok := r.cache.Get(mode); ok {
		return data, nil
	}

	gen := r.cache.Generation()
	samples, err := r.source()
	if err != nil {
		return nil, fmt.Errorf("fetch samples: %w", err)
	}

	data, err := r.compute(samples, mode)
	if err != nil {
		return nil, err
	}
	r.cache.SetIf(gen, mode, data)
	return data, nil
}

// DemoChart runs the engine over n generated samples starting January 1st of the current year
func (r *Reporter) DemoChart(n int, rng *rand.Rand) (*models.ChartData, error) {
	samples := monitor.GenerateDemoSamples(n, monitor.StartOfYear(r.now(), r.loc), rng)
	return r.compute(samples, stats.ModeHistorical)
}

// Invalidate drops every cached chart, including ones still being computed
func (r *Reporter) Invalidate() {
	r.cache.Invalidate()
}

// Close stops the cache janitor
func (r *Reporter) Close() {
	r.cache.Stop()
}

func (r *Reporter) compute(samples []models.StatusSample, mode stats.Mode) (*models.ChartData, error) {
	start := time.Now()
	data, err := stats.Compute(samples, stats.Options{Mode: mode, Now: r.now(), Location: r.loc})
	metrics.ObserveAggregation(string(mode), time.Since(start), err)
	if err != nil {
		log.Printf("Chart aggregation failed mode=%s samples=%d: %v", mode, len(samples), err)
		return nil, err
	}
	return data, nil
}

func (r *Reporter) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}
