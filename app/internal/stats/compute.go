package stats

import (
	"time"

	"uptime/app/internal/models"
)

// Options controls one aggregation run
type Options struct {
	Mode Mode
	// Now closes the open run in ModeLive; ignored otherwise
	Now time.Time
	// Location decides which calendar date an instant belongs to (UTC when nil)
	Location *time.Location
}

// Compute turns a sample history into totals and the offline heatmap.
// It either returns a complete result or an error, never a partial map.
func Compute(samples []models.StatusSample, opts Options) (*models.ChartData, error) {
	intervals, err := BuildIntervals(samples, opts.Mode, opts.Now)
	if err != nil {
		return nil, err
	}

	totals, cal, err := Aggregate(intervals, RangeOf(samples, intervals), opts.Location)
	if err != nil {
		return nil, err
	}

	return &models.ChartData{Chart: cal, Count: totals}, nil
}
