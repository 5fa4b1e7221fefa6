package stats

import (
	"fmt"
	"slices"
	"time"

	"uptime/app/internal/models"
)

// Mode selects how the final, still open run of samples is resolved.
type Mode string

const (
	// ModeHistorical drops the open run because its end is not known yet
	ModeHistorical Mode = "historical"
	// ModeLive closes the open run at the reference instant
	ModeLive Mode = "live"
)

// ParseMode accepts "historical" or "live"; an empty string means historical
func ParseMode(v string) (Mode, error) {
	switch Mode(v) {
	case "", ModeHistorical:
		return ModeHistorical, nil
	case ModeLive:
		return ModeLive, nil
	}
	return "", fmt.Errorf("unknown report mode %q", v)
}

// SortSamples returns a copy of samples ordered by timestamp.
// Samples with equal timestamps keep their relative order.
func SortSamples(samples []models.StatusSample) []models.StatusSample {
	sorted := slices.Clone(samples)
	slices.SortStableFunc(sorted, func(a, b models.StatusSample) int {
		return a.Time.Compare(b.Time)
	})
	return sorted
}

// BuildIntervals collapses runs of equal-status samples into closed intervals.
//
// Samples are sorted defensively on a private copy, so callers may pass them in any
// order and their slice is never modified. A run closes at the timestamp of the first
// sample with a different status and the interval keeps the status of the run it closes.
// The last run is dropped in ModeHistorical and closed at now in ModeLive.
func BuildIntervals(samples []models.StatusSample, mode Mode, now time.Time) ([]models.StatusInterval, error) {
	if len(samples) == 0 {
		return []models.StatusInterval{}, nil
	}

	sorted := SortSamples(samples)
	for i, s := range sorted {
		if !s.Status.Valid() {
			return nil, fmt.Errorf("%w: sample %d has status %q", ErrInvalidStatus, i, s.Status)
		}
	}

	intervals := make([]models.StatusInterval, 0, len(sorted)/2+1)
	run := sorted[0]
	for _, s := range sorted[1:] {
		if s.Status == run.Status {
			continue
		}
		intervals = append(intervals, models.StatusInterval{
			Status: run.Status,
			Start:  run.Time,
			End:    s.Time,
		})
		run = s
	}

	if mode == ModeLive {
		if now.Before(run.Time) {
			return nil, fmt.Errorf("%w: open run starts at %s, after now %s",
				ErrClockSkew, run.Time.Format(time.RFC3339), now.Format(time.RFC3339))
		}
		intervals = append(intervals, models.StatusInterval{
			Status: run.Status,
			Start:  run.Time,
			End:    now,
		})
	}

	return intervals, nil
}
