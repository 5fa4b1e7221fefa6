package monitor

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"uptime/app/internal/database"
	"uptime/app/internal/models"
)

// Weighted draw: mostly online, a third as often offline, rarely unknown
var demoStatuses = []models.StatusKind{
	models.StatusOnline, models.StatusOnline, models.StatusOnline, models.StatusOnline,
	models.StatusOnline, models.StatusOnline, models.StatusOnline, models.StatusOnline,
	models.StatusOffline, models.StatusOffline, models.StatusOffline, models.StatusOffline,
	models.StatusUnknown,
}

// GenerateDemoSamples produces n random draws starting at start, spaced by
// 1 to 101 hours. A draw that differs from the previous status is preceded by
// a closing sample of the previous status at the same instant, so the output
// has the same shape as the scheduler's transition log.
func GenerateDemoSamples(n int, start time.Time, rng *rand.Rand) []models.StatusSample {
	if n <= 0 {
		return []models.StatusSample{}
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	samples := make([]models.StatusSample, 0, n*2)
	at := start
	for i := 0; i < n; i++ {
		status := demoStatuses[rng.Intn(len(demoStatuses))]
		if len(samples) > 0 {
			if last := samples[len(samples)-1]; last.Status != status {
				samples = append(samples, models.StatusSample{Status: last.Status, Time: at})
			}
		}
		samples = append(samples, models.StatusSample{Status: status, Time: at})
		at = at.Add(time.Duration(rng.Intn(101)+1) * time.Hour)
	}
	return samples
}

// DemoHistory generates up to n draws from January 1st of now's year and drops
// everything after now, so live mode can close the final run.
func DemoHistory(n int, now time.Time, loc *time.Location, rng *rand.Rand) []models.StatusSample {
	samples := GenerateDemoSamples(n, StartOfYear(now, loc), rng)
	for i, s := range samples {
		if s.Time.After(now) {
			return samples[:i]
		}
	}
	return samples
}

// SeedDemo fills an empty sample log with DemoHistory and returns how many samples
// were written. A non-empty log is left alone.
func SeedDemo(n int, now time.Time, loc *time.Location) (int, error) {
	count, err := database.CountSamples()
	if err != nil {
		return 0, fmt.Errorf("count samples: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	samples := DemoHistory(n, now, loc, nil)
	if len(samples) == 0 {
		return 0, nil
	}
	if err := database.InsertSamples(samples...); err != nil {
		return 0, fmt.Errorf("insert demo samples: %w", err)
	}
	log.Printf("Seeded %d demo samples from %s to %s", len(samples),
		samples[0].Time.Format(time.RFC3339), samples[len(samples)-1].Time.Format(time.RFC3339))
	_ = database.InsertLog(database.LogLevelInfo, database.LogCategorySystem, "Seeded demo samples",
		fmt.Sprintf("count=%d", len(samples)))
	return len(samples), nil
}

// StartOfYear returns midnight on January 1st of t's year in loc
func StartOfYear(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(t.In(loc).Year(), time.January, 1, 0, 0, 0, 0, loc)
}
