package monitor

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"uptime/app/internal/checker"
	"uptime/app/internal/database"
	"uptime/app/internal/metrics"
	"uptime/app/internal/models"

	"github.com/google/uuid"
)

// Prober runs one reachability cycle
type Prober interface {
	Probe(ctx context.Context) checker.Result
}

// Notifier is told about every status transition
type Notifier interface {
	NotifyStatusChange(ctx context.Context, prev *models.StatusSample, next models.StatusSample) error
}

// Scheduler probes the endpoint on a fixed interval and appends a sample
// pair to the log whenever the status changes.
type Scheduler struct {
	Prober   Prober
	Tracker  *StatusTracker
	Interval time.Duration

	// Insert persists samples; database.InsertSamples when nil
	Insert func(samples ...models.StatusSample) error
	// Notifier may be nil
	Notifier Notifier
	// OnChange runs after a transition has been stored, e.g. to drop cached charts
	OnChange func()
	// LogRetention is the number of system_logs rows kept after each cycle; 0 disables pruning
	LogRetention int
	// Now defaults to time.Now
	Now func() time.Time

	mu      sync.Mutex
	pending sync.WaitGroup
}

// NewScheduler wires a scheduler with the package defaults
func NewScheduler(p Prober, tracker *StatusTracker, interval time.Duration) *Scheduler {
	return &Scheduler{
		Prober:   p,
		Tracker:  tracker,
		Interval: interval,
	}
}

// Run probes immediately and then every Interval until ctx is cancelled
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	log.Printf("Scheduler started with %v interval", s.Interval)
	for {
		if _, err := s.RunOnce(ctx); err != nil {
			log.Printf("Probe cycle failed: %v", err)
		}

		select {
		case <-ctx.Done():
			s.pending.Wait()
			log.Printf("Scheduler stopped")
			return
		case <-ticker.C:
		}
	}
}

// RunOnce performs a single probe cycle and returns the observed sample
func (s *Scheduler) RunOnce(ctx context.Context) (models.StatusSample, error) {
	// Cycles are serialized so a manual probe cannot interleave with the ticker
	s.mu.Lock()
	defer s.mu.Unlock()

	runID := uuid.NewString()
	res := s.Prober.Probe(ctx)
	sample := models.StatusSample{Status: res.Status, Time: s.now()}

	metrics.ObserveProbe(string(res.Status), res.Duration)
	metrics.SetCurrentStatus(string(res.Status))

	prev, changed := s.Tracker.Observe(sample)
	details := fmt.Sprintf("run=%s, status=%s, gateway=%t, internet=%t, duration=%s",
		runID, res.Status, res.GatewayAlive, res.InternetAlive, res.Duration.Round(time.Millisecond))

	if !changed {
		_ = database.InsertLog(database.LogLevelDebug, database.LogCategoryProbe, "Probe completed", details)
		s.prune()
		return sample, nil
	}

	if err := s.insert(transitionSamples(prev, sample)...); err != nil {
		// Forget the observation so the next cycle retries the write
		s.Tracker.Reset()
		if prev != nil {
			s.Tracker.Observe(*prev)
		}
		_ = database.InsertLog(database.LogLevelError, database.LogCategoryProbe, "Failed to store transition", details+", error="+err.Error())
		return sample, fmt.Errorf("store transition: %w", err)
	}

	previous := "none"
	if prev != nil {
		previous = string(prev.Status)
		metrics.IncTransition()
	}
	log.Printf("Status changed %s -> %s (run %s)", previous, sample.Status, runID)
	_ = database.InsertLog(levelFor(sample.Status), database.LogCategoryProbe,
		fmt.Sprintf("Status changed to %s", sample.Status), details+", previous="+previous)

	if s.OnChange != nil {
		s.OnChange()
	}
	if s.Notifier != nil {
		s.pending.Add(1)
		go func() {
			defer s.pending.Done()
			ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
			defer cancel()
			if err := s.Notifier.NotifyStatusChange(ctx, prev, sample); err != nil {
				log.Printf("Status change notification failed: %v", err)
			}
		}()
	}

	s.prune()
	return sample, nil
}

// Wait blocks until in-flight notifications have finished
func (s *Scheduler) Wait() {
	s.pending.Wait()
}

// transitionSamples returns the rows written for a status change: the closing
// sample of the previous run and the opening sample of the new one share a timestamp.
func transitionSamples(prev *models.StatusSample, next models.StatusSample) []models.StatusSample {
	if prev == nil {
		return []models.StatusSample{next}
	}
	return []models.StatusSample{
		{Status: prev.Status, Time: next.Time},
		next,
	}
}

func levelFor(status models.StatusKind) string {
	switch status {
	case models.StatusOffline:
		return database.LogLevelError
	case models.StatusUnknown:
		return database.LogLevelWarn
	default:
		return database.LogLevelInfo
	}
}

func (s *Scheduler) insert(samples ...models.StatusSample) error {
	if s.Insert != nil {
		return s.Insert(samples...)
	}
	return database.InsertSamples(samples...)
}

func (s *Scheduler) prune() {
	if s.LogRetention > 0 {
		_ = database.PruneLogs(s.LogRetention)
	}
}

func (s *Scheduler) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
