package handlers

import (
	"log"
	"net/http"
	"time"

	"uptime/app/internal/models"
	"uptime/app/internal/monitor"
)

// HandleProbeNow forces an immediate probe cycle
func HandleProbeNow(sched *monitor.Scheduler, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if sched == nil {
			writeError(w, http.StatusServiceUnavailable, "disabled", "no gateway target is configured")
			return
		}

		sample, err := sched.RunOnce(r.Context())
		if err != nil {
			log.Printf("probe-now: %v", err)
			writeError(w, http.StatusInternalServerError, "server_error", "probe result could not be stored")
			return
		}
		writeJSON(w, http.StatusOK, models.LastSeen{
			Status: sample.Status,
			Time:   sample.Time.In(loc).Format(time.RFC3339),
		})
	}
}
