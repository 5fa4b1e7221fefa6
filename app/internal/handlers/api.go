package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"uptime/app/internal/database"
	"uptime/app/internal/models"
	"uptime/app/internal/monitor"
	"uptime/app/internal/report"
	"uptime/app/internal/stats"
)

const (
	defaultDemoCount = 400
	maxDemoCount     = 5000
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}

// chartError maps engine and store failures to a response; nothing partial is ever sent
func chartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, stats.ErrCalendarRange):
		writeError(w, http.StatusInternalServerError, "calendar_range", "interval falls outside the calendar")
	case errors.Is(err, stats.ErrInvariantViolation):
		writeError(w, http.StatusInternalServerError, "invariant_violation", "sample history is inconsistent")
	default:
		writeError(w, http.StatusInternalServerError, "server_error", "could not compute chart")
	}
}

func requireGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// parseMode reads ?mode=, falling back to the reporter's default
func parseMode(r *http.Request) (stats.Mode, error) {
	v := r.URL.Query().Get("mode")
	if v == "" {
		return "", nil
	}
	return stats.ParseMode(v)
}

// HandleChart returns totals and the offline heatmap computed from the stored history
func HandleChart(rep *report.Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireGet(w, r) {
			return
		}
		mode, err := parseMode(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_mode", err.Error())
			return
		}

		data, err := rep.ChartData(mode)
		if err != nil {
			chartError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, data)
	}
}

// HandleChartTest runs the engine over generated demo samples
func HandleChartTest(rep *report.Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireGet(w, r) {
			return
		}
		count := defaultDemoCount
		if c := r.URL.Query().Get("count"); c != "" {
			n, err := strconv.Atoi(c)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "bad_count", "count must be a non-negative integer")
				return
			}
			count = min(n, maxDemoCount)
		}

		data, err := rep.DemoChart(count, nil)
		if err != nil {
			chartError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, data)
	}
}

// lastSeen prefers the in-memory tracker and falls back to the newest stored sample
func lastSeen(tracker *monitor.StatusTracker, loc *time.Location) models.LastSeen {
	last := tracker.Last()
	if last == nil {
		if stored, err := database.LastSample(); err == nil {
			last = stored
		} else {
			log.Printf("status: failed to read last sample: %v", err)
		}
	}
	if last == nil {
		return models.LastSeen{Status: models.StatusUnknown}
	}
	return models.LastSeen{Status: last.Status, Time: last.Time.In(loc).Format(time.RFC3339)}
}

// HandleStatus returns the most recent probe outcome
func HandleStatus(tracker *monitor.StatusTracker, loc *time.Location) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireGet(w, r) {
			return
		}
		writeJSON(w, http.StatusOK, lastSeen(tracker, loc))
	}
}

func serveExport(w http.ResponseWriter, r *http.Request, rep *report.Reporter, ext, contentType string,
	build func(*models.ChartData, time.Time) ([]byte, error)) {
	if !requireGet(w, r) {
		return
	}
	mode, err := parseMode(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_mode", err.Error())
		return
	}
	data, err := rep.ChartData(mode)
	if err != nil {
		chartError(w, err)
		return
	}

	now := time.Now().In(rep.Location())
	out, err := build(data, now)
	if err != nil {
		log.Printf("export %s failed: %v", ext, err)
		_ = database.InsertLog(database.LogLevelError, database.LogCategoryReport, "Export failed", ext+": "+err.Error())
		writeError(w, http.StatusInternalServerError, "export_failed", "could not render report")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="uptime-%s.%s"`, now.Format("20060102"), ext))
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	_, _ = w.Write(out)
}

// HandleExportXLSX downloads the heatmap as a workbook
func HandleExportXLSX(rep *report.Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serveExport(w, r, rep, "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", report.BuildHeatmapXLSX)
	}
}

// HandleExportPDF downloads the summary report
func HandleExportPDF(rep *report.Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serveExport(w, r, rep, "pdf", "application/pdf", report.BuildSummaryPDF)
	}
}

// HandleHealth reports whether the sample store is reachable
func HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if database.DB == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "down"})
			return
		}
		if err := database.DB.PingContext(r.Context()); err != nil {
			log.Printf("healthz: db ping failed: %v", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "down"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
