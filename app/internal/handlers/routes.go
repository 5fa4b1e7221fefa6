package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"uptime/app/internal/auth"
	"uptime/app/internal/monitor"
	"uptime/app/internal/ratelimit"
	"uptime/app/internal/report"
	"uptime/app/internal/security"
)

// Deps bundles what the HTTP layer needs from the rest of the process
type Deps struct {
	Auth     *auth.Auth
	Reporter *report.Reporter
	Tracker  *monitor.StatusTracker
	// Scheduler is nil when no gateway is configured
	Scheduler *monitor.Scheduler
	Limiter   *ratelimit.Limiter
}

// SetupRoutes configures all HTTP routes and middlewares
func SetupRoutes(d Deps) http.Handler {
	// Public API routes (with rate limiting)
	api := http.NewServeMux()
	api.HandleFunc("/api/chart", HandleChart(d.Reporter))
	api.HandleFunc("/api/status", HandleStatus(d.Tracker, d.Reporter.Location()))

	// Heavier renders share a tighter budget
	exports := http.NewServeMux()
	exports.HandleFunc("/api/chart-test", HandleChartTest(d.Reporter))
	exports.HandleFunc("/api/export.xlsx", HandleExportXLSX(d.Reporter))
	exports.HandleFunc("/api/export.pdf", HandleExportPDF(d.Reporter))

	// Admin API routes (with authentication)
	authAPI := http.NewServeMux()
	authAPI.HandleFunc("/api/admin/probe-now", d.Auth.RequireAuth(HandleProbeNow(d.Scheduler, d.Reporter.Location())))
	authAPI.HandleFunc("/api/admin/logs", d.Auth.RequireAuth(HandleGetLogs()))

	// Main router
	mux := http.NewServeMux()
	limit := func(class ratelimit.Class, h http.Handler) http.Handler {
		return security.RateLimit(d.Limiter, class, h)
	}
	mux.Handle("/api/admin/", limit(ratelimit.ClassAPI, authAPI))
	mux.Handle("/api/login", limit(ratelimit.ClassLogin, HandleLogin(d.Auth, d.Limiter)))
	mux.Handle("/api/logout", limit(ratelimit.ClassAPI, HandleLogout(d.Auth)))
	mux.Handle("/api/me", limit(ratelimit.ClassAPI, HandleWhoAmI(d.Auth)))
	mux.Handle("/api/chart-test", limit(ratelimit.ClassExport, exports))
	mux.Handle("/api/export.xlsx", limit(ratelimit.ClassExport, exports))
	mux.Handle("/api/export.pdf", limit(ratelimit.ClassExport, exports))
	mux.Handle("/api/", limit(ratelimit.ClassAPI, api))
	mux.HandleFunc("/healthz", HandleHealth())
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/static/", HandleStatic())
	mux.HandleFunc("/", HandleIndex(d.Auth, d.Reporter, d.Tracker))

	return security.SecureHeaders(GzipMiddleware(mux))
}
