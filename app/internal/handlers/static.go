package handlers

import (
	"embed"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"path"
	"strings"

	"uptime/app/internal/auth"
	"uptime/app/internal/models"
	"uptime/app/internal/monitor"
	"uptime/app/internal/report"
	"uptime/app/internal/stats"
)

//go:embed web
var webFS embed.FS

var indexTmpl = template.Must(template.ParseFS(webFS, "web/templates/index.html"))

// PageData holds template data for the index page
type PageData struct {
	IsAdmin      bool
	AuthEnabled  bool
	LastSeen     models.LastSeen
	Online       string
	Offline      string
	Unknown      string
	Availability float64
	Mode         stats.Mode
	Timezone     string
	Chart        *models.ChartData
}

// HandleIndex renders the status page with the heatmap data embedded
func HandleIndex(authMgr *auth.Auth, rep *report.Reporter, tracker *monitor.StatusTracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		if !requireGet(w, r) {
			return
		}

		mode, err := parseMode(r)
		if err != nil {
			http.Error(w, "bad mode", http.StatusBadRequest)
			return
		}
		if mode == "" {
			mode = rep.DefaultMode()
		}
		data, err := rep.ChartData(mode)
		if err != nil {
			http.Error(w, "could not compute chart", http.StatusInternalServerError)
			return
		}

		// CSRF cookie for the login form
		_, _ = authMgr.SetCSRFCookie(w)
		isAdmin := false
		if authMgr.Enabled() {
			s, err := authMgr.ParseSession(r)
			isAdmin = err == nil && s != nil
		}

		page := PageData{
			IsAdmin:      isAdmin,
			AuthEnabled:  authMgr.Enabled(),
			LastSeen:     lastSeen(tracker, rep.Location()),
			Online:       stats.FormatMinutes(data.Count.Online),
			Offline:      stats.FormatMinutes(data.Count.Offline),
			Unknown:      stats.FormatMinutes(data.Count.Unknown),
			Availability: report.Availability(data.Count),
			Mode:         mode,
			Timezone:     rep.Location().String(),
			Chart:        data,
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := indexTmpl.Execute(w, page); err != nil {
			log.Printf("index: template error: %v", err)
		}
	}
}

// HandleStatic serves the embedded JS and CSS
func HandleStatic() http.HandlerFunc {
	contentTypes := map[string]string{
		".js":  "application/javascript; charset=utf-8",
		".css": "text/css; charset=utf-8",
		".svg": "image/svg+xml; charset=utf-8",
	}
	static, err := fs.Sub(webFS, "web/static")
	if err != nil {
		panic(err)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean(r.URL.Path), "/static/")
		ct, allowed := contentTypes[path.Ext(name)]
		if !allowed || strings.Contains(name, "..") {
			http.NotFound(w, r)
			return
		}

		body, err := fs.ReadFile(static, name)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", ct)
		w.Header().Set("Cache-Control", "public, max-age=3600")
		_, _ = w.Write(body)
	}
}
