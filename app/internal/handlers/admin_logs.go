package handlers

import (
	"fmt"
	"net/http"

	"uptime/app/internal/database"
	"uptime/app/internal/models"
)

// HandleGetLogs returns system logs with optional filtering
func HandleGetLogs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireGet(w, r) {
			return
		}
		limit := 100
		if l := r.URL.Query().Get("limit"); l != "" {
			fmt.Sscanf(l, "%d", &limit)
			if limit > 500 {
				limit = 500
			}
			if limit < 1 {
				limit = 1
			}
		}

		offset := 0
		if o := r.URL.Query().Get("offset"); o != "" {
			fmt.Sscanf(o, "%d", &offset)
			if offset < 0 {
				offset = 0
			}
		}

		level := r.URL.Query().Get("level")
		category := r.URL.Query().Get("category")

		logs, err := database.GetLogs(limit, level, category, offset)
		if err != nil {
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}

		if logs == nil {
			logs = []models.LogEntry{}
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"logs": logs,
		})
	}
}
