package database

import (
	"time"

	"uptime/app/internal/models"
)

// ============================================
// Logging Functions
// ============================================

// LogLevel constants
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// LogCategory constants
const (
	LogCategoryProbe        = "probe"
	LogCategoryReport       = "report"
	LogCategorySystem       = "system"
	LogCategoryNotification = "notification"
)

// InsertLog adds a new log entry
func InsertLog(level, category, message, details string) error {
	_, err := DB.Exec(`INSERT INTO system_logs (timestamp, level, category, message, details)
		VALUES (?, ?, ?, ?, ?)`,
		formatTime(time.Now()), level, category, message, details)
	return err
}

// GetLogs retrieves logs with optional filtering, newest first
func GetLogs(limit int, level, category string, offset int) ([]models.LogEntry, error) {
	query := `SELECT id, timestamp, level, category, message, COALESCE(details, '')
		FROM system_logs WHERE 1=1`
	args := []interface{}{}

	if level != "" {
		query += " AND level = ?"
		args = append(args, level)
	}
	if category != "" {
		query += " AND category = ?"
		args = append(args, category)
	}

	query += " ORDER BY timestamp DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []models.LogEntry{}
	for rows.Next() {
		var entry models.LogEntry
		if err := rows.Scan(&entry.ID, &entry.Timestamp, &entry.Level, &entry.Category, &entry.Message, &entry.Details); err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

// PruneLogs removes old logs to keep the database size manageable (keeps last N logs)
func PruneLogs(keepCount int) error {
	_, err := DB.Exec(`DELETE FROM system_logs WHERE id NOT IN (
		SELECT id FROM system_logs ORDER BY timestamp DESC, id DESC LIMIT ?
	)`, keepCount)
	return err
}
