package alerts

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"uptime/app/internal/database"
	"uptime/app/internal/models"
)

const (
	signatureHeader = "X-Uptime-Signature"
	userAgent       = "uptime-tracker/1.0"
)

// StatusChange is the JSON body posted on every transition
type StatusChange struct {
	Event     string `json:"event"`
	Status    string `json:"status"`
	Previous  string `json:"previous"`
	Timestamp string `json:"timestamp"`
}

// Notifier posts status changes to a generic webhook with optional HMAC signing
type Notifier struct {
	URL    string
	Secret string
	Client *http.Client
}

// NewNotifier returns a notifier for url. An empty url yields a disabled notifier.
func NewNotifier(url, secret string) *Notifier {
	return &Notifier{
		URL:    normalizeURL(url),
		Secret: secret,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether a webhook URL is configured
func (n *Notifier) Enabled() bool {
	return n != nil && n.URL != ""
}

// NotifyStatusChange sends one status_change event. prev may be nil for the first observation.
func (n *Notifier) NotifyStatusChange(ctx context.Context, prev *models.StatusSample, next models.StatusSample) error {
	if !n.Enabled() {
		return nil
	}

	payload := StatusChange{
		Event:     "status_change",
		Status:    string(next.Status),
		Timestamp: next.Time.UTC().Format(time.RFC3339),
	}
	if prev != nil {
		payload.Previous = string(prev.Status)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(body))
	if err != nil {
		_ = database.InsertLog(database.LogLevelError, database.LogCategoryNotification, "Webhook request failed", err.Error())
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	if n.Secret != "" {
		req.Header.Set(signatureHeader, "sha256="+Sign(n.Secret, body))
	}

	client := n.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		_ = database.InsertLog(database.LogLevelError, database.LogCategoryNotification, "Webhook notification failed", err.Error())
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("webhook returned status %d", resp.StatusCode)
		_ = database.InsertLog(database.LogLevelWarn, database.LogCategoryNotification, "Webhook rejected notification", err.Error())
		return err
	}

	_ = database.InsertLog(database.LogLevelInfo, database.LogCategoryNotification, "Webhook notification sent",
		fmt.Sprintf("url=%s, status=%s, previous=%s", n.URL, payload.Status, payload.Previous))
	return nil
}

// Sign returns the hex HMAC-SHA256 of body under secret
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return "http://" + raw
	}
	return raw
}
