package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"uptime/app/internal/auth"
	"uptime/app/internal/database"
	"uptime/app/internal/ratelimit"
	"uptime/app/internal/security"
)

// HandleWhoAmI returns current authentication status
func HandleWhoAmI(authMgr *auth.Auth) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		type resp struct {
			Authenticated bool   `json:"authenticated"`
			User          string `json:"user,omitempty"`
			AuthEnabled   bool   `json:"auth_enabled"`
		}
		me := resp{AuthEnabled: authMgr.Enabled()}

		if me.AuthEnabled {
			if s, err := authMgr.ParseSession(r); err == nil {
				me.Authenticated = true
				me.User = s.U
			}
		}

		writeJSON(w, http.StatusOK, me)
	}
}

// HandleLogin authenticates the admin user
func HandleLogin(authMgr *auth.Auth, limiter *ratelimit.Limiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !authMgr.Enabled() {
			http.Error(w, "admin access is not configured", http.StatusServiceUnavailable)
			return
		}

		type creds struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		var c creds
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			log.Printf("login: decode error: %v", err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		ip := security.ClientIP(r)
		if !authMgr.CheckCredentials(c.Username, c.Password) {
			log.Printf("login: failed attempt for user %q from %s", c.Username, ip)
			_ = database.InsertLog(database.LogLevelWarn, database.LogCategorySystem, "Failed login", "ip="+ip)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		log.Printf("login: success for user %s from %s", c.Username, ip)
		limiter.Forget(ratelimit.ClassLogin, ip)
		if err := authMgr.MakeSessionCookie(w, c.Username, authMgr.SessionMaxAge()); err != nil {
			http.Error(w, "server error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

// HandleLogout logs out the current user
func HandleLogout(authMgr *auth.Auth) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		authMgr.ClearSessionCookie(w)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}
