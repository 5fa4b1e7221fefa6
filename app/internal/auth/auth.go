package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Auth holds authentication configuration
type Auth struct {
	User           string
	Hash           []byte
	HmacSecret     []byte
	InsecureDev    bool
	SessionMaxAgeS int
}

// Session represents a user session
type Session struct {
	U   string `json:"u"`
	Exp int64  `json:"exp"`
}

// NewAuth creates a new Auth instance
func NewAuth(user string, hash []byte, secret []byte, insecure bool, maxAge int) *Auth {
	return &Auth{
		User:           user,
		Hash:           hash,
		HmacSecret:     secret,
		InsecureDev:    insecure,
		SessionMaxAgeS: maxAge,
	}
}

// Enabled reports whether credentials are configured; admin routes are refused otherwise
func (a *Auth) Enabled() bool {
	return a.User != "" && len(a.Hash) > 0 && len(a.HmacSecret) > 0
}

// CheckCredentials compares a login attempt against the configured user and bcrypt hash
func (a *Auth) CheckCredentials(user, password string) bool {
	if !a.Enabled() || user == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(a.User)) == 1
	passOK := bcrypt.CompareHashAndPassword(a.Hash, []byte(password)) == nil
	return userOK && passOK
}

// SessionMaxAge returns the configured session lifetime
func (a *Auth) SessionMaxAge() time.Duration {
	return time.Duration(a.SessionMaxAgeS) * time.Second
}

// SetCSRFCookie sets a CSRF token cookie
func (a *Auth) SetCSRFCookie(w http.ResponseWriter) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	val := base64.RawURLEncoding.EncodeToString(b)
	c := &http.Cookie{
		Name:     "csrf",
		Value:    val,
		Path:     "/",
		MaxAge:   a.SessionMaxAgeS,
		HttpOnly: false,
		SameSite: http.SameSiteLaxMode,
		Secure:   !a.InsecureDev,
	}
	http.SetCookie(w, c)
	return val, nil
}

// VerifyCSRF verifies CSRF token
func (a *Auth) VerifyCSRF(r *http.Request) bool {
	cookieVal := ""
	if c, err := r.Cookie("csrf"); err == nil {
		cookieVal = c.Value
	}
	headerVal := r.Header.Get("X-CSRF-Token")
	return cookieVal != "" && headerVal != "" && cookieVal == headerVal
}

// MakeSessionCookie creates a session cookie
func (a *Auth) MakeSessionCookie(w http.ResponseWriter, username string, maxAge time.Duration) error {
	payload, err := json.Marshal(Session{U: username, Exp: time.Now().Add(maxAge).Unix()})
	if err != nil {
		return err
	}
	sig := a.sign(payload)
	val := base64.RawURLEncoding.EncodeToString(payload) + "." + sig
	c := &http.Cookie{
		Name:     "sess",
		Value:    val,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   !a.InsecureDev,
	}
	http.SetCookie(w, c)
	_, _ = a.SetCSRFCookie(w)
	return nil
}

// ClearSessionCookie removes session cookies
func (a *Auth) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: "sess", Value: "", Path: "/", MaxAge: -1, HttpOnly: true, SameSite: http.SameSiteLaxMode, Secure: !a.InsecureDev})
	http.SetCookie(w, &http.Cookie{Name: "csrf", Value: "", Path: "/", MaxAge: -1, HttpOnly: false, SameSite: http.SameSiteLaxMode, Secure: !a.InsecureDev})
}

// ParseSession parses and validates a session cookie
func (a *Auth) ParseSession(r *http.Request) (*Session, error) {
	c, err := r.Cookie("sess")
	if err != nil || c.Value == "" {
		return nil, errors.New("no session")
	}
	parts := strings.Split(c.Value, ".")
	if len(parts) != 2 {
		return nil, errors.New("bad cookie")
	}
	raw, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, errors.New("decode")
	}
	if !hmac.Equal([]byte(a.sign(raw)), []byte(parts[1])) {
		return nil, errors.New("bad sig")
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, errors.New("json")
	}
	if time.Now().Unix() > s.Exp {
		return nil, errors.New("expired")
	}
	return &s, nil
}

// RequireAuth is middleware that requires authentication
func (a *Auth) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			http.Error(w, "admin access is not configured", http.StatusServiceUnavailable)
			return
		}
		if _, err := a.ParseSession(r); err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if !a.VerifyCSRF(r) && r.Method != http.MethodGet {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

func (a *Auth) sign(b []byte) string {
	m := hmac.New(sha256.New, a.HmacSecret)
	m.Write(b)
	return base64.RawURLEncoding.EncodeToString(m.Sum(nil))
}
