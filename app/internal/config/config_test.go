package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"uptime/app/internal/stats"
)

// --- helpers ---

func setEnvs(t *testing.T, m map[string]string) {
	t.Helper()
	for k, v := range m {
		t.Setenv(k, v)
	}
}

// --- getenv ---

func TestGetenv_Set(t *testing.T) {
	t.Setenv("TEST_KEY_GETENV", "hello")
	if got := getenv("TEST_KEY_GETENV", "fallback"); got != "hello" {
		t.Errorf("getenv returned %q, want %q", got, "hello")
	}
}

func TestGetenv_Unset(t *testing.T) {
	os.Unsetenv("TEST_KEY_GETENV_MISSING")
	if got := getenv("TEST_KEY_GETENV_MISSING", "fallback"); got != "fallback" {
		t.Errorf("getenv returned %q, want %q", got, "fallback")
	}
}

func TestGetenv_EmptyStringUsesDefault(t *testing.T) {
	t.Setenv("TEST_KEY_EMPTY", "")
	if got := getenv("TEST_KEY_EMPTY", "default"); got != "default" {
		t.Errorf("getenv returned %q, want %q for empty env var", got, "default")
	}
}

// --- envInt ---

func TestEnvInt_ValidNumber(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	if got := envInt("TEST_INT", 0); got != 42 {
		t.Errorf("envInt returned %d, want 42", got)
	}
}

func TestEnvInt_InvalidNumber(t *testing.T) {
	t.Setenv("TEST_INT_BAD", "not_a_number")
	if got := envInt("TEST_INT_BAD", 99); got != 99 {
		t.Errorf("envInt returned %d, want default 99 for invalid input", got)
	}
}

func TestEnvInt_Unset(t *testing.T) {
	os.Unsetenv("TEST_INT_MISSING")
	if got := envInt("TEST_INT_MISSING", 7); got != 7 {
		t.Errorf("envInt returned %d, want default 7", got)
	}
}

func TestEnvInt_NegativeNumber(t *testing.T) {
	t.Setenv("TEST_INT_NEG", "-5")
	if got := envInt("TEST_INT_NEG", 0); got != -5 {
		t.Errorf("envInt returned %d, want -5", got)
	}
}

func TestEnvInt_Zero(t *testing.T) {
	t.Setenv("TEST_INT_ZERO", "0")
	if got := envInt("TEST_INT_ZERO", 99); got != 0 {
		t.Errorf("envInt returned %d, want 0", got)
	}
}

func TestEnvInt_FloatString(t *testing.T) {
	t.Setenv("TEST_INT_FLOAT", "3.14")
	if got := envInt("TEST_INT_FLOAT", 10); got != 10 {
		t.Errorf("envInt returned %d, want default 10 for float string", got)
	}
}

// --- envBool ---

func TestEnvBool_True(t *testing.T) {
	for _, val := range []string{"1", "true", "yes", "TRUE", "True", "YES", "Yes"} {
		t.Setenv("TEST_BOOL", val)
		if got := envBool("TEST_BOOL", false); !got {
			t.Errorf("envBool(%q) = false, want true", val)
		}
	}
}

func TestEnvBool_False(t *testing.T) {
	for _, val := range []string{"0", "false", "no", "FALSE", "random"} {
		t.Setenv("TEST_BOOL", val)
		if got := envBool("TEST_BOOL", true); got {
			t.Errorf("envBool(%q) = true, want false", val)
		}
	}
}

func TestEnvBool_Unset(t *testing.T) {
	os.Unsetenv("TEST_BOOL_MISSING")
	if got := envBool("TEST_BOOL_MISSING", true); !got {
		t.Error("envBool should return default true when unset")
	}
	if got := envBool("TEST_BOOL_MISSING", false); got {
		t.Error("envBool should return default false when unset")
	}
}

func TestEnvBool_EmptyString(t *testing.T) {
	t.Setenv("TEST_BOOL_EMPTY", "")
	if got := envBool("TEST_BOOL_EMPTY", true); !got {
		t.Error("envBool should return default true for empty string")
	}
}

// --- envDurSecs ---

func TestEnvDurSecs_Set(t *testing.T) {
	t.Setenv("TEST_DUR", "30")
	got := envDurSecs("TEST_DUR", 60)
	want := 30 * time.Second
	if got != want {
		t.Errorf("envDurSecs = %v, want %v", got, want)
	}
}

func TestEnvDurSecs_Default(t *testing.T) {
	os.Unsetenv("TEST_DUR_MISSING")
	got := envDurSecs("TEST_DUR_MISSING", 120)
	want := 120 * time.Second
	if got != want {
		t.Errorf("envDurSecs = %v, want %v", got, want)
	}
}

func TestEnvDurSecs_Zero(t *testing.T) {
	t.Setenv("TEST_DUR_ZERO", "0")
	got := envDurSecs("TEST_DUR_ZERO", 60)
	if got != 0 {
		t.Errorf("envDurSecs = %v, want 0", got)
	}
}

// --- Load ---

var configKeys = []string{
	"AUTH_USER", "AUTH_PASSWORD", "AUTH_PASSWORD_BCRYPT", "AUTH_SECRET",
	"PORT", "DB_PATH", "ENABLE_SCHEDULER", "POLL_SECONDS", "PROBE_TIMEOUT_SECS",
	"GATEWAY_TARGET", "FREEBOX_IP", "REFERENCE_TARGETS", "TIMEZONE", "REPORT_MODE",
	"DEMO_SAMPLES", "LOG_RETENTION", "ALERT_WEBHOOK_URL", "ALERT_WEBHOOK_SECRET",
	"SESSION_MAX_AGE_SECONDS", "INSECURE_DEV", "CONFIG_FILE",
}

// clearEnv unsets every key Load reads and restores them after the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	t.Setenv("GATEWAY_TARGET", "192.168.1.254")
}

const validSecret = "this-is-a-very-long-secret-that-exceeds-thirty-two-bytes"

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "3000" {
		t.Errorf("Port = %q, want 3000", cfg.Port)
	}
	if cfg.DBPath != "./uptime.db" {
		t.Errorf("DBPath = %q, want ./uptime.db", cfg.DBPath)
	}
	if !cfg.EnableScheduler {
		t.Error("EnableScheduler should default to true")
	}
	if cfg.PollInterval != 30*time.Second {
		t.Errorf("PollInterval = %v, want 30s", cfg.PollInterval)
	}
	if cfg.ProbeTimeout != 4*time.Second {
		t.Errorf("ProbeTimeout = %v, want 4s", cfg.ProbeTimeout)
	}
	if strings.Join(cfg.ReferenceTargets, ",") != "1.1.1.1,8.8.8.8" {
		t.Errorf("ReferenceTargets = %v", cfg.ReferenceTargets)
	}
	if cfg.Location != time.UTC {
		t.Errorf("Location = %v, want UTC", cfg.Location)
	}
	if cfg.ReportMode != stats.ModeHistorical {
		t.Errorf("ReportMode = %q, want historical", cfg.ReportMode)
	}
	if cfg.LogRetention != 10000 {
		t.Errorf("LogRetention = %d, want 10000", cfg.LogRetention)
	}
	if cfg.SessionMaxAgeS != 86400 {
		t.Errorf("SessionMaxAgeS = %d, want 86400", cfg.SessionMaxAgeS)
	}
	if cfg.InsecureDev {
		t.Error("InsecureDev should default to false")
	}
	if cfg.AuthEnabled() {
		t.Error("auth should be disabled without credentials")
	}
}

func TestLoad_FreeboxFallback(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("GATEWAY_TARGET")
	t.Setenv("FREEBOX_IP", "192.168.0.254")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.GatewayTarget != "192.168.0.254" {
		t.Errorf("GatewayTarget = %q, want FREEBOX_IP value", cfg.GatewayTarget)
	}
}

func TestLoad_MissingGateway(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("GATEWAY_TARGET")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without a gateway target")
	}

	t.Setenv("ENABLE_SCHEDULER", "false")
	if _, err := Load(); err != nil {
		t.Errorf("gateway is optional without the scheduler: %v", err)
	}
}

func TestLoad_WithPassword(t *testing.T) {
	clearEnv(t)
	setEnvs(t, map[string]string{
		"AUTH_USER":     "testuser",
		"AUTH_PASSWORD": "testpass123",
		"AUTH_SECRET":   validSecret,
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.AuthUser != "testuser" {
		t.Errorf("AuthUser = %q, want testuser", cfg.AuthUser)
	}
	if len(cfg.AuthHash) == 0 {
		t.Error("AuthHash should be set when AUTH_PASSWORD is provided")
	}
	if !cfg.AuthEnabled() {
		t.Error("auth should be enabled with user, password and secret")
	}
}

func TestLoad_WithBcryptHash(t *testing.T) {
	clearEnv(t)
	hash := "$2a$10$xxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"
	setEnvs(t, map[string]string{
		"AUTH_PASSWORD_BCRYPT": hash,
		"AUTH_SECRET":          validSecret,
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(cfg.AuthHash) != hash {
		t.Errorf("AuthHash = %q, want %q", string(cfg.AuthHash), hash)
	}
}

func TestLoad_PasswordWithShortSecret(t *testing.T) {
	clearEnv(t)
	setEnvs(t, map[string]string{
		"AUTH_PASSWORD": "testpass123",
		"AUTH_SECRET":   "tooshort",
	})

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "AUTH_SECRET") {
		t.Fatalf("expected AUTH_SECRET error, got %v", err)
	}
}

func TestLoad_ShortSecretIgnoredWithoutPassword(t *testing.T) {
	clearEnv(t)
	t.Setenv("AUTH_SECRET", "tooshort")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.HmacSecret) != 0 {
		t.Error("HmacSecret should be nil when AUTH_SECRET < 32 bytes")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	setEnvs(t, map[string]string{
		"PORT":              "8080",
		"POLL_SECONDS":      "10",
		"REFERENCE_TARGETS": " 9.9.9.9 , ,1.0.0.1",
		"TIMEZONE":          "Europe/Paris",
		"REPORT_MODE":       "LIVE",
		"ENABLE_SCHEDULER":  "false",
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "8080" || cfg.PollInterval != 10*time.Second {
		t.Errorf("cfg = %+v", cfg)
	}
	if strings.Join(cfg.ReferenceTargets, ",") != "9.9.9.9,1.0.0.1" {
		t.Errorf("ReferenceTargets = %v", cfg.ReferenceTargets)
	}
	if cfg.Location.String() != "Europe/Paris" {
		t.Errorf("Location = %v", cfg.Location)
	}
	if cfg.ReportMode != stats.ModeLive {
		t.Errorf("ReportMode = %q, want live", cfg.ReportMode)
	}
	if cfg.EnableScheduler {
		t.Error("EnableScheduler should be false")
	}
}

func TestLoad_InvalidReportMode(t *testing.T) {
	clearEnv(t)
	t.Setenv("REPORT_MODE", "sometimes")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown report mode")
	}
}

func TestLoad_InvalidTimezone(t *testing.T) {
	clearEnv(t)
	t.Setenv("TIMEZONE", "Mars/Olympus")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}

func TestLoad_NonPositivePoll(t *testing.T) {
	clearEnv(t)
	t.Setenv("POLL_SECONDS", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for zero poll interval")
	}
}

// --- YAML overlay ---

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "uptime.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_ConfigFileOverridesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("CONFIG_FILE", writeConfigFile(t, `
port: "9090"
enable_scheduler: true
probe:
  gateway: 10.0.0.1
  references: [9.9.9.9]
  interval_seconds: 15
report:
  timezone: Asia/Tokyo
  mode: live
alerts:
  webhook_url: https://hooks.example.com/uptime
`))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want file value 9090", cfg.Port)
	}
	if cfg.GatewayTarget != "10.0.0.1" || len(cfg.ReferenceTargets) != 1 {
		t.Errorf("probe targets = %q %v", cfg.GatewayTarget, cfg.ReferenceTargets)
	}
	if cfg.PollInterval != 15*time.Second {
		t.Errorf("PollInterval = %v, want 15s", cfg.PollInterval)
	}
	if cfg.ProbeTimeout != 4*time.Second {
		t.Errorf("unset file values should keep env defaults, ProbeTimeout = %v", cfg.ProbeTimeout)
	}
	if cfg.Location.String() != "Asia/Tokyo" || cfg.ReportMode != stats.ModeLive {
		t.Errorf("report = %v %q", cfg.Location, cfg.ReportMode)
	}
	if cfg.WebhookURL != "https://hooks.example.com/uptime" {
		t.Errorf("WebhookURL = %q", cfg.WebhookURL)
	}
}

func TestLoad_ConfigFileDisablesScheduler(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", writeConfigFile(t, "enable_scheduler: false\n"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.EnableScheduler {
		t.Error("file should be able to turn the scheduler off")
	}
}

func TestLoad_ConfigFileMissing(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for a missing config file")
	}
}

func TestLoad_ConfigFileInvalidYAML(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", writeConfigFile(t, "probe: [unclosed\n"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

// --- splitCSV ---

func TestSplitCSV(t *testing.T) {
	if got := splitCSV(""); len(got) != 0 {
		t.Errorf("splitCSV(\"\") = %v, want empty", got)
	}
	if got := splitCSV("a, b ,,c"); strings.Join(got, "|") != "a|b|c" {
		t.Errorf("splitCSV = %v", got)
	}
}
