package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"uptime/app/internal/stats"
)

const minSecretLen = 32

// Config holds all application configuration
type Config struct {
	// Auth
	AuthUser       string
	AuthHash       []byte
	HmacSecret     []byte
	InsecureDev    bool
	SessionMaxAgeS int

	// Server
	Port            string
	DBPath          string
	EnableScheduler bool

	// Probing
	PollInterval     time.Duration
	ProbeTimeout     time.Duration
	GatewayTarget    string
	ReferenceTargets []string

	// Reporting
	Timezone     string
	Location     *time.Location
	ReportMode   stats.Mode
	DemoSamples  int
	LogRetention int

	// Alerts
	WebhookURL    string
	WebhookSecret string
}

// fileConfig is the optional YAML overlay named by CONFIG_FILE.
// Zero values leave the environment setting in place.
type fileConfig struct {
	Port            string `yaml:"port"`
	DBPath          string `yaml:"db_path"`
	EnableScheduler *bool  `yaml:"enable_scheduler"`
	Probe           struct {
		Gateway         string   `yaml:"gateway"`
		References      []string `yaml:"references"`
		IntervalSeconds int      `yaml:"interval_seconds"`
		TimeoutSeconds  int      `yaml:"timeout_seconds"`
	} `yaml:"probe"`
	Report struct {
		Timezone     string `yaml:"timezone"`
		Mode         string `yaml:"mode"`
		DemoSamples  int    `yaml:"demo_samples"`
		LogRetention int    `yaml:"log_retention"`
	} `yaml:"report"`
	Alerts struct {
		WebhookURL    string `yaml:"webhook_url"`
		WebhookSecret string `yaml:"webhook_secret"`
	} `yaml:"alerts"`
}

// Load reads configuration from .env, the environment and the optional YAML file
func Load() (*Config, error) {
	_ = godotenv.Load()

	mode, err := stats.ParseMode(strings.ToLower(getenv("REPORT_MODE", string(stats.ModeHistorical))))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		AuthUser:         getenv("AUTH_USER", "admin"),
		InsecureDev:      envBool("INSECURE_DEV", false),
		SessionMaxAgeS:   envInt("SESSION_MAX_AGE_SECONDS", 86400),
		Port:             getenv("PORT", "3000"),
		DBPath:           getenv("DB_PATH", "./uptime.db"),
		EnableScheduler:  envBool("ENABLE_SCHEDULER", true),
		PollInterval:     envDurSecs("POLL_SECONDS", 30),
		ProbeTimeout:     envDurSecs("PROBE_TIMEOUT_SECS", 4),
		GatewayTarget:    getenv("GATEWAY_TARGET", os.Getenv("FREEBOX_IP")),
		ReferenceTargets: splitCSV(getenv("REFERENCE_TARGETS", "1.1.1.1,8.8.8.8")),
		Timezone:         getenv("TIMEZONE", "UTC"),
		ReportMode:       mode,
		DemoSamples:      envInt("DEMO_SAMPLES", 0),
		LogRetention:     envInt("LOG_RETENTION", 10000),
		WebhookURL:       getenv("ALERT_WEBHOOK_URL", ""),
		WebhookSecret:    getenv("ALERT_WEBHOOK_SECRET", ""),
	}

	if path := getenv("CONFIG_FILE", ""); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	// Load auth password/hash
	if hp := getenv("AUTH_PASSWORD_BCRYPT", ""); hp != "" {
		cfg.AuthHash = []byte(hp)
	} else if pw := getenv("AUTH_PASSWORD", ""); pw != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		cfg.AuthHash = h
	}

	// Load HMAC secret
	if secret := getenv("AUTH_SECRET", ""); len(secret) >= minSecretLen {
		cfg.HmacSecret = []byte(secret)
	} else if secret != "" {
		log.Printf("Warning: AUTH_SECRET shorter than %d bytes is ignored", minSecretLen)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return err
	}

	if fc.Port != "" {
		c.Port = fc.Port
	}
	if fc.DBPath != "" {
		c.DBPath = fc.DBPath
	}
	if fc.EnableScheduler != nil {
		c.EnableScheduler = *fc.EnableScheduler
	}
	if fc.Probe.Gateway != "" {
		c.GatewayTarget = fc.Probe.Gateway
	}
	if len(fc.Probe.References) > 0 {
		c.ReferenceTargets = fc.Probe.References
	}
	if fc.Probe.IntervalSeconds != 0 {
		c.PollInterval = time.Duration(fc.Probe.IntervalSeconds) * time.Second
	}
	if fc.Probe.TimeoutSeconds != 0 {
		c.ProbeTimeout = time.Duration(fc.Probe.TimeoutSeconds) * time.Second
	}
	if fc.Report.Timezone != "" {
		c.Timezone = fc.Report.Timezone
	}
	if fc.Report.Mode != "" {
		mode, err := stats.ParseMode(strings.ToLower(fc.Report.Mode))
		if err != nil {
			return err
		}
		c.ReportMode = mode
	}
	if fc.Report.DemoSamples != 0 {
		c.DemoSamples = fc.Report.DemoSamples
	}
	if fc.Report.LogRetention != 0 {
		c.LogRetention = fc.Report.LogRetention
	}
	if fc.Alerts.WebhookURL != "" {
		c.WebhookURL = fc.Alerts.WebhookURL
	}
	if fc.Alerts.WebhookSecret != "" {
		c.WebhookSecret = fc.Alerts.WebhookSecret
	}
	return nil
}

// Validate rejects settings the service cannot run with
func (c *Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, errors.New("POLL_SECONDS must be positive"))
	}
	if c.ProbeTimeout <= 0 {
		errs = append(errs, errors.New("PROBE_TIMEOUT_SECS must be positive"))
	}
	if c.EnableScheduler && c.GatewayTarget == "" {
		errs = append(errs, errors.New("GATEWAY_TARGET (or FREEBOX_IP) is required when the scheduler is enabled"))
	}
	if _, err := stats.ParseMode(string(c.ReportMode)); err != nil {
		errs = append(errs, err)
	}
	if c.DemoSamples < 0 {
		errs = append(errs, errors.New("DEMO_SAMPLES must not be negative"))
	}
	if c.LogRetention < 0 {
		errs = append(errs, errors.New("LOG_RETENTION must not be negative"))
	}
	if len(c.AuthHash) > 0 && len(c.HmacSecret) < minSecretLen {
		errs = append(errs, fmt.Errorf("AUTH_SECRET must be at least %d bytes when a password is set", minSecretLen))
	}
	return errors.Join(errs...)
}

// AuthEnabled reports whether admin credentials are fully configured
func (c *Config) AuthEnabled() bool {
	return c.AuthUser != "" && len(c.AuthHash) > 0 && len(c.HmacSecret) >= minSecretLen
}

// Helper functions
func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(k string, def bool) bool {
	v := strings.ToLower(getenv(k, ""))
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "yes"
}

func envDurSecs(k string, def int) time.Duration {
	return time.Duration(envInt(k, def)) * time.Second
}

func splitCSV(v string) []string {
	out := []string{}
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
