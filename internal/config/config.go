// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server settings,
// logging, the database path, rate limiting, observability, and the three
// background-job option triples (auto-expiry, player cleanup, user-seen
// cleanup).
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// AutoExpiryConfig controls the message auto-expiry job and the expiry window
// used by the claim endpoints.
type AutoExpiryConfig struct {
	Enabled  bool          // AUTO_EXPIRY_ENABLED (default true)
	Window   time.Duration // EXPIRY_MINUTES (default 5m)
	Interval time.Duration // EXPIRY_INTERVAL_MINUTES (default 1m)
}

// CleanupConfig controls one of the deactivation jobs (players, user-seen).
// DisableAfter is measured against the record's age reference field.
type CleanupConfig struct {
	Enabled      bool
	DisableAfter time.Duration // *_DISABLE_AFTER_HOURS
	Interval     time.Duration // *_INTERVAL_HOURS
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	GinMode           string // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool
	SwaggerEnabled bool
	APIBasePath    string

	// App
	DBPath string // SQLite path

	// Background jobs
	AutoExpiry      AutoExpiryConfig
	PlayerCleanup   CleanupConfig
	UserSeenCleanup CleanupConfig

	// Claim limits
	ClaimDefault int // default batch size when ?limit absent
	ClaimCeiling int // hard cap regardless of requested limit

	// Duplicate suppression window for POST /messages
	DuplicateWindow time.Duration

	// Rate limiting
	RateRPS   float64
	RateBurst int

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables, applies defaults,
// normalizes values, and validates the result. Job thresholds and intervals
// are parsed strictly: a non-numeric value fails here, at startup, never at
// tick time.
func Load() (Config, error) {
	var perr error
	strict := func(k string, def int) time.Duration {
		d, err := getstrictint(k, def)
		if err != nil && perr == nil {
			perr = err
		}
		return time.Duration(d)
	}

	cfg := Config{
		// Server
		Port:              getenv("PORT", "3000"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DBPath: getenv("DB_PATH", "gateway.db"),

		// Background jobs
		AutoExpiry: AutoExpiryConfig{
			Enabled:  getbool("AUTO_EXPIRY_ENABLED", true),
			Window:   strict("EXPIRY_MINUTES", 5) * time.Minute,
			Interval: strict("EXPIRY_INTERVAL_MINUTES", 1) * time.Minute,
		},
		PlayerCleanup: CleanupConfig{
			Enabled:      getbool("PLAYER_CLEANUP_ENABLED", true),
			DisableAfter: strict("PLAYER_CLEANUP_DISABLE_AFTER_HOURS", 24) * time.Hour,
			Interval:     strict("PLAYER_CLEANUP_INTERVAL_HOURS", 1) * time.Hour,
		},
		UserSeenCleanup: CleanupConfig{
			Enabled:      getbool("USER_SEEN_CLEANUP_ENABLED", true),
			DisableAfter: strict("USER_SEEN_CLEANUP_DISABLE_AFTER_HOURS", 24) * time.Hour,
			Interval:     strict("USER_SEEN_CLEANUP_INTERVAL_HOURS", 1) * time.Hour,
		},

		// Claim limits
		ClaimDefault: getint("CLAIM_DEFAULT_LIMIT", 50),
		ClaimCeiling: getint("CLAIM_MAX_LIMIT", 100),

		DuplicateWindow: getdur("DUPLICATE_WINDOW", time.Hour),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "bot-gateway"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	if perr != nil {
		return cfg, perr
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.AutoExpiry.Window <= 0 {
		return cfg, errors.New("EXPIRY_MINUTES must be > 0")
	}
	if cfg.AutoExpiry.Interval <= 0 {
		return cfg, errors.New("EXPIRY_INTERVAL_MINUTES must be > 0")
	}
	if cfg.PlayerCleanup.DisableAfter <= 0 || cfg.PlayerCleanup.Interval <= 0 {
		return cfg, errors.New("PLAYER_CLEANUP_* hours must be > 0")
	}
	if cfg.UserSeenCleanup.DisableAfter <= 0 || cfg.UserSeenCleanup.Interval <= 0 {
		return cfg, errors.New("USER_SEEN_CLEANUP_* hours must be > 0")
	}
	if cfg.ClaimDefault < 1 {
		return cfg, errors.New("CLAIM_DEFAULT_LIMIT must be >= 1")
	}
	if cfg.ClaimCeiling < 1 {
		return cfg, errors.New("CLAIM_MAX_LIMIT must be >= 1")
	}
	if cfg.DuplicateWindow <= 0 {
		return cfg, errors.New("DUPLICATE_WINDOW must be > 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// getstrictint reads an integer and, unlike getint, rejects a value that is
// present but not numeric. Used for job thresholds and intervals so a typo in
// the environment surfaces at startup rather than being silently defaulted.
func getstrictint(k string, def int) (int, error) {
	v, ok := os.LookupEnv(k)
	if !ok || v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def, errors.New(k + " must be an integer")
	}
	return i, nil
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
