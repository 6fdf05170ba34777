package goBoard

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full runtime configuration of a goBoard deployment.
//
// Config values are copied by [Builder.WithConfig] and treated as immutable after
// [Builder.Build].
type Config struct {
	Server   ServerConfig
	API      APIConfig
	Storage  StorageConfig
	Session  SessionConfig
	Routes   RoutesConfig
	Throttle ThrottleConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
	Log      LogConfig
}

/*
====================================
SERVER CONFIG
====================================
*/

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	TrustedProxies  []string
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig points at the job-board REST backend.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

/*
====================================
STORAGE CONFIG
====================================
*/

// StorageBackend selects where session records are persisted.
type StorageBackend string

const (
	StorageMemory StorageBackend = "memory"
	StorageRedis  StorageBackend = "redis"
	StorageFile   StorageBackend = "file"
)

// StorageConfig configures the durable session storage.
type StorageConfig struct {
	Backend StorageBackend

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
	// TTL bounds how long an idle browser context keeps its record. Zero keeps it
	// until logout. Redis only.
	TTL time.Duration

	FileDir string
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls the per-browser-context session.
type SessionConfig struct {
	// Key is the storage key of the session record inside a context's namespace.
	Key string

	CookieName   string
	CookieSecure bool
	CookieMaxAge time.Duration

	// ExpiryLeeway tolerates clock skew when checking token exp claims.
	ExpiryLeeway time.Duration
}

/*
====================================
ROUTES CONFIG
====================================
*/

// RoutesConfig selects the guard route table.
type RoutesConfig struct {
	// File is an optional YAML route table. Empty uses the built-in table.
	File string
}

/*
====================================
THROTTLE CONFIG
====================================
*/

// ThrottleConfig limits failed sign-ins per email and per client IP. The counters
// live in Redis, so enabling it requires the redis storage backend or a client passed
// to [Builder.WithRedis].
type ThrottleConfig struct {
	Enabled     bool
	MaxAttempts int
	Cooldown    time.Duration
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls asynchronous audit event dispatch.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
	// Lanes is the number of delivery goroutines; events of one browser context
	// keep their order within a lane.
	Lanes int
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig toggles in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
LOG CONFIG
====================================
*/

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // "text" or "json"
}

// DefaultConfig returns a configuration suitable for local development.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		API: APIConfig{
			BaseURL: "http://localhost:5000/api",
			Timeout: 15 * time.Second,
		},
		Storage: StorageConfig{
			Backend:     StorageMemory,
			RedisAddr:   "localhost:6379",
			RedisPrefix: "gb",
			TTL:         30 * 24 * time.Hour,
			FileDir:     "./data/sessions",
		},
		Session: SessionConfig{
			Key:          "goboard.session",
			CookieName:   "goboard_ctx",
			CookieSecure: false,
			CookieMaxAge: 365 * 24 * time.Hour,
			ExpiryLeeway: 30 * time.Second,
		},
		Throttle: ThrottleConfig{
			Enabled:     false,
			MaxAttempts: 5,
			Cooldown:    15 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
			Lanes:      4,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if cfg.Server.TrustedProxies != nil {
		out.Server.TrustedProxies = append([]string(nil), cfg.Server.TrustedProxies...)
	}
	return out
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	// Server
	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("Server Addr must be set")
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		return errors.New("Server timeouts must be >= 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("Server ShutdownTimeout must be > 0")
	}

	// API
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("API BaseURL must be an absolute http(s) URL")
	}
	if c.API.Timeout <= 0 {
		return errors.New("API Timeout must be > 0")
	}

	// Storage
	switch c.Storage.Backend {
	case StorageMemory:
	case StorageRedis:
		if c.Storage.RedisAddr == "" {
			return errors.New("Storage RedisAddr must be set for the redis backend")
		}
		if c.Storage.RedisDB < 0 {
			return errors.New("Storage RedisDB must be >= 0")
		}
	case StorageFile:
		if c.Storage.FileDir == "" {
			return errors.New("Storage FileDir must be set for the file backend")
		}
	default:
		return fmt.Errorf("Storage Backend %q is not one of memory, redis, file", c.Storage.Backend)
	}
	if c.Storage.TTL < 0 {
		return errors.New("Storage TTL must be >= 0")
	}
	if strings.Contains(c.Storage.RedisPrefix, " ") {
		return errors.New("Storage RedisPrefix must not contain spaces")
	}

	// Session
	if strings.TrimSpace(c.Session.Key) == "" {
		return errors.New("Session Key must be set")
	}
	if strings.TrimSpace(c.Session.CookieName) == "" {
		return errors.New("Session CookieName must be set")
	}
	if c.Session.CookieMaxAge <= 0 {
		return errors.New("Session CookieMaxAge must be > 0")
	}
	if c.Session.ExpiryLeeway < 0 || c.Session.ExpiryLeeway > 5*time.Minute {
		return errors.New("Session ExpiryLeeway must be between 0 and 5m")
	}

	// Throttle
	if c.Throttle.Enabled && (c.Throttle.MaxAttempts <= 0 || c.Throttle.Cooldown <= 0) {
		return errors.New("Throttle MaxAttempts and Cooldown must be > 0 when enabled")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}
	if c.Audit.Enabled && c.Audit.Lanes <= 0 {
		return errors.New("Audit Lanes must be > 0 when enabled")
	}

	// Metrics
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	// Log
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New("Log Format must be 'text' or 'json'")
	}

	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("Log Level %q is invalid", s)
	}
	return lvl, nil
}

// LoadConfigFromEnv starts from DefaultConfig and overrides it with GOBOARD_*
// environment variables. envFiles are loaded first with godotenv; missing files are
// skipped, and variables already set in the process environment win.
func LoadConfigFromEnv(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := DefaultConfig()
	env := envReader{}

	env.str("GOBOARD_ADDR", &cfg.Server.Addr)
	env.duration("GOBOARD_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	env.duration("GOBOARD_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	env.duration("GOBOARD_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	env.list("GOBOARD_TRUSTED_PROXIES", &cfg.Server.TrustedProxies)

	env.str("GOBOARD_API_URL", &cfg.API.BaseURL)
	env.duration("GOBOARD_API_TIMEOUT", &cfg.API.Timeout)

	var backend string
	if env.str("GOBOARD_STORAGE", &backend) {
		cfg.Storage.Backend = StorageBackend(strings.ToLower(backend))
	}
	env.str("GOBOARD_REDIS_ADDR", &cfg.Storage.RedisAddr)
	env.str("GOBOARD_REDIS_PASSWORD", &cfg.Storage.RedisPassword)
	env.integer("GOBOARD_REDIS_DB", &cfg.Storage.RedisDB)
	env.str("GOBOARD_REDIS_PREFIX", &cfg.Storage.RedisPrefix)
	env.duration("GOBOARD_STORAGE_TTL", &cfg.Storage.TTL)
	env.str("GOBOARD_FILE_DIR", &cfg.Storage.FileDir)

	env.str("GOBOARD_SESSION_KEY", &cfg.Session.Key)
	env.str("GOBOARD_COOKIE_NAME", &cfg.Session.CookieName)
	env.boolean("GOBOARD_COOKIE_SECURE", &cfg.Session.CookieSecure)
	env.duration("GOBOARD_COOKIE_MAX_AGE", &cfg.Session.CookieMaxAge)
	env.duration("GOBOARD_EXPIRY_LEEWAY", &cfg.Session.ExpiryLeeway)

	env.str("GOBOARD_ROUTES_FILE", &cfg.Routes.File)

	env.boolean("GOBOARD_LOGIN_THROTTLE", &cfg.Throttle.Enabled)
	env.integer("GOBOARD_LOGIN_MAX_ATTEMPTS", &cfg.Throttle.MaxAttempts)
	env.duration("GOBOARD_LOGIN_COOLDOWN", &cfg.Throttle.Cooldown)

	env.boolean("GOBOARD_AUDIT", &cfg.Audit.Enabled)
	env.integer("GOBOARD_AUDIT_BUFFER", &cfg.Audit.BufferSize)
	env.boolean("GOBOARD_AUDIT_DROP_IF_FULL", &cfg.Audit.DropIfFull)
	env.integer("GOBOARD_AUDIT_LANES", &cfg.Audit.Lanes)

	env.boolean("GOBOARD_METRICS", &cfg.Metrics.Enabled)
	env.boolean("GOBOARD_METRICS_LATENCY", &cfg.Metrics.EnableLatencyHistograms)

	env.str("GOBOARD_LOG_LEVEL", &cfg.Log.Level)
	env.str("GOBOARD_LOG_FORMAT", &cfg.Log.Format)

	if env.err != nil {
		return Config{}, env.err
	}
	return cfg, nil
}

// envReader collects the first parse error so LoadConfigFromEnv reads linearly.
type envReader struct {
	err error
}

func (r *envReader) lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (r *envReader) fail(key, v string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: %s=%q: %v", ErrInvalidEnv, key, v, err)
	}
}

func (r *envReader) str(key string, dst *string) bool {
	v, ok := r.lookup(key)
	if ok {
		*dst = v
	}
	return ok
}

func (r *envReader) list(key string, dst *[]string) {
	v, ok := r.lookup(key)
	if !ok {
		return
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	*dst = out
}

func (r *envReader) duration(key string, dst *time.Duration) {
	v, ok := r.lookup(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, v, err)
		return
	}
	*dst = d
}

func (r *envReader) integer(key string, dst *int) {
	v, ok := r.lookup(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, v, err)
		return
	}
	*dst = n
}

func (r *envReader) boolean(key string, dst *bool) {
	v, ok := r.lookup(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(key, v, err)
		return
	}
	*dst = b
}
