package goBoard

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/MrEthical07/goBoard/api"
	"github.com/MrEthical07/goBoard/guard"
	internalaudit "github.com/MrEthical07/goBoard/internal/audit"
	"github.com/MrEthical07/goBoard/internal/rate"
	"github.com/MrEthical07/goBoard/storage"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an Engine. A Builder is single-use: the second Build returns
// ErrBuilderUsed.
type Builder struct {
	config Config

	storage    storage.Backend
	redis      redis.UniversalClient
	routes     *guard.RouteTable
	logger     *slog.Logger
	auditSink  AuditSink
	httpClient *http.Client

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStorage overrides the backend selected by Config.Storage.Backend.
func (b *Builder) WithStorage(backend storage.Backend) *Builder {
	b.storage = backend
	return b
}

// WithRedis supplies the client used by the redis backend and the login throttle. The
// Engine does not close a client it did not create.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithRoutes overrides Config.Routes.File and the built-in route table.
func (b *Builder) WithRoutes(table *guard.RouteTable) *Builder {
	b.routes = table
	return b
}

func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithHTTPClient sets the client used for backend calls. Config.API.Timeout is
// ignored when set.
func (b *Builder) WithHTTPClient(hc *http.Client) *Builder {
	b.httpClient = hc
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires storage, routes, the API client,
// audit and metrics into an Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		var err error
		logger, err = NewLogger(cfg.Log, os.Stderr)
		if err != nil {
			return nil, err
		}
	}

	engine := &Engine{
		config:  cloneConfig(cfg),
		logger:  logger,
		metrics: NewMetrics(cfg.Metrics),
	}

	// -------- STORAGE --------
	backend, client, err := b.buildStorage(cfg, engine)
	if err != nil {
		engine.closeOwned()
		return nil, err
	}
	engine.backend = backend

	// -------- LOGIN THROTTLE --------
	if cfg.Throttle.Enabled {
		if client == nil {
			engine.closeOwned()
			return nil, ErrThrottleUnavailable
		}
		engine.throttle = rate.New(client, rate.Config{
			Prefix:      cfg.Storage.RedisPrefix,
			MaxAttempts: cfg.Throttle.MaxAttempts,
			Cooldown:    cfg.Throttle.Cooldown,
		})
	}

	// -------- ROUTES --------
	routes := b.routes
	if routes == nil && cfg.Routes.File != "" {
		routes, err = guard.LoadRouteTable(cfg.Routes.File)
		if err != nil {
			engine.closeOwned()
			return nil, err
		}
	}
	if routes == nil {
		routes = guard.DefaultRouteTable()
	}
	engine.routes = routes

	// -------- API CLIENT --------
	hc := b.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.API.Timeout}
	}
	apiClient, err := api.New(cfg.API.BaseURL,
		api.WithHTTPClient(hc),
		api.WithObserver(engine.observeCall),
	)
	if err != nil {
		engine.closeOwned()
		return nil, err
	}
	engine.client = apiClient

	sink := b.auditSink
	if sink == nil && cfg.Audit.Enabled {
		sink = NewSlogSink(logger.With("component", "audit"))
	}
	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
		Lanes:      cfg.Audit.Lanes,
	}, sink)

	b.built = true

	logger.Info("goboard: engine ready",
		"storage", string(cfg.Storage.Backend),
		"routes", len(routes.Routes()),
		"api", cfg.API.BaseURL,
	)
	return engine, nil
}

// buildStorage returns the session backend and the Redis client in use, if any.
func (b *Builder) buildStorage(cfg Config, engine *Engine) (storage.Backend, redis.UniversalClient, error) {
	if b.storage != nil {
		return b.storage, b.redis, nil
	}

	switch cfg.Storage.Backend {
	case StorageRedis:
		client := b.redis
		if client == nil {
			owned := redis.NewClient(&redis.Options{
				Addr:     cfg.Storage.RedisAddr,
				Password: cfg.Storage.RedisPassword,
				DB:       cfg.Storage.RedisDB,
			})
			engine.closers = append(engine.closers, owned.Close)
			client = owned
		}
		r := storage.NewRedis(client, cfg.Storage.RedisPrefix, cfg.Storage.TTL)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := r.Ping(ctx); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		return r, client, nil
	case StorageFile:
		f, err := storage.NewFile(cfg.Storage.FileDir)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		return f, b.redis, nil
	default:
		return storage.NewMemory(), b.redis, nil
	}
}
