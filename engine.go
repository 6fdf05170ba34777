package goBoard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/MrEthical07/goBoard/api"
	"github.com/MrEthical07/goBoard/guard"
	internalaudit "github.com/MrEthical07/goBoard/internal/audit"
	"github.com/MrEthical07/goBoard/internal/rate"
	"github.com/MrEthical07/goBoard/session"
	"github.com/MrEthical07/goBoard/storage"
	"github.com/google/uuid"
)

// Engine owns the shared dependencies of the web tier: storage backend, route table,
// API client, logger, audit dispatcher and metrics. Engine methods are safe for
// concurrent use.
type Engine struct {
	config   Config
	backend  storage.Backend
	routes   *guard.RouteTable
	client   *api.Client
	logger   *slog.Logger
	audit    *internalaudit.Dispatcher
	metrics  *Metrics
	throttle *rate.Limiter
	closers  []func() error
}

func (e *Engine) Config() Config            { return cloneConfig(e.config) }
func (e *Engine) Routes() *guard.RouteTable { return e.routes }
func (e *Engine) API() *api.Client          { return e.client }
func (e *Engine) Logger() *slog.Logger      { return e.logger }
func (e *Engine) Metrics() *Metrics         { return e.metrics }
func (e *Engine) Backend() storage.Backend  { return e.backend }

// NewContextID returns a fresh browser-context id.
func NewContextID() string {
	return uuid.NewString()
}

// ValidContextID reports whether id looks like a value NewContextID produced.
func ValidContextID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

// Session returns the hydrated Store of the browser context contextID. Each call
// builds a fresh Store from durable storage; its events feed metrics and audit.
func (e *Engine) Session(ctx context.Context, contextID string) (*session.Store, error) {
	if !ValidContextID(contextID) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidContextID, contextID)
	}
	ctx = WithContextID(ctx, contextID)

	store := session.NewStore(
		storage.Namespaced(e.backend, contextID),
		session.WithKey(e.config.Session.Key),
		session.WithLogger(e.logger.With("context", contextID)),
		session.WithLeeway(e.config.Session.ExpiryLeeway),
		session.WithHooks(e.sessionHooks(ctx)),
	)
	store.Initialize(ctx)
	return store, nil
}

func (e *Engine) sessionHooks(ctx context.Context) session.Hooks {
	return session.Hooks{
		OnRestore: func(outcome session.RestoreOutcome) {
			switch outcome {
			case session.RestoreHydrated:
				e.metricInc(MetricSessionRestored)
			case session.RestoreEmpty:
				e.metricInc(MetricSessionRestoreEmpty)
			case session.RestoreMalformed:
				e.metricInc(MetricSessionRestoreMalformed)
				e.emitAudit(ctx, auditEventSessionRestore, false, "", "", errRecordMalformed, nil)
			case session.RestoreExpired:
				e.metricInc(MetricSessionRestoreExpired)
				e.emitAudit(ctx, auditEventSessionRestore, false, "", "", errRecordExpired, nil)
			case session.RestoreUnavailable:
				e.metricInc(MetricSessionRestoreEmpty)
			}
		},
		OnChange: func(prev, next session.Session, reason session.Reason) {
			switch reason {
			case session.ReasonLogin:
				e.metricInc(MetricSessionLogin)
				e.emitAudit(ctx, auditEventLogin, true, next.Role.String(), "", nil, nil)
			case session.ReasonUpdate:
				e.metricInc(MetricSessionUpdate)
				e.emitAudit(ctx, auditEventProfileUpdate, true, next.Role.String(), "", nil, func() map[string]string {
					return map[string]string{"token_rotated": fmt.Sprint(prev.Token != next.Token)}
				})
			case session.ReasonLogout:
				e.metricInc(MetricSessionLogout)
				e.emitAudit(ctx, auditEventLogout, true, prev.Role.String(), "", nil, nil)
			case session.ReasonExpired:
				e.metricInc(MetricSessionExpired)
				e.emitAudit(ctx, auditEventSessionExpired, true, prev.Role.String(), "", nil, nil)
			}
		},
		OnPersistError: func(op string, err error) {
			e.metricInc(MetricStorageFailure)
			e.emitAudit(ctx, auditEventStorageFailure, false, "", "", err, func() map[string]string {
				return map[string]string{"op": op}
			})
		},
	}
}

// RecordGuard counts a guard decision for path and audits denials.
func (e *Engine) RecordGuard(ctx context.Context, path string, state guard.State, sess session.Session) {
	switch state {
	case guard.Granted:
		e.metricInc(MetricGuardGranted)
		return
	case guard.Checking:
		e.metricInc(MetricGuardChecking)
		return
	case guard.DeniedAnonymous:
		e.metricInc(MetricGuardDeniedAnonymous)
	case guard.DeniedWrongRole:
		e.metricInc(MetricGuardDeniedWrongRole)
	}
	e.emitAudit(ctx, auditEventGuardDenied, false, sess.Role.String(), path, nil, func() map[string]string {
		return map[string]string{"state": state.String()}
	})
}

// CheckLogin returns ErrLoginThrottled when email or the request's client IP has run
// out of failed sign-ins. Throttle storage errors fail open. No-op when the throttle
// is disabled.
func (e *Engine) CheckLogin(ctx context.Context, email string) error {
	if e.throttle == nil {
		return nil
	}
	err := e.throttle.Check(ctx, email, clientIPFromContext(ctx))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, rate.ErrRateLimited):
		e.metricInc(MetricLoginThrottled)
		e.emitAudit(ctx, auditEventLoginThrottled, false, "", "", ErrLoginThrottled, nil)
		return ErrLoginThrottled
	default:
		e.logger.Warn("goboard: login throttle unavailable", "error", err)
		return nil
	}
}

// LoginFailed records a rejected sign-in for the throttle.
func (e *Engine) LoginFailed(ctx context.Context, email string) {
	if e.throttle == nil {
		return
	}
	if err := e.throttle.Fail(ctx, email, clientIPFromContext(ctx)); err != nil && !errors.Is(err, rate.ErrRateLimited) {
		e.logger.Warn("goboard: login throttle unavailable", "error", err)
	}
}

// LoginSucceeded clears the email's failed-attempt counter.
func (e *Engine) LoginSucceeded(ctx context.Context, email string) {
	if e.throttle == nil {
		return
	}
	if err := e.throttle.Reset(ctx, email); err != nil {
		e.logger.Warn("goboard: login throttle unavailable", "error", err)
	}
}

// RecordUnauthorized audits a backend 401 observed while serving path. The Authed
// client has already logged the session out.
func (e *Engine) RecordUnauthorized(ctx context.Context, path string, err error) {
	e.emitAudit(ctx, auditEventAPIUnauthorized, false, "", path, err, nil)
}

func (e *Engine) observeCall(c api.Call) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(MetricAPIRequest)
	e.metrics.Observe(MetricAPILatency, c.Duration)
	if c.Err == nil {
		return
	}
	e.metrics.Inc(MetricAPIFailure)
	if errors.Is(c.Err, api.ErrUnauthorized) {
		e.metrics.Inc(MetricAPIUnauthorized)
	}
}

// Ping checks the storage backend when it supports it.
func (e *Engine) Ping(ctx context.Context) error {
	p, ok := e.backend.(interface{ Ping(context.Context) error })
	if !ok {
		return nil
	}
	if err := p.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// Close flushes queued audit events and releases resources the Engine created.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
	e.closeOwned()
}

func (e *Engine) closeOwned() {
	for _, c := range e.closers {
		_ = c()
	}
	e.closers = nil
}

func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// NewLogger builds the slog logger described by cfg, writing to w.
func NewLogger(cfg LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
