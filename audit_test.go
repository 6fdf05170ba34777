package goBoard

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/goBoard/api"
	"github.com/MrEthical07/goBoard/guard"
	"github.com/MrEthical07/goBoard/permission"
	"github.com/MrEthical07/goBoard/session"
	"github.com/MrEthical07/goBoard/storage"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, AuditEvent) {
	s.count.Add(1)
}

func buildAuditTestEngine(t *testing.T, sink AuditSink, backend storage.Backend) *Engine {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 64
	cfg.Audit.DropIfFull = false

	if backend == nil {
		backend = storage.NewMemory()
	}
	engine, err := New().
		WithConfig(cfg).
		WithStorage(backend).
		WithLogger(discardLogger()).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func nextEvent(t *testing.T, sink *ChannelSink) AuditEvent {
	t.Helper()
	select {
	case ev := <-sink.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for audit event")
		return AuditEvent{}
	}
}

func TestAuditLoginAndLogoutEvents(t *testing.T) {
	sink := NewChannelSink(16)
	engine := buildAuditTestEngine(t, sink, nil)

	id := NewContextID()
	ctx := WithRequestID(WithClientIP(context.Background(), "203.0.113.9"), "req-1")
	store, err := engine.Session(ctx, id)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}

	store.Login(ctx, "opaque-token", permission.Company, "Acme", "")
	ev := nextEvent(t, sink)
	if ev.EventType != auditEventLogin || !ev.Success {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.ContextID != id || ev.RequestID != "req-1" || ev.IP != "203.0.113.9" {
		t.Fatalf("missing request metadata: %+v", ev)
	}
	if ev.Role != "company" {
		t.Fatalf("expected role company, got %q", ev.Role)
	}

	store.Logout(ctx)
	ev = nextEvent(t, sink)
	if ev.EventType != auditEventLogout || ev.Role != "company" {
		t.Fatalf("unexpected logout event %+v", ev)
	}
}

func TestAuditMalformedRecord(t *testing.T) {
	sink := NewChannelSink(16)
	mem := storage.NewMemory()
	engine := buildAuditTestEngine(t, sink, mem)

	id := NewContextID()
	if err := mem.Set(context.Background(), id, DefaultConfig().Session.Key, []byte("{not json")); err != nil {
		t.Fatal(err)
	}
	if _, err := engine.Session(context.Background(), id); err != nil {
		t.Fatalf("Session: %v", err)
	}

	ev := nextEvent(t, sink)
	if ev.EventType != auditEventSessionRestore || ev.Success || ev.Error != string(auditErrMalformed) {
		t.Fatalf("unexpected event %+v", ev)
	}
	if engine.MetricsSnapshot().Counters[MetricSessionRestoreMalformed] != 1 {
		t.Fatal("malformed restore not counted")
	}
}

func TestAuditStorageFailure(t *testing.T) {
	sink := NewChannelSink(16)
	mem := storage.NewMemory()
	mem.FailWrites(true)
	engine := buildAuditTestEngine(t, sink, mem)

	store, err := engine.Session(context.Background(), NewContextID())
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	store.Login(context.Background(), "tok", permission.Applicant, "Ada", "")

	ev := nextEvent(t, sink)
	if ev.EventType != auditEventStorageFailure || ev.Metadata["op"] != "persist" {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.Error != string(auditErrUnavailable) {
		t.Fatalf("expected %q, got %q", auditErrUnavailable, ev.Error)
	}
	if got := store.Current(); got.Token != "tok" {
		t.Fatalf("in-memory session lost: %+v", got)
	}
}

func TestAuditGuardDenied(t *testing.T) {
	sink := NewChannelSink(4)
	engine := buildAuditTestEngine(t, sink, nil)

	engine.RecordGuard(context.Background(), "/post-job", guard.DeniedWrongRole, session.Session{Token: "t", Role: permission.Applicant})
	ev := nextEvent(t, sink)
	if ev.EventType != auditEventGuardDenied || ev.Path != "/post-job" || ev.Metadata["state"] != "denied-wrong-role" {
		t.Fatalf("unexpected event %+v", ev)
	}

	engine.RecordGuard(context.Background(), "/", guard.Granted, session.Anonymous())
	select {
	case ev := <-sink.Events():
		t.Fatalf("granted decisions are not audited, got %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestAuditDisabledEmitsNothing(t *testing.T) {
	sink := &countingSink{}
	engine, err := New().
		WithStorage(storage.NewMemory()).
		WithLogger(discardLogger()).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	store, err := engine.Session(context.Background(), NewContextID())
	if err != nil {
		t.Fatal(err)
	}
	store.Login(context.Background(), "tok", permission.Admin, "", "")
	engine.Close()

	if sink.count.Load() != 0 {
		t.Fatalf("expected no events, got %d", sink.count.Load())
	}
}

func TestAuditErrorCodes(t *testing.T) {
	tests := []struct {
		err  error
		want AuditErrorCode
	}{
		{nil, ""},
		{&api.Error{Status: 401}, auditErrUnauthorized},
		{&api.Error{Status: 404}, auditErrNotFound},
		{storage.ErrUnavailable, auditErrUnavailable},
		{errRecordExpired, auditErrExpired},
		{context.DeadlineExceeded, auditErrInternal},
	}
	for _, tt := range tests {
		if got := auditErrorCode(tt.err); got != tt.want {
			t.Fatalf("auditErrorCode(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestJSONWriterSinkWritesLines(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), AuditEvent{EventType: auditEventLogout, ContextID: "c1"})
	sink.Emit(context.Background(), AuditEvent{EventType: auditEventLogin, ContextID: "c2"})

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var ev AuditEvent
	if err := json.Unmarshal(lines[1], &ev); err != nil {
		t.Fatal(err)
	}
	if ev.EventType != auditEventLogin || ev.ContextID != "c2" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestAuditDefaultsToEngineLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Audit.Enabled = true
	engine, err := New().
		WithConfig(cfg).
		WithStorage(storage.NewMemory()).
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	id := NewContextID()
	store, err := engine.Session(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	store.Login(context.Background(), "tok", permission.Admin, "", "")
	engine.Close()

	out := buf.String()
	for _, want := range []string{"component=audit", "audit.event=login", "audit.context=" + id} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in log output:\n%s", want, out)
		}
	}
}
