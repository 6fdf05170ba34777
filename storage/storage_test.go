package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisBackendTest(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedis(rdb, "gb", ttl), mr, func() {
		rdb.Close()
		mr.Close()
	}
}

func exerciseBackend(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	if _, err := b.Get(ctx, "ctx-a", "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty backend, got %v", err)
	}
	if err := b.Set(ctx, "ctx-a", "k", []byte("alpha")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := b.Set(ctx, "ctx-b", "k", []byte("beta")); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := b.Get(ctx, "ctx-a", "k")
	if err != nil || string(got) != "alpha" {
		t.Fatalf("ctx-a get = %q, %v", got, err)
	}
	got, err = b.Get(ctx, "ctx-b", "k")
	if err != nil || string(got) != "beta" {
		t.Fatalf("ctx-b get = %q, %v", got, err)
	}

	if err := b.Remove(ctx, "ctx-a", "k"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := b.Remove(ctx, "ctx-a", "k"); err != nil {
		t.Fatalf("second remove must succeed, got %v", err)
	}
	if _, err := b.Get(ctx, "ctx-a", "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after remove, got %v", err)
	}
	if _, err := b.Get(ctx, "ctx-b", "k"); err != nil {
		t.Fatalf("removing ctx-a must not touch ctx-b: %v", err)
	}
}

func TestMemoryBackend(t *testing.T) {
	exerciseBackend(t, NewMemory())
}

func TestRedisBackend(t *testing.T) {
	b, _, done := newRedisBackendTest(t, 0)
	defer done()
	exerciseBackend(t, b)
}

func TestFileBackend(t *testing.T) {
	b, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("new file backend: %v", err)
	}
	exerciseBackend(t, b)
}

func TestMemoryReturnsCopies(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	value := []byte("abc")
	if err := m.Set(ctx, "n", "k", value); err != nil {
		t.Fatalf("set: %v", err)
	}
	value[0] = 'x'
	got, _ := m.Get(ctx, "n", "k")
	if string(got) != "abc" {
		t.Fatalf("stored value aliased caller slice: %q", got)
	}
	got[1] = 'y'
	again, _ := m.Get(ctx, "n", "k")
	if string(again) != "abc" {
		t.Fatalf("returned value aliased stored slice: %q", again)
	}
}

func TestMemoryFailWrites(t *testing.T) {
	m := NewMemory()
	m.FailWrites(true)
	if err := m.Set(context.Background(), "n", "k", []byte("v")); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if m.Len() != 0 {
		t.Fatalf("failed write must not store anything")
	}
}

func TestRedisKeyLayoutAndTTL(t *testing.T) {
	b, mr, done := newRedisBackendTest(t, time.Hour)
	defer done()
	ctx := context.Background()

	if err := b.Set(ctx, "c1", "goboard.session", []byte("{}")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !mr.Exists("gb:c1:goboard.session") {
		t.Fatalf("expected namespaced key, have %v", mr.Keys())
	}
	if ttl := mr.TTL("gb:c1:goboard.session"); ttl != time.Hour {
		t.Fatalf("expected ttl 1h, got %v", ttl)
	}

	mr.FastForward(2 * time.Hour)
	if _, err := b.Get(ctx, "c1", "goboard.session"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired key to read as not found, got %v", err)
	}
}

func TestRedisUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	b := NewRedis(rdb, "", 0)
	mr.Close()

	if _, err := b.Get(context.Background(), "c", "k"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if err := b.Ping(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable from ping, got %v", err)
	}
}

func TestFileRejectsPathTraversal(t *testing.T) {
	b, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("new file backend: %v", err)
	}
	if err := b.Set(context.Background(), "../escape", "k", []byte("v")); !errors.Is(err, ErrInvalidNamespace) {
		t.Fatalf("expected ErrInvalidNamespace, got %v", err)
	}
}

func TestFileRemovesEmptyDocument(t *testing.T) {
	dir := t.TempDir()
	b, err := NewFile(dir)
	if err != nil {
		t.Fatalf("new file backend: %v", err)
	}
	ctx := context.Background()
	if err := b.Set(ctx, "c1", "k", []byte("v")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "c1.json")); err != nil {
		t.Fatalf("expected namespace file: %v", err)
	}
	if err := b.Remove(ctx, "c1", "k"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "c1.json")); !os.IsNotExist(err) {
		t.Fatalf("expected namespace file removed, stat err=%v", err)
	}
}

func TestFileCorruptDocumentReadsEmpty(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "c1.json"), []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := NewFile(dir)
	if err != nil {
		t.Fatalf("new file backend: %v", err)
	}
	if _, err := b.Get(context.Background(), "c1", "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on corrupt document, got %v", err)
	}
}

func TestNamespacedView(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	a := Namespaced(m, "a")
	b := Namespaced(m, "b")

	if err := a.Set(ctx, "k", []byte("1")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := b.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("namespaces must be isolated, got %v", err)
	}
	if err := a.Remove(ctx, "k"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if m.Len() != 0 {
		t.Fatalf("expected empty backend")
	}
}
