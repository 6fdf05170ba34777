package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("storage: key not found")

// ErrUnavailable wraps backend failures (network, disk, quota).
var ErrUnavailable = errors.New("storage: backend unavailable")

// Storage is the flat key-value view a session store persists into.
//
// Remove of a missing key must succeed.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// Backend stores values for many browser contexts, separated by namespace.
type Backend interface {
	Get(ctx context.Context, namespace, key string) ([]byte, error)
	Set(ctx context.Context, namespace, key string, value []byte) error
	Remove(ctx context.Context, namespace, key string) error
}

type namespaced struct {
	backend   Backend
	namespace string
}

// Namespaced returns the Storage of a single browser context.
func Namespaced(backend Backend, namespace string) Storage {
	return namespaced{backend: backend, namespace: namespace}
}

func (n namespaced) Get(ctx context.Context, key string) ([]byte, error) {
	return n.backend.Get(ctx, n.namespace, key)
}

func (n namespaced) Set(ctx context.Context, key string, value []byte) error {
	return n.backend.Set(ctx, n.namespace, key, value)
}

func (n namespaced) Remove(ctx context.Context, key string) error {
	return n.backend.Remove(ctx, n.namespace, key)
}
