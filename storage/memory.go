package storage

import (
	"context"
	"sync"
)

// Memory is an in-process Backend. The zero value is not usable; call [NewMemory].
type Memory struct {
	mu     sync.RWMutex
	values map[string]map[string][]byte

	// failWrites makes Set return ErrUnavailable; tests use it to simulate quota errors.
	failWrites bool
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string]map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, namespace, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[namespace][key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *Memory) Set(_ context.Context, namespace, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWrites {
		return ErrUnavailable
	}
	ns, ok := m.values[namespace]
	if !ok {
		ns = make(map[string][]byte)
		m.values[namespace] = ns
	}
	v := make([]byte, len(value))
	copy(v, value)
	ns[key] = v
	return nil
}

func (m *Memory) Remove(_ context.Context, namespace, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ns, ok := m.values[namespace]
	if !ok {
		return nil
	}
	delete(ns, key)
	if len(ns) == 0 {
		delete(m.values, namespace)
	}
	return nil
}

// FailWrites toggles simulated write failures.
func (m *Memory) FailWrites(fail bool) {
	m.mu.Lock()
	m.failWrites = fail
	m.mu.Unlock()
}

// Len returns the number of namespaces holding at least one key.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}
