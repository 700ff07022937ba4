// ABOUTME: In-process token backend with listener fan-out
// ABOUTME: Several stores sharing one MemoryBackend behave like several open tabs

package tokenstore

import (
	"context"
	"sync"
)

// MemoryBackend keeps values in a map guarded by a mutex.
type MemoryBackend struct {
	mu        sync.Mutex
	values    map[string]string
	listeners map[int]ChangeFunc
	nextID    int
	closed    bool
}

// NewMemoryBackend returns an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		values:    make(map[string]string),
		listeners: make(map[int]ChangeFunc),
	}
}

func (m *MemoryBackend) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", false, ErrClosed
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryBackend) Set(_ context.Context, origin string, values map[string]string) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	for k, v := range values {
		m.values[k] = v
	}
	fns := m.snapshotListeners()
	m.mu.Unlock()

	notify(fns, origin)
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, origin string, keys ...string) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	for _, k := range keys {
		delete(m.values, k)
	}
	fns := m.snapshotListeners()
	m.mu.Unlock()

	notify(fns, origin)
	return nil
}

// Watch registers fn and blocks until ctx is done.
func (m *MemoryBackend) Watch(ctx context.Context, fn ChangeFunc) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	<-ctx.Done()

	m.mu.Lock()
	delete(m.listeners, id)
	m.mu.Unlock()
	return nil
}

func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.listeners = make(map[int]ChangeFunc)
	return nil
}

func (m *MemoryBackend) snapshotListeners() []ChangeFunc {
	fns := make([]ChangeFunc, 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	return fns
}

func notify(fns []ChangeFunc, origin string) {
	for _, fn := range fns {
		fn(origin)
	}
}
