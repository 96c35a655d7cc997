// Package cache stores fetched forecast series keyed by normalised location.
package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lox/hangorburn/internal/metrics"
)

// Cache is a byte-oriented TTL cache. A miss is (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

// NormalizeKey builds the cache key for a place name. Names are lowercased
// with whitespace collapsed.
func NormalizeKey(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// CoordinateKey builds the cache key for a coordinate pair, rounded to two
// decimal places (roughly 1 km).
func CoordinateKey(lat, lon float64) string {
	return fmt.Sprintf("%.2f,%.2f", lat, lon)
}

// Instrumented wraps c so lookups are counted under backend.
func Instrumented(backend string, c Cache) Cache {
	return &instrumented{backend: backend, next: c}
}

type instrumented struct {
	backend string
	next    Cache
}

func (i *instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, ok, err := i.next.Get(ctx, key)
	result := "miss"
	switch {
	case err != nil:
		result = "error"
	case ok:
		result = "hit"
	}
	metrics.CacheLookups.WithLabelValues(i.backend, result).Inc()
	return val, ok, err
}

func (i *instrumented) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return i.next.Set(ctx, key, val, ttl)
}

// Memory is an in-process cache used when neither Redis nor SQLite is
// configured, and in tests.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	val     []byte
	expires time.Time
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry), now: time.Now}
}

// SetClock replaces the clock used for expiry.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !m.now().Before(e.expires) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return e.val, true, nil
}

func (m *Memory) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{val: append([]byte(nil), val...), expires: m.now().Add(ttl)}
	return nil
}
