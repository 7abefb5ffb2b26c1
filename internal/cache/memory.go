// In-process response cache for the news facade
package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

// Entry is a cached payload with the time it was captured
type Entry struct {
	Payload    []byte
	CapturedAt time.Time
}

// Memory maps request fingerprints to payloads. TTL is supplied per read and
// evaluated lazily: a stale entry is evicted by the read that finds it.
type Memory struct {
	clock clockwork.Clock

	mu      sync.Mutex
	entries map[string]Entry

	enabled atomic.Bool
}

// NewMemory creates an empty cache. A nil clock uses the real clock.
func NewMemory(clock clockwork.Clock, enabled bool) *Memory {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	m := &Memory{
		clock:   clock,
		entries: make(map[string]Entry),
	}
	m.enabled.Store(enabled)
	return m
}

// Get returns the entry for key if it is younger than ttl.
// Otherwise the key is removed and a miss is reported.
func (m *Memory) Get(key string, ttl time.Duration) (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return Entry{}, false
	}

	if m.clock.Since(entry.CapturedAt) >= ttl {
		delete(m.entries, key)
		return Entry{}, false
	}

	return entry, true
}

// Put stores payload under key, captured now
func (m *Memory) Put(key string, payload []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = Entry{
		Payload:    payload,
		CapturedAt: m.clock.Now(),
	}
}

// InvalidateAll drops every entry
func (m *Memory) InvalidateAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]Entry)
}

// Len returns the number of stored entries, stale ones included
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.entries)
}

// SetEnabled sets the flag consulted by callers. Existing entries are kept.
func (m *Memory) SetEnabled(enabled bool) {
	m.enabled.Store(enabled)
}

func (m *Memory) Enabled() bool {
	return m.enabled.Load()
}
