// Package cache - TTL result cache
// Sits in front of the aggregator's expensive group-by computations. The
// cache is an injected dependency, not a process-wide singleton, so tests
// can substitute deterministic stores. Expired entries are never returned
// as valid; eviction is lazy on read plus an opportunistic sweep.
package cache

import (
	"sync"
	"time"
)

// Cache is the interface aggregation operations consume. Collaborators may
// substitute any TTL store keyed by opaque strings.
type Cache interface {
	// Get returns the cached value for key if present and unexpired
	Get(key string) (interface{}, bool)

	// Put stores a value under key with the given TTL
	Put(key string, value interface{}, ttl time.Duration)
}

// Entry is a cached result with lifecycle metadata
type Entry struct {
	Key          string
	Value        interface{}
	CreatedAt    time.Time
	ExpiresAt    time.Time
	AccessCount  int
	LastAccessed time.Time
}

// IsExpired checks if the entry has expired
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.ExpiresAt)
}

// Stats contains cache counters
type Stats struct {
	Entries int `json:"entries"`
	Hits    int `json:"hits"`
	Misses  int `json:"misses"`
	Expired int `json:"expired"`
}

// Memory is an in-process Cache backed by a mutex-guarded map. Concurrent
// get/put from in-flight requests is safe; a redundant recomputation on a
// near-simultaneous miss is tolerated, silent corruption is not.
type Memory struct {
	mu         sync.RWMutex
	entries    map[string]*Entry
	maxEntries int
	hits       int
	misses     int
}

// NewMemory creates a memory cache bounded to maxEntries (0 means unbounded)
func NewMemory(maxEntries int) *Memory {
	return &Memory{
		entries:    make(map[string]*Entry),
		maxEntries: maxEntries,
	}
}

// Get returns the value for key if present and unexpired. Expired entries
// are removed on access.
func (m *Memory) Get(key string) (interface{}, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		m.misses++
		return nil, false
	}
	if entry.IsExpired() {
		delete(m.entries, key)
		m.misses++
		return nil, false
	}

	entry.AccessCount++
	entry.LastAccessed = time.Now()
	m.hits++
	return entry.Value, true
}

// Put stores a value under key with the given TTL
func (m *Memory) Put(key string, value interface{}, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.maxEntries > 0 && len(m.entries) >= m.maxEntries {
		if _, exists := m.entries[key]; !exists {
			m.evictOldestLocked()
		}
	}

	now := time.Now()
	m.entries[key] = &Entry{
		Key:          key,
		Value:        value,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
		LastAccessed: now,
	}
}

// Delete removes an entry
func (m *Memory) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

// SweepExpired removes all expired entries and returns the count removed
func (m *Memory) SweepExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for key, entry := range m.entries {
		if entry.IsExpired() {
			delete(m.entries, key)
			count++
		}
	}
	return count
}

// StartSweeper sweeps expired entries on the given interval until stop is
// closed. Prompt eviction is not required, only that expired entries are
// never served; the sweep bounds memory growth.
func (m *Memory) StartSweeper(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.SweepExpired()
			case <-stop:
				return
			}
		}
	}()
}

// Stats returns cache counters
func (m *Memory) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Stats{
		Entries: len(m.entries),
		Hits:    m.hits,
		Misses:  m.misses,
	}
	for _, entry := range m.entries {
		if entry.IsExpired() {
			s.Expired++
		}
	}
	return s
}

func (m *Memory) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	for key, entry := range m.entries {
		if oldestKey == "" || entry.CreatedAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.CreatedAt
		}
	}
	if oldestKey != "" {
		delete(m.entries, oldestKey)
	}
}

// None is a Cache that stores nothing. Used when caching is disabled.
type None struct{}

// Get always misses
func (None) Get(string) (interface{}, bool) { return nil, false }

// Put discards the value
func (None) Put(string, interface{}, time.Duration) {}
