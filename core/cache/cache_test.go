// Package cache - TTL cache behavior tests
package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// TestMemoryPutGet verifies the basic round trip
func TestMemoryPutGet(t *testing.T) {
	m := NewMemory(0)
	m.Put("k", 42, time.Minute)

	got, ok := m.Get("k")
	if !ok {
		t.Fatal("expected hit")
	}
	if got.(int) != 42 {
		t.Errorf("value = %v, want 42", got)
	}

	if _, ok := m.Get("absent"); ok {
		t.Error("expected miss for absent key")
	}
}

// TestMemoryNeverServesExpired verifies an expired entry is never returned
func TestMemoryNeverServesExpired(t *testing.T) {
	m := NewMemory(0)
	m.Put("k", "v", 10*time.Millisecond)

	time.Sleep(25 * time.Millisecond)

	if _, ok := m.Get("k"); ok {
		t.Fatal("expired entry was served")
	}

	// Lazy expiry removed it on access.
	if s := m.Stats(); s.Entries != 0 {
		t.Errorf("entries after expired read = %d, want 0", s.Entries)
	}
}

// TestMemorySweepExpired verifies the sweep removes only expired entries
func TestMemorySweepExpired(t *testing.T) {
	m := NewMemory(0)
	m.Put("short-a", 1, 5*time.Millisecond)
	m.Put("short-b", 2, 5*time.Millisecond)
	m.Put("long", 3, time.Hour)

	time.Sleep(20 * time.Millisecond)

	if removed := m.SweepExpired(); removed != 2 {
		t.Errorf("swept = %d, want 2", removed)
	}
	if _, ok := m.Get("long"); !ok {
		t.Error("unexpired entry was swept")
	}
}

// TestMemoryEvictsOldestWhenFull verifies the max-entries bound
func TestMemoryEvictsOldestWhenFull(t *testing.T) {
	m := NewMemory(2)
	m.Put("first", 1, time.Hour)
	time.Sleep(2 * time.Millisecond)
	m.Put("second", 2, time.Hour)
	time.Sleep(2 * time.Millisecond)
	m.Put("third", 3, time.Hour)

	if _, ok := m.Get("first"); ok {
		t.Error("oldest entry survived eviction")
	}
	if _, ok := m.Get("second"); !ok {
		t.Error("second entry was evicted")
	}
	if _, ok := m.Get("third"); !ok {
		t.Error("newest entry missing")
	}
	if s := m.Stats(); s.Entries != 2 {
		t.Errorf("entries = %d, want 2", s.Entries)
	}
}

// TestMemoryOverwriteDoesNotEvict verifies replacing an existing key at the
// size bound keeps the other entries
func TestMemoryOverwriteDoesNotEvict(t *testing.T) {
	m := NewMemory(2)
	m.Put("a", 1, time.Hour)
	m.Put("b", 2, time.Hour)
	m.Put("a", 10, time.Hour)

	if _, ok := m.Get("b"); !ok {
		t.Error("entry b evicted by an overwrite of a")
	}
	got, ok := m.Get("a")
	if !ok || got.(int) != 10 {
		t.Errorf("a = %v (%v), want 10", got, ok)
	}
}

// TestMemoryDelete verifies explicit invalidation
func TestMemoryDelete(t *testing.T) {
	m := NewMemory(0)
	m.Put("k", 1, time.Hour)
	m.Put("other", 2, time.Hour)

	m.Delete("k")

	if _, ok := m.Get("k"); ok {
		t.Error("deleted entry was served")
	}
	if _, ok := m.Get("other"); !ok {
		t.Error("unrelated entry removed by delete")
	}

	// Deleting an absent key is a no-op.
	m.Delete("absent")
}

// TestMemoryStatsCounters verifies hit and miss accounting
func TestMemoryStatsCounters(t *testing.T) {
	m := NewMemory(0)
	m.Put("k", 1, time.Hour)

	m.Get("k")
	m.Get("k")
	m.Get("absent")

	s := m.Stats()
	if s.Hits != 2 {
		t.Errorf("hits = %d, want 2", s.Hits)
	}
	if s.Misses != 1 {
		t.Errorf("misses = %d, want 1", s.Misses)
	}
}

// TestMemoryConcurrentAccess verifies concurrent readers and writers do not
// race or corrupt entries
func TestMemoryConcurrentAccess(t *testing.T) {
	m := NewMemory(0)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("key-%d", i%10)
				m.Put(key, i, time.Minute)
				if v, ok := m.Get(key); ok {
					if _, isInt := v.(int); !isInt {
						t.Errorf("corrupted value type %T", v)
						return
					}
				}
			}
		}(g)
	}
	wg.Wait()

	if s := m.Stats(); s.Entries != 10 {
		t.Errorf("entries = %d, want 10", s.Entries)
	}
}

// TestStartSweeperStops verifies the background sweeper honors stop
func TestStartSweeperStops(t *testing.T) {
	m := NewMemory(0)
	m.Put("k", 1, time.Millisecond)

	stop := make(chan struct{})
	m.StartSweeper(5*time.Millisecond, stop)

	time.Sleep(25 * time.Millisecond)
	if s := m.Stats(); s.Entries != 0 {
		t.Errorf("entries after sweep = %d, want 0", s.Entries)
	}
	close(stop)
}

// TestNoneCache verifies the disabled cache stores nothing
func TestNoneCache(t *testing.T) {
	var c Cache = None{}
	c.Put("k", 1, time.Hour)
	if _, ok := c.Get("k"); ok {
		t.Error("None cache returned a value")
	}
}
