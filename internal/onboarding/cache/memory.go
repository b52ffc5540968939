package cache

import (
	"context"
	"sync"
	"time"
)

type generation struct {
	n  uint64
	at time.Time
}

// Memory is an in-process Backend.
//
// Generations come from one sequence shared by all keys. A key whose
// generation was forgotten by Sweep reports floor, the highest generation
// forgotten so far, so it never goes back to a value an older fetch holds.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]Entry
	gens    map[string]generation
	seq     uint64
	floor   uint64
	now     func() time.Time
}

type MemoryOption func(*Memory)

// WithClock replaces time.Now for generation timestamps. Give it the same
// clock as the StatusStore that sweeps this backend.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[string]Entry),
		gens:    make(map[string]generation),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) generation(key string) uint64 {
	if g, ok := m.gens[key]; ok {
		return g.n
	}
	return m.floor
}

func (m *Memory) Get(_ context.Context, key string) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	return e, ok, nil
}

func (m *Memory) Generation(_ context.Context, key string) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.generation(key), nil
}

func (m *Memory) SetIfGeneration(_ context.Context, key string, e Entry, gen uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation(key) != gen {
		return false, nil
	}
	m.entries[key] = e
	return true, nil
}

func (m *Memory) Invalidate(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	m.seq++
	m.gens[key] = generation{n: m.seq, at: m.now()}
	return nil
}

// Sweep also forgets generations bumped before cutoff and raises floor past
// them.
func (m *Memory) Sweep(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for k, e := range m.entries {
		if e.ExpiresAt.Before(cutoff) {
			delete(m.entries, k)
			removed++
		}
	}
	for k, g := range m.gens {
		if _, live := m.entries[k]; !live && g.at.Before(cutoff) {
			delete(m.gens, k)
			m.floor = max(m.floor, g.n)
		}
	}
	return removed, nil
}

// Len is the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
