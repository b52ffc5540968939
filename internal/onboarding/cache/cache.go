// Package cache stores resolved onboarding statuses keyed by identity.
//
// Writes are guarded by a per-key generation: Invalidate bumps it, and a
// conditional Set made with an older generation is dropped. A fetch that
// started before an invalidation therefore cannot resurrect stale data.
package cache

import (
	"context"
	"time"

	"github.com/bwirakes/temu-v2/internal/onboarding/domain"
)

// Entry is one cached status. Entries are replaced, never mutated.
type Entry struct {
	Status    domain.OnboardingStatus
	CachedAt  time.Time
	ExpiresAt time.Time
}

// Fresh reports whether the entry may be served as-is at now.
func (e Entry) Fresh(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}

// Backend is safe for concurrent use. Get may return expired entries so the
// caller can inspect the last known answer.
type Backend interface {
	Get(ctx context.Context, key string) (Entry, bool, error)

	// Generation returns the current invalidation generation of key.
	Generation(ctx context.Context, key string) (uint64, error)

	// SetIfGeneration stores e only if the generation of key is still gen.
	SetIfGeneration(ctx context.Context, key string, e Entry, gen uint64) (bool, error)

	// Invalidate drops the entry and bumps the generation.
	Invalidate(ctx context.Context, key string) error

	// Sweep drops entries that expired before cutoff.
	Sweep(ctx context.Context, cutoff time.Time) (int, error)
}
