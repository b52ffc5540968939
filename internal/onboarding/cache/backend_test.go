package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/bwirakes/temu-v2/internal/onboarding/cache"
	"github.com/bwirakes/temu-v2/internal/onboarding/domain"
	"github.com/stretchr/testify/require"
)

// testBackend exercises the behaviour both backends share.
func testBackend(t *testing.T, b cache.Backend) {
	ctx := context.Background()
	now := time.Now()
	key := "employer:01HX"

	_, ok, err := b.Get(ctx, key)
	require.NoError(t, err)
	require.False(t, ok)

	entry := cache.Entry{
		Status:    domain.OnboardingStatus{RedirectTo: "/employer/onboarding/kehadiran-online"},
		CachedAt:  now,
		ExpiresAt: now.Add(time.Minute),
	}

	gen, err := b.Generation(ctx, key)
	require.NoError(t, err)

	stored, err := b.SetIfGeneration(ctx, key, entry, gen)
	require.NoError(t, err)
	require.True(t, stored)

	got, ok, err := b.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, entry.Status, got.Status)
	require.WithinDuration(t, entry.ExpiresAt, got.ExpiresAt, time.Millisecond)
	require.True(t, got.Fresh(now))

	// A fill that started before an invalidation is dropped.
	require.NoError(t, b.Invalidate(ctx, key))
	_, ok, err = b.Get(ctx, key)
	require.NoError(t, err)
	require.False(t, ok)

	stored, err = b.SetIfGeneration(ctx, key, entry, gen)
	require.NoError(t, err)
	require.False(t, stored)

	gen, err = b.Generation(ctx, key)
	require.NoError(t, err)
	stored, err = b.SetIfGeneration(ctx, key, entry, gen)
	require.NoError(t, err)
	require.True(t, stored)
}

func TestMemoryBackend(t *testing.T) {
	testBackend(t, cache.NewMemory())
}

func TestMemorySweep(t *testing.T) {
	ctx := context.Background()
	m := cache.NewMemory()
	now := time.Now()

	for key, exp := range map[string]time.Time{
		"a": now.Add(-time.Hour),
		"b": now.Add(-time.Second),
		"c": now.Add(time.Hour),
	} {
		_, err := m.SetIfGeneration(ctx, key, cache.Entry{ExpiresAt: exp}, 0)
		require.NoError(t, err)
	}

	removed, err := m.Sweep(ctx, now.Add(-time.Minute))
	require.NoError(t, err)
	require.Equal(t, 1, removed)
	require.Equal(t, 2, m.Len())
}

func TestMemorySweepNeverRewindsGenerations(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	m := cache.NewMemory(cache.WithClock(func() time.Time { return now }))
	key := "job_seeker:01HX"

	stale, err := m.Generation(ctx, key)
	require.NoError(t, err)

	require.NoError(t, m.Invalidate(ctx, key))
	_, err = m.Sweep(ctx, now.Add(time.Second))
	require.NoError(t, err)

	stored, err := m.SetIfGeneration(ctx, key, cache.Entry{ExpiresAt: now.Add(time.Minute)}, stale)
	require.NoError(t, err)
	require.False(t, stored, "a fill from before the invalidation must not land")

	gen, err := m.Generation(ctx, key)
	require.NoError(t, err)
	require.Greater(t, gen, stale)
	stored, err = m.SetIfGeneration(ctx, key, cache.Entry{ExpiresAt: now.Add(time.Minute)}, gen)
	require.NoError(t, err)
	require.True(t, stored)

	// Later invalidations still move the key forward.
	require.NoError(t, m.Invalidate(ctx, key))
	next, err := m.Generation(ctx, key)
	require.NoError(t, err)
	require.Greater(t, next, gen)
}

func TestEntryFresh(t *testing.T) {
	now := time.Now()
	e := cache.Entry{ExpiresAt: now}
	require.False(t, e.Fresh(now))
	require.True(t, e.Fresh(now.Add(-time.Nanosecond)))
}
