package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwirakes/temu-v2/internal/onboarding/cache"
	"github.com/bwirakes/temu-v2/internal/onboarding/domain"
	"github.com/bwirakes/temu-v2/internal/onboarding/service"
	"github.com/stretchr/testify/require"
)

func newStatusStore(t *testing.T, f *fakeFetcher, clock *fakeClock) (*service.StatusStore, *cache.Memory) {
	t.Helper()
	mem := cache.NewMemory(cache.WithClock(clock.Now))
	cfg := service.DefaultStatusStoreConfig()
	s := service.NewStatusStore(mem, f.Fetch, newResolver(), cfg, service.WithClock(clock.Now), discardLogger())
	return s, mem
}

func TestStatusStoreRespectsTTL(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	f := &fakeFetcher{}
	f.set(domain.OnboardingStatus{RedirectTo: "/employer/onboarding/kehadiran-online"}, nil)
	s, _ := newStatusStore(t, f, clock)
	cfg := service.DefaultStatusStoreConfig()

	st, err := s.Get(ctx, employer)
	require.NoError(t, err)
	require.Equal(t, "/employer/onboarding/kehadiran-online", st.RedirectTo)
	require.EqualValues(t, 1, f.calls.Load())

	clock.Advance(cfg.IncompleteTTL - time.Millisecond)
	_, err = s.Get(ctx, employer)
	require.NoError(t, err)
	require.EqualValues(t, 1, f.calls.Load(), "within TTL must not refetch")

	clock.Advance(time.Millisecond)
	_, err = s.Get(ctx, employer)
	require.NoError(t, err)
	require.EqualValues(t, 2, f.calls.Load(), "after TTL must refetch")
}

func TestStatusStoreCompletedTTLIsLonger(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	f := &fakeFetcher{}
	f.set(domain.OnboardingStatus{Completed: true, RedirectTo: "/employer/dashboard"}, nil)
	s, _ := newStatusStore(t, f, clock)
	cfg := service.DefaultStatusStoreConfig()

	_, err := s.Get(ctx, employer)
	require.NoError(t, err)

	clock.Advance(cfg.IncompleteTTL * 10)
	st, err := s.Get(ctx, employer)
	require.NoError(t, err)
	require.True(t, st.Completed)
	require.EqualValues(t, 1, f.calls.Load())

	clock.Advance(cfg.CompletedTTL)
	_, err = s.Get(ctx, employer)
	require.NoError(t, err)
	require.EqualValues(t, 2, f.calls.Load())
}

func TestStatusStoreFallbackOnFetchError(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	f := &fakeFetcher{}
	f.set(domain.OnboardingStatus{}, errDBDown)
	s, _ := newStatusStore(t, f, clock)
	cfg := service.DefaultStatusStoreConfig()

	for _, tc := range []struct {
		id   domain.Identity
		want string
	}{
		{employer, "/employer/onboarding/informasi-perusahaan"},
		{jobSeeker, "/job-seeker/onboarding/informasi-dasar"},
	} {
		st, err := s.Get(ctx, tc.id)
		require.NoError(t, err)
		require.False(t, st.Completed)
		require.Equal(t, tc.want, st.RedirectTo)
		require.True(t, st.Fallback)
	}
	require.EqualValues(t, 2, f.calls.Load())

	// The fallback is cached briefly, then retried.
	_, err := s.Get(ctx, employer)
	require.NoError(t, err)
	require.EqualValues(t, 2, f.calls.Load())

	f.set(domain.OnboardingStatus{RedirectTo: "/employer/onboarding/penanggung-jawab"}, nil)
	clock.Advance(cfg.FallbackTTL)
	st, err := s.Get(ctx, employer)
	require.NoError(t, err)
	require.False(t, st.Fallback)
	require.Equal(t, "/employer/onboarding/penanggung-jawab", st.RedirectTo)
	require.EqualValues(t, 3, f.calls.Load())
}

func TestStatusStoreKeepsKnownCompletionOnFetchError(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	f := &fakeFetcher{}
	f.set(domain.OnboardingStatus{Completed: true, RedirectTo: "/employer/dashboard"}, nil)
	s, _ := newStatusStore(t, f, clock)
	cfg := service.DefaultStatusStoreConfig()

	_, err := s.Get(ctx, employer)
	require.NoError(t, err)

	clock.Advance(cfg.CompletedTTL)
	f.set(domain.OnboardingStatus{}, errDBDown)

	st, err := s.Get(ctx, employer)
	require.NoError(t, err)
	require.True(t, st.Completed, "a failed refetch must not un-complete a known user")
	require.True(t, st.Fallback)
	require.Equal(t, "/employer/dashboard", st.RedirectTo)
}

func TestStatusStoreInvalidate(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	f := &fakeFetcher{}
	f.set(domain.OnboardingStatus{RedirectTo: "/job-seeker/onboarding/informasi-dasar"}, nil)
	s, _ := newStatusStore(t, f, clock)

	_, err := s.Get(ctx, jobSeeker)
	require.NoError(t, err)

	f.set(domain.OnboardingStatus{Completed: true, RedirectTo: "/job-seeker/dashboard"}, nil)
	require.NoError(t, s.Invalidate(ctx, jobSeeker))

	st, err := s.Get(ctx, jobSeeker)
	require.NoError(t, err)
	require.True(t, st.Completed)
	require.EqualValues(t, 2, f.calls.Load())
}

func TestStatusStoreDropsFetchOverlappingInvalidation(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	f := &fakeFetcher{block: make(chan struct{})}
	f.set(domain.OnboardingStatus{RedirectTo: "/job-seeker/onboarding/informasi-dasar"}, nil)
	s, mem := newStatusStore(t, f, clock)

	done := make(chan domain.OnboardingStatus)
	go func() {
		st, _ := s.Get(ctx, jobSeeker)
		done <- st
	}()

	require.Eventually(t, func() bool { return f.calls.Load() == 1 }, time.Second, time.Millisecond)
	require.NoError(t, s.Invalidate(ctx, jobSeeker))
	close(f.block)

	st := <-done
	require.False(t, st.Completed)

	_, ok, err := mem.Get(ctx, jobSeeker.Key())
	require.NoError(t, err)
	require.False(t, ok, "a fetch that straddled an invalidation must not be cached")
}

func TestStatusStoreSharesConcurrentFetches(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	f := &fakeFetcher{block: make(chan struct{})}
	f.set(domain.OnboardingStatus{RedirectTo: "/employer/onboarding/kehadiran-online"}, nil)
	s, _ := newStatusStore(t, f, clock)

	const n = 10
	var wg sync.WaitGroup
	results := make(chan domain.OnboardingStatus, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st, _ := s.Get(ctx, employer)
			results <- st
		}()
	}

	require.Eventually(t, func() bool { return f.calls.Load() >= 1 }, time.Second, time.Millisecond)
	close(f.block)
	wg.Wait()
	close(results)

	for st := range results {
		require.Equal(t, "/employer/onboarding/kehadiran-online", st.RedirectTo)
	}
	require.LessOrEqual(t, f.calls.Load(), int32(n))
}

func TestStatusStoreCallerCancellation(t *testing.T) {
	clock := newFakeClock()
	f := &fakeFetcher{block: make(chan struct{})}
	f.set(domain.OnboardingStatus{Completed: true, RedirectTo: "/employer/dashboard"}, nil)
	s, mem := newStatusStore(t, f, clock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	st, err := s.Get(ctx, employer)
	require.NoError(t, err)
	require.True(t, st.Fallback)
	require.Equal(t, "/employer/onboarding/informasi-perusahaan", st.RedirectTo)

	// The shared fetch carries on and fills the cache for the next caller.
	close(f.block)
	require.Eventually(t, func() bool {
		e, ok, _ := mem.Get(context.Background(), employer.Key())
		return ok && e.Status.Completed
	}, time.Second, time.Millisecond)
}

func TestStatusStoreFetchTimeout(t *testing.T) {
	clock := newFakeClock()
	f := &fakeFetcher{block: make(chan struct{})}
	cfg := service.DefaultStatusStoreConfig()
	cfg.FetchTimeout = 10 * time.Millisecond
	s := service.NewStatusStore(cache.NewMemory(), f.Fetch, newResolver(), cfg,
		service.WithClock(clock.Now), discardLogger())

	st, err := s.Get(context.Background(), employer)
	require.NoError(t, err)
	require.True(t, st.Fallback)
	require.False(t, st.Completed)
}

func TestStatusStoreIdentityChecks(t *testing.T) {
	f := &fakeFetcher{}
	s, _ := newStatusStore(t, f, newFakeClock())

	_, err := s.Get(context.Background(), domain.Identity{UserType: domain.UserTypeEmployer})
	require.ErrorIs(t, err, service.ErrInvalidIdentity)

	st, err := s.Get(context.Background(), domain.Identity{UserID: "x", UserType: "admin"})
	require.NoError(t, err)
	require.Equal(t, domain.OnboardingStatus{Completed: true, RedirectTo: "/"}, st)
	require.Zero(t, f.calls.Load())
}

func TestStatusStoreIncompleteAlwaysHasRedirect(t *testing.T) {
	f := &fakeFetcher{}
	f.set(domain.OnboardingStatus{}, nil)
	s, _ := newStatusStore(t, f, newFakeClock())

	st, err := s.Get(context.Background(), jobSeeker)
	require.NoError(t, err)
	require.False(t, st.Completed)
	require.NotEmpty(t, st.RedirectTo)
}

func TestStatusStoreSweep(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	f := &fakeFetcher{}
	f.set(domain.OnboardingStatus{RedirectTo: "/job-seeker/onboarding/informasi-dasar"}, nil)
	s, mem := newStatusStore(t, f, clock)

	_, err := s.Get(ctx, jobSeeker)
	require.NoError(t, err)
	require.Equal(t, 1, mem.Len())

	clock.Advance(time.Minute)
	removed, err := s.Sweep(ctx)
	require.NoError(t, err)
	require.Zero(t, removed, "recently expired entries are retained")

	clock.Advance(service.DefaultStatusStoreConfig().Retain)
	removed, err = s.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, removed)
}

func TestStatusStoreSweepDuringFetchKeepsInvalidation(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	f := &fakeFetcher{block: make(chan struct{})}
	f.set(domain.OnboardingStatus{RedirectTo: "/job-seeker/onboarding/informasi-dasar"}, nil)

	mem := cache.NewMemory(cache.WithClock(clock.Now))
	cfg := service.DefaultStatusStoreConfig()
	cfg.Retain = 0
	s := service.NewStatusStore(mem, f.Fetch, newResolver(), cfg, service.WithClock(clock.Now), discardLogger())

	done := make(chan domain.OnboardingStatus, 1)
	go func() {
		st, _ := s.Get(ctx, jobSeeker)
		done <- st
	}()
	require.Eventually(t, func() bool { return f.calls.Load() == 1 }, time.Second, time.Millisecond)

	// Onboarding completes while the first fetch is still running, and the
	// invalidation is swept before that fetch returns.
	require.NoError(t, s.Invalidate(ctx, jobSeeker))
	clock.Advance(time.Second)
	_, err := s.Sweep(ctx)
	require.NoError(t, err)

	close(f.block)
	stale := <-done
	require.False(t, stale.Completed)

	f.set(domain.OnboardingStatus{Completed: true, RedirectTo: "/job-seeker/dashboard"}, nil)
	st, err := s.Get(ctx, jobSeeker)
	require.NoError(t, err)
	require.True(t, st.Completed)
	require.EqualValues(t, 2, f.calls.Load())
}
