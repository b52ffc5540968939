package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwirakes/temu-v2/internal/onboarding/domain"
	"github.com/bwirakes/temu-v2/internal/onboarding/service"
	"github.com/bwirakes/temu-v2/internal/onboarding/store"
	"github.com/bwirakes/temu-v2/internal/onboarding/store/drivers/sqlite"
	"github.com/bwirakes/temu-v2/pkg/slogx"
	"github.com/stretchr/testify/require"
)

var errDBDown = errors.New("db down")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeFetcher returns a programmable status and counts calls.
type fakeFetcher struct {
	mu     sync.Mutex
	status domain.OnboardingStatus
	err    error
	calls  atomic.Int32

	// block, when set, holds every fetch until closed.
	block chan struct{}
}

func (f *fakeFetcher) set(st domain.OnboardingStatus, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status, f.err = st, err
}

func (f *fakeFetcher) Fetch(ctx context.Context, _ domain.Identity) (domain.OnboardingStatus, error) {
	f.calls.Add(1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return domain.OnboardingStatus{}, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, f.err
}

// countingLookup wraps a StatusLookup and counts Get calls.
type countingLookup struct {
	next  service.StatusLookup
	calls atomic.Int32
}

func (c *countingLookup) Get(ctx context.Context, id domain.Identity) (domain.OnboardingStatus, error) {
	c.calls.Add(1)
	return c.next.Get(ctx, id)
}

// staticLookup always answers with the same status.
type staticLookup struct {
	status domain.OnboardingStatus
	err    error
}

func (s staticLookup) Get(context.Context, domain.Identity) (domain.OnboardingStatus, error) {
	return s.status, s.err
}

func newResolver() *service.StatusResolver {
	return service.NewStatusResolver(domain.DefaultPathTable())
}

func newSQLiteStore(t *testing.T) store.Store {
	t.Helper()
	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())
	return s
}

var (
	jobSeeker = domain.Identity{UserID: "js-1", UserType: domain.UserTypeJobSeeker}
	employer  = domain.Identity{UserID: "emp-1", UserType: domain.UserTypeEmployer}
)

func discardLogger() service.StatusStoreOption {
	return service.WithLogger(slogx.Discard())
}
