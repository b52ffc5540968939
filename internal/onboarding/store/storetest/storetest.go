// Package storetest holds the behaviour every store driver must share.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwirakes/temu-v2/internal/onboarding/domain"
	"github.com/bwirakes/temu-v2/internal/onboarding/store"
	"github.com/bwirakes/temu-v2/pkg/idx"
	"github.com/stretchr/testify/require"
)

// Run executes the contract suite. newStore must return a migrated, empty store.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("employer profiles", func(t *testing.T) { testProfiles(t, newStore(t)) })
	t.Run("progress", func(t *testing.T) { testProgress(t, newStore(t)) })
	t.Run("ensure started races", func(t *testing.T) { testEnsureStartedRace(t, newStore(t)) })
	t.Run("transactions", func(t *testing.T) { testWithTx(t, newStore(t)) })
}

// NewUser inserts a user of the given type and returns it.
func NewUser(t *testing.T, s store.Store, ut domain.UserType) domain.User {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	id := idx.New().String()
	u := domain.User{
		ID:           id,
		Email:        id + "@example.com",
		Name:         "Test " + string(ut),
		PasswordHash: "$argon2id$dummy",
		UserType:     ut,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := NewUser(t, s, domain.UserTypeJobSeeker)

	got, err := s.Users().GetUserByEmail(ctx, u.Email)
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.Equal(t, domain.UserTypeJobSeeker, got.UserType)
	require.False(t, got.OnboardingCompleted)
	require.True(t, u.CreatedAt.Equal(got.CreatedAt))

	dup := u
	dup.ID = idx.New().String()
	require.ErrorIs(t, s.Users().CreateUser(ctx, dup), store.ErrAlreadyExists)

	require.NoError(t, s.Users().MarkOnboardingCompleted(ctx, u.ID, time.Now()))
	got, err = s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, got.OnboardingCompleted)

	_, err = s.Users().GetUserByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
	require.ErrorIs(t, s.Users().MarkOnboardingCompleted(ctx, "missing", time.Now()), store.ErrNotFound)
}

func testProfiles(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := NewUser(t, s, domain.UserTypeEmployer)

	exists, err := s.EmployerProfiles().ProfileExists(ctx, u.ID)
	require.NoError(t, err)
	require.False(t, exists)

	now := time.Now().UTC().Truncate(time.Second)
	p := domain.EmployerProfile{
		UserID:      u.ID,
		CompanyName: "PT Contoh",
		Website:     "https://contoh.co.id",
		CompletedAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, s.EmployerProfiles().UpsertProfile(ctx, p))

	p.CompanyName = "PT Contoh Baru"
	require.NoError(t, s.EmployerProfiles().UpsertProfile(ctx, p))

	got, err := s.EmployerProfiles().GetProfile(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "PT Contoh Baru", got.CompanyName)

	exists, err = s.EmployerProfiles().ProfileExists(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, exists)

	_, err = s.EmployerProfiles().GetProfile(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testProgress(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := NewUser(t, s, domain.UserTypeEmployer)

	_, err := s.OnboardingProgress().GetProgress(ctx, u.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	p, err := s.OnboardingProgress().EnsureStarted(ctx, u.ID, time.Now())
	require.NoError(t, err)
	require.Equal(t, 1, p.CurrentStep)
	require.Equal(t, domain.ProgressNotStarted, p.Status)

	require.NoError(t, s.OnboardingProgress().SaveProgress(ctx, domain.StepProgress{
		UserID:      u.ID,
		CurrentStep: 3,
		Status:      domain.ProgressInProgress,
		UpdatedAt:   time.Now(),
	}))

	// EnsureStarted never resets existing progress.
	p, err = s.OnboardingProgress().EnsureStarted(ctx, u.ID, time.Now())
	require.NoError(t, err)
	require.Equal(t, 3, p.CurrentStep)
	require.Equal(t, domain.ProgressInProgress, p.Status)
}

func testEnsureStartedRace(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := NewUser(t, s, domain.UserTypeEmployer)

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := s.OnboardingProgress().EnsureStarted(ctx, u.ID, time.Now())
			if err == nil && p.CurrentStep != 1 {
				err = errors.New("unexpected step")
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	p, err := s.OnboardingProgress().GetProgress(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, 1, p.CurrentStep)
}

func testWithTx(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := NewUser(t, s, domain.UserTypeJobSeeker)

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.Users().MarkOnboardingCompleted(ctx, u.ID, time.Now()))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.False(t, got.OnboardingCompleted, "rolled back")

	require.NoError(t, s.WithTx(ctx, func(tx store.Tx) error {
		return tx.Users().MarkOnboardingCompleted(ctx, u.ID, time.Now())
	}))
	got, err = s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, got.OnboardingCompleted)
}
