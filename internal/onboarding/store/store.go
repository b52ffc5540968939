package store

import (
	"context"
	"errors"
	"time"

	"github.com/bwirakes/temu-v2/internal/onboarding/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. Repositories hang off it as methods so that a transaction
// scoped Store can hand out the same repositories bound to the transaction.
type Store interface {
	Users() Users
	EmployerProfiles() EmployerProfiles
	OnboardingProgress() OnboardingProgress

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing if fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during sign-in. Emails are stored lower-cased.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	// Returns ErrAlreadyExists if the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// MarkOnboardingCompleted sets onboarding_completed. It never clears it.
	MarkOnboardingCompleted(ctx context.Context, userID string, now time.Time) error
}

type EmployerProfiles interface {
	GetProfile(ctx context.Context, userID string) (domain.EmployerProfile, error)

	// UpsertProfile writes the completed profile for an employer.
	UpsertProfile(ctx context.Context, p domain.EmployerProfile) error

	ProfileExists(ctx context.Context, userID string) (bool, error)
}

type OnboardingProgress interface {
	GetProgress(ctx context.Context, userID string) (domain.StepProgress, error)

	// EnsureStarted creates the progress record at step 1 unless one exists,
	// then returns whatever record is stored. Safe to race.
	EnsureStarted(ctx context.Context, userID string, now time.Time) (domain.StepProgress, error)

	// SaveProgress overwrites the step pointer and status.
	SaveProgress(ctx context.Context, p domain.StepProgress) error
}
