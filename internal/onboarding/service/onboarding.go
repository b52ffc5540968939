package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwirakes/temu-v2/internal/onboarding/domain"
	"github.com/bwirakes/temu-v2/internal/onboarding/store"
)

// Invalidator drops cached status after a write that changes it.
type Invalidator interface {
	Invalidate(ctx context.Context, id domain.Identity) error
}

// OnboardingService owns the writes that move a user through onboarding.
// Every write invalidates the cached status once it has committed.
type OnboardingService struct {
	Store  store.Store
	Cache  Invalidator
	Logger *slog.Logger
	Now    func() time.Time
}

type EmployerProfileInput struct {
	CompanyName  string
	Website      string
	ContactName  string
	ContactPhone string
}

func (s *OnboardingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *OnboardingService) invalidate(ctx context.Context, id domain.Identity) {
	if err := s.Cache.Invalidate(ctx, id); err != nil && s.Logger != nil {
		s.Logger.WarnContext(ctx, "status invalidation after write failed", "user_id", id.UserID, "err", err)
	}
}

// CompleteJobSeeker records that a job seeker finished onboarding.
func (s *OnboardingService) CompleteJobSeeker(ctx context.Context, id domain.Identity) error {
	if id.UserType != domain.UserTypeJobSeeker {
		return ErrWrongUserType
	}

	if err := s.Store.Users().MarkOnboardingCompleted(ctx, id.UserID, s.now()); err != nil {
		return fmt.Errorf("mark onboarding completed: %w", err)
	}
	s.invalidate(ctx, id)
	return nil
}

// SaveEmployerStep moves an employer's progress pointer to step.
func (s *OnboardingService) SaveEmployerStep(ctx context.Context, id domain.Identity, step int) (domain.StepProgress, error) {
	if id.UserType != domain.UserTypeEmployer {
		return domain.StepProgress{}, ErrWrongUserType
	}
	paths := domain.DefaultPathTable()[domain.UserTypeEmployer]
	if step < 1 || step > len(paths.Steps) {
		return domain.StepProgress{}, fmt.Errorf("%w: step must be between 1 and %d", ErrInvalidInput, len(paths.Steps))
	}

	now := s.now()
	p := domain.StepProgress{
		UserID:      id.UserID,
		CurrentStep: step,
		Status:      domain.ProgressInProgress,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Store.OnboardingProgress().SaveProgress(ctx, p); err != nil {
		return domain.StepProgress{}, fmt.Errorf("save progress: %w", err)
	}
	s.invalidate(ctx, id)
	return p, nil
}

// CompleteEmployerProfile writes the profile, closes the step progress and
// flags the user as onboarded in one transaction.
func (s *OnboardingService) CompleteEmployerProfile(ctx context.Context, id domain.Identity, in EmployerProfileInput) (domain.EmployerProfile, error) {
	if id.UserType != domain.UserTypeEmployer {
		return domain.EmployerProfile{}, ErrWrongUserType
	}
	if strings.TrimSpace(in.CompanyName) == "" {
		return domain.EmployerProfile{}, fmt.Errorf("%w: company name is required", ErrInvalidInput)
	}

	now := s.now()
	profile := domain.EmployerProfile{
		UserID:       id.UserID,
		CompanyName:  strings.TrimSpace(in.CompanyName),
		Website:      strings.TrimSpace(in.Website),
		ContactName:  strings.TrimSpace(in.ContactName),
		ContactPhone: strings.TrimSpace(in.ContactPhone),
		CompletedAt:  now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.EmployerProfiles().UpsertProfile(ctx, profile); err != nil {
			return fmt.Errorf("save employer profile: %w", err)
		}
		steps := len(domain.DefaultPathTable()[domain.UserTypeEmployer].Steps)
		if err := tx.OnboardingProgress().SaveProgress(ctx, domain.StepProgress{
			UserID:      id.UserID,
			CurrentStep: steps,
			Status:      domain.ProgressCompleted,
			UpdatedAt:   now,
		}); err != nil {
			return fmt.Errorf("close onboarding progress: %w", err)
		}
		if err := tx.Users().MarkOnboardingCompleted(ctx, id.UserID, now); err != nil {
			return fmt.Errorf("mark onboarding completed: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.EmployerProfile{}, err
	}

	s.invalidate(ctx, id)
	return profile, nil
}
