package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwirakes/temu-v2/internal/onboarding/domain"
	"github.com/bwirakes/temu-v2/internal/onboarding/store"
)

// StatusResolver maps persisted onboarding state to a routing status. It has
// no side effects.
type StatusResolver struct {
	paths domain.PathTable
}

func NewStatusResolver(paths domain.PathTable) *StatusResolver {
	return &StatusResolver{paths: paths}
}

// Paths returns the route table the resolver was built with.
func (r *StatusResolver) Paths() domain.PathTable { return r.paths }

// Resolve never returns an incomplete status without a redirect. Unknown
// user types resolve to completed with a redirect home.
func (r *StatusResolver) Resolve(ut domain.UserType, raw domain.RawStatus) domain.OnboardingStatus {
	p, ok := r.paths.For(ut)
	if !ok {
		return domain.OnboardingStatus{Completed: true, RedirectTo: "/"}
	}

	switch ut {
	case domain.UserTypeEmployer:
		if raw.ProfileExists {
			return domain.OnboardingStatus{Completed: true, RedirectTo: p.Dashboard}
		}
		if raw.Progress == nil {
			return domain.OnboardingStatus{RedirectTo: p.StepPath(1)}
		}
		if raw.Progress.Status == domain.ProgressCompleted {
			// The steps are done but the profile was never written.
			return domain.OnboardingStatus{RedirectTo: p.Confirmation}
		}
		return domain.OnboardingStatus{RedirectTo: p.StepPath(raw.Progress.CurrentStep)}

	default:
		if raw.CompletedFlag {
			return domain.OnboardingStatus{Completed: true, RedirectTo: p.Dashboard}
		}
		return domain.OnboardingStatus{RedirectTo: p.OnboardingDefault}
	}
}

// Fallback is the conservative status used when the real one is unknown.
func (r *StatusResolver) Fallback(ut domain.UserType) domain.OnboardingStatus {
	p, ok := r.paths.For(ut)
	if !ok {
		return domain.OnboardingStatus{Completed: true, RedirectTo: "/", Fallback: true}
	}
	return domain.OnboardingStatus{RedirectTo: p.OnboardingDefault, Fallback: true}
}

// Dashboard is the landing page of a user who finished onboarding.
func (r *StatusResolver) Dashboard(ut domain.UserType) string {
	if p, ok := r.paths.For(ut); ok {
		return p.Dashboard
	}
	return "/"
}

// StoreFetcher reads RawStatus from the store and resolves it. Fetch
// satisfies FetchFunc.
type StoreFetcher struct {
	Store    store.Store
	Resolver *StatusResolver
	Now      func() time.Time
}

func (f *StoreFetcher) Fetch(ctx context.Context, id domain.Identity) (domain.OnboardingStatus, error) {
	raw, err := f.FetchRaw(ctx, id)
	if err != nil {
		return domain.OnboardingStatus{}, err
	}
	return f.Resolver.Resolve(id.UserType, raw), nil
}

// FetchRaw loads the persisted state. Employers without a progress record
// get one created at step 1.
func (f *StoreFetcher) FetchRaw(ctx context.Context, id domain.Identity) (domain.RawStatus, error) {
	u, err := f.Store.Users().GetUserByID(ctx, id.UserID)
	if err != nil {
		return domain.RawStatus{}, fmt.Errorf("load user: %w", err)
	}
	if u.UserType != id.UserType {
		return domain.RawStatus{}, ErrWrongUserType
	}

	raw := domain.RawStatus{CompletedFlag: u.OnboardingCompleted}
	if id.UserType != domain.UserTypeEmployer {
		return raw, nil
	}

	raw.ProfileExists, err = f.Store.EmployerProfiles().ProfileExists(ctx, id.UserID)
	if err != nil {
		return domain.RawStatus{}, fmt.Errorf("check employer profile: %w", err)
	}
	if raw.ProfileExists {
		return raw, nil
	}

	progress, err := f.Store.OnboardingProgress().GetProgress(ctx, id.UserID)
	if errors.Is(err, store.ErrNotFound) {
		progress, err = f.Store.OnboardingProgress().EnsureStarted(ctx, id.UserID, f.now())
	}
	if err != nil {
		return domain.RawStatus{}, fmt.Errorf("load onboarding progress: %w", err)
	}
	raw.Progress = &progress
	return raw, nil
}

func (f *StoreFetcher) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}
