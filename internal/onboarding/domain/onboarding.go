package domain

import "time"

// OnboardingStatus is the resolved onboarding state of one identity.
// RedirectTo is never empty when Completed is false.
type OnboardingStatus struct {
	Completed  bool
	RedirectTo string

	// Fallback marks a degraded answer served because the status could not
	// be fetched.
	Fallback bool
}

type ProgressStatus string

const (
	ProgressNotStarted ProgressStatus = "NOT_STARTED"
	ProgressInProgress ProgressStatus = "IN_PROGRESS"
	ProgressCompleted  ProgressStatus = "COMPLETED"
)

func (s ProgressStatus) Valid() bool {
	switch s {
	case ProgressNotStarted, ProgressInProgress, ProgressCompleted:
		return true
	}
	return false
}

// StepProgress tracks an employer through the multi-step onboarding flow.
// CurrentStep is 1-based.
type StepProgress struct {
	UserID      string
	CurrentStep int
	Status      ProgressStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RawStatus is what the persistence layer knows about an identity before
// any routing decision is made.
type RawStatus struct {
	// CompletedFlag is users.onboarding_completed.
	CompletedFlag bool

	// ProfileExists is true once an employer profile has been completed.
	ProfileExists bool

	// Progress is nil if the employer never started onboarding.
	Progress *StepProgress
}

type EmployerProfile struct {
	UserID       string
	CompanyName  string
	Website      string
	ContactName  string
	ContactPhone string
	CompletedAt  time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
