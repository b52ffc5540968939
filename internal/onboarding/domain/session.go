package domain

import "time"

// SessionToken is the onboarding-aware view of a signed-in session.
type SessionToken struct {
	UserID               string
	UserType             UserType
	OnboardingCompleted  bool
	OnboardingRedirectTo string

	// EnrichedAt is when the onboarding fields were last computed.
	EnrichedAt time.Time
}

func (t SessionToken) Identity() Identity {
	return Identity{UserID: t.UserID, UserType: t.UserType}
}

// Enriched reports whether the onboarding fields have been computed.
func (t SessionToken) Enriched() bool {
	return t.OnboardingCompleted || t.OnboardingRedirectTo != ""
}
