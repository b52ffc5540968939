package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionTTL is the lifetime of a browser session token.
const DefaultSessionTTL = 24 * time.Hour

// Claims are the session-token claims. The onboarding fields are rewritten
// when a session is refreshed; everything in RegisteredClaims is fixed at
// sign-in so a refresh never extends the session lifetime.
type Claims struct {
	jwt.RegisteredClaims

	// Session ID, stable across refreshes of the same sign-in.
	SID string `json:"sid,omitempty"`

	// UserType is "job_seeker" or "employer".
	UserType string `json:"user_type"`

	OnboardingCompleted  bool   `json:"onboarding_completed"`
	OnboardingRedirectTo string `json:"onboarding_redirect_to,omitempty"`

	// EnrichedAt is the unix time the onboarding fields were last computed.
	EnrichedAt int64 `json:"enriched_at,omitempty"`
}

// NewSessionClaims builds the claims minted at sign-in.
func NewSessionClaims(subject, sid, userType, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		SID:      sid,
		UserType: userType,
	}
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// Validate is called by the jwt parser after the registered claims pass.
func (c Claims) Validate() error {
	if c.Subject == "" || c.UserType == "" {
		return ErrInvalidClaim
	}
	return nil
}
