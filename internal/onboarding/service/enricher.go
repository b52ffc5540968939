package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/bwirakes/temu-v2/internal/onboarding/domain"
)

// AuthenticatedUser is what a successful credential check yields.
type AuthenticatedUser struct {
	ID                  string
	Email               string
	Name                string
	UserType            domain.UserType
	OnboardingCompleted bool
}

// SessionUpdate is a partial update requested by the client. Nil fields are
// not being updated.
type SessionUpdate struct {
	OnboardingCompleted  *bool
	OnboardingRedirectTo *string
}

// TokenEnricher computes the onboarding fields of a session token at sign-in
// and on explicit client updates. Completion recorded in a token is never
// reverted.
type TokenEnricher struct {
	status   StatusLookup
	resolver *StatusResolver
	now      func() time.Time
	logger   *slog.Logger
}

func NewTokenEnricher(status StatusLookup, resolver *StatusResolver, logger *slog.Logger) *TokenEnricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenEnricher{status: status, resolver: resolver, now: time.Now, logger: logger}
}

// SetClock replaces time.Now. Used by tests.
func (e *TokenEnricher) SetClock(now func() time.Time) { e.now = now }

// OnInitialAuth builds the token minted at sign-in.
func (e *TokenEnricher) OnInitialAuth(ctx context.Context, u AuthenticatedUser) domain.SessionToken {
	tok := domain.SessionToken{
		UserID:     u.ID,
		UserType:   u.UserType,
		EnrichedAt: e.now(),
	}

	if u.OnboardingCompleted {
		tok.OnboardingCompleted = true
		tok.OnboardingRedirectTo = e.resolver.Dashboard(u.UserType)
		return tok
	}

	st, err := e.status.Get(ctx, tok.Identity())
	if err != nil {
		e.logger.WarnContext(ctx, "sign-in status lookup failed", "user_id", u.ID, "err", err)
		st = e.resolver.Fallback(u.UserType)
	}
	tok.OnboardingCompleted = st.Completed
	tok.OnboardingRedirectTo = st.RedirectTo
	return tok
}

// OnUpdateRequested applies a client-requested update to tok.
//
// An asserted completion is trusted without a lookup: only the code path that
// just performed the completing write calls this with it. Without an
// assertion the status is re-resolved, unless the token is already complete.
// Failed or degraded lookups keep the previous values.
func (e *TokenEnricher) OnUpdateRequested(ctx context.Context, tok domain.SessionToken, upd SessionUpdate) domain.SessionToken {
	if upd.OnboardingCompleted != nil && *upd.OnboardingCompleted {
		tok.OnboardingCompleted = true
		tok.OnboardingRedirectTo = e.resolver.Dashboard(tok.UserType)
		tok.EnrichedAt = e.now()
		return tok
	}

	if tok.OnboardingCompleted {
		return tok
	}

	st, err := e.status.Get(ctx, tok.Identity())
	if err != nil || (st.Fallback && !st.Completed) {
		if err != nil {
			e.logger.WarnContext(ctx, "session update status lookup failed", "user_id", tok.UserID, "err", err)
		}
		if hint, ok := e.redirectHint(tok.UserType, upd); ok {
			tok.OnboardingRedirectTo = hint
		}
		return tok
	}

	tok.OnboardingCompleted = st.Completed
	tok.OnboardingRedirectTo = st.RedirectTo
	tok.EnrichedAt = e.now()
	return tok
}

// redirectHint accepts a client-supplied redirect only inside the user's own
// onboarding flow.
func (e *TokenEnricher) redirectHint(ut domain.UserType, upd SessionUpdate) (string, bool) {
	if upd.OnboardingRedirectTo == nil {
		return "", false
	}
	p, ok := e.resolver.Paths().For(ut)
	if !ok || !p.InOnboarding(*upd.OnboardingRedirectTo) {
		return "", false
	}
	return *upd.OnboardingRedirectTo, true
}
