package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwirakes/temu-v2/internal/onboarding/domain"
	"github.com/bwirakes/temu-v2/pkg/idx"
	"github.com/bwirakes/temu-v2/pkg/jwtx"
)

// Session is a signed session token and the claims inside it.
type Session struct {
	Token     string
	Claims    jwtx.Claims
	ExpiresAt time.Time
}

// SessionService mints and re-signs session JWTs around the TokenEnricher.
type SessionService struct {
	Signer   jwtx.Signer
	Enricher *TokenEnricher
	Issuer   string
	TTL      time.Duration
	Now      func() time.Time
}

func (s *SessionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// SignIn mints a new session for an authenticated user.
func (s *SessionService) SignIn(ctx context.Context, u AuthenticatedUser) (Session, error) {
	if u.ID == "" {
		return Session{}, ErrInvalidIdentity
	}

	ttl := s.TTL
	if ttl <= 0 {
		ttl = jwtx.DefaultSessionTTL
	}

	tok := s.Enricher.OnInitialAuth(ctx, u)
	claims := jwtx.NewSessionClaims(u.ID, idx.New().String(), string(u.UserType), s.Issuer, ttl, s.now())
	applyToken(&claims, tok)

	return s.sign(claims)
}

// Update applies a client-requested update to an existing session. The
// session id, issue time and expiry are kept, so updates never extend a
// session.
func (s *SessionService) Update(ctx context.Context, claims jwtx.Claims, upd SessionUpdate) (Session, error) {
	tok := s.Enricher.OnUpdateRequested(ctx, TokenFromClaims(claims), upd)
	applyToken(&claims, tok)
	return s.sign(claims)
}

// Refresh re-resolves an incomplete session without any client assertion.
func (s *SessionService) Refresh(ctx context.Context, claims jwtx.Claims) (Session, error) {
	return s.Update(ctx, claims, SessionUpdate{})
}

func (s *SessionService) sign(claims jwtx.Claims) (Session, error) {
	token, err := s.Signer.Sign(claims)
	if err != nil {
		return Session{}, fmt.Errorf("sign session: %w", err)
	}

	var exp time.Time
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	return Session{Token: token, Claims: claims, ExpiresAt: exp}, nil
}

// TokenFromClaims extracts the onboarding view of verified claims.
func TokenFromClaims(c jwtx.Claims) domain.SessionToken {
	tok := domain.SessionToken{
		UserID:               c.Subject,
		UserType:             domain.UserType(c.UserType),
		OnboardingCompleted:  c.OnboardingCompleted,
		OnboardingRedirectTo: c.OnboardingRedirectTo,
	}
	if c.EnrichedAt > 0 {
		tok.EnrichedAt = time.Unix(c.EnrichedAt, 0)
	}
	return tok
}

func applyToken(c *jwtx.Claims, tok domain.SessionToken) {
	c.OnboardingCompleted = tok.OnboardingCompleted
	c.OnboardingRedirectTo = tok.OnboardingRedirectTo
	if !tok.EnrichedAt.IsZero() {
		c.EnrichedAt = tok.EnrichedAt.Unix()
	}
}
