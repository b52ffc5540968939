package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/bwirakes/temu-v2/internal/onboarding/domain"
	"github.com/bwirakes/temu-v2/internal/onboarding/service"
	"github.com/bwirakes/temu-v2/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const testIssuer = "https://temu.test"

func newSessionService(t *testing.T, lookup service.StatusLookup) (*service.SessionService, *jwtx.KeyManager) {
	t.Helper()
	km, err := jwtx.NewKeyManager(jwtx.KeyManagerOptions{Algorithm: jwtx.AlgorithmEdDSA, Issuer: testIssuer})
	require.NoError(t, err)

	return &service.SessionService{
		Signer:   km.Signer,
		Enricher: newEnricher(lookup),
		Issuer:   testIssuer,
		TTL:      time.Hour,
	}, km
}

func TestSessionSignIn(t *testing.T) {
	svc, km := newSessionService(t, staticLookup{status: domain.OnboardingStatus{
		RedirectTo: "/employer/onboarding/kehadiran-online",
	}})

	sess, err := svc.SignIn(context.Background(), service.AuthenticatedUser{
		ID: "emp-1", UserType: domain.UserTypeEmployer,
	})
	require.NoError(t, err)
	require.NotEmpty(t, sess.Token)
	require.WithinDuration(t, time.Now().Add(time.Hour), sess.ExpiresAt, 5*time.Second)

	claims, err := km.Verifier.Verify(sess.Token)
	require.NoError(t, err)
	require.Equal(t, "emp-1", claims.Subject)
	require.Equal(t, "employer", claims.UserType)
	require.NotEmpty(t, claims.SID)
	require.False(t, claims.OnboardingCompleted)
	require.Equal(t, "/employer/onboarding/kehadiran-online", claims.OnboardingRedirectTo)
	require.NotZero(t, claims.EnrichedAt)
}

func TestSessionSignInRequiresID(t *testing.T) {
	svc, _ := newSessionService(t, staticLookup{})
	_, err := svc.SignIn(context.Background(), service.AuthenticatedUser{UserType: domain.UserTypeEmployer})
	require.ErrorIs(t, err, service.ErrInvalidIdentity)
}

func TestSessionUpdateKeepsLifetime(t *testing.T) {
	svc, km := newSessionService(t, staticLookup{status: domain.OnboardingStatus{
		RedirectTo: "/job-seeker/onboarding/informasi-dasar",
	}})

	first, err := svc.SignIn(context.Background(), service.AuthenticatedUser{
		ID: "js-1", UserType: domain.UserTypeJobSeeker,
	})
	require.NoError(t, err)

	svc.Now = func() time.Time { return time.Now().Add(10 * time.Minute) }
	done := true
	next, err := svc.Update(context.Background(), first.Claims, service.SessionUpdate{OnboardingCompleted: &done})
	require.NoError(t, err)

	claims, err := km.Verifier.Verify(next.Token)
	require.NoError(t, err)
	require.True(t, claims.OnboardingCompleted)
	require.Equal(t, "/job-seeker/dashboard", claims.OnboardingRedirectTo)
	require.Equal(t, first.Claims.SID, claims.SID)
	require.Equal(t, first.Claims.ExpiresAt.Unix(), claims.ExpiresAt.Unix())
	require.Equal(t, first.Claims.IssuedAt.Unix(), claims.IssuedAt.Unix())
}

func TestSessionRefreshNeverDowngrades(t *testing.T) {
	svc, _ := newSessionService(t, staticLookup{status: domain.OnboardingStatus{
		RedirectTo: "/employer/onboarding/informasi-perusahaan",
	}})

	claims := jwtx.NewSessionClaims("emp-1", "sid-1", "employer", testIssuer, time.Hour, time.Now())
	claims.OnboardingCompleted = true
	claims.OnboardingRedirectTo = "/employer/dashboard"

	sess, err := svc.Refresh(context.Background(), claims)
	require.NoError(t, err)
	require.True(t, sess.Claims.OnboardingCompleted)
	require.Equal(t, "/employer/dashboard", sess.Claims.OnboardingRedirectTo)
}

func TestTokenFromClaims(t *testing.T) {
	claims := jwtx.NewSessionClaims("emp-1", "sid-1", "employer", testIssuer, time.Hour, time.Now())
	tok := service.TokenFromClaims(claims)
	require.False(t, tok.Enriched())
	require.True(t, tok.EnrichedAt.IsZero())
	require.Equal(t, employer.UserType, tok.UserType)

	claims.EnrichedAt = 1700000000
	claims.OnboardingRedirectTo = "/employer/onboarding/informasi-perusahaan"
	tok = service.TokenFromClaims(claims)
	require.True(t, tok.Enriched())
	require.Equal(t, int64(1700000000), tok.EnrichedAt.Unix())
}
