package gate_test

import (
	"net/http"
	"testing"

	"github.com/bwirakes/temu-v2/pkg/gatesdk"
	"github.com/stretchr/testify/require"
)

func TestAnonymousVisitors(t *testing.T) {
	client := gatesdk.NewSDKClient(setupGateContainer(t, nil))
	ctx := t.Context()

	v, err := client.Visit(ctx, "/")
	require.NoError(t, err)
	require.Equal(t, "/landing", v.Location)

	v, err = client.Visit(ctx, "/job-seeker/dashboard")
	require.NoError(t, err)
	require.Equal(t, "/signin", v.Location)

	v, err = client.Visit(ctx, "/signin")
	require.NoError(t, err)
	require.True(t, v.Allowed())

	health, err := client.GetReadiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", health.Status)
}

// TestJobSeekerFlow signs up a job seeker, walks the gate through
// onboarding and checks the dashboard opens afterwards.
func TestJobSeekerFlow(t *testing.T) {
	client := gatesdk.NewSDKClient(setupGateContainer(t, nil))
	ctx := t.Context()

	s := signUp(t, client, "seeker@example.com", gatesdk.UserTypeJobSeeker)
	require.False(t, s.Info().OnboardingCompleted)

	requireRedirect(t, s, "/", "/job-seeker/onboarding/informasi-dasar")
	requireRedirect(t, s, "/job-seeker/dashboard", "/job-seeker/onboarding/informasi-dasar")
	requireAllowed(t, s, "/job-seeker/onboarding/informasi-dasar")

	info, err := s.CompleteJobSeeker(ctx)
	require.NoError(t, err)
	require.True(t, info.OnboardingCompleted)

	requireAllowed(t, s, "/job-seeker/dashboard")
	requireRedirect(t, s, "/", "/job-seeker/dashboard")
	requireRedirect(t, s, "/job-seeker/onboarding/informasi-dasar", "/job-seeker/dashboard")
	requireRedirect(t, s, "/employer/dashboard", "/")

	_, err = s.SaveEmployerStep(ctx, 2)
	require.True(t, gatesdk.IsStatus(err, http.StatusForbidden))
}

// TestEmployerFlow walks an employer through the multi-step onboarding.
func TestEmployerFlow(t *testing.T) {
	client := gatesdk.NewSDKClient(setupGateContainer(t, nil))
	ctx := t.Context()

	s := signUp(t, client, "hr@example.com", gatesdk.UserTypeEmployer)
	require.Equal(t, "/employer/onboarding/informasi-perusahaan", s.Info().OnboardingRedirectTo)

	p, err := s.SaveEmployerStep(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, 3, p.CurrentStep)
	requireRedirect(t, s, "/employer/dashboard", "/employer/onboarding/penanggung-jawab")

	d, err := s.Decision(ctx, "/employer/jobs")
	require.NoError(t, err)
	require.True(t, d.Redirects())
	require.Equal(t, "/employer/onboarding/penanggung-jawab", d.Location)

	_, err = s.CompleteEmployer(ctx, gatesdk.EmployerProfileRequest{})
	require.True(t, gatesdk.IsStatus(err, http.StatusBadRequest))

	profile, err := s.CompleteEmployer(ctx, gatesdk.EmployerProfileRequest{CompanyName: "PT Contoh"})
	require.NoError(t, err)
	require.True(t, profile.Session.OnboardingCompleted)

	requireAllowed(t, s, "/employer/dashboard")
	requireAllowed(t, s, "/employer/onboarding/konfirmasi")
	requireRedirect(t, s, "/employer/onboarding/informasi-perusahaan", "/employer/dashboard")
	requireRedirect(t, s, "/job-seeker/dashboard", "/")

	// A fresh sign-in starts from the stored completion.
	again, err := client.SignIn(ctx, "hr@example.com", testPassword)
	require.NoError(t, err)
	require.True(t, again.Info().OnboardingCompleted)
	requireRedirect(t, again, "/", "/employer/dashboard")
}

// TestSessionUpdateIsReResolved checks that the session endpoint reports
// progress written elsewhere and never reverts a completed session.
func TestSessionUpdateIsReResolved(t *testing.T) {
	client := gatesdk.NewSDKClient(setupGateContainer(t, nil))
	ctx := t.Context()

	signUp(t, client, "multi@example.com", gatesdk.UserTypeEmployer)

	// Two devices on the same account.
	laptop, err := client.SignIn(ctx, "multi@example.com", testPassword)
	require.NoError(t, err)
	phone, err := client.SignIn(ctx, "multi@example.com", testPassword)
	require.NoError(t, err)

	_, err = laptop.SaveEmployerStep(ctx, 2)
	require.NoError(t, err)

	info, err := phone.Update(ctx, "")
	require.NoError(t, err)
	require.False(t, info.OnboardingCompleted)
	require.Equal(t, "/employer/onboarding/kehadiran-online", info.OnboardingRedirectTo)

	_, err = laptop.CompleteEmployer(ctx, gatesdk.EmployerProfileRequest{CompanyName: "PT Contoh"})
	require.NoError(t, err)

	info, err = phone.Update(ctx, "")
	require.NoError(t, err)
	require.True(t, info.OnboardingCompleted)
	requireAllowed(t, phone, "/employer/dashboard")
}

func TestSignOut(t *testing.T) {
	client := gatesdk.NewSDKClient(setupGateContainer(t, nil))
	ctx := t.Context()

	s := signUp(t, client, "leaver@example.com", gatesdk.UserTypeJobSeeker)
	require.NoError(t, s.SignOut(ctx))
	require.Empty(t, s.Token())

	_, err := client.SignIn(ctx, "leaver@example.com", "not-the-password")
	require.True(t, gatesdk.IsStatus(err, http.StatusUnauthorized))
}
