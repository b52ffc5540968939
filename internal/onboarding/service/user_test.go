package service_test

import (
	"context"
	"testing"

	"github.com/bwirakes/temu-v2/internal/onboarding/domain"
	"github.com/bwirakes/temu-v2/internal/onboarding/service"
	"github.com/bwirakes/temu-v2/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	hasher := cryptox.NewHasher("test-pepper")
	users := &service.UserService{Store: s, Hasher: hasher}

	u, err := users.Register(ctx, service.RegisterInput{
		Email:    "  Rina@Example.com ",
		Name:     "Rina",
		Password: "correct horse",
		UserType: domain.UserTypeEmployer,
	})
	require.NoError(t, err)
	require.Equal(t, "rina@example.com", u.Email)
	require.False(t, u.OnboardingCompleted)
	require.NotEqual(t, "correct horse", u.PasswordHash)

	got, err := users.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.Email, got.Email)

	_, err = users.Register(ctx, service.RegisterInput{
		Email: "rina@example.com", Name: "Other", Password: "another pass", UserType: domain.UserTypeJobSeeker,
	})
	require.ErrorIs(t, err, service.ErrEmailTaken)

	auth, err := service.NewStoreAuthenticator(s, hasher)
	require.NoError(t, err)

	au, err := auth.Authenticate(ctx, "rina@example.com", "correct horse")
	require.NoError(t, err)
	require.Equal(t, u.ID, au.ID)
	require.Equal(t, domain.UserTypeEmployer, au.UserType)

	_, err = auth.Authenticate(ctx, "rina@example.com", "wrong password")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = auth.Authenticate(ctx, "nobody@example.com", "correct horse")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	users := &service.UserService{Store: newSQLiteStore(t), Hasher: cryptox.NewHasher("p")}

	cases := []struct {
		name string
		in   service.RegisterInput
	}{
		{"bad email", service.RegisterInput{Email: "nope", Name: "A", Password: "12345678", UserType: domain.UserTypeJobSeeker}},
		{"no name", service.RegisterInput{Email: "a@b.co", Password: "12345678", UserType: domain.UserTypeJobSeeker}},
		{"short password", service.RegisterInput{Email: "a@b.co", Name: "A", Password: "short", UserType: domain.UserTypeJobSeeker}},
		{"unknown type", service.RegisterInput{Email: "a@b.co", Name: "A", Password: "12345678", UserType: "recruiter"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := users.Register(context.Background(), tc.in)
			require.ErrorIs(t, err, service.ErrInvalidInput)
		})
	}
}
