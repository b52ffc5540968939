package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwirakes/temu-v2/internal/onboarding/store"
	"github.com/bwirakes/temu-v2/pkg/cryptox"
)

// Authenticator verifies credentials. The session layer only needs the
// resulting identity.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (AuthenticatedUser, error)
}

// StoreAuthenticator checks argon2id password hashes in the store.
type StoreAuthenticator struct {
	Store  store.Store
	Hasher *cryptox.Hasher

	// dummyHash is verified for unknown emails so both paths cost the same.
	dummyHash string
}

func NewStoreAuthenticator(s store.Store, h *cryptox.Hasher) (*StoreAuthenticator, error) {
	dummy, err := h.Hash("not-a-real-password")
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &StoreAuthenticator{Store: s, Hasher: h, dummyHash: dummy}, nil
}

func (a *StoreAuthenticator) Authenticate(ctx context.Context, email, password string) (AuthenticatedUser, error) {
	u, err := a.Store.Users().GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		_ = a.Hasher.Verify(password, a.dummyHash)
		return AuthenticatedUser{}, ErrInvalidCredentials
	}
	if err != nil {
		return AuthenticatedUser{}, err
	}

	if err := a.Hasher.Verify(password, u.PasswordHash); err != nil {
		return AuthenticatedUser{}, ErrInvalidCredentials
	}

	return AuthenticatedUser{
		ID:                  u.ID,
		Email:               u.Email,
		Name:                u.Name,
		UserType:            u.UserType,
		OnboardingCompleted: u.OnboardingCompleted,
	}, nil
}
