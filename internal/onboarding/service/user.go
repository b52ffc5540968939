package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/bwirakes/temu-v2/internal/onboarding/domain"
	"github.com/bwirakes/temu-v2/internal/onboarding/store"
	"github.com/bwirakes/temu-v2/pkg/cryptox"
	"github.com/bwirakes/temu-v2/pkg/idx"
)

const minPasswordLength = 8

type UserService struct {
	Store  store.Store
	Hasher *cryptox.Hasher
	Now    func() time.Time
}

type RegisterInput struct {
	Email    string
	Name     string
	Password string
	UserType domain.UserType
}

// Register creates a new account that has not started onboarding.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.User{}, fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.User{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if len(in.Password) < minPasswordLength {
		return domain.User{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	if !in.UserType.Known() {
		return domain.User{}, fmt.Errorf("%w: unknown user type %q", ErrInvalidInput, in.UserType)
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	u := domain.User{
		ID:           idx.NewAt(now).String(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		UserType:     in.UserType,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, err
	}
	return u, nil
}

// GetUserByID fetches a user by id.
func (s *UserService) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}
