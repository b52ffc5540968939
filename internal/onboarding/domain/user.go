package domain

import (
	"strings"
	"time"
)

// UserType segregates accounts into job seekers and employers.
type UserType string

const (
	UserTypeJobSeeker UserType = "job_seeker"
	UserTypeEmployer  UserType = "employer"
)

// Known reports whether t is one of the supported user types.
func (t UserType) Known() bool {
	return t == UserTypeJobSeeker || t == UserTypeEmployer
}

// ParseUserType normalises s. Unknown values are returned as-is so callers
// can decide how lenient to be.
func ParseUserType(s string) UserType {
	return UserType(strings.ToLower(strings.TrimSpace(s)))
}

// Identity is the (user id, user type) pair fixed at authentication.
type Identity struct {
	UserID   string
	UserType UserType
}

// Key is the cache key for the identity.
func (i Identity) Key() string {
	return string(i.UserType) + ":" + i.UserID
}

type User struct {
	ID                  string
	Email               string
	Name                string
	PasswordHash        string // argon2 encoded
	UserType            UserType
	OnboardingCompleted bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (u User) Identity() Identity {
	return Identity{UserID: u.ID, UserType: u.UserType}
}
