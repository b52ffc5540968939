package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/bwirakes/temu-v2/internal/onboarding/domain"
	"github.com/bwirakes/temu-v2/internal/onboarding/store"
)

type usersRepo struct {
	db DBTX
}

const userColumns = `id, email, name, password_hash, user_type, onboarding_completed, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var u domain.User
	var userType string
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &userType,
		&u.OnboardingCompleted, &u.CreatedAt, &u.UpdatedAt)
	u.UserType = domain.UserType(userType)
	return u, err
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email)))
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, strings.ToLower(u.Email), u.Name, u.PasswordHash, string(u.UserType),
		u.OnboardingCompleted, u.CreatedAt.UTC(), u.UpdatedAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *usersRepo) MarkOnboardingCompleted(ctx context.Context, userID string, now time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET onboarding_completed = TRUE, updated_at = $1 WHERE id = $2`,
		now.UTC(), userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}
