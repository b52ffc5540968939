package sqlite

import (
	"context"
	"time"

	"github.com/bwirakes/temu-v2/internal/onboarding/domain"
)

type profilesRepo struct {
	db DBTX
}

func (r *profilesRepo) GetProfile(ctx context.Context, userID string) (domain.EmployerProfile, error) {
	var p domain.EmployerProfile
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, company_name, website, contact_name, contact_phone,
		       completed_at, created_at, updated_at
		FROM employer_profiles WHERE user_id = ?`, userID,
	).Scan(&p.UserID, &p.CompanyName, &p.Website, &p.ContactName, &p.ContactPhone,
		&p.CompletedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.EmployerProfile{}, mapNotFound(err)
	}
	return p, nil
}

func (r *profilesRepo) UpsertProfile(ctx context.Context, p domain.EmployerProfile) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO employer_profiles (user_id, company_name, website, contact_name,
		                               contact_phone, completed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			company_name  = excluded.company_name,
			website       = excluded.website,
			contact_name  = excluded.contact_name,
			contact_phone = excluded.contact_phone,
			updated_at    = excluded.updated_at`,
		p.UserID, p.CompanyName, p.Website, p.ContactName, p.ContactPhone,
		p.CompletedAt.UTC(), p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *profilesRepo) ProfileExists(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM employer_profiles WHERE user_id = ?)`, userID,
	).Scan(&exists)
	return exists, err
}

type progressRepo struct {
	db DBTX
}

func (r *progressRepo) GetProgress(ctx context.Context, userID string) (domain.StepProgress, error) {
	var p domain.StepProgress
	var status string
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, current_step, status, created_at, updated_at
		FROM employer_onboarding_progress WHERE user_id = ?`, userID,
	).Scan(&p.UserID, &p.CurrentStep, &status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.StepProgress{}, mapNotFound(err)
	}
	p.Status = domain.ProgressStatus(status)
	return p, nil
}

func (r *progressRepo) EnsureStarted(ctx context.Context, userID string, now time.Time) (domain.StepProgress, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO employer_onboarding_progress (user_id, current_step, status, created_at, updated_at)
		VALUES (?, 1, ?, ?, ?)
		ON CONFLICT (user_id) DO NOTHING`,
		userID, string(domain.ProgressNotStarted), now.UTC(), now.UTC(),
	)
	if err != nil {
		return domain.StepProgress{}, mapConstraint(err)
	}
	return r.GetProgress(ctx, userID)
}

func (r *progressRepo) SaveProgress(ctx context.Context, p domain.StepProgress) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO employer_onboarding_progress (user_id, current_step, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			current_step = excluded.current_step,
			status       = excluded.status,
			updated_at   = excluded.updated_at`,
		p.UserID, p.CurrentStep, string(p.Status), p.UpdatedAt.UTC(), p.UpdatedAt.UTC(),
	)
	return mapConstraint(err)
}
