package http

import "time"

type SignUpRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	UserType string `json:"user_type" enums:"job_seeker,employer"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionUpdateRequest asks the server to refresh the onboarding fields of
// the current session. Completion cannot be asserted here; the onboarding
// endpoints record it.
type SessionUpdateRequest struct {
	OnboardingRedirectTo *string `json:"onboarding_redirect_to,omitempty"`
}

type SessionResponse struct {
	UserID               string    `json:"user_id"`
	UserType             string    `json:"user_type"`
	OnboardingCompleted  bool      `json:"onboarding_completed"`
	OnboardingRedirectTo string    `json:"onboarding_redirect_to,omitempty"`
	ExpiresAt            time.Time `json:"expires_at"`

	// Token is only returned by sign-in and sign-up, for clients that use a
	// bearer header instead of the cookie.
	Token string `json:"token,omitempty"`
}

type UserResponse struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	UserType string `json:"user_type"`
}

type SignUpResponse struct {
	User    UserResponse    `json:"user"`
	Session SessionResponse `json:"session"`
}

type StepRequest struct {
	Step int `json:"step"`
}

type ProgressResponse struct {
	CurrentStep int             `json:"current_step"`
	Status      string          `json:"status"`
	Session     SessionResponse `json:"session"`
}

type EmployerProfileRequest struct {
	CompanyName  string `json:"company_name"`
	Website      string `json:"website,omitempty"`
	ContactName  string `json:"contact_name,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
}

type EmployerProfileResponse struct {
	CompanyName  string          `json:"company_name"`
	Website      string          `json:"website,omitempty"`
	ContactName  string          `json:"contact_name,omitempty"`
	ContactPhone string          `json:"contact_phone,omitempty"`
	CompletedAt  time.Time       `json:"completed_at"`
	Session      SessionResponse `json:"session"`
}

// DecisionResponse is the gate's verdict for a path.
type DecisionResponse struct {
	Path     string `json:"path"`
	Action   string `json:"action" enums:"allow,redirect"`
	Location string `json:"location,omitempty"`
}

// PageResponse stands in for a rendered page when no frontend is proxied.
type PageResponse struct {
	Path     string `json:"path"`
	UserID   string `json:"user_id,omitempty"`
	UserType string `json:"user_type,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`
	Cache    string `json:"cache,omitempty"`
}

type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}
