package gatesdk

import (
	"net/http"
	"time"
)

// User types accepted by SignUp.
const (
	UserTypeJobSeeker = "job_seeker"
	UserTypeEmployer  = "employer"
)

type SignUpRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	UserType string `json:"user_type"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionInfo is the enriched session as the service reports it.
type SessionInfo struct {
	UserID               string    `json:"user_id"`
	UserType             string    `json:"user_type"`
	OnboardingCompleted  bool      `json:"onboarding_completed"`
	OnboardingRedirectTo string    `json:"onboarding_redirect_to,omitempty"`
	ExpiresAt            time.Time `json:"expires_at"`
	Token                string    `json:"token,omitempty"`
}

type User struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	UserType string `json:"user_type"`
}

type SignUpResponse struct {
	User    User        `json:"user"`
	Session SessionInfo `json:"session"`
}

type Progress struct {
	CurrentStep int         `json:"current_step"`
	Status      string      `json:"status"`
	Session     SessionInfo `json:"session"`
}

type StepRequest struct {
	Step int `json:"step"`
}

type EmployerProfileRequest struct {
	CompanyName  string `json:"company_name"`
	Website      string `json:"website,omitempty"`
	ContactName  string `json:"contact_name,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
}

type EmployerProfile struct {
	CompanyName  string      `json:"company_name"`
	Website      string      `json:"website,omitempty"`
	ContactName  string      `json:"contact_name,omitempty"`
	ContactPhone string      `json:"contact_phone,omitempty"`
	CompletedAt  time.Time   `json:"completed_at"`
	Session      SessionInfo `json:"session"`
}

type Decision struct {
	Path     string `json:"path"`
	Action   string `json:"action"`
	Location string `json:"location,omitempty"`
}

// Redirects reports whether the gate sends the visitor elsewhere.
func (d Decision) Redirects() bool { return d.Action == "redirect" }

type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Uptime  string            `json:"uptime"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// VisitResult is the outcome of loading a page through the gate.
type VisitResult struct {
	StatusCode int
	Location   string
}

// Allowed reports whether the page was served.
func (v VisitResult) Allowed() bool { return v.StatusCode == http.StatusOK }
