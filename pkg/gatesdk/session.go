package gatesdk

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
)

// Session performs requests on behalf of a signed-in user.
type Session struct {
	client *SDKClient

	mu    sync.RWMutex
	token string
	info  SessionInfo
}

func newSession(client *SDKClient, info SessionInfo) *Session {
	s := &Session{client: client, token: info.Token}
	info.Token = ""
	s.info = info
	return s
}

// Token returns the latest session token.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Info returns the session as last reported by the service.
func (s *Session) Info() SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}

// do sends an authenticated request and adopts any token reissued in the
// session cookie.
func (s *Session) do(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	token := s.Token()
	if token == "" {
		return nil, errors.New("session is signed out")
	}

	resp, err := s.client.doJSON(ctx, method, path, token, payload)
	if err != nil {
		return nil, err
	}
	s.adoptCookie(resp)
	return resp, nil
}

func (s *Session) adoptCookie(resp *http.Response) {
	for _, ck := range resp.Cookies() {
		if ck.Name != s.client.CookieName || ck.Value == "" || ck.MaxAge < 0 {
			continue
		}
		s.mu.Lock()
		s.token = ck.Value
		s.mu.Unlock()
	}
}

func (s *Session) remember(info SessionInfo) {
	info.Token = ""
	s.mu.Lock()
	s.info = info
	s.mu.Unlock()
}

// Get returns the enriched session.
func (s *Session) Get(ctx context.Context) (*SessionInfo, error) {
	resp, err := s.do(ctx, http.MethodGet, "/api/auth/session", nil)
	if err != nil {
		return nil, err
	}

	var info SessionInfo
	if err := decodeJSON(resp, &info, http.StatusOK); err != nil {
		return nil, err
	}
	s.remember(info)
	return &info, nil
}

// Update asks the service to re-resolve onboarding status. redirectTo is a
// hint for the next onboarding page and may be empty.
func (s *Session) Update(ctx context.Context, redirectTo string) (*SessionInfo, error) {
	var payload any
	if redirectTo != "" {
		payload = map[string]string{"onboarding_redirect_to": redirectTo}
	}
	resp, err := s.do(ctx, http.MethodPost, "/api/auth/session", payload)
	if err != nil {
		return nil, err
	}

	var info SessionInfo
	if err := decodeJSON(resp, &info, http.StatusOK); err != nil {
		return nil, err
	}
	s.remember(info)
	return &info, nil
}

// Decision asks the gate what a page load of path would do.
func (s *Session) Decision(ctx context.Context, path string) (*Decision, error) {
	resp, err := s.do(ctx, http.MethodGet, "/api/gate/decision?path="+url.QueryEscape(path), nil)
	if err != nil {
		return nil, err
	}

	var d Decision
	if err := decodeJSON(resp, &d, http.StatusOK); err != nil {
		return nil, err
	}
	return &d, nil
}

// Visit loads a page through the gate without following redirects.
func (s *Session) Visit(ctx context.Context, path string) (*VisitResult, error) {
	resp, err := s.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return visitResult(resp), nil
}

// CompleteJobSeeker finishes job seeker onboarding.
func (s *Session) CompleteJobSeeker(ctx context.Context) (*SessionInfo, error) {
	resp, err := s.do(ctx, http.MethodPost, "/api/job-seeker/onboarding/complete", nil)
	if err != nil {
		return nil, err
	}

	var info SessionInfo
	if err := decodeJSON(resp, &info, http.StatusOK); err != nil {
		return nil, err
	}
	s.remember(info)
	return &info, nil
}

// SaveEmployerStep records the employer's current onboarding step.
func (s *Session) SaveEmployerStep(ctx context.Context, step int) (*Progress, error) {
	resp, err := s.do(ctx, http.MethodPut, "/api/employer/onboarding/progress", StepRequest{Step: step})
	if err != nil {
		return nil, err
	}

	var p Progress
	if err := decodeJSON(resp, &p, http.StatusOK); err != nil {
		return nil, err
	}
	s.remember(p.Session)
	return &p, nil
}

// CompleteEmployer submits the employer profile and finishes onboarding.
func (s *Session) CompleteEmployer(ctx context.Context, req EmployerProfileRequest) (*EmployerProfile, error) {
	resp, err := s.do(ctx, http.MethodPost, "/api/employer/onboarding/complete", req)
	if err != nil {
		return nil, err
	}

	var profile EmployerProfile
	if err := decodeJSON(resp, &profile, http.StatusOK); err != nil {
		return nil, err
	}
	s.remember(profile.Session)
	return &profile, nil
}

// SignOut clears the session on the service and forgets the token.
func (s *Session) SignOut(ctx context.Context) error {
	resp, err := s.do(ctx, http.MethodPost, "/api/auth/signout", nil)
	if err != nil {
		return err
	}
	if err := checkStatusNoContent(resp); err != nil {
		return err
	}

	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	return nil
}
