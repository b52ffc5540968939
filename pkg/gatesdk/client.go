package gatesdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// DefaultCookieName is the session cookie the service issues by default.
const DefaultCookieName = "temu_session"

// SDKClient is a client for the session gate service.
// It provides access to unauthenticated operations and creates Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client

	// CookieName is the session cookie the service reissues tokens in.
	CookieName string
}

// NewSDKClient creates a client whose HTTP client reports redirects instead
// of following them, so page visits expose the gate's decision.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		CookieName: DefaultCookieName,
	}
}

// SignUp registers an account and returns a Session for it.
func (c *SDKClient) SignUp(ctx context.Context, req SignUpRequest) (*Session, *User, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/api/auth/signup", "", req)
	if err != nil {
		return nil, nil, err
	}

	var out SignUpResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, nil, err
	}
	return newSession(c, out.Session), &out.User, nil
}

// SignIn authenticates with email and password.
func (c *SDKClient) SignIn(ctx context.Context, email, password string) (*Session, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/api/auth/signin", "", SignInRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	var out SessionInfo
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return newSession(c, out), nil
}

// Visit loads a page without a session.
func (c *SDKClient) Visit(ctx context.Context, path string) (*VisitResult, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, path, "", nil, nil)
	if err != nil {
		return nil, err
	}
	return visitResult(resp), nil
}

// GetLiveness checks if the service is alive.
func (c *SDKClient) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/livez")
}

// GetReadiness checks if the service is ready.
func (c *SDKClient) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/readyz")
}

func (c *SDKClient) health(ctx context.Context, path string) (*HealthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, path, "", nil, nil)
	if err != nil {
		return nil, err
	}

	var health HealthResponse
	if err := decodeJSON(resp, &health, http.StatusOK); err != nil {
		return nil, err
	}
	return &health, nil
}
