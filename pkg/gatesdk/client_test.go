package gatesdk

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeGate mimics the service closely enough to exercise token handling.
func fakeGate(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/signin", func(w http.ResponseWriter, r *http.Request) {
		var req SignInRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret" {
			w.Header().Set("Retry-After", "7")
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": ErrorCodeUnauthorized, "error_description": "invalid email or password",
			})
			return
		}
		writeJSON(w, http.StatusOK, SessionInfo{UserID: "u1", UserType: UserTypeEmployer, Token: "tok-1"})
	})

	mux.HandleFunc("PUT /api/employer/onboarding/progress", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: DefaultCookieName, Value: "tok-2", Expires: time.Now().Add(time.Hour)})
		writeJSON(w, http.StatusOK, Progress{CurrentStep: 3, Status: "IN_PROGRESS", Session: SessionInfo{
			UserID: "u1", OnboardingRedirectTo: "/employer/onboarding/penanggung-jawab",
		}})
	})

	mux.HandleFunc("GET /employer/dashboard", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		http.Redirect(w, r, "/employer/onboarding/penanggung-jawab", http.StatusFound)
	})

	mux.HandleFunc("GET /api/gate/decision", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, Decision{Path: r.URL.Query().Get("path"), Action: "allow"})
	})

	mux.HandleFunc("POST /api/auth/signout", func(w http.ResponseWriter, _ *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: DefaultCookieName, Value: "", MaxAge: -1})
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not json"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestSessionAdoptsReissuedToken(t *testing.T) {
	t.Parallel()
	client := NewSDKClient(fakeGate(t).URL + "/")
	ctx := t.Context()

	s, err := client.SignIn(ctx, "hr@example.com", "secret")
	require.NoError(t, err)
	require.Equal(t, "tok-1", s.Token())
	require.Empty(t, s.Info().Token)

	p, err := s.SaveEmployerStep(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, 3, p.CurrentStep)
	require.Equal(t, "tok-2", s.Token())
	require.Equal(t, "/employer/onboarding/penanggung-jawab", s.Info().OnboardingRedirectTo)

	visit, err := s.Visit(ctx, "/employer/dashboard")
	require.NoError(t, err)
	require.False(t, visit.Allowed())
	require.Equal(t, http.StatusFound, visit.StatusCode)
	require.Equal(t, "/employer/onboarding/penanggung-jawab", visit.Location)

	d, err := s.Decision(ctx, "/employer/jobs?x=1")
	require.NoError(t, err)
	require.Equal(t, "/employer/jobs?x=1", d.Path)
	require.False(t, d.Redirects())
}

func TestSignOutForgetsToken(t *testing.T) {
	t.Parallel()
	client := NewSDKClient(fakeGate(t).URL)
	ctx := t.Context()

	s, err := client.SignIn(ctx, "hr@example.com", "secret")
	require.NoError(t, err)

	require.NoError(t, s.SignOut(ctx))
	require.Empty(t, s.Token())

	_, err = s.Get(ctx)
	require.ErrorContains(t, err, "signed out")
}

func TestErrorResponses(t *testing.T) {
	t.Parallel()
	client := NewSDKClient(fakeGate(t).URL)
	ctx := t.Context()

	t.Run("service error body", func(t *testing.T) {
		_, err := client.SignIn(ctx, "hr@example.com", "wrong")
		require.True(t, IsStatus(err, http.StatusUnauthorized))

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, ErrorCodeUnauthorized, apiErr.Code)
		require.Equal(t, "7", apiErr.RetryAfter)
	})

	t.Run("unstructured body", func(t *testing.T) {
		_, err := client.GetReadiness(ctx)
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
		require.Equal(t, ErrorCodeServerError, apiErr.Code)
	})

	t.Run("not an api error", func(t *testing.T) {
		require.False(t, IsStatus(nil, http.StatusOK))
	})
}
