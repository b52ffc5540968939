package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwirakes/temu-v2/pkg/httpx"
	"github.com/bwirakes/temu-v2/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const issuer = "https://example.test"

func newKeyManager(t *testing.T) *jwtx.KeyManager {
	t.Helper()
	km, err := jwtx.NewKeyManager(jwtx.KeyManagerOptions{Algorithm: jwtx.AlgorithmEdDSA, Issuer: issuer})
	require.NoError(t, err)
	return km
}

func TestSessionMiddleware(t *testing.T) {
	km := newKeyManager(t)
	cookie := httpx.SessionCookie{Name: "session"}

	token, err := km.Signer.Sign(jwtx.NewSessionClaims("user-1", "s1", "employer", issuer, time.Hour, time.Now()))
	require.NoError(t, err)

	var seen jwtx.Claims
	var authed bool
	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, authed = httpx.SessionFromContext(r.Context())
	}), httpx.SessionMiddleware(km.Verifier, cookie))

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "session", Value: token})
		h.ServeHTTP(httptest.NewRecorder(), req)
		require.True(t, authed)
		require.Equal(t, "user-1", seen.Subject)
	})

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		h.ServeHTTP(httptest.NewRecorder(), req)
		require.True(t, authed)
	})

	t.Run("invalid token passes through anonymous", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "session", Value: "garbage"})
		h.ServeHTTP(httptest.NewRecorder(), req)
		require.False(t, authed)
	})
}

func TestRequireUserType(t *testing.T) {
	km := newKeyManager(t)
	cookie := httpx.SessionCookie{Name: "session"}

	h := httpx.Chain(okHandler(),
		httpx.SessionMiddleware(km.Verifier, cookie),
		httpx.RequireUserType("employer"),
	)

	sign := func(userType string) string {
		tok, err := km.Signer.Sign(jwtx.NewSessionClaims("u", "s", userType, issuer, time.Hour, time.Now()))
		require.NoError(t, err)
		return tok
	}

	cases := []struct {
		name  string
		token string
		want  int
	}{
		{"no session", "", http.StatusUnauthorized},
		{"wrong type", sign("job_seeker"), http.StatusForbidden},
		{"allowed", sign("employer"), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.token != "" {
				req.AddCookie(&http.Cookie{Name: "session", Value: tc.token})
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			require.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(okHandler(), mw("a"), mw("b"), mw("c"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"a", "b", "c"}, order)
}

func TestSessionCookieSetAndClear(t *testing.T) {
	cookie := httpx.SessionCookie{Name: "session", Secure: true}
	rec := httptest.NewRecorder()
	cookie.Set(rec, "tok", time.Now().Add(time.Hour))

	res := rec.Result()
	require.Len(t, res.Cookies(), 1)
	c := res.Cookies()[0]
	require.Equal(t, "tok", c.Value)
	require.True(t, c.HttpOnly)
	require.True(t, c.Secure)
	require.Equal(t, "/", c.Path)

	rec = httptest.NewRecorder()
	cookie.Clear(rec)
	require.Equal(t, -1, rec.Result().Cookies()[0].MaxAge)
}
