package httpx

import (
	"net/http"
	"slices"

	"github.com/bwirakes/temu-v2/pkg/jwtx"
	"github.com/bwirakes/temu-v2/pkg/slogx"
)

// SessionMiddleware verifies the session token if one is present and
// attaches its claims to the request context. Requests without a valid
// session pass through unauthenticated.
func SessionMiddleware(v jwtx.Verifier, cookie SessionCookie) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := cookie.Token(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := v.Verify(raw)
			if err != nil {
				slogx.FromContext(r.Context()).Debug("session token rejected", "err", err)
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithSession(r.Context(), claims)
			ctx = slogx.WithContext(ctx, slogx.FromContext(ctx).With("user_id", claims.Subject))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession rejects requests that did not pass SessionMiddleware with
// a valid token.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := SessionFromContext(r.Context()); !ok {
			ErrInvalidSession.WriteError(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUserType only admits sessions whose user type is one of allowed.
func RequireUserType(allowed ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := SessionFromContext(r.Context())
			if !ok {
				ErrInvalidSession.WriteError(w)
				return
			}
			if !slices.Contains(allowed, claims.UserType) {
				ErrWrongAccountType.WriteError(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
