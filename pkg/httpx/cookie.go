package httpx

import (
	"net/http"
	"strings"
	"time"
)

// SessionCookie describes the cookie that carries the session token.
type SessionCookie struct {
	Name   string
	Path   string
	Secure bool
}

func (c SessionCookie) path() string {
	if c.Path == "" {
		return "/"
	}
	return c.Path
}

// Set writes the session token cookie expiring at expires.
func (c SessionCookie) Set(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     c.path(),
		Expires:  expires,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the session cookie.
func (c SessionCookie) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     c.path(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Token reads the session token from the cookie, falling back to an
// Authorization bearer header for API clients.
func (c SessionCookie) Token(r *http.Request) string {
	if ck, err := r.Cookie(c.Name); err == nil && ck.Value != "" {
		return ck.Value
	}
	authz := r.Header.Get("Authorization")
	if strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	}
	return ""
}
