package http

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/bwirakes/temu-v2/internal/onboarding/domain"
	"github.com/bwirakes/temu-v2/internal/onboarding/service"
	"github.com/bwirakes/temu-v2/pkg/httpx"
	"github.com/bwirakes/temu-v2/pkg/slogx"
)

// GateMiddleware applies the RouteGate to page requests.
//
// Incomplete sessions whose onboarding fields are older than RefreshAfter
// are re-resolved first and the cookie reissued, so progress made in another
// tab or by another instance shows up without signing in again.
type GateMiddleware struct {
	Gate         *service.RouteGate
	Sessions     *service.SessionService
	Cookie       httpx.SessionCookie
	RefreshAfter time.Duration
	Now          func() time.Time
}

func (g *GateMiddleware) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

// Wrap returns next guarded by the gate.
func (g *GateMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		act := g.decide(w, r, r.URL.Path)
		if act.Kind == service.ActionRedirect {
			code := http.StatusFound
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				code = http.StatusSeeOther
			}
			slogx.FromContext(r.Context()).Debug("gate redirect", "location", act.Location)
			http.Redirect(w, r, act.Location, code)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// decide refreshes a stale session if needed and evaluates the gate for path.
func (g *GateMiddleware) decide(w http.ResponseWriter, r *http.Request, path string) service.Action {
	ctx := r.Context()

	claims, ok := httpx.SessionFromContext(ctx)
	if !ok {
		return g.Gate.Decide(ctx, path, nil)
	}

	tok := service.TokenFromClaims(claims)
	if g.stale(tok) {
		sess, err := g.Sessions.Refresh(ctx, claims)
		refreshed := service.TokenFromClaims(sess.Claims)
		switch {
		case err != nil:
			slogx.FromContext(ctx).Warn("session refresh failed", "err", err)
		case sameOnboarding(tok, refreshed):
			// Nothing resolved, typically a fallback while the store is down.
		default:
			g.Cookie.Set(w, sess.Token, sess.ExpiresAt)
			tok = refreshed
		}
	}
	return g.Gate.Decide(ctx, path, &tok)
}

func (g *GateMiddleware) stale(tok domain.SessionToken) bool {
	if g.RefreshAfter <= 0 || g.Sessions == nil || tok.OnboardingCompleted {
		return false
	}
	return tok.EnrichedAt.IsZero() || g.now().Sub(tok.EnrichedAt) > g.RefreshAfter
}

func sameOnboarding(a, b domain.SessionToken) bool {
	return a.OnboardingCompleted == b.OnboardingCompleted &&
		a.OnboardingRedirectTo == b.OnboardingRedirectTo &&
		a.EnrichedAt.Equal(b.EnrichedAt)
}

// HandleDecision godoc
//
//	@Summary		Gate decision
//	@Description	Evaluates the onboarding gate for a page path on behalf of a frontend.
//	@Description	Stale incomplete sessions are refreshed and the cookie reissued, as for page requests.
//	@Tags			Gate
//	@Produce		json
//	@Param			path	query		string	true	"page path, e.g. /employer/dashboard"
//	@Success		200		{object}	DecisionResponse
//	@Failure		400		{object}	httpx.APIError	"error, error_description"
//	@Router			/api/gate/decision [get].
func (g *GateMiddleware) HandleDecision(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" || path[0] != '/' {
		httpx.ErrInvalidRequest.WithDescription("path must be an absolute page path").WriteError(w)
		return
	}

	act := g.decide(w, r, path)
	httpx.WriteJSON(w, http.StatusOK, DecisionResponse{
		Path:     path,
		Action:   act.Kind.String(),
		Location: act.Location,
	})
}

// PageHandler serves gated pages. With a frontend URL the request is
// proxied there; otherwise a JSON description of the page is returned.
func PageHandler(frontend *url.URL) http.Handler {
	if frontend != nil {
		return httputil.NewSingleHostReverseProxy(frontend)
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := PageResponse{Path: r.URL.Path}
		if claims, ok := httpx.SessionFromContext(r.Context()); ok {
			resp.UserID = claims.Subject
			resp.UserType = claims.UserType
		}
		httpx.WriteJSON(w, http.StatusOK, resp)
	})
}
