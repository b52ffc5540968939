package service

import (
	"context"
	"log/slog"
	"path"

	"github.com/bwirakes/temu-v2/internal/onboarding/domain"
)

type ActionKind int

const (
	ActionAllow ActionKind = iota
	ActionRedirect
)

func (k ActionKind) String() string {
	if k == ActionRedirect {
		return "redirect"
	}
	return "allow"
}

// Action is the routing decision for one request.
type Action struct {
	Kind     ActionKind
	Location string
}

func Allow() Action { return Action{Kind: ActionAllow} }

func RedirectTo(location string) Action {
	return Action{Kind: ActionRedirect, Location: location}
}

// DefaultBypass are the path prefixes the gate never touches.
func DefaultBypass() []string {
	return []string{
		// static assets
		"/_next", "/static", "/assets", "/images", "/favicon.ico",
		// auth pages
		"/signin", "/signup", "/forgot-password", "/landing",
		// public pages
		"/about", "/contact", "/pricing",
		// APIs that manage their own auth
		"/api/auth", "/api/onboarding", "/api/upload",
		"/api/employer/onboarding", "/api/job-seeker/onboarding",
		// operations
		"/livez", "/readyz", "/swagger",
	}
}

type GateConfig struct {
	Paths       domain.PathTable
	Bypass      []string
	SigninPath  string
	LandingPath string
}

func DefaultGateConfig() GateConfig {
	return GateConfig{
		Paths:       domain.DefaultPathTable(),
		Bypass:      DefaultBypass(),
		SigninPath:  "/signin",
		LandingPath: "/landing",
	}
}

// RouteGate decides, per request, whether the caller may see a page.
type RouteGate struct {
	cfg    GateConfig
	status StatusLookup
	logger *slog.Logger
}

// NewRouteGate builds a gate. status is consulted only for sessions whose
// onboarding fields were never computed and may be nil.
func NewRouteGate(cfg GateConfig, status StatusLookup, logger *slog.Logger) *RouteGate {
	if logger == nil {
		logger = slog.Default()
	}
	return &RouteGate{cfg: cfg, status: status, logger: logger}
}

// Decide evaluates the rules in order; the first match wins. tok is nil for
// anonymous requests.
func (g *RouteGate) Decide(ctx context.Context, reqPath string, tok *domain.SessionToken) Action {
	p := cleanPath(reqPath)
	act := g.decide(ctx, p, tok)

	// Never bounce a request to the page it asked for.
	if act.Kind == ActionRedirect && act.Location == p {
		return Allow()
	}
	return act
}

func (g *RouteGate) decide(ctx context.Context, p string, tok *domain.SessionToken) Action {
	// 1. bypass
	for _, prefix := range g.cfg.Bypass {
		if domain.HasPathPrefix(p, prefix) {
			return Allow()
		}
	}

	// 2. anonymous
	if tok == nil || tok.UserID == "" {
		if p == "/" {
			return RedirectTo(g.cfg.LandingPath)
		}
		return RedirectTo(g.cfg.SigninPath)
	}

	// 3. per-type routes
	own, ok := g.cfg.Paths.For(tok.UserType)
	if !ok {
		return Allow()
	}
	completed, target := g.onboardingState(ctx, tok, own)

	// 4. root
	if p == "/" {
		if completed {
			return RedirectTo(own.Dashboard)
		}
		return RedirectTo(target)
	}

	// 5. the other user type's pages
	for ut, other := range g.cfg.Paths {
		if ut != tok.UserType && other.InNamespace(p) && !own.InNamespace(p) {
			return RedirectTo("/")
		}
	}

	// 6. own onboarding flow
	if own.InOnboarding(p) {
		if completed && p != own.Confirmation {
			return RedirectTo(own.Dashboard)
		}
		return Allow()
	}

	// 7. unfinished onboarding
	if !completed {
		return RedirectTo(target)
	}

	// 8.
	return Allow()
}

// onboardingState returns the completion flag and the onboarding redirect for tok.
// Tokens that were never enriched are looked up; a lookup cannot turn a
// completed session back into an incomplete one.
func (g *RouteGate) onboardingState(ctx context.Context, tok *domain.SessionToken, own domain.Paths) (bool, string) {
	completed, target := tok.OnboardingCompleted, tok.OnboardingRedirectTo

	if !tok.Enriched() && g.status != nil {
		st, err := g.status.Get(ctx, tok.Identity())
		if err != nil {
			g.logger.WarnContext(ctx, "gate status lookup failed", "user_id", tok.UserID, "err", err)
		} else {
			completed = completed || st.Completed
			target = st.RedirectTo
		}
	}

	if target == "" {
		target = own.OnboardingDefault
	}
	return completed, target
}

func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		p = "/" + p
	}
	return path.Clean(p)
}
