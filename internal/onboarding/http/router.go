package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	_ "github.com/bwirakes/temu-v2/api/gate" // Swagger docs
	"github.com/bwirakes/temu-v2/internal/onboarding/domain"
	"github.com/bwirakes/temu-v2/internal/onboarding/service"
	"github.com/bwirakes/temu-v2/internal/onboarding/store"
	"github.com/bwirakes/temu-v2/pkg/httpx"
	"github.com/bwirakes/temu-v2/pkg/jwtx"
	"github.com/bwirakes/temu-v2/pkg/slogx"
	httpSwagger "github.com/swaggo/http-swagger"
)

// RateLimits are the per-route limiter profiles.
type RateLimits struct {
	SignIn  httpx.RateLimitConfig
	SignUp  httpx.RateLimitConfig
	Session httpx.RateLimitConfig
}

func DefaultRateLimits() RateLimits {
	return RateLimits{
		SignIn:  httpx.StrictLimit,
		SignUp:  httpx.StrictLimit,
		Session: httpx.ModerateLimit,
	}
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	cookie       httpx.SessionCookie
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	UserService       *service.UserService
	Authenticator     service.Authenticator
	SessionService    *service.SessionService
	OnboardingService *service.OnboardingService
	Gate              *GateMiddleware
	Limits            RateLimits

	// CachePinger is checked by /readyz when the status cache is remote.
	CachePinger Pinger

	// Frontend, when set, receives every gated page request.
	Frontend *url.URL
}

func NewRouter(
	keys *jwtx.KeySet,
	verifier jwtx.Verifier,
	cookie httpx.SessionCookie,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		cookie:       cookie,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		Limits:       DefaultRateLimits(),
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger, "/livez", "/readyz"),
		httpx.SessionMiddleware(verifier, cookie),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerSession()
	r.registerOnboarding()
	r.registerSystem()
	r.registerPages()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Temu Session Gate API
//	@version		0.1.0
//	@description	Sign-in, session enrichment and onboarding-gated routing for job seekers and employers.
//	@description
//	@description	Sessions are JWTs (EdDSA or ES256) carried in an HttpOnly cookie or a bearer header.
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
//
//	@securityDefinitions.apikey	SessionCookie
//	@in							cookie
//	@name						temu_session
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		Users:    r.UserService,
		Auth:     r.Authenticator,
		Sessions: r.SessionService,
		Cookie:   r.cookie,
	}

	// Credential endpoints are limited per IP and email to slow guessing.
	r.Mux.Handle("POST /api/auth/signup",
		httpx.Chain(http.HandlerFunc(h.HandleSignUp),
			httpx.RateLimitByIP(r.Limits.SignUp),
		),
	)
	r.Mux.Handle("POST /api/auth/signin",
		httpx.Chain(http.HandlerFunc(h.HandleSignIn),
			httpx.RateLimitByIPAndField(r.Limits.SignIn, "email"),
		),
	)
	r.Mux.Handle("POST /api/auth/signout", http.HandlerFunc(h.HandleSignOut))
}

func (r *Router) registerSession() {
	h := &SessionHandler{Sessions: r.SessionService, Cookie: r.cookie}

	r.Mux.Handle("GET /api/auth/session",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.RequireSession,
		),
	)
	r.Mux.Handle("POST /api/auth/session",
		httpx.Chain(http.HandlerFunc(h.HandleUpdate),
			httpx.RequireSession,
			httpx.RateLimitByUser(r.Limits.Session),
		),
	)
	r.Mux.Handle("GET /api/gate/decision",
		httpx.Chain(http.HandlerFunc(r.Gate.HandleDecision),
			httpx.RateLimitByUser(r.Limits.Session),
		),
	)
}

func (r *Router) registerOnboarding() {
	h := &OnboardingHandler{
		Onboarding: r.OnboardingService,
		Sessions:   r.SessionService,
		Cookie:     r.cookie,
	}

	jobSeeker := func(next http.HandlerFunc) http.Handler {
		return httpx.Chain(next,
			httpx.RequireUserType(string(domain.UserTypeJobSeeker)),
			httpx.RateLimitByUser(r.Limits.Session),
		)
	}
	employer := func(next http.HandlerFunc) http.Handler {
		return httpx.Chain(next,
			httpx.RequireUserType(string(domain.UserTypeEmployer)),
			httpx.RateLimitByUser(r.Limits.Session),
		)
	}

	r.Mux.Handle("POST /api/job-seeker/onboarding/complete", jobSeeker(h.HandleCompleteJobSeeker))
	r.Mux.Handle("PUT /api/employer/onboarding/progress", employer(h.HandleSaveProgress))
	r.Mux.Handle("POST /api/employer/onboarding/complete", employer(h.HandleCompleteEmployer))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys, r.CachePinger))
}

// registerPages routes every other request through the gate.
func (r *Router) registerPages() {
	r.Mux.Handle("/", r.Gate.Wrap(PageHandler(r.Frontend)))
}
