package app

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/bwirakes/temu-v2/internal/onboarding/cache"
	"github.com/bwirakes/temu-v2/internal/onboarding/domain"
	httpapi "github.com/bwirakes/temu-v2/internal/onboarding/http"
	"github.com/bwirakes/temu-v2/internal/onboarding/service"
	"github.com/bwirakes/temu-v2/pkg/httpx"
	"github.com/bwirakes/temu-v2/pkg/jwtx"
)

type Config struct {
	Env                 string        `env:"ENV"                   envDefault:"dev"`
	LogLevel            string        `env:"LOG_LEVEL"             envDefault:"info"`
	LogFormat           string        `env:"LOG_FORMAT"            envDefault:"json"`
	Port                int           `env:"PORT"                  envDefault:"8080"`
	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`

	// DatabaseDriver is sqlite or postgres.
	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"sqlite"`
	DatabaseFile   string `env:"DATABASE_FILE"   envDefault:"temu.db"`
	DatabaseURL    string `env:"DATABASE_URL"`

	PepperFile string `env:"PEPPER_FILE" envDefault:"pepper"`

	SessionIssuer    string `env:"SESSION_ISSUER"    envDefault:"temu"`
	SessionAlgorithm string `env:"SESSION_ALGORITHM" envDefault:"EdDSA"`

	// SessionKeyFile holds the PKCS8 signing key, created on first start.
	// Empty means an ephemeral key: every restart signs everyone out.
	SessionKeyFile      string        `env:"SESSION_KEY_FILE"`
	SessionTTL          time.Duration `env:"SESSION_TTL"           envDefault:"24h"`
	SessionLeeway       time.Duration `env:"SESSION_LEEWAY"        envDefault:"30s"`
	SessionCookieName   string        `env:"SESSION_COOKIE_NAME"   envDefault:"temu_session"`
	SessionCookieSecure bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`
	SessionRefreshAfter time.Duration `env:"SESSION_REFRESH_AFTER" envDefault:"1m"`

	StatusCompletedTTL  time.Duration `env:"STATUS_COMPLETED_TTL"  envDefault:"5m"`
	StatusIncompleteTTL time.Duration `env:"STATUS_INCOMPLETE_TTL" envDefault:"5s"`
	StatusFallbackTTL   time.Duration `env:"STATUS_FALLBACK_TTL"   envDefault:"2s"`
	StatusFetchTimeout  time.Duration `env:"STATUS_FETCH_TIMEOUT"  envDefault:"3s"`
	StatusRetain        time.Duration `env:"STATUS_RETAIN"         envDefault:"10m"`

	// CacheBackend is memory or redis.
	CacheBackend string `env:"CACHE_BACKEND" envDefault:"memory"`
	RedisURL     string `env:"REDIS_URL"`

	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1m"`

	SigninPath      string   `env:"SIGNIN_PATH"       envDefault:"/signin"`
	LandingPath     string   `env:"LANDING_PATH"      envDefault:"/landing"`
	GateExtraBypass []string `env:"GATE_EXTRA_BYPASS" envSeparator:","`

	// FrontendURL receives gated page requests when set.
	FrontendURL string `env:"FRONTEND_URL"`

	RateLimitSignInRequests int           `env:"RATELIMIT_SIGNIN_REQUESTS" envDefault:"5"`
	RateLimitSignInWindow   time.Duration `env:"RATELIMIT_SIGNIN_WINDOW"   envDefault:"1m"`
	RateLimitSignUpRequests int           `env:"RATELIMIT_SIGNUP_REQUESTS" envDefault:"5"`
	RateLimitSignUpWindow   time.Duration `env:"RATELIMIT_SIGNUP_WINDOW"   envDefault:"1m"`
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	switch c.DatabaseDriver {
	case "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER must be sqlite or postgres, got %q", c.DatabaseDriver))
	}

	switch c.CacheBackend {
	case "memory":
	case "redis":
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for the redis cache backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("CACHE_BACKEND must be memory or redis, got %q", c.CacheBackend))
	}

	if c.SessionAlgorithm != jwtx.AlgorithmEdDSA && c.SessionAlgorithm != jwtx.AlgorithmES256 {
		errs = append(errs, fmt.Errorf("SESSION_ALGORITHM must be EdDSA or ES256, got %q", c.SessionAlgorithm))
	}
	if c.SessionIssuer == "" {
		errs = append(errs, errors.New("SESSION_ISSUER must not be empty"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}

	for name, d := range map[string]time.Duration{
		"STATUS_COMPLETED_TTL":  c.StatusCompletedTTL,
		"STATUS_INCOMPLETE_TTL": c.StatusIncompleteTTL,
		"STATUS_FALLBACK_TTL":   c.StatusFallbackTTL,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}

	// A fill that outlives the invalidation generations guarding it could
	// cache a status from before the invalidation.
	switch {
	case c.StatusFetchTimeout <= 0:
		errs = append(errs, errors.New("STATUS_FETCH_TIMEOUT must be positive"))
	case c.StatusFetchTimeout >= cache.GenerationTTL:
		errs = append(errs, fmt.Errorf("STATUS_FETCH_TIMEOUT must be below %s", cache.GenerationTTL))
	case c.StatusRetain <= c.StatusFetchTimeout:
		errs = append(errs, errors.New("STATUS_RETAIN must be longer than STATUS_FETCH_TIMEOUT"))
	}

	for name, n := range map[string]int{
		"RATELIMIT_SIGNIN_REQUESTS": c.RateLimitSignInRequests,
		"RATELIMIT_SIGNUP_REQUESTS": c.RateLimitSignUpRequests,
	} {
		if n <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	for name, d := range map[string]time.Duration{
		"RATELIMIT_SIGNIN_WINDOW": c.RateLimitSignInWindow,
		"RATELIMIT_SIGNUP_WINDOW": c.RateLimitSignUpWindow,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}

	if c.FrontendURL != "" {
		if u, err := url.Parse(c.FrontendURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("FRONTEND_URL must be an absolute URL, got %q", c.FrontendURL))
		}
	}

	return errors.Join(errs...)
}

func (c Config) StatusStoreConfig() service.StatusStoreConfig {
	return service.StatusStoreConfig{
		CompletedTTL:  c.StatusCompletedTTL,
		IncompleteTTL: c.StatusIncompleteTTL,
		FallbackTTL:   c.StatusFallbackTTL,
		FetchTimeout:  c.StatusFetchTimeout,
		Retain:        c.StatusRetain,
	}
}

func (c Config) GateConfig() service.GateConfig {
	return service.GateConfig{
		Paths:       domain.DefaultPathTable(),
		Bypass:      append(service.DefaultBypass(), c.GateExtraBypass...),
		SigninPath:  c.SigninPath,
		LandingPath: c.LandingPath,
	}
}

func (c Config) RateLimits() httpapi.RateLimits {
	limits := httpapi.DefaultRateLimits()
	limits.SignIn = httpx.RateLimitConfig{
		RequestsPerWindow: c.RateLimitSignInRequests,
		Window:            c.RateLimitSignInWindow,
		Burst:             c.RateLimitSignInRequests,
	}
	limits.SignUp = httpx.RateLimitConfig{
		RequestsPerWindow: c.RateLimitSignUpRequests,
		Window:            c.RateLimitSignUpWindow,
		Burst:             c.RateLimitSignUpRequests,
	}
	return limits
}

func (c Config) SessionCookie() httpx.SessionCookie {
	return httpx.SessionCookie{
		Name:   c.SessionCookieName,
		Path:   "/",
		Secure: c.SessionCookieSecure,
	}
}
