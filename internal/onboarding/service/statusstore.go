package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/bwirakes/temu-v2/internal/onboarding/cache"
	"github.com/bwirakes/temu-v2/internal/onboarding/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const tracerName = "github.com/bwirakes/temu-v2/internal/onboarding/service"

// FetchFunc loads the authoritative status of an identity. It may fail.
type FetchFunc func(ctx context.Context, id domain.Identity) (domain.OnboardingStatus, error)

// StatusLookup is what the enricher and the gate need from StatusStore.
type StatusLookup interface {
	Get(ctx context.Context, id domain.Identity) (domain.OnboardingStatus, error)
}

type StatusStoreConfig struct {
	// CompletedTTL applies to completed statuses, which rarely change.
	CompletedTTL time.Duration

	// IncompleteTTL is short so onboarding progress shows up quickly.
	IncompleteTTL time.Duration

	// FallbackTTL applies to degraded answers served after a failed fetch.
	FallbackTTL time.Duration

	// FetchTimeout bounds a single fetch. Zero means no timeout.
	FetchTimeout time.Duration

	// Retain keeps expired entries around so a failed refetch can still see
	// the last known answer.
	Retain time.Duration
}

func DefaultStatusStoreConfig() StatusStoreConfig {
	return StatusStoreConfig{
		CompletedTTL:  5 * time.Minute,
		IncompleteTTL: 5 * time.Second,
		FallbackTTL:   2 * time.Second,
		FetchTimeout:  3 * time.Second,
		Retain:        10 * time.Minute,
	}
}

// StatusStore caches onboarding statuses per identity in front of a fetch
// function. Concurrent misses for the same identity share one fetch.
type StatusStore struct {
	backend  cache.Backend
	fetch    FetchFunc
	resolver *StatusResolver
	cfg      StatusStoreConfig
	now      func() time.Time
	logger   *slog.Logger
	tracer   trace.Tracer
	group    singleflight.Group
}

type StatusStoreOption func(*StatusStore)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) StatusStoreOption {
	return func(s *StatusStore) { s.now = now }
}

func WithLogger(l *slog.Logger) StatusStoreOption {
	return func(s *StatusStore) { s.logger = l }
}

func NewStatusStore(
	backend cache.Backend,
	fetch FetchFunc,
	resolver *StatusResolver,
	cfg StatusStoreConfig,
	opts ...StatusStoreOption,
) *StatusStore {
	s := &StatusStore{
		backend:  backend,
		fetch:    fetch,
		resolver: resolver,
		cfg:      cfg,
		now:      time.Now,
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the cached status while it is fresh and fetches otherwise.
// Fetch failures are never returned: the caller gets a fallback status. The
// only error is ErrInvalidIdentity.
func (s *StatusStore) Get(ctx context.Context, id domain.Identity) (domain.OnboardingStatus, error) {
	if id.UserID == "" {
		return domain.OnboardingStatus{}, ErrInvalidIdentity
	}
	if _, ok := s.resolver.Paths().For(id.UserType); !ok {
		return s.resolver.Resolve(id.UserType, domain.RawStatus{}), nil
	}

	ctx, span := s.tracer.Start(ctx, "StatusStore.Get",
		trace.WithAttributes(attribute.String("user_type", string(id.UserType))))
	defer span.End()

	key := id.Key()
	prev, havePrev, err := s.backend.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "status cache read failed", "key", key, "err", err)
		havePrev = false
	}
	if havePrev && prev.Fresh(s.now()) {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return prev.Status, nil
	}
	span.SetAttributes(attribute.Bool("cache_hit", false))

	// The shared fill outlives any single caller; FetchTimeout bounds it.
	fillCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		return s.fill(fillCtx, id, prev, havePrev), nil
	})

	select {
	case res := <-ch:
		st := res.Val.(domain.OnboardingStatus)
		if st.Fallback {
			span.SetStatus(codes.Error, "fetch failed, served fallback")
		}
		return st, nil
	case <-ctx.Done():
		s.logger.WarnContext(ctx, "status lookup abandoned", "key", key, "err", ctx.Err())
		return s.degrade(id, prev, havePrev), nil
	}
}

// fill fetches and caches. The write is skipped if the identity was
// invalidated while the fetch was running.
func (s *StatusStore) fill(ctx context.Context, id domain.Identity, prev cache.Entry, havePrev bool) domain.OnboardingStatus {
	key := id.Key()

	gen, genErr := s.backend.Generation(ctx, key)
	if genErr != nil {
		s.logger.WarnContext(ctx, "status cache generation read failed", "key", key, "err", genErr)
	}

	fetchCtx := ctx
	if s.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.cfg.FetchTimeout)
		defer cancel()
	}

	st, err := s.fetch(fetchCtx, id)
	ttl := s.cfg.IncompleteTTL
	switch {
	case err != nil:
		s.logger.WarnContext(ctx, "onboarding status fetch failed, serving fallback",
			"user_id", id.UserID, "user_type", id.UserType, "err", err)
		st = s.degrade(id, prev, havePrev)
		ttl = s.cfg.FallbackTTL
	case st.Completed:
		ttl = s.cfg.CompletedTTL
	case st.RedirectTo == "":
		st.RedirectTo = s.resolver.Fallback(id.UserType).RedirectTo
	}

	if genErr != nil {
		return st
	}

	now := s.now()
	stored, err := s.backend.SetIfGeneration(ctx, key, cache.Entry{
		Status:    st,
		CachedAt:  now,
		ExpiresAt: now.Add(ttl),
	}, gen)
	switch {
	case err != nil:
		s.logger.WarnContext(ctx, "status cache write failed", "key", key, "err", err)
	case !stored:
		s.logger.DebugContext(ctx, "status invalidated during fetch, not cached", "key", key)
	}
	return st
}

// degrade picks the answer to serve when no fresh status is available. A
// previously known completion is kept; otherwise the user is sent to the
// start of onboarding.
func (s *StatusStore) degrade(id domain.Identity, prev cache.Entry, havePrev bool) domain.OnboardingStatus {
	if havePrev && prev.Status.Completed {
		st := prev.Status
		st.Fallback = true
		return st
	}
	return s.resolver.Fallback(id.UserType)
}

// Invalidate forces the next Get for id to refetch. It is visible to every
// caller sharing the backend, and fetches already in flight are not cached.
func (s *StatusStore) Invalidate(ctx context.Context, id domain.Identity) error {
	key := id.Key()
	s.group.Forget(key)
	if err := s.backend.Invalidate(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "status cache invalidation failed", "key", key, "err", err)
		return err
	}
	return nil
}

// Sweep drops entries that expired more than Retain ago.
func (s *StatusStore) Sweep(ctx context.Context) (int, error) {
	return s.backend.Sweep(ctx, s.now().Add(-s.cfg.Retain))
}
