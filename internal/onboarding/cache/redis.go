package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/bwirakes/temu-v2/internal/onboarding/domain"
	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPrefix = "onboarding:status:"

	// GenerationTTL is how long an invalidation generation survives in Redis.
	// Fetches must be bounded well below it.
	GenerationTTL = time.Hour
)

// setIfGeneration writes the entry only when the generation key still holds
// the caller's value. A missing generation key counts as 0.
var setIfGeneration = redis.NewScript(`
local g = redis.call('GET', KEYS[2])
if not g then g = '0' end
if g ~= ARGV[1] then return 0 end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// Redis is a Backend shared by every instance talking to the same server.
// Expired entries are kept for Retain past their expiry so a failed refetch
// can still see the last known answer; Redis drops them afterwards.
type Redis struct {
	client redis.UniversalClient
	prefix string
	retain time.Duration
	now    func() time.Time
}

func NewRedis(client redis.UniversalClient, retain time.Duration) *Redis {
	return &Redis{
		client: client,
		prefix: defaultRedisPrefix,
		retain: retain,
		now:    time.Now,
	}
}

type redisEntry struct {
	Completed  bool   `json:"completed"`
	RedirectTo string `json:"redirect_to,omitempty"`
	Fallback   bool   `json:"fallback,omitempty"`
	CachedAt   int64  `json:"cached_at"`
	ExpiresAt  int64  `json:"expires_at"`
}

func (r *Redis) entryKey(key string) string { return r.prefix + key }
func (r *Redis) genKey(key string) string   { return r.prefix + "gen:" + key }

func (r *Redis) Get(ctx context.Context, key string) (Entry, bool, error) {
	raw, err := r.client.Get(ctx, r.entryKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}

	var re redisEntry
	if err := json.Unmarshal(raw, &re); err != nil {
		return Entry{}, false, err
	}
	return Entry{
		Status: domain.OnboardingStatus{
			Completed:  re.Completed,
			RedirectTo: re.RedirectTo,
			Fallback:   re.Fallback,
		},
		CachedAt:  time.UnixMilli(re.CachedAt),
		ExpiresAt: time.UnixMilli(re.ExpiresAt),
	}, true, nil
}

func (r *Redis) Generation(ctx context.Context, key string) (uint64, error) {
	n, err := r.client.Get(ctx, r.genKey(key)).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func (r *Redis) SetIfGeneration(ctx context.Context, key string, e Entry, gen uint64) (bool, error) {
	raw, err := json.Marshal(redisEntry{
		Completed:  e.Status.Completed,
		RedirectTo: e.Status.RedirectTo,
		Fallback:   e.Status.Fallback,
		CachedAt:   e.CachedAt.UnixMilli(),
		ExpiresAt:  e.ExpiresAt.UnixMilli(),
	})
	if err != nil {
		return false, err
	}

	ttl := e.ExpiresAt.Sub(r.now()) + r.retain
	if ttl <= 0 {
		return false, nil
	}

	res, err := setIfGeneration.Run(ctx, r.client,
		[]string{r.entryKey(key), r.genKey(key)},
		strconv.FormatUint(gen, 10), raw, pxMillis(ttl),
	).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

func (r *Redis) Invalidate(ctx context.Context, key string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.entryKey(key))
		pipe.Incr(ctx, r.genKey(key))
		pipe.Expire(ctx, r.genKey(key), GenerationTTL)
		return nil
	})
	return err
}

// pxMillis converts a positive ttl for SET PX, which rejects 0.
func pxMillis(ttl time.Duration) int64 {
	return max(ttl, time.Millisecond).Milliseconds()
}

// Sweep is a no-op; Redis expires keys itself.
func (r *Redis) Sweep(context.Context, time.Time) (int, error) {
	return 0, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
