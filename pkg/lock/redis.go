package lock

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/JaimeStill/pathfinder/pkg/lifecycle"
)

// releaseScript deletes the lease only while it still carries our token.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// renewScript extends the lease only while it still carries our token.
const renewScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`

// Client is the subset of the go-redis client the lease uses.
type Client interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd
}

// Redis holds leases as expiring keys so a crashed holder cannot block a key
// for longer than the TTL. A live holder renews its lease every third of the
// TTL until it releases.
type Redis struct {
	client Client
	prefix string
	ttl    time.Duration
	retry  time.Duration
	logger *slog.Logger
}

// NewRedis creates a Redis locker over client.
func NewRedis(client Client, cfg *Config, logger *slog.Logger) *Redis {
	return &Redis{
		client: client,
		prefix: cfg.Prefix,
		ttl:    cfg.TTLDuration(),
		retry:  cfg.RetryIntervalDuration(),
		logger: logger.With("system", "lock"),
	}
}

func (r *Redis) Acquire(ctx context.Context, key string) (Release, error) {
	k := r.prefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(r.retry)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(ctx, k, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			return r.release(k, token), nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %w", ErrNotAcquired, key, ctx.Err())
		}
	}
}

func (r *Redis) Start(lc *lifecycle.Coordinator) error {
	closer, ok := r.client.(io.Closer)
	if !ok {
		return nil
	}

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := closer.Close(); err != nil {
			r.logger.Error("redis close failed", "error", err)
			return
		}
		r.logger.Info("redis connection closed")
	})
	return nil
}

func (r *Redis) release(key, token string) Release {
	stop := make(chan struct{})
	done := make(chan struct{})
	go r.renew(key, token, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := r.client.Eval(ctx, releaseScript, []string{key}, token).Err(); err != nil {
				r.logger.Warn("lease release failed, waiting for expiry", "key", key, "error", err)
			}
		})
	}
}

func (r *Redis) renew(key, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(max(r.ttl/3, time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), r.ttl)
		n, err := r.client.Eval(ctx, renewScript, []string{key}, token, r.ttl.Milliseconds()).Int()
		cancel()

		if err != nil {
			r.logger.Warn("lease renewal failed", "key", key, "error", err)
			return
		}
		if n == 0 {
			r.logger.Warn("lease lost before release", "key", key)
			return
		}
	}
}
