package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/nail-studio-api/internal/booking"
	appconfig "github.com/wolfman30/nail-studio-api/internal/config"
	"github.com/wolfman30/nail-studio-api/pkg/logging"
)

const sessionSweepInterval = 5 * time.Minute

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildSessionStore picks the booking session store. "redis" falls back to
// memory when Redis cannot be reached. The memory sweeper runs until ctx is
// done.
func BuildSessionStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) booking.SessionStore {
	if logger == nil {
		logger = logging.Default()
	}
	var ttl time.Duration
	if cfg != nil {
		ttl = cfg.BookingSessionTTL
	}

	if cfg != nil && cfg.BookingSessionStore == "redis" {
		if client := BuildRedisClient(ctx, cfg, logger, true); client != nil {
			logger.Info("booking sessions stored in redis", "addr", cfg.RedisAddr)
			return booking.NewRedisSessionStore(client, ttl)
		}
		logger.Warn("falling back to in-memory booking sessions")
	}

	store := booking.NewMemorySessionStore(ttl)
	go store.RunSweeper(ctx, sessionSweepInterval)
	return store
}
