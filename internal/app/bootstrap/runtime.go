package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/citas-assistant/internal/config"
	"github.com/wolfman30/citas-assistant/internal/transcript"
	"github.com/wolfman30/citas-assistant/pkg/logging"
)

const redisPingTimeout = 3 * time.Second

// BuildRedisClient connects to REDIS_ADDR, or returns nil when it is unset.
// With verify set, an unreachable server is logged and disabled so callers
// degrade to in-memory sessions and skip transcripts.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	addr := ""
	if cfg != nil {
		addr = strings.TrimSpace(cfg.RedisAddr)
	}
	if addr == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	opts := &redis.Options{
		Addr:         addr,
		Password:     cfg.RedisPassword,
		DialTimeout:  redisPingTimeout,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)
	if !verify {
		return client
	}

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis not available", "addr", addr, "error", err)
		_ = client.Close()
		return nil
	}
	logger.Info("redis connected", "addr", addr, "tls", cfg.RedisTLS)
	return client
}

// BuildTranscriptStore returns the Redis transcript store; nil Redis yields a no-op store.
func BuildTranscriptStore(redisClient *redis.Client) *transcript.Store {
	return transcript.NewStore(redisClient)
}
