package bootstrap

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/citas-assistant/internal/config"
	"github.com/wolfman30/citas-assistant/internal/session"
	"github.com/wolfman30/citas-assistant/pkg/logging"
)

// AWSConfigLoader resolves the shared AWS SDK configuration.
type AWSConfigLoader func(ctx context.Context) (aws.Config, error)

// BuildSessionStore picks the store named by SESSION_BACKEND. Redis without
// a reachable client degrades to memory; DynamoDB without AWS config fails.
func BuildSessionStore(ctx context.Context, cfg *appconfig.Config, redisClient *redis.Client, loadAWS AWSConfigLoader, logger *logging.Logger) (session.Store, error) {
	if logger == nil {
		logger = logging.Default()
	}
	switch cfg.SessionBackend {
	case "", "memory":
		logger.Info("using in-memory session store", "ttl", cfg.SessionTTL.String())
		return session.NewMemoryStore(cfg.SessionTTL), nil
	case "redis":
		if redisClient == nil {
			logger.Warn("redis session backend requested but redis is unavailable; using in-memory sessions")
			return session.NewMemoryStore(cfg.SessionTTL), nil
		}
		logger.Info("using redis session store", "addr", cfg.RedisAddr)
		return session.NewRedisStore(redisClient, cfg.SessionTTL), nil
	case "dynamodb":
		if loadAWS == nil {
			return nil, fmt.Errorf("bootstrap: dynamodb session backend requires aws config")
		}
		awsCfg, err := loadAWS(ctx)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: load aws config: %w", err)
		}
		logger.Info("using dynamodb session store", "table", cfg.SessionTable)
		return session.NewDynamoStore(dynamodb.NewFromConfig(awsCfg), cfg.SessionTable, cfg.SessionTTL), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown session backend %q", cfg.SessionBackend)
	}
}
