package evaluation

import (
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smallbiznis/flaghub/internal/config"
	"github.com/smallbiznis/flaghub/internal/evaluation/service"
	"github.com/smallbiznis/flaghub/internal/evaluation/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func provideSnapshotStore(cfg config.Config, log *zap.Logger) store.SnapshotStore {
	ttl := time.Duration(cfg.SnapshotTTLSeconds) * time.Second
	if cfg.RedisAddr == "" {
		log.Info("snapshot store using in-process cache", zap.Duration("ttl", ttl))
		return store.NewMemoryStore(ttl)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	log.Info("snapshot store using redis", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", ttl))
	return store.NewRedisStore(client, ttl)
}

var Module = fx.Module("evaluation.service",
	fx.Provide(provideSnapshotStore),
	fx.Provide(service.New),
)
