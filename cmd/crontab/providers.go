package main

import (
	"fmt"
	"time"

	redis "github.com/go-redis/redis/v8"
	"github.com/jobs/crontab/pkg/config"
)

// ProvideRedisClient builds a redis client from typed config.
// Returns nil when redis is disabled.
func ProvideRedisClient(cfg config.Config) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	addr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func ProvideExecutorConfig(cfg config.Config) config.ExecutorConfig {
	return cfg.Executor
}

// ProvideLocation 调度和日志分表使用的时区
func ProvideLocation(cfg config.Config) (*time.Location, error) {
	return cfg.Scheduler.Location()
}
