package redis

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/lfk/lfk-backend/config"
	"github.com/lfk/lfk-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	dialTimeout = 5 * time.Second
	ioTimeout   = 3 * time.Second
)

var client *redis.Client

// Init opens the shared client and fails fast when the server is unreachable.
func Init(cfg *config.RedisConfig) error {
	addr := net.JoinHostPort(cfg.Host, cfg.Port)
	c := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		logger.Error("Redis unreachable", err, logger.Fields{"addr": addr, "db": cfg.DB})
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	client = c
	logger.Info("Redis connection established", logger.Fields{"addr": addr, "db": cfg.DB})
	return nil
}

// GetClient returns nil before Init succeeds.
func GetClient() *redis.Client {
	return client
}

func Close() error {
	if client == nil {
		return nil
	}
	logger.Info("Closing Redis connection", nil)
	err := client.Close()
	client = nil
	return err
}
