package utils

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cppla/cashx/config"
)

var redisClient *redis.Client

// InitRedis connects the shared client. With no RedisHost configured it
// leaves the client nil and callers use their in-memory fallbacks.
func InitRedis(cfg config.AppConfig) *redis.Client {
	if cfg.RedisHost == "" {
		return nil
	}
	redisClient = redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort)),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := redisClient.Ping(ctx).Err(); err != nil && Sugar != nil {
		Sugar.Warnf("redis ping failed, continuing: %v", err)
	}
	return redisClient
}

// GetRedis returns the shared client, or nil when Redis is not configured.
func GetRedis() *redis.Client {
	return redisClient
}

// SetRedis replaces the shared client. Tests use it to install a mock.
func SetRedis(rc *redis.Client) {
	redisClient = rc
}
