// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"sportivox/config"

	"github.com/go-redis/redis/v8"
)

var (
	// CacheClient is the generic cache client (coupons, booking summaries).
	CacheClient *redis.Client
	// SessionClient holds checkout sessions and their in-flight locks.
	SessionClient *redis.Client
)

func newRedisClient(db int, label string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (%s): %v", label, err)
	}
	return client
}

// InitCache initializes the generic Redis cache client.
func InitCache() {
	CacheClient = newRedisClient(config.AppConfig.RedisCacheDB, "Cache")
}

// GetCacheClient returns the generic cache client.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		InitCache()
	}
	return CacheClient
}

// InitSessionCache initializes the Redis client for checkout sessions.
func InitSessionCache() {
	SessionClient = newRedisClient(config.AppConfig.RedisSessionDB, "Sessions")
}

// GetSessionClient returns the Redis client for checkout sessions.
func GetSessionClient() *redis.Client {
	if SessionClient == nil {
		InitSessionCache()
	}
	return SessionClient
}
