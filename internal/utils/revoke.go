package utils

import (
	"context" // Context for Redis operations
	"time"    // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

const revokedPrefix = "auth:revoked:"

// RevokeToken marks a token id as logged out until it would have expired anyway
func RevokeToken(ctx context.Context, rdb *redis.Client, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // Already expired
	}
	return rdb.Set(ctx, revokedPrefix+tokenID, 1, ttl).Err()
}

// IsTokenRevoked reports whether the token id was logged out
func IsTokenRevoked(ctx context.Context, rdb *redis.Client, tokenID string) (bool, error) {
	n, err := rdb.Exists(ctx, revokedPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
