// Copyright (c) 2026 Fieldbook. All rights reserved.
// Author: platform@fieldbook.app

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// revocationKeyPrefix namespaces revocation entries in the shared Redis instance.
const revocationKeyPrefix = "auth:revoked:"

// RedisRevocationList implements [RevocationList] on Redis.
//
// Each revoked refresh-token ID becomes a key whose TTL equals the token's
// remaining lifetime, so the set is self-cleaning and the refresh hot path
// never touches PostgreSQL.
type RedisRevocationList struct {
	client *redis.Client
}

// NewRedisRevocationList creates the Redis implementation of [RevocationList].
func NewRedisRevocationList(client *redis.Client) *RedisRevocationList {
	return &RedisRevocationList{client: client}
}

// Revoke marks a token ID as unusable for its remaining lifetime.
func (list *RedisRevocationList) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		// The token has already expired on its own; nothing to track.
		return nil
	}

	if err := list.client.Set(ctx, revocationKeyPrefix+tokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis_revocation_set_failed: %w", err)
	}

	return nil
}

// IsRevoked reports whether the token ID is present in the revocation set.
func (list *RedisRevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	count, err := list.client.Exists(ctx, revocationKeyPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("redis_revocation_check_failed: %w", err)
	}

	return count > 0, nil
}
