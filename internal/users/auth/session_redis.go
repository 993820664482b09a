// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/styleai/internal/platform/constants"
	"github.com/taibuivan/styleai/internal/platform/sec"
)

// RedisSessionStore implements [SessionStore] using Redis.
//
// Keys are the SHA-256 of the token, so a dump of the keyspace does not
// reveal live session secrets. Each key expires with its session.
type RedisSessionStore struct {
	client redis.UniversalClient
}

// NewRedisSessionStore creates a new Redis-backed SessionStore.
func NewRedisSessionStore(client redis.UniversalClient) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func sessionKey(token string) string {
	return constants.RedisPrefixSession + sec.HashToken(token)
}

/*
Create stores the session as JSON with a TTL equal to its remaining lifetime.

Returns:
  - error: Encoding or execution errors
*/
func (store *RedisSessionStore) Create(ctx context.Context, session *Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("redis_session_create_failed: session already expired")
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("redis_session_encode_failed: %w", err)
	}

	if err := store.client.Set(ctx, sessionKey(session.Token), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis_session_create_failed: %w", err)
	}
	return nil
}

/*
Get loads the session for token.

Returns:
  - *Session: Stored session with Token restored
  - error: ErrSessionNotFound if absent or expired, otherwise connectivity errors
*/
func (store *RedisSessionStore) Get(ctx context.Context, token string) (*Session, error) {
	payload, err := store.client.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("redis_session_get_failed: %w", err)
	}

	session := &Session{}
	if err := json.Unmarshal(payload, session); err != nil {
		return nil, fmt.Errorf("redis_session_decode_failed: %w", err)
	}
	session.Token = token
	return session, nil
}

// Destroy deletes the session key; missing keys are fine.
func (store *RedisSessionStore) Destroy(ctx context.Context, token string) error {
	if err := store.client.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("redis_session_destroy_failed: %w", err)
	}
	return nil
}
