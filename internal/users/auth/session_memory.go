// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/taibuivan/styleai/internal/platform/sec"
)

// MemorySessionStore implements [SessionStore] on an in-process expiring cache.
//
// Sessions vanish on restart; use it for development and tests only.
type MemorySessionStore struct {
	cache *cache.Cache
}

// NewMemorySessionStore creates a store whose janitor sweeps expired
// sessions every cleanupInterval.
func NewMemorySessionStore(cleanupInterval time.Duration) *MemorySessionStore {
	return &MemorySessionStore{cache: cache.New(cache.NoExpiration, cleanupInterval)}
}

func (store *MemorySessionStore) Create(_ context.Context, session *Session) error {
	// go-cache treats a negative duration as "never expires"
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("memory_session_create_failed: session already expired")
	}

	stored := *session
	store.cache.Set(sec.HashToken(session.Token), &stored, ttl)
	return nil
}

func (store *MemorySessionStore) Get(_ context.Context, token string) (*Session, error) {
	item, found := store.cache.Get(sec.HashToken(token))
	if !found {
		return nil, ErrSessionNotFound
	}

	session := *item.(*Session)
	return &session, nil
}

func (store *MemorySessionStore) Destroy(_ context.Context, token string) error {
	store.cache.Delete(sec.HashToken(token))
	return nil
}
