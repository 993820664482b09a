// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and session identity types.
//
// # Architecture
//
// This package isolates security-sensitive code (password hashing, session
// token generation, cookie signing) from the domain logic. Domain services
// consume it through the small [Hasher] and [CookieSigner] contracts.
package sec

import "time"

// Identity is the authenticated principal attached to a request once its
// session cookie has been verified and resolved against the session store.
type Identity struct {
	// SessionToken is the opaque token the session is stored under.
	SessionToken string
	UserID       string
	Username     string
	ExpiresAt    time.Time
}
