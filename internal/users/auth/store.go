// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"

	"github.com/taibuivan/styleai/internal/platform/apperr"
)

// # Store Errors

var (
	// ErrUserNotFound is returned by directories when no user matches.
	ErrUserNotFound = apperr.NotFound("User")

	// ErrDuplicateUser is returned when a username or email is already taken.
	ErrDuplicateUser = apperr.Conflict(MessageDuplicateUser)

	// ErrSessionNotFound is returned by session stores for unknown or expired tokens.
	ErrSessionNotFound = apperr.Unauthorized("Session not found")
)

// # User Data Access

// UserDirectory defines the data access contract for user accounts.
//
// Usernames and emails are unique; implementations enforce it at the storage
// level and report violations as [ErrDuplicateUser].
type UserDirectory interface {

	/*
		FindByID returns the user with the given opaque ID.

		Returns:
		  - *User: Hydrated entity
		  - error: ErrUserNotFound or storage failures
	*/
	FindByID(ctx context.Context, id string) (*User, error)

	/*
		FindByUsername returns the user with exactly this (normalized) username.

		Returns:
		  - *User: Hydrated entity
		  - error: ErrUserNotFound or storage failures
	*/
	FindByUsername(ctx context.Context, username string) (*User, error)

	// ExistsByUsernameOrEmail reports whether any user holds the username or the email.
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)

	/*
		Create persists a brand-new user and assigns its ID.

		Returns:
		  - error: ErrDuplicateUser or storage failures
	*/
	Create(ctx context.Context, user *User) error

	/*
		UpdateBodyProfile replaces measurements, body type and outfit of one user.

		Returns:
		  - error: ErrUserNotFound when no user matched, or storage failures
	*/
	UpdateBodyProfile(ctx context.Context, id string, profile BodyProfile) error
}

// # Session Data Access

// SessionStore keeps authenticated sessions keyed by their secret token.
type SessionStore interface {
	// Create stores the session until its ExpiresAt.
	Create(ctx context.Context, session *Session) error

	// Get returns the session for token, or ErrSessionNotFound.
	Get(ctx context.Context, token string) (*Session, error)

	// Destroy removes the session. Unknown tokens are not an error.
	Destroy(ctx context.Context, token string) error
}
