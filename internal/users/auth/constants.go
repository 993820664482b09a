// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

// # Authentication Constraints

const (
	// SessionTokenLength is the byte length of the random session token.
	SessionTokenLength = 32

	// PasswordMinLength is the shortest password accepted at registration.
	PasswordMinLength = 6

	// PasswordMaxBytes is the bcrypt input limit; longer secrets are rejected
	// instead of being silently truncated.
	PasswordMaxBytes = 72
)

// # Client Messages

const (
	MessageAccountCreated     = "Account created successfully"
	MessageInvalidCredentials = "Invalid username or password"
	MessageDuplicateUser      = "Username or email already exists"
	MessageLogoutFailed       = "Could not log out"
)
