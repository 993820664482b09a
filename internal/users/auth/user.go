// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the user identity and session management layer.

It defines the core domain entities (User, Session), the storage contracts
they travel through, and the account lifecycle: registration, login, logout
and login-status checks.

# Architecture

Entities defined here carry no storage tags beyond what the backends in this
package need; every backend satisfies the same [UserDirectory] or
[SessionStore] contract.
*/
package auth

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/taibuivan/styleai/internal/platform/sec"
)

// # Domain Entities

// Measurements is the body-measurement sub-document of a user.
//
// Each value is optional; nil means the user left the field blank.
type Measurements struct {
	Height  *float64 `json:"height" bson:"height,omitempty"`
	Bust    *float64 `json:"bust" bson:"bust,omitempty"`
	Waist   *float64 `json:"waist" bson:"waist,omitempty"`
	Hips    *float64 `json:"hips" bson:"hips,omitempty"`
	HipDips *float64 `json:"hipDips" bson:"hipDips,omitempty"`
}

// BodyProfile is the mutable part of a [User], always replaced as a whole.
type BodyProfile struct {
	Measurements *Measurements
	BodyType     *string
	Outfit       *string
}

// User represents a registered StyleAI member.
type User struct {
	ID           string
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	Measurements *Measurements
	BodyType     *string
	Outfit       *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile returns the user's current [BodyProfile].
func (user *User) Profile() BodyProfile {
	return BodyProfile{
		Measurements: user.Measurements,
		BodyType:     user.BodyType,
		Outfit:       user.Outfit,
	}
}

// Session is an authenticated browser session.
//
// Token is the secret handed to the client; stores never persist it in clear.
type Session struct {
	Token     string    `json:"-"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	IPAddress string    `json:"ipAddress"`
	UserAgent string    `json:"userAgent"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the session is past its lifetime at now.
func (session *Session) Expired(now time.Time) bool {
	return !now.Before(session.ExpiresAt)
}

// Identity projects the session into the request-scoped identity.
func (session *Session) Identity() *sec.Identity {
	return &sec.Identity{
		SessionToken: session.Token,
		UserID:       session.UserID,
		Username:     session.Username,
		ExpiresAt:    session.ExpiresAt,
	}
}

// NormalizeUsername trims and NFKC-folds a username so that visually
// identical names compare equal.
func NormalizeUsername(username string) string {
	return norm.NFKC.String(strings.TrimSpace(username))
}

// # Field Identifiers

const (
	FieldUsername  = "username"
	FieldEmail     = "email"
	FieldPassword  = "password"
	FieldFirstName = "firstName"
	FieldLastName  = "lastName"
)
