// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/styleai/internal/platform/sec"
)

/*
TestBcryptHasher_RoundTrip verifies hashing never stores plaintext and verify is exact.
*/
func TestBcryptHasher_RoundTrip(t *testing.T) {
	hasher := sec.NewBcryptHasher(bcrypt.MinCost)

	digest, err := hasher.Hash("secret1")
	require.NoError(t, err)

	assert.NotEqual(t, "secret1", digest)
	assert.True(t, hasher.Verify("secret1", digest))
	assert.False(t, hasher.Verify("secret2", digest))
	assert.False(t, hasher.Verify("secret1", "not-a-bcrypt-digest"))
}

/*
TestBcryptHasher_CostFallback keeps invalid costs from breaking registration.
*/
func TestBcryptHasher_CostFallback(t *testing.T) {
	hasher := sec.NewBcryptHasher(99)

	digest, err := hasher.Hash("secret1")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(digest))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

/*
TestGenerateSecureToken checks length and uniqueness of session tokens.
*/
func TestGenerateSecureToken(t *testing.T) {
	first, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)
	second, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)

	// 32 bytes -> 43 unpadded base64url characters
	assert.Len(t, first, 43)
	assert.NotEqual(t, first, second)
}

/*
TestHashToken is deterministic and hides the raw value.
*/
func TestHashToken(t *testing.T) {
	assert.Equal(t, sec.HashToken("abc"), sec.HashToken("abc"))
	assert.NotEqual(t, sec.HashToken("abc"), sec.HashToken("abd"))
	assert.Len(t, sec.HashToken("abc"), 64)
}

/*
TestCookieSigner_RoundTrip signs and verifies a session token.
*/
func TestCookieSigner_RoundTrip(t *testing.T) {
	signer, err := sec.NewCookieSigner("test-secret", "styleai.test")
	require.NoError(t, err)

	value, err := signer.Sign("session-token", time.Hour)
	require.NoError(t, err)

	token, err := signer.Verify(value)
	require.NoError(t, err)
	assert.Equal(t, "session-token", token)
}

/*
TestCookieSigner_Rejects covers tampering, foreign keys and expiry.
*/
func TestCookieSigner_Rejects(t *testing.T) {
	signer, err := sec.NewCookieSigner("test-secret", "styleai.test")
	require.NoError(t, err)
	other, err := sec.NewCookieSigner("other-secret", "styleai.test")
	require.NoError(t, err)

	foreign, err := other.Sign("session-token", time.Hour)
	require.NoError(t, err)

	expired, err := signer.Sign("session-token", -time.Minute)
	require.NoError(t, err)

	valid, err := signer.Sign("session-token", time.Hour)
	require.NoError(t, err)

	// Keep header and payload, graft a signature made with another key
	validParts := strings.Split(valid, ".")
	foreignParts := strings.Split(foreign, ".")
	tampered := validParts[0] + "." + validParts[1] + "." + foreignParts[2]

	tests := []struct {
		name  string
		value string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"foreign_secret", foreign},
		{"expired", expired},
		{"tampered", tampered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := signer.Verify(tt.value)
			assert.ErrorIs(t, err, sec.ErrInvalidCookie)
		})
	}
}

/*
TestNewCookieSigner_EmptySecret refuses to sign with an empty key.
*/
func TestNewCookieSigner_EmptySecret(t *testing.T) {
	_, err := sec.NewCookieSigner("", "styleai.test")
	assert.Error(t, err)
}
