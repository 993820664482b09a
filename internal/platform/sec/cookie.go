// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidCookie is returned when a cookie value fails signature or expiry checks.
var ErrInvalidCookie = errors.New("sec: invalid session cookie")

// sessionClaims is the payload of a signed session cookie.
type sessionClaims struct {
	jwt.RegisteredClaims

	// SessionToken is abbreviated to keep the cookie small.
	SessionToken string `json:"sid"`
}

// CookieSigner signs and verifies session cookie values with HMAC-SHA256.
//
// The cookie only carries the opaque session token; all session state lives
// server-side in the session store.
type CookieSigner struct {
	secret []byte
	issuer string
}

// NewCookieSigner creates a [CookieSigner]. The secret must not be empty.
func NewCookieSigner(secret, issuer string) (*CookieSigner, error) {
	if secret == "" {
		return nil, errors.New("sec: cookie signing secret is empty")
	}
	return &CookieSigner{secret: []byte(secret), issuer: issuer}, nil
}

// Sign wraps sessionToken in a signed value that expires after timeToLive.
func (signer *CookieSigner) Sign(sessionToken string, timeToLive time.Duration) (string, error) {
	currentTime := time.Now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    signer.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		SessionToken: sessionToken,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signer.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign session cookie: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, issuer and expiry of value and returns the
// session token it carries.
func (signer *CookieSigner) Verify(value string) (string, error) {
	token, err := jwt.ParseWithClaims(value, &sessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return signer.secret, nil
	}, jwt.WithIssuer(signer.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidCookie, err)
	}

	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid || claims.SessionToken == "" {
		return "", ErrInvalidCookie
	}

	return claims.SessionToken, nil
}
