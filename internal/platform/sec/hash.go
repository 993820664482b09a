// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher turns plain-text passwords into one-way digests and verifies them.
type Hasher interface {
	Hash(plainTextPassword string) (string, error)
	Verify(plainTextPassword, digest string) bool
}

// BcryptHasher implements [Hasher] with bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a bcrypt [Hasher]. Out-of-range costs fall back to
// [bcrypt.DefaultCost].
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash hashes a plain-text password using the bcrypt algorithm.
func (hasher *BcryptHasher) Hash(plainTextPassword string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), hasher.cost)
	if err != nil {
		return "", fmt.Errorf("sec: failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// Verify compares a plain-text password with its hashed version.
func (hasher *BcryptHasher) Verify(plainTextPassword, digest string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plainTextPassword))
	return err == nil
}
