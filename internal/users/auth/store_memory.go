// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"sync"
	"time"

	"github.com/taibuivan/styleai/pkg/uuid"
)

// MemoryUserDirectory is a process-local [UserDirectory] for development and tests.
//
// It enforces the same uniqueness rules as the database backends. Returned
// users are copies; mutating them does not touch the directory.
type MemoryUserDirectory struct {
	mu         sync.RWMutex
	byID       map[string]*User
	byUsername map[string]string
	byEmail    map[string]string
}

// NewMemoryUserDirectory creates an empty directory.
func NewMemoryUserDirectory() *MemoryUserDirectory {
	return &MemoryUserDirectory{
		byID:       make(map[string]*User),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
	}
}

func (directory *MemoryUserDirectory) FindByID(_ context.Context, id string) (*User, error) {
	directory.mu.RLock()
	defer directory.mu.RUnlock()

	user, found := directory.byID[id]
	if !found {
		return nil, ErrUserNotFound
	}
	return cloneUser(user), nil
}

func (directory *MemoryUserDirectory) FindByUsername(_ context.Context, username string) (*User, error) {
	directory.mu.RLock()
	defer directory.mu.RUnlock()

	id, found := directory.byUsername[username]
	if !found {
		return nil, ErrUserNotFound
	}
	return cloneUser(directory.byID[id]), nil
}

func (directory *MemoryUserDirectory) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	directory.mu.RLock()
	defer directory.mu.RUnlock()

	_, usernameTaken := directory.byUsername[username]
	_, emailTaken := directory.byEmail[email]
	return usernameTaken || emailTaken, nil
}

func (directory *MemoryUserDirectory) Create(_ context.Context, user *User) error {
	directory.mu.Lock()
	defer directory.mu.Unlock()

	if _, taken := directory.byUsername[user.Username]; taken {
		return ErrDuplicateUser
	}
	if _, taken := directory.byEmail[user.Email]; taken {
		return ErrDuplicateUser
	}

	now := time.Now().UTC()
	user.ID = uuid.New()
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := cloneUser(user)
	directory.byID[stored.ID] = stored
	directory.byUsername[stored.Username] = stored.ID
	directory.byEmail[stored.Email] = stored.ID
	return nil
}

func (directory *MemoryUserDirectory) UpdateBodyProfile(_ context.Context, id string, profile BodyProfile) error {
	directory.mu.Lock()
	defer directory.mu.Unlock()

	user, found := directory.byID[id]
	if !found {
		return ErrUserNotFound
	}

	user.Measurements = cloneMeasurements(profile.Measurements)
	user.BodyType = cloneString(profile.BodyType)
	user.Outfit = cloneString(profile.Outfit)
	user.UpdatedAt = time.Now().UTC()
	return nil
}

// Len returns the number of stored users.
func (directory *MemoryUserDirectory) Len() int {
	directory.mu.RLock()
	defer directory.mu.RUnlock()
	return len(directory.byID)
}

// # Copy Helpers

func cloneUser(user *User) *User {
	clone := *user
	clone.Measurements = cloneMeasurements(user.Measurements)
	clone.BodyType = cloneString(user.BodyType)
	clone.Outfit = cloneString(user.Outfit)
	return &clone
}

func cloneMeasurements(measurements *Measurements) *Measurements {
	if measurements == nil {
		return nil
	}
	return &Measurements{
		Height:  cloneFloat(measurements.Height),
		Bust:    cloneFloat(measurements.Bust),
		Waist:   cloneFloat(measurements.Waist),
		Hips:    cloneFloat(measurements.Hips),
		HipDips: cloneFloat(measurements.HipDips),
	}
}

func cloneFloat(value *float64) *float64 {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}
