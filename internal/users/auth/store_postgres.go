// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/styleai/internal/platform/dberr"
	"github.com/taibuivan/styleai/pkg/uuid"
)

// DBTX is the subset of [pgxpool.Pool] the directory needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row
}

// # User Directory

// PostgresUserDirectory implements [UserDirectory] on the users.account table.
//
// Measurements live in a JSONB column; uniqueness of username and email is
// enforced by table constraints.
type PostgresUserDirectory struct {
	db DBTX
}

// NewPostgresUserDirectory creates a directory bound to the given pool.
func NewPostgresUserDirectory(db DBTX) *PostgresUserDirectory {
	return &PostgresUserDirectory{db: db}
}

const userColumns = `id, username, email, firstname, lastname, passwordhash, measurements, bodytype, outfit, createdat, updatedat`

/*
FindByID retrieves a user by primary key.

Non-UUID identifiers cannot match any row and are reported as not found
without a round trip.
*/
func (directory *PostgresUserDirectory) FindByID(ctx context.Context, id string) (*User, error) {
	if !uuid.Valid(id) {
		return nil, ErrUserNotFound
	}

	const query = `SELECT ` + userColumns + ` FROM users.account WHERE id = $1`

	user, err := scanUser(directory.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, classifyLookup(err, "postgres_user_directory_find_by_id_failed")
	}
	return user, nil
}

// FindByUsername retrieves a user by exact username.
func (directory *PostgresUserDirectory) FindByUsername(ctx context.Context, username string) (*User, error) {
	const query = `SELECT ` + userColumns + ` FROM users.account WHERE username = $1`

	user, err := scanUser(directory.db.QueryRow(ctx, query, username))
	if err != nil {
		return nil, classifyLookup(err, "postgres_user_directory_find_by_username_failed")
	}
	return user, nil
}

// ExistsByUsernameOrEmail probes both unique keys in one statement.
func (directory *PostgresUserDirectory) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users.account WHERE username = $1 OR email = $2)`

	var exists bool
	if err := directory.db.QueryRow(ctx, query, username, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("postgres_user_directory_exists_failed: %w", err)
	}
	return exists, nil
}

/*
Create inserts a new account row and assigns a UUIDv7 primary key.

Returns:
  - error: ErrDuplicateUser on a unique violation, otherwise storage errors
*/
func (directory *PostgresUserDirectory) Create(ctx context.Context, user *User) error {
	const query = `
		INSERT INTO users.account (
			id, username, email, firstname, lastname, passwordhash, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	now := time.Now().UTC()
	id := uuid.New()

	_, err := directory.db.Exec(ctx, query,
		id,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		now,
		now,
	)

	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return ErrDuplicateUser
		}
		return fmt.Errorf("postgres_user_directory_create_failed: %w", err)
	}

	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// UpdateBodyProfile overwrites the three profile columns of one row.
func (directory *PostgresUserDirectory) UpdateBodyProfile(ctx context.Context, id string, profile BodyProfile) error {
	if !uuid.Valid(id) {
		return ErrUserNotFound
	}

	const query = `
		UPDATE users.account
		SET measurements = $2, bodytype = $3, outfit = $4, updatedat = $5
		WHERE id = $1`

	var measurements []byte
	if profile.Measurements != nil {
		encoded, err := json.Marshal(profile.Measurements)
		if err != nil {
			return fmt.Errorf("postgres_user_directory_encode_measurements_failed: %w", err)
		}
		measurements = encoded
	}

	tag, err := directory.db.Exec(ctx, query, id, measurements, profile.BodyType, profile.Outfit, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("postgres_user_directory_update_profile_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// # Helpers

func scanUser(row pgx.Row) (*User, error) {
	user := &User{}
	var measurements []byte

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.PasswordHash,
		&measurements,
		&user.BodyType,
		&user.Outfit,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(measurements) > 0 {
		user.Measurements = &Measurements{}
		if err := json.Unmarshal(measurements, user.Measurements); err != nil {
			return nil, fmt.Errorf("decode measurements: %w", err)
		}
	}

	return user, nil
}

func classifyLookup(err error, operation string) error {
	if dberr.IsNoRows(err) || dberr.IsInvalidText(err) {
		return ErrUserNotFound
	}
	return fmt.Errorf("%s: %w", operation, err)
}
