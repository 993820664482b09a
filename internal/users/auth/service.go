// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/styleai/internal/platform/apperr"
	"github.com/taibuivan/styleai/internal/platform/ctxutil"
	"github.com/taibuivan/styleai/internal/platform/metrics"
	"github.com/taibuivan/styleai/internal/platform/sec"
	"github.com/taibuivan/styleai/internal/platform/validate"
)

// # Contracts & Types

// Recorder receives authentication events for metrics.
type Recorder interface {
	LoginAttempt(outcome string)
	AccountCreated()
}

type noopRecorder struct{}

func (noopRecorder) LoginAttempt(string) {}
func (noopRecorder) AccountCreated()     {}

var (
	// ErrInvalidCredentials is returned for both unknown users and wrong passwords.
	ErrInvalidCredentials = apperr.InvalidCredentials(MessageInvalidCredentials)
)

// dummyPassword feeds the verify that runs when no user matched a login.
const dummyPassword = "styleai-timing-equalizer"

// Service implements user authentication use cases.
//
// # Review Process
//
// Login and registration are security sensitive: any change to lookup,
// hashing or session issuance must keep unknown-user and wrong-password
// failures indistinguishable.
type Service struct {
	directory   UserDirectory
	sessions    SessionStore
	hasher      sec.Hasher
	recorder    Recorder
	sessionTTL  time.Duration
	dummyDigest string
	now         func() time.Time
}

// NewService constructs a new [Service] with necessary dependencies.
//
// recorder may be nil.
func NewService(directory UserDirectory, sessions SessionStore, hasher sec.Hasher, sessionTTL time.Duration, recorder Recorder) (*Service, error) {
	dummyDigest, err := hasher.Hash(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("auth_service_init_failed: %w", err)
	}

	if recorder == nil {
		recorder = noopRecorder{}
	}

	return &Service{
		directory:   directory,
		sessions:    sessions,
		hasher:      hasher,
		recorder:    recorder,
		sessionTTL:  sessionTTL,
		dummyDigest: dummyDigest,
		now:         time.Now,
	}, nil
}

// # Registration Flow

// CreateAccountInput holds the data required to enroll a new member.
type CreateAccountInput struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password  string
}

/*
CreateAccount validates, hashes, and persists a brand new user account.

No session is created: the user logs in separately.

Returns:
  - *User: Created entity with its assigned ID
  - error: VALIDATION_ERROR, Conflict (ErrDuplicateUser), or storage errors
*/
func (service *Service) CreateAccount(ctx context.Context, input CreateAccountInput) (*User, error) {
	username := NormalizeUsername(input.Username)
	email := strings.TrimSpace(input.Email)

	validator := &validate.Validator{}
	validator.Required(FieldUsername, username).
		Email(FieldEmail, email).
		MinLen(FieldPassword, input.Password, PasswordMinLength).
		Custom(FieldPassword, len(input.Password) > PasswordMaxBytes, fmt.Sprintf("Maximum %d bytes", PasswordMaxBytes))

	if err := validator.Err(); err != nil {
		return nil, err
	}

	// Advisory pre-check; the storage constraint below is authoritative.
	exists, err := service.directory.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, fmt.Errorf("auth_service_exists_check_failed: %w", err)
	}
	if exists {
		return nil, ErrDuplicateUser
	}

	digest, err := service.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	user := &User{
		Username:     username,
		Email:        email,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		PasswordHash: digest,
	}

	if err := service.directory.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateUser) {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("auth_service_create_account_failed: %w", err)
	}

	service.recorder.AccountCreated()
	ctxutil.GetLogger(ctx).InfoContext(ctx, "account_created",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Username string
	Password string

	// PreviousToken is the session already attached to the request, if any.
	// It is destroyed before a new one is issued.
	PreviousToken string

	IPAddress string
	UserAgent string
}

/*
Login verifies credentials and opens a new session.

Returns:
  - *Session: The new session, including its secret token
  - error: ErrInvalidCredentials or internal failures
*/
func (service *Service) Login(ctx context.Context, input LoginInput) (*Session, error) {
	logger := ctxutil.GetLogger(ctx)

	user, err := service.directory.FindByUsername(ctx, NormalizeUsername(input.Username))
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			service.recorder.LoginAttempt(metrics.OutcomeError)
			return nil, fmt.Errorf("auth_service_login_lookup_failed: %w", err)
		}

		// Burn the same bcrypt work as a real verify.
		service.hasher.Verify(input.Password, service.dummyDigest)
		service.recorder.LoginAttempt(metrics.OutcomeInvalid)
		return nil, ErrInvalidCredentials
	}

	if !service.hasher.Verify(input.Password, user.PasswordHash) {
		service.recorder.LoginAttempt(metrics.OutcomeInvalid)
		return nil, ErrInvalidCredentials
	}

	if input.PreviousToken != "" {
		if err := service.sessions.Destroy(ctx, input.PreviousToken); err != nil {
			logger.WarnContext(ctx, "previous_session_destroy_failed", slog.Any("error", err))
		}
	}

	token, err := sec.GenerateSecureToken(SessionTokenLength)
	if err != nil {
		service.recorder.LoginAttempt(metrics.OutcomeError)
		return nil, fmt.Errorf("auth_service_token_failed: %w", err)
	}

	now := service.now().UTC()
	session := &Session{
		Token:     token,
		UserID:    user.ID,
		Username:  user.Username,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
		CreatedAt: now,
		ExpiresAt: now.Add(service.sessionTTL),
	}

	if err := service.sessions.Create(ctx, session); err != nil {
		service.recorder.LoginAttempt(metrics.OutcomeError)
		return nil, fmt.Errorf("auth_service_session_create_failed: %w", err)
	}

	service.recorder.LoginAttempt(metrics.OutcomeSuccess)
	logger.InfoContext(ctx, "user_logged_in",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return session, nil
}

// Logout destroys the session behind token. An empty token is a no-op.
func (service *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	if err := service.sessions.Destroy(ctx, token); err != nil {
		return apperr.Internal(err).WithMessage(MessageLogoutFailed)
	}
	return nil
}

// # Session Resolution

/*
ResolveSession maps a session token to the identity it was issued for.

Returns (nil, nil) for unknown and expired sessions; expired ones are also
destroyed.
*/
func (service *Service) ResolveSession(ctx context.Context, token string) (*sec.Identity, error) {
	session, err := service.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if session.Expired(service.now()) {
		if err := service.sessions.Destroy(ctx, token); err != nil {
			ctxutil.GetLogger(ctx).WarnContext(ctx, "expired_session_destroy_failed",
				slog.String("user_id", session.UserID),
				slog.Any("error", err),
			)
		}
		return nil, nil
	}

	return session.Identity(), nil
}

// # Read Models

// LoginStatus answers "who is logged in on this browser".
type LoginStatus struct {
	IsLoggedIn bool    `json:"isLoggedIn"`
	Username   *string `json:"username"`
}

// Status reports the login status carried by identity. It never fails.
func (service *Service) Status(identity *sec.Identity) LoginStatus {
	if identity == nil {
		return LoginStatus{IsLoggedIn: false}
	}
	username := identity.Username
	return LoginStatus{IsLoggedIn: true, Username: &username}
}

// PublicUser is the non-sensitive projection of a [User].
type PublicUser struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
}

// UserExistence is the result of a username probe.
type UserExistence struct {
	Exists bool        `json:"exists"`
	User   *PublicUser `json:"user"`
}

// CheckUser reports whether username is registered.
func (service *Service) CheckUser(ctx context.Context, username string) (UserExistence, error) {
	user, err := service.directory.FindByUsername(ctx, NormalizeUsername(username))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return UserExistence{Exists: false}, nil
		}
		return UserExistence{}, fmt.Errorf("auth_service_check_user_failed: %w", err)
	}

	return UserExistence{
		Exists: true,
		User:   &PublicUser{ID: user.ID, Username: user.Username},
	}, nil
}
