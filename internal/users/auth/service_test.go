// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/styleai/internal/platform/apperr"
	"github.com/taibuivan/styleai/internal/platform/ctxutil"
	"github.com/taibuivan/styleai/internal/platform/metrics"
	"github.com/taibuivan/styleai/internal/platform/sec"
	"github.com/taibuivan/styleai/internal/users/auth"
)

// # Fixtures

type countingRecorder struct {
	outcomes map[string]int
	created  int
}

func (r *countingRecorder) LoginAttempt(outcome string) {
	if r.outcomes == nil {
		r.outcomes = map[string]int{}
	}
	r.outcomes[outcome]++
}

func (r *countingRecorder) AccountCreated() { r.created++ }

type fixture struct {
	service   *auth.Service
	directory *auth.MemoryUserDirectory
	sessions  *auth.MemorySessionStore
	recorder  *countingRecorder
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	directory := auth.NewMemoryUserDirectory()
	sessions := auth.NewMemorySessionStore(time.Minute)
	recorder := &countingRecorder{}

	service, err := auth.NewService(directory, sessions, sec.NewBcryptHasher(bcrypt.MinCost), time.Hour, recorder)
	require.NoError(t, err)

	return fixture{service: service, directory: directory, sessions: sessions, recorder: recorder}
}

func (f fixture) register(t *testing.T, username, email, password string) *auth.User {
	t.Helper()
	user, err := f.service.CreateAccount(context.Background(), auth.CreateAccountInput{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Username:  username,
		Email:     email,
		Password:  password,
	})
	require.NoError(t, err)
	return user
}

// mockDirectory lets tests script storage failures.
type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) FindByID(ctx context.Context, id string) (*auth.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *mockDirectory) FindByUsername(ctx context.Context, username string) (*auth.User, error) {
	args := m.Called(ctx, username)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *mockDirectory) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	args := m.Called(ctx, username, email)
	return args.Bool(0), args.Error(1)
}

func (m *mockDirectory) Create(ctx context.Context, user *auth.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockDirectory) UpdateBodyProfile(ctx context.Context, id string, profile auth.BodyProfile) error {
	return m.Called(ctx, id, profile).Error(0)
}

// # Registration

func TestCreateAccount_Success(t *testing.T) {
	f := newFixture(t)

	user := f.register(t, "  ada  ", " ada@example.com ", "secret1")

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "ada", user.Username)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, 1, f.directory.Len())
	assert.Equal(t, 1, f.recorder.created)

	stored, err := f.directory.FindByUsername(context.Background(), "ada")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
	assert.True(t, sec.NewBcryptHasher(bcrypt.MinCost).Verify("secret1", stored.PasswordHash))
	assert.Nil(t, stored.Measurements)
	assert.Nil(t, stored.BodyType)
}

func TestCreateAccount_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.CreateAccount(context.Background(), auth.CreateAccountInput{
		Username: "",
		Email:    "not-an-email",
		Password: "12345",
	})

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, http.StatusBadRequest, appError.HTTPStatus)

	fields := make([]string, 0, len(appError.Details))
	for _, detail := range appError.Details {
		fields = append(fields, detail.Field)
	}
	assert.ElementsMatch(t, []string{auth.FieldUsername, auth.FieldEmail, auth.FieldPassword}, fields)
	assert.Equal(t, 0, f.directory.Len())
}

func TestCreateAccount_Conflict(t *testing.T) {
	tests := []struct {
		name     string
		username string
		email    string
	}{
		{"same_username", "ada", "other@example.com"},
		{"same_email", "grace", "ada@example.com"},
		{"same_username_fullwidth", "ａｄａ", "third@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.register(t, "ada", "ada@example.com", "secret1")

			_, err := f.service.CreateAccount(context.Background(), auth.CreateAccountInput{
				Username: tt.username,
				Email:    tt.email,
				Password: "secret1",
			})

			assert.ErrorIs(t, err, auth.ErrDuplicateUser)
			assert.Equal(t, http.StatusConflict, apperr.As(err).HTTPStatus)
			assert.Equal(t, 1, f.directory.Len())
		})
	}
}

func TestCreateAccount_StorageDuplicateRace(t *testing.T) {
	directory := &mockDirectory{}
	directory.On("ExistsByUsernameOrEmail", mock.Anything, "ada", "ada@example.com").Return(false, nil)
	directory.On("Create", mock.Anything, mock.AnythingOfType("*auth.User")).Return(auth.ErrDuplicateUser)

	service, err := auth.NewService(directory, auth.NewMemorySessionStore(time.Minute), sec.NewBcryptHasher(bcrypt.MinCost), time.Hour, nil)
	require.NoError(t, err)

	_, err = service.CreateAccount(context.Background(), auth.CreateAccountInput{
		Username: "ada", Email: "ada@example.com", Password: "secret1",
	})

	assert.ErrorIs(t, err, auth.ErrDuplicateUser)
	assert.Equal(t, "Username or email already exists", apperr.As(err).Message)
	directory.AssertExpectations(t)
}

func TestCreateAccount_StorageFailureIsInternal(t *testing.T) {
	directory := &mockDirectory{}
	directory.On("ExistsByUsernameOrEmail", mock.Anything, mock.Anything, mock.Anything).Return(false, errors.New("connection refused"))

	service, err := auth.NewService(directory, auth.NewMemorySessionStore(time.Minute), sec.NewBcryptHasher(bcrypt.MinCost), time.Hour, nil)
	require.NoError(t, err)

	_, err = service.CreateAccount(context.Background(), auth.CreateAccountInput{
		Username: "ada", Email: "ada@example.com", Password: "secret1",
	})

	require.Error(t, err)
	assert.False(t, apperr.IsAppError(err))
	directory.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// # Login & Sessions

func TestLogin_SuccessOpensSession(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "ada", "ada@example.com", "secret1")
	ctx := context.Background()

	session, err := f.service.Login(ctx, auth.LoginInput{Username: "ada", Password: "secret1", IPAddress: "127.0.0.1"})
	require.NoError(t, err)

	assert.Equal(t, user.ID, session.UserID)
	assert.Equal(t, "ada", session.Username)
	assert.NotEmpty(t, session.Token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, time.Minute)

	identity, err := f.service.ResolveSession(ctx, session.Token)
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, user.ID, identity.UserID)

	status := f.service.Status(identity)
	assert.True(t, status.IsLoggedIn)
	assert.Equal(t, "ada", *status.Username)
	assert.Equal(t, 1, f.recorder.outcomes[metrics.OutcomeSuccess])
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	f.register(t, "ada", "ada@example.com", "secret1")

	_, unknownErr := f.service.Login(context.Background(), auth.LoginInput{Username: "nobody", Password: "secret1"})
	_, wrongErr := f.service.Login(context.Background(), auth.LoginInput{Username: "ada", Password: "wrong-password"})
	_, emptyErr := f.service.Login(context.Background(), auth.LoginInput{})

	for _, err := range []error{unknownErr, wrongErr, emptyErr} {
		assert.Equal(t, auth.ErrInvalidCredentials, err)
	}
	assert.Equal(t, "Invalid username or password", apperr.As(unknownErr).Message)
	assert.Equal(t, 3, f.recorder.outcomes[metrics.OutcomeInvalid])
}

func TestLogin_NormalizesUsername(t *testing.T) {
	f := newFixture(t)
	f.register(t, "ａｄａ", "ada@example.com", "secret1")

	session, err := f.service.Login(context.Background(), auth.LoginInput{Username: " ada ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "ada", session.Username)
}

func TestLogin_ReplacesPreviousSession(t *testing.T) {
	f := newFixture(t)
	f.register(t, "ada", "ada@example.com", "secret1")
	ctx := context.Background()

	first, err := f.service.Login(ctx, auth.LoginInput{Username: "ada", Password: "secret1"})
	require.NoError(t, err)

	second, err := f.service.Login(ctx, auth.LoginInput{Username: "ada", Password: "secret1", PreviousToken: first.Token})
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, second.Token)

	identity, err := f.service.ResolveSession(ctx, first.Token)
	require.NoError(t, err)
	assert.Nil(t, identity)
}

func TestLogin_LookupFailure(t *testing.T) {
	directory := &mockDirectory{}
	directory.On("FindByUsername", mock.Anything, "ada").Return(nil, errors.New("socket closed"))
	recorder := &countingRecorder{}

	service, err := auth.NewService(directory, auth.NewMemorySessionStore(time.Minute), sec.NewBcryptHasher(bcrypt.MinCost), time.Hour, recorder)
	require.NoError(t, err)

	_, err = service.Login(context.Background(), auth.LoginInput{Username: "ada", Password: "secret1"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, auth.ErrInvalidCredentials)
	assert.Equal(t, 1, recorder.outcomes[metrics.OutcomeError])
}

// expiringStore hands out sessions that are already past their lifetime.
type expiringStore struct {
	destroyed  []string
	destroyErr error
}

func (s *expiringStore) Create(context.Context, *auth.Session) error { return nil }

func (s *expiringStore) Get(_ context.Context, token string) (*auth.Session, error) {
	return &auth.Session{Token: token, UserID: "u-1", Username: "ada", ExpiresAt: time.Now().Add(-time.Second)}, nil
}

func (s *expiringStore) Destroy(_ context.Context, token string) error {
	s.destroyed = append(s.destroyed, token)
	return s.destroyErr
}

func TestResolveSession_ExpiredIsAbsent(t *testing.T) {
	store := &expiringStore{}
	service, err := auth.NewService(auth.NewMemoryUserDirectory(), store, sec.NewBcryptHasher(bcrypt.MinCost), time.Hour, nil)
	require.NoError(t, err)

	identity, err := service.ResolveSession(context.Background(), "stale")
	require.NoError(t, err)
	assert.Nil(t, identity)
	assert.Equal(t, []string{"stale"}, store.destroyed)
}

func TestResolveSession_ExpiredDestroyFailureIsLogged(t *testing.T) {
	store := &expiringStore{destroyErr: errors.New("redis down")}
	service, err := auth.NewService(auth.NewMemoryUserDirectory(), store, sec.NewBcryptHasher(bcrypt.MinCost), time.Hour, nil)
	require.NoError(t, err)

	var logs bytes.Buffer
	ctx := ctxutil.WithLogger(context.Background(), slog.New(slog.NewJSONHandler(&logs, nil)))

	identity, err := service.ResolveSession(ctx, "stale")
	require.NoError(t, err)
	assert.Nil(t, identity)

	assert.Contains(t, logs.String(), `"msg":"expired_session_destroy_failed"`)
	assert.Contains(t, logs.String(), `"level":"WARN"`)
	assert.Contains(t, logs.String(), "redis down")
}

func TestResolveSession_Unknown(t *testing.T) {
	f := newFixture(t)

	identity, err := f.service.ResolveSession(context.Background(), "never-issued")
	require.NoError(t, err)
	assert.Nil(t, identity)
}

// # Logout & Status

type failingStore struct{}

func (failingStore) Create(context.Context, *auth.Session) error { return nil }

func (failingStore) Get(context.Context, string) (*auth.Session, error) {
	return nil, auth.ErrSessionNotFound
}

func (failingStore) Destroy(context.Context, string) error { return errors.New("redis down") }

func TestLogout(t *testing.T) {
	t.Run("destroys_session", func(t *testing.T) {
		f := newFixture(t)
		f.register(t, "ada", "ada@example.com", "secret1")
		ctx := context.Background()

		session, err := f.service.Login(ctx, auth.LoginInput{Username: "ada", Password: "secret1"})
		require.NoError(t, err)

		require.NoError(t, f.service.Logout(ctx, session.Token))
		require.NoError(t, f.service.Logout(ctx, session.Token), "second logout is a no-op")

		identity, err := f.service.ResolveSession(ctx, session.Token)
		require.NoError(t, err)
		assert.Nil(t, identity)
		assert.False(t, f.service.Status(identity).IsLoggedIn)
		assert.Nil(t, f.service.Status(identity).Username)
	})

	t.Run("without_session", func(t *testing.T) {
		f := newFixture(t)
		assert.NoError(t, f.service.Logout(context.Background(), ""))
	})

	t.Run("store_failure", func(t *testing.T) {
		service, err := auth.NewService(auth.NewMemoryUserDirectory(), failingStore{}, sec.NewBcryptHasher(bcrypt.MinCost), time.Hour, nil)
		require.NoError(t, err)

		err = service.Logout(context.Background(), "token")
		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, http.StatusInternalServerError, appError.HTTPStatus)
		assert.Equal(t, "Could not log out", appError.Message)
	})
}

// # Username Probe

func TestCheckUser(t *testing.T) {
	f := newFixture(t)
	user := f.register(t, "ada", "ada@example.com", "secret1")

	found, err := f.service.CheckUser(context.Background(), "ada")
	require.NoError(t, err)
	assert.True(t, found.Exists)
	assert.Equal(t, &auth.PublicUser{ID: user.ID, Username: "ada"}, found.User)

	missing, err := f.service.CheckUser(context.Background(), "grace")
	require.NoError(t, err)
	assert.False(t, missing.Exists)
	assert.Nil(t, missing.User)
}
