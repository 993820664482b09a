// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/styleai/internal/platform/constants"
	"github.com/taibuivan/styleai/internal/platform/ctxutil"
	"github.com/taibuivan/styleai/internal/platform/middleware"
	"github.com/taibuivan/styleai/internal/platform/respond"
	"github.com/taibuivan/styleai/internal/platform/sec"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func okHandler() http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusOK)
	})
}

func decodeEnvelope(t *testing.T, recorder *httptest.ResponseRecorder) respond.ErrorEnvelope {
	t.Helper()
	var envelope respond.ErrorEnvelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	return envelope
}

func TestRequestID(t *testing.T) {
	t.Run("generates_when_missing", func(t *testing.T) {
		var seen string
		handler := middleware.RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, request *http.Request) {
			seen = ctxutil.GetRequestID(request.Context())
		}))

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, recorder.Header().Get(constants.HeaderXRequestID))
	})

	t.Run("propagates_client_id", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set(constants.HeaderXRequestID, "abc-123")

		recorder := httptest.NewRecorder()
		middleware.RequestID()(okHandler()).ServeHTTP(recorder, request)

		assert.Equal(t, "abc-123", recorder.Header().Get(constants.HeaderXRequestID))
	})
}

func TestPanicRecovery(t *testing.T) {
	handler := middleware.PanicRecovery(discardLogger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))

	recorder := httptest.NewRecorder()
	require.NotPanics(t, func() {
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/user-profile", nil))
	})

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	envelope := decodeEnvelope(t, recorder)
	assert.False(t, envelope.Success)
	assert.Equal(t, "Internal server error", envelope.Message)
	assert.NotContains(t, recorder.Body.String(), "kaboom")
}

func TestRateLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := middleware.NewRateLimiter(ctx, 1, 2).Middleware(okHandler())

	codes := make([]int, 0, 3)
	for range 3 {
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.RemoteAddr = "10.0.0.1:5000"
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		codes = append(codes, recorder.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// A different client has its own bucket.
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.RemoteAddr = "10.0.0.2:5000"
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestLoginRateLimit(t *testing.T) {
	calls := 0
	handler := middleware.LoginRateLimit(5, 15*time.Minute)(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		calls++
		writer.WriteHeader(http.StatusUnauthorized)
	}))

	send := func(remote string) *httptest.ResponseRecorder {
		request := httptest.NewRequest(http.MethodPost, "/api/login", nil)
		request.RemoteAddr = remote
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		return recorder
	}

	for range 5 {
		assert.Equal(t, http.StatusUnauthorized, send("192.0.2.10:1000").Code)
	}

	limited := send("192.0.2.10:1001")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, constants.LoginRateLimitMessage, decodeEnvelope(t, limited).Message)
	assert.Equal(t, 5, calls, "rejected attempts must not reach the handler")

	assert.Equal(t, http.StatusUnauthorized, send("192.0.2.99:1000").Code)
}

func TestSecurityHeaders(t *testing.T) {
	recorder := httptest.NewRecorder()
	middleware.SecurityHeaders(okHandler()).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", recorder.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "SAMEORIGIN", recorder.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, recorder.Header().Get("Content-Security-Policy"))
}

func TestClientIP(t *testing.T) {
	trusted := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}

	tests := []struct {
		name    string
		trusted []netip.Prefix
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote_addr", trusted, nil, "203.0.113.5:4000", "203.0.113.5"},
		{"untrusted_peer_x_real_ip", trusted, map[string]string{constants.HeaderXRealIP: "198.51.100.1"}, "203.0.113.5:4000", "203.0.113.5"},
		{"untrusted_peer_x_forwarded_for", trusted, map[string]string{constants.HeaderXForwardedFor: "198.51.100.2"}, "203.0.113.5:4000", "203.0.113.5"},
		{"no_trusted_proxies", nil, map[string]string{constants.HeaderXForwardedFor: "198.51.100.2"}, "10.0.0.1:1", "10.0.0.1"},
		{"trusted_x_real_ip", trusted, map[string]string{constants.HeaderXRealIP: "198.51.100.1"}, "10.0.0.1:1", "198.51.100.1"},
		{"trusted_x_forwarded_for", trusted, map[string]string{constants.HeaderXForwardedFor: "198.51.100.2"}, "10.0.0.1:1", "198.51.100.2"},
		{"spoofed_leftmost_hop", trusted, map[string]string{constants.HeaderXForwardedFor: "1.2.3.4, 198.51.100.2, 10.0.0.7"}, "10.0.0.1:1", "198.51.100.2"},
		{"all_hops_trusted", trusted, map[string]string{constants.HeaderXForwardedFor: "10.0.0.9, 10.0.0.7"}, "10.0.0.1:1", "10.0.0.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			request.RemoteAddr = tt.remote
			for key, value := range tt.headers {
				request.Header.Set(key, value)
			}

			var got string
			middleware.ClientIP(tt.trusted)(http.HandlerFunc(func(_ http.ResponseWriter, request *http.Request) {
				got = middleware.RealIP(request)
			})).ServeHTTP(httptest.NewRecorder(), request)

			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRealIP_IgnoresHeadersWithoutClientIP(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.RemoteAddr = "203.0.113.5:4000"
	request.Header.Set(constants.HeaderXRealIP, "198.51.100.1")
	request.Header.Set(constants.HeaderXForwardedFor, "198.51.100.2")

	assert.Equal(t, "203.0.113.5", middleware.RealIP(request))
}

/*
TestLoginRateLimit_RotatingForwardedFor keeps one TCP peer in a single
window no matter what it claims in X-Forwarded-For.
*/
func TestLoginRateLimit_RotatingForwardedFor(t *testing.T) {
	handler := middleware.ClientIP(nil)(
		middleware.LoginRateLimit(5, 15*time.Minute)(okHandler()),
	)

	limited := 0
	for i := range 50 {
		request := httptest.NewRequest(http.MethodPost, "/api/login", nil)
		request.RemoteAddr = "203.0.113.7:5555"
		request.Header.Set(constants.HeaderXForwardedFor, fmt.Sprintf("10.0.0.%d", i))
		request.Header.Set(constants.HeaderXRealIP, fmt.Sprintf("10.1.0.%d", i))

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)

		if i < 5 {
			assert.Equal(t, http.StatusOK, recorder.Code, "attempt %d", i+1)
		}
		if recorder.Code == http.StatusTooManyRequests {
			limited++
		}
	}

	assert.Equal(t, 45, limited)
}

/*
TestRateLimiter_RotatingForwardedFor applies the same rule to the global bucket.
*/
func TestRateLimiter_RotatingForwardedFor(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := middleware.ClientIP(nil)(middleware.NewRateLimiter(ctx, 1, 2).Middleware(okHandler()))

	codes := make([]int, 0, 3)
	for i := range 3 {
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.RemoteAddr = "203.0.113.7:5555"
		request.Header.Set(constants.HeaderXForwardedFor, fmt.Sprintf("10.0.0.%d", i))
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		codes = append(codes, recorder.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

// # Session Loading

type stubVerifier struct{}

func (stubVerifier) Verify(value string) (string, error) {
	if value == "forged" {
		return "", sec.ErrInvalidCookie
	}
	return value, nil
}

type stubResolver struct {
	identities map[string]*sec.Identity
	err        error
}

func (r stubResolver) ResolveSession(_ context.Context, token string) (*sec.Identity, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.identities[token], nil
}

func TestLoadSession(t *testing.T) {
	alice := &sec.Identity{SessionToken: "tok-1", UserID: "u-1", Username: "alice"}
	resolver := stubResolver{identities: map[string]*sec.Identity{"tok-1": alice}}

	tests := []struct {
		name     string
		cookie   string
		resolver middleware.SessionResolver
		want     *sec.Identity
	}{
		{"no_cookie", "", resolver, nil},
		{"valid_session", "tok-1", resolver, alice},
		{"forged_cookie", "forged", resolver, nil},
		{"unknown_token", "tok-404", resolver, nil},
		{"store_failure", "tok-1", stubResolver{err: errors.New("redis down")}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *sec.Identity
			handler := middleware.LoadSession(constants.SessionCookieName, stubVerifier{}, tt.resolver)(
				http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
					seen = ctxutil.GetIdentity(request.Context())
					writer.WriteHeader(http.StatusOK)
				}),
			)

			request := httptest.NewRequest(http.MethodGet, "/api/check-login", nil)
			if tt.cookie != "" {
				request.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: tt.cookie})
			}

			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			assert.Equal(t, http.StatusOK, recorder.Code)
			assert.Equal(t, tt.want, seen)
		})
	}
}

func TestRequireSession(t *testing.T) {
	reached := false
	handler := middleware.RequireSession(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		reached = true
		writer.WriteHeader(http.StatusOK)
	}))

	t.Run("anonymous_is_rejected", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/user-profile", nil))

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		assert.Equal(t, "User not logged in", decodeEnvelope(t, recorder).Message)
		assert.False(t, reached)
	})

	t.Run("session_passes", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/api/user-profile", nil)
		request = request.WithContext(ctxutil.WithIdentity(request.Context(), &sec.Identity{UserID: "u-1"}))

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.True(t, reached)
	})
}
