// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/taibuivan/styleai/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/styleai/internal/platform/request"
	"github.com/taibuivan/styleai/internal/platform/respond"
	"github.com/taibuivan/styleai/internal/platform/sec"
)

// CookieVerifier extracts the session token from a signed cookie value.
type CookieVerifier interface {
	Verify(value string) (string, error)
}

// SessionResolver turns a session token into the identity it belongs to.
//
// Implementations return (nil, nil) when the session is absent or expired.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*sec.Identity, error)
}

// LoadSession attaches the caller's session identity to the request context.
//
// # Flow
//  1. No cookie: the request proceeds as anonymous.
//  2. Cookie with a bad signature or past expiry: anonymous.
//  3. Token unknown to the store: anonymous.
//  4. Otherwise the [*sec.Identity] is injected for downstream handlers.
//
// A store failure is logged and also degrades to anonymous, so that
// login-status checks never fail.
func LoadSession(cookieName string, verifier CookieVerifier, resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			cookie, err := request.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(writer, request)
				return
			}

			ctx := request.Context()
			logger := ctxutil.GetLogger(ctx)

			token, err := verifier.Verify(cookie.Value)
			if err != nil {
				logger.DebugContext(ctx, "session_cookie_rejected", slog.Any("error", err))
				next.ServeHTTP(writer, request)
				return
			}

			identity, err := resolver.ResolveSession(ctx, token)
			if err != nil {
				logger.WarnContext(ctx, "session_lookup_failed", slog.Any("error", err))
				next.ServeHTTP(writer, request)
				return
			}

			if identity == nil {
				next.ServeHTTP(writer, request)
				return
			}

			next.ServeHTTP(writer, request.WithContext(ctxutil.WithIdentity(ctx, identity)))
		})
	}
}

// RequireSession blocks requests that carry no active session.
//
// # Usage
//
// Must be registered in the router AFTER [LoadSession]. Rejected requests
// never reach the handler, so no directory read or write happens.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if _, err := requestutil.RequiredIdentity(request); err != nil {
			respond.Error(writer, request, err)
			return
		}
		next.ServeHTTP(writer, request)
	})
}
