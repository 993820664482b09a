// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/styleai/internal/platform/apperr"
	"github.com/taibuivan/styleai/internal/platform/config"
	"github.com/taibuivan/styleai/internal/platform/constants"
	"github.com/taibuivan/styleai/internal/platform/middleware"
	"github.com/taibuivan/styleai/internal/platform/respond"
	"github.com/taibuivan/styleai/internal/users/account"
	"github.com/taibuivan/styleai/internal/users/auth"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
type Handlers struct {
	// Liveness is the /health handler; always 200 while the process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler; 200 only when every dependency answers.
	Readiness http.HandlerFunc

	// Metrics serves the Prometheus registry.
	Metrics http.Handler

	// Static serves the browser front end. Optional.
	Static http.Handler

	// Auth handles login, logout, registration and the public probes.
	Auth *auth.Handler

	// Account handles the signed-in user's body profile.
	Account *account.Handler
}

// Sessions bundles what the router needs to attach session identities.
type Sessions struct {
	Verifier middleware.CookieVerifier
	Resolver middleware.SessionResolver
}

var errMethodNotAllowed = &apperr.AppError{
	Code:       "METHOD_NOT_ALLOWED",
	Message:    "Method not allowed",
	HTTPStatus: http.StatusMethodNotAllowed,
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
//
// The global rate limiter's cleanup goroutine stops when ctx is cancelled.
func NewServer(ctx context.Context, cfg *config.Config, log *slog.Logger, sessions Sessions, observer middleware.RequestObserver, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(middleware.ClientIP(cfg.TrustedProxyPrefixes()))
	r.Use(middleware.StructuredLogger(log))
	r.Use(middleware.Metrics(observer))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.NewRateLimiter(ctx, constants.DefaultRateLimitRPS, constants.DefaultRateLimitBurst).Middleware)
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimw.CleanPath)
	r.Use(middleware.LoadSession(constants.SessionCookieName, sessions.Verifier, sessions.Resolver))

	// # Infrastructure Endpoints
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)
	if h.Metrics != nil {
		r.Handle("/metrics", h.Metrics)
	}

	// # Application API
	r.Route("/api", func(api chi.Router) {
		h.Auth.RegisterRoutes(api)
		h.Account.RegisterRoutes(api)

		api.NotFound(func(writer http.ResponseWriter, request *http.Request) {
			respond.Error(writer, request, apperr.NotFound("Route"))
		})
		api.MethodNotAllowed(func(writer http.ResponseWriter, request *http.Request) {
			respond.Error(writer, request, errMethodNotAllowed)
		})
	})

	// # Front End
	if h.Static != nil {
		r.Handle("/*", h.Static)
	}

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// Handler exposes the fully wrapped router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server_starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
