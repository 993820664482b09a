// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/styleai/internal/platform/middleware"
	requestutil "github.com/taibuivan/styleai/internal/platform/request"
	"github.com/taibuivan/styleai/internal/platform/respond"
)

// # Definitions & Constructors

// CookieSigner wraps session tokens into tamper-proof cookie values.
type CookieSigner interface {
	Sign(sessionToken string, timeToLive time.Duration) (string, error)
}

// CookieSettings controls the session cookie written on login.
type CookieSettings struct {
	Name   string
	Path   string
	TTL    time.Duration
	Secure bool
}

// Handler implements the account entry points: login, logout, registration
// and the two public probes.
type Handler struct {
	authService  *Service
	signer       CookieSigner
	cookie       CookieSettings
	loginLimiter func(http.Handler) http.Handler
}

// NewHandler constructs a new [Handler].
//
// loginLimiter wraps only the login route; nil disables it.
func NewHandler(service *Service, signer CookieSigner, cookie CookieSettings, loginLimiter func(http.Handler) http.Handler) *Handler {
	return &Handler{
		authService:  service,
		signer:       signer,
		cookie:       cookie,
		loginLimiter: loginLimiter,
	}
}

// RegisterRoutes mounts the authentication routes on router.
//
// # Endpoints
//   - POST /login                : Opens a session (rate limited).
//   - POST /create-account       : Registers a new user.
//   - POST /logout               : Ends the current session.
//   - GET  /check-login          : Reports the session's username.
//   - GET  /check-user/{username}: Probes whether a username exists.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	if handler.loginLimiter != nil {
		router.With(handler.loginLimiter).Post("/login", handler.login)
	} else {
		router.Post("/login", handler.login)
	}

	router.Post("/create-account", handler.createAccount)
	router.Post("/logout", handler.logout)
	router.Get("/check-login", handler.checkLogin)
	router.Get("/check-user/{username}", handler.checkUser)
}

// # Request & Response Payloads

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success  bool   `json:"success"`
	Username string `json:"username"`
}

type createAccountRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

/*
Login authenticates a user and establishes a session.

POST /api/login

Request:
  - Body: loginRequest (Username, Password)

Response:
  - 200: {success, username} plus the signed session cookie
  - 401: INVALID_CREDENTIALS
  - 429: RATE_LIMITED
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	var previousToken string
	if identity := requestutil.Identity(request); identity != nil {
		previousToken = identity.SessionToken
	}

	session, err := handler.authService.Login(request.Context(), LoginInput{
		Username:      input.Username,
		Password:      input.Password,
		PreviousToken: previousToken,
		IPAddress:     middleware.RealIP(request),
		UserAgent:     request.UserAgent(),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	value, err := handler.signer.Sign(session.Token, handler.cookie.TTL)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	http.SetCookie(writer, &http.Cookie{
		Name:     handler.cookie.Name,
		Value:    value,
		Path:     handler.cookie.Path,
		Expires:  session.ExpiresAt,
		MaxAge:   int(handler.cookie.TTL.Seconds()),
		Secure:   handler.cookie.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	respond.OK(writer, loginResponse{Success: true, Username: session.Username})
}

/*
CreateAccount registers a new user.

POST /api/create-account

Response:
  - 200: {success, message}
  - 400: VALIDATION_ERROR with per-field errors
  - 409: CONFLICT
*/
func (handler *Handler) createAccount(writer http.ResponseWriter, request *http.Request) {
	var input createAccountRequest

	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	_, err := handler.authService.CreateAccount(request.Context(), CreateAccountInput{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Username:  input.Username,
		Email:     input.Email,
		Password:  input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Success(writer, MessageAccountCreated)
}

/*
Logout terminates the current session and clears the cookie.

POST /api/logout

Calling it without a session still succeeds.
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	var token string
	if identity := requestutil.Identity(request); identity != nil {
		token = identity.SessionToken
	}

	if err := handler.authService.Logout(request.Context(), token); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.clearCookie(writer)
	respond.Success(writer, "")
}

// checkLogin handles GET /api/check-login.
func (handler *Handler) checkLogin(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, handler.authService.Status(requestutil.Identity(request)))
}

// checkUser handles GET /api/check-user/{username}.
func (handler *Handler) checkUser(writer http.ResponseWriter, request *http.Request) {
	username := requestutil.Param(request, FieldUsername)

	// chi matches on the escaped path when one exists
	if unescaped, err := url.PathUnescape(username); err == nil {
		username = unescaped
	}

	result, err := handler.authService.CheckUser(request.Context(), username)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, result)
}

func (handler *Handler) clearCookie(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     handler.cookie.Name,
		Value:    "",
		Path:     handler.cookie.Path,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   handler.cookie.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
