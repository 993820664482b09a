// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/styleai/internal/platform/middleware"
	requestutil "github.com/taibuivan/styleai/internal/platform/request"
	"github.com/taibuivan/styleai/internal/platform/respond"
)

// Handler implements the HTTP layer for the body profile.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// RegisterRoutes mounts the profile routes behind [middleware.RequireSession].
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession)
		r.Get("/user-profile", handler.getProfile)
		r.Post("/save-measurements", handler.saveMeasurements)
	})
}

/*
GET /api/user-profile.

Response:
  - 200: ProfileView
  - 401: User not logged in
  - 404: User not found
*/
func (handler *Handler) getProfile(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	profile, err := handler.accountService.GetProfile(request.Context(), identity.UserID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, profile)
}

/*
POST /api/save-measurements.

Request:
  - Body: SaveMeasurementsInput

Response:
  - 200: {success, message}
  - 400: VALIDATION_ERROR, or the session's user no longer exists
  - 401: User not logged in
*/
func (handler *Handler) saveMeasurements(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input SaveMeasurementsInput
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.SaveMeasurements(request.Context(), identity.UserID, input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Success(writer, MessageMeasurementsSaved)
}
