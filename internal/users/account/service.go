// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/taibuivan/styleai/internal/platform/ctxutil"
	"github.com/taibuivan/styleai/internal/platform/validate"
	"github.com/taibuivan/styleai/internal/users/auth"
	"github.com/taibuivan/styleai/pkg/pointer"
)

// Directory is the part of [auth.UserDirectory] the profile needs.
type Directory interface {
	FindByID(ctx context.Context, id string) (*auth.User, error)
	UpdateBodyProfile(ctx context.Context, id string, profile auth.BodyProfile) error
}

// MessageMeasurementsSaved is returned after a successful save.
const MessageMeasurementsSaved = "Measurements saved successfully"

// ErrSaveUserNotFound reports a save whose session points at a vanished user.
var ErrSaveUserNotFound = auth.ErrUserNotFound.
	WithMessage("Failed to save measurements: User not found").
	WithStatus(http.StatusBadRequest)

// # Service Layer

// Service reads and replaces the body profile of the signed-in user.
type Service struct {
	directory Directory
}

// NewService constructs a new [Service].
func NewService(directory Directory) *Service {
	return &Service{directory: directory}
}

/*
GetProfile returns the profile of userID.

Returns:
  - *ProfileView: Username plus the (possibly null) profile fields
  - error: auth.ErrUserNotFound (404) or storage failures
*/
func (service *Service) GetProfile(ctx context.Context, userID string) (*ProfileView, error) {
	user, err := service.directory.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return nil, auth.ErrUserNotFound
		}
		return nil, fmt.Errorf("account_service_get_profile_failed: %w", err)
	}
	return newProfileView(user), nil
}

/*
SaveMeasurements validates input and replaces the stored profile with it.

Blank labels are stored as absent, as are measurements the user left empty.

Returns:
  - error: VALIDATION_ERROR, ErrSaveUserNotFound (400), or storage failures
*/
func (service *Service) SaveMeasurements(ctx context.Context, userID string, input SaveMeasurementsInput) error {
	measures := []struct {
		field   string
		measure Measure
	}{
		{FieldHeight, input.Height},
		{FieldBust, input.Bust},
		{FieldWaist, input.Waist},
		{FieldHips, input.Hips},
		{FieldHipDips, input.HipDips},
	}

	validator := &validate.Validator{}
	for _, entry := range measures {
		validator.Custom(entry.field, entry.measure.Invalid, "Must be a number")
		if entry.measure.Value != nil {
			validator.Min(entry.field, *entry.measure.Value, 0)
		}
	}
	validator.MaxLen(FieldBodyType, input.BodyType, MaxLabelLength).
		MaxLen(FieldOutfit, input.Outfit, MaxLabelLength)

	if err := validator.Err(); err != nil {
		return err
	}

	profile := auth.BodyProfile{
		Measurements: buildMeasurements(input),
		BodyType:     pointer.NonEmpty(input.BodyType),
		Outfit:       pointer.NonEmpty(input.Outfit),
	}

	if err := service.directory.UpdateBodyProfile(ctx, userID, profile); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return ErrSaveUserNotFound
		}
		return fmt.Errorf("account_service_save_measurements_failed: %w", err)
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "measurements_saved",
		slog.String("user_id", userID),
		slog.String("body_type", pointer.Val(profile.BodyType)),
		slog.Bool("has_measurements", profile.Measurements != nil),
	)
	return nil
}

// buildMeasurements returns nil when no measurement was provided at all.
func buildMeasurements(input SaveMeasurementsInput) *auth.Measurements {
	measurements := &auth.Measurements{
		Height:  input.Height.Value,
		Bust:    input.Bust.Value,
		Waist:   input.Waist.Value,
		Hips:    input.Hips.Value,
		HipDips: input.HipDips.Value,
	}

	if measurements.Height == nil && measurements.Bust == nil && measurements.Waist == nil &&
		measurements.Hips == nil && measurements.HipDips == nil {
		return nil
	}
	return measurements
}
