// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account manages the signed-in user's body profile: measurements,
body type and preferred outfit.

# Security

Every endpoint requires a session. Requests without one are rejected by the
router before any directory access.
*/
package account

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/taibuivan/styleai/internal/users/auth"
)

// # Read Model

// ProfileView is the JSON shape of GET /api/user-profile.
//
// Fields the user never saved are rendered as null. Measurements always come
// back as JSON numbers, even when they were submitted as numeric strings.
type ProfileView struct {
	Username     string             `json:"username"`
	Measurements *auth.Measurements `json:"measurements"`
	BodyType     *string            `json:"bodyType"`
	Outfit       *string            `json:"outfit"`
}

func newProfileView(user *auth.User) *ProfileView {
	return &ProfileView{
		Username:     user.Username,
		Measurements: user.Measurements,
		BodyType:     user.BodyType,
		Outfit:       user.Outfit,
	}
}

// # Input

// Measure is one measurement as submitted by the browser.
//
// HTML number inputs arrive either as JSON numbers or as strings, so both
// are accepted; "" and null mean "not provided". Anything else is flagged
// Invalid and reported as a field error instead of failing the whole body.
type Measure struct {
	Value   *float64
	Invalid bool
}

// UnmarshalJSON implements [json.Unmarshaler].
func (measure *Measure) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	var number float64
	if err := json.Unmarshal(trimmed, &number); err == nil {
		measure.Value = &number
		return nil
	}

	var text string
	if err := json.Unmarshal(trimmed, &text); err != nil {
		measure.Invalid = true
		return nil
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	parsed, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		measure.Invalid = true
		return nil
	}

	measure.Value = &parsed
	return nil
}

// SaveMeasurementsInput carries a complete replacement body profile.
type SaveMeasurementsInput struct {
	Height   Measure `json:"height"`
	Bust     Measure `json:"bust"`
	Waist    Measure `json:"waist"`
	Hips     Measure `json:"hips"`
	HipDips  Measure `json:"hipDips"`
	BodyType string  `json:"bodyType"`
	Outfit   string  `json:"outfit"`
}

// # Field Identifiers

const (
	FieldHeight   = "height"
	FieldBust     = "bust"
	FieldWaist    = "waist"
	FieldHips     = "hips"
	FieldHipDips  = "hipDips"
	FieldBodyType = "bodyType"
	FieldOutfit   = "outfit"
)

// MaxLabelLength bounds bodyType and outfit.
const MaxLabelLength = 64
