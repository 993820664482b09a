// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/taibuivan/styleai/internal/platform/apperr"
	"github.com/taibuivan/styleai/internal/platform/constants"
	"github.com/taibuivan/styleai/internal/platform/respond"
)

// LoginRateLimit caps requests per client address inside a sliding window.
//
// Each call owns its own counters, so the limiter is constructed once at
// startup and mounted only in front of the login route. Rejections happen
// before the handler runs and the window is never reset early.
func LoginRateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(func(request *http.Request) (string, error) {
			return RealIP(request), nil
		}),
		httprate.WithLimitHandler(func(writer http.ResponseWriter, request *http.Request) {
			respond.Error(writer, request, apperr.RateLimited(constants.LoginRateLimitMessage))
		}),
	)
}
