// Copyright The CommerceKit Authors.
// SPDX-License-Identifier: MIT

// Package middleware provides HTTP middleware for the membership API.
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/commercekit/membership-service/pkg/constants"
	"github.com/commercekit/membership-service/pkg/log"
)

// RequestID attaches a request ID to every request: the inbound X-Request-Id
// header when present, a generated UUID otherwise. The ID is echoed on the
// response, stored in the context, and appended to the context's log
// attributes so all request-scoped log lines carry it.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(constants.RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set(constants.RequestIDHeader, requestID)

		ctx := context.WithValue(r.Context(), constants.RequestIDContextKey, requestID)
		ctx = log.AppendCtx(ctx, slog.String("request_id", requestID))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
