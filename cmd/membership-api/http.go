// Copyright The CommerceKit Authors.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/commercekit/membership-service/cmd/membership-api/service"
	"github.com/commercekit/membership-service/internal/config"
	"github.com/commercekit/membership-service/internal/middleware"
	internalService "github.com/commercekit/membership-service/internal/service"
	errs "github.com/commercekit/membership-service/pkg/errors"
)

// handleHTTPServer sets up and starts the HTTP server with health probes and
// the membership status endpoint.
func handleHTTPServer(ctx context.Context, cfg config.Config, wg *sync.WaitGroup) error {
	statusReader := internalService.NewMembershipStatusReader(service.MembershipStorage())

	router := chi.NewRouter()
	router.Use(middleware.RequestID)

	router.Get("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.ErrorContext(ctx, "failed to write liveness response", "error", err)
		}
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := service.MembershipStorage().IsReady(r.Context()); err != nil {
			writeJSONError(r.Context(), w, http.StatusServiceUnavailable, "storage not ready")
			return
		}
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.ErrorContext(ctx, "failed to write readiness response", "error", err)
		}
	})

	router.Get("/api/v1/memberships/{customerUID}", func(w http.ResponseWriter, r *http.Request) {
		customerUID := chi.URLParam(r, "customerUID")
		record, err := statusReader.GetMembership(r.Context(), customerUID)
		if err != nil {
			status, message := httpStatusFor(err)
			writeJSONError(r.Context(), w, status, message)
			return
		}

		writeJSON(r.Context(), w, http.StatusOK, map[string]any{
			"customer_uid": record.CustomerUID,
			"active":       record.ActiveAt(time.Now().UTC()),
			"granted_at":   record.GrantedAt,
			"expires_at":   record.ExpiresAt,
			"order_uid":    record.OrderUID,
		})
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "http server listening", "port", cfg.HTTP.Port)
		if err := server.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Fail fast when the listener cannot bind.
	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		slog.InfoContext(ctx, "shutting down http server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "http server shutdown failed", "error", err)
		}
	}()

	return nil
}

// httpStatusFor maps the error taxonomy to HTTP status codes.
func httpStatusFor(err error) (int, string) {
	var (
		validation  errs.Validation
		notFound    errs.NotFound
		unavailable errs.ServiceUnavailable
	)
	switch {
	case stderrors.As(err, &validation):
		return http.StatusBadRequest, err.Error()
	case stderrors.As(err, &notFound):
		return http.StatusNotFound, err.Error()
	case stderrors.As(err, &unavailable):
		return http.StatusServiceUnavailable, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func writeJSONError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	writeJSON(ctx, w, status, map[string]string{"error": message})
}
