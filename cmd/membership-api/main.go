// Copyright The CommerceKit Authors.
// SPDX-License-Identifier: MIT

// The membership-api service manages paid membership grants, expiry
// revocation, and savings estimates for the commerce platform.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/commercekit/membership-service/cmd/membership-api/service"
	"github.com/commercekit/membership-service/internal/config"
	"github.com/commercekit/membership-service/pkg/log"
)

func main() {
	log.InitStructureLogConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load configuration", "error", err)
		os.Exit(1)
	}

	shutdownTracing, err := setupTracing(ctx, cfg)
	if err != nil {
		slog.ErrorContext(ctx, "failed to set up tracing", "error", err)
		os.Exit(1)
	}
	defer shutdownTracing()

	service.Setup(ctx, cfg)

	if !cfg.Membership.Configured() {
		slog.WarnContext(ctx, "membership configuration incomplete, grants and sweeps are disabled")
	}

	var wg sync.WaitGroup
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error { return handleHTTPServer(gCtx, cfg, &wg) })
	g.Go(func() error { return handleOrderSync(gCtx, cfg, &wg) })
	g.Go(func() error { return handleSweep(gCtx, cfg, &wg) })
	g.Go(func() error { return handleSavingsResponder(gCtx, cfg, &wg) })

	if err := g.Wait(); err != nil {
		slog.ErrorContext(ctx, "failed to start service", "error", err)
		stop()
		os.Exit(1)
	}

	slog.InfoContext(ctx, "membership service started")

	<-ctx.Done()
	slog.InfoContext(ctx, "shutdown signal received")

	// Wait for the subsystems to drain, then close the broker connection.
	wg.Wait()
	if client := service.GetNATSClient(); client != nil {
		if err := client.Close(); err != nil {
			slog.ErrorContext(ctx, "failed to close NATS connection", "error", err)
		}
	}

	slog.InfoContext(ctx, "membership service stopped")
}
