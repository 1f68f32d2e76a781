// Copyright The CommerceKit Authors.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/commercekit/membership-service/cmd/membership-api/service"
	"github.com/commercekit/membership-service/internal/config"
	internalService "github.com/commercekit/membership-service/internal/service"
	"github.com/commercekit/membership-service/pkg/utils"
)

// handleSweep starts the periodic expiry sweep. Each pass runs under its own
// timeout and is jittered so replicas sharing a ledger do not start at once.
func handleSweep(ctx context.Context, cfg config.Config, wg *sync.WaitGroup) error {
	sweepService := internalService.NewSweepService(
		cfg.Membership,
		service.MembershipStorage(),
		service.GroupManager(),
		service.AuditPublisher(),
	)

	interval := cfg.Sweep.Interval.Std()
	slog.InfoContext(ctx, "starting membership sweep",
		"interval", interval,
		"jitter", cfg.Sweep.Jitter.Std())

	runOnce := func() {
		passCtx, cancel := context.WithTimeout(context.Background(), cfg.Sweep.Timeout.Std())
		defer cancel()

		if _, err := sweepService.Run(passCtx); err != nil {
			slog.ErrorContext(passCtx, "sweep pass failed", "error", err)
		}
	}

	wg.Add(1)
	go func() {
		defer wg.Done()

		// Initial delay so a crash-looping process does not hammer the ledger.
		select {
		case <-ctx.Done():
			return
		case <-time.After(utils.JitterDuration(cfg.Sweep.Jitter.Std(), 1.0)):
		}
		runOnce()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				slog.InfoContext(ctx, "shutting down membership sweep")
				return
			case <-ticker.C:
				runOnce()
			}
		}
	}()

	return nil
}
