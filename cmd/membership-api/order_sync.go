// Copyright The CommerceKit Authors.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/commercekit/membership-service/cmd/membership-api/service"
	"github.com/commercekit/membership-service/internal/config"
	internalService "github.com/commercekit/membership-service/internal/service"
	"github.com/commercekit/membership-service/pkg/constants"
)

// handleOrderSync sets up and starts the order event subscription that drives
// membership grants.
func handleOrderSync(ctx context.Context, cfg config.Config, wg *sync.WaitGroup) error {
	slog.InfoContext(ctx, "starting order sync")

	grantService := internalService.NewGrantService(
		cfg.Membership,
		service.MembershipStorage(),
		service.GroupManager(),
		service.AuditPublisher(),
	)

	natsClient := service.GetNATSClient()
	if natsClient == nil {
		slog.WarnContext(ctx, "no NATS client available, order sync disabled")
		return nil
	}

	_, subErr := natsClient.QueueSubscribe(
		constants.OrderStateChangedSubject,
		constants.MembershipAPIQueue,
		func(msg *nats.Msg) {
			// Check if service is shutting down
			select {
			case <-ctx.Done():
				slog.InfoContext(ctx, "rejecting message - service shutting down",
					"subject", msg.Subject)
				if nakErr := msg.Nak(); nakErr != nil {
					slog.ErrorContext(ctx, "failed to nak message during shutdown", "error", nakErr)
				}
				return
			default:
				// Continue processing
			}

			// Create fresh context with timeout for this message
			// Not derived from shutdown context to avoid cancellation issues
			msgCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if handleErr := grantService.HandleMessage(msgCtx, msg); handleErr != nil {
				slog.ErrorContext(msgCtx, "failed to process order event, will retry",
					"error", handleErr,
					"subject", msg.Subject)
				if nakErr := msg.Nak(); nakErr != nil {
					slog.ErrorContext(msgCtx, "failed to nak message", "error", nakErr)
				}
			} else {
				if ackErr := msg.Ack(); ackErr != nil {
					slog.ErrorContext(msgCtx, "failed to ack message", "error", ackErr)
				}
			}
		},
	)
	if subErr != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", constants.OrderStateChangedSubject, subErr)
	}

	slog.InfoContext(ctx, "order sync started successfully",
		"subject", constants.OrderStateChangedSubject,
		"queue", constants.MembershipAPIQueue)

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		slog.InfoContext(ctx, "shutting down order sync")
		// NATS client cleanup handled by existing Close() in main shutdown
	}()

	return nil
}
