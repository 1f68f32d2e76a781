// Copyright The CommerceKit Authors.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"golang.org/x/time/rate"

	"github.com/commercekit/membership-service/cmd/membership-api/service"
	"github.com/commercekit/membership-service/internal/config"
	"github.com/commercekit/membership-service/internal/domain/model"
	internalService "github.com/commercekit/membership-service/internal/service"
	"github.com/commercekit/membership-service/pkg/constants"
)

// handleSavingsResponder answers savings estimate requests over NATS
// request/reply. Replies follow the platform convention: a JSON estimate, an
// empty JSON object when no estimate applies, and an error envelope on
// failure. Requests are rate limited; the estimate sits on storefront render
// paths and a quote storm must not take the collaborators down with it.
func handleSavingsResponder(ctx context.Context, cfg config.Config, wg *sync.WaitGroup) error {
	slog.InfoContext(ctx, "starting savings responder")

	savingsService := internalService.NewSavingsService(
		cfg.Membership,
		internalService.NewMembershipStatusReader(service.MembershipStorage()),
		service.CartPricer(),
		service.ProductCatalog(),
	)

	natsClient := service.GetNATSClient()
	if natsClient == nil {
		slog.WarnContext(ctx, "no NATS client available, savings responder disabled")
		return nil
	}

	limiter := rate.NewLimiter(rate.Limit(cfg.Savings.RateLimit), cfg.Savings.Burst)

	reply := func(msg *nats.Msg, payload any) {
		data, err := json.Marshal(payload)
		if err != nil {
			slog.ErrorContext(ctx, "failed to marshal savings reply", "error", err)
			return
		}
		if err := msg.Respond(data); err != nil {
			slog.ErrorContext(ctx, "failed to respond to savings request", "error", err)
		}
	}
	replyError := func(msg *nats.Msg, message string) {
		reply(msg, map[string]string{"error": message})
	}

	_, subErr := natsClient.QueueSubscribe(
		constants.EstimateSavingsSubject,
		constants.MembershipAPIQueue,
		func(msg *nats.Msg) {
			if !limiter.Allow() {
				replyError(msg, "savings estimate rate limit exceeded")
				return
			}

			msgCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			var cart model.CartSnapshot
			if err := json.Unmarshal(msg.Data, &cart); err != nil {
				slog.WarnContext(msgCtx, "malformed savings request", "error", err)
				replyError(msg, "malformed cart snapshot")
				return
			}

			estimate, err := savingsService.EstimateForCart(msgCtx, &cart)
			if err != nil {
				replyError(msg, err.Error())
				return
			}
			if estimate == nil {
				// No estimate applies; an empty object keeps the reply non-empty.
				reply(msg, struct{}{})
				return
			}
			reply(msg, estimate)
		},
	)
	if subErr != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", constants.EstimateSavingsSubject, subErr)
	}

	slog.InfoContext(ctx, "savings responder started successfully",
		"subject", constants.EstimateSavingsSubject,
		"queue", constants.MembershipAPIQueue)

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		slog.InfoContext(ctx, "shutting down savings responder")
	}()

	return nil
}
