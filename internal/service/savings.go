// Copyright The CommerceKit Authors.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/commercekit/membership-service/internal/domain/model"
	"github.com/commercekit/membership-service/internal/domain/port"
	errs "github.com/commercekit/membership-service/pkg/errors"
	"github.com/commercekit/membership-service/pkg/log"
)

// SavingsService produces the "what you would save as a member" estimate for
// a cart. The estimate is advisory: whenever a figure cannot be computed
// honestly, the service returns no estimate rather than a wrong one.
type SavingsService struct {
	config  model.MembershipConfig
	status  *MembershipStatusReader
	pricer  port.CartPricer
	catalog port.ProductCatalog
}

// NewSavingsService creates a new savings service
func NewSavingsService(
	config model.MembershipConfig,
	status *MembershipStatusReader,
	pricer port.CartPricer,
	catalog port.ProductCatalog,
) *SavingsService {
	return &SavingsService{
		config:  config,
		status:  status,
		pricer:  pricer,
		catalog: catalog,
	}
}

// EstimateForCart computes the membership savings estimate for a cart
// snapshot. A nil estimate with a nil error means the banner is suppressed:
// the service is unconfigured, the customer is already a member, the
// membership product price cannot be resolved, or the saving is too small to
// be meaningful.
func (s *SavingsService) EstimateForCart(ctx context.Context, cart *model.CartSnapshot) (*model.SavingsEstimate, error) {
	if !s.config.Configured() {
		slog.DebugContext(ctx, "membership configuration incomplete, no savings estimate")
		return nil, nil
	}
	if cart == nil || cart.CartUID == "" {
		return nil, errs.NewValidation("cart UID is required")
	}

	ctx = log.AppendCtx(ctx, slog.String("cart_uid", cart.CartUID))

	if cart.CustomerUID != "" {
		active, err := s.status.IsActive(ctx, cart.CustomerUID, time.Now().UTC())
		if err != nil {
			return nil, err
		}
		if active {
			slog.DebugContext(ctx, "customer already a member, no savings estimate",
				"customer_uid", cart.CustomerUID)
			return nil, nil
		}
	}

	membershipPrice, err := s.catalog.GetProductPrice(ctx, s.config.MembershipProductUID)
	if err != nil {
		var notFound errs.NotFound
		if stderrors.As(err, &notFound) {
			slog.WarnContext(ctx, "membership product price unresolvable, no savings estimate",
				"product_uid", s.config.MembershipProductUID)
			return nil, nil
		}
		slog.ErrorContext(ctx, "failed to resolve membership product price", "error", err)
		return nil, err
	}

	normalTotal, err := s.pricer.QuoteCart(ctx, cart, cart.GroupUID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to quote cart at current group", "error", err)
		return nil, err
	}

	memberTotal, err := s.pricer.QuoteCart(ctx, cart, s.config.MemberGroupUID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to quote cart at member group", "error", err)
		return nil, err
	}

	estimate, meaningful := model.ComputeSavings(normalTotal, memberTotal, membershipPrice)
	if !meaningful {
		slog.DebugContext(ctx, "saving below threshold, no savings estimate",
			"normal_total", normalTotal,
			"member_total", memberTotal)
		return nil, nil
	}

	slog.DebugContext(ctx, "savings estimate computed",
		"saving", estimate.Saving,
		"break_even_orders", estimate.BreakEvenOrders)

	return estimate, nil
}
