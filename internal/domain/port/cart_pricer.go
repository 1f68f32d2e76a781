// Copyright The CommerceKit Authors.
// SPDX-License-Identifier: MIT

package port

import (
	"context"

	"github.com/commercekit/membership-service/internal/domain/model"
)

// CartPricer defines the interface for the commerce platform's pricing engine.
// The group context is an explicit parameter of the computation: obtaining a
// member-price preview must never mutate the customer's stored group
// membership.
type CartPricer interface {
	// QuoteCart returns the cart's total as priced for the given pricing group.
	QuoteCart(ctx context.Context, cart *model.CartSnapshot, groupUID string) (float64, error)
}
