// Copyright The CommerceKit Authors.
// SPDX-License-Identifier: MIT

package model

import "math"

// MinMeaningfulSaving is the threshold below which a computed saving is treated
// as noise from floating-point and rounding artifacts rather than a real
// discount, and the banner is suppressed.
const MinMeaningfulSaving = 0.01

// SavingsEstimate is the outcome of comparing a cart total priced normally
// against the same cart priced in the member group context.
type SavingsEstimate struct {
	// Saving is the per-order amount saved: normal total minus member total.
	Saving float64 `json:"saving"`

	// MembershipPrice is the current price of the membership product.
	MembershipPrice float64 `json:"membership_price"`

	// BreakEvenOrders is the number of orders, at the observed saving, needed
	// to recoup the membership price.
	BreakEvenOrders int `json:"break_even_orders"`
}

// ComputeSavings derives the savings estimate from two pre-computed cart totals
// and the membership product price. It performs no pricing itself: both totals
// come from the pricing collaborator evaluated in explicit group contexts.
//
// The second return value is false when no meaningful saving exists and the
// banner should be suppressed.
func ComputeSavings(normalTotal, memberTotal, membershipPrice float64) (*SavingsEstimate, bool) {
	saving := normalTotal - memberTotal
	if saving <= MinMeaningfulSaving {
		return nil, false
	}

	estimate := &SavingsEstimate{
		Saving:          saving,
		MembershipPrice: membershipPrice,
	}
	if membershipPrice > 0 {
		estimate.BreakEvenOrders = int(math.Ceil(membershipPrice / saving))
	}

	return estimate, true
}
