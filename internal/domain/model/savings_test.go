// Copyright The CommerceKit Authors.
// SPDX-License-Identifier: MIT

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeSavings(t *testing.T) {
	testCases := []struct {
		name            string
		normalTotal     float64
		memberTotal     float64
		membershipPrice float64
		expectShown     bool
		expectedSaving  float64
		expectedOrders  int
	}{
		{
			name:            "meaningful saving with break-even",
			normalTotal:     100,
			memberTotal:     90,
			membershipPrice: 20,
			expectShown:     true,
			expectedSaving:  10.00,
			expectedOrders:  2,
		},
		{
			name:            "saving below noise threshold suppressed",
			normalTotal:     100,
			memberTotal:     99.995,
			membershipPrice: 20,
			expectShown:     false,
		},
		{
			name:            "zero saving suppressed",
			normalTotal:     100,
			memberTotal:     100,
			membershipPrice: 20,
			expectShown:     false,
		},
		{
			name:            "negative saving suppressed",
			normalTotal:     90,
			memberTotal:     100,
			membershipPrice: 20,
			expectShown:     false,
		},
		{
			name:            "break-even rounds up",
			normalTotal:     100,
			memberTotal:     97,
			membershipPrice: 20,
			expectShown:     true,
			expectedSaving:  3.00,
			expectedOrders:  7,
		},
		{
			name:            "saving above membership price breaks even in one order",
			normalTotal:     100,
			memberTotal:     70,
			membershipPrice: 20,
			expectShown:     true,
			expectedSaving:  30.00,
			expectedOrders:  1,
		},
		{
			name:            "free membership has no break-even count",
			normalTotal:     100,
			memberTotal:     90,
			membershipPrice: 0,
			expectShown:     true,
			expectedSaving:  10.00,
			expectedOrders:  0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			estimate, shown := ComputeSavings(tc.normalTotal, tc.memberTotal, tc.membershipPrice)

			if !tc.expectShown {
				assert.False(t, shown)
				assert.Nil(t, estimate)
				return
			}

			require.True(t, shown)
			require.NotNil(t, estimate)
			assert.InDelta(t, tc.expectedSaving, estimate.Saving, 1e-9)
			assert.Equal(t, tc.expectedOrders, estimate.BreakEvenOrders)
			assert.InDelta(t, tc.membershipPrice, estimate.MembershipPrice, 1e-9)
		})
	}
}

func TestOrderEventContainsProduct(t *testing.T) {
	event := &OrderEvent{
		OrderUID:    "order-1",
		CustomerUID: "cust-1",
		State:       "payment_accepted",
		Lines: []OrderLine{
			{ProductUID: "prod-mug", Quantity: 2},
			{ProductUID: "prod-membership", Quantity: 1},
			{ProductUID: "prod-membership", Quantity: 1},
		},
	}

	assert.True(t, event.ContainsProduct("prod-membership"))
	assert.False(t, event.ContainsProduct("prod-shirt"))
	assert.False(t, event.ContainsProduct(""))

	var nilEvent *OrderEvent
	assert.False(t, nilEvent.ContainsProduct("prod-membership"))
}
