// Copyright The CommerceKit Authors.
// SPDX-License-Identifier: MIT

package model

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commercekit/membership-service/pkg/constants"
)

func TestNewAuditMessage(t *testing.T) {
	record := &MembershipRecord{
		CustomerUID: "cust-1",
		OrderUID:    "order-7",
		ExpiresAt:   time.Now().Add(30 * 24 * time.Hour).UTC(),
	}

	ctx := context.WithValue(context.Background(), constants.RequestIDContextKey, "req-123")
	msg := NewAuditMessage(ctx, ActionGranted, record)

	require.NotNil(t, msg)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, ActionGranted, msg.Action)
	assert.Equal(t, "cust-1", msg.CustomerUID)
	assert.Equal(t, "order-7", msg.OrderUID)
	assert.Equal(t, record.ExpiresAt, msg.ExpiresAt)
	assert.Equal(t, "req-123", msg.RequestID)
	assert.False(t, msg.OccurredAt.IsZero())
}

func TestNewAuditMessageWithoutRequestID(t *testing.T) {
	record := &MembershipRecord{CustomerUID: "cust-2"}

	msg := NewAuditMessage(context.Background(), ActionRevoked, record)

	require.NotNil(t, msg)
	assert.Equal(t, ActionRevoked, msg.Action)
	assert.Empty(t, msg.RequestID)
}

func TestNewAuditMessageNilRecord(t *testing.T) {
	msg := NewAuditMessage(context.Background(), ActionExtended, nil)

	require.NotNil(t, msg)
	assert.Empty(t, msg.CustomerUID)
	assert.NotEmpty(t, msg.ID)
}

func TestAuditMessageIDsAreUnique(t *testing.T) {
	a := NewAuditMessage(context.Background(), ActionGranted, nil)
	b := NewAuditMessage(context.Background(), ActionGranted, nil)

	assert.NotEqual(t, a.ID, b.ID)
}
