// Copyright The CommerceKit Authors.
// SPDX-License-Identifier: MIT

package model

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/commercekit/membership-service/pkg/constants"
)

// AuditAction is a type for the action of a membership audit message
type AuditAction string

// AuditAction constants for membership lifecycle audit messages
const (
	// ActionGranted is the action for a first-time membership grant
	ActionGranted AuditAction = "granted"
	// ActionExtended is the action for a renewal that refreshed an existing record
	ActionExtended AuditAction = "extended"
	// ActionRevoked is the action for an expiry revocation performed by the sweep
	ActionRevoked AuditAction = "revoked"
)

// AuditMessage is the NATS message schema for membership lifecycle events.
// Grants are paid entitlements, so every transition is published for audit.
type AuditMessage struct {
	ID          string      `json:"id"`
	Action      AuditAction `json:"action"`
	CustomerUID string      `json:"customer_uid"`
	OrderUID    string      `json:"order_uid,omitempty"`
	ExpiresAt   time.Time   `json:"expires_at,omitempty"`
	OccurredAt  time.Time   `json:"occurred_at"`
	RequestID   string      `json:"request_id,omitempty"`
}

// NewAuditMessage builds an audit message for a record transition, carrying the
// request ID from the context when one is present.
func NewAuditMessage(ctx context.Context, action AuditAction, record *MembershipRecord) *AuditMessage {
	msg := &AuditMessage{
		ID:         uuid.New().String(),
		Action:     action,
		OccurredAt: time.Now().UTC(),
	}

	if record != nil {
		msg.CustomerUID = record.CustomerUID
		msg.OrderUID = record.OrderUID
		msg.ExpiresAt = record.ExpiresAt
	}

	if requestID, ok := ctx.Value(constants.RequestIDContextKey).(string); ok {
		msg.RequestID = requestID
	}

	return msg
}
