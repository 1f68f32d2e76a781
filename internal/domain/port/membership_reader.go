// Copyright The CommerceKit Authors.
// SPDX-License-Identifier: MIT

// Package port defines the interfaces for external dependencies and adapters.
package port

import (
	"context"
	"time"

	"github.com/commercekit/membership-service/internal/domain/model"
)

// MembershipReader defines the interface for reading the membership ledger
type MembershipReader interface {
	// GetMembership retrieves the ledger record for a customer with its revision.
	// Returns NotFound when the customer holds no record.
	GetMembership(ctx context.Context, customerUID string) (*model.MembershipRecord, uint64, error)

	// ListExpiredMemberships returns exactly the records whose expiry is at or
	// before now, each paired with the revision it was read at.
	ListExpiredMemberships(ctx context.Context, now time.Time) ([]model.ExpiredMembership, error)

	// IsReady checks whether the ledger storage is reachable
	IsReady(ctx context.Context) error
}
