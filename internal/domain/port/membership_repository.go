// Copyright The CommerceKit Authors.
// SPDX-License-Identifier: MIT

package port

import (
	"context"

	"github.com/commercekit/membership-service/internal/domain/model"
)

// MembershipWriter defines the interface for writing the membership ledger.
// Implementations must keep at most one record per customer: upsert overwrites,
// it never duplicates.
type MembershipWriter interface {
	// UpsertMembership stores or overwrites the single record for the record's
	// customer and returns the new revision.
	UpsertMembership(ctx context.Context, record *model.MembershipRecord) (uint64, error)

	// CreateMembership stores the record only when no record exists for the
	// customer yet. Returns Conflict when one does, so restore paths cannot
	// overwrite a record written concurrently.
	CreateMembership(ctx context.Context, record *model.MembershipRecord) (uint64, error)

	// DeleteMembership removes the record only if its revision still matches
	// expectedRevision. Returns Conflict when a concurrent write (a renewal)
	// bumped the revision, and NotFound when the record is already gone.
	DeleteMembership(ctx context.Context, customerUID string, expectedRevision uint64) error
}

// MembershipReaderWriter combines ledger read and write operations.
// This is the contract implemented by:
//   - NATS KV storage layer (production)
//   - Mock storage layer (testing)
type MembershipReaderWriter interface {
	MembershipReader
	MembershipWriter
}
