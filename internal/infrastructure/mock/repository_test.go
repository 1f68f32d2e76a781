// Copyright The CommerceKit Authors.
// SPDX-License-Identifier: MIT

package mock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commercekit/membership-service/internal/domain/model"
	errs "github.com/commercekit/membership-service/pkg/errors"
)

func sampleRecord(customerUID string, expiresAt time.Time) *model.MembershipRecord {
	now := time.Now().UTC()
	return &model.MembershipRecord{
		CustomerUID: customerUID,
		OrderUID:    "order-1",
		GrantedAt:   now,
		ExpiresAt:   expiresAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestRepositoryRevisionSemantics(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRepository()

	rev1, err := repo.UpsertMembership(ctx, sampleRecord("cust-1", time.Now().Add(time.Hour)))
	require.NoError(t, err)

	rev2, err := repo.UpsertMembership(ctx, sampleRecord("cust-1", time.Now().Add(2*time.Hour)))
	require.NoError(t, err)
	assert.Greater(t, rev2, rev1)

	// A delete conditioned on a stale revision must fail with Conflict.
	err = repo.DeleteMembership(ctx, "cust-1", rev1)
	require.Error(t, err)
	var conflict errs.Conflict
	assert.True(t, errors.As(err, &conflict))
	assert.Equal(t, 1, repo.GetMembershipCount())

	// The current revision deletes cleanly.
	require.NoError(t, repo.DeleteMembership(ctx, "cust-1", rev2))
	assert.Equal(t, 0, repo.GetMembershipCount())

	// Deleting an absent record is NotFound.
	err = repo.DeleteMembership(ctx, "cust-1", rev2)
	var notFound errs.NotFound
	assert.True(t, errors.As(err, &notFound))
}

func TestRepositoryCreateMembership(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRepository()

	_, err := repo.CreateMembership(ctx, sampleRecord("cust-1", time.Now().Add(time.Hour)))
	require.NoError(t, err)

	// Create is strictly first-writer-wins: a second create must not overwrite.
	newer := sampleRecord("cust-1", time.Now().Add(48*time.Hour))
	_, err = repo.CreateMembership(ctx, newer)
	require.Error(t, err)
	var conflict errs.Conflict
	assert.True(t, errors.As(err, &conflict))

	record, _, err := repo.GetMembership(ctx, "cust-1")
	require.NoError(t, err)
	assert.True(t, record.ExpiresAt.Before(newer.ExpiresAt))

	repo.ClearAll()
	assert.Equal(t, 0, repo.GetMembershipCount())

	// After a clear the key is free again.
	_, err = repo.CreateMembership(ctx, newer)
	require.NoError(t, err)
}

func TestRepositoryListExpiredMemberships(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRepository()
	now := time.Now().UTC()

	repo.AddMembership(*sampleRecord("cust-expired", now.Add(-time.Hour)))
	repo.AddMembership(*sampleRecord("cust-boundary", now))
	repo.AddMembership(*sampleRecord("cust-active", now.Add(time.Hour)))

	expired, err := repo.ListExpiredMemberships(ctx, now)
	require.NoError(t, err)
	require.Len(t, expired, 2)

	uids := map[string]uint64{}
	for _, e := range expired {
		uids[e.Record.CustomerUID] = e.Revision
	}
	// Expiry is exclusive: a record expiring exactly now is already expired.
	assert.Contains(t, uids, "cust-expired")
	assert.Contains(t, uids, "cust-boundary")
	assert.NotContains(t, uids, "cust-active")
	for _, rev := range uids {
		assert.NotZero(t, rev)
	}
}
