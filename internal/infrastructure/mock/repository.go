// Copyright The CommerceKit Authors.
// SPDX-License-Identifier: MIT

package mock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/commercekit/membership-service/internal/domain/model"
	"github.com/commercekit/membership-service/internal/domain/port"
	"github.com/commercekit/membership-service/pkg/errors"
)

// MockRepository provides an in-memory implementation of
// MembershipReaderWriter with the same revision semantics as the NATS KV
// store: every write bumps a per-customer revision and deletes are
// conditioned on it.
type MockRepository struct {
	records   map[string]*model.MembershipRecord
	revisions map[string]uint64
	mu        sync.RWMutex

	// Failure injection for tests.
	UpsertError error
	CreateError error
	DeleteError error
	ListError   error
}

// NewMockRepository creates a new empty mock repository
func NewMockRepository() *MockRepository {
	return &MockRepository{
		records:   make(map[string]*model.MembershipRecord),
		revisions: make(map[string]uint64),
	}
}

// GetMembership retrieves a membership record by customer UID along with its revision
func (m *MockRepository) GetMembership(ctx context.Context, customerUID string) (*model.MembershipRecord, uint64, error) {
	slog.DebugContext(ctx, "mock repository: getting membership", "customer_uid", customerUID)

	m.mu.RLock()
	defer m.mu.RUnlock()

	record, exists := m.records[customerUID]
	if !exists {
		return nil, 0, errors.NewNotFound(fmt.Sprintf("membership for customer %s not found", customerUID))
	}

	recordCopy := *record
	return &recordCopy, m.revisions[customerUID], nil
}

// UpsertMembership stores a membership record and returns the new revision
func (m *MockRepository) UpsertMembership(ctx context.Context, record *model.MembershipRecord) (uint64, error) {
	slog.DebugContext(ctx, "mock repository: upserting membership", "customer_uid", record.CustomerUID)

	if m.UpsertError != nil {
		return 0, m.UpsertError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	recordCopy := *record
	m.records[record.CustomerUID] = &recordCopy
	m.revisions[record.CustomerUID]++
	return m.revisions[record.CustomerUID], nil
}

// CreateMembership stores a membership record only when none exists for the customer
func (m *MockRepository) CreateMembership(ctx context.Context, record *model.MembershipRecord) (uint64, error) {
	slog.DebugContext(ctx, "mock repository: creating membership", "customer_uid", record.CustomerUID)

	if m.CreateError != nil {
		return 0, m.CreateError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[record.CustomerUID]; exists {
		return 0, errors.NewConflict(fmt.Sprintf("membership for customer %s already exists", record.CustomerUID))
	}

	recordCopy := *record
	m.records[record.CustomerUID] = &recordCopy
	m.revisions[record.CustomerUID]++
	return m.revisions[record.CustomerUID], nil
}

// DeleteMembership removes a membership record if its revision still matches
func (m *MockRepository) DeleteMembership(ctx context.Context, customerUID string, expectedRevision uint64) error {
	slog.DebugContext(ctx, "mock repository: deleting membership",
		"customer_uid", customerUID,
		"expected_revision", expectedRevision)

	if m.DeleteError != nil {
		return m.DeleteError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[customerUID]; !exists {
		return errors.NewNotFound(fmt.Sprintf("membership for customer %s not found", customerUID))
	}
	if m.revisions[customerUID] != expectedRevision {
		return errors.NewConflict(fmt.Sprintf("membership for customer %s was modified: expected revision %d, got %d",
			customerUID, expectedRevision, m.revisions[customerUID]))
	}

	delete(m.records, customerUID)
	delete(m.revisions, customerUID)
	return nil
}

// ListExpiredMemberships returns all records whose expiry is at or before now
func (m *MockRepository) ListExpiredMemberships(ctx context.Context, now time.Time) ([]model.ExpiredMembership, error) {
	slog.DebugContext(ctx, "mock repository: listing expired memberships")

	if m.ListError != nil {
		return nil, m.ListError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var expired []model.ExpiredMembership
	for uid, record := range m.records {
		if record.ExpiredAt(now) {
			recordCopy := *record
			expired = append(expired, model.ExpiredMembership{
				Record:   &recordCopy,
				Revision: m.revisions[uid],
			})
		}
	}
	return expired, nil
}

// IsReady checks if the mock repository is ready
func (m *MockRepository) IsReady(ctx context.Context) error {
	return nil
}

// AddMembership seeds a record directly, bypassing the service layer
func (m *MockRepository) AddMembership(record model.MembershipRecord) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	recordCopy := record
	m.records[record.CustomerUID] = &recordCopy
	m.revisions[record.CustomerUID]++
	return m.revisions[record.CustomerUID]
}

// GetMembershipCount returns the number of stored records
func (m *MockRepository) GetMembershipCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// ClearAll removes all stored records
func (m *MockRepository) ClearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[string]*model.MembershipRecord)
	m.revisions = make(map[string]uint64)
}

// interface check
var _ port.MembershipReaderWriter = (*MockRepository)(nil)
