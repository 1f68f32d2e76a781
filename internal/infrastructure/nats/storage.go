// Copyright The CommerceKit Authors.
// SPDX-License-Identifier: MIT

package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/commercekit/membership-service/internal/domain/model"
	"github.com/commercekit/membership-service/internal/domain/port"
	"github.com/commercekit/membership-service/pkg/constants"
	errs "github.com/commercekit/membership-service/pkg/errors"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/vmihailenco/msgpack/v5"
)

// storage implements the membership ledger on a NATS JetStream KV bucket,
// keyed by customer UID. Records are msgpack-encoded; the KV revision backs
// the optimistic concurrency of the sweep's conditional delete.
type storage struct {
	client *NATSClient
}

// GetMembership retrieves a membership record by customer UID and returns its revision
func (s *storage) GetMembership(ctx context.Context, customerUID string) (*model.MembershipRecord, uint64, error) {
	slog.DebugContext(ctx, "nats storage: getting membership",
		"customer_uid", customerUID)

	record := &model.MembershipRecord{}
	rev, err := s.get(ctx, customerUID, record)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			slog.DebugContext(ctx, "membership not found", "customer_uid", customerUID, "error", err)
			return nil, 0, errs.NewNotFound(fmt.Sprintf("membership for customer %s not found", customerUID))
		}
		var validation errs.Validation
		if errors.As(err, &validation) {
			return nil, 0, err
		}
		slog.ErrorContext(ctx, "failed to get membership", "error", err, "customer_uid", customerUID)
		return nil, 0, errs.NewServiceUnavailable("failed to get membership", err)
	}

	slog.DebugContext(ctx, "nats storage: membership retrieved",
		"customer_uid", customerUID,
		"expires_at", record.ExpiresAt,
		"revision", rev)

	return record, rev, nil
}

// UpsertMembership stores a membership record and returns the new revision
func (s *storage) UpsertMembership(ctx context.Context, record *model.MembershipRecord) (uint64, error) {
	slog.DebugContext(ctx, "nats storage: upserting membership",
		"customer_uid", record.CustomerUID,
		"expires_at", record.ExpiresAt)

	rev, err := s.put(ctx, record.CustomerUID, record)
	if err != nil {
		slog.ErrorContext(ctx, "failed to upsert membership", "error", err, "customer_uid", record.CustomerUID)
		return 0, errs.NewServiceUnavailable("failed to upsert membership", err)
	}

	slog.DebugContext(ctx, "nats storage: membership upserted",
		"customer_uid", record.CustomerUID,
		"revision", rev)

	return rev, nil
}

// CreateMembership stores a membership record only when the customer has no
// record yet. A key that already exists surfaces as Conflict, so a concurrent
// grant always wins over a restore.
func (s *storage) CreateMembership(ctx context.Context, record *model.MembershipRecord) (uint64, error) {
	slog.DebugContext(ctx, "nats storage: creating membership",
		"customer_uid", record.CustomerUID,
		"expires_at", record.ExpiresAt)

	if record.CustomerUID == "" {
		return 0, errs.NewValidation("customer UID cannot be empty")
	}

	kv, exists := s.client.kvStore[constants.KVBucketNameMembershipRecords]
	if !exists || kv == nil {
		return 0, errs.NewServiceUnavailable("KV bucket not available")
	}

	data, err := msgpack.Marshal(record)
	if err != nil {
		return 0, err
	}

	rev, err := kv.Create(ctx, record.CustomerUID, data)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			slog.DebugContext(ctx, "membership record already exists",
				"customer_uid", record.CustomerUID)
			return 0, errs.NewConflict(fmt.Sprintf("membership for customer %s already exists", record.CustomerUID), err)
		}
		slog.ErrorContext(ctx, "failed to create membership", "error", err, "customer_uid", record.CustomerUID)
		return 0, errs.NewServiceUnavailable("failed to create membership", err)
	}

	slog.DebugContext(ctx, "nats storage: membership created",
		"customer_uid", record.CustomerUID,
		"revision", rev)

	return rev, nil
}

// DeleteMembership removes a membership record with revision checking. A
// revision mismatch means the record changed since it was read and surfaces
// as Conflict so the caller can let the newer write win.
func (s *storage) DeleteMembership(ctx context.Context, customerUID string, expectedRevision uint64) error {
	slog.DebugContext(ctx, "nats storage: deleting membership",
		"customer_uid", customerUID,
		"expected_revision", expectedRevision)

	if customerUID == "" {
		return errs.NewValidation("customer UID cannot be empty")
	}

	kv, exists := s.client.kvStore[constants.KVBucketNameMembershipRecords]
	if !exists || kv == nil {
		return errs.NewServiceUnavailable("KV bucket not available")
	}

	err := kv.Delete(ctx, customerUID, jetstream.LastRevision(expectedRevision))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return errs.NewNotFound(fmt.Sprintf("membership for customer %s not found", customerUID))
		}
		var apiErr *jetstream.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode == jetstream.JSErrCodeStreamWrongLastSequence {
			slog.DebugContext(ctx, "membership record changed since read",
				"customer_uid", customerUID,
				"expected_revision", expectedRevision)
			return errs.NewConflict(fmt.Sprintf("membership for customer %s was modified since revision %d",
				customerUID, expectedRevision), err)
		}
		slog.ErrorContext(ctx, "failed to delete membership", "error", err, "customer_uid", customerUID)
		return errs.NewServiceUnavailable("failed to delete membership", err)
	}

	slog.DebugContext(ctx, "nats storage: membership deleted",
		"customer_uid", customerUID)

	return nil
}

// ListExpiredMemberships scans the bucket and returns every record whose
// expiry is at or before now, paired with the revision it was read at.
func (s *storage) ListExpiredMemberships(ctx context.Context, now time.Time) ([]model.ExpiredMembership, error) {
	kv, exists := s.client.kvStore[constants.KVBucketNameMembershipRecords]
	if !exists || kv == nil {
		return nil, errs.NewServiceUnavailable("KV bucket not available")
	}

	keys, err := kv.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		slog.ErrorContext(ctx, "failed to list membership keys", "error", err)
		return nil, errs.NewServiceUnavailable("failed to list memberships", err)
	}

	var expired []model.ExpiredMembership
	for _, key := range keys {
		record := &model.MembershipRecord{}
		rev, errGet := s.get(ctx, key, record)
		if errGet != nil {
			if errors.Is(errGet, jetstream.ErrKeyNotFound) {
				// Deleted between the key scan and the read.
				continue
			}
			slog.ErrorContext(ctx, "failed to read membership during scan",
				"error", errGet,
				"customer_uid", key)
			return nil, errs.NewServiceUnavailable("failed to list memberships", errGet)
		}
		if record.ExpiredAt(now) {
			expired = append(expired, model.ExpiredMembership{
				Record:   record,
				Revision: rev,
			})
		}
	}

	slog.DebugContext(ctx, "nats storage: expired memberships listed",
		"scanned", len(keys),
		"expired", len(expired))

	return expired, nil
}

// get retrieves a record from the KV bucket by customer UID.
// It decodes the data into the provided record and returns the revision.
func (s *storage) get(ctx context.Context, customerUID string, record *model.MembershipRecord) (uint64, error) {
	if customerUID == "" {
		return 0, errs.NewValidation("customer UID cannot be empty")
	}

	kv, exists := s.client.kvStore[constants.KVBucketNameMembershipRecords]
	if !exists || kv == nil {
		return 0, errs.NewServiceUnavailable("KV bucket not available")
	}

	data, errGet := kv.Get(ctx, customerUID)
	if errGet != nil {
		return 0, errGet
	}

	if errUnmarshal := msgpack.Unmarshal(data.Value(), record); errUnmarshal != nil {
		return 0, errUnmarshal
	}

	return data.Revision(), nil
}

// put stores a record in the KV bucket keyed by customer UID and returns the revision.
func (s *storage) put(ctx context.Context, customerUID string, record *model.MembershipRecord) (uint64, error) {
	if customerUID == "" {
		return 0, errs.NewValidation("customer UID cannot be empty")
	}

	kv, exists := s.client.kvStore[constants.KVBucketNameMembershipRecords]
	if !exists || kv == nil {
		return 0, errs.NewServiceUnavailable("KV bucket not available")
	}

	data, err := msgpack.Marshal(record)
	if err != nil {
		return 0, err
	}

	return kv.Put(ctx, customerUID, data)
}

// IsReady checks if the storage is ready by verifying the client connection
func (s *storage) IsReady(ctx context.Context) error {
	return s.client.IsReady(ctx)
}

// NewStorage creates a new NATS KV storage for membership records
func NewStorage(client *NATSClient) port.MembershipReaderWriter {
	return &storage{
		client: client,
	}
}
