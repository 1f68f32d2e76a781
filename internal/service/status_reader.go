// Copyright The CommerceKit Authors.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/commercekit/membership-service/internal/domain/model"
	"github.com/commercekit/membership-service/internal/domain/port"
	errs "github.com/commercekit/membership-service/pkg/errors"
)

// MembershipStatusReader answers membership status queries against the
// ledger. A customer is a member when a ledger record exists and its expiry
// is in the future; an expired record that the sweep has not yet revoked
// still reads as not a member.
type MembershipStatusReader struct {
	ledger port.MembershipReader
}

// NewMembershipStatusReader creates a new membership status reader
func NewMembershipStatusReader(ledger port.MembershipReader) *MembershipStatusReader {
	return &MembershipStatusReader{
		ledger: ledger,
	}
}

// GetMembership returns the ledger record for a customer, or NotFound.
func (r *MembershipStatusReader) GetMembership(ctx context.Context, customerUID string) (*model.MembershipRecord, error) {
	if customerUID == "" {
		return nil, errs.NewValidation("customer UID is required")
	}

	record, _, err := r.ledger.GetMembership(ctx, customerUID)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// IsActive reports whether the customer holds an unexpired membership at the
// given instant. A missing ledger record is not an error.
func (r *MembershipStatusReader) IsActive(ctx context.Context, customerUID string, now time.Time) (bool, error) {
	record, _, err := r.ledger.GetMembership(ctx, customerUID)
	if err != nil {
		var notFound errs.NotFound
		if stderrors.As(err, &notFound) {
			return false, nil
		}
		slog.ErrorContext(ctx, "failed to read membership record",
			"error", err,
			"customer_uid", customerUID)
		return false, err
	}

	return record.ActiveAt(now), nil
}
