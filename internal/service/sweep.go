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
	"github.com/commercekit/membership-service/pkg/constants"
	errs "github.com/commercekit/membership-service/pkg/errors"
	"github.com/commercekit/membership-service/pkg/log"
	"github.com/commercekit/membership-service/pkg/utils"
)

// SweepService drives the Member -> NonMember transition: a periodic pass that
// revokes memberships whose expiry has passed.
//
// The revoke is conditioned on the storage revision read during the expiry
// scan. A renewal that lands between the scan and the delete bumps the
// revision, the conditional delete fails with Conflict, and the customer is
// skipped without any cohort mutation. A just-renewed membership therefore
// always survives the sweep.
type SweepService struct {
	config model.MembershipConfig
	ledger port.MembershipReaderWriter
	groups port.GroupManager
	audit  port.AuditPublisher
	retry  utils.RetryConfig
}

// SweepStats summarizes a single sweep pass.
type SweepStats struct {
	Expired  int
	Revoked  int
	Renewed  int
	Failures int
}

// NewSweepService creates a new sweep service
func NewSweepService(
	config model.MembershipConfig,
	ledger port.MembershipReaderWriter,
	groups port.GroupManager,
	audit port.AuditPublisher,
) *SweepService {
	return &SweepService{
		config: config,
		ledger: ledger,
		groups: groups,
		audit:  audit,
		retry:  utils.DefaultCollaboratorRetry(),
	}
}

// Run executes one sweep pass. Per-customer failures are counted and logged
// but do not stop the pass; only a failure to list expired records aborts it.
func (s *SweepService) Run(ctx context.Context) (SweepStats, error) {
	var stats SweepStats

	if !s.config.Configured() {
		slog.DebugContext(ctx, "membership configuration incomplete, skipping sweep")
		return stats, nil
	}

	now := time.Now().UTC()
	expired, err := s.ledger.ListExpiredMemberships(ctx, now)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list expired memberships", "error", err)
		return stats, err
	}

	stats.Expired = len(expired)
	if stats.Expired == 0 {
		slog.DebugContext(ctx, "no expired memberships")
		return stats, nil
	}

	slog.InfoContext(ctx, "sweep pass starting", "expired", stats.Expired)

	for _, candidate := range expired {
		switch err := s.revoke(ctx, candidate); {
		case err == nil:
			stats.Revoked++
		case stderrors.As(err, &errs.Conflict{}):
			stats.Renewed++
		default:
			stats.Failures++
			slog.ErrorContext(ctx, "failed to revoke membership",
				"error", err,
				"customer_uid", candidate.Record.CustomerUID)
		}
	}

	slog.InfoContext(ctx, "sweep pass completed",
		"expired", stats.Expired,
		"revoked", stats.Revoked,
		"renewed", stats.Renewed,
		"failures", stats.Failures)

	return stats, nil
}

// revoke removes one expired membership. Ledger first, cohort second: the
// revision-guarded delete settles the race against concurrent renewals before
// any cohort state is touched.
func (s *SweepService) revoke(ctx context.Context, candidate model.ExpiredMembership) error {
	record := candidate.Record
	ctx = log.AppendCtx(ctx, slog.String("customer_uid", record.CustomerUID))

	err := s.ledger.DeleteMembership(ctx, record.CustomerUID, candidate.Revision)
	if err != nil {
		var conflict errs.Conflict
		if stderrors.As(err, &conflict) {
			slog.InfoContext(ctx, "membership renewed during sweep, skipping revoke",
				"read_revision", candidate.Revision)
			return err
		}
		var notFound errs.NotFound
		if stderrors.As(err, &notFound) {
			// Already removed, likely by another replica's pass.
			slog.DebugContext(ctx, "membership record already gone")
			return nil
		}
		return err
	}

	if err := s.removeFromGroup(ctx, record.CustomerUID); err != nil {
		// The ledger row is gone but the customer kept the cohort discount.
		// Restore the record so the next pass retries the cohort removal. The
		// restore is create-only: a grant that landed after the delete owns the
		// key now, and its fresh record must not be clobbered by the stale one.
		slog.ErrorContext(ctx, "failed to remove customer from member group, restoring record",
			"error", err,
			"group_uid", s.config.MemberGroupUID,
			log.PriorityCritical())
		if _, restoreErr := s.ledger.CreateMembership(ctx, record); restoreErr != nil {
			var conflict errs.Conflict
			if stderrors.As(restoreErr, &conflict) {
				slog.InfoContext(ctx, "membership re-granted during revoke, keeping new record")
			} else {
				slog.ErrorContext(ctx, "failed to restore membership record after group removal failure",
					"error", restoreErr,
					log.PriorityCritical())
			}
		}
		return err
	}

	slog.InfoContext(ctx, "membership revoked", "expired_at", record.ExpiresAt)

	if s.audit != nil {
		message := model.NewAuditMessage(ctx, model.ActionRevoked, record)
		if err := s.audit.Audit(ctx, constants.AuditMembershipRevokedSubject, message); err != nil {
			slog.ErrorContext(ctx, "failed to publish revoke audit message",
				"error", err,
				log.PriorityCritical())
		}
	}

	return nil
}

// removeFromGroup takes the customer out of the member cohort if they are in
// it. An unknown customer or an already-removed membership is a no-op.
func (s *SweepService) removeFromGroup(ctx context.Context, customerUID string) error {
	inGroup, err := s.groups.IsInGroup(ctx, customerUID, s.config.MemberGroupUID)
	if err != nil {
		var notFound errs.NotFound
		if stderrors.As(err, &notFound) {
			slog.DebugContext(ctx, "customer no longer exists, nothing to revoke")
			return nil
		}
		return err
	}
	if !inGroup {
		slog.DebugContext(ctx, "customer already out of member group")
		return nil
	}

	return utils.RetryWithExponentialBackoff(ctx, s.retry, func() error {
		return s.groups.RemoveFromGroup(ctx, customerUID, s.config.MemberGroupUID)
	})
}
