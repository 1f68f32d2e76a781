// Copyright The CommerceKit Authors.
// SPDX-License-Identifier: MIT

// Package service implements the membership business logic orchestrators.
package service

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/commercekit/membership-service/internal/domain/model"
	"github.com/commercekit/membership-service/internal/domain/port"
	"github.com/commercekit/membership-service/pkg/constants"
	errs "github.com/commercekit/membership-service/pkg/errors"
	"github.com/commercekit/membership-service/pkg/log"
)

// GrantService drives the NonMember -> Member transition. It consumes order
// state-change events and grants (or extends) a membership when an order
// reaches the qualifying state carrying the membership product.
type GrantService struct {
	config model.MembershipConfig
	ledger port.MembershipReaderWriter
	groups port.GroupManager
	audit  port.AuditPublisher
}

// NewGrantService creates a new grant service
func NewGrantService(
	config model.MembershipConfig,
	ledger port.MembershipReaderWriter,
	groups port.GroupManager,
	audit port.AuditPublisher,
) *GrantService {
	return &GrantService{
		config: config,
		ledger: ledger,
		groups: groups,
		audit:  audit,
	}
}

// HandleMessage unmarshals an order state-change event from NATS and routes it
// to the grant logic. It returns an error for message acknowledgment handling.
func (s *GrantService) HandleMessage(ctx context.Context, msg *nats.Msg) error {
	if msg.Subject != constants.OrderStateChangedSubject {
		slog.WarnContext(ctx, "unknown order event subject", "subject", msg.Subject)
		return fmt.Errorf("unknown order event subject: %s", msg.Subject)
	}

	var event model.OrderEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		slog.ErrorContext(ctx, "failed to unmarshal order event", "error", err)
		return fmt.Errorf("failed to unmarshal order event: %w", err)
	}

	return s.HandleOrderEvent(ctx, &event)
}

// HandleOrderEvent applies the grant state machine to a single order event.
// Events that do not qualify are a clean no-op, never an error.
func (s *GrantService) HandleOrderEvent(ctx context.Context, event *model.OrderEvent) error {
	ctx = log.AppendCtx(ctx, slog.String("order_uid", event.OrderUID))

	if !s.config.Configured() {
		slog.DebugContext(ctx, "membership configuration incomplete, skipping grant")
		return nil
	}

	if event.State != s.config.QualifyingOrderState {
		slog.DebugContext(ctx, "order state does not qualify",
			"state", event.State,
			"qualifying_state", s.config.QualifyingOrderState)
		return nil
	}

	if !event.ContainsProduct(s.config.MembershipProductUID) {
		slog.DebugContext(ctx, "order does not contain the membership product")
		return nil
	}

	if event.CustomerUID == "" {
		slog.WarnContext(ctx, "qualifying order event without customer uid, skipping grant")
		return nil
	}

	return s.grant(ctx, event)
}

// grant performs the membership grant: idempotent cohort add first, then the
// ledger upsert. The ordering matters: if the cohort mutation fails the ledger
// is never written, and if the ledger write fails a cohort add performed by
// this grant is compensated, so ledger and cohort cannot drift apart.
func (s *GrantService) grant(ctx context.Context, event *model.OrderEvent) error {
	ctx = log.AppendCtx(ctx, slog.String("customer_uid", event.CustomerUID))

	inGroup, err := s.groups.IsInGroup(ctx, event.CustomerUID, s.config.MemberGroupUID)
	if err != nil {
		var notFound errs.NotFound
		if stderrors.As(err, &notFound) {
			// Unknown customer: nothing to grant.
			slog.WarnContext(ctx, "customer not found, skipping grant", "error", err)
			return nil
		}
		slog.ErrorContext(ctx, "failed to check group membership", "error", err)
		return err
	}

	addedToGroup := false
	if !inGroup {
		if err := s.groups.AddToGroup(ctx, event.CustomerUID, s.config.MemberGroupUID); err != nil {
			slog.ErrorContext(ctx, "failed to add customer to member group",
				"error", err,
				"group_uid", s.config.MemberGroupUID)
			return err
		}
		addedToGroup = true
	}

	now := time.Now().UTC()
	record := &model.MembershipRecord{
		CustomerUID: event.CustomerUID,
		OrderUID:    event.OrderUID,
		GrantedAt:   now,
		ExpiresAt:   s.config.ExpiryFrom(now),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	action := model.ActionGranted
	existing, _, err := s.ledger.GetMembership(ctx, event.CustomerUID)
	switch {
	case err == nil:
		// Renewal: the new expiry overwrites the old record, it never stacks.
		action = model.ActionExtended
		record.CreatedAt = existing.CreatedAt
	case stderrors.As(err, &errs.NotFound{}):
		// First grant.
	default:
		slog.ErrorContext(ctx, "failed to read existing membership record", "error", err)
		s.compensateGroupAdd(ctx, event.CustomerUID, addedToGroup)
		return err
	}

	if _, err := s.ledger.UpsertMembership(ctx, record); err != nil {
		slog.ErrorContext(ctx, "failed to write membership record", "error", err)
		s.compensateGroupAdd(ctx, event.CustomerUID, addedToGroup)
		return err
	}

	slog.InfoContext(ctx, "membership granted",
		"action", action,
		"expires_at", record.ExpiresAt,
		"valid_days", s.config.ValidDays)

	if s.audit != nil {
		message := model.NewAuditMessage(ctx, action, record)
		if err := s.audit.Audit(ctx, constants.AuditMembershipGrantedSubject, message); err != nil {
			// The grant itself succeeded; the audit trail gap is logged, not rolled back.
			slog.ErrorContext(ctx, "failed to publish grant audit message",
				"error", err,
				log.PriorityCritical())
		}
	}

	return nil
}

// compensateGroupAdd undoes a cohort add made earlier in a grant that failed
// at the ledger. Customers who were already members are left untouched.
func (s *GrantService) compensateGroupAdd(ctx context.Context, customerUID string, addedToGroup bool) {
	if !addedToGroup {
		return
	}
	if err := s.groups.RemoveFromGroup(ctx, customerUID, s.config.MemberGroupUID); err != nil {
		slog.ErrorContext(ctx, "failed to compensate group add after ledger failure",
			"error", err,
			"group_uid", s.config.MemberGroupUID,
			log.PriorityCritical())
	}
}
