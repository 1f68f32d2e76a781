// Copyright The CommerceKit Authors.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commercekit/membership-service/internal/domain/model"
	"github.com/commercekit/membership-service/internal/infrastructure/mock"
	"github.com/commercekit/membership-service/pkg/constants"
)

func testConfig() model.MembershipConfig {
	return model.MembershipConfig{
		MembershipProductUID: "prod-membership",
		MemberGroupUID:       "group-members",
		ValidDays:            365,
		QualifyingOrderState: "complete",
	}
}

func qualifyingEvent(customerUID string) *model.OrderEvent {
	return &model.OrderEvent{
		OrderUID:    "order-1",
		CustomerUID: customerUID,
		State:       "complete",
		Lines: []model.OrderLine{
			{ProductUID: "prod-widget", Quantity: 2},
			{ProductUID: "prod-membership", Quantity: 1},
		},
	}
}

func TestHandleOrderEvent(t *testing.T) {
	tests := []struct {
		name          string
		config        model.MembershipConfig
		event         *model.OrderEvent
		setupGroups   func(*mock.MockGroupManager)
		wantErr       bool
		wantGrant     bool
		wantInGroup   bool
		wantAuditMsgs int
	}{
		{
			name:   "qualifying order grants membership",
			config: testConfig(),
			event:  qualifyingEvent("cust-1"),
			setupGroups: func(g *mock.MockGroupManager) {
				g.AddCustomer("cust-1")
			},
			wantGrant:     true,
			wantInGroup:   true,
			wantAuditMsgs: 1,
		},
		{
			name:   "non-qualifying state is a no-op",
			config: testConfig(),
			event: &model.OrderEvent{
				OrderUID:    "order-1",
				CustomerUID: "cust-1",
				State:       "pending",
				Lines:       []model.OrderLine{{ProductUID: "prod-membership", Quantity: 1}},
			},
			setupGroups: func(g *mock.MockGroupManager) {
				g.AddCustomer("cust-1")
			},
		},
		{
			name:   "order without membership product is a no-op",
			config: testConfig(),
			event: &model.OrderEvent{
				OrderUID:    "order-1",
				CustomerUID: "cust-1",
				State:       "complete",
				Lines:       []model.OrderLine{{ProductUID: "prod-widget", Quantity: 1}},
			},
			setupGroups: func(g *mock.MockGroupManager) {
				g.AddCustomer("cust-1")
			},
		},
		{
			name:   "unconfigured service is a no-op",
			config: model.MembershipConfig{},
			event:  qualifyingEvent("cust-1"),
			setupGroups: func(g *mock.MockGroupManager) {
				g.AddCustomer("cust-1")
			},
		},
		{
			name:        "unknown customer is a no-op",
			config:      testConfig(),
			event:       qualifyingEvent("cust-unknown"),
			setupGroups: func(g *mock.MockGroupManager) {},
		},
		{
			name:   "missing customer uid is a no-op",
			config: testConfig(),
			event: &model.OrderEvent{
				OrderUID: "order-1",
				State:    "complete",
				Lines:    []model.OrderLine{{ProductUID: "prod-membership", Quantity: 1}},
			},
			setupGroups: func(g *mock.MockGroupManager) {},
		},
		{
			name:   "duplicate membership lines grant once",
			config: testConfig(),
			event: &model.OrderEvent{
				OrderUID:    "order-1",
				CustomerUID: "cust-1",
				State:       "complete",
				Lines: []model.OrderLine{
					{ProductUID: "prod-membership", Quantity: 1},
					{ProductUID: "prod-membership", Quantity: 3},
				},
			},
			setupGroups: func(g *mock.MockGroupManager) {
				g.AddCustomer("cust-1")
			},
			wantGrant:     true,
			wantInGroup:   true,
			wantAuditMsgs: 1,
		},
		{
			name:   "group add failure leaves ledger untouched",
			config: testConfig(),
			event:  qualifyingEvent("cust-1"),
			setupGroups: func(g *mock.MockGroupManager) {
				g.AddCustomer("cust-1")
				g.AddError = errors.New("customers service unavailable")
			},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := mock.NewMockRepository()
			groups := mock.NewMockGroupManager()
			tc.setupGroups(groups)
			audit := mock.NewMockAuditPublisher()

			svc := NewGrantService(tc.config, repo, groups, audit)
			err := svc.HandleOrderEvent(context.Background(), tc.event)

			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			if tc.wantGrant {
				record, _, getErr := repo.GetMembership(context.Background(), tc.event.CustomerUID)
				require.NoError(t, getErr)
				assert.Equal(t, tc.event.OrderUID, record.OrderUID)
				assert.True(t, record.ExpiresAt.After(time.Now()))
			} else {
				assert.Equal(t, 0, repo.GetMembershipCount())
			}

			if tc.wantInGroup {
				inGroup, groupErr := groups.IsInGroup(context.Background(), tc.event.CustomerUID, tc.config.MemberGroupUID)
				require.NoError(t, groupErr)
				assert.True(t, inGroup)
			}

			assert.Len(t, audit.Published(), tc.wantAuditMsgs)
		})
	}
}

func TestGrantRenewalExtendsInsteadOfStacking(t *testing.T) {
	config := testConfig()
	repo := mock.NewMockRepository()
	groups := mock.NewMockGroupManager()
	groups.AddCustomer("cust-1", config.MemberGroupUID)
	audit := mock.NewMockAuditPublisher()

	granted := time.Now().UTC().AddDate(0, 0, -300)
	repo.AddMembership(model.MembershipRecord{
		CustomerUID: "cust-1",
		OrderUID:    "order-old",
		GrantedAt:   granted,
		ExpiresAt:   granted.AddDate(0, 0, config.ValidDays),
		CreatedAt:   granted,
		UpdatedAt:   granted,
	})

	svc := NewGrantService(config, repo, groups, audit)
	require.NoError(t, svc.HandleOrderEvent(context.Background(), qualifyingEvent("cust-1")))

	record, _, err := repo.GetMembership(context.Background(), "cust-1")
	require.NoError(t, err)

	// One record, expiry re-anchored at now, not appended to the old window.
	assert.Equal(t, 1, repo.GetMembershipCount())
	assert.Equal(t, "order-1", record.OrderUID)
	wantExpiry := time.Now().UTC().AddDate(0, 0, config.ValidDays)
	assert.WithinDuration(t, wantExpiry, record.ExpiresAt, time.Minute)
	assert.Equal(t, granted.Unix(), record.CreatedAt.Unix())

	published := audit.Published()
	require.Len(t, published, 1)
	message, ok := published[0].Message.(*model.AuditMessage)
	require.True(t, ok)
	assert.Equal(t, model.ActionExtended, message.Action)
}

func TestGrantLedgerFailureCompensatesGroupAdd(t *testing.T) {
	config := testConfig()
	repo := mock.NewMockRepository()
	repo.UpsertError = errors.New("storage unavailable")
	groups := mock.NewMockGroupManager()
	groups.AddCustomer("cust-1")

	svc := NewGrantService(config, repo, groups, mock.NewMockAuditPublisher())
	err := svc.HandleOrderEvent(context.Background(), qualifyingEvent("cust-1"))
	require.Error(t, err)

	// The cohort add made by this grant was rolled back.
	inGroup, groupErr := groups.IsInGroup(context.Background(), "cust-1", config.MemberGroupUID)
	require.NoError(t, groupErr)
	assert.False(t, inGroup)
	assert.Equal(t, 0, repo.GetMembershipCount())
}

func TestGrantLedgerFailureKeepsExistingMembersInGroup(t *testing.T) {
	config := testConfig()
	repo := mock.NewMockRepository()
	repo.UpsertError = errors.New("storage unavailable")
	groups := mock.NewMockGroupManager()
	groups.AddCustomer("cust-1", config.MemberGroupUID)

	svc := NewGrantService(config, repo, groups, mock.NewMockAuditPublisher())
	err := svc.HandleOrderEvent(context.Background(), qualifyingEvent("cust-1"))
	require.Error(t, err)

	// The customer was in the group before the grant; compensation must not
	// remove them.
	inGroup, groupErr := groups.IsInGroup(context.Background(), "cust-1", config.MemberGroupUID)
	require.NoError(t, groupErr)
	assert.True(t, inGroup)
}

func TestGrantAuditFailureDoesNotRollBack(t *testing.T) {
	config := testConfig()
	repo := mock.NewMockRepository()
	groups := mock.NewMockGroupManager()
	groups.AddCustomer("cust-1")
	audit := mock.NewMockAuditPublisher()
	audit.Error = errors.New("broker unavailable")

	svc := NewGrantService(config, repo, groups, audit)
	require.NoError(t, svc.HandleOrderEvent(context.Background(), qualifyingEvent("cust-1")))

	assert.Equal(t, 1, repo.GetMembershipCount())
	inGroup, err := groups.IsInGroup(context.Background(), "cust-1", config.MemberGroupUID)
	require.NoError(t, err)
	assert.True(t, inGroup)
}

func TestHandleMessage(t *testing.T) {
	config := testConfig()

	t.Run("valid message grants membership", func(t *testing.T) {
		repo := mock.NewMockRepository()
		groups := mock.NewMockGroupManager()
		groups.AddCustomer("cust-1")

		data, err := json.Marshal(qualifyingEvent("cust-1"))
		require.NoError(t, err)

		svc := NewGrantService(config, repo, groups, mock.NewMockAuditPublisher())
		err = svc.HandleMessage(context.Background(), &nats.Msg{
			Subject: constants.OrderStateChangedSubject,
			Data:    data,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, repo.GetMembershipCount())
	})

	t.Run("malformed payload returns error", func(t *testing.T) {
		svc := NewGrantService(config, mock.NewMockRepository(), mock.NewMockGroupManager(), mock.NewMockAuditPublisher())
		err := svc.HandleMessage(context.Background(), &nats.Msg{
			Subject: constants.OrderStateChangedSubject,
			Data:    []byte("not json"),
		})
		assert.Error(t, err)
	})

	t.Run("unknown subject returns error", func(t *testing.T) {
		svc := NewGrantService(config, mock.NewMockRepository(), mock.NewMockGroupManager(), mock.NewMockAuditPublisher())
		err := svc.HandleMessage(context.Background(), &nats.Msg{
			Subject: "commerce.orders.unknown",
			Data:    []byte("{}"),
		})
		assert.Error(t, err)
	})
}
