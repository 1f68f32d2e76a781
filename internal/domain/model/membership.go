// Copyright The CommerceKit Authors.
// SPDX-License-Identifier: MIT

// Package model defines the domain models and entities for the membership service.
package model

import (
	"strings"
	"time"

	"github.com/commercekit/membership-service/pkg/errors"
)

// MembershipRecord is a single row of the membership ledger: the mapping from a
// customer to the expiry of their paid membership. The ledger holds at most one
// record per customer; a repeat purchase overwrites the record instead of adding
// a second one.
type MembershipRecord struct {
	// CustomerUID is the opaque identifier of the purchasing account and the
	// primary key of the ledger.
	CustomerUID string `msgpack:"customer_uid" json:"customer_uid"`

	// ExpiresAt is the instant after which the membership is no longer valid.
	ExpiresAt time.Time `msgpack:"expires_at" json:"expires_at"`

	// GrantedAt and OrderUID record the provenance of the most recent grant.
	GrantedAt time.Time `msgpack:"granted_at" json:"granted_at"`
	OrderUID  string    `msgpack:"order_uid" json:"order_uid"`

	// Timestamps
	CreatedAt time.Time `msgpack:"created_at" json:"created_at"`
	UpdatedAt time.Time `msgpack:"updated_at" json:"updated_at"`
}

// ActiveAt reports whether the membership is still valid at the given instant.
// A record is active strictly before its expiry; at or after expiry it is not.
func (r *MembershipRecord) ActiveAt(now time.Time) bool {
	if r == nil {
		return false
	}
	return now.Before(r.ExpiresAt)
}

// ExpiredAt reports whether the record is due for revocation at the given instant.
func (r *MembershipRecord) ExpiredAt(now time.Time) bool {
	if r == nil {
		return false
	}
	return !r.ExpiresAt.After(now)
}

// Validate checks the record before it is written to the ledger.
func (r *MembershipRecord) Validate() error {
	if r == nil {
		return errors.NewValidation("membership record is required")
	}
	if strings.TrimSpace(r.CustomerUID) == "" {
		return errors.NewValidation("customer_uid is required")
	}
	if r.ExpiresAt.IsZero() {
		return errors.NewValidation("expires_at is required")
	}
	return nil
}

// ExpiredMembership pairs a ledger record with the storage revision it was read
// at. The sweep's revoke is conditioned on this revision so a renewal that lands
// after the read wins over the delete.
type ExpiredMembership struct {
	Record   *MembershipRecord
	Revision uint64
}

// MembershipConfig is the process-wide membership configuration, supplied
// externally and read-only at request time.
type MembershipConfig struct {
	// MembershipProductUID identifies the purchasable item that grants membership.
	MembershipProductUID string `yaml:"membership_product_uid"`

	// MemberGroupUID identifies the discounted pricing cohort.
	MemberGroupUID string `yaml:"member_group_uid"`

	// ValidDays is the duration added to "now" on grant to compute the expiry.
	ValidDays int `yaml:"valid_days"`

	// QualifyingOrderState is the order state that must be reached before a
	// membership is granted, so unpaid or cancelled orders never grant.
	QualifyingOrderState string `yaml:"qualifying_order_state"`
}

// Configured reports whether all required values are present. Operations that
// depend on the configuration no-op cleanly when it is incomplete: no grant, no
// sweep, no banner.
func (c MembershipConfig) Configured() bool {
	return c.MembershipProductUID != "" &&
		c.MemberGroupUID != "" &&
		c.ValidDays > 0 &&
		c.QualifyingOrderState != ""
}

// Validate rejects partially-filled configuration at startup. A fully empty
// configuration is legal (the service runs, membership operations no-op), but a
// half-configured one is almost certainly an operator mistake.
func (c MembershipConfig) Validate() error {
	empty := c.MembershipProductUID == "" &&
		c.MemberGroupUID == "" &&
		c.ValidDays == 0 &&
		c.QualifyingOrderState == ""
	if empty {
		return nil
	}
	if c.ValidDays < 0 {
		return errors.NewValidation("valid_days must not be negative")
	}
	if !c.Configured() {
		var missing []string
		if c.MembershipProductUID == "" {
			missing = append(missing, "membership_product_uid")
		}
		if c.MemberGroupUID == "" {
			missing = append(missing, "member_group_uid")
		}
		if c.ValidDays == 0 {
			missing = append(missing, "valid_days")
		}
		if c.QualifyingOrderState == "" {
			missing = append(missing, "qualifying_order_state")
		}
		return errors.NewValidation("membership configuration is incomplete, missing: " + strings.Join(missing, ", "))
	}
	return nil
}

// ExpiryFrom computes the expiry for a grant issued at the given instant.
func (c MembershipConfig) ExpiryFrom(now time.Time) time.Time {
	return now.AddDate(0, 0, c.ValidDays)
}
