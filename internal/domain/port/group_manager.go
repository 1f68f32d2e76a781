// Copyright The CommerceKit Authors.
// SPDX-License-Identifier: MIT

package port

import "context"

// GroupManager defines the interface for the commerce platform's customer
// group (pricing cohort) collaborator. Only the grant and revoke paths mutate
// group membership; the savings estimator never does.
type GroupManager interface {
	// AddToGroup places the customer into the pricing group.
	AddToGroup(ctx context.Context, customerUID, groupUID string) error

	// RemoveFromGroup takes the customer out of the pricing group.
	RemoveFromGroup(ctx context.Context, customerUID, groupUID string) error

	// IsInGroup reports whether the customer currently belongs to the group.
	// Returns NotFound for an unknown customer.
	IsInGroup(ctx context.Context, customerUID, groupUID string) (bool, error)
}
