// Copyright The CommerceKit Authors.
// SPDX-License-Identifier: MIT

package port

import "context"

// AuditPublisher defines the interface for publishing membership lifecycle
// audit messages. Grants are paid entitlements; every grant, extension, and
// revocation is published so the entitlement trail can be reconstructed.
type AuditPublisher interface {
	// Audit publishes an audit message on the given subject
	Audit(ctx context.Context, subject string, message any) error
}
