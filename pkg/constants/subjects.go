// Copyright The CommerceKit Authors.
// SPDX-License-Identifier: MIT

package constants

// NATS subjects consumed from the commerce platform
const (
	// OrderStateChangedSubject carries order lifecycle events; the grant path
	// subscribes to it through the service queue group.
	OrderStateChangedSubject = "commerce.orders.state_changed"
)

// NATS subjects for commerce collaborator request/reply
const (
	// PricingQuoteCartSubject computes a cart total in an explicit pricing-group
	// context without mutating any customer state.
	PricingQuoteCartSubject = "commerce.pricing.quote_cart"

	// GroupAddMemberSubject adds a customer to a pricing group.
	GroupAddMemberSubject = "commerce.customers.groups.add"
	// GroupRemoveMemberSubject removes a customer from a pricing group.
	GroupRemoveMemberSubject = "commerce.customers.groups.remove"
	// GroupContainsMemberSubject checks whether a customer belongs to a pricing group.
	GroupContainsMemberSubject = "commerce.customers.groups.contains"

	// CatalogGetProductSubject resolves a product and its current price.
	CatalogGetProductSubject = "commerce.catalog.get_product"
)

// NATS subjects served and published by this service
const (
	// EstimateSavingsSubject is the request/reply surface for the storefront
	// savings banner.
	EstimateSavingsSubject = "membership.estimate_savings"

	// AuditMembershipGrantedSubject is published when a membership is granted or extended.
	AuditMembershipGrantedSubject = "membership.audit.granted"
	// AuditMembershipRevokedSubject is published when an expired membership is revoked.
	AuditMembershipRevokedSubject = "membership.audit.revoked"
)
