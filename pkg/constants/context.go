// Copyright The CommerceKit Authors.
// SPDX-License-Identifier: MIT

// Package constants defines shared context key types used throughout the membership service.
package constants

// ContextKey is the unified type for all context keys to prevent type mismatches
type ContextKey string

// Context keys for various middleware and service contexts
const (
	// RequestIDContextKey is the context key for request ID
	RequestIDContextKey ContextKey = "request-id"
)
