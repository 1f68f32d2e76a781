// Copyright The CommerceKit Authors.
// SPDX-License-Identifier: MIT

// Package constants defines global constants used throughout the membership service.
package constants

// Service constants
const (
	// ServiceName is the name of this service
	ServiceName = "membership"

	// MembershipAPIQueue is the NATS queue group for membership service subscriptions
	MembershipAPIQueue = "commercekit-membership-api"
)

// HTTP header constants
const (
	// RequestIDHeader is the HTTP header name for request ID
	RequestIDHeader = "X-Request-Id"
)

// Environment variables
const (
	// EnvNATSURL is the environment variable for NATS server URL
	EnvNATSURL = "NATS_URL"
	// EnvConfigFile is the environment variable for the service configuration file path
	EnvConfigFile = "CONFIG_FILE"
	// EnvRepositorySource is the environment variable selecting the storage backend
	EnvRepositorySource = "REPOSITORY_SOURCE"
)
