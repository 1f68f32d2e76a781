// Copyright The CommerceKit Authors.
// SPDX-License-Identifier: MIT

package constants

const (
	// KVBucketNameMembershipRecords is the name of the KV bucket for the membership ledger.
	// Records are keyed by customer UID, which gives the ledger its one-record-per-customer
	// semantics for free.
	KVBucketNameMembershipRecords = "membership-records"
)
