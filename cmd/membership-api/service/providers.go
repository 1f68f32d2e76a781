// Copyright The CommerceKit Authors.
// SPDX-License-Identifier: MIT

// Package service wires the membership API dependencies.
package service

import (
	"context"
	"log"
	"log/slog"
	"os"
	"sync"

	"github.com/commercekit/membership-service/internal/config"
	"github.com/commercekit/membership-service/internal/domain/port"
	infrastructure "github.com/commercekit/membership-service/internal/infrastructure/mock"
	"github.com/commercekit/membership-service/internal/infrastructure/nats"
	"github.com/commercekit/membership-service/pkg/constants"
)

var (
	membershipStorage port.MembershipReaderWriter
	groupManager      port.GroupManager
	cartPricer        port.CartPricer
	productCatalog    port.ProductCatalog
	auditPublisher    port.AuditPublisher
	natsClient        *nats.NATSClient

	initDoOnce sync.Once
)

// Setup initializes the dependency graph once. The storage backend is
// selected by REPOSITORY_SOURCE: "nats" (default) or "mock" for local
// development without a broker.
func Setup(ctx context.Context, cfg config.Config) {
	initDoOnce.Do(func() {
		repositorySource := os.Getenv(constants.EnvRepositorySource)
		if repositorySource == "" {
			repositorySource = "nats"
		}

		switch repositorySource {
		case "mock":
			slog.InfoContext(ctx, "initializing mock repositories")
			membershipStorage = infrastructure.NewMockRepository()
			groupManager = infrastructure.NewMockGroupManager()
			cartPricer = infrastructure.NewMockCartPricer()
			productCatalog = infrastructure.NewMockProductCatalog()
			auditPublisher = infrastructure.NewMockAuditPublisher()
		case "nats":
			slog.InfoContext(ctx, "initializing NATS repositories", "url", cfg.NATS.URL)
			client, err := nats.NewClient(ctx, nats.Config{
				URL:           cfg.NATS.URL,
				Timeout:       cfg.NATS.Timeout.Std(),
				MaxReconnect:  cfg.NATS.MaxReconnect,
				ReconnectWait: cfg.NATS.ReconnectWait.Std(),
			})
			if err != nil {
				log.Fatalf("failed to create NATS client: %v", err)
			}
			natsClient = client
			membershipStorage = nats.NewStorage(client)
			groupManager = nats.NewGroupManager(client)
			cartPricer = nats.NewCartPricer(client)
			productCatalog = nats.NewProductCatalog(client)
			auditPublisher = nats.NewAuditPublisher(client)
		default:
			log.Fatalf("unsupported repository source: %s", repositorySource)
		}
	})
}

// MembershipStorage returns the membership ledger implementation
func MembershipStorage() port.MembershipReaderWriter {
	return membershipStorage
}

// GroupManager returns the customer group manager implementation
func GroupManager() port.GroupManager {
	return groupManager
}

// CartPricer returns the cart pricer implementation
func CartPricer() port.CartPricer {
	return cartPricer
}

// ProductCatalog returns the product catalog implementation
func ProductCatalog() port.ProductCatalog {
	return productCatalog
}

// AuditPublisher returns the audit publisher implementation
func AuditPublisher() port.AuditPublisher {
	return auditPublisher
}

// GetNATSClient returns the NATS client, nil when running on mocks
func GetNATSClient() *nats.NATSClient {
	return natsClient
}
