// Copyright The CommerceKit Authors.
// SPDX-License-Identifier: MIT

package mock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/commercekit/membership-service/internal/domain/model"
	"github.com/commercekit/membership-service/internal/domain/port"
	"github.com/commercekit/membership-service/pkg/errors"
)

// MockGroupManager provides an in-memory implementation of GroupManager.
// Customers must be registered via AddCustomer; operations on unknown
// customers return NotFound, mirroring the customers collaborator.
type MockGroupManager struct {
	customers map[string]map[string]bool
	mu        sync.RWMutex

	// Failure injection for tests.
	AddError    error
	RemoveError error
}

// NewMockGroupManager creates a new mock group manager with no customers
func NewMockGroupManager() *MockGroupManager {
	return &MockGroupManager{
		customers: make(map[string]map[string]bool),
	}
}

// AddCustomer registers a customer, optionally already in some groups
func (m *MockGroupManager) AddCustomer(customerUID string, groupUIDs ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	groups := make(map[string]bool, len(groupUIDs))
	for _, groupUID := range groupUIDs {
		groups[groupUID] = true
	}
	m.customers[customerUID] = groups
}

// AddToGroup adds a customer to a group
func (m *MockGroupManager) AddToGroup(ctx context.Context, customerUID, groupUID string) error {
	slog.DebugContext(ctx, "mock group manager: adding customer to group",
		"customer_uid", customerUID,
		"group_uid", groupUID)

	if m.AddError != nil {
		return m.AddError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	groups, exists := m.customers[customerUID]
	if !exists {
		return errors.NewNotFound(fmt.Sprintf("customer %s not found", customerUID))
	}
	groups[groupUID] = true
	return nil
}

// RemoveFromGroup removes a customer from a group
func (m *MockGroupManager) RemoveFromGroup(ctx context.Context, customerUID, groupUID string) error {
	slog.DebugContext(ctx, "mock group manager: removing customer from group",
		"customer_uid", customerUID,
		"group_uid", groupUID)

	if m.RemoveError != nil {
		return m.RemoveError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	groups, exists := m.customers[customerUID]
	if !exists {
		return errors.NewNotFound(fmt.Sprintf("customer %s not found", customerUID))
	}
	delete(groups, groupUID)
	return nil
}

// IsInGroup checks whether a customer belongs to a group
func (m *MockGroupManager) IsInGroup(ctx context.Context, customerUID, groupUID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	groups, exists := m.customers[customerUID]
	if !exists {
		return false, errors.NewNotFound(fmt.Sprintf("customer %s not found", customerUID))
	}
	return groups[groupUID], nil
}

// MockCartPricer quotes carts from a fixed per-group total table keyed by
// "cartUID/groupUID". Unconfigured combinations fall back to DefaultTotal.
type MockCartPricer struct {
	totals       map[string]float64
	mu           sync.RWMutex
	DefaultTotal float64
	QuoteError   error
}

// NewMockCartPricer creates a new mock cart pricer
func NewMockCartPricer() *MockCartPricer {
	return &MockCartPricer{
		totals: make(map[string]float64),
	}
}

// SetTotal fixes the quoted total for a cart priced at a given group
func (m *MockCartPricer) SetTotal(cartUID, groupUID string, total float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totals[cartUID+"/"+groupUID] = total
}

// QuoteCart returns the configured total for the cart and group
func (m *MockCartPricer) QuoteCart(ctx context.Context, cart *model.CartSnapshot, groupUID string) (float64, error) {
	slog.DebugContext(ctx, "mock cart pricer: quoting cart",
		"cart_uid", cart.CartUID,
		"group_uid", groupUID)

	if m.QuoteError != nil {
		return 0, m.QuoteError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if total, ok := m.totals[cart.CartUID+"/"+groupUID]; ok {
		return total, nil
	}
	return m.DefaultTotal, nil
}

// MockProductCatalog resolves product prices from a fixed table. Unknown
// products return NotFound.
type MockProductCatalog struct {
	prices map[string]float64
	mu     sync.RWMutex
}

// NewMockProductCatalog creates a new mock product catalog
func NewMockProductCatalog() *MockProductCatalog {
	return &MockProductCatalog{
		prices: make(map[string]float64),
	}
}

// SetPrice fixes the price for a product
func (m *MockProductCatalog) SetPrice(productUID string, price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[productUID] = price
}

// GetProductPrice returns the configured price for a product
func (m *MockProductCatalog) GetProductPrice(ctx context.Context, productUID string) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	price, ok := m.prices[productUID]
	if !ok {
		return 0, errors.NewNotFound(fmt.Sprintf("product %s not found", productUID))
	}
	return price, nil
}

// MockAuditPublisher records published audit messages for inspection.
type MockAuditPublisher struct {
	published []PublishedMessage
	mu        sync.RWMutex
	Error     error
}

// PublishedMessage is one captured audit publication.
type PublishedMessage struct {
	Subject string
	Message any
}

// NewMockAuditPublisher creates a new mock audit publisher
func NewMockAuditPublisher() *MockAuditPublisher {
	return &MockAuditPublisher{}
}

// Audit captures the message instead of publishing it
func (m *MockAuditPublisher) Audit(ctx context.Context, subject string, message any) error {
	slog.DebugContext(ctx, "mock audit publisher: capturing message", "subject", subject)

	if m.Error != nil {
		return m.Error
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, PublishedMessage{Subject: subject, Message: message})
	return nil
}

// Published returns a copy of the captured messages
func (m *MockAuditPublisher) Published() []PublishedMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]PublishedMessage, len(m.published))
	copy(out, m.published)
	return out
}

// interface checks
var (
	_ port.GroupManager   = (*MockGroupManager)(nil)
	_ port.CartPricer     = (*MockCartPricer)(nil)
	_ port.ProductCatalog = (*MockProductCatalog)(nil)
	_ port.AuditPublisher = (*MockAuditPublisher)(nil)
)
