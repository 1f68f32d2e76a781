// Copyright The CommerceKit Authors.
// SPDX-License-Identifier: MIT

package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/commercekit/membership-service/internal/domain/model"
	"github.com/commercekit/membership-service/internal/domain/port"
	"github.com/commercekit/membership-service/pkg/constants"
	"github.com/commercekit/membership-service/pkg/errors"
)

// messageRequest talks to the commerce platform collaborators over NATS
// request/reply. Replies follow the platform convention: a JSON error
// envelope for failures, empty data for not found.
type messageRequest struct {
	client *NATSClient
}

// request sends a JSON payload and returns the raw reply data after the
// error envelope check. Empty reply data is surfaced as NotFound.
func (m *messageRequest) request(ctx context.Context, subject string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.NewUnexpected("failed to marshal request payload", err)
	}

	msg, err := m.client.conn.RequestWithContext(ctx, subject, data)
	if err != nil {
		slog.ErrorContext(ctx, "collaborator request failed",
			"error", err,
			"subject", subject)
		return nil, errors.NewServiceUnavailable(fmt.Sprintf("collaborator unavailable on %s", subject), err)
	}

	// Try to parse as JSON error response first
	var errorResponse struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(msg.Data, &errorResponse); err == nil && errorResponse.Error != "" {
		slog.WarnContext(ctx, "collaborator responded with an error",
			"subject", subject,
			"error", errorResponse.Error)
		return nil, errors.NewUnexpected(errorResponse.Error)
	}

	if len(msg.Data) == 0 {
		return nil, errors.NewNotFound(fmt.Sprintf("no result on %s", subject))
	}

	return msg.Data, nil
}

// groupRequest is the payload for the customer group operations.
type groupRequest struct {
	CustomerUID string `json:"customer_uid"`
	GroupUID    string `json:"group_uid"`
}

// AddToGroup adds a customer to a pricing group via the customers collaborator
func (m *messageRequest) AddToGroup(ctx context.Context, customerUID, groupUID string) error {
	_, err := m.request(ctx, constants.GroupAddMemberSubject, groupRequest{
		CustomerUID: customerUID,
		GroupUID:    groupUID,
	})
	return err
}

// RemoveFromGroup removes a customer from a pricing group via the customers collaborator
func (m *messageRequest) RemoveFromGroup(ctx context.Context, customerUID, groupUID string) error {
	_, err := m.request(ctx, constants.GroupRemoveMemberSubject, groupRequest{
		CustomerUID: customerUID,
		GroupUID:    groupUID,
	})
	return err
}

// IsInGroup checks group membership via the customers collaborator
func (m *messageRequest) IsInGroup(ctx context.Context, customerUID, groupUID string) (bool, error) {
	data, err := m.request(ctx, constants.GroupContainsMemberSubject, groupRequest{
		CustomerUID: customerUID,
		GroupUID:    groupUID,
	})
	if err != nil {
		return false, err
	}

	var response struct {
		Member bool `json:"member"`
	}
	if err := json.Unmarshal(data, &response); err != nil {
		return false, fmt.Errorf("failed to unmarshal group containment response: %w", err)
	}
	return response.Member, nil
}

// quoteRequest is the payload for a cart pricing quote.
type quoteRequest struct {
	Cart     *model.CartSnapshot `json:"cart"`
	GroupUID string              `json:"group_uid"`
}

// QuoteCart asks the pricing collaborator what the cart would total for a
// customer in the given group. The quote never mutates the cart.
func (m *messageRequest) QuoteCart(ctx context.Context, cart *model.CartSnapshot, groupUID string) (float64, error) {
	slog.DebugContext(ctx, "requesting cart quote via NATS",
		"cart_uid", cart.CartUID,
		"group_uid", groupUID,
		"subject", constants.PricingQuoteCartSubject)

	data, err := m.request(ctx, constants.PricingQuoteCartSubject, quoteRequest{
		Cart:     cart,
		GroupUID: groupUID,
	})
	if err != nil {
		return 0, err
	}

	var response struct {
		Total float64 `json:"total"`
	}
	if err := json.Unmarshal(data, &response); err != nil {
		return 0, fmt.Errorf("failed to unmarshal cart quote response: %w", err)
	}
	return response.Total, nil
}

// GetProductPrice resolves the current price of a product via the catalog
// collaborator. An empty reply means the product cannot be resolved.
func (m *messageRequest) GetProductPrice(ctx context.Context, productUID string) (float64, error) {
	data, err := m.request(ctx, constants.CatalogGetProductSubject, struct {
		ProductUID string `json:"product_uid"`
	}{ProductUID: productUID})
	if err != nil {
		return 0, err
	}

	var response struct {
		Price float64 `json:"price"`
	}
	if err := json.Unmarshal(data, &response); err != nil {
		return 0, fmt.Errorf("failed to unmarshal product price response: %w", err)
	}
	return response.Price, nil
}

// NewGroupManager creates a group manager backed by NATS request/reply
func NewGroupManager(client *NATSClient) port.GroupManager {
	return &messageRequest{client: client}
}

// NewCartPricer creates a cart pricer backed by NATS request/reply
func NewCartPricer(client *NATSClient) port.CartPricer {
	return &messageRequest{client: client}
}

// NewProductCatalog creates a product catalog reader backed by NATS request/reply
func NewProductCatalog(client *NATSClient) port.ProductCatalog {
	return &messageRequest{client: client}
}
