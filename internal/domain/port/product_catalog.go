// Copyright The CommerceKit Authors.
// SPDX-License-Identifier: MIT

package port

import "context"

// ProductCatalog defines the interface for resolving catalog products.
type ProductCatalog interface {
	// GetProductPrice returns the current price of a product.
	// Returns NotFound when the product cannot be resolved.
	GetProductPrice(ctx context.Context, productUID string) (float64, error)
}
