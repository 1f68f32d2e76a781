// Copyright The CommerceKit Authors.
// SPDX-License-Identifier: MIT

package model

// OrderLine is a single line item of a commerce order.
type OrderLine struct {
	ProductUID string `json:"product_uid"`
	Quantity   int    `json:"quantity"`
}

// OrderEvent is the payload of a commerce order state-change event. The grant
// path consumes these from the order lifecycle subject.
type OrderEvent struct {
	OrderUID    string      `json:"order_uid"`
	CustomerUID string      `json:"customer_uid"`
	State       string      `json:"state"`
	Lines       []OrderLine `json:"lines"`
}

// ContainsProduct reports whether any line carries the given product. Scanning
// stops at the first match, so an order listing the membership product on
// several lines still triggers exactly one grant.
func (e *OrderEvent) ContainsProduct(productUID string) bool {
	if e == nil || productUID == "" {
		return false
	}
	for _, line := range e.Lines {
		if line.ProductUID == productUID {
			return true
		}
	}
	return false
}

// CartSnapshot is the storefront's view of a cart handed to the savings
// estimator. It is a value passed into the operation, never ambient state.
type CartSnapshot struct {
	CartUID     string      `json:"cart_uid"`
	CustomerUID string      `json:"customer_uid"`
	GroupUID    string      `json:"group_uid"`
	Lines       []OrderLine `json:"lines"`
}
