// Package reconcile validates incoming shipment quantities against ordered
// quantities. Pure functions, no I/O; every write path consults this package
// instead of re-deriving the rules.
package reconcile

import (
	"fmt"

	"github.com/Additional-Code/fulfillment/internal/entity"
	"github.com/Additional-Code/fulfillment/pkg/errorbank"
)

// Wire codes raised by Validate.
const (
	CodeInvalidQty      = "INVALID_QTY"
	CodeSkuNotFound     = "SKU_NOT_FOUND"
	CodeQtyExceedsLimit = "QTY_EXCEEDS_LIMIT"
)

// Validate checks a batch of incoming shipment items against the ordered
// items and the quantities already shipped. It fails on the first violation:
// a non-positive quantity, a sku not present on the order, or a cumulative
// quantity that would exceed the ordered quantity.
func Validate(ordered []entity.OrderItem, shippedTotals map[string]int, incoming []entity.ShipmentItem) error {
	orderedQty := make(map[string]int, len(ordered))
	for _, item := range ordered {
		orderedQty[item.SKU] += item.Qty
	}

	for _, item := range incoming {
		if item.Qty <= 0 {
			return errorbank.BadRequest(
				"Quantity must be greater than 0",
				errorbank.WithCode(CodeInvalidQty),
				errorbank.WithDetail("sku", item.SKU),
			)
		}

		limit, ok := orderedQty[item.SKU]
		if !ok {
			return errorbank.BadRequest(
				fmt.Sprintf("SKU %s not found in order", item.SKU),
				errorbank.WithCode(CodeSkuNotFound),
				errorbank.WithDetail("sku", item.SKU),
			)
		}

		if shippedTotals[item.SKU]+item.Qty > limit {
			return errorbank.BadRequest(
				fmt.Sprintf("Shipped qty for %s exceeds ordered quantity", item.SKU),
				errorbank.WithCode(CodeQtyExceedsLimit),
				errorbank.WithDetail("sku", item.SKU),
				errorbank.WithDetail("ordered", limit),
				errorbank.WithDetail("shipped", shippedTotals[item.SKU]),
			)
		}
	}

	return nil
}
