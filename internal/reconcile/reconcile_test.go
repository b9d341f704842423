package reconcile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/fulfillment/internal/entity"
	"github.com/Additional-Code/fulfillment/internal/reconcile"
	"github.com/Additional-Code/fulfillment/pkg/errorbank"
)

func ordered(items ...entity.OrderItem) []entity.OrderItem { return items }

func TestValidate(t *testing.T) {
	order := ordered(
		entity.OrderItem{SKU: "A", Qty: 10},
		entity.OrderItem{SKU: "B", Qty: 3},
	)

	tests := []struct {
		name     string
		shipped  map[string]int
		incoming []entity.ShipmentItem
		wantCode string
	}{
		{
			name:     "first shipment within limits",
			shipped:  map[string]int{},
			incoming: []entity.ShipmentItem{{SKU: "A", Qty: 6}},
		},
		{
			name:     "exactly at the limit is allowed",
			shipped:  map[string]int{"A": 6},
			incoming: []entity.ShipmentItem{{SKU: "A", Qty: 4}},
		},
		{
			name:     "cumulative overshoot rejected",
			shipped:  map[string]int{"A": 6},
			incoming: []entity.ShipmentItem{{SKU: "A", Qty: 5}},
			wantCode: reconcile.CodeQtyExceedsLimit,
		},
		{
			name:     "zero quantity rejected",
			shipped:  map[string]int{},
			incoming: []entity.ShipmentItem{{SKU: "A", Qty: 0}},
			wantCode: reconcile.CodeInvalidQty,
		},
		{
			name:     "negative quantity rejected",
			shipped:  map[string]int{},
			incoming: []entity.ShipmentItem{{SKU: "B", Qty: -2}},
			wantCode: reconcile.CodeInvalidQty,
		},
		{
			name:     "unknown sku rejected",
			shipped:  map[string]int{},
			incoming: []entity.ShipmentItem{{SKU: "Z", Qty: 1}},
			wantCode: reconcile.CodeSkuNotFound,
		},
		{
			name:    "mixed batch fails on the bad item",
			shipped: map[string]int{"B": 2},
			incoming: []entity.ShipmentItem{
				{SKU: "A", Qty: 1},
				{SKU: "B", Qty: 2},
			},
			wantCode: reconcile.CodeQtyExceedsLimit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := reconcile.Validate(order, tt.shipped, tt.incoming)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errorbank.CodeOf(err))
		})
	}
}

func TestValidate_ScenarioSixFiveFour(t *testing.T) {
	// ORD-1 orders 10 of A. Ship 6, reject 5 (would be 11), accept 4 (lands on 10).
	order := ordered(entity.OrderItem{SKU: "A", Qty: 10})

	require.NoError(t, reconcile.Validate(order, map[string]int{}, []entity.ShipmentItem{{SKU: "A", Qty: 6}}))

	err := reconcile.Validate(order, map[string]int{"A": 6}, []entity.ShipmentItem{{SKU: "A", Qty: 5}})
	require.Error(t, err)
	assert.Equal(t, reconcile.CodeQtyExceedsLimit, errorbank.CodeOf(err))

	require.NoError(t, reconcile.Validate(order, map[string]int{"A": 6}, []entity.ShipmentItem{{SKU: "A", Qty: 4}}))
}

func TestValidate_DuplicateOrderLinesAccumulate(t *testing.T) {
	// The same sku appearing on two order lines contributes its summed quantity.
	order := ordered(
		entity.OrderItem{SKU: "A", Qty: 2},
		entity.OrderItem{SKU: "A", Qty: 3},
	)

	assert.NoError(t, reconcile.Validate(order, map[string]int{}, []entity.ShipmentItem{{SKU: "A", Qty: 5}}))

	err := reconcile.Validate(order, map[string]int{}, []entity.ShipmentItem{{SKU: "A", Qty: 6}})
	require.Error(t, err)
	assert.Equal(t, reconcile.CodeQtyExceedsLimit, errorbank.CodeOf(err))
}
