package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ShipmentItem is one shipped line. Qty must be positive; the sum per sku
// across all shipments of an order never exceeds the ordered quantity.
type ShipmentItem struct {
	SKU string `json:"sku,omitempty"`
	Qty int    `json:"qty"`
}

// Shipment is one recorded shipment event against an order.
type Shipment struct {
	bun.BaseModel `bun:"table:shipments"`

	ID             uuid.UUID      `bun:"id,pk,type:uuid"`
	OrderID        uuid.UUID      `bun:"order_id,notnull,type:uuid"`
	TrackingNumber string         `bun:"tracking_number,nullzero"`
	Carrier        string         `bun:"carrier,nullzero"`
	ShippedAt      time.Time      `bun:"shipped_at,notnull"`
	Items          []ShipmentItem `bun:"items,type:jsonb"`
	CreatedAt      time.Time      `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}

// TotalQty sums the quantities on this shipment regardless of sku.
func (s *Shipment) TotalQty() int {
	total := 0
	for _, item := range s.Items {
		total += item.Qty
	}
	return total
}
