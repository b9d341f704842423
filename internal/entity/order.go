package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/Additional-Code/fulfillment/internal/status"
)

// OrderSource identifies where an order entered the system.
type OrderSource string

const (
	SourceDealer OrderSource = "DEALER"
	SourceQuote  OrderSource = "QUOTE"
)

// OrderItem is a single ordered line. The items list is fixed at order
// creation; shipments reference it but never mutate it.
type OrderItem struct {
	SKU         string `json:"sku"`
	Qty         int    `json:"qty"`
	Description string `json:"description,omitempty"`
}

// Order represents a customer order stored in the relational database.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID           uuid.UUID       `bun:"id,pk,type:uuid"`
	OrderNumber  string          `bun:"order_number,notnull,unique"`
	Source       OrderSource     `bun:"source,notnull,default:'DEALER'"`
	Status       status.Status   `bun:"status,notnull,default:'DRAFT'"`
	CustomerInfo json.RawMessage `bun:"customer_info,type:jsonb,nullzero"`
	ExternalID   string          `bun:"external_id,nullzero"`
	Items        []OrderItem     `bun:"items,type:jsonb"`
	CreatedAt    time.Time       `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time       `bun:"updated_at,nullzero"`
}

// OrderedQty returns the ordered quantity per sku.
func (o *Order) OrderedQty() map[string]int {
	totals := make(map[string]int, len(o.Items))
	for _, item := range o.Items {
		totals[item.SKU] += item.Qty
	}
	return totals
}
