package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BolShipment is one line item on a Bill of Lading. Multiple rows share a
// bol_number; every row references an existing purchase order.
type BolShipment struct {
	bun.BaseModel `bun:"table:bol_shipments"`

	ID         uuid.UUID `bun:"id,pk,type:uuid"`
	PoID       uuid.UUID `bun:"po_id,notnull,type:uuid"`
	BolNumber  string    `bun:"bol_number,notnull"`
	SKU        string    `bun:"sku,notnull"`
	ShippedQty int       `bun:"shipped_qty,notnull"`
	Memo       string    `bun:"memo,nullzero"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time `bun:"updated_at,nullzero"`
}
