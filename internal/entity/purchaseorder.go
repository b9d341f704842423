package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// PurchaseOrder is the parallel ledger keyed on the PO business key. BOL
// shipment rows hang off it.
type PurchaseOrder struct {
	bun.BaseModel `bun:"table:purchase_orders"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	PoNumber  string    `bun:"po_number,notnull"`
	BuyerName string    `bun:"buyer_name,nullzero"`
	Status    string    `bun:"status,nullzero"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `bun:"updated_at,nullzero"`
}
