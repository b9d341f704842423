package dto

import (
	"time"

	"github.com/Additional-Code/fulfillment/internal/entity"
	"github.com/Additional-Code/fulfillment/internal/repository/bolshipment"
)

// PurchaseOrderResponse represents a purchase order row over HTTP.
type PurchaseOrderResponse struct {
	ID        string    `json:"id"`
	PoNumber  string    `json:"po_number"`
	BuyerName string    `json:"buyer_name,omitempty"`
	Status    string    `json:"status,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// NewPurchaseOrderResponse maps a purchase order entity onto its transport shape.
func NewPurchaseOrderResponse(po *entity.PurchaseOrder) PurchaseOrderResponse {
	return PurchaseOrderResponse{
		ID:        po.ID.String(),
		PoNumber:  po.PoNumber,
		BuyerName: po.BuyerName,
		Status:    po.Status,
		CreatedAt: po.CreatedAt,
		UpdatedAt: po.UpdatedAt,
	}
}

// CreatePurchaseOrderRequest is the payload for registering a purchase order.
type CreatePurchaseOrderRequest struct {
	PoNumber  string `json:"po_number"`
	BuyerName string `json:"buyer_name"`
	Status    string `json:"status"`
}

// BolShipmentResponse represents one BOL line over HTTP.
type BolShipmentResponse struct {
	ID         string    `json:"id"`
	PoID       string    `json:"po_id"`
	BolNumber  string    `json:"bol_number"`
	SKU        string    `json:"sku"`
	ShippedQty int       `json:"shipped_qty"`
	Memo       string    `json:"memo,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}

// NewBolShipmentResponse maps a BOL line entity onto its transport shape.
func NewBolShipmentResponse(row *entity.BolShipment) BolShipmentResponse {
	return BolShipmentResponse{
		ID:         row.ID.String(),
		PoID:       row.PoID.String(),
		BolNumber:  row.BolNumber,
		SKU:        row.SKU,
		ShippedQty: row.ShippedQty,
		Memo:       row.Memo,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
}

// PurchaseOrderWithBolsResponse is a purchase order with its BOL lines attached.
type PurchaseOrderWithBolsResponse struct {
	PurchaseOrderResponse
	Bols []BolShipmentResponse `json:"bols"`
}

// CreateBolsRequest is the payload for the transactional BOL batch write.
// BolNumber is the default shipment document for the batch; items may name
// their own to split one call across documents.
type CreateBolsRequest struct {
	PoID      string           `json:"po_id"`
	BolNumber string           `json:"bol_number"`
	Items     []CreateBolInput `json:"items"`
}

// CreateBolInput is one line of a BOL batch.
type CreateBolInput struct {
	BolNumber string `json:"bol_number,omitempty"`
	SKU       string `json:"sku"`
	Qty       int    `json:"qty"`
	Memo      string `json:"memo,omitempty"`
}

// CreateBolsResult reports a completed batch write.
type CreateBolsResult struct {
	InsertedCount int                   `json:"inserted_count"`
	IDs           []string              `json:"ids"`
	Records       []BolShipmentResponse `json:"records"`
}

// UpdateBolRequest carries optional field-level changes for one BOL line.
// Absent fields are left untouched.
type UpdateBolRequest struct {
	SKU        *string `json:"sku"`
	ShippedQty *int    `json:"shipped_qty"`
	Memo       *string `json:"memo"`
}

// BolStatResponse is one row of the per-PO shipment statistics report.
type BolStatResponse struct {
	PoID            string `json:"po_id"`
	PoNumber        string `json:"po_number"`
	TotalShipments  int    `json:"total_shipments"`
	TotalShippedQty int    `json:"total_shipped_qty"`
	UniqueBolCount  int    `json:"unique_bol_count"`
}

// NewBolStatResponse maps a statistics row onto its transport shape.
func NewBolStatResponse(s bolshipment.Stat) BolStatResponse {
	return BolStatResponse{
		PoID:            s.PoID.String(),
		PoNumber:        s.PoNumber,
		TotalShipments:  s.TotalShipments,
		TotalShippedQty: s.TotalShippedQty,
		UniqueBolCount:  s.UniqueBolCount,
	}
}
