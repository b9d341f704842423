package dto

import (
	"time"

	"github.com/Additional-Code/fulfillment/internal/entity"
)

// ShipmentResponse represents a shipment row over HTTP.
type ShipmentResponse struct {
	ID             string                `json:"id"`
	OrderID        string                `json:"order_id"`
	TrackingNumber string                `json:"tracking_number,omitempty"`
	Carrier        string                `json:"carrier,omitempty"`
	ShippedAt      time.Time             `json:"shipped_at"`
	Items          []entity.ShipmentItem `json:"items"`
	CreatedAt      time.Time             `json:"created_at"`
}

// CreateShipmentRequest is the payload for an incremental reconciled
// shipment. ShippedAt defaults to now when omitted.
type CreateShipmentRequest struct {
	OrderNumber    string                `json:"order_number"`
	TrackingNumber string                `json:"tracking_number"`
	Carrier        string                `json:"carrier"`
	ShippedAt      time.Time             `json:"shipped_at"`
	Items          []entity.ShipmentItem `json:"items"`
}

// NewShipmentResponse maps a shipment entity onto its transport shape.
func NewShipmentResponse(sh *entity.Shipment) ShipmentResponse {
	return ShipmentResponse{
		ID:             sh.ID.String(),
		OrderID:        sh.OrderID.String(),
		TrackingNumber: sh.TrackingNumber,
		Carrier:        sh.Carrier,
		ShippedAt:      sh.ShippedAt,
		Items:          sh.Items,
		CreatedAt:      sh.CreatedAt,
	}
}
