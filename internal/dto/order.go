package dto

import (
	"encoding/json"
	"time"

	"github.com/Additional-Code/fulfillment/internal/entity"
)

// OrderResponse represents an order as exposed via transport layers.
type OrderResponse struct {
	ID           string             `json:"id"`
	OrderNumber  string             `json:"order_number"`
	Source       string             `json:"source"`
	Status       string             `json:"status"`
	CustomerInfo json.RawMessage    `json:"customer_info,omitempty"`
	ExternalID   string             `json:"external_id,omitempty"`
	Items        []entity.OrderItem `json:"items"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// OrderItemSummary pairs the ordered quantity of one sku with the quantity
// shipped so far.
type OrderItemSummary struct {
	SKU        string `json:"sku"`
	OrderedQty int    `json:"ordered_qty"`
	ShippedQty int    `json:"shipped_qty"`
}

// OrderSummaryResponse is the order detail view with its per-sku totals.
type OrderSummaryResponse struct {
	Order OrderResponse      `json:"order"`
	Items []OrderItemSummary `json:"items"`
}

// CreateOrderRequest is the payload for registering an order. Status
// defaults to DRAFT when omitted.
type CreateOrderRequest struct {
	OrderNumber  string             `json:"order_number"`
	Source       string             `json:"source"`
	Status       string             `json:"status"`
	CustomerInfo json.RawMessage    `json:"customer_info"`
	ExternalID   string             `json:"external_id"`
	Items        []entity.OrderItem `json:"items"`
}

// NewOrderResponse maps an order entity onto its transport shape.
func NewOrderResponse(order *entity.Order) OrderResponse {
	return OrderResponse{
		ID:           order.ID.String(),
		OrderNumber:  order.OrderNumber,
		Source:       string(order.Source),
		Status:       string(order.Status),
		CustomerInfo: order.CustomerInfo,
		ExternalID:   order.ExternalID,
		Items:        order.Items,
		CreatedAt:    order.CreatedAt,
		UpdatedAt:    order.UpdatedAt,
	}
}
