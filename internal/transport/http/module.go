package http

import (
	"go.uber.org/fx"

	boltransport "github.com/Additional-Code/fulfillment/internal/transport/http/bol"
	ordertransport "github.com/Additional-Code/fulfillment/internal/transport/http/order"
	potransport "github.com/Additional-Code/fulfillment/internal/transport/http/purchaseorder"
	shipmenttransport "github.com/Additional-Code/fulfillment/internal/transport/http/shipment"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	ordertransport.Module,
	shipmenttransport.Module,
	potransport.Module,
	boltransport.Module,
)
