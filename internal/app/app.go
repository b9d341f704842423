package app

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/fulfillment/internal/cache"
	"github.com/Additional-Code/fulfillment/internal/config"
	"github.com/Additional-Code/fulfillment/internal/database"
	"github.com/Additional-Code/fulfillment/internal/logger"
	"github.com/Additional-Code/fulfillment/internal/messaging"
	"github.com/Additional-Code/fulfillment/internal/observability"
	repositorybol "github.com/Additional-Code/fulfillment/internal/repository/bolshipment"
	repositoryorder "github.com/Additional-Code/fulfillment/internal/repository/order"
	repositorypo "github.com/Additional-Code/fulfillment/internal/repository/purchaseorder"
	repositoryshipment "github.com/Additional-Code/fulfillment/internal/repository/shipment"
	grpcserver "github.com/Additional-Code/fulfillment/internal/server/grpc"
	httpserver "github.com/Additional-Code/fulfillment/internal/server/http"
	servicebol "github.com/Additional-Code/fulfillment/internal/service/bol"
	serviceorder "github.com/Additional-Code/fulfillment/internal/service/order"
	servicepo "github.com/Additional-Code/fulfillment/internal/service/purchaseorder"
	serviceshipment "github.com/Additional-Code/fulfillment/internal/service/shipment"
	transporthttp "github.com/Additional-Code/fulfillment/internal/transport/http"
	"github.com/Additional-Code/fulfillment/internal/worker"
	workerfulfillment "github.com/Additional-Code/fulfillment/internal/worker/fulfillment"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	observability.Module,
	repositoryorder.Module,
	repositoryshipment.Module,
	repositorypo.Module,
	repositorybol.Module,
	serviceorder.Module,
	serviceshipment.Module,
	servicepo.Module,
	servicebol.Module,
)

// HTTP wires the HTTP transport on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	grpcserver.Module,
	transporthttp.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerfulfillment.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
