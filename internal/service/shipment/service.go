package shipment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/fulfillment/internal/cache"
	"github.com/Additional-Code/fulfillment/internal/config"
	"github.com/Additional-Code/fulfillment/internal/database"
	"github.com/Additional-Code/fulfillment/internal/dto"
	"github.com/Additional-Code/fulfillment/internal/entity"
	"github.com/Additional-Code/fulfillment/internal/messaging"
	"github.com/Additional-Code/fulfillment/internal/reconcile"
	orderrepo "github.com/Additional-Code/fulfillment/internal/repository/order"
	shipmentrepo "github.com/Additional-Code/fulfillment/internal/repository/shipment"
	"github.com/Additional-Code/fulfillment/internal/status"
	"github.com/Additional-Code/fulfillment/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/fulfillment/service/shipment")

// CodeOrderNotFound is the wire code for an unknown order number. The legacy
// client treats it as a caller mistake, so it maps to 400 rather than 404.
const CodeOrderNotFound = "ORDER_NOT_FOUND"

// ReplaceEntry is one BOL line of the replace workflow. Entries with an
// empty BolNumber are skipped, matching the legacy entry form which submits
// blank trailing rows.
type ReplaceEntry struct {
	BolNumber string
	Qty       int
}

// Service owns the shipment side of the ledger: the incremental reconciled
// create and the coarse replace workflow. Every mutation runs in one
// transaction on one connection, then invalidates the aggregate cache and
// publishes a ledger event.
type Service struct {
	conns     *database.Connections
	orders    *orderrepo.Repository
	shipments *shipmentrepo.Repository
	cache     *cache.Tiered
	logger    *zap.Logger
	publisher messaging.Client
	messaging messagingConfig
}

type messagingConfig struct {
	enabled bool
	topic   string
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Connections *database.Connections
	Orders      *orderrepo.Repository
	Shipments   *shipmentrepo.Repository
	Cache       *cache.Tiered
	Config      config.Config
	Logger      *zap.Logger
	Publisher   messaging.Client
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		conns:     p.Connections,
		orders:    p.Orders,
		shipments: p.Shipments,
		cache:     p.Cache,
		logger:    p.Logger,
		publisher: p.Publisher,
		messaging: messagingConfig{
			enabled: p.Config.Messaging.Enabled,
			topic:   p.Config.Messaging.Kafka.Topic,
		},
	}
}

// Create records one incremental shipment. The order lookup, the shipped
// totals read, the quantity check, and the insert all run on the same
// transaction connection; the order row is locked for the duration so two
// concurrent creates cannot both pass the check.
func (s *Service) Create(ctx context.Context, req dto.CreateShipmentRequest) (*entity.Shipment, error) {
	ctx, span := serviceTracer.Start(ctx, "ShipmentService.Create", trace.WithAttributes(attribute.String("order.number", req.OrderNumber)))
	defer span.End()

	if req.OrderNumber == "" {
		return nil, errorbank.BadRequest("order_number is required")
	}
	if len(req.Items) == 0 {
		return nil, errorbank.BadRequest("items must not be empty")
	}

	shippedAt := req.ShippedAt
	if shippedAt.IsZero() {
		shippedAt = time.Now().UTC()
	}

	var created *entity.Shipment
	err := s.conns.Writer.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		order, err := s.orders.FindByNumber(ctx, tx, req.OrderNumber, true)
		if errors.Is(err, orderrepo.ErrNotFound) {
			return errorbank.BadRequest("Order not found", errorbank.WithCode(CodeOrderNotFound))
		}
		if err != nil {
			return err
		}

		totals, err := s.shipments.ShippedTotals(ctx, tx, order.ID)
		if err != nil {
			return err
		}

		if err := reconcile.Validate(order.Items, totals, req.Items); err != nil {
			return err
		}

		sh := &entity.Shipment{
			OrderID:        order.ID,
			TrackingNumber: req.TrackingNumber,
			Carrier:        req.Carrier,
			ShippedAt:      shippedAt,
			Items:          req.Items,
		}
		if err := s.shipments.Insert(ctx, tx, sh); err != nil {
			return err
		}

		if next := status.AfterShipment(order.Status); next != order.Status {
			if err := s.orders.UpdateStatus(ctx, tx, order.ID, next); err != nil {
				return err
			}
		}

		created = sh
		return nil
	})
	if err != nil {
		var appErr *errorbank.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "transaction failed")
		return nil, errorbank.Internal("failed to record shipment", errorbank.WithCause(err))
	}

	s.invalidate(ctx, req.OrderNumber)
	s.publish(ctx, EventShipmentRecorded, req.OrderNumber)
	return created, nil
}

// Replace is the coarse save workflow of the legacy entry form: drop every
// shipment of the order, insert one row per BOL entry, and set the status
// from the fulfilled flag. It does not consult the reconciler; the caller
// asserts the full final state rather than an increment. Replaying the same
// payload lands on the same rows.
func (s *Service) Replace(ctx context.Context, orderNumber string, shippedAt time.Time, fulfilled bool, entries []ReplaceEntry) error {
	ctx, span := serviceTracer.Start(ctx, "ShipmentService.Replace", trace.WithAttributes(
		attribute.String("order.number", orderNumber),
		attribute.Bool("order.fulfilled", fulfilled),
	))
	defer span.End()

	if orderNumber == "" {
		return errorbank.BadRequest("order number is required")
	}
	if shippedAt.IsZero() {
		shippedAt = time.Now().UTC()
	}

	err := s.conns.Writer.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		order, err := s.orders.FindByNumber(ctx, tx, orderNumber, true)
		if errors.Is(err, orderrepo.ErrNotFound) {
			return errorbank.BadRequest("Order not found", errorbank.WithCode(CodeOrderNotFound))
		}
		if err != nil {
			return err
		}

		if err := s.shipments.DeleteByOrder(ctx, tx, order.ID); err != nil {
			return err
		}

		for _, entry := range entries {
			if entry.BolNumber == "" {
				continue
			}
			sh := &entity.Shipment{
				OrderID:        order.ID,
				TrackingNumber: entry.BolNumber,
				ShippedAt:      shippedAt,
				Items:          []entity.ShipmentItem{{Qty: entry.Qty}},
			}
			if err := s.shipments.Insert(ctx, tx, sh); err != nil {
				return err
			}
		}

		return s.orders.UpdateStatus(ctx, tx, order.ID, status.AfterReplace(fulfilled))
	})
	if err != nil {
		var appErr *errorbank.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "transaction failed")
		return errorbank.Internal("failed to replace shipments", errorbank.WithCause(err))
	}

	s.invalidate(ctx, orderNumber)
	s.publish(ctx, EventShipmentsReplaced, orderNumber)
	return nil
}

// ListByOrder returns an order's shipments, oldest first.
func (s *Service) ListByOrder(ctx context.Context, orderNumber string) (*entity.Order, []entity.Shipment, error) {
	ctx, span := serviceTracer.Start(ctx, "ShipmentService.ListByOrder", trace.WithAttributes(attribute.String("order.number", orderNumber)))
	defer span.End()

	order, err := s.orders.FindByNumber(ctx, nil, orderNumber, false)
	if errors.Is(err, orderrepo.ErrNotFound) {
		return nil, nil, errorbank.BadRequest("Order not found", errorbank.WithCode(CodeOrderNotFound))
	}
	if err != nil {
		return nil, nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}

	rows, err := s.shipments.ListByOrder(ctx, order.ID)
	if err != nil {
		span.RecordError(err)
		return nil, nil, errorbank.Internal("failed to load shipments", errorbank.WithCause(err))
	}
	return order, rows, nil
}

func (s *Service) invalidate(ctx context.Context, orderNumber string) {
	if s.cache == nil {
		return
	}
	s.cache.InvalidatePattern(ctx, cache.PatternBol)
	s.cache.Invalidate(ctx, cache.KeyOrderSummary(orderNumber))
}

func (s *Service) publish(ctx context.Context, eventType, orderNumber string) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	event := LedgerEvent{
		Type:        eventType,
		OrderNumber: orderNumber,
		OccurredAt:  time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("marshal ledger event", zap.Error(err))
		}
		return
	}
	if err := s.publisher.Publish(ctx, []byte(orderNumber), payload); err != nil {
		if s.logger != nil {
			s.logger.Error("publish ledger event", zap.String("type", eventType), zap.Error(err))
		}
	}
}

// Ledger event types carried on the bus.
const (
	EventShipmentRecorded  = "shipment.recorded"
	EventShipmentsReplaced = "shipments.replaced"
)

// LedgerEvent is emitted after any successful shipment mutation.
type LedgerEvent struct {
	Type        string    `json:"type"`
	OrderNumber string    `json:"order_number"`
	OccurredAt  time.Time `json:"occurred_at"`
}
