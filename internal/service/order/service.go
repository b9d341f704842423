package order

import (
	"context"
	"encoding/json"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/fulfillment/internal/cache"
	"github.com/Additional-Code/fulfillment/internal/dto"
	"github.com/Additional-Code/fulfillment/internal/entity"
	orderrepo "github.com/Additional-Code/fulfillment/internal/repository/order"
	shipmentrepo "github.com/Additional-Code/fulfillment/internal/repository/shipment"
	shipmentsvc "github.com/Additional-Code/fulfillment/internal/service/shipment"
	"github.com/Additional-Code/fulfillment/internal/status"
	"github.com/Additional-Code/fulfillment/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/fulfillment/service/order")

// Service encapsulates business logic around orders.
type Service struct {
	orders    *orderrepo.Repository
	shipments *shipmentrepo.Repository
	cache     *cache.Tiered
	logger    *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Orders    *orderrepo.Repository
	Shipments *shipmentrepo.Repository
	Cache     *cache.Tiered
	Logger    *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		orders:    p.Orders,
		shipments: p.Shipments,
		cache:     p.Cache,
		logger:    p.Logger,
	}
}

// Create registers a new order. Status defaults to DRAFT, source to DEALER.
func (s *Service) Create(ctx context.Context, req dto.CreateOrderRequest) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Create", trace.WithAttributes(attribute.String("order.number", req.OrderNumber)))
	defer span.End()

	if req.OrderNumber == "" {
		return nil, errorbank.BadRequest("order_number is required")
	}
	if len(req.Items) == 0 {
		return nil, errorbank.BadRequest("items must not be empty")
	}
	for _, item := range req.Items {
		if item.SKU == "" || item.Qty <= 0 {
			return nil, errorbank.BadRequest("each item needs a sku and qty > 0")
		}
	}

	st := status.Status(req.Status)
	if req.Status == "" {
		st = status.Draft
	}
	if !st.Valid() {
		return nil, errorbank.BadRequest("unknown status: " + req.Status)
	}

	source := entity.OrderSource(req.Source)
	if req.Source == "" {
		source = entity.SourceDealer
	}

	order := &entity.Order{
		OrderNumber:  req.OrderNumber,
		Source:       source,
		Status:       st,
		CustomerInfo: req.CustomerInfo,
		ExternalID:   req.ExternalID,
		Items:        req.Items,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to create order", errorbank.WithCause(err))
	}

	if s.cache != nil {
		s.cache.InvalidatePattern(ctx, cache.PatternBol)
	}
	return order, nil
}

// Summary returns the order plus its per-sku ordered and shipped totals,
// consulting the tiered cache first. Shipment mutations invalidate the key.
func (s *Service) Summary(ctx context.Context, orderNumber string) (*dto.OrderSummaryResponse, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Summary", trace.WithAttributes(attribute.String("order.number", orderNumber)))
	defer span.End()

	key := cache.KeyOrderSummary(orderNumber)
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key); err == nil {
			var cached dto.OrderSummaryResponse
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
			if s.logger != nil {
				s.logger.Warn("order summary cache entry malformed", zap.String("key", key))
			}
		}
	}

	order, err := s.orders.FindByNumber(ctx, nil, orderNumber, false)
	if errors.Is(err, orderrepo.ErrNotFound) {
		return nil, errorbank.BadRequest("Order not found", errorbank.WithCode(shipmentsvc.CodeOrderNotFound))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}

	totals, err := s.shipments.ShippedTotals(ctx, nil, order.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load shipped totals", errorbank.WithCause(err))
	}

	summary := &dto.OrderSummaryResponse{
		Order: dto.NewOrderResponse(order),
		Items: summarize(order.Items, totals),
	}

	if s.cache != nil {
		if raw, err := json.Marshal(summary); err == nil {
			s.cache.Set(ctx, key, raw)
		}
	}
	return summary, nil
}

// summarize pairs ordered quantities with shipped totals, keeping the order
// of first appearance and folding duplicate sku lines together.
func summarize(items []entity.OrderItem, shipped map[string]int) []dto.OrderItemSummary {
	index := make(map[string]int, len(items))
	out := make([]dto.OrderItemSummary, 0, len(items))
	for _, item := range items {
		if i, ok := index[item.SKU]; ok {
			out[i].OrderedQty += item.Qty
			continue
		}
		index[item.SKU] = len(out)
		out = append(out, dto.OrderItemSummary{
			SKU:        item.SKU,
			OrderedQty: item.Qty,
			ShippedQty: shipped[item.SKU],
		})
	}
	return out
}
