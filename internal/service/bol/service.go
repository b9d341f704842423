// Package bol serves the legacy BOL entry form: the pending/fulfilled order
// lists, the saved state of one PO/SKU key, and the replace-style save. Reads
// go through the tiered cache; the write delegates to the shipment ledger.
package bol

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/fulfillment/internal/cache"
	"github.com/Additional-Code/fulfillment/internal/dto"
	"github.com/Additional-Code/fulfillment/internal/pokey"
	orderrepo "github.com/Additional-Code/fulfillment/internal/repository/order"
	shipmentrepo "github.com/Additional-Code/fulfillment/internal/repository/shipment"
	shipmentsvc "github.com/Additional-Code/fulfillment/internal/service/shipment"
	"github.com/Additional-Code/fulfillment/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/fulfillment/service/bol")

// CodeSaveFailed is the wire code the entry form expects on any save error.
const CodeSaveFailed = "SAVE_FAILED"

const shipDateLayout = "2006-01-02"

// Service backs the BOL entry endpoints.
type Service struct {
	orders    *orderrepo.Repository
	shipments *shipmentrepo.Repository
	ledger    *shipmentsvc.Service
	cache     *cache.Tiered
	logger    *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Orders    *orderrepo.Repository
	Shipments *shipmentrepo.Repository
	Ledger    *shipmentsvc.Service
	Cache     *cache.Tiered
	Logger    *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		orders:    p.Orders,
		shipments: p.Shipments,
		ledger:    p.Ledger,
		cache:     p.Cache,
		logger:    p.Logger,
	}
}

// InitialData builds the two dropdown lists of the entry form: orders still
// awaiting fulfillment sorted by display, and fulfilled orders newest first.
// The result is cached; shipment mutations invalidate it.
func (s *Service) InitialData(ctx context.Context) (*dto.BolInitialData, error) {
	ctx, span := serviceTracer.Start(ctx, "BolService.InitialData")
	defer span.End()

	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, cache.KeyBolInitial); err == nil {
			var cached dto.BolInitialData
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	orders, err := s.orders.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load orders", errorbank.WithCause(err))
	}

	data := &dto.BolInitialData{
		PendingList:   []dto.BolListItem{},
		FulfilledList: []dto.BolListItem{},
	}
	for _, order := range orders {
		item := dto.BolListItem{
			Key:     order.OrderNumber,
			Display: order.OrderNumber + " (" + string(order.Status) + ")",
		}
		if order.Status.IsFulfilled() {
			// List is newest first already; keep that order.
			data.FulfilledList = append(data.FulfilledList, item)
		} else {
			data.PendingList = append(data.PendingList, item)
		}
	}
	sort.Slice(data.PendingList, func(i, j int) bool {
		return data.PendingList[i].Display < data.PendingList[j].Display
	})

	if s.cache != nil {
		if raw, err := json.Marshal(data); err == nil {
			s.cache.Set(ctx, cache.KeyBolInitial, raw)
		}
	}
	return data, nil
}

// ExistingData returns the saved BOL entries of one PO/SKU key. An unknown
// order is not an error for the entry form; it renders an empty sheet.
func (s *Service) ExistingData(ctx context.Context, poSkuKey string) (*dto.BolExistingData, error) {
	ctx, span := serviceTracer.Start(ctx, "BolService.ExistingData", trace.WithAttributes(attribute.String("bol.key", poSkuKey)))
	defer span.End()

	key := pokey.Parse(poSkuKey)
	if key.PoNumber == "" {
		return nil, errorbank.BadRequest("poSkuKey is required")
	}

	cacheKey := cache.KeyBolExisting(key.String())
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, cacheKey); err == nil {
			var cached dto.BolExistingData
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	data := &dto.BolExistingData{Bols: []dto.BolEntry{}}

	order, err := s.orders.FindByNumber(ctx, nil, key.PoNumber, false)
	if errors.Is(err, orderrepo.ErrNotFound) {
		return data, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}

	rows, err := s.shipments.ListByOrder(ctx, order.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load shipments", errorbank.WithCause(err))
	}

	for i, row := range rows {
		if i == 0 {
			date := row.ShippedAt.Format(shipDateLayout)
			data.ActShipDate = &date
		}
		data.Bols = append(data.Bols, dto.BolEntry{
			BolNumber:  row.TrackingNumber,
			ShippedQty: row.TotalQty(),
		})
	}
	data.IsFulfilled = order.Status.IsFulfilled()

	if s.cache != nil {
		if raw, err := json.Marshal(data); err == nil {
			s.cache.Set(ctx, cacheKey, raw)
		}
	}
	return data, nil
}

// Save runs the replace workflow for one submitted entry form. Any failure
// surfaces as SAVE_FAILED, which the form shows verbatim.
func (s *Service) Save(ctx context.Context, req dto.BolSaveRequest) error {
	ctx, span := serviceTracer.Start(ctx, "BolService.Save", trace.WithAttributes(attribute.String("bol.key", req.PoSkuKey)))
	defer span.End()

	key := pokey.Parse(req.PoSkuKey)
	if key.PoNumber == "" {
		return errorbank.BadRequest("poSkuKey is required", errorbank.WithCode(CodeSaveFailed))
	}

	var shippedAt time.Time
	if req.ActShipDate != "" {
		parsed, err := time.Parse(shipDateLayout, req.ActShipDate)
		if err != nil {
			return errorbank.BadRequest("actShipDate must be YYYY-MM-DD", errorbank.WithCode(CodeSaveFailed))
		}
		shippedAt = parsed
	}

	entries := make([]shipmentsvc.ReplaceEntry, 0, len(req.Bols))
	for _, bol := range req.Bols {
		entries = append(entries, shipmentsvc.ReplaceEntry{
			BolNumber: bol.BolNumber,
			Qty:       bol.ShippedQty,
		})
	}

	if err := s.ledger.Replace(ctx, key.PoNumber, shippedAt, req.IsFulfilled, entries); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "replace failed")
		return errorbank.BadRequest(errorbank.From(err).Message(), errorbank.WithCode(CodeSaveFailed), errorbank.WithCause(err))
	}
	return nil
}
