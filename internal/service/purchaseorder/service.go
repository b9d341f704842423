package purchaseorder

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/fulfillment/internal/cache"
	"github.com/Additional-Code/fulfillment/internal/database"
	"github.com/Additional-Code/fulfillment/internal/dto"
	"github.com/Additional-Code/fulfillment/internal/entity"
	bolrepo "github.com/Additional-Code/fulfillment/internal/repository/bolshipment"
	porepo "github.com/Additional-Code/fulfillment/internal/repository/purchaseorder"
	"github.com/Additional-Code/fulfillment/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/fulfillment/service/purchaseorder")

// Wire codes raised by the batch writer.
const (
	CodePoNotFound  = "PO_NOT_FOUND"
	CodeInvalidItem = "INVALID_ITEM"
)

// Service owns the purchase-order side of the ledger: the transactional BOL
// batch write and the secondary CRUD around BOL lines.
type Service struct {
	conns  *database.Connections
	pos    *porepo.Repository
	bols   *bolrepo.Repository
	cache  *cache.Tiered
	logger *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Connections    *database.Connections
	PurchaseOrders *porepo.Repository
	BolShipments   *bolrepo.Repository
	Cache          *cache.Tiered
	Logger         *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		conns:  p.Connections,
		pos:    p.PurchaseOrders,
		bols:   p.BolShipments,
		cache:  p.Cache,
		logger: p.Logger,
	}
}

// Create registers a new purchase order.
func (s *Service) Create(ctx context.Context, req dto.CreatePurchaseOrderRequest) (*entity.PurchaseOrder, error) {
	ctx, span := serviceTracer.Start(ctx, "PurchaseOrderService.Create", trace.WithAttributes(attribute.String("po.number", req.PoNumber)))
	defer span.End()

	if req.PoNumber == "" {
		return nil, errorbank.BadRequest("po_number is required")
	}

	po := &entity.PurchaseOrder{
		PoNumber:  req.PoNumber,
		BuyerName: req.BuyerName,
		Status:    req.Status,
	}
	if err := s.pos.Create(ctx, po); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to create purchase order", errorbank.WithCause(err))
	}
	return po, nil
}

// Search runs the fuzzy interactive lookup over po_number and buyer_name.
func (s *Service) Search(ctx context.Context, term string, limit, offset int) ([]entity.PurchaseOrder, error) {
	ctx, span := serviceTracer.Start(ctx, "PurchaseOrderService.Search", trace.WithAttributes(attribute.String("po.search", term)))
	defer span.End()

	pos, err := s.pos.Search(ctx, term, limit, offset)
	if err != nil {
		span.RecordError(err)
		return nil, errorbank.Internal("failed to search purchase orders", errorbank.WithCause(err))
	}
	return pos, nil
}

// GetWithBols loads a purchase order and its BOL lines, newest first.
func (s *Service) GetWithBols(ctx context.Context, id uuid.UUID) (*entity.PurchaseOrder, []entity.BolShipment, error) {
	ctx, span := serviceTracer.Start(ctx, "PurchaseOrderService.GetWithBols", trace.WithAttributes(attribute.String("po.id", id.String())))
	defer span.End()

	po, err := s.pos.GetByID(ctx, nil, id)
	if errors.Is(err, porepo.ErrNotFound) {
		return nil, nil, errorbank.NotFound("Purchase order not found", errorbank.WithCode(CodePoNotFound))
	}
	if err != nil {
		span.RecordError(err)
		return nil, nil, errorbank.Internal("failed to load purchase order", errorbank.WithCause(err))
	}

	rows, err := s.bols.ListByPo(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, nil, errorbank.Internal("failed to load bol shipments", errorbank.WithCause(err))
	}
	return po, rows, nil
}

// CreateBols writes a BOL batch. The purchase-order existence check, the
// single multi-row insert, and the updated_at touch all run on the same
// transaction connection; any failure rolls back the lot.
func (s *Service) CreateBols(ctx context.Context, req dto.CreateBolsRequest) (*dto.CreateBolsResult, error) {
	ctx, span := serviceTracer.Start(ctx, "PurchaseOrderService.CreateBols", trace.WithAttributes(
		attribute.String("po.id", req.PoID),
		attribute.Int("bols.count", len(req.Items)),
	))
	defer span.End()

	poID, err := uuid.Parse(req.PoID)
	if err != nil {
		return nil, errorbank.BadRequest("po_id must be a uuid")
	}

	rows, err := buildRows(poID, req.BolNumber, req.Items)
	if err != nil {
		return nil, err
	}

	err = s.conns.Writer.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := s.pos.GetByID(ctx, tx, poID); err != nil {
			if errors.Is(err, porepo.ErrNotFound) {
				return errorbank.NotFound("Purchase order not found", errorbank.WithCode(CodePoNotFound))
			}
			return err
		}
		if err := s.bols.InsertBatch(ctx, tx, rows); err != nil {
			return err
		}
		return s.pos.Touch(ctx, tx, poID)
	})
	if err != nil {
		var appErr *errorbank.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "transaction failed")
		return nil, errorbank.Internal("failed to create bol shipments", errorbank.WithCause(err))
	}

	result := &dto.CreateBolsResult{
		InsertedCount: len(rows),
		IDs:           make([]string, 0, len(rows)),
		Records:       make([]dto.BolShipmentResponse, 0, len(rows)),
	}
	for _, row := range rows {
		result.IDs = append(result.IDs, row.ID.String())
		result.Records = append(result.Records, dto.NewBolShipmentResponse(row))
	}
	return result, nil
}

// buildRows validates the batch and materializes entity rows. Each item may
// name its own bol_number; otherwise the batch default applies.
func buildRows(poID uuid.UUID, defaultBol string, items []dto.CreateBolInput) ([]*entity.BolShipment, error) {
	if len(items) == 0 {
		return nil, errorbank.BadRequest("items must not be empty", errorbank.WithCode(CodeInvalidItem))
	}

	rows := make([]*entity.BolShipment, 0, len(items))
	for _, item := range items {
		bolNumber := item.BolNumber
		if bolNumber == "" {
			bolNumber = defaultBol
		}
		if bolNumber == "" {
			return nil, errorbank.BadRequest("bol_number is required", errorbank.WithCode(CodeInvalidItem))
		}
		if item.SKU == "" {
			return nil, errorbank.BadRequest("each item needs a non-empty sku", errorbank.WithCode(CodeInvalidItem))
		}
		if item.Qty <= 0 {
			return nil, errorbank.BadRequest("each item needs qty > 0", errorbank.WithCode(CodeInvalidItem))
		}
		rows = append(rows, &entity.BolShipment{
			PoID:       poID,
			BolNumber:  bolNumber,
			SKU:        item.SKU,
			ShippedQty: item.Qty,
			Memo:       item.Memo,
		})
	}
	return rows, nil
}

// DeleteByID removes one BOL line.
func (s *Service) DeleteByID(ctx context.Context, id uuid.UUID) error {
	ctx, span := serviceTracer.Start(ctx, "PurchaseOrderService.DeleteByID", trace.WithAttributes(attribute.String("bol.id", id.String())))
	defer span.End()

	deleted, err := s.bols.DeleteByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return errorbank.Internal("failed to delete bol shipment", errorbank.WithCause(err))
	}
	if !deleted {
		return errorbank.NotFound("Bol shipment not found")
	}
	return nil
}

// DeleteByBolNumber removes every line of one shipment document in a single
// transaction and reports how many went.
func (s *Service) DeleteByBolNumber(ctx context.Context, bolNumber string) (int, error) {
	ctx, span := serviceTracer.Start(ctx, "PurchaseOrderService.DeleteByBolNumber", trace.WithAttributes(attribute.String("bol.number", bolNumber)))
	defer span.End()

	if bolNumber == "" {
		return 0, errorbank.BadRequest("bol_number is required")
	}

	var count int
	err := s.conns.Writer.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		n, err := s.bols.DeleteByBolNumber(ctx, tx, bolNumber)
		if err != nil {
			return err
		}
		count = n
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transaction failed")
		return 0, errorbank.Internal("failed to delete bol shipments", errorbank.WithCause(err))
	}
	return count, nil
}

// UpdateByID changes the named fields of one BOL line in a transaction.
func (s *Service) UpdateByID(ctx context.Context, id uuid.UUID, req dto.UpdateBolRequest) (*entity.BolShipment, error) {
	ctx, span := serviceTracer.Start(ctx, "PurchaseOrderService.UpdateByID", trace.WithAttributes(attribute.String("bol.id", id.String())))
	defer span.End()

	update := bolrepo.FieldUpdate{SKU: req.SKU, ShippedQty: req.ShippedQty, Memo: req.Memo}
	if update.Empty() {
		return nil, errorbank.Unprocessable("no fields to update")
	}
	if req.SKU != nil && *req.SKU == "" {
		return nil, errorbank.BadRequest("sku must not be empty", errorbank.WithCode(CodeInvalidItem))
	}
	if req.ShippedQty != nil && *req.ShippedQty <= 0 {
		return nil, errorbank.BadRequest("shipped_qty must be > 0", errorbank.WithCode(CodeInvalidItem))
	}

	var updated *entity.BolShipment
	err := s.conns.Writer.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		row, err := s.bols.UpdateByID(ctx, tx, id, update)
		if err != nil {
			return err
		}
		updated = row
		return nil
	})
	if errors.Is(err, bolrepo.ErrNotFound) {
		return nil, errorbank.NotFound("Bol shipment not found")
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transaction failed")
		return nil, errorbank.Internal("failed to update bol shipment", errorbank.WithCause(err))
	}
	return updated, nil
}

// Statistics aggregates shipment counts, shipped quantity, and distinct BOL
// numbers per purchase order. A zero poID reports on every purchase order.
func (s *Service) Statistics(ctx context.Context, poID uuid.UUID) ([]dto.BolStatResponse, error) {
	ctx, span := serviceTracer.Start(ctx, "PurchaseOrderService.Statistics")
	defer span.End()

	stats, err := s.bols.Statistics(ctx, poID)
	if err != nil {
		span.RecordError(err)
		return nil, errorbank.Internal("failed to aggregate statistics", errorbank.WithCause(err))
	}

	out := make([]dto.BolStatResponse, 0, len(stats))
	for _, stat := range stats {
		out = append(out, dto.NewBolStatResponse(stat))
	}
	return out, nil
}
