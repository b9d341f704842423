package shipment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/fulfillment/internal/database"
	"github.com/Additional-Code/fulfillment/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/fulfillment/repository/shipment")

// Repository owns the shipment rows of the ledger. All mutating methods take
// a bun.IDB so they run on the caller's transaction; nil falls back to the
// pool.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// Insert persists one shipment row, assigning id and created_at when unset.
func (r *Repository) Insert(ctx context.Context, idb bun.IDB, sh *entity.Shipment) error {
	if sh == nil {
		return errors.New("nil shipment")
	}
	ctx, span := repoTracer.Start(ctx, "ShipmentRepository.Insert", trace.WithAttributes(attribute.String("order.id", sh.OrderID.String())))
	defer span.End()

	if idb == nil {
		idb = r.writer
	}
	if sh.ID == uuid.Nil {
		sh.ID = uuid.New()
	}
	if sh.CreatedAt.IsZero() {
		sh.CreatedAt = time.Now().UTC()
	}

	_, err := idb.NewInsert().Model(sh).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// ShippedTotals sums quantity per sku across every shipment of an order. The
// items column is an opaque JSON list; totals are accumulated item by item.
func (r *Repository) ShippedTotals(ctx context.Context, idb bun.IDB, orderID uuid.UUID) (map[string]int, error) {
	ctx, span := repoTracer.Start(ctx, "ShipmentRepository.ShippedTotals", trace.WithAttributes(attribute.String("order.id", orderID.String())))
	defer span.End()

	if idb == nil {
		idb = r.reader
	}

	var rows []entity.Shipment
	err := idb.NewSelect().Model(&rows).Column("items").Where("order_id = ?", orderID).Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}

	totals := make(map[string]int)
	for _, row := range rows {
		for _, item := range row.Items {
			totals[item.SKU] += item.Qty
		}
	}
	return totals, nil
}

// ListByOrder returns an order's shipments, oldest first.
func (r *Repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]entity.Shipment, error) {
	ctx, span := repoTracer.Start(ctx, "ShipmentRepository.ListByOrder", trace.WithAttributes(attribute.String("order.id", orderID.String())))
	defer span.End()

	var rows []entity.Shipment
	err := r.reader.NewSelect().Model(&rows).Where("order_id = ?", orderID).OrderExpr("created_at ASC").Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return rows, nil
}

// DeleteByOrder removes every shipment of an order. Used by the replace
// workflow inside its transaction.
func (r *Repository) DeleteByOrder(ctx context.Context, idb bun.IDB, orderID uuid.UUID) error {
	ctx, span := repoTracer.Start(ctx, "ShipmentRepository.DeleteByOrder", trace.WithAttributes(attribute.String("order.id", orderID.String())))
	defer span.End()

	if idb == nil {
		idb = r.writer
	}

	_, err := idb.NewDelete().Model((*entity.Shipment)(nil)).Where("order_id = ?", orderID).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
	}
	return err
}
