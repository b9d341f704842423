package bolshipment

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

var repoTracer = otel.Tracer("github.com/Additional-Code/fulfillment/repository/bolshipment")

// ErrNotFound is returned when a BOL shipment row is missing.
var ErrNotFound = errors.New("bol shipment not found")

// Stat is one row of the per-PO shipping aggregate.
type Stat struct {
	PoID            uuid.UUID `bun:"po_id"`
	PoNumber        string    `bun:"po_number"`
	TotalShipments  int       `bun:"total_shipments"`
	TotalShippedQty int       `bun:"total_shipped_qty"`
	UniqueBolCount  int       `bun:"unique_bol_count"`
}

// FieldUpdate carries the optional field-level changes for UpdateByID. Nil
// pointers leave the column untouched.
type FieldUpdate struct {
	SKU        *string
	ShippedQty *int
	Memo       *string
}

// Empty reports whether no field is set.
func (u FieldUpdate) Empty() bool {
	return u.SKU == nil && u.ShippedQty == nil && u.Memo == nil
}

// Repository owns the BOL shipment rows of the parallel PO ledger.
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

// InsertBatch writes all rows with a single multi-row insert on the caller's
// transaction, assigning ids and timestamps. One statement bounds round
// trips for the whole BOL.
func (r *Repository) InsertBatch(ctx context.Context, idb bun.IDB, rows []*entity.BolShipment) error {
	if len(rows) == 0 {
		return errors.New("empty batch")
	}
	ctx, span := repoTracer.Start(ctx, "BolShipmentRepository.InsertBatch", trace.WithAttributes(attribute.Int("bols.count", len(rows))))
	defer span.End()

	if idb == nil {
		idb = r.writer
	}

	now := time.Now().UTC()
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
		if row.UpdatedAt.IsZero() {
			row.UpdatedAt = now
		}
	}

	_, err := idb.NewInsert().Model(&rows).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// ListByPo returns a PO's BOL rows, newest first.
func (r *Repository) ListByPo(ctx context.Context, poID uuid.UUID) ([]entity.BolShipment, error) {
	ctx, span := repoTracer.Start(ctx, "BolShipmentRepository.ListByPo", trace.WithAttributes(attribute.String("po.id", poID.String())))
	defer span.End()

	var rows []entity.BolShipment
	err := r.reader.NewSelect().Model(&rows).Where("po_id = ?", poID).OrderExpr("created_at DESC").Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return rows, nil
}

// ListByBolNumber returns every row grouped under one BOL document.
func (r *Repository) ListByBolNumber(ctx context.Context, bolNumber string) ([]entity.BolShipment, error) {
	ctx, span := repoTracer.Start(ctx, "BolShipmentRepository.ListByBolNumber", trace.WithAttributes(attribute.String("bol.number", bolNumber)))
	defer span.End()

	var rows []entity.BolShipment
	err := r.reader.NewSelect().Model(&rows).Where("bol_number = ?", bolNumber).OrderExpr("created_at DESC").Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return rows, nil
}

// DeleteByID removes one row, reporting whether it existed.
func (r *Repository) DeleteByID(ctx context.Context, id uuid.UUID) (bool, error) {
	ctx, span := repoTracer.Start(ctx, "BolShipmentRepository.DeleteByID", trace.WithAttributes(attribute.String("bol.id", id.String())))
	defer span.End()

	res, err := r.writer.NewDelete().Model((*entity.BolShipment)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// DeleteByBolNumber removes every row of a BOL document on the caller's
// transaction and returns the count.
func (r *Repository) DeleteByBolNumber(ctx context.Context, idb bun.IDB, bolNumber string) (int, error) {
	ctx, span := repoTracer.Start(ctx, "BolShipmentRepository.DeleteByBolNumber", trace.WithAttributes(attribute.String("bol.number", bolNumber)))
	defer span.End()

	if idb == nil {
		idb = r.writer
	}

	res, err := idb.NewDelete().Model((*entity.BolShipment)(nil)).Where("bol_number = ?", bolNumber).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// UpdateByID applies a field-level update on the caller's transaction and
// returns the fresh row, or ErrNotFound.
func (r *Repository) UpdateByID(ctx context.Context, idb bun.IDB, id uuid.UUID, update FieldUpdate) (*entity.BolShipment, error) {
	if update.Empty() {
		return nil, errors.New("no fields to update")
	}
	ctx, span := repoTracer.Start(ctx, "BolShipmentRepository.UpdateByID", trace.WithAttributes(attribute.String("bol.id", id.String())))
	defer span.End()

	if idb == nil {
		idb = r.writer
	}

	q := idb.NewUpdate().Model((*entity.BolShipment)(nil)).Where("id = ?", id)
	if update.SKU != nil {
		q = q.Set("sku = ?", *update.SKU)
	}
	if update.ShippedQty != nil {
		q = q.Set("shipped_qty = ?", *update.ShippedQty)
	}
	if update.Memo != nil {
		q = q.Set("memo = ?", *update.Memo)
	}
	q = q.Set("updated_at = ?", time.Now().UTC())

	res, err := q.Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}

	row := new(entity.BolShipment)
	if err := idb.NewSelect().Model(row).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, err
	}
	return row, nil
}

// Statistics aggregates shipment count, total shipped quantity, and distinct
// BOL-number count per purchase order. A zero filter covers every PO.
func (r *Repository) Statistics(ctx context.Context, poID uuid.UUID) ([]Stat, error) {
	ctx, span := repoTracer.Start(ctx, "BolShipmentRepository.Statistics")
	defer span.End()

	q := r.reader.NewSelect().
		TableExpr("purchase_orders AS po").
		ColumnExpr("po.id AS po_id").
		ColumnExpr("po.po_number AS po_number").
		ColumnExpr("COUNT(bs.id) AS total_shipments").
		ColumnExpr("COALESCE(SUM(bs.shipped_qty), 0) AS total_shipped_qty").
		ColumnExpr("COUNT(DISTINCT bs.bol_number) AS unique_bol_count").
		Join("LEFT JOIN bol_shipments AS bs ON bs.po_id = po.id").
		GroupExpr("po.id, po.po_number").
		OrderExpr("po.po_number ASC")

	if poID != uuid.Nil {
		q = q.Where("po.id = ?", poID)
	}

	var stats []Stat
	if err := q.Scan(ctx, &stats); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return stats, nil
}
