package purchaseorder

import (
	"context"
	"database/sql"
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

var repoTracer = otel.Tracer("github.com/Additional-Code/fulfillment/repository/purchaseorder")

// ErrNotFound is returned when a purchase order is missing.
var ErrNotFound = errors.New("purchase order not found")

// Repository encapsulates read/write access for purchase orders.
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

// Create persists a new purchase order, assigning its id when unset.
func (r *Repository) Create(ctx context.Context, po *entity.PurchaseOrder) error {
	if po == nil {
		return errors.New("nil purchase order")
	}
	ctx, span := repoTracer.Start(ctx, "PurchaseOrderRepository.Create", trace.WithAttributes(attribute.String("po.number", po.PoNumber)))
	defer span.End()

	if po.ID == uuid.Nil {
		po.ID = uuid.New()
	}
	now := time.Now().UTC()
	if po.CreatedAt.IsZero() {
		po.CreatedAt = now
	}
	if po.UpdatedAt.IsZero() {
		po.UpdatedAt = now
	}

	_, err := r.writer.NewInsert().Model(po).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// Search performs the fuzzy interactive lookup on po_number and buyer_name.
// lower() keeps the match case-insensitive on every supported dialect.
func (r *Repository) Search(ctx context.Context, term string, limit, offset int) ([]entity.PurchaseOrder, error) {
	ctx, span := repoTracer.Start(ctx, "PurchaseOrderRepository.Search", trace.WithAttributes(attribute.String("po.search", term)))
	defer span.End()

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var pos []entity.PurchaseOrder
	q := r.reader.NewSelect().Model(&pos)
	if term != "" {
		pattern := "%" + term + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				WhereOr("lower(po_number) LIKE lower(?)", pattern).
				WhereOr("lower(buyer_name) LIKE lower(?)", pattern)
		})
	}

	err := q.OrderExpr("created_at DESC").Limit(limit).Offset(offset).Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return pos, nil
}

// GetByID fetches a purchase order by primary key. Passing an idb runs the
// lookup on the caller's transaction, which is how the batch writer keeps
// its existence check atomic with the insert.
func (r *Repository) GetByID(ctx context.Context, idb bun.IDB, id uuid.UUID) (*entity.PurchaseOrder, error) {
	ctx, span := repoTracer.Start(ctx, "PurchaseOrderRepository.GetByID", trace.WithAttributes(attribute.String("po.id", id.String())))
	defer span.End()

	if idb == nil {
		idb = r.reader
	}

	po := new(entity.PurchaseOrder)
	err := idb.NewSelect().Model(po).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return po, nil
}

// FindByNumber resolves a purchase order by exact po_number. The PO/SKU key
// path uses this, never the fuzzy Search.
func (r *Repository) FindByNumber(ctx context.Context, number string) (*entity.PurchaseOrder, error) {
	ctx, span := repoTracer.Start(ctx, "PurchaseOrderRepository.FindByNumber", trace.WithAttributes(attribute.String("po.number", number)))
	defer span.End()

	po := new(entity.PurchaseOrder)
	err := r.reader.NewSelect().Model(po).Where("po_number = ?", number).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return po, nil
}

// Touch bumps updated_at as part of the caller's transaction.
func (r *Repository) Touch(ctx context.Context, idb bun.IDB, id uuid.UUID) error {
	ctx, span := repoTracer.Start(ctx, "PurchaseOrderRepository.Touch", trace.WithAttributes(attribute.String("po.id", id.String())))
	defer span.End()

	if idb == nil {
		idb = r.writer
	}

	_, err := idb.NewUpdate().
		Model((*entity.PurchaseOrder)(nil)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
	}
	return err
}
