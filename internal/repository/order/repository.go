package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/fulfillment/internal/database"
	"github.com/Additional-Code/fulfillment/internal/entity"
	"github.com/Additional-Code/fulfillment/internal/status"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/fulfillment/repository/order")

// ErrNotFound is returned when an order is missing.
var ErrNotFound = errors.New("order not found")

// Repository encapsulates read/write access for orders. Transactional
// methods take a bun.IDB so the caller's check and write share one
// connection; passing nil falls back to the writer pool.
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

// Create persists a new order, assigning its id when unset.
func (r *Repository) Create(ctx context.Context, order *entity.Order) error {
	if order == nil {
		return errors.New("nil order")
	}
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Create", trace.WithAttributes(attribute.String("order.number", order.OrderNumber)))
	defer span.End()

	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = now
	}

	_, err := r.writer.NewInsert().Model(order).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// FindByNumber resolves an order by its business key. With forUpdate the row
// is locked for the remainder of the caller's transaction so the quantity
// check and the shipment insert cannot race; sqlite serializes writers on
// its own and does not speak FOR UPDATE.
func (r *Repository) FindByNumber(ctx context.Context, idb bun.IDB, number string, forUpdate bool) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.FindByNumber", trace.WithAttributes(attribute.String("order.number", number)))
	defer span.End()

	if idb == nil {
		idb = r.reader
	}

	order := new(entity.Order)
	q := idb.NewSelect().Model(order).Where("order_number = ?", number)
	if forUpdate && r.writer.Dialect().Name() != dialect.SQLite {
		q = q.For("UPDATE")
	}

	err := q.Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return order, nil
}

// UpdateStatus moves an order to the given status and bumps updated_at.
func (r *Repository) UpdateStatus(ctx context.Context, idb bun.IDB, id uuid.UUID, st status.Status) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.UpdateStatus", trace.WithAttributes(
		attribute.String("order.id", id.String()),
		attribute.String("order.status", string(st)),
	))
	defer span.End()

	if idb == nil {
		idb = r.writer
	}

	_, err := idb.NewUpdate().
		Model((*entity.Order)(nil)).
		Set("status = ?", st).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
	}
	return err
}

// List returns every order, newest first. The BOL listing views are built
// from this read.
func (r *Repository) List(ctx context.Context) ([]entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.List")
	defer span.End()

	var orders []entity.Order
	err := r.reader.NewSelect().Model(&orders).OrderExpr("created_at DESC").Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return orders, nil
}
