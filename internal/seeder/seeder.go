package seeder

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/Additional-Code/fulfillment/internal/database"
	"github.com/Additional-Code/fulfillment/internal/entity"
	"github.com/Additional-Code/fulfillment/internal/status"
)

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	db     *bun.DB
	logger *zap.Logger
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, logger *zap.Logger) *Seeder {
	return &Seeder{db: conns.Writer, logger: logger}
}

// Orders seeds example orders if they are missing.
func (s *Seeder) Orders(ctx context.Context) error {
	now := time.Now().UTC()
	samples := []entity.Order{
		{
			ID:          uuid.New(),
			OrderNumber: "PO-1000",
			Source:      entity.SourceDealer,
			Status:      status.Confirmed,
			Items: []entity.OrderItem{
				{SKU: "SKU-A", Qty: 10, Description: "widget A"},
				{SKU: "SKU-B", Qty: 4, Description: "widget B"},
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:          uuid.New(),
			OrderNumber: "PO-1001",
			Source:      entity.SourceQuote,
			Status:      status.Shipped,
			Items: []entity.OrderItem{
				{SKU: "SKU-C", Qty: 6, Description: "widget C"},
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	for _, sample := range samples {
		order := sample
		_, err := s.db.NewInsert().Model(&order).
			On("CONFLICT (order_number) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
	}

	if s.logger != nil {
		s.logger.Info("seeded orders", zap.Int("count", len(samples)))
	}
	return nil
}

// PurchaseOrders seeds example purchase orders if they are missing.
func (s *Seeder) PurchaseOrders(ctx context.Context) error {
	now := time.Now().UTC()
	samples := []entity.PurchaseOrder{
		{ID: uuid.New(), PoNumber: "PO-1000", BuyerName: "Acme Dealer", Status: "OPEN", CreatedAt: now, UpdatedAt: now},
		{ID: uuid.New(), PoNumber: "PO-1001", BuyerName: "Globex Quotes", Status: "OPEN", CreatedAt: now, UpdatedAt: now},
	}

	for _, sample := range samples {
		po := sample
		exists, err := s.db.NewSelect().
			Model((*entity.PurchaseOrder)(nil)).
			Where("po_number = ?", po.PoNumber).
			Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if _, err := s.db.NewInsert().Model(&po).Exec(ctx); err != nil {
			return err
		}
	}

	if s.logger != nil {
		s.logger.Info("seeded purchase orders", zap.Int("count", len(samples)))
	}
	return nil
}
