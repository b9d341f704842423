package rowstore

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/Additional-Code/fulfillment/internal/entity"
	orderrepo "github.com/Additional-Code/fulfillment/internal/repository/order"
	porepo "github.com/Additional-Code/fulfillment/internal/repository/purchaseorder"
	"github.com/Additional-Code/fulfillment/internal/status"
)

// Snapshot table names.
const (
	TableOrders         = "orders"
	TablePurchaseOrders = "purchase_orders"
)

// Importer loads a legacy snapshot into the relational ledger. Rows already
// present (by business key) are skipped so the import can be re-run.
type Importer struct {
	source Source
	orders *orderrepo.Repository
	pos    *porepo.Repository
	logger *zap.Logger
}

// NewImporter wires an Importer.
func NewImporter(source Source, orders *orderrepo.Repository, pos *porepo.Repository, logger *zap.Logger) *Importer {
	return &Importer{source: source, orders: orders, pos: pos, logger: logger}
}

// Import loads orders and purchase orders from the snapshot and reports how
// many rows of each were created.
func (i *Importer) Import(ctx context.Context) (int, int, error) {
	importedOrders, err := i.importOrders(ctx)
	if err != nil {
		return 0, 0, err
	}
	importedPos, err := i.importPurchaseOrders(ctx)
	if err != nil {
		return importedOrders, 0, err
	}

	if i.logger != nil {
		i.logger.Info("snapshot imported",
			zap.Int("orders", importedOrders),
			zap.Int("purchase_orders", importedPos),
		)
	}
	return importedOrders, importedPos, nil
}

func (i *Importer) importOrders(ctx context.Context) (int, error) {
	rows, err := i.source.ReadAll(ctx, TableOrders)
	if err != nil {
		return 0, err
	}

	imported := 0
	for _, row := range rows {
		number := row.String("order_number")
		if number == "" {
			continue
		}

		_, err := i.orders.FindByNumber(ctx, nil, number, false)
		if err == nil {
			continue
		}
		if !errors.Is(err, orderrepo.ErrNotFound) {
			return imported, err
		}

		st := status.Status(row.String("status"))
		if !st.Valid() {
			st = status.Draft
		}
		source := entity.OrderSource(row.String("source"))
		if source == "" {
			source = entity.SourceDealer
		}

		order := &entity.Order{
			OrderNumber: number,
			Source:      source,
			Status:      st,
			ExternalID:  row.String("external_id"),
			Items:       decodeItems(row["items"]),
		}
		if err := i.orders.Create(ctx, order); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}

func (i *Importer) importPurchaseOrders(ctx context.Context) (int, error) {
	rows, err := i.source.ReadAll(ctx, TablePurchaseOrders)
	if err != nil {
		return 0, err
	}

	imported := 0
	for _, row := range rows {
		number := row.String("po_number")
		if number == "" {
			continue
		}

		_, err := i.pos.FindByNumber(ctx, number)
		if err == nil {
			continue
		}
		if !errors.Is(err, porepo.ErrNotFound) {
			return imported, err
		}

		po := &entity.PurchaseOrder{
			PoNumber:  number,
			BuyerName: row.String("buyer_name"),
			Status:    row.String("status"),
		}
		if err := i.pos.Create(ctx, po); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}

// decodeItems converts a snapshot items value into ordered lines via a JSON
// round trip; anything unparsable reads as no items.
func decodeItems(value any) []entity.OrderItem {
	if value == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil
	}
	var items []entity.OrderItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}
