package rowstore_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"go.uber.org/zap"

	"github.com/Additional-Code/fulfillment/internal/database"
	"github.com/Additional-Code/fulfillment/internal/entity"
	orderrepo "github.com/Additional-Code/fulfillment/internal/repository/order"
	porepo "github.com/Additional-Code/fulfillment/internal/repository/purchaseorder"
	"github.com/Additional-Code/fulfillment/internal/rowstore"
	"github.com/Additional-Code/fulfillment/internal/status"

	_ "github.com/mattn/go-sqlite3"
)

func newRepos(t *testing.T) (*orderrepo.Repository, *porepo.Repository) {
	t.Helper()

	sqldb, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	for _, model := range []any{(*entity.Order)(nil), (*entity.PurchaseOrder)(nil)} {
		_, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx)
		require.NoError(t, err)
	}

	conns := &database.Connections{Writer: db, Reader: db}
	return orderrepo.NewRepository(conns), porepo.NewRepository(conns)
}

func TestJSONFileMissingFileReadsEmpty(t *testing.T) {
	f := rowstore.NewJSONFile(filepath.Join(t.TempDir(), "missing.json"))

	rows, err := f.ReadAll(context.Background(), rowstore.TableOrders)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestJSONFileWriteBatchRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "snapshot.json")
	f := rowstore.NewJSONFile(path)

	err := f.WriteBatch(ctx, rowstore.TableOrders, []rowstore.Row{
		{"order_number": "PO-1", "status": "CONFIRMED"},
	})
	require.NoError(t, err)
	err = f.WriteBatch(ctx, rowstore.TableOrders, []rowstore.Row{
		{"order_number": "PO-2", "status": "DRAFT"},
	})
	require.NoError(t, err)

	// A fresh handle reads what was persisted, not in-memory state.
	rows, err := rowstore.NewJSONFile(path).ReadAll(ctx, rowstore.TableOrders)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "PO-1", rows[0].String("order_number"))
	assert.Equal(t, "PO-2", rows[1].String("order_number"))
}

func TestImportIsRerunnable(t *testing.T) {
	ctx := context.Background()
	orders, pos := newRepos(t)

	path := filepath.Join(t.TempDir(), "snapshot.json")
	f := rowstore.NewJSONFile(path)
	require.NoError(t, f.WriteBatch(ctx, rowstore.TableOrders, []rowstore.Row{
		{
			"order_number": "PO-1000",
			"status":       "CONFIRMED",
			"items":        []any{map[string]any{"sku": "SKU-A", "qty": 10}},
		},
		{"order_number": "", "status": "CONFIRMED"},
	}))
	require.NoError(t, f.WriteBatch(ctx, rowstore.TablePurchaseOrders, []rowstore.Row{
		{"po_number": "PO-1000", "buyer_name": "Acme"},
	}))

	importer := rowstore.NewImporter(f, orders, pos, zap.NewNop())

	importedOrders, importedPos, err := importer.Import(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, importedOrders)
	assert.Equal(t, 1, importedPos)

	order, err := orders.FindByNumber(ctx, nil, "PO-1000", false)
	require.NoError(t, err)
	assert.Equal(t, status.Confirmed, order.Status)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "SKU-A", order.Items[0].SKU)
	assert.Equal(t, 10, order.Items[0].Qty)

	// Existing rows are skipped on a second pass.
	importedOrders, importedPos, err = importer.Import(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, importedOrders)
	assert.Equal(t, 0, importedPos)
}
