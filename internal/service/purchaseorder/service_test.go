package purchaseorder_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"go.uber.org/zap"

	"github.com/Additional-Code/fulfillment/internal/cache"
	"github.com/Additional-Code/fulfillment/internal/database"
	"github.com/Additional-Code/fulfillment/internal/dto"
	"github.com/Additional-Code/fulfillment/internal/entity"
	bolrepo "github.com/Additional-Code/fulfillment/internal/repository/bolshipment"
	porepo "github.com/Additional-Code/fulfillment/internal/repository/purchaseorder"
	"github.com/Additional-Code/fulfillment/internal/service/purchaseorder"
	"github.com/Additional-Code/fulfillment/pkg/errorbank"

	_ "github.com/mattn/go-sqlite3"
)

func newTestDB(t *testing.T) *database.Connections {
	t.Helper()

	sqldb, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	for _, model := range []any{(*entity.PurchaseOrder)(nil), (*entity.BolShipment)(nil)} {
		_, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx)
		require.NoError(t, err)
	}
	return &database.Connections{Writer: db, Reader: db}
}

type nullStore struct{}

func (nullStore) Get(context.Context, string) ([]byte, error) { return nil, cache.ErrCacheMiss }

func (nullStore) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (nullStore) Delete(context.Context, string) error { return nil }

func (nullStore) DeletePattern(context.Context, string) error { return nil }

type fixture struct {
	svc  *purchaseorder.Service
	pos  *porepo.Repository
	bols *bolrepo.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conns := newTestDB(t)
	tiered := cache.NewTieredWith(nullStore{}, zap.NewNop(), cache.TieredParams{})
	t.Cleanup(tiered.Close)

	pos := porepo.NewRepository(conns)
	bols := bolrepo.NewRepository(conns)
	svc := purchaseorder.NewService(purchaseorder.Params{
		Connections:    conns,
		PurchaseOrders: pos,
		BolShipments:   bols,
		Cache:          tiered,
		Logger:         zap.NewNop(),
	})
	return &fixture{svc: svc, pos: pos, bols: bols}
}

func (f *fixture) createPo(t *testing.T, number string) *entity.PurchaseOrder {
	t.Helper()
	po := &entity.PurchaseOrder{PoNumber: number, BuyerName: "Buyer " + number}
	require.NoError(t, f.pos.Create(context.Background(), po))
	return po
}

func (f *fixture) countBols(t *testing.T, poID uuid.UUID) int {
	t.Helper()
	rows, err := f.bols.ListByPo(context.Background(), poID)
	require.NoError(t, err)
	return len(rows)
}

func TestCreateBolsReturnsInsertedRecords(t *testing.T) {
	f := newFixture(t)
	po := f.createPo(t, "PO-100")

	result, err := f.svc.CreateBols(context.Background(), dto.CreateBolsRequest{
		PoID:      po.ID.String(),
		BolNumber: "BOL-7",
		Items: []dto.CreateBolInput{
			{SKU: "X", Qty: 5},
			{SKU: "Y", Qty: 3},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.InsertedCount)
	assert.Len(t, result.IDs, 2)
	require.Len(t, result.Records, 2)
	assert.Equal(t, "BOL-7", result.Records[0].BolNumber)
	assert.Equal(t, 2, f.countBols(t, po.ID))
}

func TestCreateBolsUnknownPoInsertsNothing(t *testing.T) {
	f := newFixture(t)
	po := f.createPo(t, "PO-101")

	_, err := f.svc.CreateBols(context.Background(), dto.CreateBolsRequest{
		PoID:      uuid.NewString(),
		BolNumber: "BOL-1",
		Items:     []dto.CreateBolInput{{SKU: "X", Qty: 1}},
	})
	require.Error(t, err)
	assert.Equal(t, purchaseorder.CodePoNotFound, errorbank.CodeOf(err))
	assert.Equal(t, 404, errorbank.From(err).StatusCode())
	assert.Equal(t, 0, f.countBols(t, po.ID))
}

func TestCreateBolsGroupsByBolNumber(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	po := f.createPo(t, "PO-102")

	result, err := f.svc.CreateBols(ctx, dto.CreateBolsRequest{
		PoID:      po.ID.String(),
		BolNumber: "BOL-A",
		Items: []dto.CreateBolInput{
			{SKU: "X", Qty: 1},
			{SKU: "Y", Qty: 2},
			{BolNumber: "BOL-B", SKU: "Z", Qty: 3},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.InsertedCount)

	groupA, err := f.bols.ListByBolNumber(ctx, "BOL-A")
	require.NoError(t, err)
	groupB, err := f.bols.ListByBolNumber(ctx, "BOL-B")
	require.NoError(t, err)
	assert.Len(t, groupA, 2)
	assert.Len(t, groupB, 1)
}

func TestCreateBolsValidation(t *testing.T) {
	f := newFixture(t)
	po := f.createPo(t, "PO-103")

	cases := []struct {
		name  string
		items []dto.CreateBolInput
	}{
		{name: "empty items", items: nil},
		{name: "missing sku", items: []dto.CreateBolInput{{SKU: "", Qty: 1}}},
		{name: "non-positive qty", items: []dto.CreateBolInput{{SKU: "X", Qty: 0}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CreateBols(context.Background(), dto.CreateBolsRequest{
				PoID:      po.ID.String(),
				BolNumber: "BOL-1",
				Items:     tc.items,
			})
			require.Error(t, err)
			assert.Equal(t, purchaseorder.CodeInvalidItem, errorbank.CodeOf(err))
			assert.Equal(t, 0, f.countBols(t, po.ID))
		})
	}
}

func TestCreateBolsTouchesPurchaseOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	po := f.createPo(t, "PO-104")
	before := po.UpdatedAt

	time.Sleep(10 * time.Millisecond)
	_, err := f.svc.CreateBols(ctx, dto.CreateBolsRequest{
		PoID:      po.ID.String(),
		BolNumber: "BOL-1",
		Items:     []dto.CreateBolInput{{SKU: "X", Qty: 1}},
	})
	require.NoError(t, err)

	fresh, err := f.pos.GetByID(ctx, nil, po.ID)
	require.NoError(t, err)
	assert.True(t, fresh.UpdatedAt.After(before))
}

func TestDeleteByID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	po := f.createPo(t, "PO-105")

	result, err := f.svc.CreateBols(ctx, dto.CreateBolsRequest{
		PoID:      po.ID.String(),
		BolNumber: "BOL-1",
		Items:     []dto.CreateBolInput{{SKU: "X", Qty: 1}},
	})
	require.NoError(t, err)

	id := uuid.MustParse(result.IDs[0])
	require.NoError(t, f.svc.DeleteByID(ctx, id))
	assert.Equal(t, 0, f.countBols(t, po.ID))

	err = f.svc.DeleteByID(ctx, id)
	require.Error(t, err)
	assert.Equal(t, 404, errorbank.From(err).StatusCode())
}

func TestDeleteByBolNumber(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	po := f.createPo(t, "PO-106")

	_, err := f.svc.CreateBols(ctx, dto.CreateBolsRequest{
		PoID:      po.ID.String(),
		BolNumber: "BOL-GONE",
		Items: []dto.CreateBolInput{
			{SKU: "X", Qty: 1},
			{SKU: "Y", Qty: 2},
			{BolNumber: "BOL-KEPT", SKU: "Z", Qty: 3},
		},
	})
	require.NoError(t, err)

	count, err := f.svc.DeleteByBolNumber(ctx, "BOL-GONE")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, 1, f.countBols(t, po.ID))
}

func TestUpdateByID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	po := f.createPo(t, "PO-107")

	result, err := f.svc.CreateBols(ctx, dto.CreateBolsRequest{
		PoID:      po.ID.String(),
		BolNumber: "BOL-1",
		Items:     []dto.CreateBolInput{{SKU: "X", Qty: 1, Memo: "initial"}},
	})
	require.NoError(t, err)
	id := uuid.MustParse(result.IDs[0])

	qty := 7
	updated, err := f.svc.UpdateByID(ctx, id, dto.UpdateBolRequest{ShippedQty: &qty})
	require.NoError(t, err)
	assert.Equal(t, 7, updated.ShippedQty)
	assert.Equal(t, "X", updated.SKU)
	assert.Equal(t, "initial", updated.Memo)

	_, err = f.svc.UpdateByID(ctx, id, dto.UpdateBolRequest{})
	require.Error(t, err)
	assert.Equal(t, 422, errorbank.From(err).StatusCode())

	_, err = f.svc.UpdateByID(ctx, uuid.New(), dto.UpdateBolRequest{ShippedQty: &qty})
	require.Error(t, err)
	assert.Equal(t, 404, errorbank.From(err).StatusCode())
}

func TestStatistics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	po1 := f.createPo(t, "PO-108")
	po2 := f.createPo(t, "PO-109")

	_, err := f.svc.CreateBols(ctx, dto.CreateBolsRequest{
		PoID:      po1.ID.String(),
		BolNumber: "BOL-1",
		Items: []dto.CreateBolInput{
			{SKU: "X", Qty: 5},
			{SKU: "Y", Qty: 3},
			{BolNumber: "BOL-2", SKU: "Z", Qty: 2},
		},
	})
	require.NoError(t, err)

	stats, err := f.svc.Statistics(ctx, po1.ID)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, po1.ID.String(), stats[0].PoID)
	assert.Equal(t, 3, stats[0].TotalShipments)
	assert.Equal(t, 10, stats[0].TotalShippedQty)
	assert.Equal(t, 2, stats[0].UniqueBolCount)

	all, err := f.svc.Statistics(ctx, uuid.Nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, stat := range all {
		if stat.PoID == po2.ID.String() {
			assert.Equal(t, 0, stat.TotalShipments)
			assert.Equal(t, 0, stat.TotalShippedQty)
		}
	}
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createPo(t, "PO-200")
	f.createPo(t, "PO-201")
	f.createPo(t, "ZZ-900")

	hits, err := f.svc.Search(ctx, "po-2", 10, 0)
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	hits, err = f.svc.Search(ctx, "buyer zz", 10, 0)
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	hits, err = f.svc.Search(ctx, "", 2, 0)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}
