package bol_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"go.uber.org/zap"

	"github.com/Additional-Code/fulfillment/internal/cache"
	"github.com/Additional-Code/fulfillment/internal/config"
	"github.com/Additional-Code/fulfillment/internal/database"
	"github.com/Additional-Code/fulfillment/internal/dto"
	"github.com/Additional-Code/fulfillment/internal/entity"
	"github.com/Additional-Code/fulfillment/internal/messaging"
	orderrepo "github.com/Additional-Code/fulfillment/internal/repository/order"
	shipmentrepo "github.com/Additional-Code/fulfillment/internal/repository/shipment"
	"github.com/Additional-Code/fulfillment/internal/service/bol"
	shipmentsvc "github.com/Additional-Code/fulfillment/internal/service/shipment"
	"github.com/Additional-Code/fulfillment/internal/status"
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
	for _, model := range []any{(*entity.Order)(nil), (*entity.Shipment)(nil)} {
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
	svc    *bol.Service
	orders *orderrepo.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conns := newTestDB(t)
	tiered := cache.NewTieredWith(nullStore{}, zap.NewNop(), cache.TieredParams{
		Capacity:  16,
		LocalTTL:  time.Minute,
		SharedTTL: time.Minute,
		OpTimeout: time.Second,
	})
	t.Cleanup(tiered.Close)

	orders := orderrepo.NewRepository(conns)
	shipments := shipmentrepo.NewRepository(conns)
	ledger := shipmentsvc.NewService(shipmentsvc.Params{
		Connections: conns,
		Orders:      orders,
		Shipments:   shipments,
		Cache:       tiered,
		Config:      config.Config{},
		Logger:      zap.NewNop(),
		Publisher:   messaging.Noop(),
	})
	svc := bol.NewService(bol.Params{
		Orders:    orders,
		Shipments: shipments,
		Ledger:    ledger,
		Cache:     tiered,
		Logger:    zap.NewNop(),
	})
	return &fixture{svc: svc, orders: orders}
}

func (f *fixture) createOrder(t *testing.T, number string, st status.Status, items ...entity.OrderItem) *entity.Order {
	t.Helper()
	order := &entity.Order{OrderNumber: number, Source: entity.SourceDealer, Status: st, Items: items}
	require.NoError(t, f.orders.Create(context.Background(), order))
	return order
}

func TestInitialDataSplitsAndSorts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createOrder(t, "PO-1002", status.Confirmed, entity.OrderItem{SKU: "A", Qty: 1})
	f.createOrder(t, "PO-1001", status.PartiallyShipped, entity.OrderItem{SKU: "A", Qty: 1})
	f.createOrder(t, "PO-1003", status.Shipped, entity.OrderItem{SKU: "A", Qty: 1})

	data, err := f.svc.InitialData(ctx)
	require.NoError(t, err)

	require.Len(t, data.PendingList, 2)
	assert.Equal(t, "PO-1001 (PARTIALLY_SHIPPED)", data.PendingList[0].Display)
	assert.Equal(t, "PO-1002 (CONFIRMED)", data.PendingList[1].Display)
	assert.Equal(t, "PO-1001", data.PendingList[0].Key)

	require.Len(t, data.FulfilledList, 1)
	assert.Equal(t, "PO-1003 (SHIPPED)", data.FulfilledList[0].Display)
}

func TestExistingDataUnknownOrderIsEmpty(t *testing.T) {
	f := newFixture(t)

	data, err := f.svc.ExistingData(context.Background(), "PO-NOPE|SKU-X")
	require.NoError(t, err)
	assert.Empty(t, data.Bols)
	assert.Nil(t, data.ActShipDate)
	assert.False(t, data.IsFulfilled)
}

func TestSaveThenExistingDataRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createOrder(t, "PO-1000", status.Confirmed, entity.OrderItem{SKU: "SKU-A", Qty: 10})

	err := f.svc.Save(ctx, dto.BolSaveRequest{
		PoSkuKey:    "PO-1000|SKU-A",
		ActShipDate: "2026-05-01",
		IsFulfilled: true,
		Bols: []dto.BolSaveEntry{
			{BolNumber: "BOL-1", ShippedQty: 4},
			{BolNumber: "BOL-2", ShippedQty: 3},
			{BolNumber: "", ShippedQty: 9},
		},
	})
	require.NoError(t, err)

	data, err := f.svc.ExistingData(ctx, "PO-1000|SKU-A")
	require.NoError(t, err)

	// The blank bolNumber entry is dropped by the replace workflow.
	byBol := map[string]int{}
	for _, entry := range data.Bols {
		byBol[entry.BolNumber] = entry.ShippedQty
	}
	assert.Equal(t, map[string]int{"BOL-1": 4, "BOL-2": 3}, byBol)
	require.NotNil(t, data.ActShipDate)
	assert.Equal(t, "2026-05-01", *data.ActShipDate)
	assert.True(t, data.IsFulfilled)

	fresh, err := f.orders.FindByNumber(ctx, nil, "PO-1000", false)
	require.NoError(t, err)
	assert.Equal(t, status.Shipped, fresh.Status)
}

func TestSaveRejectsBadShipDate(t *testing.T) {
	f := newFixture(t)
	f.createOrder(t, "PO-1000", status.Confirmed, entity.OrderItem{SKU: "SKU-A", Qty: 10})

	err := f.svc.Save(context.Background(), dto.BolSaveRequest{
		PoSkuKey:    "PO-1000|SKU-A",
		ActShipDate: "05/01/2026",
		Bols:        []dto.BolSaveEntry{{BolNumber: "BOL-1", ShippedQty: 1}},
	})
	require.Error(t, err)
	assert.Equal(t, bol.CodeSaveFailed, errorbank.CodeOf(err))
	assert.Equal(t, 400, errorbank.From(err).StatusCode())
}

func TestSaveUnknownOrderFails(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Save(context.Background(), dto.BolSaveRequest{
		PoSkuKey: "PO-NOPE|SKU-A",
		Bols:     []dto.BolSaveEntry{{BolNumber: "BOL-1", ShippedQty: 1}},
	})
	require.Error(t, err)
	assert.Equal(t, bol.CodeSaveFailed, errorbank.CodeOf(err))
}

func TestSaveRefreshesCachedLists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createOrder(t, "PO-1000", status.Confirmed, entity.OrderItem{SKU: "SKU-A", Qty: 10})

	before, err := f.svc.InitialData(ctx)
	require.NoError(t, err)
	require.Len(t, before.PendingList, 1)
	require.Empty(t, before.FulfilledList)

	err = f.svc.Save(ctx, dto.BolSaveRequest{
		PoSkuKey:    "PO-1000|SKU-A",
		IsFulfilled: true,
		Bols:        []dto.BolSaveEntry{{BolNumber: "BOL-1", ShippedQty: 10}},
	})
	require.NoError(t, err)

	after, err := f.svc.InitialData(ctx)
	require.NoError(t, err)
	assert.Empty(t, after.PendingList)
	require.Len(t, after.FulfilledList, 1)
	assert.Equal(t, "PO-1000 (SHIPPED)", after.FulfilledList[0].Display)
}
