package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockmaster-api/internal/application/dto"
	"github.com/jhoicas/stockmaster-api/internal/application/inventory"
	"github.com/jhoicas/stockmaster-api/internal/domain"
	"github.com/jhoicas/stockmaster-api/internal/domain/entity"
	"github.com/jhoicas/stockmaster-api/internal/domain/repository"
	"github.com/jhoicas/stockmaster-api/internal/infrastructure/memory"
)

type fakeReport struct {
	summary dto.WarehouseSummaryDTO
	items   []dto.WarehouseItemDTO
}

func (r *fakeReport) GenerateStockReport(_ context.Context, s dto.WarehouseSummaryDTO, items []dto.WarehouseItemDTO) ([]byte, error) {
	r.summary, r.items = s, items
	return []byte("%PDF-fake"), nil
}

func addProduct(t *testing.T, f *fixture, id, sku, name string) {
	t.Helper()
	require.NoError(t, memory.NewProductRepository(f.store).Create(context.Background(),
		&entity.Product{ID: id, SKU: sku, Name: name, Category: "Ferretería", UnitOfMeasure: "und"}))
}

func adjust(t *testing.T, f *fixture, productID, wh string, n int64) {
	t.Helper()
	_, err := f.engine.Adjustment(context.Background(), inventory.AdjustmentInput{
		ProductID: productID, WarehouseID: wh, Delta: qty(n), Reference: "INICIAL",
	})
	require.NoError(t, err)
}

func newWarehouseService(f *fixture, report inventory.StockReportGenerator) *inventory.WarehouseService {
	return inventory.NewWarehouseService(memory.NewStockRepository(f.store), memory.NewWarehouseRepository(f.store), f.catalog, report)
}

func TestWarehouseService_ItemsOrdenadosSinCeros(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	addProduct(t, f, "p-arandela", "ARA-01", "Arandela")
	addProduct(t, f, "p-ancla", "ANC-01", "ángulo")
	addProduct(t, f, "p-clavo", "CLA-01", "clavo")

	adjust(t, f, prodID, whA, 5)
	adjust(t, f, "p-arandela", whA, 2)
	adjust(t, f, "p-ancla", whA, 1)
	adjust(t, f, "p-clavo", whA, 4)
	adjust(t, f, "p-clavo", whA, -4) // queda en cero

	svc := newWarehouseService(f, nil)
	items, err := svc.Items(ctx, whA)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "ángulo", items[0].Product)
	assert.Equal(t, "Arandela", items[1].Product)
	assert.Equal(t, "Tornillo", items[2].Product)
	assert.Equal(t, "TOR-01", items[2].SKU)

	sum, err := svc.Summary(ctx, whA)
	require.NoError(t, err)
	assert.Equal(t, "Bodega A", sum.WarehouseName)
	assert.Equal(t, 3, sum.TotalDistinctProducts)
	assert.Equal(t, "8", sum.TotalQuantity.String())
}

func TestWarehouseService_Summaries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	adjust(t, f, prodID, whA, 9)
	_, _, err := f.engine.Transfer(ctx, inventory.TransferInput{
		ProductID: prodID, FromWarehouseID: whA, ToWarehouseID: whB, Quantity: qty(4), Reference: "TR",
	})
	require.NoError(t, err)

	list, err := newWarehouseService(f, nil).Summaries(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "5", list[0].TotalQuantity.String())
	assert.Equal(t, "4", list[1].TotalQuantity.String())
	assert.Equal(t, 1, list[1].TotalDistinctProducts)
}

func TestWarehouseService_BodegaDesconocida(t *testing.T) {
	f := newFixture(t)
	_, err := newWarehouseService(f, nil).Summary(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = newWarehouseService(f, nil).Items(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestWarehouseService_Report(t *testing.T) {
	f := newFixture(t)
	adjust(t, f, prodID, whA, 3)
	rep := &fakeReport{}
	out, err := newWarehouseService(f, rep).Report(context.Background(), whA)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-fake", string(out))
	assert.Equal(t, "Bodega A", rep.summary.WarehouseName)
	require.Len(t, rep.items, 1)
}

func TestDashboardService_Summary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	addProduct(t, f, "p-clavo", "CLA-01", "Clavo")
	f.stockA(t, 50)

	_, err := f.engine.Receipt(ctx, inventory.OrderInput{ProductID: prodID, WarehouseID: whA, Quantity: qty(1), Reference: "PO"})
	require.NoError(t, err)
	r2, err := f.engine.Receipt(ctx, inventory.OrderInput{ProductID: prodID, WarehouseID: whB, Quantity: qty(1), Reference: "PO"})
	require.NoError(t, err)
	_, err = f.engine.UpdateStatus(ctx, r2.ID, entity.StatusInTransit, "tester")
	require.NoError(t, err)
	_, err = f.engine.Delivery(ctx, inventory.OrderInput{ProductID: prodID, WarehouseID: whA, Quantity: qty(1), Reference: "SO"})
	require.NoError(t, err)

	ledgerRepo := memory.NewLedgerRepository(f.store)
	svc := inventory.NewDashboardService(memory.NewProductRepository(f.store), memory.NewStockRepository(f.store), ledgerRepo, 10)
	got, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, got.TotalProducts)
	assert.Equal(t, 1, got.LowStockItems, "el clavo no tiene existencias")
	assert.Equal(t, 2, got.PendingReceipts)
	assert.Equal(t, 1, got.PendingDeliveries)
	assert.Equal(t, 10, got.LowStockThreshold)
}

func TestLedgerQuery_ListRecentFormaDelCliente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stockA(t, 10)
	adjust(t, f, prodID, whA, -2)

	q := inventory.NewLedgerQuery(memory.NewLedgerRepository(f.store), f.catalog)
	res, err := q.ListRecent(ctx, repository.LedgerFilter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	first := res.Items[0]
	assert.Equal(t, "adjustment", first.TransactionType)
	assert.Equal(t, "-2", first.Quantity.String())
	assert.Equal(t, "Tornillo", first.ProductName)
	assert.Equal(t, "Bodega A", first.WarehouseName)
	assert.False(t, first.Pending)
	assert.Equal(t, 2, res.Page.Total)

	_, err = q.ListRecent(ctx, repository.LedgerFilter{Type: "robo"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = q.Get(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
