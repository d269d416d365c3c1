package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockmaster-api/internal/application/inventory"
	"github.com/jhoicas/stockmaster-api/internal/domain"
	"github.com/jhoicas/stockmaster-api/internal/domain/entity"
	"github.com/jhoicas/stockmaster-api/internal/domain/repository"
	"github.com/jhoicas/stockmaster-api/internal/infrastructure/memory"
)

const (
	prodID = "p-tornillo"
	whA    = "w-a"
	whB    = "w-b"
)

// fixture motor sobre el store en memoria con un producto y dos bodegas.
type fixture struct {
	store     *memory.Store
	runner    *memory.TxRunner
	engine    *inventory.Engine
	projector *inventory.Projector
	catalog   *inventory.RepositoryCatalog
	events    *recorder
}

type recorder struct {
	mu     sync.Mutex
	events []inventory.LedgerEvent
}

func (r *recorder) Publish(_ context.Context, ev inventory.LedgerEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	ctx := context.Background()
	products := memory.NewProductRepository(store)
	warehouses := memory.NewWarehouseRepository(store)
	require.NoError(t, products.Create(ctx, &entity.Product{ID: prodID, SKU: "TOR-01", Name: "Tornillo", UnitOfMeasure: "und"}))
	require.NoError(t, warehouses.Create(ctx, &entity.Warehouse{ID: whA, Name: "Bodega A"}))
	require.NoError(t, warehouses.Create(ctx, &entity.Warehouse{ID: whB, Name: "Bodega B"}))

	runner := memory.NewTxRunner(store, time.Second)
	catalog := inventory.NewRepositoryCatalog(products, warehouses)
	ledgerRepo := memory.NewLedgerRepository(store)
	rec := &recorder{}
	return &fixture{
		store:     store,
		runner:    runner,
		engine:    inventory.NewEngine(runner, ledgerRepo, catalog, inventory.WithEvents(rec)),
		projector: inventory.NewProjector(runner, ledgerRepo, memory.NewStockRepository(store), nil, nopLog()),
		catalog:   catalog,
		events:    rec,
	}
}

func qty(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func (f *fixture) quantity(t *testing.T, wh string) string {
	t.Helper()
	q, err := f.projector.Quantity(context.Background(), prodID, wh)
	require.NoError(t, err)
	return q.String()
}

// stockA recibe y completa n unidades en la bodega A.
func (f *fixture) stockA(t *testing.T, n int64) {
	t.Helper()
	ctx := context.Background()
	r, err := f.engine.Receipt(ctx, inventory.OrderInput{ProductID: prodID, WarehouseID: whA, Quantity: qty(n), Reference: "PO-SEED"})
	require.NoError(t, err)
	_, err = f.engine.UpdateStatus(ctx, r.ID, entity.StatusCompleted, "tester")
	require.NoError(t, err)
}

func TestEngine_EscenarioCompleto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, err := f.engine.Receipt(ctx, inventory.OrderInput{ProductID: prodID, WarehouseID: whA, Quantity: qty(100), Reference: "PO-1"})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusOrderPlaced, r.Status)
	assert.Equal(t, "0", f.quantity(t, whA), "una recepción pendiente no afecta la cantidad")

	_, err = f.engine.UpdateStatus(ctx, r.ID, entity.StatusInTransit, "tester")
	require.NoError(t, err)
	assert.Equal(t, "0", f.quantity(t, whA))

	done, err := f.engine.UpdateStatus(ctx, r.ID, entity.StatusCompleted, "tester")
	require.NoError(t, err)
	assert.True(t, done.Committed())
	assert.Equal(t, "100", f.quantity(t, whA))

	out, in, err := f.engine.Transfer(ctx, inventory.TransferInput{
		ProductID: prodID, FromWarehouseID: whA, ToWarehouseID: whB, Quantity: qty(30), Reference: "TR-1",
	})
	require.NoError(t, err)
	assert.Equal(t, out.ID, in.CounterpartID)
	assert.Equal(t, in.ID, out.CounterpartID)
	assert.Equal(t, "70", f.quantity(t, whA))
	assert.Equal(t, "30", f.quantity(t, whB))

	d, err := f.engine.Delivery(ctx, inventory.OrderInput{ProductID: prodID, WarehouseID: whA, Quantity: qty(20), Reference: "SO-1"})
	require.NoError(t, err)
	_, err = f.engine.UpdateStatus(ctx, d.ID, entity.StatusShipped, "tester")
	require.NoError(t, err)
	assert.Equal(t, "50", f.quantity(t, whA))

	_, err = f.engine.Adjustment(ctx, inventory.AdjustmentInput{ProductID: prodID, WarehouseID: whA, Delta: qty(-3), Reference: "DAÑO"})
	require.NoError(t, err)
	assert.Equal(t, "47", f.quantity(t, whA))
	assert.Equal(t, "30", f.quantity(t, whB))

	drifts, err := f.projector.Verify(ctx)
	require.NoError(t, err)
	assert.Empty(t, drifts, "la vista debe coincidir con el replay del libro")
}

func TestEngine_EntregaSinStockSuficiente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stockA(t, 70)

	d, err := f.engine.Delivery(ctx, inventory.OrderInput{ProductID: prodID, WarehouseID: whA, Quantity: qty(200), Reference: "SO-BIG"})
	require.NoError(t, err, "crear la entrega no verifica stock")

	_, err = f.engine.UpdateStatus(ctx, d.ID, entity.StatusShipped, "tester")
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "70", insufficient.Available.String())
	assert.Equal(t, "200", insufficient.Requested.String())
	assert.Equal(t, "70", f.quantity(t, whA))

	got, err := memory.NewLedgerRepository(f.store).GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusOrderReceived, got.Status, "el rechazo no cambia el estado")
}

func TestEngine_TerminalIdempotente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r, err := f.engine.Receipt(ctx, inventory.OrderInput{ProductID: prodID, WarehouseID: whA, Quantity: qty(10), Reference: "PO-2"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := f.engine.UpdateStatus(ctx, r.ID, entity.StatusCompleted, "tester")
		require.NoError(t, err)
	}
	assert.Equal(t, "10", f.quantity(t, whA), "el efecto se aplica una sola vez")

	hist, err := inventory.NewLedgerQuery(memory.NewLedgerRepository(f.store), f.catalog).History(ctx, r.ID)
	require.NoError(t, err)
	assert.Len(t, hist, 1)
}

func TestEngine_EstadoNoRetrocede(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r, err := f.engine.Receipt(ctx, inventory.OrderInput{ProductID: prodID, WarehouseID: whA, Quantity: qty(5), Reference: "PO-3"})
	require.NoError(t, err)
	_, err = f.engine.UpdateStatus(ctx, r.ID, entity.StatusCompleted, "tester")
	require.NoError(t, err)

	_, err = f.engine.UpdateStatus(ctx, r.ID, entity.StatusInTransit, "tester")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = f.engine.UpdateStatus(ctx, r.ID, entity.StatusShipped, "tester")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "estado de otro flujo")
	assert.Equal(t, "5", f.quantity(t, whA))
}

func TestEngine_TrasladosYAjustesNoCambianDeEstado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stockA(t, 10)

	out, _, err := f.engine.Transfer(ctx, inventory.TransferInput{
		ProductID: prodID, FromWarehouseID: whA, ToWarehouseID: whB, Quantity: qty(4), Reference: "TR-2",
	})
	require.NoError(t, err)
	_, err = f.engine.UpdateStatus(ctx, out.ID, entity.StatusCompleted, "tester")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	adj, err := f.engine.Adjustment(ctx, inventory.AdjustmentInput{ProductID: prodID, WarehouseID: whA, Delta: qty(2), Reference: "CONTEO"})
	require.NoError(t, err)
	_, err = f.engine.UpdateStatus(ctx, adj.ID, entity.StatusDone, "tester")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestEngine_TrasladoMismaBodega(t *testing.T) {
	f := newFixture(t)
	f.stockA(t, 10)
	_, _, err := f.engine.Transfer(context.Background(), inventory.TransferInput{
		ProductID: prodID, FromWarehouseID: whA, ToWarehouseID: whA, Quantity: qty(1), Reference: "TR-X",
	})
	assert.ErrorIs(t, err, domain.ErrSameWarehouse)
	assert.Equal(t, "10", f.quantity(t, whA))
}

func TestEngine_TrasladoSinStockNoEscribeNingunaPata(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stockA(t, 5)

	_, _, err := f.engine.Transfer(ctx, inventory.TransferInput{
		ProductID: prodID, FromWarehouseID: whA, ToWarehouseID: whB, Quantity: qty(6), Reference: "TR-3",
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	all, err := memory.NewLedgerRepository(f.store).ListAll(ctx)
	require.NoError(t, err)
	for _, tx := range all {
		assert.False(t, tx.Type.IsTransferLeg(), "no debe quedar ninguna pata")
	}
	assert.Equal(t, "5", f.quantity(t, whA))
	assert.Equal(t, "0", f.quantity(t, whB))
}

func TestEngine_AjusteNoDejaNegativo(t *testing.T) {
	f := newFixture(t)
	f.stockA(t, 2)
	_, err := f.engine.Adjustment(context.Background(), inventory.AdjustmentInput{
		ProductID: prodID, WarehouseID: whA, Delta: qty(-3), Reference: "PERDIDA",
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, "2", f.quantity(t, whA))
}

func TestEngine_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   inventory.OrderInput
	}{
		{"cantidad cero", inventory.OrderInput{ProductID: prodID, WarehouseID: whA, Quantity: qty(0), Reference: "X"}},
		{"cantidad negativa", inventory.OrderInput{ProductID: prodID, WarehouseID: whA, Quantity: qty(-1), Reference: "X"}},
		{"sin referencia", inventory.OrderInput{ProductID: prodID, WarehouseID: whA, Quantity: qty(1)}},
		{"producto desconocido", inventory.OrderInput{ProductID: "nope", WarehouseID: whA, Quantity: qty(1), Reference: "X"}},
		{"bodega desconocida", inventory.OrderInput{ProductID: prodID, WarehouseID: "nope", Quantity: qty(1), Reference: "X"}},
		{"cinco decimales", inventory.OrderInput{ProductID: prodID, WarehouseID: whA, Quantity: decimal.RequireFromString("1.23456"), Reference: "X"}},
		{"menor que la escala", inventory.OrderInput{ProductID: prodID, WarehouseID: whA, Quantity: decimal.RequireFromString("0.00001"), Reference: "X"}},
		{"demasiado grande", inventory.OrderInput{ProductID: prodID, WarehouseID: whA, Quantity: decimal.New(1, 14), Reference: "X"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.engine.Receipt(ctx, tc.in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}

	_, err := f.engine.Receipt(ctx, inventory.OrderInput{ProductID: "nope", WarehouseID: whA, Quantity: qty(1), Reference: "X"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.engine.Adjustment(ctx, inventory.AdjustmentInput{ProductID: prodID, WarehouseID: whA, Delta: decimal.Zero, Reference: "X"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.engine.Adjustment(ctx, inventory.AdjustmentInput{ProductID: prodID, WarehouseID: whA, Delta: decimal.RequireFromString("-0.00001"), Reference: "X"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, _, err = f.engine.Transfer(ctx, inventory.TransferInput{
		ProductID: prodID, FromWarehouseID: whA, ToWarehouseID: whB, Quantity: decimal.RequireFromString("2.00005"), Reference: "X",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// ceros a la derecha no cuentan como decimales
	tx, err := f.engine.Receipt(ctx, inventory.OrderInput{ProductID: prodID, WarehouseID: whA, Quantity: decimal.RequireFromString("1.250000"), Reference: "X"})
	require.NoError(t, err)
	assert.Equal(t, "1.25", tx.Quantity.String())

	_, err = f.engine.UpdateStatus(ctx, "no-existe", entity.StatusCompleted, "tester")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	all, err := memory.NewLedgerRepository(f.store).ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1, "ninguna validación fallida escribe en el libro")
	assert.Equal(t, tx.ID, all[0].ID)
}

func TestEngine_PublicaEventosTrasConfirmar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.stockA(t, 10)
	require.Len(t, f.events.events, 2)
	assert.Equal(t, inventory.EventTransactionCreated, f.events.events[0].Kind)
	assert.Equal(t, inventory.EventStatusChanged, f.events.events[1].Kind)
	require.NotNil(t, f.events.events[1].Change)
	assert.True(t, f.events.events[1].Change.Commits)

	_, err := f.engine.Adjustment(ctx, inventory.AdjustmentInput{ProductID: prodID, WarehouseID: whA, Delta: qty(-50), Reference: "X"})
	require.Error(t, err)
	assert.Len(t, f.events.events, 2, "un rechazo no publica")
}

func TestEngine_ContencionDevuelveTimeout(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	products := memory.NewProductRepository(store)
	warehouses := memory.NewWarehouseRepository(store)
	require.NoError(t, products.Create(ctx, &entity.Product{ID: prodID, SKU: "TOR-01", Name: "Tornillo"}))
	require.NoError(t, warehouses.Create(ctx, &entity.Warehouse{ID: whA, Name: "Bodega A"}))

	runner := memory.NewTxRunner(store, 30*time.Millisecond)
	engine := inventory.NewEngine(runner, memory.NewLedgerRepository(store), inventory.NewRepositoryCatalog(products, warehouses))

	hold := make(chan struct{})
	held := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- runner.Run(ctx, []entity.StockKey{{ProductID: prodID, WarehouseID: whA}},
			func(repository.LedgerRepository, repository.StockRepository) error {
				close(held)
				<-hold
				return nil
			})
	}()
	<-held

	_, err := engine.Adjustment(ctx, inventory.AdjustmentInput{ProductID: prodID, WarehouseID: whA, Delta: qty(1), Reference: "X"})
	assertRetryable(t, err)

	close(hold)
	require.NoError(t, <-done)
	_, err = engine.Adjustment(ctx, inventory.AdjustmentInput{ProductID: prodID, WarehouseID: whA, Delta: qty(1), Reference: "X"})
	require.NoError(t, err, "liberado el par, el reintento debe funcionar")
}

// assertRetryable helper para errores de contención.
func assertRetryable(t *testing.T, err error) {
	t.Helper()
	var cte *domain.ContentionTimeoutError
	require.True(t, errors.As(err, &cte), "se esperaba ContentionTimeoutError, llegó %v", err)
	assert.True(t, domain.IsRetryable(err))
}
