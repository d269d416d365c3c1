package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockmaster-api/internal/domain"
	"github.com/jhoicas/stockmaster-api/internal/domain/entity"
	"github.com/jhoicas/stockmaster-api/internal/domain/repository"
	"github.com/jhoicas/stockmaster-api/internal/infrastructure/memory"
)

var pairA = entity.StockKey{ProductID: "p1", WarehouseID: "A"}

func receipt(id string) *entity.Transaction {
	now := time.Now()
	return &entity.Transaction{
		ID: id, Type: entity.TypeReceipt, ProductID: "p1", WarehouseID: "A",
		Quantity: decimal.NewFromInt(10), Reference: "PO-1", Status: entity.StatusOrderPlaced,
		Timestamp: now, UpdatedAt: now,
	}
}

func TestLocker_TimeoutConParOcupado(t *testing.T) {
	l := memory.NewLocker(50 * time.Millisecond)
	release, err := l.Acquire(context.Background(), []entity.StockKey{pairA})
	require.NoError(t, err)
	defer release()

	start := time.Now()
	_, err = l.Acquire(context.Background(), []entity.StockKey{pairA})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrContentionTimeout))
	assert.True(t, domain.IsRetryable(err))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestLocker_ParesDistintosNoSeBloquean(t *testing.T) {
	l := memory.NewLocker(50 * time.Millisecond)
	r1, err := l.Acquire(context.Background(), []entity.StockKey{pairA})
	require.NoError(t, err)
	defer r1()
	r2, err := l.Acquire(context.Background(), []entity.StockKey{{ProductID: "p1", WarehouseID: "B"}})
	require.NoError(t, err)
	r2()
}

func TestLocker_ReleaseLiberaElPar(t *testing.T) {
	l := memory.NewLocker(50 * time.Millisecond)
	r1, err := l.Acquire(context.Background(), []entity.StockKey{pairA, pairA})
	require.NoError(t, err)
	r1()
	r2, err := l.Acquire(context.Background(), []entity.StockKey{pairA})
	require.NoError(t, err)
	r2()
}

func TestLocker_SueltaParesSinUso(t *testing.T) {
	l := memory.NewLocker(50 * time.Millisecond)
	pairB := entity.StockKey{ProductID: "p1", WarehouseID: "B"}

	r1, err := l.Acquire(context.Background(), []entity.StockKey{pairA, pairB})
	require.NoError(t, err)
	assert.Equal(t, 2, l.Pairs())

	// la espera agotada tampoco deja rastro
	_, err = l.Acquire(context.Background(), []entity.StockKey{pairB})
	require.ErrorIs(t, err, domain.ErrContentionTimeout)
	assert.Equal(t, 2, l.Pairs())

	r1()
	assert.Zero(t, l.Pairs())
}

func TestLocker_ExclusivoEsperaTransaccionesEnCurso(t *testing.T) {
	l := memory.NewLocker(50 * time.Millisecond)
	r1, err := l.Acquire(context.Background(), nil)
	require.NoError(t, err)

	_, err = l.AcquireExclusive(context.Background())
	assert.True(t, errors.Is(err, domain.ErrContentionTimeout))

	r1()
	rx, err := l.AcquireExclusive(context.Background())
	require.NoError(t, err)
	rx()
}

func TestLocker_CancelacionDelLlamador(t *testing.T) {
	l := memory.NewLocker(time.Second)
	r1, err := l.Acquire(context.Background(), []entity.StockKey{pairA})
	require.NoError(t, err)
	defer r1()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = l.Acquire(ctx, []entity.StockKey{pairA})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, domain.ErrContentionTimeout))
}

func TestTxRunner_RollbackNoDejaRastro(t *testing.T) {
	store := memory.NewStore()
	runner := memory.NewTxRunner(store, time.Second)
	ctx := context.Background()
	boom := errors.New("boom")

	err := runner.Run(ctx, []entity.StockKey{pairA}, func(l repository.LedgerRepository, s repository.StockRepository) error {
		require.NoError(t, l.Append(ctx, receipt("r1")))
		require.NoError(t, s.Apply(ctx, "p1", "A", decimal.NewFromInt(10), 1))

		// dentro de la tx se ve lo preparado
		got, err := l.GetByID(ctx, "r1")
		require.NoError(t, err)
		require.NotNil(t, got)
		lvl, err := s.Get(ctx, "p1", "A")
		require.NoError(t, err)
		assert.Equal(t, "10", lvl.Quantity.String())
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := memory.NewLedgerRepository(store).GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Nil(t, got)
	lvl, err := memory.NewStockRepository(store).Get(ctx, "p1", "A")
	require.NoError(t, err)
	assert.True(t, lvl.Quantity.IsZero())
}

func TestTxRunner_CommitAplicaTodo(t *testing.T) {
	store := memory.NewStore()
	runner := memory.NewTxRunner(store, time.Second)
	ctx := context.Background()

	err := runner.Run(ctx, []entity.StockKey{pairA}, func(l repository.LedgerRepository, s repository.StockRepository) error {
		tx := receipt("r1")
		if err := l.Append(ctx, tx); err != nil {
			return err
		}
		if err := l.UpdateStatus(ctx, &entity.StatusChange{
			TransactionID: "r1", From: entity.StatusOrderPlaced, To: entity.StatusCompleted,
			Commits: true, ChangedAt: time.Now(),
		}); err != nil {
			return err
		}
		return s.Apply(ctx, "p1", "A", decimal.NewFromInt(10), 2)
	})
	require.NoError(t, err)

	ledger := memory.NewLedgerRepository(store)
	got, err := ledger.GetByID(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entity.StatusCompleted, got.Status)
	assert.True(t, got.Committed())
	assert.Greater(t, got.CommitSeq, got.Seq)

	hist, err := ledger.History(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, got.CommitSeq, hist[0].Seq)

	lvl, err := memory.NewStockRepository(store).Get(ctx, "p1", "A")
	require.NoError(t, err)
	assert.Equal(t, "10", lvl.Quantity.String())
	assert.Equal(t, int64(2), lvl.LastSeq)
}

func TestLedgerRepo_UpdateStatusExigeEstadoOrigen(t *testing.T) {
	store := memory.NewStore()
	ledger := memory.NewLedgerRepository(store)
	ctx := context.Background()
	require.NoError(t, ledger.Append(ctx, receipt("r1")))

	err := ledger.UpdateStatus(ctx, &entity.StatusChange{
		TransactionID: "r1", From: entity.StatusInTransit, To: entity.StatusCompleted, ChangedAt: time.Now(),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestLedgerRepo_ListFiltraYPagina(t *testing.T) {
	store := memory.NewStore()
	ledger := memory.NewLedgerRepository(store)
	ctx := context.Background()
	for _, id := range []string{"r1", "r2", "r3"} {
		require.NoError(t, ledger.Append(ctx, receipt(id)))
	}
	other := receipt("r4")
	other.WarehouseID = "B"
	require.NoError(t, ledger.Append(ctx, other))

	list, err := ledger.List(ctx, repository.LedgerFilter{WarehouseID: "A", Limit: 2})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "r3", list[0].ID)
	assert.Equal(t, "r2", list[1].ID)

	n, err := ledger.Count(ctx, repository.LedgerFilter{WarehouseID: "A"})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	all, err := ledger.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Seq, all[i].Seq)
	}
}

func TestCatalog_Duplicados(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	products := memory.NewProductRepository(store)
	require.NoError(t, products.Create(ctx, &entity.Product{ID: "p1", SKU: "SKU-1", Name: "Tornillo"}))
	assert.ErrorIs(t, products.Create(ctx, &entity.Product{ID: "p2", SKU: "sku-1", Name: "Otro"}), domain.ErrDuplicate)

	warehouses := memory.NewWarehouseRepository(store)
	require.NoError(t, warehouses.Create(ctx, &entity.Warehouse{ID: "w1", Name: "Central"}))
	assert.ErrorIs(t, warehouses.Create(ctx, &entity.Warehouse{ID: "w2", Name: "central"}), domain.ErrDuplicate)

	got, err := warehouses.GetByName(ctx, "CENTRAL")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "w1", got.ID)
}
