package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/stockmaster-api/internal/application/inventory"
	"github.com/jhoicas/stockmaster-api/internal/domain"
	"github.com/jhoicas/stockmaster-api/internal/domain/entity"
	"github.com/jhoicas/stockmaster-api/internal/domain/repository"
)

// Ensure TxRunner implements inventory.TxRunner.
var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL con los pares bloqueados.
type TxRunner struct {
	pool     *pgxpool.Pool
	lockWait time.Duration
}

// NewTxRunner construye el runner con el pool. lockWait acota la espera por cada bloqueo.
func NewTxRunner(pool *pgxpool.Pool, lockWait time.Duration) *TxRunner {
	return &TxRunner{pool: pool, lockWait: lockWait}
}

// Run inicia una transacción, bloquea las filas de stock de los pares en el orden global
// (SELECT ... FOR UPDATE), ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, keys []entity.StockKey, fn func(
	ledgerRepo repository.LedgerRepository,
	stockRepo repository.StockRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		for _, k := range entity.SortKeys(keys) {
			if err := lockPair(ctx, tx, k); err != nil {
				return r.contention(k.String(), err)
			}
		}
		return fn(NewLedgerRepository(tx), NewStockRepository(tx))
	})
}

// RunExclusive bloquea libro y vista en modo EXCLUSIVE: las lecturas siguen, las escrituras esperan.
func (r *TxRunner) RunExclusive(ctx context.Context, fn func(
	ledgerRepo repository.LedgerRepository,
	stockRepo repository.StockRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `LOCK TABLE ledger_entries, stock IN EXCLUSIVE MODE`); err != nil {
			return r.contention("ledger", fmt.Errorf("lock tables: %w", err))
		}
		return fn(NewLedgerRepository(tx), NewStockRepository(tx))
	})
}

func (r *TxRunner) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// SET no admite parámetros; el valor es un entero formateado por nosotros.
	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockWait.Milliseconds())); err != nil {
		return fmt.Errorf("set lock_timeout: %w", err)
	}
	if err := fn(tx); err != nil {
		return r.contention("ledger", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return r.contention("ledger", fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// lockPair garantiza que exista la fila del par y la bloquea hasta el fin de la transacción.
func lockPair(ctx context.Context, tx pgx.Tx, k entity.StockKey) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO stock (product_id, warehouse_id, quantity, last_seq, updated_at)
		VALUES ($1, $2, 0, 0, now())
		ON CONFLICT (product_id, warehouse_id) DO NOTHING`, k.ProductID, k.WarehouseID)
	if err != nil {
		return fmt.Errorf("ensure stock row: %w", err)
	}
	var one int
	err = tx.QueryRow(ctx, `
		SELECT 1 FROM stock WHERE product_id = $1 AND warehouse_id = $2 FOR UPDATE`,
		k.ProductID, k.WarehouseID).Scan(&one)
	if err != nil {
		return fmt.Errorf("lock stock row: %w", err)
	}
	return nil
}

// contention traduce lock_timeout/deadlock a ContentionTimeoutError; el resto pasa igual.
func (r *TxRunner) contention(resource string, err error) error {
	if err == nil || errors.Is(err, domain.ErrContentionTimeout) || !isLockTimeout(err) {
		return err
	}
	return &domain.ContentionTimeoutError{Resource: resource, Wait: r.lockWait, Err: err}
}
