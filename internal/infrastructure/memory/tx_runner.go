package memory

import (
	"context"
	"time"

	"github.com/jhoicas/stockmaster-api/internal/application/inventory"
	"github.com/jhoicas/stockmaster-api/internal/domain/entity"
	"github.com/jhoicas/stockmaster-api/internal/domain/repository"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks con los pares bloqueados y las escrituras preparadas,
// que se confirman juntas solo si fn termina sin error.
type TxRunner struct {
	store *Store
	locks *Locker
}

// NewTxRunner construye el runner. lockWait es la espera máxima por los bloqueos.
func NewTxRunner(store *Store, lockWait time.Duration) *TxRunner {
	return &TxRunner{store: store, locks: NewLocker(lockWait)}
}

func (r *TxRunner) Run(ctx context.Context, keys []entity.StockKey, fn func(
	ledgerRepo repository.LedgerRepository,
	stockRepo repository.StockRepository,
) error) error {
	release, err := r.locks.Acquire(ctx, keys)
	if err != nil {
		return err
	}
	defer release()
	return r.run(ctx, fn)
}

func (r *TxRunner) RunExclusive(ctx context.Context, fn func(
	ledgerRepo repository.LedgerRepository,
	stockRepo repository.StockRepository,
) error) error {
	release, err := r.locks.AcquireExclusive(ctx)
	if err != nil {
		return err
	}
	defer release()
	return r.run(ctx, fn)
}

func (r *TxRunner) run(ctx context.Context, fn func(repository.LedgerRepository, repository.StockRepository) error) error {
	st := newTxState()
	if err := fn(&LedgerRepo{s: r.store, tx: st}, &StockRepo{s: r.store, tx: st}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.store.commit(st)
}
