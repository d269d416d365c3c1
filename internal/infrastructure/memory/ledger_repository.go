package memory

import (
	"context"

	"github.com/jhoicas/stockmaster-api/internal/domain"
	"github.com/jhoicas/stockmaster-api/internal/domain/entity"
	"github.com/jhoicas/stockmaster-api/internal/domain/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

// LedgerRepo libro en memoria. Con tx != nil las escrituras quedan preparadas hasta el commit
// y las lecturas ven el estado confirmado más lo preparado.
type LedgerRepo struct {
	s  *Store
	tx *txState
}

// NewLedgerRepository repositorio sin transacción: cada escritura se confirma al instante.
func NewLedgerRepository(s *Store) *LedgerRepo {
	return &LedgerRepo{s: s}
}

func (r *LedgerRepo) Append(_ context.Context, entries ...*entity.Transaction) error {
	for _, tx := range entries {
		tx.Seq = r.s.nextSeq()
		if tx.Committed() {
			tx.CommitSeq = tx.Seq
		}
	}
	if r.tx != nil {
		for _, tx := range entries {
			if r.tx.staged(tx.ID) != nil {
				return domain.ErrDuplicate
			}
			r.tx.appended = append(r.tx.appended, clone(tx))
		}
		return nil
	}
	st := newTxState()
	for _, tx := range entries {
		st.appended = append(st.appended, clone(tx))
	}
	return r.s.commit(st)
}

func (r *LedgerRepo) GetByID(_ context.Context, id string) (*entity.Transaction, error) {
	if r.tx != nil {
		if tx := r.tx.staged(id); tx != nil {
			return clone(tx), nil
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	tx, ok := r.s.entries[id]
	if !ok {
		return nil, nil
	}
	return clone(tx), nil
}

// snapshot estado visible: confirmado con lo preparado superpuesto.
func (r *LedgerRepo) snapshot(match func(*entity.Transaction) bool) []*entity.Transaction {
	r.s.mu.RLock()
	out := make([]*entity.Transaction, 0, len(r.s.entries))
	for id, tx := range r.s.entries {
		if r.tx != nil {
			if st := r.tx.staged(id); st != nil {
				tx = st
			}
		}
		if match(tx) {
			out = append(out, clone(tx))
		}
	}
	r.s.mu.RUnlock()
	if r.tx != nil {
		for _, tx := range r.tx.appended {
			if match(tx) {
				out = append(out, clone(tx))
			}
		}
	}
	return out
}

func (r *LedgerRepo) List(_ context.Context, f repository.LedgerFilter) ([]*entity.Transaction, error) {
	list := r.snapshot(filterFunc(f))
	sortBySeq(list, true)
	return page(list, f.Limit, f.Offset), nil
}

func (r *LedgerRepo) Count(_ context.Context, f repository.LedgerFilter) (int, error) {
	return len(r.snapshot(filterFunc(f))), nil
}

func (r *LedgerRepo) ListByPair(_ context.Context, productID, warehouseID string) ([]*entity.Transaction, error) {
	list := r.snapshot(func(tx *entity.Transaction) bool {
		return tx.ProductID == productID && tx.WarehouseID == warehouseID
	})
	sortBySeq(list, false)
	return list, nil
}

func (r *LedgerRepo) ListAll(_ context.Context) ([]*entity.Transaction, error) {
	list := r.snapshot(func(*entity.Transaction) bool { return true })
	sortBySeq(list, false)
	return list, nil
}

// UpdateStatus exige que el estado actual sea change.From; otra escritura concurrente
// que ya lo movió produce InvalidTransitionError.
func (r *LedgerRepo) UpdateStatus(ctx context.Context, change *entity.StatusChange) error {
	cur, err := r.GetByID(ctx, change.TransactionID)
	if err != nil {
		return err
	}
	if cur == nil {
		return domain.NotFound("transaction_id", change.TransactionID)
	}
	if cur.Status != change.From {
		return &domain.InvalidTransitionError{
			TransactionID: cur.ID, Type: string(cur.Type), From: string(cur.Status), To: string(change.To),
		}
	}
	change.Seq = r.s.nextSeq()
	cur.Status = change.To
	cur.UpdatedAt = change.ChangedAt
	if change.Commits {
		at := change.ChangedAt
		cur.CommitSeq = change.Seq
		cur.CommittedAt = &at
	}

	st := r.tx
	if st == nil {
		st = newTxState()
	}
	replacedAppended := false
	for i, tx := range st.appended {
		if tx.ID == cur.ID {
			st.appended[i] = cur
			replacedAppended = true
		}
	}
	if !replacedAppended {
		st.updated[cur.ID] = cur
	}
	st.changes = append(st.changes, *change)
	if r.tx == nil {
		return r.s.commit(st)
	}
	return nil
}

func (r *LedgerRepo) History(_ context.Context, transactionID string) ([]entity.StatusChange, error) {
	r.s.mu.RLock()
	out := append([]entity.StatusChange(nil), r.s.history[transactionID]...)
	r.s.mu.RUnlock()
	if r.tx != nil {
		for _, c := range r.tx.changes {
			if c.TransactionID == transactionID {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func filterFunc(f repository.LedgerFilter) func(*entity.Transaction) bool {
	return func(tx *entity.Transaction) bool {
		switch {
		case f.ProductID != "" && tx.ProductID != f.ProductID,
			f.WarehouseID != "" && tx.WarehouseID != f.WarehouseID,
			f.Type != "" && tx.Type != f.Type,
			f.Status != "" && tx.Status != f.Status,
			f.From != nil && tx.Timestamp.Before(*f.From),
			f.To != nil && tx.Timestamp.After(*f.To):
			return false
		}
		return true
	}
}

// page aplica offset y limit; limit <= 0 devuelve todo desde offset.
func page[T any](list []T, limit, offset int) []T {
	if offset > len(list) {
		return list[:0]
	}
	if offset > 0 {
		list = list[offset:]
	}
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
