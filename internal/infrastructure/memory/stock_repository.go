package memory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockmaster-api/internal/domain/entity"
	"github.com/jhoicas/stockmaster-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo vista materializada de stock en memoria.
type StockRepo struct {
	s  *Store
	tx *txState
}

// NewStockRepository repositorio sin transacción.
func NewStockRepository(s *Store) *StockRepo {
	return &StockRepo{s: s}
}

// base nivel confirmado del par (o el reemplazo preparado si hubo ReplaceAll en esta tx).
func (r *StockRepo) base(k entity.StockKey) entity.Stock {
	if r.tx != nil && r.tx.replaced {
		for _, l := range r.tx.replace {
			if l.ProductID == k.ProductID && l.WarehouseID == k.WarehouseID {
				return *l
			}
		}
		return entity.Stock{ProductID: k.ProductID, WarehouseID: k.WarehouseID}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if cur, ok := r.s.stock[k]; ok {
		return *cur
	}
	return entity.Stock{ProductID: k.ProductID, WarehouseID: k.WarehouseID}
}

// overlay suma lo preparado en la tx al nivel confirmado.
func (r *StockRepo) overlay(l entity.Stock) *entity.Stock {
	if r.tx != nil {
		if d, ok := r.tx.deltas[entity.StockKey{ProductID: l.ProductID, WarehouseID: l.WarehouseID}]; ok {
			l.Quantity = l.Quantity.Add(d.Quantity)
			if d.LastSeq > l.LastSeq {
				l.LastSeq = d.LastSeq
			}
			l.UpdatedAt = d.UpdatedAt
		}
	}
	return &l
}

func (r *StockRepo) Get(_ context.Context, productID, warehouseID string) (*entity.Stock, error) {
	return r.overlay(r.base(entity.StockKey{ProductID: productID, WarehouseID: warehouseID})), nil
}

func (r *StockRepo) Apply(_ context.Context, productID, warehouseID string, delta decimal.Decimal, seq int64) error {
	k := entity.StockKey{ProductID: productID, WarehouseID: warehouseID}
	if r.tx == nil {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
		r.s.applyLocked(k, &entity.Stock{Quantity: delta, LastSeq: seq, UpdatedAt: time.Now()})
		return nil
	}
	d, ok := r.tx.deltas[k]
	if !ok {
		d = &entity.Stock{ProductID: productID, WarehouseID: warehouseID}
		r.tx.deltas[k] = d
	}
	d.Quantity = d.Quantity.Add(delta)
	if seq > d.LastSeq {
		d.LastSeq = seq
	}
	d.UpdatedAt = time.Now()
	return nil
}

func (r *StockRepo) ListByWarehouse(ctx context.Context, warehouseID string) ([]*entity.Stock, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.Stock, 0)
	for _, l := range all {
		if l.WarehouseID == warehouseID {
			out = append(out, l)
		}
	}
	return out, nil
}

// ListAll niveles de todos los pares en el orden global (bodega, producto).
func (r *StockRepo) ListAll(_ context.Context) ([]*entity.Stock, error) {
	keys := make([]entity.StockKey, 0)
	if r.tx != nil && r.tx.replaced {
		for _, l := range r.tx.replace {
			keys = append(keys, entity.StockKey{ProductID: l.ProductID, WarehouseID: l.WarehouseID})
		}
	} else {
		r.s.mu.RLock()
		for k := range r.s.stock {
			keys = append(keys, k)
		}
		r.s.mu.RUnlock()
	}
	if r.tx != nil {
		for k := range r.tx.deltas {
			keys = append(keys, k)
		}
	}
	keys = entity.SortKeys(keys)
	out := make([]*entity.Stock, 0, len(keys))
	for _, k := range keys {
		out = append(out, r.overlay(r.base(k)))
	}
	return out, nil
}

func (r *StockRepo) ReplaceAll(_ context.Context, levels []*entity.Stock) error {
	st := r.tx
	if st == nil {
		st = newTxState()
	}
	st.replaced = true
	st.replace = make([]*entity.Stock, 0, len(levels))
	for _, l := range levels {
		c := *l
		st.replace = append(st.replace, &c)
	}
	st.deltas = make(map[entity.StockKey]*entity.Stock)
	if r.tx == nil {
		return r.s.commit(st)
	}
	return nil
}
