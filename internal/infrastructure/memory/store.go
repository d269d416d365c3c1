// Package memory implementa los puertos de persistencia en memoria (desarrollo y tests).
// Las escrituras dentro de un TxRunner se preparan en un txState y se aplican juntas
// al confirmar; si fn devuelve error no queda rastro.
package memory

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/jhoicas/stockmaster-api/internal/domain"
	"github.com/jhoicas/stockmaster-api/internal/domain/entity"
)

// Store estado compartido: libro, historial, vista de stock y catálogo.
type Store struct {
	mu  sync.RWMutex
	seq atomic.Int64

	entries map[string]*entity.Transaction
	history map[string][]entity.StatusChange
	stock   map[entity.StockKey]*entity.Stock

	products   map[string]*entity.Product
	warehouses map[string]*entity.Warehouse
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{
		entries:    make(map[string]*entity.Transaction),
		history:    make(map[string][]entity.StatusChange),
		stock:      make(map[entity.StockKey]*entity.Stock),
		products:   make(map[string]*entity.Product),
		warehouses: make(map[string]*entity.Warehouse),
	}
}

// nextSeq siguiente número de la secuencia del libro. Un rollback deja huecos.
func (s *Store) nextSeq() int64 { return s.seq.Add(1) }

// txState escrituras preparadas de una transacción. Lo usa una sola goroutine.
type txState struct {
	appended []*entity.Transaction
	updated  map[string]*entity.Transaction
	changes  []entity.StatusChange
	deltas   map[entity.StockKey]*entity.Stock // Quantity es el delta acumulado
	replace  []*entity.Stock
	replaced bool
}

func newTxState() *txState {
	return &txState{
		updated: make(map[string]*entity.Transaction),
		deltas:  make(map[entity.StockKey]*entity.Stock),
	}
}

// staged devuelve el asiento preparado en esta transacción, si lo hay.
func (t *txState) staged(id string) *entity.Transaction {
	if tx, ok := t.updated[id]; ok {
		return tx
	}
	for _, tx := range t.appended {
		if tx.ID == id {
			return tx
		}
	}
	return nil
}

// commit aplica las escrituras preparadas de forma atómica respecto a los lectores.
func (s *Store) commit(t *txState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tx := range t.appended {
		if _, ok := s.entries[tx.ID]; ok {
			return domain.ErrDuplicate
		}
	}
	for _, tx := range t.appended {
		s.entries[tx.ID] = clone(tx)
	}
	for id, tx := range t.updated {
		if _, ok := s.entries[id]; ok {
			s.entries[id] = clone(tx)
		}
	}
	for _, c := range t.changes {
		s.history[c.TransactionID] = append(s.history[c.TransactionID], c)
	}
	if t.replaced {
		s.stock = make(map[entity.StockKey]*entity.Stock, len(t.replace))
		for _, l := range t.replace {
			c := *l
			s.stock[entity.StockKey{ProductID: l.ProductID, WarehouseID: l.WarehouseID}] = &c
		}
	}
	for k, d := range t.deltas {
		s.applyLocked(k, d)
	}
	return nil
}

// applyLocked suma el delta al par. Requiere s.mu tomado en escritura.
func (s *Store) applyLocked(k entity.StockKey, d *entity.Stock) {
	cur, ok := s.stock[k]
	if !ok {
		cur = &entity.Stock{ProductID: k.ProductID, WarehouseID: k.WarehouseID}
		s.stock[k] = cur
	}
	cur.Quantity = cur.Quantity.Add(d.Quantity)
	if d.LastSeq > cur.LastSeq {
		cur.LastSeq = d.LastSeq
	}
	cur.UpdatedAt = d.UpdatedAt
}

func clone(tx *entity.Transaction) *entity.Transaction {
	c := *tx
	if tx.CommittedAt != nil {
		at := *tx.CommittedAt
		c.CommittedAt = &at
	}
	return &c
}

func sortBySeq(list []*entity.Transaction, desc bool) {
	sort.Slice(list, func(i, j int) bool {
		if desc {
			return list[i].Seq > list[j].Seq
		}
		return list[i].Seq < list[j].Seq
	})
}
