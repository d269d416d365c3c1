package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/jhoicas/stockmaster-api/internal/domain"
	"github.com/jhoicas/stockmaster-api/internal/domain/entity"
)

// gateSize capacidad de la compuerta global: cada Run toma 1, RunExclusive la toma completa.
const gateSize = 1 << 30

// pairLock semáforo de un par; refs cuenta a quienes lo esperan o lo tienen.
type pairLock struct {
	sem  *semaphore.Weighted
	refs int
}

// Locker bloqueos por par (producto, bodega) con espera acotada. La entrada de un par se
// borra cuando nadie lo tiene ni lo espera.
type Locker struct {
	wait  time.Duration
	gate  *semaphore.Weighted
	mu    sync.Mutex
	pairs map[entity.StockKey]*pairLock
}

// NewLocker crea el gestor de bloqueos. wait es la espera máxima para obtener todos los pares.
func NewLocker(wait time.Duration) *Locker {
	return &Locker{
		wait:  wait,
		gate:  semaphore.NewWeighted(gateSize),
		pairs: make(map[entity.StockKey]*pairLock),
	}
}

// pin devuelve el semáforo del par y suma una referencia.
func (l *Locker) pin(k entity.StockKey) *semaphore.Weighted {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.pairs[k]
	if !ok {
		p = &pairLock{sem: semaphore.NewWeighted(1)}
		l.pairs[k] = p
	}
	p.refs++
	return p.sem
}

// unpin quita una referencia; sin referencias el par sale del mapa.
func (l *Locker) unpin(k entity.StockKey) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.pairs[k]
	if !ok {
		return
	}
	if p.refs--; p.refs <= 0 {
		delete(l.pairs, k)
	}
}

// Pairs cantidad de pares con bloqueo tomado o en espera.
func (l *Locker) Pairs() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pairs)
}

// Acquire toma la compuerta compartida y los pares en el orden global. Devuelve la función
// que libera todo. Los pares repetidos se toman una sola vez.
func (l *Locker) Acquire(ctx context.Context, keys []entity.StockKey) (func(), error) {
	wctx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	if err := l.gate.Acquire(wctx, 1); err != nil {
		return nil, l.timeout(ctx, "ledger", err)
	}
	sorted := entity.SortKeys(keys)
	held := make([]*semaphore.Weighted, 0, len(sorted))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Release(1)
			l.unpin(sorted[i])
		}
		l.gate.Release(1)
	}
	for _, k := range sorted {
		s := l.pin(k)
		if err := s.Acquire(wctx, 1); err != nil {
			l.unpin(k)
			release()
			return nil, l.timeout(ctx, k.String(), err)
		}
		held = append(held, s)
	}
	return release, nil
}

// AcquireExclusive espera a que terminen las transacciones en curso y bloquea las nuevas.
func (l *Locker) AcquireExclusive(ctx context.Context) (func(), error) {
	wctx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()
	if err := l.gate.Acquire(wctx, gateSize); err != nil {
		return nil, l.timeout(ctx, "ledger", err)
	}
	return func() { l.gate.Release(gateSize) }, nil
}

// timeout distingue la cancelación del llamador de la espera agotada.
func (l *Locker) timeout(parent context.Context, resource string, err error) error {
	if perr := parent.Err(); perr != nil {
		return perr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.ContentionTimeoutError{Resource: resource, Wait: l.wait, Err: err}
	}
	return err
}
