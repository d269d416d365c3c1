package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockmaster-api/internal/domain"
	"github.com/jhoicas/stockmaster-api/internal/domain/entity"
	domaininv "github.com/jhoicas/stockmaster-api/internal/domain/inventory"
	"github.com/jhoicas/stockmaster-api/internal/domain/repository"
)

// Projector deriva la cantidad por (producto, bodega) desde el libro. La vista materializada
// la mantiene el Engine de forma incremental; aquí están la lectura, la consulta en el tiempo,
// la verificación contra un replay completo y la reconstrucción.
type Projector struct {
	txRunner   TxRunner
	ledgerRepo repository.LedgerRepository
	stockRepo  repository.StockRepository
	events     EventPublisher
	log        zerolog.Logger
}

// NewProjector construye el proyector.
func NewProjector(txRunner TxRunner, ledgerRepo repository.LedgerRepository, stockRepo repository.StockRepository, events EventPublisher, log zerolog.Logger) *Projector {
	if events == nil {
		events = NoopPublisher{}
	}
	return &Projector{txRunner: txRunner, ledgerRepo: ledgerRepo, stockRepo: stockRepo, events: events, log: log}
}

// Quantity cantidad actual desde la vista materializada.
func (p *Projector) Quantity(ctx context.Context, productID, warehouseID string) (decimal.Decimal, error) {
	if productID == "" || warehouseID == "" {
		return decimal.Zero, domain.NewValidationError("product_id/warehouse_id", "requeridos")
	}
	s, err := p.stockRepo.Get(ctx, productID, warehouseID)
	if err != nil {
		return decimal.Zero, err
	}
	return s.Quantity, nil
}

// QuantityAt cantidad del par en el instante at, replicando los asientos del par que ya
// contaban en ese momento.
func (p *Projector) QuantityAt(ctx context.Context, productID, warehouseID string, at time.Time) (decimal.Decimal, error) {
	if productID == "" || warehouseID == "" {
		return decimal.Zero, domain.NewValidationError("product_id/warehouse_id", "requeridos")
	}
	entries, err := p.ledgerRepo.ListByPair(ctx, productID, warehouseID)
	if err != nil {
		return decimal.Zero, err
	}
	q, ok := domaininv.FoldUntil(entries, &at)[entity.StockKey{ProductID: productID, WarehouseID: warehouseID}]
	if !ok {
		return decimal.Zero, nil
	}
	return q, nil
}

// Replay recalcula todas las cantidades desde el libro, sin tocar la vista.
func (p *Projector) Replay(ctx context.Context) (map[entity.StockKey]decimal.Decimal, error) {
	entries, err := p.ledgerRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return domaininv.Fold(entries), nil
}

// Drift diferencia entre la vista materializada y el replay del libro.
type Drift struct {
	Key      entity.StockKey
	Cached   decimal.Decimal
	Replayed decimal.Decimal
}

// Verify compara la vista con el replay. Una lista vacía significa que coinciden.
// Se ejecuta en exclusiva para no comparar contra escrituras a medio confirmar.
func (p *Projector) Verify(ctx context.Context) ([]Drift, error) {
	var drifts []Drift
	err := p.txRunner.RunExclusive(ctx, func(ledgerRepo repository.LedgerRepository, stockRepo repository.StockRepository) error {
		entries, err := ledgerRepo.ListAll(ctx)
		if err != nil {
			return err
		}
		replayed := domaininv.Fold(entries)
		cached, err := stockRepo.ListAll(ctx)
		if err != nil {
			return err
		}
		seen := make(map[entity.StockKey]struct{}, len(cached))
		for _, s := range cached {
			k := entity.StockKey{ProductID: s.ProductID, WarehouseID: s.WarehouseID}
			seen[k] = struct{}{}
			if r := replayed[k]; !r.Equal(s.Quantity) {
				drifts = append(drifts, Drift{Key: k, Cached: s.Quantity, Replayed: r})
			}
		}
		for k, r := range replayed {
			if _, ok := seen[k]; !ok && !r.IsZero() {
				drifts = append(drifts, Drift{Key: k, Cached: decimal.Zero, Replayed: r})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(drifts, func(i, j int) bool { return drifts[i].Key.Less(drifts[j].Key) })
	if len(drifts) > 0 {
		p.log.Warn().Int("drifts", len(drifts)).Msg("la vista de stock difiere del libro")
	}
	return drifts, nil
}

// Rebuild reemplaza la vista materializada con el replay del libro. Devuelve los pares escritos.
func (p *Projector) Rebuild(ctx context.Context) (int, error) {
	var n int
	err := p.txRunner.RunExclusive(ctx, func(ledgerRepo repository.LedgerRepository, stockRepo repository.StockRepository) error {
		entries, err := ledgerRepo.ListAll(ctx)
		if err != nil {
			return err
		}
		lastSeq := make(map[entity.StockKey]int64)
		for _, tx := range entries {
			if !domaininv.Counts(tx) {
				continue
			}
			seq := tx.CommitSeq
			if seq == 0 {
				seq = tx.Seq
			}
			if seq > lastSeq[tx.Key()] {
				lastSeq[tx.Key()] = seq
			}
		}
		now := time.Now()
		replayed := domaininv.Fold(entries)
		levels := make([]*entity.Stock, 0, len(replayed))
		for k, q := range replayed {
			levels = append(levels, &entity.Stock{
				ProductID: k.ProductID, WarehouseID: k.WarehouseID,
				Quantity: q, LastSeq: lastSeq[k], UpdatedAt: now,
			})
		}
		sort.Slice(levels, func(i, j int) bool {
			return entity.StockKey{ProductID: levels[i].ProductID, WarehouseID: levels[i].WarehouseID}.
				Less(entity.StockKey{ProductID: levels[j].ProductID, WarehouseID: levels[j].WarehouseID})
		})
		n = len(levels)
		return stockRepo.ReplaceAll(ctx, levels)
	})
	if err != nil {
		return 0, err
	}
	p.log.Info().Int("pairs", n).Msg("vista de stock reconstruida desde el libro")
	p.events.Publish(ctx, LedgerEvent{Kind: EventProjectionRebuilt})
	return n, nil
}
