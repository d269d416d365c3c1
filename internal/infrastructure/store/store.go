// Package store elige el backend de persistencia (PostgreSQL o memoria) según la configuración.
package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jhoicas/stockmaster-api/internal/application/inventory"
	"github.com/jhoicas/stockmaster-api/internal/domain/repository"
	"github.com/jhoicas/stockmaster-api/internal/infrastructure/memory"
	"github.com/jhoicas/stockmaster-api/internal/infrastructure/postgres"
	"github.com/jhoicas/stockmaster-api/pkg/config"
)

// Backend repositorios y runner de un mismo almacenamiento.
type Backend struct {
	Driver     string
	Products   repository.ProductRepository
	Warehouses repository.WarehouseRepository
	Ledger     repository.LedgerRepository
	Stock      repository.StockRepository
	Runner     inventory.TxRunner
	close      func()
}

// Close libera conexiones; en memoria no hace nada.
func (b *Backend) Close() {
	if b.close != nil {
		b.close()
	}
}

// Open abre el backend configurado. Con postgres aplica el esquema antes de devolver.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Backend, error) {
	switch cfg.DB.Driver {
	case config.StoreDriverMemory:
		s := memory.NewStore()
		log.Warn().Msg("usando almacenamiento en memoria: los datos se pierden al reiniciar")
		return &Backend{
			Driver:     cfg.DB.Driver,
			Products:   memory.NewProductRepository(s),
			Warehouses: memory.NewWarehouseRepository(s),
			Ledger:     memory.NewLedgerRepository(s),
			Stock:      memory.NewStockRepository(s),
			Runner:     memory.NewTxRunner(s, cfg.Ledger.LockTimeout),
		}, nil

	case config.StoreDriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB, log)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("aplicar esquema: %w", err)
		}
		return &Backend{
			Driver:     cfg.DB.Driver,
			Products:   postgres.NewProductRepository(pool),
			Warehouses: postgres.NewWarehouseRepository(pool),
			Ledger:     postgres.NewLedgerRepository(pool),
			Stock:      postgres.NewStockRepository(pool),
			Runner:     postgres.NewTxRunner(pool, cfg.Ledger.LockTimeout),
			close:      pool.Close,
		}, nil
	}
	return nil, fmt.Errorf("store: driver desconocido %q", cfg.DB.Driver)
}
