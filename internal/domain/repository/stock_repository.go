package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockmaster-api/internal/domain/entity"
)

// StockRepository define el puerto de la vista materializada de stock por bodega+producto.
// Solo se muta dentro de transacciones que ya tienen bloqueado el par.
type StockRepository interface {
	// Get devuelve cantidad cero si el par no tiene fila.
	Get(ctx context.Context, productID, warehouseID string) (*entity.Stock, error)
	// Apply suma delta a la cantidad del par y registra seq como última escritura reflejada.
	Apply(ctx context.Context, productID, warehouseID string, delta decimal.Decimal, seq int64) error
	ListByWarehouse(ctx context.Context, warehouseID string) ([]*entity.Stock, error)
	ListAll(ctx context.Context) ([]*entity.Stock, error)
	// ReplaceAll sustituye la vista completa (reconstrucción desde el libro).
	ReplaceAll(ctx context.Context, levels []*entity.Stock) error
}
