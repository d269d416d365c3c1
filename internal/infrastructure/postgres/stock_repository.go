package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockmaster-api/internal/domain/entity"
	"github.com/jhoicas/stockmaster-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// Get obtiene el stock actual de un producto en una bodega (cero si no hay fila).
func (r *StockRepo) Get(ctx context.Context, productID, warehouseID string) (*entity.Stock, error) {
	query := `
		SELECT product_id, warehouse_id, quantity, last_seq, updated_at
		FROM stock WHERE product_id = $1 AND warehouse_id = $2`
	var s entity.Stock
	err := r.q.QueryRow(ctx, query, productID, warehouseID).Scan(
		&s.ProductID, &s.WarehouseID, &s.Quantity, &s.LastSeq, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.Stock{ProductID: productID, WarehouseID: warehouseID, Quantity: decimal.Zero}, nil
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return &s, nil
}

// Apply suma delta a la fila del par (creándola si falta). El CHECK quantity >= 0 de la tabla
// es la última barrera si una verificación de stock fallara.
func (r *StockRepo) Apply(ctx context.Context, productID, warehouseID string, delta decimal.Decimal, seq int64) error {
	query := `
		INSERT INTO stock (product_id, warehouse_id, quantity, last_seq, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (product_id, warehouse_id)
		DO UPDATE SET quantity = stock.quantity + EXCLUDED.quantity,
			last_seq = GREATEST(stock.last_seq, EXCLUDED.last_seq),
			updated_at = now()`
	if _, err := r.q.Exec(ctx, query, productID, warehouseID, delta, seq); err != nil {
		return fmt.Errorf("apply stock: %w", err)
	}
	return nil
}

// ListByWarehouse niveles de una bodega.
func (r *StockRepo) ListByWarehouse(ctx context.Context, warehouseID string) ([]*entity.Stock, error) {
	return r.list(ctx, `
		SELECT product_id, warehouse_id, quantity, last_seq, updated_at
		FROM stock WHERE warehouse_id = $1 ORDER BY product_id`, warehouseID)
}

// ListAll niveles de todos los pares en el orden global de bloqueo.
func (r *StockRepo) ListAll(ctx context.Context) ([]*entity.Stock, error) {
	return r.list(ctx, `
		SELECT product_id, warehouse_id, quantity, last_seq, updated_at
		FROM stock ORDER BY warehouse_id, product_id`)
}

// ReplaceAll vacía la vista y la recarga con COPY dentro de un savepoint.
func (r *StockRepo) ReplaceAll(ctx context.Context, levels []*entity.Stock) error {
	return inTx(ctx, r.q, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM stock`); err != nil {
			return fmt.Errorf("clear stock: %w", err)
		}
		_, err := tx.CopyFrom(ctx, pgx.Identifier{"stock"},
			[]string{"product_id", "warehouse_id", "quantity", "last_seq", "updated_at"},
			pgx.CopyFromSlice(len(levels), func(i int) ([]any, error) {
				l := levels[i]
				return []any{l.ProductID, l.WarehouseID, l.Quantity, l.LastSeq, l.UpdatedAt}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("copy stock: %w", err)
		}
		return nil
	})
}

func (r *StockRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Stock, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	defer rows.Close()
	var list []*entity.Stock
	for rows.Next() {
		var s entity.Stock
		if err := rows.Scan(&s.ProductID, &s.WarehouseID, &s.Quantity, &s.LastSeq, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}
