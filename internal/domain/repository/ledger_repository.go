package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stockmaster-api/internal/domain/entity"
)

// LedgerFilter criterios de consulta del libro. Campos vacíos no filtran.
type LedgerFilter struct {
	ProductID   string
	WarehouseID string
	Type        entity.TransactionType
	Status      entity.Status
	From        *time.Time
	To          *time.Time
	Limit       int
	Offset      int
}

// LedgerRepository define el puerto de persistencia del libro de stock (append-only).
// No hay Delete: las correcciones se hacen con asientos compensatorios.
type LedgerRepository interface {
	// Append persiste los asientos en una sola escritura atómica y les asigna Seq
	// (y CommitSeq = Seq a los que nacen comprometidos).
	Append(ctx context.Context, entries ...*entity.Transaction) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Transaction, error)
	// List devuelve asientos ordenados por Seq descendente (más recientes primero).
	List(ctx context.Context, filter LedgerFilter) ([]*entity.Transaction, error)
	// Count cuenta los asientos que cumplen el filtro (ignora Limit/Offset).
	Count(ctx context.Context, filter LedgerFilter) (int, error)
	// ListByPair devuelve los asientos de un par en orden de Seq ascendente.
	ListByPair(ctx context.Context, productID, warehouseID string) ([]*entity.Transaction, error)
	// ListAll devuelve todo el libro en orden de Seq ascendente (replay).
	ListAll(ctx context.Context) ([]*entity.Transaction, error)
	// UpdateStatus cambia el estado y registra el cambio en el historial; asigna change.Seq.
	UpdateStatus(ctx context.Context, change *entity.StatusChange) error
	// History historial de cambios de estado de un asiento en orden.
	History(ctx context.Context, transactionID string) ([]entity.StatusChange, error)
}
