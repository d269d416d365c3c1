package inventory

import (
	"context"

	"github.com/jhoicas/stockmaster-api/internal/application/dto"
	"github.com/jhoicas/stockmaster-api/internal/domain/entity"
	"github.com/jhoicas/stockmaster-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Garantiza atomicidad para el motor de inventario.
type TxRunner interface {
	// Run bloquea los pares indicados en el orden global (bodega, producto) con espera acotada,
	// ejecuta fn y hace Commit o Rollback. Sin pares solo abre la transacción.
	// Si no obtiene los bloqueos a tiempo devuelve *domain.ContentionTimeoutError.
	Run(ctx context.Context, keys []entity.StockKey, fn func(
		ledgerRepo repository.LedgerRepository,
		stockRepo repository.StockRepository,
	) error) error

	// RunExclusive excluye cualquier otra escritura mientras dura fn (reconstrucción de la vista).
	RunExclusive(ctx context.Context, fn func(
		ledgerRepo repository.LedgerRepository,
		stockRepo repository.StockRepository,
	) error) error
}

// Description datos descriptivos de un producto o bodega.
type Description struct {
	Name     string
	SKU      string
	Category string
}

// Catalog colaborador externo para existencia y descripción de productos y bodegas.
type Catalog interface {
	ProductExists(ctx context.Context, id string) (bool, error)
	WarehouseExists(ctx context.Context, id string) (bool, error)
	DescribeProduct(ctx context.Context, id string) (Description, error)
	DescribeWarehouse(ctx context.Context, id string) (Description, error)
}

// Tipos de evento publicados tras cada escritura confirmada.
const (
	EventTransactionCreated = "transaction_created"
	EventStatusChanged      = "status_changed"
	EventProjectionRebuilt  = "projection_rebuilt"
)

// LedgerEvent notificación de una escritura ya confirmada en el libro.
type LedgerEvent struct {
	Kind         string
	Transactions []*entity.Transaction
	Change       *entity.StatusChange
}

// EventPublisher difunde eventos del libro (p.ej. WebSocket). No debe bloquear.
type EventPublisher interface {
	Publish(ctx context.Context, event LedgerEvent)
}

// NoopPublisher descarta los eventos.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, LedgerEvent) {}

// StockReportGenerator genera el reporte de existencias de una bodega.
type StockReportGenerator interface {
	GenerateStockReport(ctx context.Context, summary dto.WarehouseSummaryDTO, items []dto.WarehouseItemDTO) ([]byte, error)
}
