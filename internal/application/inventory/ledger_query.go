package inventory

import (
	"context"
	"errors"

	"github.com/jhoicas/stockmaster-api/internal/application/dto"
	"github.com/jhoicas/stockmaster-api/internal/domain"
	"github.com/jhoicas/stockmaster-api/internal/domain/entity"
	domaininv "github.com/jhoicas/stockmaster-api/internal/domain/inventory"
	"github.com/jhoicas/stockmaster-api/internal/domain/repository"
)

// LedgerQuery lecturas del libro en la forma que consume el cliente.
type LedgerQuery struct {
	ledgerRepo repository.LedgerRepository
	catalog    Catalog
}

// NewLedgerQuery construye el caso de uso de consulta.
func NewLedgerQuery(ledgerRepo repository.LedgerRepository, catalog Catalog) *LedgerQuery {
	return &LedgerQuery{ledgerRepo: ledgerRepo, catalog: catalog}
}

// ListRecent asientos más recientes primero según el filtro.
func (q *LedgerQuery) ListRecent(ctx context.Context, filter repository.LedgerFilter) (*dto.TransactionListResponse, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, domain.NewValidationError("type", "tipo desconocido: "+string(filter.Type))
	}
	list, err := q.ledgerRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items, err := q.ToDTOs(ctx, list)
	if err != nil {
		return nil, err
	}
	total, err := q.ledgerRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &dto.TransactionListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset, Total: total},
	}, nil
}

// Get un asiento por ID.
func (q *LedgerQuery) Get(ctx context.Context, id string) (*dto.TransactionDTO, error) {
	tx, err := q.ledgerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, domain.NotFound("transaction_id", id)
	}
	out, err := q.ToDTOs(ctx, []*entity.Transaction{tx})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// History historial de estados de un asiento.
func (q *LedgerQuery) History(ctx context.Context, id string) ([]dto.StatusChangeDTO, error) {
	tx, err := q.ledgerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, domain.NotFound("transaction_id", id)
	}
	changes, err := q.ledgerRepo.History(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]dto.StatusChangeDTO, 0, len(changes))
	for i := range changes {
		out = append(out, ToStatusChangeDTO(&changes[i]))
	}
	return out, nil
}

// ToDTOs resuelve nombres de producto y bodega con un caché por llamada.
func (q *LedgerQuery) ToDTOs(ctx context.Context, list []*entity.Transaction) ([]dto.TransactionDTO, error) {
	products := make(map[string]string)
	warehouses := make(map[string]string)
	out := make([]dto.TransactionDTO, 0, len(list))
	for _, tx := range list {
		pName, ok := products[tx.ProductID]
		if !ok {
			d, err := q.catalog.DescribeProduct(ctx, tx.ProductID)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return nil, err
			}
			pName = d.Name
			products[tx.ProductID] = pName
		}
		wName, ok := warehouses[tx.WarehouseID]
		if !ok {
			d, err := q.catalog.DescribeWarehouse(ctx, tx.WarehouseID)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return nil, err
			}
			wName = d.Name
			warehouses[tx.WarehouseID] = wName
		}
		out = append(out, ToTransactionDTO(tx, pName, wName))
	}
	return out, nil
}

// ToTransactionDTO convierte un asiento a la forma del cliente.
func ToTransactionDTO(tx *entity.Transaction, productName, warehouseName string) dto.TransactionDTO {
	return dto.TransactionDTO{
		ID:              tx.ID,
		Seq:             tx.Seq,
		ProductID:       tx.ProductID,
		ProductName:     productName,
		WarehouseID:     tx.WarehouseID,
		WarehouseName:   warehouseName,
		TransactionType: string(tx.Type),
		Quantity:        tx.SignedQuantity(),
		Reference:       tx.Reference,
		Notes:           tx.Notes,
		Status:          string(tx.Status),
		Pending:         domaininv.IsPending(tx),
		CounterpartID:   tx.CounterpartID,
		CreatedBy:       tx.CreatedBy,
		Timestamp:       tx.Timestamp,
		CommittedAt:     tx.CommittedAt,
	}
}

// ToStatusChangeDTO convierte un cambio de estado.
func ToStatusChangeDTO(c *entity.StatusChange) dto.StatusChangeDTO {
	return dto.StatusChangeDTO{
		Seq:       c.Seq,
		From:      string(c.From),
		To:        string(c.To),
		Commits:   c.Commits,
		ChangedBy: c.ChangedBy,
		ChangedAt: c.ChangedAt,
	}
}
