package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockmaster-api/internal/domain"
	"github.com/jhoicas/stockmaster-api/internal/domain/entity"
	domaininv "github.com/jhoicas/stockmaster-api/internal/domain/inventory"
	"github.com/jhoicas/stockmaster-api/internal/domain/repository"
)

// Ledger aplica las reglas del libro de stock sobre un LedgerRepository: valida los asientos
// antes de anexarlos y delega la legalidad de los cambios de estado al flujo del tipo.
type Ledger struct {
	catalog Catalog
}

// NewLedger construye el validador del libro.
func NewLedger(catalog Catalog) *Ledger {
	return &Ledger{catalog: catalog}
}

// Append valida y anexa los asientos en una sola escritura. Las patas de traslado
// solo se aceptan junto con su contraparte en la misma llamada.
func (l *Ledger) Append(ctx context.Context, repo repository.LedgerRepository, entries ...*entity.Transaction) error {
	if err := l.Validate(ctx, entries...); err != nil {
		return err
	}
	return repo.Append(ctx, entries...)
}

// Validate comprueba el lote sin escribir.
func (l *Ledger) Validate(ctx context.Context, entries ...*entity.Transaction) error {
	if len(entries) == 0 {
		return domain.NewValidationError("entries", "lote vacío")
	}
	byID := make(map[string]*entity.Transaction, len(entries))
	for _, tx := range entries {
		if tx.ID == "" {
			return domain.NewValidationError("id", "requerido")
		}
		byID[tx.ID] = tx
	}
	for _, tx := range entries {
		if err := l.validateEntry(ctx, tx); err != nil {
			return err
		}
		if tx.Type.IsTransferLeg() {
			if err := validatePair(tx, byID[tx.CounterpartID]); err != nil {
				return err
			}
		} else if tx.CounterpartID != "" {
			return domain.NewValidationError("counterpart_id", "solo aplica a traslados")
		}
	}
	return nil
}

func (l *Ledger) validateEntry(ctx context.Context, tx *entity.Transaction) error {
	w, ok := domaininv.WorkflowFor(tx.Type)
	if !ok {
		return domain.NewValidationError("type", "tipo desconocido: "+string(tx.Type))
	}
	if !tx.Quantity.GreaterThan(decimal.Zero) {
		return domain.NewValidationError("quantity", "debe ser mayor que cero")
	}
	if tx.Negative && tx.Type != entity.TypeAdjustment {
		return domain.NewValidationError("quantity", "solo los ajustes pueden ser negativos")
	}
	if tx.Status != w.Initial() {
		return domain.NewValidationError("status", "un asiento nuevo debe iniciar en "+string(w.Initial()))
	}
	if w.TerminalOnCreation() != tx.Committed() {
		return domain.NewValidationError("status", "compromiso inconsistente con el tipo")
	}
	return requireRefs(ctx, l.catalog, tx.ProductID, tx.WarehouseID)
}

func validatePair(leg, other *entity.Transaction) error {
	if other == nil {
		return domain.NewValidationError("counterpart_id", "pata de traslado sin contraparte en el mismo lote")
	}
	want := entity.TypeTransferIn
	if leg.Type == entity.TypeTransferIn {
		want = entity.TypeTransferOut
	}
	switch {
	case other.Type != want, other.CounterpartID != leg.ID:
		return domain.NewValidationError("counterpart_id", "contraparte no enlazada")
	case other.ProductID != leg.ProductID, !other.Quantity.Equal(leg.Quantity):
		return domain.NewValidationError("counterpart_id", "las patas deben mover el mismo producto y cantidad")
	case other.WarehouseID == leg.WarehouseID:
		return &domain.SameWarehouseError{WarehouseID: leg.WarehouseID}
	}
	return nil
}

// Transition evalúa el cambio de estado solicitado para tx según su flujo.
func (l *Ledger) Transition(tx *entity.Transaction, to entity.Status) (domaininv.Transition, error) {
	w, ok := domaininv.WorkflowFor(tx.Type)
	if !ok {
		return domaininv.Transition{}, domain.NewValidationError("type", "tipo desconocido: "+string(tx.Type))
	}
	return w.Transition(tx.ID, tx.Status, to)
}

// UpdateStatus persiste un cambio de estado legal y actualiza tx en memoria.
// Devuelve nil si el estado pedido ya es el actual (no-op idempotente).
func (l *Ledger) UpdateStatus(
	ctx context.Context,
	repo repository.LedgerRepository,
	tx *entity.Transaction,
	to entity.Status,
	by string,
	now time.Time,
) (*entity.StatusChange, error) {
	tr, err := l.Transition(tx, to)
	if err != nil {
		return nil, err
	}
	if !tr.Changed {
		return nil, nil
	}
	change := &entity.StatusChange{
		TransactionID: tx.ID,
		From:          tr.From,
		To:            tr.To,
		Commits:       tr.Commits,
		ChangedBy:     by,
		ChangedAt:     now,
	}
	if err := repo.UpdateStatus(ctx, change); err != nil {
		return nil, err
	}
	tx.Status = to
	tx.UpdatedAt = now
	if tr.Commits {
		at := now
		tx.CommitSeq = change.Seq
		tx.CommittedAt = &at
	}
	return change, nil
}

// requireRefs verifica que producto y bodegas existan en el catálogo.
func requireRefs(ctx context.Context, catalog Catalog, productID string, warehouseIDs ...string) error {
	if productID == "" {
		return domain.NewValidationError("product_id", "requerido")
	}
	ok, err := catalog.ProductExists(ctx, productID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NotFound("product_id", productID)
	}
	for _, id := range warehouseIDs {
		if id == "" {
			return domain.NewValidationError("warehouse_id", "requerido")
		}
		ok, err := catalog.WarehouseExists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return domain.NotFound("warehouse_id", id)
		}
	}
	return nil
}
