package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockmaster-api/internal/domain"
	"github.com/jhoicas/stockmaster-api/internal/domain/entity"
	domaininv "github.com/jhoicas/stockmaster-api/internal/domain/inventory"
	"github.com/jhoicas/stockmaster-api/internal/domain/repository"
)

// Engine motor de transacciones: admite recepciones, entregas, traslados y ajustes,
// escribe en el libro y mantiene la vista de stock dentro de la misma transacción.
// Toda mutación de cantidad ocurre con el par (producto, bodega) bloqueado, así que la
// verificación de stock y la escritura que lo consume no pueden intercalarse.
type Engine struct {
	txRunner   TxRunner
	ledger     *Ledger
	ledgerRepo repository.LedgerRepository // lecturas fuera de transacción
	catalog    Catalog
	events     EventPublisher
	log        zerolog.Logger
	now        func() time.Time
}

// EngineOption configura el motor.
type EngineOption func(*Engine)

// WithClock fija la fuente de tiempo (tests).
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithEvents fija el publicador de eventos.
func WithEvents(p EventPublisher) EngineOption {
	return func(e *Engine) { e.events = p }
}

// WithLogger fija el logger.
func WithLogger(log zerolog.Logger) EngineOption {
	return func(e *Engine) { e.log = log }
}

// NewEngine construye el motor.
func NewEngine(txRunner TxRunner, ledgerRepo repository.LedgerRepository, catalog Catalog, opts ...EngineOption) *Engine {
	e := &Engine{
		txRunner:   txRunner,
		ledger:     NewLedger(catalog),
		ledgerRepo: ledgerRepo,
		catalog:    catalog,
		events:     NoopPublisher{},
		log:        zerolog.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OrderInput entrada para recepciones y entregas.
type OrderInput struct {
	ProductID   string
	WarehouseID string
	Quantity    decimal.Decimal
	Reference   string
	Notes       string
	CreatedBy   string
}

// TransferInput entrada para traslados entre bodegas.
type TransferInput struct {
	ProductID       string
	FromWarehouseID string
	ToWarehouseID   string
	Quantity        decimal.Decimal
	Reference       string
	Notes           string
	CreatedBy       string
}

// AdjustmentInput entrada para ajustes; Delta con signo y distinto de cero.
type AdjustmentInput struct {
	ProductID   string
	WarehouseID string
	Delta       decimal.Decimal
	Reference   string
	Notes       string
	CreatedBy   string
}

// Receipt registra una recepción en ORDER_PLACED. No afecta la cantidad hasta COMPLETED.
func (e *Engine) Receipt(ctx context.Context, in OrderInput) (*entity.Transaction, error) {
	return e.createOrder(ctx, entity.TypeReceipt, in)
}

// Delivery registra una entrega en ORDER_RECEIVED. El stock se verifica al llegar a SHIPPED.
func (e *Engine) Delivery(ctx context.Context, in OrderInput) (*entity.Transaction, error) {
	return e.createOrder(ctx, entity.TypeDelivery, in)
}

func (e *Engine) createOrder(ctx context.Context, typ entity.TransactionType, in OrderInput) (*entity.Transaction, error) {
	if err := validateQuantity(in.Quantity); err != nil {
		return nil, err
	}
	if err := validateReference(in.Reference); err != nil {
		return nil, err
	}
	if err := requireRefs(ctx, e.catalog, in.ProductID, in.WarehouseID); err != nil {
		return nil, e.reject(typ, err)
	}
	w, _ := domaininv.WorkflowFor(typ)
	now := e.now()
	tx := &entity.Transaction{
		ID:          uuid.New().String(),
		Type:        typ,
		ProductID:   in.ProductID,
		WarehouseID: in.WarehouseID,
		Quantity:    in.Quantity,
		Reference:   in.Reference,
		Notes:       in.Notes,
		Status:      w.Initial(),
		CreatedBy:   in.CreatedBy,
		Timestamp:   now,
		UpdatedAt:   now,
	}
	err := e.txRunner.Run(ctx, nil, func(ledgerRepo repository.LedgerRepository, _ repository.StockRepository) error {
		return e.ledger.Append(ctx, ledgerRepo, tx)
	})
	if err != nil {
		return nil, e.reject(typ, err)
	}
	e.log.Info().Str("type", string(typ)).Str("id", tx.ID).Str("product_id", tx.ProductID).
		Str("warehouse_id", tx.WarehouseID).Str("quantity", tx.Quantity.String()).Msg("asiento registrado")
	e.events.Publish(ctx, LedgerEvent{Kind: EventTransactionCreated, Transactions: []*entity.Transaction{tx}})
	return tx, nil
}

// Transfer crea atómicamente transfer_out en origen y transfer_in en destino, enlazados y terminales.
// Bloquea ambos pares en el orden global, así dos traslados opuestos no se interbloquean.
func (e *Engine) Transfer(ctx context.Context, in TransferInput) (*entity.Transaction, *entity.Transaction, error) {
	if in.FromWarehouseID != "" && in.FromWarehouseID == in.ToWarehouseID {
		return nil, nil, e.reject(entity.TypeTransferOut, &domain.SameWarehouseError{WarehouseID: in.FromWarehouseID})
	}
	if err := validateQuantity(in.Quantity); err != nil {
		return nil, nil, err
	}
	if err := validateReference(in.Reference); err != nil {
		return nil, nil, err
	}
	if err := requireRefs(ctx, e.catalog, in.ProductID, in.FromWarehouseID, in.ToWarehouseID); err != nil {
		return nil, nil, e.reject(entity.TypeTransferOut, err)
	}

	now := e.now()
	committed := now
	out := &entity.Transaction{
		ID:          uuid.New().String(),
		Type:        entity.TypeTransferOut,
		ProductID:   in.ProductID,
		WarehouseID: in.FromWarehouseID,
		Quantity:    in.Quantity,
		Reference:   in.Reference,
		Notes:       in.Notes,
		Status:      entity.StatusDone,
		CreatedBy:   in.CreatedBy,
		Timestamp:   now,
		UpdatedAt:   now,
		CommittedAt: &committed,
	}
	inLeg := *out
	inLeg.ID = uuid.New().String()
	inLeg.Type = entity.TypeTransferIn
	inLeg.WarehouseID = in.ToWarehouseID
	out.CounterpartID = inLeg.ID
	inLeg.CounterpartID = out.ID

	keys := []entity.StockKey{out.Key(), inLeg.Key()}
	err := e.txRunner.Run(ctx, keys, func(ledgerRepo repository.LedgerRepository, stockRepo repository.StockRepository) error {
		origin, err := stockRepo.Get(ctx, in.ProductID, in.FromWarehouseID)
		if err != nil {
			return err
		}
		if origin.Quantity.LessThan(in.Quantity) {
			return &domain.InsufficientStockError{
				ProductID: in.ProductID, WarehouseID: in.FromWarehouseID,
				Available: origin.Quantity, Requested: in.Quantity,
			}
		}
		if err := e.ledger.Append(ctx, ledgerRepo, out, &inLeg); err != nil {
			return err
		}
		if err := stockRepo.Apply(ctx, out.ProductID, out.WarehouseID, out.SignedQuantity(), out.CommitSeq); err != nil {
			return err
		}
		return stockRepo.Apply(ctx, inLeg.ProductID, inLeg.WarehouseID, inLeg.SignedQuantity(), inLeg.CommitSeq)
	})
	if err != nil {
		return nil, nil, e.reject(entity.TypeTransferOut, err)
	}
	e.log.Info().Str("out_id", out.ID).Str("in_id", inLeg.ID).Str("product_id", in.ProductID).
		Str("from", in.FromWarehouseID).Str("to", in.ToWarehouseID).Str("quantity", in.Quantity.String()).
		Msg("traslado registrado")
	e.events.Publish(ctx, LedgerEvent{Kind: EventTransactionCreated, Transactions: []*entity.Transaction{out, &inLeg}})
	return out, &inLeg, nil
}

// Adjustment registra un ajuste terminal con el delta indicado. Un delta negativo
// que dejaría la cantidad por debajo de cero se rechaza.
func (e *Engine) Adjustment(ctx context.Context, in AdjustmentInput) (*entity.Transaction, error) {
	if in.Delta.IsZero() {
		return nil, domain.NewValidationError("delta", "no puede ser cero")
	}
	if err := validateScale("delta", in.Delta); err != nil {
		return nil, err
	}
	if err := validateReference(in.Reference); err != nil {
		return nil, err
	}
	if err := requireRefs(ctx, e.catalog, in.ProductID, in.WarehouseID); err != nil {
		return nil, e.reject(entity.TypeAdjustment, err)
	}
	now := e.now()
	committed := now
	tx := &entity.Transaction{
		ID:          uuid.New().String(),
		Type:        entity.TypeAdjustment,
		ProductID:   in.ProductID,
		WarehouseID: in.WarehouseID,
		Quantity:    in.Delta.Abs(),
		Negative:    in.Delta.IsNegative(),
		Reference:   in.Reference,
		Notes:       in.Notes,
		Status:      entity.StatusDone,
		CreatedBy:   in.CreatedBy,
		Timestamp:   now,
		UpdatedAt:   now,
		CommittedAt: &committed,
	}
	err := e.txRunner.Run(ctx, []entity.StockKey{tx.Key()}, func(ledgerRepo repository.LedgerRepository, stockRepo repository.StockRepository) error {
		current, err := stockRepo.Get(ctx, tx.ProductID, tx.WarehouseID)
		if err != nil {
			return err
		}
		if current.Quantity.Add(in.Delta).IsNegative() {
			return &domain.InsufficientStockError{
				ProductID: tx.ProductID, WarehouseID: tx.WarehouseID,
				Available: current.Quantity, Requested: tx.Quantity,
			}
		}
		if err := e.ledger.Append(ctx, ledgerRepo, tx); err != nil {
			return err
		}
		return stockRepo.Apply(ctx, tx.ProductID, tx.WarehouseID, in.Delta, tx.CommitSeq)
	})
	if err != nil {
		return nil, e.reject(entity.TypeAdjustment, err)
	}
	e.log.Info().Str("id", tx.ID).Str("product_id", tx.ProductID).Str("warehouse_id", tx.WarehouseID).
		Str("delta", in.Delta.String()).Msg("ajuste registrado")
	e.events.Publish(ctx, LedgerEvent{Kind: EventTransactionCreated, Transactions: []*entity.Transaction{tx}})
	return tx, nil
}

// UpdateStatus avanza el estado de una recepción o entrega. Al alcanzar el terminal aplica el
// efecto en cantidad exactamente una vez; pedir de nuevo el estado actual es un no-op exitoso.
// Para entregas, el stock se verifica bajo el bloqueo del par en el momento de pasar a SHIPPED.
func (e *Engine) UpdateStatus(ctx context.Context, id string, to entity.Status, by string) (*entity.Transaction, error) {
	if id == "" {
		return nil, domain.NewValidationError("transaction_id", "requerido")
	}
	if to == "" {
		return nil, domain.NewValidationError("status", "requerido")
	}
	current, err := e.ledgerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, domain.NotFound("transaction_id", id)
	}

	var (
		result *entity.Transaction
		change *entity.StatusChange
	)
	err = e.txRunner.Run(ctx, []entity.StockKey{current.Key()}, func(ledgerRepo repository.LedgerRepository, stockRepo repository.StockRepository) error {
		fresh, err := ledgerRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if fresh == nil {
			return domain.NotFound("transaction_id", id)
		}
		result = fresh
		tr, err := e.ledger.Transition(fresh, to)
		if err != nil {
			return err
		}
		if !tr.Changed {
			return nil
		}
		if tr.Commits && fresh.Type == entity.TypeDelivery {
			stock, err := stockRepo.Get(ctx, fresh.ProductID, fresh.WarehouseID)
			if err != nil {
				return err
			}
			if stock.Quantity.LessThan(fresh.Quantity) {
				return &domain.InsufficientStockError{
					ProductID: fresh.ProductID, WarehouseID: fresh.WarehouseID,
					Available: stock.Quantity, Requested: fresh.Quantity,
				}
			}
		}
		change, err = e.ledger.UpdateStatus(ctx, ledgerRepo, fresh, to, by, e.now())
		if err != nil {
			return err
		}
		if change != nil && change.Commits {
			return stockRepo.Apply(ctx, fresh.ProductID, fresh.WarehouseID, fresh.SignedQuantity(), change.Seq)
		}
		return nil
	})
	if err != nil {
		return nil, e.reject(current.Type, err)
	}
	if change == nil {
		e.log.Debug().Str("id", id).Str("status", string(to)).Msg("estado ya aplicado, sin cambios")
		return result, nil
	}
	e.log.Info().Str("id", id).Str("from", string(change.From)).Str("to", string(change.To)).
		Bool("commits", change.Commits).Msg("estado actualizado")
	e.events.Publish(ctx, LedgerEvent{Kind: EventStatusChanged, Transactions: []*entity.Transaction{result}, Change: change})
	return result, nil
}

// reject registra el rechazo con el nivel adecuado y devuelve el error sin alterarlo.
func (e *Engine) reject(typ entity.TransactionType, err error) error {
	ev := e.log.Debug()
	switch {
	case errors.Is(err, domain.ErrContentionTimeout):
		ev = e.log.Warn()
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrSameWarehouse):
	default:
		ev = e.log.Error()
	}
	ev.Err(err).Str("type", string(typ)).Msg("operación rechazada")
	return err
}

// Las cantidades se guardan como NUMERIC(18,4): hasta 4 decimales y 14 dígitos enteros.
const quantityScale = 4

var maxQuantity = decimal.New(1, 18-quantityScale)

func validateQuantity(q decimal.Decimal) error {
	if !q.GreaterThan(decimal.Zero) {
		return domain.NewValidationError("quantity", "debe ser mayor que cero")
	}
	return validateScale("quantity", q)
}

func validateScale(field string, q decimal.Decimal) error {
	if !q.Equal(q.Truncate(quantityScale)) {
		return domain.NewValidationError(field, fmt.Sprintf("admite máximo %d decimales", quantityScale))
	}
	if q.Abs().GreaterThanOrEqual(maxQuantity) {
		return domain.NewValidationError(field, "excede el máximo permitido")
	}
	return nil
}

func validateReference(ref string) error {
	if ref == "" {
		return domain.NewValidationError("reference", "requerida")
	}
	return nil
}
