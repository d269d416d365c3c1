package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Errores de dominio. Los tipos de abajo envuelven estos sentinels para que los
// llamadores puedan usar errors.Is sin conocer el detalle.
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrInvalidTransition = errors.New("transición de estado inválida")
	ErrSameWarehouse     = errors.New("bodega origen y destino son la misma")
	ErrContentionTimeout = errors.New("tiempo de espera agotado por contención")
)

// ValidationError entrada malformada o referencia desconocida. Se rechaza antes de escribir en el libro.
type ValidationError struct {
	Field  string
	Reason string
	Err    error // causa opcional, p.ej. ErrNotFound
}

// NewValidationError construye un ValidationError sin causa.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFound construye un ValidationError para una referencia inexistente.
func NotFound(field, id string) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf("%q no existe", id), Err: ErrNotFound}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validación: " + e.Reason
	}
	return fmt.Sprintf("validación: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

func (e *ValidationError) Unwrap() error { return e.Err }

// InsufficientStockError la operación dejaría la cantidad negativa.
type InsufficientStockError struct {
	ProductID   string
	WarehouseID string
	Available   decimal.Decimal
	Requested   decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente: producto %s en bodega %s: disponible %s, solicitado %s",
		e.ProductID, e.WarehouseID, e.Available.String(), e.Requested.String())
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// InvalidTransitionError cambio de estado no permitido por el flujo del tipo de transacción.
type InvalidTransitionError struct {
	TransactionID string
	Type          string
	From          string
	To            string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("transición inválida para %s (%s): %s -> %s", e.TransactionID, e.Type, e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// SameWarehouseError traslado con origen igual a destino.
type SameWarehouseError struct {
	WarehouseID string
}

func (e *SameWarehouseError) Error() string {
	return fmt.Sprintf("traslado inválido: origen y destino son la bodega %s", e.WarehouseID)
}

func (e *SameWarehouseError) Is(target error) bool { return target == ErrSameWarehouse }

// ContentionTimeoutError no se obtuvo el bloqueo dentro del tiempo máximo. Reintentable.
type ContentionTimeoutError struct {
	Resource string
	Wait     time.Duration
	Err      error
}

func (e *ContentionTimeoutError) Error() string {
	return fmt.Sprintf("contención en %s: sin bloqueo tras %s", e.Resource, e.Wait)
}

func (e *ContentionTimeoutError) Is(target error) bool { return target == ErrContentionTimeout }

func (e *ContentionTimeoutError) Unwrap() error { return e.Err }

// Retryable indica al llamador que puede reintentar con backoff.
func (e *ContentionTimeoutError) Retryable() bool { return true }

// IsRetryable informa si err es transitorio.
func IsRetryable(err error) bool {
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return false
}
