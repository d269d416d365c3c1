package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType tipo de asiento en el libro de stock.
type TransactionType string

// Tipos de asiento.
const (
	TypeReceipt     TransactionType = "receipt"      // entrada de proveedor
	TypeDelivery    TransactionType = "delivery"     // salida a cliente
	TypeTransferIn  TransactionType = "transfer_in"  // pata de entrada de un traslado
	TypeTransferOut TransactionType = "transfer_out" // pata de salida de un traslado
	TypeAdjustment  TransactionType = "adjustment"   // ajuste (daño, pérdida, conteo)
)

// Valid indica si el tipo es conocido.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeReceipt, TypeDelivery, TypeTransferIn, TypeTransferOut, TypeAdjustment:
		return true
	}
	return false
}

// IsTransferLeg indica si el tipo es una de las dos patas de un traslado.
func (t TransactionType) IsTransferLeg() bool {
	return t == TypeTransferIn || t == TypeTransferOut
}

// Status estado de un asiento. El vocabulario depende del tipo.
type Status string

// Estados de recepción, entrega y el estado terminal implícito de traslados y ajustes.
const (
	StatusOrderPlaced   Status = "ORDER_PLACED"
	StatusInTransit     Status = "IN_TRANSIT"
	StatusCompleted     Status = "COMPLETED"
	StatusOrderReceived Status = "ORDER_RECEIVED"
	StatusShipping      Status = "SHIPPING"
	StatusShipped       Status = "SHIPPED"
	StatusDone          Status = "DONE"
)

// Transaction asiento del libro. Inmutable salvo Status (y los campos de commit que lo acompañan).
// Quantity es siempre una magnitud positiva; el signo lo da Type (y Negative para ajustes).
type Transaction struct {
	ID            string
	Seq           int64 // secuencia monotónica de la escritura que creó el asiento
	Type          TransactionType
	ProductID     string
	WarehouseID   string
	Quantity      decimal.Decimal
	Negative      bool // solo ajustes
	Reference     string
	Notes         string
	Status        Status
	CounterpartID string // enlaza transfer_out <-> transfer_in
	CreatedBy     string
	Timestamp     time.Time
	UpdatedAt     time.Time

	// CommitSeq/CommittedAt se fijan cuando el asiento empieza a afectar la cantidad.
	CommitSeq   int64
	CommittedAt *time.Time
}

// SignedQuantity cantidad con signo según el tipo, sin considerar el estado.
func (t *Transaction) SignedQuantity() decimal.Decimal {
	switch t.Type {
	case TypeDelivery, TypeTransferOut:
		return t.Quantity.Neg()
	case TypeAdjustment:
		if t.Negative {
			return t.Quantity.Neg()
		}
	}
	return t.Quantity
}

// Key par (producto, bodega) al que pertenece el asiento.
func (t *Transaction) Key() StockKey {
	return StockKey{ProductID: t.ProductID, WarehouseID: t.WarehouseID}
}

// Committed indica si el efecto en cantidad ya se aplicó.
func (t *Transaction) Committed() bool { return t.CommittedAt != nil }

// StatusChange registro de auditoría de un cambio de estado.
type StatusChange struct {
	TransactionID string
	Seq           int64
	From          Status
	To            Status
	Commits       bool // el cambio aplicó el efecto en cantidad
	ChangedBy     string
	ChangedAt     time.Time
}
