package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateOrderRequest body para POST /api/operations/receipts y /deliveries.
type CreateOrderRequest struct {
	ProductID   string          `json:"product_id" validate:"required"`
	WarehouseID string          `json:"warehouse_id" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity" validate:"gt=0"`
	Reference   string          `json:"reference" validate:"required,max=120"`
	Notes       string          `json:"notes" validate:"max=1000"`
}

// CreateTransferRequest body para POST /api/operations/transfers.
type CreateTransferRequest struct {
	ProductID       string          `json:"product_id" validate:"required"`
	FromWarehouseID string          `json:"from_warehouse_id" validate:"required"`
	ToWarehouseID   string          `json:"to_warehouse_id" validate:"required"`
	Quantity        decimal.Decimal `json:"quantity" validate:"gt=0"`
	Reference       string          `json:"reference" validate:"required,max=120"`
	Notes           string          `json:"notes" validate:"max=1000"`
}

// CreateAdjustmentRequest body para POST /api/operations/adjustments. Delta con signo.
type CreateAdjustmentRequest struct {
	ProductID   string          `json:"product_id" validate:"required"`
	WarehouseID string          `json:"warehouse_id" validate:"required"`
	Delta       decimal.Decimal `json:"delta" validate:"ne=0"`
	Reference   string          `json:"reference" validate:"required,max=120"`
	Notes       string          `json:"notes" validate:"max=1000"`
}

// UpdateStatusRequest body para PATCH /api/transactions/:id/status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// TransactionDTO forma de un asiento para el cliente. Quantity lleva el signo del tipo.
type TransactionDTO struct {
	ID              string          `json:"id"`
	Seq             int64           `json:"seq"`
	ProductID       string          `json:"product_id"`
	ProductName     string          `json:"product_name"`
	WarehouseID     string          `json:"warehouse_id"`
	WarehouseName   string          `json:"warehouse_name"`
	TransactionType string          `json:"transaction_type"`
	Quantity        decimal.Decimal `json:"quantity"`
	Reference       string          `json:"reference"`
	Notes           string          `json:"notes"`
	Status          string          `json:"status"`
	Pending         bool            `json:"pending"`
	CounterpartID   string          `json:"counterpart_id,omitempty"`
	CreatedBy       string          `json:"created_by,omitempty"`
	Timestamp       time.Time       `json:"timestamp"`
	CommittedAt     *time.Time      `json:"committed_at,omitempty"`
}

// TransactionListResponse lista de asientos recientes.
type TransactionListResponse struct {
	Items []TransactionDTO `json:"items"`
	Page  PageResponse     `json:"page"`
}

// TransferResponse las dos patas de un traslado.
type TransferResponse struct {
	Out TransactionDTO `json:"out"`
	In  TransactionDTO `json:"in"`
}

// StatusChangeDTO entrada del historial de estados.
type StatusChangeDTO struct {
	Seq       int64     `json:"seq"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Commits   bool      `json:"commits"`
	ChangedBy string    `json:"changed_by,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}

// StockLevelDTO cantidad de un par, actual o en un instante.
type StockLevelDTO struct {
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	At          *time.Time      `json:"at,omitempty"`
}

// DriftDTO diferencia entre la vista y el replay del libro.
type DriftDTO struct {
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	Cached      decimal.Decimal `json:"cached"`
	Replayed    decimal.Decimal `json:"replayed"`
}

// LedgerEventDTO mensaje publicado por WebSocket tras cada escritura.
type LedgerEventDTO struct {
	Type         string           `json:"type"`
	Transactions []TransactionDTO `json:"transactions,omitempty"`
	Change       *StatusChangeDTO `json:"change,omitempty"`
}
