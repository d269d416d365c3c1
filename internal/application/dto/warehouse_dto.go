package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateWarehouseRequest entrada para crear una bodega.
type CreateWarehouseRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=200"`
	Location string `json:"location" validate:"max=300"`
}

// WarehouseResponse salida de una bodega.
type WarehouseResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WarehouseListResponse lista paginada de bodegas.
type WarehouseListResponse struct {
	Items []WarehouseResponse `json:"items"`
	Page  PageResponse        `json:"page"`
}

// WarehouseSummaryDTO resumen de existencias de una bodega.
type WarehouseSummaryDTO struct {
	WarehouseID           string          `json:"warehouse_id"`
	WarehouseName         string          `json:"warehouse_name"`
	TotalDistinctProducts int             `json:"total_distinct_products"` // productos con cantidad > 0
	TotalQuantity         decimal.Decimal `json:"total_quantity"`
}

// WarehouseItemDTO existencia de un producto en una bodega (solo cantidades distintas de cero).
type WarehouseItemDTO struct {
	ProductID string          `json:"product_id"`
	Product   string          `json:"product"`
	SKU       string          `json:"sku"`
	Category  string          `json:"category"`
	Quantity  decimal.Decimal `json:"quantity"`
}
