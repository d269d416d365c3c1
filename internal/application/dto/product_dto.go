package dto

import "time"

// CreateProductRequest entrada para crear un producto.
type CreateProductRequest struct {
	SKU           string `json:"sku" validate:"required,min=1,max=100"`
	Name          string `json:"name" validate:"required,min=1,max=200"`
	Category      string `json:"category" validate:"max=100"`
	UnitOfMeasure string `json:"unit_of_measure" validate:"required,max=20"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID            string    `json:"id"`
	SKU           string    `json:"sku"`
	Name          string    `json:"name"`
	Category      string    `json:"category"`
	UnitOfMeasure string    `json:"unit_of_measure"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
