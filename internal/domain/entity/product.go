package entity

import "time"

// Product producto del catálogo. SKU e ID son inmutables una vez referenciados por el libro;
// Name, Category y UnitOfMeasure son descriptivos.
type Product struct {
	ID            string
	SKU           string
	Name          string
	Category      string
	UnitOfMeasure string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
