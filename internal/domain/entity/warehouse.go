package entity

import "time"

// Warehouse representa una bodega. No se elimina mientras tenga historial en el libro.
type Warehouse struct {
	ID        string
	Name      string
	Location  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
