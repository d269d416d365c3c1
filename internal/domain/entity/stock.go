package entity

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Stock cantidad actual de un producto en una bodega (vista materializada, reconstruible desde el libro).
type Stock struct {
	ProductID   string
	WarehouseID string
	Quantity    decimal.Decimal
	LastSeq     int64 // última escritura del libro reflejada
	UpdatedAt   time.Time
}

// StockKey identifica un par (producto, bodega).
type StockKey struct {
	ProductID   string
	WarehouseID string
}

// Less orden global de bloqueo: bodega ascendente, luego producto.
func (k StockKey) Less(o StockKey) bool {
	if k.WarehouseID != o.WarehouseID {
		return k.WarehouseID < o.WarehouseID
	}
	return k.ProductID < o.ProductID
}

func (k StockKey) String() string { return k.WarehouseID + "/" + k.ProductID }

// SortKeys ordena y deduplica las claves según el orden global de bloqueo.
func SortKeys(keys []StockKey) []StockKey {
	out := make([]StockKey, 0, len(keys))
	seen := make(map[StockKey]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
