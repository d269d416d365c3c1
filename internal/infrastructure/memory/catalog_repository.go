package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/jhoicas/stockmaster-api/internal/domain"
	"github.com/jhoicas/stockmaster-api/internal/domain/entity"
	"github.com/jhoicas/stockmaster-api/internal/domain/repository"
)

var (
	_ repository.ProductRepository   = (*ProductRepo)(nil)
	_ repository.WarehouseRepository = (*WarehouseRepo)(nil)
)

// ProductRepo catálogo de productos en memoria. SKU único.
type ProductRepo struct{ s *Store }

// NewProductRepository construye el repositorio.
func NewProductRepository(s *Store) *ProductRepo { return &ProductRepo{s: s} }

func (r *ProductRepo) Create(_ context.Context, p *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[p.ID]; ok {
		return domain.ErrDuplicate
	}
	for _, other := range r.s.products {
		if strings.EqualFold(other.SKU, p.SKU) {
			return domain.ErrDuplicate
		}
	}
	c := *p
	r.s.products[p.ID] = &c
	return nil
}

func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (r *ProductRepo) GetBySKU(_ context.Context, sku string) (*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, p := range r.s.products {
		if strings.EqualFold(p.SKU, sku) {
			c := *p
			return &c, nil
		}
	}
	return nil, nil
}

// List ordenado por nombre y SKU.
func (r *ProductRepo) List(_ context.Context, limit, offset int) ([]*entity.Product, error) {
	r.s.mu.RLock()
	list := make([]*entity.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		c := *p
		list = append(list, &c)
	}
	r.s.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].SKU < list[j].SKU
	})
	return page(list, limit, offset), nil
}

func (r *ProductRepo) Count(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.products), nil
}

// WarehouseRepo bodegas en memoria. Nombre único.
type WarehouseRepo struct{ s *Store }

// NewWarehouseRepository construye el repositorio.
func NewWarehouseRepository(s *Store) *WarehouseRepo { return &WarehouseRepo{s: s} }

func (r *WarehouseRepo) Create(_ context.Context, w *entity.Warehouse) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.warehouses[w.ID]; ok {
		return domain.ErrDuplicate
	}
	for _, other := range r.s.warehouses {
		if strings.EqualFold(other.Name, w.Name) {
			return domain.ErrDuplicate
		}
	}
	c := *w
	r.s.warehouses[w.ID] = &c
	return nil
}

func (r *WarehouseRepo) GetByID(_ context.Context, id string) (*entity.Warehouse, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	w, ok := r.s.warehouses[id]
	if !ok {
		return nil, nil
	}
	c := *w
	return &c, nil
}

func (r *WarehouseRepo) GetByName(_ context.Context, name string) (*entity.Warehouse, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, w := range r.s.warehouses {
		if strings.EqualFold(w.Name, name) {
			c := *w
			return &c, nil
		}
	}
	return nil, nil
}

// List ordenado por nombre.
func (r *WarehouseRepo) List(_ context.Context, limit, offset int) ([]*entity.Warehouse, error) {
	r.s.mu.RLock()
	list := make([]*entity.Warehouse, 0, len(r.s.warehouses))
	for _, w := range r.s.warehouses {
		c := *w
		list = append(list, &c)
	}
	r.s.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return page(list, limit, offset), nil
}
