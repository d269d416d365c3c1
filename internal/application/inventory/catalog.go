package inventory

import (
	"context"

	"github.com/jhoicas/stockmaster-api/internal/domain"
	"github.com/jhoicas/stockmaster-api/internal/domain/repository"
)

var _ Catalog = (*RepositoryCatalog)(nil)

// RepositoryCatalog implementa Catalog sobre los repositorios de productos y bodegas.
type RepositoryCatalog struct {
	products   repository.ProductRepository
	warehouses repository.WarehouseRepository
}

// NewRepositoryCatalog construye el adaptador.
func NewRepositoryCatalog(products repository.ProductRepository, warehouses repository.WarehouseRepository) *RepositoryCatalog {
	return &RepositoryCatalog{products: products, warehouses: warehouses}
}

func (c *RepositoryCatalog) ProductExists(ctx context.Context, id string) (bool, error) {
	p, err := c.products.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return p != nil, nil
}

func (c *RepositoryCatalog) WarehouseExists(ctx context.Context, id string) (bool, error) {
	w, err := c.warehouses.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return w != nil, nil
}

func (c *RepositoryCatalog) DescribeProduct(ctx context.Context, id string) (Description, error) {
	p, err := c.products.GetByID(ctx, id)
	if err != nil {
		return Description{}, err
	}
	if p == nil {
		return Description{}, domain.NotFound("product_id", id)
	}
	return Description{Name: p.Name, SKU: p.SKU, Category: p.Category}, nil
}

func (c *RepositoryCatalog) DescribeWarehouse(ctx context.Context, id string) (Description, error) {
	w, err := c.warehouses.GetByID(ctx, id)
	if err != nil {
		return Description{}, err
	}
	if w == nil {
		return Description{}, domain.NotFound("warehouse_id", id)
	}
	return Description{Name: w.Name}, nil
}
