package inventory

import (
	"context"
	"errors"
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/jhoicas/stockmaster-api/internal/application/dto"
	"github.com/jhoicas/stockmaster-api/internal/domain"
	"github.com/jhoicas/stockmaster-api/internal/domain/repository"
)

// WarehouseService composición de solo lectura sobre la vista de stock: resúmenes y
// listados por bodega. No tiene camino de escritura.
type WarehouseService struct {
	stockRepo  repository.StockRepository
	warehouses repository.WarehouseRepository
	catalog    Catalog
	report     StockReportGenerator
}

// NewWarehouseService construye el servicio. report puede ser nil si no se exponen reportes.
func NewWarehouseService(
	stockRepo repository.StockRepository,
	warehouses repository.WarehouseRepository,
	catalog Catalog,
	report StockReportGenerator,
) *WarehouseService {
	return &WarehouseService{stockRepo: stockRepo, warehouses: warehouses, catalog: catalog, report: report}
}

// Summary productos distintos con cantidad positiva y cantidad total de la bodega.
func (s *WarehouseService) Summary(ctx context.Context, warehouseID string) (*dto.WarehouseSummaryDTO, error) {
	d, err := s.describeWarehouse(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	levels, err := s.stockRepo.ListByWarehouse(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	out := &dto.WarehouseSummaryDTO{WarehouseID: warehouseID, WarehouseName: d.Name, TotalQuantity: decimal.Zero}
	for _, l := range levels {
		if l.Quantity.IsZero() {
			continue
		}
		out.TotalDistinctProducts++
		out.TotalQuantity = out.TotalQuantity.Add(l.Quantity)
	}
	return out, nil
}

// Items existencias de la bodega ordenadas por nombre de producto, sin cantidades en cero.
func (s *WarehouseService) Items(ctx context.Context, warehouseID string) ([]dto.WarehouseItemDTO, error) {
	if _, err := s.describeWarehouse(ctx, warehouseID); err != nil {
		return nil, err
	}
	levels, err := s.stockRepo.ListByWarehouse(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	items := make([]dto.WarehouseItemDTO, 0, len(levels))
	for _, l := range levels {
		if l.Quantity.IsZero() {
			continue
		}
		p, err := s.catalog.DescribeProduct(ctx, l.ProductID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		items = append(items, dto.WarehouseItemDTO{
			ProductID: l.ProductID,
			Product:   p.Name,
			SKU:       p.SKU,
			Category:  p.Category,
			Quantity:  l.Quantity,
		})
	}
	sortItems(items)
	return items, nil
}

// Summaries resumen de todas las bodegas registradas, en el orden del repositorio.
func (s *WarehouseService) Summaries(ctx context.Context) ([]dto.WarehouseSummaryDTO, error) {
	list, err := s.warehouses.List(ctx, 0, 0)
	if err != nil {
		return nil, err
	}
	levels, err := s.stockRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	byWarehouse := make(map[string]*dto.WarehouseSummaryDTO, len(list))
	out := make([]dto.WarehouseSummaryDTO, len(list))
	for i, w := range list {
		out[i] = dto.WarehouseSummaryDTO{WarehouseID: w.ID, WarehouseName: w.Name, TotalQuantity: decimal.Zero}
		byWarehouse[w.ID] = &out[i]
	}
	for _, l := range levels {
		sum, ok := byWarehouse[l.WarehouseID]
		if !ok || l.Quantity.IsZero() {
			continue
		}
		sum.TotalDistinctProducts++
		sum.TotalQuantity = sum.TotalQuantity.Add(l.Quantity)
	}
	return out, nil
}

// Report genera el PDF de existencias de la bodega.
func (s *WarehouseService) Report(ctx context.Context, warehouseID string) ([]byte, error) {
	if s.report == nil {
		return nil, errors.New("warehouse service: generador de reportes no configurado")
	}
	summary, err := s.Summary(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	items, err := s.Items(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	return s.report.GenerateStockReport(ctx, *summary, items)
}

func (s *WarehouseService) describeWarehouse(ctx context.Context, warehouseID string) (Description, error) {
	if warehouseID == "" {
		return Description{}, domain.NewValidationError("warehouse_id", "requerido")
	}
	return s.catalog.DescribeWarehouse(ctx, warehouseID)
}

// sortItems ordena por nombre con colación en español (acentos y mayúsculas) y desempata por SKU.
func sortItems(items []dto.WarehouseItemDTO) {
	c := collate.New(language.Spanish, collate.IgnoreCase)
	sort.SliceStable(items, func(i, j int) bool {
		if r := c.CompareString(items[i].Product, items[j].Product); r != 0 {
			return r < 0
		}
		return items[i].SKU < items[j].SKU
	})
}
