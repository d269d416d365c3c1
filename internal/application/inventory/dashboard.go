package inventory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockmaster-api/internal/application/dto"
	"github.com/jhoicas/stockmaster-api/internal/domain/entity"
	domaininv "github.com/jhoicas/stockmaster-api/internal/domain/inventory"
	"github.com/jhoicas/stockmaster-api/internal/domain/repository"
)

// DashboardService tarjetas del dashboard: productos, stock bajo y pendientes.
type DashboardService struct {
	products   repository.ProductRepository
	stockRepo  repository.StockRepository
	ledgerRepo repository.LedgerRepository
	threshold  int
}

// NewDashboardService construye el servicio. threshold es la existencia total por producto
// por debajo de la cual se considera stock bajo.
func NewDashboardService(
	products repository.ProductRepository,
	stockRepo repository.StockRepository,
	ledgerRepo repository.LedgerRepository,
	threshold int,
) *DashboardService {
	return &DashboardService{products: products, stockRepo: stockRepo, ledgerRepo: ledgerRepo, threshold: threshold}
}

// Summary calcula las tarjetas en una sola pasada por la vista de stock.
func (s *DashboardService) Summary(ctx context.Context) (*dto.DashboardSummaryDTO, error) {
	total, err := s.products.Count(ctx)
	if err != nil {
		return nil, err
	}
	out := &dto.DashboardSummaryDTO{TotalProducts: total, LowStockThreshold: s.threshold}

	levels, err := s.stockRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	perProduct := make(map[string]decimal.Decimal)
	for _, l := range levels {
		perProduct[l.ProductID] = perProduct[l.ProductID].Add(l.Quantity)
	}
	limit := decimal.NewFromInt(int64(s.threshold))
	for _, q := range perProduct {
		if q.LessThan(limit) {
			out.LowStockItems++
		}
	}
	// productos sin ninguna fila en la vista tienen existencia cero
	if missing := total - len(perProduct); missing > 0 && limit.IsPositive() {
		out.LowStockItems += missing
	}

	if out.PendingReceipts, err = s.countPending(ctx, entity.TypeReceipt); err != nil {
		return nil, err
	}
	if out.PendingDeliveries, err = s.countPending(ctx, entity.TypeDelivery); err != nil {
		return nil, err
	}
	return out, nil
}

// countPending cuenta los asientos del tipo en cualquier estado no terminal.
func (s *DashboardService) countPending(ctx context.Context, typ entity.TransactionType) (int, error) {
	w, _ := domaininv.WorkflowFor(typ)
	var n int
	for _, st := range w.Statuses() {
		if w.IsTerminal(st) {
			continue
		}
		c, err := s.ledgerRepo.Count(ctx, repository.LedgerFilter{Type: typ, Status: st})
		if err != nil {
			return 0, err
		}
		n += c
	}
	return n, nil
}
