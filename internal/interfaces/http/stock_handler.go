package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockmaster-api/internal/application/dto"
	"github.com/jhoicas/stockmaster-api/internal/application/inventory"
	"github.com/jhoicas/stockmaster-api/internal/domain"
)

// StockHandler lectura de cantidades por par.
type StockHandler struct {
	projector *inventory.Projector
	catalog   inventory.Catalog
	log       zerolog.Logger
}

// NewStockHandler construye el handler.
func NewStockHandler(projector *inventory.Projector, catalog inventory.Catalog, log zerolog.Logger) *StockHandler {
	return &StockHandler{projector: projector, catalog: catalog, log: log}
}

// Get godoc
// @Summary      Cantidad de un producto en una bodega
// @Description  Sin at lee la vista materializada; con at reproduce el libro hasta ese instante.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  true   "ID del producto"
// @Param        warehouse_id  query  string  true   "ID de la bodega"
// @Param        at            query  string  false  "Instante (RFC3339)"
// @Success      200  {object}  dto.StockLevelDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock [get]
func (h *StockHandler) Get(c *fiber.Ctx) error {
	ctx := c.UserContext()
	productID, warehouseID := c.Query("product_id"), c.Query("warehouse_id")
	at, err := queryTime(c, "at")
	if err != nil {
		return writeError(c, h.log, err)
	}
	if productID != "" && warehouseID != "" {
		if err := requireKnown(c, h.catalog, productID, warehouseID); err != nil {
			return writeError(c, h.log, err)
		}
	}
	var q decimal.Decimal
	if at != nil {
		q, err = h.projector.QuantityAt(ctx, productID, warehouseID, *at)
	} else {
		q, err = h.projector.Quantity(ctx, productID, warehouseID)
	}
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.StockLevelDTO{ProductID: productID, WarehouseID: warehouseID, Quantity: q, At: at})
}

// requireKnown responde 404 para pares cuyo producto o bodega no existen, en vez de cantidad cero.
func requireKnown(c *fiber.Ctx, catalog inventory.Catalog, productID, warehouseID string) error {
	ok, err := catalog.ProductExists(c.UserContext(), productID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NotFound("product_id", productID)
	}
	ok, err = catalog.WarehouseExists(c.UserContext(), warehouseID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NotFound("warehouse_id", warehouseID)
	}
	return nil
}
