package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stockmaster-api/internal/application/dto"
	"github.com/jhoicas/stockmaster-api/internal/application/inventory"
	"github.com/jhoicas/stockmaster-api/internal/application/usecase"
)

// WarehouseHandler alta y consulta de bodegas, más el inventario por bodega.
type WarehouseHandler struct {
	uc        *usecase.WarehouseUseCase
	inventory *inventory.WarehouseService
	log       zerolog.Logger
}

// NewWarehouseHandler construye el handler.
func NewWarehouseHandler(uc *usecase.WarehouseUseCase, inv *inventory.WarehouseService, log zerolog.Logger) *WarehouseHandler {
	return &WarehouseHandler{uc: uc, inventory: inv, log: log}
}

// Create godoc
// @Summary      Crear bodega
// @Tags         warehouses
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateWarehouseRequest  true  "Datos de la bodega"
// @Success      201   {object}  dto.WarehouseResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/warehouses [post]
func (h *WarehouseHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateWarehouseRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, err := h.uc.Create(c.UserContext(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener bodega por ID
// @Tags         warehouses
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la bodega"
// @Success      200  {object}  dto.WarehouseResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/warehouses/{id} [get]
func (h *WarehouseHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar bodegas
// @Tags         warehouses
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite"   default(20)
// @Param        offset  query  int  false  "Offset"   default(0)
// @Success      200     {object}  dto.WarehouseListResponse
// @Router       /api/warehouses [get]
func (h *WarehouseHandler) List(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	out, err := h.uc.List(c.UserContext(), limit, offset)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Summaries godoc
// @Summary      Resumen de existencias de todas las bodegas
// @Tags         warehouses
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.WarehouseSummaryDTO
// @Router       /api/warehouses/summaries [get]
func (h *WarehouseHandler) Summaries(c *fiber.Ctx) error {
	out, err := h.inventory.Summaries(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Summary godoc
// @Summary      Resumen de existencias de una bodega
// @Tags         warehouses
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la bodega"
// @Success      200  {object}  dto.WarehouseSummaryDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/warehouses/{id}/summary [get]
func (h *WarehouseHandler) Summary(c *fiber.Ctx) error {
	out, err := h.inventory.Summary(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Items godoc
// @Summary      Productos con existencia en una bodega
// @Description  Solo cantidades distintas de cero, ordenadas por nombre de producto.
// @Tags         warehouses
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la bodega"
// @Success      200  {array}   dto.WarehouseItemDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/warehouses/{id}/items [get]
func (h *WarehouseHandler) Items(c *fiber.Ctx) error {
	out, err := h.inventory.Items(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Report godoc
// @Summary      Reporte PDF de existencias de una bodega
// @Tags         warehouses
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la bodega"
// @Success      200  {file}    file
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/warehouses/{id}/report.pdf [get]
func (h *WarehouseHandler) Report(c *fiber.Ctx) error {
	id := c.Params("id")
	pdf, err := h.inventory.Report(c.UserContext(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="existencias-%s.pdf"`, id))
	return c.Send(pdf)
}
