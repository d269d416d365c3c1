package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stockmaster-api/internal/application/dto"
	"github.com/jhoicas/stockmaster-api/internal/application/inventory"
	"github.com/jhoicas/stockmaster-api/internal/domain"
	"github.com/jhoicas/stockmaster-api/internal/domain/entity"
	"github.com/jhoicas/stockmaster-api/internal/domain/repository"
)

// TransactionHandler consulta el libro y avanza estados.
type TransactionHandler struct {
	engine *inventory.Engine
	query  *inventory.LedgerQuery
	log    zerolog.Logger
}

// NewTransactionHandler construye el handler.
func NewTransactionHandler(engine *inventory.Engine, query *inventory.LedgerQuery, log zerolog.Logger) *TransactionHandler {
	return &TransactionHandler{engine: engine, query: query, log: log}
}

// List godoc
// @Summary      Asientos recientes del libro
// @Tags         transactions
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  false  "Filtrar por producto"
// @Param        warehouse_id  query  string  false  "Filtrar por bodega"
// @Param        type          query  string  false  "receipt | delivery | transfer_in | transfer_out | adjustment"
// @Param        status        query  string  false  "Estado exacto"
// @Param        from          query  string  false  "Desde (RFC3339)"
// @Param        to            query  string  false  "Hasta (RFC3339)"
// @Param        limit         query  int     false  "Límite"  default(20)
// @Param        offset        query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.TransactionListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/transactions [get]
func (h *TransactionHandler) List(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	f := repository.LedgerFilter{
		ProductID:   c.Query("product_id"),
		WarehouseID: c.Query("warehouse_id"),
		Type:        entity.TransactionType(strings.ToLower(c.Query("type"))),
		Status:      entity.Status(strings.ToUpper(c.Query("status"))),
		Limit:       limit,
		Offset:      offset,
	}
	var err error
	if f.From, err = queryTime(c, "from"); err != nil {
		return writeError(c, h.log, err)
	}
	if f.To, err = queryTime(c, "to"); err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.query.ListRecent(c.UserContext(), f)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener asiento
// @Tags         transactions
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del asiento"
// @Success      200  {object}  dto.TransactionDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transactions/{id} [get]
func (h *TransactionHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.query.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// History godoc
// @Summary      Historial de estados de un asiento
// @Tags         transactions
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del asiento"
// @Success      200  {array}   dto.StatusChangeDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transactions/{id}/history [get]
func (h *TransactionHandler) History(c *fiber.Ctx) error {
	out, err := h.query.History(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// UpdateStatus godoc
// @Summary      Avanzar estado de una recepción o entrega
// @Description  COMPLETED (recepción) y SHIPPED (entrega) aplican la cantidad una sola vez.
// @Description  Pedir el estado actual responde 200 sin cambios.
// @Tags         transactions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "ID del asiento"
// @Param        body  body  dto.UpdateStatusRequest  true  "Nuevo estado"
// @Success      200   {object}  dto.TransactionDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/transactions/{id}/status [patch]
func (h *TransactionHandler) UpdateStatus(c *fiber.Ctx) error {
	var in dto.UpdateStatusRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	status := entity.Status(strings.ToUpper(strings.TrimSpace(in.Status)))
	tx, err := h.engine.UpdateStatus(c.UserContext(), c.Params("id"), status, GetUserID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	list, err := h.query.ToDTOs(c.UserContext(), []*entity.Transaction{tx})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(list[0])
}

// queryTime lee un parámetro RFC3339 opcional.
func queryTime(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, domain.NewValidationError(key, "se espera RFC3339")
	}
	return &t, nil
}
