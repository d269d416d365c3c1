package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stockmaster-api/internal/application/dto"
	"github.com/jhoicas/stockmaster-api/internal/application/inventory"
	"github.com/jhoicas/stockmaster-api/internal/domain/entity"
)

// OperationsHandler registra recepciones, entregas, traslados y ajustes.
// Las respuestas usan la forma de asiento del cliente (nombres incluidos).
type OperationsHandler struct {
	engine *inventory.Engine
	query  *inventory.LedgerQuery
	log    zerolog.Logger
}

// NewOperationsHandler construye el handler.
func NewOperationsHandler(engine *inventory.Engine, query *inventory.LedgerQuery, log zerolog.Logger) *OperationsHandler {
	return &OperationsHandler{engine: engine, query: query, log: log}
}

// CreateReceipt godoc
// @Summary      Registrar recepción
// @Description  Queda en ORDER_PLACED; la cantidad entra al pasar a COMPLETED.
// @Tags         operations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateOrderRequest  true  "product_id, warehouse_id, quantity, reference"
// @Success      201   {object}  dto.TransactionDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/operations/receipts [post]
func (h *OperationsHandler) CreateReceipt(c *fiber.Ctx) error {
	return h.createOrder(c, h.engine.Receipt)
}

// CreateDelivery godoc
// @Summary      Registrar entrega
// @Description  Queda en ORDER_RECEIVED; el stock se verifica y descuenta al pasar a SHIPPED.
// @Tags         operations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateOrderRequest  true  "product_id, warehouse_id, quantity, reference"
// @Success      201   {object}  dto.TransactionDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/operations/deliveries [post]
func (h *OperationsHandler) CreateDelivery(c *fiber.Ctx) error {
	return h.createOrder(c, h.engine.Delivery)
}

func (h *OperationsHandler) createOrder(c *fiber.Ctx, create func(context.Context, inventory.OrderInput) (*entity.Transaction, error)) error {
	var in dto.CreateOrderRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	tx, err := create(c.UserContext(), inventory.OrderInput{
		ProductID:   in.ProductID,
		WarehouseID: in.WarehouseID,
		Quantity:    in.Quantity,
		Reference:   in.Reference,
		Notes:       in.Notes,
		CreatedBy:   GetUserID(c),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return h.respond(c, fiber.StatusCreated, tx)
}

// CreateTransfer godoc
// @Summary      Registrar traslado entre bodegas
// @Description  Escribe las dos patas (salida y entrada) de forma atómica.
// @Tags         operations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateTransferRequest  true  "product_id, from/to warehouse, quantity, reference"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/operations/transfers [post]
func (h *OperationsHandler) CreateTransfer(c *fiber.Ctx) error {
	var in dto.CreateTransferRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	out, inLeg, err := h.engine.Transfer(c.UserContext(), inventory.TransferInput{
		ProductID:       in.ProductID,
		FromWarehouseID: in.FromWarehouseID,
		ToWarehouseID:   in.ToWarehouseID,
		Quantity:        in.Quantity,
		Reference:       in.Reference,
		Notes:           in.Notes,
		CreatedBy:       GetUserID(c),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	legs, err := h.query.ToDTOs(c.UserContext(), []*entity.Transaction{out, inLeg})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.TransferResponse{Out: legs[0], In: legs[1]})
}

// CreateAdjustment godoc
// @Summary      Registrar ajuste
// @Description  delta con signo; no puede dejar la cantidad negativa.
// @Tags         operations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateAdjustmentRequest  true  "product_id, warehouse_id, delta, reference"
// @Success      201   {object}  dto.TransactionDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/operations/adjustments [post]
func (h *OperationsHandler) CreateAdjustment(c *fiber.Ctx) error {
	var in dto.CreateAdjustmentRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	tx, err := h.engine.Adjustment(c.UserContext(), inventory.AdjustmentInput{
		ProductID:   in.ProductID,
		WarehouseID: in.WarehouseID,
		Delta:       in.Delta,
		Reference:   in.Reference,
		Notes:       in.Notes,
		CreatedBy:   GetUserID(c),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return h.respond(c, fiber.StatusCreated, tx)
}

func (h *OperationsHandler) respond(c *fiber.Ctx, status int, tx *entity.Transaction) error {
	list, err := h.query.ToDTOs(c.UserContext(), []*entity.Transaction{tx})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(status).JSON(list[0])
}
