package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stockmaster-api/internal/application/inventory"
)

// DashboardHandler maneja los endpoints del Dashboard.
type DashboardHandler struct {
	svc *inventory.DashboardService
	log zerolog.Logger
}

// NewDashboardHandler construye el handler.
func NewDashboardHandler(svc *inventory.DashboardService, log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{svc: svc, log: log}
}

// GetSummary godoc
// @Summary      Tarjetas del dashboard
// @Description  Total de productos, productos bajo el umbral, recepciones y entregas pendientes.
// @Tags         dashboard
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.DashboardSummaryDTO
// @Router       /api/dashboard/summary [get]
func (h *DashboardHandler) GetSummary(c *fiber.Ctx) error {
	summary, err := h.svc.Summary(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(summary)
}
