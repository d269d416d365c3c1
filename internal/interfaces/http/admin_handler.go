package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stockmaster-api/internal/application/dto"
	"github.com/jhoicas/stockmaster-api/internal/application/inventory"
)

// AdminHandler verificación y reconstrucción de la vista de stock (solo admin).
type AdminHandler struct {
	projector *inventory.Projector
	log       zerolog.Logger
}

// NewAdminHandler construye el handler.
func NewAdminHandler(projector *inventory.Projector, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{projector: projector, log: log}
}

// Verify godoc
// @Summary      Comparar la vista de stock con el replay del libro
// @Tags         admin
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/admin/projection/verify [get]
func (h *AdminHandler) Verify(c *fiber.Ctx) error {
	drifts, err := h.projector.Verify(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.DriftDTO, 0, len(drifts))
	for _, d := range drifts {
		out = append(out, dto.DriftDTO{
			ProductID: d.Key.ProductID, WarehouseID: d.Key.WarehouseID, Cached: d.Cached, Replayed: d.Replayed,
		})
	}
	return c.JSON(fiber.Map{"consistent": len(out) == 0, "drifts": out})
}

// Rebuild godoc
// @Summary      Reconstruir la vista de stock desde el libro
// @Tags         admin
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]int
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/admin/projection/rebuild [post]
func (h *AdminHandler) Rebuild(c *fiber.Ctx) error {
	n, err := h.projector.Rebuild(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	h.log.Info().Str("by", GetUserID(c)).Int("pairs", n).Msg("vista de stock reconstruida")
	return c.JSON(fiber.Map{"pairs": n})
}
