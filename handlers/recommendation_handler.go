package handlers

import (
	"github.com/brandrank/audit-backend/services"
	"github.com/gofiber/fiber/v2"
)

type RecommendationHandler struct {
	Recommendations *services.RecommendationService
}

func NewRecommendationHandler(recommendations *services.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{Recommendations: recommendations}
}

type backfillRequest struct {
	RetryFor string `json:"retry_for"`
}

// Start launches the backfill loop for an audit. With retry_for set, only
// that sub-metric is regenerated.
func (h *RecommendationHandler) Start(c *fiber.Ctx) error {
	var req backfillRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"error":   "invalid request body",
			})
		}
	}

	if err := h.Recommendations.StartBackfill(c.Context(), c.Params("id"), req.RetryFor); err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"success": true,
		"data":    h.Recommendations.Status(c.Params("id")),
	})
}

// Status reports the streaming per-sub-metric state of the backfill.
func (h *RecommendationHandler) Status(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    h.Recommendations.Status(c.Params("id")),
	})
}
