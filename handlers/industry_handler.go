package handlers

import (
	"github.com/brandrank/audit-backend/services"
	"github.com/gofiber/fiber/v2"
)

type IndustryHandler struct {
	Audits *services.AuditService
}

func NewIndustryHandler(audits *services.AuditService) *IndustryHandler {
	return &IndustryHandler{Audits: audits}
}

// GetIndustries returns every company's latest audit grouped by industry.
func (h *IndustryHandler) GetIndustries(c *fiber.Ctx) error {
	groups, err := h.Audits.IndustryOverview(c.Context())
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    groups,
	})
}
