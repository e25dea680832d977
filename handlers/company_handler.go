package handlers

import (
	"github.com/brandrank/audit-backend/services"
	"github.com/gofiber/fiber/v2"
)

type CompanyHandler struct {
	Logos *services.LogoService
}

func NewCompanyHandler(logos *services.LogoService) *CompanyHandler {
	return &CompanyHandler{Logos: logos}
}

// GetLogo resolves a display logo URL for a company name.
func (h *CompanyHandler) GetLogo(c *fiber.Ctx) error {
	name := c.Query("name")
	if name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "name query parameter is required",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"company_name": name,
			"logo_url":     h.Logos.LookupLogoURL(c.Context(), name),
		},
	})
}
