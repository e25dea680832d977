package handlers

import (
	"strconv"

	"github.com/brandrank/audit-backend/services"
	"github.com/gofiber/fiber/v2"
)

type VisibilityHandler struct {
	Audits *services.AuditService
}

func NewVisibilityHandler(audits *services.AuditService) *VisibilityHandler {
	return &VisibilityHandler{Audits: audits}
}

type generatePromptsRequest struct {
	CompanyName string `json:"company_name"`
}

// GeneratePrompts produces the starting prompt set for a company without a
// stored audit.
func (h *VisibilityHandler) GeneratePrompts(c *fiber.Ctx) error {
	var req generatePromptsRequest
	if err := c.BodyParser(&req); err != nil || req.CompanyName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "company_name is required",
		})
	}

	prompts, err := h.Audits.GeneratePrompts(c.Context(), req.CompanyName)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    prompts,
	})
}

type updatePromptRequest struct {
	Prompt string `json:"prompt"`
}

// UpdatePrompt swaps one unbranded prompt on a stored audit for a freshly
// scored replacement.
func (h *VisibilityHandler) UpdatePrompt(c *fiber.Ctx) error {
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "prompt index must be a number",
		})
	}

	var req updatePromptRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid request body",
		})
	}

	audit, err := h.Audits.UpdateVisibilityPrompt(c.Context(), c.Params("id"), index, req.Prompt)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    audit,
	})
}

type updateCompetitorsRequest struct {
	Competitors []string `json:"competitors"`
}

// UpdateCompetitors replaces the competitor set and re-scores the competitor
// prompts.
func (h *VisibilityHandler) UpdateCompetitors(c *fiber.Ctx) error {
	var req updateCompetitorsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid request body",
		})
	}

	audit, err := h.Audits.UpdateCompetitorScores(c.Context(), c.Params("id"), req.Competitors)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    audit,
	})
}
