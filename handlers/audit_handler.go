package handlers

import (
	"github.com/brandrank/audit-backend/services"
	"github.com/brandrank/audit-backend/shared"
	"github.com/gofiber/fiber/v2"
)

type AuditHandler struct {
	Audits   *services.AuditService
	Progress *services.ProgressService
	Auth     loginURLProvider
}

type loginURLProvider interface {
	LoginRedirectURL(returnURL string) string
}

func NewAuditHandler(audits *services.AuditService, progress *services.ProgressService, auth loginURLProvider) *AuditHandler {
	return &AuditHandler{Audits: audits, Progress: progress, Auth: auth}
}

// ListAudits returns the stored audits for a company, newest first.
func (h *AuditHandler) ListAudits(c *fiber.Ctx) error {
	company := c.Query("company")
	if company == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "company query parameter is required",
		})
	}

	audits, err := h.Audits.LoadExistingAudits(c.Context(), company)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    audits,
	})
}

func (h *AuditHandler) GetAudit(c *fiber.Ctx) error {
	audit, err := h.Audits.GetAudit(c.Context(), c.Params("id"))
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    audit,
	})
}

type generateRequest struct {
	CompanyName       string   `json:"company_name"`
	UnbrandedPrompts  []string `json:"unbranded_prompts"`
	CompetitorPrompts []string `json:"competitor_prompts"`
	Competitors       []string `json:"competitors"`
}

// Generate starts audit generation and answers immediately with the run ID
// to poll for progress.
func (h *AuditHandler) Generate(c *fiber.Ctx) error {
	var req generateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid request body",
		})
	}

	runID, err := h.Audits.StartGeneration(c.Context(), bearerToken(c), req.CompanyName, req.UnbrandedPrompts, req.CompetitorPrompts, req.Competitors)
	if err != nil {
		if shared.IsUnauthenticated(err) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success":   false,
				"error":     "authentication required",
				"login_url": h.Auth.LoginRedirectURL("/Results?company=" + req.CompanyName),
			})
		}
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"run_id": runID},
	})
}

// GetProgress returns the current progress snapshot of a generation run.
func (h *AuditHandler) GetProgress(c *fiber.Ctx) error {
	snapshot, ok := h.Progress.Snapshot(c.Params("runId"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "unknown progress run",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    snapshot,
	})
}

// AbortProgress tears down a run whose view was dismissed before resolution.
func (h *AuditHandler) AbortProgress(c *fiber.Ctx) error {
	h.Progress.Abort(c.Params("runId"))
	return c.JSON(fiber.Map{
		"success": true,
	})
}
