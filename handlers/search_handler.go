package handlers

import (
	"github.com/brandrank/audit-backend/models"
	"github.com/brandrank/audit-backend/platform"
	"github.com/brandrank/audit-backend/services"
	"github.com/brandrank/audit-backend/shared"
	"github.com/gofiber/fiber/v2"
)

type SearchHandler struct {
	Resolution *services.ResolutionService
	Auth       platform.AuthProvider
}

func NewSearchHandler(resolution *services.ResolutionService, auth platform.AuthProvider) *SearchHandler {
	return &SearchHandler{Resolution: resolution, Auth: auth}
}

type resolveRequest struct {
	CompanyName string `json:"company_name"`
}

// Resolve turns a free-text brand search into a Results navigation target.
// An unauthenticated caller gets a 401 carrying the hosted login URL; after
// logging in the client re-submits the same input.
func (h *SearchHandler) Resolve(c *fiber.Ctx) error {
	var req resolveRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "invalid request body",
		})
	}

	session := h.session(c)

	target, err := h.Resolution.ResolveAndRoute(c.Context(), session, req.CompanyName)
	if err != nil {
		if shared.IsUnauthenticated(err) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success":   false,
				"error":     "authentication required",
				"login_url": h.Auth.LoginRedirectURL("/Results"),
			})
		}
		return errorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    target,
	})
}

func (h *SearchHandler) session(c *fiber.Ctx) models.Session {
	token := bearerToken(c)
	if token == "" {
		return models.Session{}
	}

	user, err := h.Auth.Me(c.Context(), token)
	if err != nil {
		return models.Session{}
	}
	return models.Session{IsAuthenticated: true, User: user}
}
