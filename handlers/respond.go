package handlers

import (
	"errors"
	"strings"

	"github.com/brandrank/audit-backend/shared"
	"github.com/gofiber/fiber/v2"
)

// statusForError maps the shared error taxonomy onto HTTP statuses.
func statusForError(err error) int {
	var serviceErr *shared.ServiceError
	if errors.As(err, &serviceErr) {
		switch serviceErr.Category {
		case shared.ErrorCategoryValidation:
			return fiber.StatusBadRequest
		case shared.ErrorCategoryAuthentication:
			return fiber.StatusUnauthorized
		case shared.ErrorCategoryNotFound:
			return fiber.StatusNotFound
		case shared.ErrorCategoryRateLimit:
			return fiber.StatusTooManyRequests
		}
	}
	return fiber.StatusInternalServerError
}

func errorResponse(c *fiber.Ctx, err error) error {
	payload := fiber.Map{
		"success": false,
		"error":   err.Error(),
	}

	var serviceErr *shared.ServiceError
	if errors.As(err, &serviceErr) {
		payload["error"] = serviceErr.Message
		payload["code"] = serviceErr.Code
		payload["retryable"] = serviceErr.Retryable
	}

	return c.Status(statusForError(err)).JSON(payload)
}

// bearerToken extracts the session token from the Authorization header.
func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}
