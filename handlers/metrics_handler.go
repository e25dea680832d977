package handlers

import (
	"github.com/brandrank/audit-backend/shared"
	"github.com/gofiber/fiber/v2"
)

type MetricsHandler struct {
	Sources []*shared.ServiceMetrics
}

func NewMetricsHandler(sources ...*shared.ServiceMetrics) *MetricsHandler {
	return &MetricsHandler{Sources: sources}
}

// GetMetrics reports per-service request counters.
func (h *MetricsHandler) GetMetrics(c *fiber.Ctx) error {
	snapshots := make(map[string]fiber.Map, len(h.Sources))
	for _, source := range h.Sources {
		snapshot := source.Snapshot()
		snapshots[snapshot.ServiceName] = fiber.Map{
			"total_requests":          snapshot.TotalRequests,
			"successful_requests":     snapshot.SuccessfulRequests,
			"failed_requests":         snapshot.FailedRequests,
			"average_processing_time": snapshot.AverageProcessingTime.String(),
			"success_rate":            source.GetSuccessRate(),
			"last_updated":            snapshot.LastUpdated,
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    snapshots,
	})
}
