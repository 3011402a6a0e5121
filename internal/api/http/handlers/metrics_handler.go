package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/carebridge/referral-service/internal/observability"
)

// MetricsHandler exposes the in-memory request counters for scraping.
type MetricsHandler struct {
	metrics *observability.Metrics
}

// NewMetricsHandler returns a new handler instance.
func NewMetricsHandler(metrics *observability.Metrics) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// Totals returns aggregated request and error counters.
func (h *MetricsHandler) Totals(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"requests": h.metrics.RequestTotals(),
			"errors":   h.metrics.ErrorTotals(),
		},
	})
}
