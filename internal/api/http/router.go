package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/carebridge/referral-service/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Metrics   *handlers.MetricsHandler
	Referrals *handlers.ReferralsHandler
	Workflow  *handlers.WorkflowHandler
	Matching  *handlers.MatchingHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Metrics.Totals)

	referrals := app.Group("/referrals")
	referrals.Post("", cfg.Referrals.CreateReferral)
	referrals.Get("", cfg.Referrals.ListReferrals)
	referrals.Get("/:id", cfg.Referrals.GetReferral)

	wf := app.Group("/workflow")
	wf.Post("/referrals/advance-batch", cfg.Workflow.AdvanceBatch)
	wf.Post("/referrals/:id/advance", cfg.Workflow.Advance)
	wf.Post("/referrals/:id/agreement", cfg.Workflow.GenerateAgreement)
	wf.Get("/analytics", cfg.Workflow.Analytics)

	matching := app.Group("/matching")
	matching.Post("/participants/:id/matches", cfg.Matching.MatchParticipant)
}
