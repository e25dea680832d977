package main

import (
	"log"

	"github.com/brandrank/audit-backend/config"
	"github.com/brandrank/audit-backend/handlers"
	"github.com/brandrank/audit-backend/jobs"
	"github.com/brandrank/audit-backend/platform"
	"github.com/brandrank/audit-backend/services"
	"github.com/brandrank/audit-backend/shared"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load config
	cfg := config.LoadConfig()

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	clock := shared.NewRealClock()

	// Platform client over a pooled HTTP client. Audit generation is a
	// long-running call, so the timeout is generous.
	clientFactory := shared.NewHTTPClientFactory(cfg.GetHTTPTimeout())
	defer clientFactory.CleanupAllClients()

	platformClient := platform.NewClient(
		cfg.PlatformBaseURL,
		cfg.PlatformAppID,
		cfg.PlatformAPIKey,
		clientFactory.CreateOptimizedHTTPClient(cfg.GetHTTPTimeout()),
	)
	auditStore := platform.NewAuditRecords(platformClient)
	companyStore := platform.NewCompanyRecords(platformClient)
	ranker := platform.NewBrandRanker(platformClient)
	auth := platform.NewAuth(platformClient)

	// Initialize services
	matcher := services.NewMatcherService()
	companyIndex := services.NewCompanyIndexService(auditStore, clock, cfg.GetCompanyIndexTTL())
	resolution := services.NewResolutionService(companyIndex, matcher)
	progress := services.NewProgressService(clock)
	auditService := services.NewAuditService(auditStore, ranker, auth, progress, companyIndex, clock)
	recommendations := services.NewRecommendationService(auditStore, ranker, clock)
	logos := services.NewLogoService(companyStore)

	logrus.Info("Brand audit backend services initialized:")
	logrus.Infof("  - Company name index (TTL: %v)", cfg.GetCompanyIndexTTL())
	logrus.Infof("  - Platform client (timeout: %v)", cfg.GetHTTPTimeout())
	logrus.Info("  - Matcher (exact, substring, edit-distance resolution)")
	logrus.Info("  - Recommendation backfill (2s call spacing)")

	// Start Background Jobs
	warmJob := jobs.NewIndexWarmJob(companyIndex, cfg.GetIndexWarmInterval(), clock)
	warmJob.Start()

	// Initialize handlers
	searchHandler := handlers.NewSearchHandler(resolution, auth)
	auditHandler := handlers.NewAuditHandler(auditService, progress, auth)
	recommendationHandler := handlers.NewRecommendationHandler(recommendations)
	visibilityHandler := handlers.NewVisibilityHandler(auditService)
	industryHandler := handlers.NewIndustryHandler(auditService)
	companyHandler := handlers.NewCompanyHandler(logos)
	metricsHandler := handlers.NewMetricsHandler(
		resolution.Metrics(),
		auditService.Metrics(),
		recommendations.Metrics(),
	)

	app := fiber.New(fiber.Config{
		AppName: "brand-audit-backend",
	})
	app.Use(logger.New())
	app.Use(cors.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"success": true,
			"data":    fiber.Map{"status": "ok"},
		})
	})

	api := app.Group("/api/v1")

	api.Post("/search/resolve", searchHandler.Resolve)

	api.Get("/audits", auditHandler.ListAudits)
	api.Post("/audits", auditHandler.Generate)
	api.Get("/audits/:id", auditHandler.GetAudit)
	api.Get("/progress/:runId", auditHandler.GetProgress)
	api.Delete("/progress/:runId", auditHandler.AbortProgress)

	api.Post("/audits/:id/recommendations", recommendationHandler.Start)
	api.Get("/audits/:id/recommendations", recommendationHandler.Status)

	api.Post("/prompts/generate", visibilityHandler.GeneratePrompts)
	api.Put("/audits/:id/prompts/:index", visibilityHandler.UpdatePrompt)
	api.Put("/audits/:id/competitors", visibilityHandler.UpdateCompetitors)

	api.Get("/industries", industryHandler.GetIndustries)
	api.Get("/companies/logo", companyHandler.GetLogo)
	api.Get("/metrics", metricsHandler.GetMetrics)

	log.Printf("Starting brand audit backend on port %s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
