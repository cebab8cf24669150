package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/handoff-assistant/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/handoff-assistant/pkg/config"
)

// HealthCheck reports whether a dependency is reachable
type HealthCheck func(ctx context.Context) error

// Router holds all handlers
type Router struct {
	cfg            *config.Config
	handoffHandler *Handoff
	patientHandler *Patient
	webhookHandler *WebhookHandler
	checks         map[string]HealthCheck
	logger         *zap.Logger
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, handoffHandler *Handoff, patientHandler *Patient, webhookHandler *WebhookHandler, checks map[string]HealthCheck, logger *zap.Logger) *Router {
	return &Router{
		cfg:            cfg,
		handoffHandler: handoffHandler,
		patientHandler: patientHandler,
		webhookHandler: webhookHandler,
		checks:         checks,
		logger:         logger,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthCheck)

	// API v1 group
	v1 := e.Group("/v1")

	rt.setupHandoffRoutes(v1)
	rt.setupPatientRoutes(v1)
	rt.setupWebhookRoutes(v1)
}

// setupHandoffRoutes configures analysis routes
func (rt *Router) setupHandoffRoutes(g *echo.Group) {
	handoffs := g.Group("/handoffs")

	if rt.handoffHandler == nil {
		handoffs.Any("/*", rt.notImplemented)
		return
	}
	handoffs.POST("/process", rt.handoffHandler.ProcessHandoff)
	handoffs.POST("/risk", rt.handoffHandler.QuickRisk)
	handoffs.GET("/:id", rt.handoffHandler.GetHandoff)
}

// setupPatientRoutes configures registry and timeline routes
func (rt *Router) setupPatientRoutes(g *echo.Group) {
	patients := g.Group("/patients")

	if rt.patientHandler == nil {
		patients.Any("/*", rt.notImplemented)
		return
	}
	patients.POST("", rt.patientHandler.CreatePatient)
	patients.GET("/:id", rt.patientHandler.GetPatient)
	patients.GET("/:id/handoffs", rt.patientHandler.ListHandoffs)
	patients.GET("/:id/risk-trend", rt.patientHandler.RiskTrend)
	patients.GET("/:id/active-risks", rt.patientHandler.ActiveRisks)
}

// setupWebhookRoutes configures collaborator webhooks
func (rt *Router) setupWebhookRoutes(g *echo.Group) {
	webhooks := g.Group("/webhooks")

	if rt.webhookHandler == nil {
		webhooks.POST("/transcripts", rt.notImplemented)
		return
	}
	secret := ""
	if rt.cfg != nil {
		secret = rt.cfg.Webhook.Secret
	}
	webhooks.POST("/transcripts", rt.webhookHandler.HandleTranscriptWebhook,
		middleware.EchoSignature(secret, rt.logger))
}

// notImplemented returns 501 Not Implemented response
func (rt *Router) notImplemented(c echo.Context) error {
	return c.JSON(http.StatusNotImplemented, map[string]interface{}{
		"error":  "This endpoint is not yet implemented",
		"path":   c.Request().URL.Path,
		"method": c.Request().Method,
	})
}

// healthCheck returns health status and the state of each dependency
func (rt *Router) healthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	code := http.StatusOK
	deps := make(map[string]string, len(rt.checks))
	for name, check := range rt.checks {
		if err := check(ctx); err != nil {
			deps[name] = err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	environment := ""
	if rt.cfg != nil {
		environment = rt.cfg.Server.Environment
	}
	return c.JSON(code, map[string]interface{}{
		"status":       status,
		"environment":  environment,
		"dependencies": deps,
		"time":         time.Now().UTC().Format(time.RFC3339),
	})
}
