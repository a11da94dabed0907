package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/healthconnect/sms-dispatcher/environments"
	"github.com/healthconnect/sms-dispatcher/handlers"
	"github.com/healthconnect/sms-dispatcher/internal/middlewares"
)

// RegisterRoutes registers all API routes with middleware
func RegisterRoutes(
	e *echo.Echo,
	healthHandler *handlers.HealthHandler,
	notificationHandler *handlers.NotificationHandler,
	sweepHandler *handlers.SweepHandler,
	cfg *environments.Config,
) {
	e.GET("/health", healthHandler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// API v1 base group
	v1 := e.Group("/api/v1")

	// Notification routes with their own API key
	notifications := v1.Group("/notifications", middlewares.APIKeyAuth(cfg.Auth.NotificationsAPIKey))

	notifications.POST("/appointment-reminder", notificationHandler.SendAppointmentReminder)
	notifications.POST("/immunization-reminder", notificationHandler.SendImmunizationReminder)
	notifications.POST("/followup-reminder", notificationHandler.SendFollowUpReminder)
	notifications.GET("/logs", notificationHandler.GetLogs)
	notifications.GET("/stats", notificationHandler.GetStats)

	// Sweep routes with their own API key
	sweepGroup := v1.Group("/sweep", middlewares.APIKeyAuth(cfg.Auth.SweepAPIKey))

	sweepGroup.POST("/run", sweepHandler.RunSweep)
	sweepGroup.POST("/start", sweepHandler.StartScheduler)
	sweepGroup.POST("/stop", sweepHandler.StopScheduler)
	sweepGroup.GET("/status", sweepHandler.GetSchedulerStatus)
}
