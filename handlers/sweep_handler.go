package handlers

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/healthconnect/sms-dispatcher/internal/scheduler"
	"github.com/healthconnect/sms-dispatcher/internal/service"
	"github.com/healthconnect/sms-dispatcher/pkg/response"
)

type SweepHandler struct {
	sweep     *service.SweepService
	scheduler *scheduler.Scheduler
	ctx       context.Context
}

func NewSweepHandler(
	sweep *service.SweepService,
	sched *scheduler.Scheduler,
	ctx context.Context,
) *SweepHandler {
	return &SweepHandler{
		sweep:     sweep,
		scheduler: sched,
		ctx:       ctx,
	}
}

// RunSweep godoc
// @Summary Trigger the daily follow-up sweep
// @Description Runs the follow-up reminder sweep immediately. The durable daily gate still applies: if the sweep already ran today this is a no-op.
// @Tags sweep
// @Accept json
// @Produce json
// @Param x-hc-auth-key header string true "API key for sweep"
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/sweep/run [post]
func (h *SweepHandler) RunSweep(c echo.Context) error {
	report, err := h.sweep.Run(c.Request().Context())
	if err != nil {
		return response.InternalServerError(c, err)
	}

	if !report.Claimed {
		return response.OkWithMessage(c, "Sweep already ran today", report)
	}

	return response.OkWithMessage(c, "Sweep completed", report)
}

// StartScheduler godoc
// @Summary Start the sweep scheduler
// @Description Starts the background loop that re-evaluates the daily sweep gate on an interval
// @Tags sweep
// @Accept json
// @Produce json
// @Param x-hc-auth-key header string true "API key for sweep"
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/sweep/start [post]
func (h *SweepHandler) StartScheduler(c echo.Context) error {
	if h.scheduler.IsRunning() {
		return response.OkWithMessage(c, "Sweep scheduler is already running", h.scheduler.GetStatus())
	}

	if err := h.scheduler.Start(h.ctx); err != nil {
		return response.InternalServerError(c, err)
	}

	return response.OkWithMessage(c, "Sweep scheduler started", h.scheduler.GetStatus())
}

// StopScheduler godoc
// @Summary Stop the sweep scheduler
// @Description Stops the background sweep loop. Manual runs remain available.
// @Tags sweep
// @Accept json
// @Produce json
// @Param x-hc-auth-key header string true "API key for sweep"
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/sweep/stop [post]
func (h *SweepHandler) StopScheduler(c echo.Context) error {
	if !h.scheduler.IsRunning() {
		return response.OkWithMessage(c, "Sweep scheduler is already stopped", h.scheduler.GetStatus())
	}

	if err := h.scheduler.Stop(); err != nil {
		return response.InternalServerError(c, err)
	}

	return response.OkWithMessage(c, "Sweep scheduler stopped", h.scheduler.GetStatus())
}

// GetSchedulerStatus godoc
// @Summary Get sweep scheduler status
// @Description Returns the current status and statistics of the sweep scheduler
// @Tags sweep
// @Accept json
// @Produce json
// @Param x-hc-auth-key header string true "API key for sweep"
// @Success 200 {object} response.SuccessResponse
// @Router /api/v1/sweep/status [get]
func (h *SweepHandler) GetSchedulerStatus(c echo.Context) error {
	return response.Ok(c, h.scheduler.GetStatus())
}
