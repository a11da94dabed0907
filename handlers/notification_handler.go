package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/healthconnect/sms-dispatcher/internal/domain"
	"github.com/healthconnect/sms-dispatcher/internal/repository"
	"github.com/healthconnect/sms-dispatcher/internal/service"
	"github.com/healthconnect/sms-dispatcher/pkg/response"
	"github.com/healthconnect/sms-dispatcher/pkg/validator"
)

type NotificationHandler struct {
	notifications *service.NotificationService
	logs          *repository.DeliveryLogRepository
}

func NewNotificationHandler(
	notifications *service.NotificationService,
	logs *repository.DeliveryLogRepository,
) *NotificationHandler {
	return &NotificationHandler{
		notifications: notifications,
		logs:          logs,
	}
}

type AppointmentReminderRequest struct {
	AppointmentID int64 `json:"appointmentId" validate:"required,min=1"`
}

type ImmunizationReminderRequest struct {
	PatientID int64  `json:"patientId" validate:"required,min=1"`
	Message   string `json:"message" validate:"required,notblank,max=480"`
	SentBy    *int64 `json:"sentBy,omitempty" validate:"omitempty,min=1"`
}

type FollowUpReminderRequest struct {
	MedicalRecordID int64 `json:"medicalRecordId" validate:"required,min=1"`
}

// SendAppointmentReminder godoc
// @Summary Send an appointment reminder
// @Description Sends an SMS reminder for an upcoming appointment. Sent at most once per appointment.
// @Tags notifications
// @Accept json
// @Produce json
// @Param x-hc-auth-key header string true "API key for notifications"
// @Param request body AppointmentReminderRequest true "Appointment to remind"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/notifications/appointment-reminder [post]
func (h *NotificationHandler) SendAppointmentReminder(c echo.Context) error {
	var req AppointmentReminderRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	result, err := h.notifications.SendAppointmentReminder(c.Request().Context(), req.AppointmentID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return response.NotFound(c, err.Error())
		}
		return response.InternalServerError(c, err)
	}

	return dispatchResponse(c, result)
}

// SendImmunizationReminder godoc
// @Summary Send an immunization reminder
// @Description Sends a health-worker-authored SMS reminder to a patient
// @Tags notifications
// @Accept json
// @Produce json
// @Param x-hc-auth-key header string true "API key for notifications"
// @Param request body ImmunizationReminderRequest true "Reminder to send"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/notifications/immunization-reminder [post]
func (h *NotificationHandler) SendImmunizationReminder(c echo.Context) error {
	var req ImmunizationReminderRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	result, err := h.notifications.SendImmunizationReminder(
		c.Request().Context(),
		req.PatientID,
		req.Message,
		req.SentBy,
	)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return response.NotFound(c, err.Error())
		}
		return response.InternalServerError(c, err)
	}

	return dispatchResponse(c, result)
}

// SendFollowUpReminder godoc
// @Summary Send a follow-up reminder
// @Description Sends an SMS reminder for a due follow-up check-up
// @Tags notifications
// @Accept json
// @Produce json
// @Param x-hc-auth-key header string true "API key for notifications"
// @Param request body FollowUpReminderRequest true "Medical record to remind for"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/notifications/followup-reminder [post]
func (h *NotificationHandler) SendFollowUpReminder(c echo.Context) error {
	var req FollowUpReminderRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	result, err := h.notifications.SendFollowUpReminder(c.Request().Context(), req.MedicalRecordID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return response.NotFound(c, err.Error())
		}
		return response.InternalServerError(c, err)
	}

	return dispatchResponse(c, result)
}

// dispatchResponse maps a dispatch outcome to HTTP. Failed sends are still
// 200: callers branch on the result's success flag and surface its message,
// not on status codes.
func dispatchResponse(c echo.Context, result domain.DispatchResult) error {
	return c.JSON(http.StatusOK, result)
}

// GetLogs godoc
// @Summary Get delivery log
// @Description Retrieves a paginated list of delivery log entries with optional status filter
// @Tags notifications
// @Accept json
// @Produce json
// @Param x-hc-auth-key header string true "API key for notifications"
// @Param page query int false "Page number (default: 1)"
// @Param pageSize query int false "Page size (default: 20, max: 100)"
// @Param status query string false "Filter by status (sent, failed)"
// @Success 200 {object} response.PaginatedResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/notifications/logs [get]
func (h *NotificationHandler) GetLogs(c echo.Context) error {
	page, pageSize, err := parsePaginationParams(c)
	if err != nil {
		return response.BadRequest(c, err)
	}

	var status *domain.DeliveryStatus
	if statusStr := c.QueryParam("status"); statusStr != "" {
		parsed := domain.DeliveryStatus(statusStr)
		if parsed != domain.StatusSent && parsed != domain.StatusFailed {
			return response.BadRequest(c, fmt.Errorf("status must be sent or failed"))
		}
		status = &parsed
	}

	entries, totalCount, err := h.logs.List(c.Request().Context(), status, page, pageSize)
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Paginated(c, entries, page, pageSize, totalCount)
}

// GetStats godoc
// @Summary Get delivery statistics
// @Description Returns counts of sent and failed notifications
// @Tags notifications
// @Accept json
// @Produce json
// @Param x-hc-auth-key header string true "API key for notifications"
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/notifications/stats [get]
func (h *NotificationHandler) GetStats(c echo.Context) error {
	sent, failed, err := h.logs.GetStats(c.Request().Context())
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Ok(c, map[string]any{
		"sent":   sent,
		"failed": failed,
		"total":  sent + failed,
	})
}

func parsePaginationParams(c echo.Context) (int, int, error) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)

	pageStr := c.QueryParam("page")
	pageSizeStr := c.QueryParam("pageSize")

	page := defaultPage
	if pageStr != "" {
		p, err := strconv.Atoi(pageStr)
		if err != nil || p <= 0 {
			return 0, 0, fmt.Errorf("page must be a positive integer")
		}
		page = p
	}

	pageSize := defaultPageSize
	if pageSizeStr != "" {
		ps, err := strconv.Atoi(pageSizeStr)
		if err != nil || ps <= 0 || ps > maxPageSize {
			return 0, 0, fmt.Errorf("pageSize must be between 1 and %d", maxPageSize)
		}

		pageSize = ps
	}

	return page, pageSize, nil
}
