package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/healthconnect/sms-dispatcher/pkg/response"
	validatorpkg "github.com/healthconnect/sms-dispatcher/pkg/validator"
)

// TestSendAppointmentReminder_BadJSON verifies that invalid JSON returns 400.
func TestSendAppointmentReminder_BadJSON(t *testing.T) {
	e := echo.New()
	// Validator is not needed here because Bind fails before Validate is called.
	handler := NewNotificationHandler(nil, nil)

	reqBody := `{"appointmentId":`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/appointment-reminder", strings.NewReader(reqBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.SendAppointmentReminder(c); err != nil {
		t.Fatalf("SendAppointmentReminder returned error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}

	var resp response.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response body: %v", err)
	}

	if resp.Success {
		t.Fatalf("expected Success=false, got true")
	}
	if resp.Error == "" {
		t.Fatalf("expected Error to be non-empty")
	}
}

// TestSendAppointmentReminder_MissingID verifies that a zero appointment id
// fails validation with 422.
func TestSendAppointmentReminder_MissingID(t *testing.T) {
	e := echo.New()
	e.Validator = validatorpkg.New()

	// Service is nil on purpose; validation fails before the service is called.
	handler := NewNotificationHandler(nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/appointment-reminder", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.SendAppointmentReminder(c); err != nil {
		t.Fatalf("SendAppointmentReminder returned error: %v", err)
	}

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status %d, got %d", http.StatusUnprocessableEntity, rec.Code)
	}

	var resp validatorpkg.ValidationErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response body: %v", err)
	}

	if resp.Success {
		t.Fatalf("expected Success=false, got true")
	}
	if _, ok := resp.Details["appointmentId"]; !ok {
		t.Errorf("expected a validation detail for appointmentId, got %v", resp.Details)
	}
}

// TestSendImmunizationReminder_MessageTooLong verifies the 480-char cap.
func TestSendImmunizationReminder_MessageTooLong(t *testing.T) {
	e := echo.New()
	e.Validator = validatorpkg.New()

	handler := NewNotificationHandler(nil, nil)

	longMessage := strings.Repeat("a", 481)
	reqBody := `{"patientId": 1, "message": "` + longMessage + `"}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/immunization-reminder", strings.NewReader(reqBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.SendImmunizationReminder(c); err != nil {
		t.Fatalf("SendImmunizationReminder returned error: %v", err)
	}

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status %d, got %d", http.StatusUnprocessableEntity, rec.Code)
	}

	var resp validatorpkg.ValidationErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response body: %v", err)
	}
	if _, ok := resp.Details["message"]; !ok {
		t.Errorf("expected a validation detail for message, got %v", resp.Details)
	}
}

// TestGetLogs_InvalidStatusFilter verifies that an unknown status is a 400.
func TestGetLogs_InvalidStatusFilter(t *testing.T) {
	e := echo.New()
	handler := NewNotificationHandler(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications/logs?status=pending", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.GetLogs(c); err != nil {
		t.Fatalf("GetLogs returned error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

// TestGetLogs_BadPagination verifies pagination validation.
func TestGetLogs_BadPagination(t *testing.T) {
	e := echo.New()
	handler := NewNotificationHandler(nil, nil)

	for _, query := range []string{"page=0", "page=abc", "pageSize=0", "pageSize=101"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications/logs?"+query, nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		if err := handler.GetLogs(c); err != nil {
			t.Fatalf("GetLogs(%s) returned error: %v", query, err)
		}

		if rec.Code != http.StatusBadRequest {
			t.Errorf("GetLogs(%s): expected status %d, got %d", query, http.StatusBadRequest, rec.Code)
		}
	}
}
