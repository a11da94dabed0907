package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/healthconnect/sms-dispatcher/internal/domain"
)

type fakeClinical struct {
	patients     map[int64]*domain.Patient
	appointments map[int64]*domain.Appointment
	records      map[int64]*domain.FollowUpDue

	immunizationLog []string
	recordErr       error
}

func (f *fakeClinical) GetPatient(ctx context.Context, id int64) (*domain.Patient, error) {
	return f.patients[id], nil
}

func (f *fakeClinical) GetAppointment(ctx context.Context, id int64) (*domain.Appointment, error) {
	return f.appointments[id], nil
}

func (f *fakeClinical) GetMedicalRecord(ctx context.Context, id int64) (*domain.FollowUpDue, error) {
	return f.records[id], nil
}

func (f *fakeClinical) RecordImmunizationReminder(ctx context.Context, patientID int64, message string, sentBy *int64) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	f.immunizationLog = append(f.immunizationLog, message)
	return nil
}

// capturingSender records requests and returns a canned result.
type capturingSender struct {
	result domain.DispatchResult
	sends  []domain.SendRequest
}

func (s *capturingSender) Send(ctx context.Context, req domain.SendRequest) domain.DispatchResult {
	s.sends = append(s.sends, req)
	return s.result
}

func TestAppointmentReminder_UsesAppointmentAsCorrelation(t *testing.T) {
	ctx := context.Background()

	clinical := &fakeClinical{appointments: map[int64]*domain.Appointment{
		42: {
			ID:           42,
			PatientName:  "Maria Santos",
			PhoneNumber:  "09171234567",
			ScheduleDate: "2025-03-15",
			ScheduleTime: "09:30",
		},
	}}
	sender := &capturingSender{result: domain.DispatchResult{Success: true, Message: "message sent"}}

	svc := NewNotificationService(sender, clinical)

	result, err := svc.SendAppointmentReminder(ctx, 42)
	if err != nil {
		t.Fatalf("SendAppointmentReminder returned error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}

	if len(sender.sends) != 1 {
		t.Fatalf("expected 1 dispatch, got %d", len(sender.sends))
	}
	req := sender.sends[0]
	if req.CorrelationID != "appointment:42" {
		t.Errorf("expected correlation id appointment:42, got %q", req.CorrelationID)
	}
	if req.Recipient != "09171234567" {
		t.Errorf("expected raw phone passed through, got %q", req.Recipient)
	}
}

func TestAppointmentReminder_UnknownAppointmentIsNotFound(t *testing.T) {
	ctx := context.Background()

	clinical := &fakeClinical{appointments: map[int64]*domain.Appointment{}}
	sender := &capturingSender{}

	svc := NewNotificationService(sender, clinical)

	_, err := svc.SendAppointmentReminder(ctx, 99)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(sender.sends) != 0 {
		t.Fatalf("expected no dispatch for a missing appointment, got %d", len(sender.sends))
	}
}

func TestImmunizationReminder_RecordsSideLogOnSuccess(t *testing.T) {
	ctx := context.Background()

	clinical := &fakeClinical{patients: map[int64]*domain.Patient{
		7: {ID: 7, PhoneNumber: "09171234567"},
	}}
	sender := &capturingSender{result: domain.DispatchResult{Success: true, Message: "message sent"}}

	svc := NewNotificationService(sender, clinical)

	result, err := svc.SendImmunizationReminder(ctx, 7, "MMR booster due next week po.", nil)
	if err != nil {
		t.Fatalf("SendImmunizationReminder returned error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if len(clinical.immunizationLog) != 1 {
		t.Fatalf("expected 1 side log entry, got %d", len(clinical.immunizationLog))
	}
}

func TestImmunizationReminder_NoSideLogOnFailedSend(t *testing.T) {
	ctx := context.Background()

	clinical := &fakeClinical{patients: map[int64]*domain.Patient{
		7: {ID: 7, PhoneNumber: "09171234567"},
	}}
	sender := &capturingSender{result: domain.DispatchResult{Success: false, Message: "gateway unavailable"}}

	svc := NewNotificationService(sender, clinical)

	result, err := svc.SendImmunizationReminder(ctx, 7, "MMR booster due next week po.", nil)
	if err != nil {
		t.Fatalf("SendImmunizationReminder returned error: %v", err)
	}
	if result.Success {
		t.Fatalf("expected failure to propagate, got %+v", result)
	}
	if len(clinical.immunizationLog) != 0 {
		t.Fatalf("expected no side log entry for a failed send, got %d", len(clinical.immunizationLog))
	}
}

func TestImmunizationReminder_SideLogFailureDoesNotMaskResult(t *testing.T) {
	ctx := context.Background()

	clinical := &fakeClinical{
		patients:  map[int64]*domain.Patient{7: {ID: 7, PhoneNumber: "09171234567"}},
		recordErr: errors.New("table locked"),
	}
	sender := &capturingSender{result: domain.DispatchResult{Success: true, Message: "message sent"}}

	svc := NewNotificationService(sender, clinical)

	result, err := svc.SendImmunizationReminder(ctx, 7, "Tetanus shot due.", nil)
	if err != nil {
		t.Fatalf("SendImmunizationReminder returned error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected the dispatch outcome to survive a side log failure, got %+v", result)
	}
}

func TestFollowUpReminder_IncludesDoctorNote(t *testing.T) {
	ctx := context.Background()

	clinical := &fakeClinical{records: map[int64]*domain.FollowUpDue{
		3: {
			RecordID:    3,
			PatientName: "Jose Reyes",
			PhoneNumber: "09281234567",
			Notes:       `{"follow_up_message":"Fasting required before blood test."}`,
		},
	}}
	sender := &capturingSender{result: domain.DispatchResult{Success: true, Message: "message sent"}}

	svc := NewNotificationService(sender, clinical)

	if _, err := svc.SendFollowUpReminder(ctx, 3); err != nil {
		t.Fatalf("SendFollowUpReminder returned error: %v", err)
	}

	if len(sender.sends) != 1 {
		t.Fatalf("expected 1 dispatch, got %d", len(sender.sends))
	}
	msg := sender.sends[0].Message
	if want := "Doctor's note: Fasting required before blood test."; !strings.Contains(msg, want) {
		t.Errorf("expected message to include %q, got %q", want, msg)
	}
}
