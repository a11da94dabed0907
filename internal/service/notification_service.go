package service

import (
	"context"
	"fmt"

	"github.com/healthconnect/sms-dispatcher/internal/domain"
	"github.com/healthconnect/sms-dispatcher/pkg/logger"
)

// notificationSender is the slice of the Dispatcher the triggers need.
type notificationSender interface {
	Send(ctx context.Context, req domain.SendRequest) domain.DispatchResult
}

// clinicalReader looks up recipients server-side. Callers of the trigger
// endpoints only ever supply entity ids, never phone numbers.
type clinicalReader interface {
	GetPatient(ctx context.Context, id int64) (*domain.Patient, error)
	GetAppointment(ctx context.Context, id int64) (*domain.Appointment, error)
	GetMedicalRecord(ctx context.Context, id int64) (*domain.FollowUpDue, error)
	RecordImmunizationReminder(ctx context.Context, patientID int64, message string, sentBy *int64) error
}

// ErrNotFound marks a missing appointment/patient/record so handlers can
// answer 404 instead of a dispatch failure.
var ErrNotFound = fmt.Errorf("not found")

// NotificationService implements the three manual reminder triggers on top
// of the Dispatcher Core.
type NotificationService struct {
	dispatcher notificationSender
	clinical   clinicalReader
}

func NewNotificationService(dispatcher notificationSender, clinical clinicalReader) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		clinical:   clinical,
	}
}

// SendAppointmentReminder notifies the patient of an upcoming appointment.
// The appointment id doubles as the correlation id, so the reminder is sent
// at most once per appointment across retries and sessions.
func (s *NotificationService) SendAppointmentReminder(ctx context.Context, appointmentID int64) (domain.DispatchResult, error) {
	appt, err := s.clinical.GetAppointment(ctx, appointmentID)
	if err != nil {
		return domain.DispatchResult{}, fmt.Errorf("failed to load appointment: %w", err)
	}
	if appt == nil {
		return domain.DispatchResult{}, fmt.Errorf("appointment %d: %w", appointmentID, ErrNotFound)
	}

	message := fmt.Sprintf(
		"Hi %s, this is a reminder of your appointment at the health center on %s at %s. Please arrive 15 minutes early.",
		appt.PatientName, appt.ScheduleDate, appt.ScheduleTime,
	)

	result := s.dispatcher.Send(ctx, domain.SendRequest{
		Recipient:     appt.PhoneNumber,
		Message:       message,
		CorrelationID: fmt.Sprintf("appointment:%d", appointmentID),
	})

	return result, nil
}

// SendImmunizationReminder sends a health-worker-authored reminder to a
// patient and records it in the immunization side log. The side log is
// best-effort: its failure never fails a dispatch that already happened.
func (s *NotificationService) SendImmunizationReminder(
	ctx context.Context,
	patientID int64,
	message string,
	sentBy *int64,
) (domain.DispatchResult, error) {
	patient, err := s.clinical.GetPatient(ctx, patientID)
	if err != nil {
		return domain.DispatchResult{}, fmt.Errorf("failed to load patient: %w", err)
	}
	if patient == nil {
		return domain.DispatchResult{}, fmt.Errorf("patient %d: %w", patientID, ErrNotFound)
	}

	result := s.dispatcher.Send(ctx, domain.SendRequest{
		Recipient: patient.PhoneNumber,
		Message:   message,
	})

	if result.Success {
		if err := s.clinical.RecordImmunizationReminder(ctx, patientID, message, sentBy); err != nil {
			logger.Warnf("Failed to record immunization reminder for patient %d: %v", patientID, err)
		}
	}

	return result, nil
}

// SendFollowUpReminder notifies the patient of a due follow-up check-up. The
// doctor's note, if any, is read out of the record's follow-up annotation.
func (s *NotificationService) SendFollowUpReminder(ctx context.Context, medicalRecordID int64) (domain.DispatchResult, error) {
	record, err := s.clinical.GetMedicalRecord(ctx, medicalRecordID)
	if err != nil {
		return domain.DispatchResult{}, fmt.Errorf("failed to load medical record: %w", err)
	}
	if record == nil {
		return domain.DispatchResult{}, fmt.Errorf("medical record %d: %w", medicalRecordID, ErrNotFound)
	}

	result := s.dispatcher.Send(ctx, domain.SendRequest{
		Recipient: record.PhoneNumber,
		Message:   BuildFollowUpMessage(record.PatientName, record.Notes),
	})

	return result, nil
}

// BuildFollowUpMessage composes the follow-up reminder text, appending the
// doctor's note from the record's annotation when present.
func BuildFollowUpMessage(patientName, notes string) string {
	message := fmt.Sprintf(
		"Hi %s, this is a reminder of your follow-up check-up at the health center today.",
		patientName,
	)

	ann := domain.ParseFollowUpAnnotation(notes)
	if ann.FollowUpMessage != "" {
		message += " Doctor's note: " + ann.FollowUpMessage
	}

	return message
}
