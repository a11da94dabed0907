package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/healthconnect/sms-dispatcher/internal/domain"
)

// ClinicalRepository reads the collaborator tables the reminder triggers
// need: patients, appointments and medical records. The CRUD application
// owns these tables; the dispatcher only looks up recipients and due
// follow-ups, so phone numbers are never accepted from callers.
type ClinicalRepository struct {
	db *sqlx.DB
}

func NewClinicalRepository(db *sqlx.DB) *ClinicalRepository {
	return &ClinicalRepository{db: db}
}

func (r *ClinicalRepository) GetPatient(ctx context.Context, id int64) (*domain.Patient, error) {
	query := "SELECT id, first_name, last_name, phone_number FROM patients WHERE id = ?"

	var patient domain.Patient
	if err := r.db.GetContext(ctx, &patient, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	return &patient, nil
}

func (r *ClinicalRepository) GetAppointment(ctx context.Context, id int64) (*domain.Appointment, error) {
	query := `
		SELECT a.id, a.patient_id,
		       CONCAT(p.first_name, ' ', p.last_name) AS patient_name,
		       p.phone_number,
		       DATE_FORMAT(a.schedule_date, '%Y-%m-%d') AS schedule_date,
		       a.schedule_time
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		WHERE a.id = ?
	`

	var appt domain.Appointment
	if err := r.db.GetContext(ctx, &appt, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}

	return &appt, nil
}

func (r *ClinicalRepository) GetMedicalRecord(ctx context.Context, id int64) (*domain.FollowUpDue, error) {
	query := `
		SELECT m.id AS record_id, m.patient_id,
		       CONCAT(p.first_name, ' ', p.last_name) AS patient_name,
		       p.phone_number,
		       COALESCE(m.notes, '') AS notes
		FROM medical_records m
		JOIN patients p ON p.id = m.patient_id
		WHERE m.id = ?
	`

	var rec domain.FollowUpDue
	if err := r.db.GetContext(ctx, &rec, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get medical record: %w", err)
	}

	return &rec, nil
}

// ListDueFollowUps returns the records whose follow-up date is the given day
// and whose patient has a phone number on file.
func (r *ClinicalRepository) ListDueFollowUps(ctx context.Context, date string) ([]domain.FollowUpDue, error) {
	query := `
		SELECT m.id AS record_id, m.patient_id,
		       CONCAT(p.first_name, ' ', p.last_name) AS patient_name,
		       p.phone_number,
		       COALESCE(m.notes, '') AS notes
		FROM medical_records m
		JOIN patients p ON p.id = m.patient_id
		WHERE m.follow_up_date = ?
		  AND p.phone_number <> ''
		ORDER BY m.id ASC
	`

	var due []domain.FollowUpDue
	if err := r.db.SelectContext(ctx, &due, query, date); err != nil {
		return nil, fmt.Errorf("failed to list due follow-ups: %w", err)
	}

	return due, nil
}

// RecordImmunizationReminder writes the best-effort side log row after a
// successful immunization reminder.
func (r *ClinicalRepository) RecordImmunizationReminder(
	ctx context.Context,
	patientID int64,
	message string,
	sentBy *int64,
) error {
	query := "INSERT INTO immunization_reminders (patient_id, message, sent_by) VALUES (?, ?, ?)"
	if _, err := r.db.ExecContext(ctx, query, patientID, message, sentBy); err != nil {
		return fmt.Errorf("failed to record immunization reminder: %w", err)
	}

	return nil
}
