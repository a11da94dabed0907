package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SweepRepository owns the durable scheduling state of the daily follow-up
// sweep: the once-per-day run gate and the per-record per-day claims. Both
// claims are single INSERT IGNORE statements, so concurrent runs resolve to
// exactly one winner without a read-then-write race.
type SweepRepository struct {
	db *sqlx.DB
}

func NewSweepRepository(db *sqlx.DB) *SweepRepository {
	return &SweepRepository{db: db}
}

// ClaimRun marks the sweep for the given date as started. Returns true when
// this caller won the claim, false when the sweep already ran (or is
// running) today.
func (r *SweepRepository) ClaimRun(ctx context.Context, date string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"INSERT IGNORE INTO sweep_runs (sweep_date) VALUES (?)", date)
	if err != nil {
		return false, fmt.Errorf("failed to claim sweep run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows > 0, nil
}

// ReleaseRun gives the daily gate back after a run failed before doing any
// work, so a later run can claim it again. Completed runs are never
// released.
func (r *SweepRepository) ReleaseRun(ctx context.Context, date string) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM sweep_runs WHERE sweep_date = ? AND completed_at IS NULL", date)
	if err != nil {
		return fmt.Errorf("failed to release sweep run: %w", err)
	}

	return nil
}

// CompleteRun records the run outcome on the claimed row.
func (r *SweepRepository) CompleteRun(ctx context.Context, date string, sentCount int) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE sweep_runs SET completed_at = CURRENT_TIMESTAMP, sent_count = ? WHERE sweep_date = ?",
		sentCount, date)
	if err != nil {
		return fmt.Errorf("failed to complete sweep run: %w", err)
	}

	return nil
}

// ClaimReminder takes the per-record per-day slot. Returns false when a
// reminder for this record was already claimed today.
func (r *SweepRepository) ClaimReminder(ctx context.Context, medicalRecordID int64, date string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"INSERT IGNORE INTO reminder_log (medical_record_id, reminder_date) VALUES (?, ?)",
		medicalRecordID, date)
	if err != nil {
		return false, fmt.Errorf("failed to claim reminder slot: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows > 0, nil
}

// ReleaseReminder frees a claimed slot after a failed send so a later run
// may retry. The sent flag therefore only survives for successful sends.
func (r *SweepRepository) ReleaseReminder(ctx context.Context, medicalRecordID int64, date string) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM reminder_log WHERE medical_record_id = ? AND reminder_date = ?",
		medicalRecordID, date)
	if err != nil {
		return fmt.Errorf("failed to release reminder slot: %w", err)
	}

	return nil
}
