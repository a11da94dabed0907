package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// CorrelationRepository tracks which business events (appointment,
// immunization, follow-up) have already produced a notification. Marking is
// INSERT IGNORE so it is idempotent and safe under concurrent requests.
type CorrelationRepository struct {
	db *sqlx.DB
}

func NewCorrelationRepository(db *sqlx.DB) *CorrelationRepository {
	return &CorrelationRepository{db: db}
}

func (r *CorrelationRepository) IsNotified(ctx context.Context, correlationID string) (bool, error) {
	var exists bool
	query := "SELECT EXISTS(SELECT 1 FROM notification_marks WHERE correlation_id = ?)"
	if err := r.db.GetContext(ctx, &exists, query, correlationID); err != nil {
		return false, fmt.Errorf("failed to check notification mark: %w", err)
	}

	return exists, nil
}

func (r *CorrelationRepository) MarkNotified(ctx context.Context, correlationID string) error {
	query := "INSERT IGNORE INTO notification_marks (correlation_id) VALUES (?)"
	if _, err := r.db.ExecContext(ctx, query, correlationID); err != nil {
		return fmt.Errorf("failed to mark correlation %q as notified: %w", correlationID, err)
	}

	return nil
}
