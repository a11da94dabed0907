package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/healthconnect/sms-dispatcher/internal/domain"
)

// DeliveryLogRepository persists the append-only sms_logs audit trail.
// Rows are immutable: there is deliberately no update method here, retries
// create new rows.
type DeliveryLogRepository struct {
	db *sqlx.DB
}

func NewDeliveryLogRepository(db *sqlx.DB) *DeliveryLogRepository {
	return &DeliveryLogRepository{db: db}
}

func (r *DeliveryLogRepository) Insert(ctx context.Context, entry domain.DeliveryLogEntry) (int64, error) {
	query := `
		INSERT INTO sms_logs (correlation_id, recipient, message, status, provider_message_id, sent_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		entry.CorrelationID, entry.Recipient, entry.Message, entry.Status, entry.ProviderMessageID, entry.SentAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert delivery log entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return id, nil
}

func (r *DeliveryLogRepository) List(
	ctx context.Context,
	status *domain.DeliveryStatus,
	page, pageSize int,
) ([]domain.DeliveryLogEntry, int64, error) {
	offset := (page - 1) * pageSize
	var totalCount int64
	var entries []domain.DeliveryLogEntry

	if status != nil {
		countQuery := "SELECT COUNT(*) FROM sms_logs WHERE status = ?"
		if err := r.db.GetContext(ctx, &totalCount, countQuery, *status); err != nil {
			return nil, 0, fmt.Errorf("failed to count delivery log entries: %w", err)
		}

		query := `
			SELECT id, correlation_id, recipient, message, status, provider_message_id, sent_at
			FROM sms_logs
			WHERE status = ?
			ORDER BY sent_at DESC, id DESC
			LIMIT ? OFFSET ?
		`
		if err := r.db.SelectContext(ctx, &entries, query, *status, pageSize, offset); err != nil {
			return nil, 0, fmt.Errorf("failed to list delivery log entries: %w", err)
		}
	} else {
		countQuery := "SELECT COUNT(*) FROM sms_logs"
		if err := r.db.GetContext(ctx, &totalCount, countQuery); err != nil {
			return nil, 0, fmt.Errorf("failed to count delivery log entries: %w", err)
		}

		query := `
			SELECT id, correlation_id, recipient, message, status, provider_message_id, sent_at
			FROM sms_logs
			ORDER BY sent_at DESC, id DESC
			LIMIT ? OFFSET ?
		`
		if err := r.db.SelectContext(ctx, &entries, query, pageSize, offset); err != nil {
			return nil, 0, fmt.Errorf("failed to list delivery log entries: %w", err)
		}
	}

	return entries, totalCount, nil
}

// GetStats returns delivery counts by status.
func (r *DeliveryLogRepository) GetStats(ctx context.Context) (sent, failed int64, err error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN status = 'sent' THEN 1 ELSE 0 END), 0)   AS sent,
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0) AS failed
		FROM sms_logs
	`

	var stats struct {
		Sent   int64 `db:"sent"`
		Failed int64 `db:"failed"`
	}

	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return 0, 0, fmt.Errorf("failed to get delivery stats: %w", err)
	}

	return stats.Sent, stats.Failed, nil
}
