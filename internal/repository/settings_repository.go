package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SettingsRepository reads the admin-owned key/value settings. The
// dispatcher never writes this table.
type SettingsRepository struct {
	db *sqlx.DB
}

func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the setting value and whether the row exists. A missing row is
// (="", false, nil) — unset, not an error. Storage errors are returned so the
// dispatcher can abort with "settings unavailable" instead of silently
// proceeding with a missing key.
func (r *SettingsRepository) Get(ctx context.Context, name string) (string, bool, error) {
	var value string
	err := r.db.GetContext(ctx, &value, "SELECT value FROM settings WHERE name = ?", name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read setting %q: %w", name, err)
	}

	return value, true, nil
}
