package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kirillkom/court-docket/internal/core/domain"
)

type DisplaySettingsRepository struct {
	db *sql.DB
}

func NewDisplaySettingsRepository(db *sql.DB) *DisplaySettingsRepository {
	return &DisplaySettingsRepository{db: db}
}

func (r *DisplaySettingsRepository) ListSettings(ctx context.Context, courtID int64) ([]domain.DisplayField, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT field_name, label, is_visible
FROM display_settings
WHERE court_id = $1
ORDER BY field_name
`, courtID)
	if err != nil {
		return nil, fmt.Errorf("list display settings: %w", err)
	}
	defer rows.Close()

	out := make([]domain.DisplayField, 0)
	for rows.Next() {
		var f domain.DisplayField
		if err := rows.Scan(&f.Name, &f.Label, &f.Visible); err != nil {
			return nil, fmt.Errorf("scan display setting: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate display settings: %w", err)
	}
	return out, nil
}

// SaveSettings upserts the given fields in one transaction. Rows for fields not
// given are left as they are.
func (r *DisplaySettingsRepository) SaveSettings(ctx context.Context, courtID int64, fields []domain.DisplayField) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin display settings tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := lockCourt(ctx, tx, courtID); err != nil {
		return err
	}

	for _, f := range fields {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO display_settings (court_id, field_name, label, is_visible)
VALUES ($1, $2, $3, $4)
ON CONFLICT (court_id, field_name) DO UPDATE
SET label = EXCLUDED.label, is_visible = EXCLUDED.is_visible
`, courtID, f.Name, f.Label, f.Visible); err != nil {
			return fmt.Errorf("save display setting %s: %w", f.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit display settings tx: %w", err)
	}
	return nil
}
