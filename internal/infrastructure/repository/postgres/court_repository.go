package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kirillkom/court-docket/internal/core/domain"
)

type CourtRepository struct {
	db *sql.DB
}

func NewCourtRepository(db *sql.DB) *CourtRepository {
	return &CourtRepository{db: db}
}

func (r *CourtRepository) GetCourt(ctx context.Context, id int64) (*domain.Court, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, description, is_active
FROM courts
WHERE id = $1
`, id)
	return scanCourt(row, fmt.Sprintf("court_id=%d", id))
}

func (r *CourtRepository) FirstActiveCourt(ctx context.Context) (*domain.Court, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, description, is_active
FROM courts
WHERE is_active
ORDER BY id
LIMIT 1
`)
	return scanCourt(row, "no active court")
}

// CreateCourt inserts a court, returning the existing one when the name is taken.
func (r *CourtRepository) CreateCourt(ctx context.Context, name, description string) (*domain.Court, error) {
	row := r.db.QueryRowContext(ctx, `
INSERT INTO courts (name, description, is_active)
VALUES ($1, $2, TRUE)
ON CONFLICT (name) DO UPDATE SET description = courts.description
RETURNING id, name, description, is_active
`, name, description)
	court, err := scanCourt(row, name)
	if err != nil {
		return nil, fmt.Errorf("create court: %w", err)
	}
	return court, nil
}

func scanCourt(row rowScanner, ref string) (*domain.Court, error) {
	var c domain.Court
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.IsActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrCourtNotFound, "get court", errors.New(ref))
		}
		return nil, fmt.Errorf("scan court: %w", err)
	}
	return &c, nil
}
