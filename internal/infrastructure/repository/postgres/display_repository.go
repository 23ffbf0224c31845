package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/kirillkom/court-docket/internal/core/domain"
)

type DisplayRepository struct {
	db *sql.DB
}

func NewDisplayRepository(db *sql.DB) *DisplayRepository {
	return &DisplayRepository{db: db}
}

// lockCourt serializes display list changes of one court for the rest of tx.
func lockCourt(ctx context.Context, tx *sql.Tx, courtID int64) error {
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM courts WHERE id = $1 FOR UPDATE`, courtID).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.WrapError(domain.ErrCourtNotFound, "lock court", fmt.Errorf("court_id=%d", courtID))
		}
		return fmt.Errorf("lock court: %w", err)
	}
	return nil
}

func (r *DisplayRepository) AddEntry(ctx context.Context, courtID, caseID int64) (*domain.DisplayEntry, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin display tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := lockCourt(ctx, tx, courtID); err != nil {
		return nil, err
	}

	var owned bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM cases WHERE id = $1 AND court_id = $2)`, caseID, courtID).Scan(&owned); err != nil {
		return nil, fmt.Errorf("check case ownership: %w", err)
	}
	if !owned {
		return nil, domain.WrapError(domain.ErrCaseNotFound, "add display entry", fmt.Errorf("case_id=%d", caseID))
	}

	var displayed bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM display_entries WHERE case_id = $1)`, caseID).Scan(&displayed); err != nil {
		return nil, fmt.Errorf("check display entry: %w", err)
	}
	if displayed {
		return nil, domain.WrapError(domain.ErrAlreadyDisplayed, "add display entry", fmt.Errorf("case_id=%d", caseID))
	}

	entry := domain.DisplayEntry{CaseID: caseID, CourtID: courtID}
	err = tx.QueryRowContext(ctx, `
INSERT INTO display_entries (case_id, court_id, display_order, custom_order)
SELECT $1, $2, COALESCE(MAX(display_order), 0) + 1, NULL
FROM display_entries
WHERE court_id = $2
RETURNING id, display_order, added_date
`, caseID, courtID).Scan(&entry.ID, &entry.DisplayOrder, &entry.AddedDate)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.WrapError(domain.ErrAlreadyDisplayed, "add display entry", err)
		}
		return nil, fmt.Errorf("insert display entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit display tx: %w", err)
	}
	return &entry, nil
}

// RemoveEntry deletes the entry and renumbers the court's display_order 1..n.
func (r *DisplayRepository) RemoveEntry(ctx context.Context, courtID, caseID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin display tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := lockCourt(ctx, tx, courtID); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM display_entries WHERE court_id = $1 AND case_id = $2`, courtID, caseID)
	if err != nil {
		return fmt.Errorf("delete display entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete display entry rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDisplayEntryNotFound, "remove display entry", fmt.Errorf("case_id=%d", caseID))
	}

	if _, err := tx.ExecContext(ctx, `
UPDATE display_entries d
SET display_order = ranked.rn
FROM (
	SELECT id, ROW_NUMBER() OVER (ORDER BY display_order, id) AS rn
	FROM display_entries
	WHERE court_id = $1
) ranked
WHERE d.id = ranked.id AND d.display_order <> ranked.rn
`, courtID); err != nil {
		return fmt.Errorf("renumber display entries: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit display tx: %w", err)
	}
	return nil
}

// SetCustomOrders writes the given custom orders (nil clears) and returns how
// many entries actually changed. Cases not displayed in the court are ignored.
func (r *DisplayRepository) SetCustomOrders(ctx context.Context, courtID int64, orders map[int64]*int) (int, error) {
	caseIDs := make([]int64, 0, len(orders))
	for id := range orders {
		caseIDs = append(caseIDs, id)
	}
	sort.Slice(caseIDs, func(i, j int) bool { return caseIDs[i] < caseIDs[j] })

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin display tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := lockCourt(ctx, tx, courtID); err != nil {
		return 0, err
	}

	updated := 0
	for _, caseID := range caseIDs {
		var value sql.NullInt64
		if v := orders[caseID]; v != nil {
			value = sql.NullInt64{Int64: int64(*v), Valid: true}
		}
		res, err := tx.ExecContext(ctx, `
UPDATE display_entries
SET custom_order = $3::integer
WHERE court_id = $1 AND case_id = $2 AND custom_order IS DISTINCT FROM $3::integer
`, courtID, caseID, value)
		if err != nil {
			return 0, fmt.Errorf("update custom order: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("update custom order rows affected: %w", err)
		}
		updated += int(affected)
	}

	if updated == 0 {
		return 0, nil
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit display tx: %w", err)
	}
	return updated, nil
}

func (r *DisplayRepository) ListEntries(ctx context.Context, courtID int64) ([]domain.DisplayEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT d.id, d.case_id, d.court_id, d.display_order, d.custom_order, d.added_date, `+prefixed("c", caseColumns)+`
FROM display_entries d
JOIN cases c ON c.id = d.case_id
WHERE d.court_id = $1 AND c.court_id = $1
ORDER BY d.custom_order ASC NULLS FIRST, d.display_order ASC
`, courtID)
	if err != nil {
		return nil, fmt.Errorf("list display entries: %w", err)
	}
	defer rows.Close()

	out := make([]domain.DisplayEntry, 0)
	for rows.Next() {
		var (
			e           domain.DisplayEntry
			customOrder sql.NullInt64
		)
		c, err := scanCase(scanFunc(func(caseDest ...any) error {
			dest := append([]any{&e.ID, &e.CaseID, &e.CourtID, &e.DisplayOrder, &customOrder, &e.AddedDate}, caseDest...)
			return rows.Scan(dest...)
		}))
		if err != nil {
			return nil, fmt.Errorf("scan display entry: %w", err)
		}
		if customOrder.Valid {
			v := int(customOrder.Int64)
			e.CustomOrder = &v
		}
		e.Case = c
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate display entries: %w", err)
	}
	return out, nil
}

type scanFunc func(dest ...any) error

func (f scanFunc) Scan(dest ...any) error { return f(dest...) }

func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
