package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/court-docket/internal/core/domain"
	"github.com/kirillkom/court-docket/internal/core/ports"
)

const caseColumns = `id, court_id, user_id, case_number, case_date, order_index, next_session_date, session_result,
	num_sessions, case_subject, defendant, plaintiff, prosecution_number, police_department, police_case_number,
	status, added_date`

type CaseRepository struct {
	db *sql.DB
}

func NewCaseRepository(db *sql.DB) *CaseRepository {
	return &CaseRepository{db: db}
}

func (r *CaseRepository) BeginImport(ctx context.Context, courtID int64) (ports.CaseImportTx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin import tx: %w", err)
	}
	return &caseImportTx{tx: tx, courtID: courtID}, nil
}

func (r *CaseRepository) ListByCourt(ctx context.Context, courtID int64) ([]domain.Case, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+caseColumns+`
FROM cases
WHERE court_id = $1
ORDER BY added_date DESC, id DESC
`, courtID)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Case, 0)
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cases: %w", err)
	}
	return out, nil
}

// caseImportTx is a single transaction; any failed write leaves it aborted and
// the batch must be rolled back.
type caseImportTx struct {
	tx      *sql.Tx
	courtID int64
}

func (t *caseImportTx) CaseNumbers(ctx context.Context) (map[string]struct{}, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT case_number FROM cases WHERE court_id = $1`, t.courtID)
	if err != nil {
		return nil, fmt.Errorf("list case numbers: %w", err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var number string
		if err := rows.Scan(&number); err != nil {
			return nil, fmt.Errorf("scan case number: %w", err)
		}
		out[number] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate case numbers: %w", err)
	}
	return out, nil
}

func (t *caseImportTx) FindByNumber(ctx context.Context, caseNumber string) (*domain.Case, error) {
	row := t.tx.QueryRowContext(ctx, `
SELECT `+caseColumns+`
FROM cases
WHERE court_id = $1 AND case_number = $2
`, t.courtID, caseNumber)

	c, err := scanCase(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrCaseNotFound, "find case by number", fmt.Errorf("case_number=%s", caseNumber))
		}
		return nil, err
	}
	return &c, nil
}

func (t *caseImportTx) Insert(ctx context.Context, c *domain.Case) error {
	addedDate := c.AddedDate
	if addedDate.IsZero() {
		addedDate = time.Now().UTC()
	}
	err := t.tx.QueryRowContext(ctx, `
INSERT INTO cases (
	court_id, user_id, case_number, case_date, order_index, next_session_date, session_result, num_sessions,
	case_subject, defendant, plaintiff, prosecution_number, police_department, police_case_number, status, added_date
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
RETURNING id
`,
		t.courtID, nullInt64(c.UserID), c.CaseNumber, nullDate(c.CaseDate), c.OrderIndex, c.NextSessionDate,
		c.SessionResult, c.NumSessions, c.CaseSubject, c.Defendant, c.Plaintiff, c.ProsecutionNumber,
		c.PoliceDepartment, c.PoliceCaseNumber, string(c.Status), addedDate,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("insert case: %w", err)
	}
	c.CourtID = t.courtID
	c.AddedDate = addedDate
	return nil
}

func (t *caseImportTx) Update(ctx context.Context, c *domain.Case) error {
	res, err := t.tx.ExecContext(ctx, `
UPDATE cases
SET case_date = $3, next_session_date = $4, session_result = $5, num_sessions = $6, case_subject = $7,
	defendant = $8, plaintiff = $9, prosecution_number = $10, police_department = $11,
	police_case_number = $12, status = $13
WHERE court_id = $1 AND id = $2
`,
		t.courtID, c.ID, nullDate(c.CaseDate), c.NextSessionDate, c.SessionResult, c.NumSessions, c.CaseSubject,
		c.Defendant, c.Plaintiff, c.ProsecutionNumber, c.PoliceDepartment, c.PoliceCaseNumber, string(c.Status),
	)
	if err != nil {
		return fmt.Errorf("update case: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update case rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrCaseNotFound, "update case", fmt.Errorf("id=%d", c.ID))
	}
	return nil
}

func (t *caseImportTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

func (t *caseImportTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback import: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (domain.Case, error) {
	var (
		c        domain.Case
		userID   sql.NullInt64
		caseDate sql.NullTime
		status   string
	)
	err := row.Scan(
		&c.ID, &c.CourtID, &userID, &c.CaseNumber, &caseDate, &c.OrderIndex, &c.NextSessionDate, &c.SessionResult,
		&c.NumSessions, &c.CaseSubject, &c.Defendant, &c.Plaintiff, &c.ProsecutionNumber, &c.PoliceDepartment,
		&c.PoliceCaseNumber, &status, &c.AddedDate,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Case{}, err
		}
		return domain.Case{}, fmt.Errorf("scan case: %w", err)
	}
	c.UserID = userID.Int64
	if caseDate.Valid {
		d := caseDate.Time.UTC()
		c.CaseDate = &d
	}
	c.Status = domain.CaseStatus(status)
	return c, nil
}

func nullDate(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
