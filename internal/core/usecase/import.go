package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kirillkom/court-docket/internal/core/domain"
	"github.com/kirillkom/court-docket/internal/core/ingest"
	"github.com/kirillkom/court-docket/internal/core/ports"
)

type ImportCasesUseCase struct {
	staging ports.StagingStore
	cases   ports.CaseRepository
	logger  *slog.Logger
	now     func() time.Time
}

func NewImportCasesUseCase(staging ports.StagingStore, cases ports.CaseRepository, logger *slog.Logger) *ImportCasesUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImportCasesUseCase{
		staging: staging,
		cases:   cases,
		logger:  logger,
		now:     time.Now,
	}
}

// ReadStaged returns one of the actor's court's staged payloads for preview
// before import.
func (uc *ImportCasesUseCase) ReadStaged(ctx context.Context, actor domain.Actor, filename string) (*domain.StagedPayload, error) {
	if !actor.HasCourt() {
		return nil, domain.WrapError(domain.ErrForbidden, "read staged payload", errors.New("no court assigned to your account"))
	}
	return uc.staging.Read(ctx, actor.CourtID, filename)
}

type importedRow struct {
	row        int
	caseNumber string
}

// Import reconciles a staged payload with the actor's court inside one
// transaction. Row problems are reported in the result; the returned error is
// for staged-file I/O, authorization and cancellation.
func (uc *ImportCasesUseCase) Import(ctx context.Context, actor domain.Actor, stagedFilename string) (*domain.ImportResult, error) {
	if !actor.HasCourt() {
		return nil, domain.WrapError(domain.ErrForbidden, "import cases", errors.New("no court assigned to your account"))
	}

	payload, err := uc.staging.Read(ctx, actor.CourtID, stagedFilename)
	if err != nil {
		return nil, err
	}

	result := &domain.ImportResult{Skipped: []domain.SkippedRow{}, Errors: []string{}}
	if len(payload.Data) == 0 {
		result.Errors = append(result.Errors, "no data found in staged file")
		return result, nil
	}

	tx, err := uc.cases.BeginImport(ctx, actor.CourtID)
	if err != nil {
		uc.logger.Error("import_begin_failed", "court_id", actor.CourtID, "error", err.Error())
		result.Errors = append(result.Errors, "database error fetching existing cases")
		return result, nil
	}
	existing, err := tx.CaseNumbers(ctx)
	if err != nil {
		_ = tx.Rollback()
		uc.logger.Error("import_load_numbers_failed", "court_id", actor.CourtID, "error", err.Error())
		result.Errors = append(result.Errors, "database error fetching existing cases")
		return result, nil
	}

	var done []importedRow
	for idx, record := range payload.Data {
		if err := ctx.Err(); err != nil {
			_ = tx.Rollback()
			return nil, err
		}
		row := idx + 1

		caseNumber := textValue(record["case_number"])
		if caseNumber == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: missing case_number", row))
			result.Skipped = append(result.Skipped, domain.SkippedRow{Row: row, Reason: domain.SkipMissingCaseNumber})
			continue
		}
		if utf8.RuneCountInString(caseNumber) > domain.MaxCaseNumberLen {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: case_number longer than %d characters", row, domain.MaxCaseNumberLen))
			result.Skipped = append(result.Skipped, domain.SkippedRow{Row: row, Reason: domain.SkipCaseNumberTooLong, CaseNumber: caseNumber})
			continue
		}

		if _, ok := existing[caseNumber]; ok {
			updated, err := uc.updateExisting(ctx, tx, result, row, caseNumber, record)
			if err != nil {
				uc.abortBatch(tx, result, actor, done, row, caseNumber, err)
				return result, nil
			}
			if updated {
				result.Updated++
				done = append(done, importedRow{row: row, caseNumber: caseNumber})
				continue
			}
		}

		inserted, err := uc.insertNew(ctx, tx, actor, result, row, caseNumber, record)
		if err != nil {
			uc.abortBatch(tx, result, actor, done, row, caseNumber, err)
			return result, nil
		}
		if inserted {
			existing[caseNumber] = struct{}{}
			result.Inserted++
			done = append(done, importedRow{row: row, caseNumber: caseNumber})
		}
	}

	if err := tx.Commit(); err != nil {
		_ = tx.Rollback()
		uc.logger.Error("import_commit_failed", "court_id", actor.CourtID, "staged_file", stagedFilename, "error", err.Error())
		discardApplied(result, done)
		result.Errors = append(result.Errors, "database commit failed")
		return result, nil
	}

	result.Success = true
	result.CasesAdded = result.Inserted + result.Updated
	uc.logger.Info("import_completed",
		"court_id", actor.CourtID,
		"user_id", actor.UserID,
		"staged_file", stagedFilename,
		"inserted", result.Inserted,
		"updated", result.Updated,
		"skipped", len(result.Skipped),
		"errors", len(result.Errors),
	)
	return result, nil
}

// updateExisting applies a record to the stored case. Only non-empty text
// fields overwrite; the case number, court and order index never change. It
// reports false when the case is gone so the caller inserts instead.
func (uc *ImportCasesUseCase) updateExisting(
	ctx context.Context,
	tx ports.CaseImportTx,
	result *domain.ImportResult,
	row int,
	caseNumber string,
	record map[string]any,
) (bool, error) {
	current, err := tx.FindByNumber(ctx, caseNumber)
	if err != nil {
		if domain.IsKind(err, domain.ErrCaseNotFound) {
			return false, nil
		}
		return false, err
	}
	if current == nil {
		return false, nil
	}

	if raw := textValue(record["case_date"]); raw != "" {
		if date, err := ingest.ParseISODate(raw); err == nil {
			current.CaseDate = &date
		} else {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d (case %s): invalid case_date %q, keeping existing date", row, caseNumber, raw))
		}
	}
	current.Status = uc.status(result, row, caseNumber, record["status"])
	current.NumSessions = uc.numSessions(result, row, caseNumber, record["num_sessions"])

	for field, target := range textFields(current) {
		if v := textValue(record[field]); v != "" {
			*target = v
		}
	}

	if err := tx.Update(ctx, current); err != nil {
		return false, err
	}
	return true, nil
}

// insertNew reports false when the row was skipped for invalid data.
func (uc *ImportCasesUseCase) insertNew(
	ctx context.Context,
	tx ports.CaseImportTx,
	actor domain.Actor,
	result *domain.ImportResult,
	row int,
	caseNumber string,
	record map[string]any,
) (bool, error) {
	c := &domain.Case{
		CourtID:    actor.CourtID,
		UserID:     actor.UserID,
		CaseNumber: caseNumber,
		AddedDate:  uc.now().UTC(),
	}

	if raw := textValue(record["case_date"]); raw != "" {
		date, err := ingest.ParseISODate(raw)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d (case %s): invalid case_date %q, row skipped", row, caseNumber, raw))
			result.Skipped = append(result.Skipped, domain.SkippedRow{Row: row, Reason: domain.SkipInvalidCaseDate, CaseNumber: caseNumber, Value: record["case_date"]})
			return false, nil
		}
		c.CaseDate = &date
	}

	c.Status = uc.status(result, row, caseNumber, record["status"])
	c.NumSessions = uc.numSessions(result, row, caseNumber, record["num_sessions"])

	c.OrderIndex = domain.DefaultOrderIndex
	if n, present, ok := intValue(record["order_index"]); present {
		if ok {
			c.OrderIndex = n
		} else {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d (case %s): invalid order_index, using %d", row, caseNumber, domain.DefaultOrderIndex))
		}
	}

	for field, target := range textFields(c) {
		*target = textValue(record[field])
	}

	if err := tx.Insert(ctx, c); err != nil {
		return false, err
	}
	return true, nil
}

func (uc *ImportCasesUseCase) status(result *domain.ImportResult, row int, caseNumber string, raw any) domain.CaseStatus {
	text := textValue(raw)
	if text == "" {
		return domain.CaseStatusInactive
	}
	status, err := domain.ParseCaseStatus(text)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Row %d (case %s): invalid status %q, using %s", row, caseNumber, text, domain.CaseStatusInactive))
		return domain.CaseStatusInactive
	}
	return status
}

func (uc *ImportCasesUseCase) numSessions(result *domain.ImportResult, row int, caseNumber string, raw any) int {
	n, present, ok := intValue(raw)
	if !present {
		return domain.DefaultNumSessions
	}
	if !ok || n < 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("Row %d (case %s): invalid num_sessions, using %d", row, caseNumber, domain.DefaultNumSessions))
		return domain.DefaultNumSessions
	}
	return n
}

// abortBatch handles a failed row write: the transaction is aborted, so the
// whole batch is rolled back and nothing counts as added.
func (uc *ImportCasesUseCase) abortBatch(
	tx ports.CaseImportTx,
	result *domain.ImportResult,
	actor domain.Actor,
	done []importedRow,
	row int,
	caseNumber string,
	err error,
) {
	_ = tx.Rollback()
	uc.logger.Error("import_row_failed", "court_id", actor.CourtID, "row", row, "case_number", caseNumber, "error", err.Error())
	result.Skipped = append(result.Skipped, domain.SkippedRow{Row: row, Reason: domain.SkipStorageError, CaseNumber: caseNumber})
	discardApplied(result, done)
	result.Errors = append(result.Errors, fmt.Sprintf("Row %d (case %s): could not be saved, import rolled back", row, caseNumber))
}

func discardApplied(result *domain.ImportResult, done []importedRow) {
	for _, d := range done {
		result.Skipped = append(result.Skipped, domain.SkippedRow{Row: d.row, Reason: domain.SkipRolledBack, CaseNumber: d.caseNumber})
	}
	result.Inserted, result.Updated, result.CasesAdded = 0, 0, 0
}

func textFields(c *domain.Case) map[string]*string {
	return map[string]*string{
		"next_session_date":  &c.NextSessionDate,
		"session_result":     &c.SessionResult,
		"case_subject":       &c.CaseSubject,
		"defendant":          &c.Defendant,
		"plaintiff":          &c.Plaintiff,
		"prosecution_number": &c.ProsecutionNumber,
		"police_department":  &c.PoliceDepartment,
		"police_case_number": &c.PoliceCaseNumber,
	}
}

// textValue renders a staged JSON value as trimmed text; null is "".
func textValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case fmt.Stringer:
		return strings.TrimSpace(t.String())
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// intValue parses an integral staged value. present is false for null or
// blank values; ok is false when a present value is not a whole number.
func intValue(v any) (n int, present bool, ok bool) {
	text := textValue(v)
	if text == "" {
		return 0, false, false
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, true, false
	}
	return int(f), true, true
}
