package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/kirillkom/court-docket/internal/core/domain"
	"github.com/kirillkom/court-docket/internal/core/ports"
)

type caseTxFake struct {
	repo      *caseRepoFake
	courtID   int64
	staged    map[string]*domain.Case
	inserted  []*domain.Case
	updated   []*domain.Case
	committed bool
	rolled    bool
}

func (f *caseTxFake) CaseNumbers(context.Context) (map[string]struct{}, error) {
	if f.repo.numbersErr != nil {
		return nil, f.repo.numbersErr
	}
	out := make(map[string]struct{})
	for _, c := range f.staged {
		out[c.CaseNumber] = struct{}{}
	}
	return out, nil
}

func (f *caseTxFake) FindByNumber(_ context.Context, number string) (*domain.Case, error) {
	c, ok := f.staged[number]
	if !ok {
		return nil, domain.WrapError(domain.ErrCaseNotFound, "find case", errors.New(number))
	}
	copyCase := *c
	return &copyCase, nil
}

func (f *caseTxFake) Insert(_ context.Context, c *domain.Case) error {
	if err := f.repo.rowErrs[c.CaseNumber]; err != nil {
		return err
	}
	copyCase := *c
	f.staged[c.CaseNumber] = &copyCase
	f.inserted = append(f.inserted, &copyCase)
	return nil
}

func (f *caseTxFake) Update(_ context.Context, c *domain.Case) error {
	if err := f.repo.rowErrs[c.CaseNumber]; err != nil {
		return err
	}
	copyCase := *c
	f.staged[c.CaseNumber] = &copyCase
	f.updated = append(f.updated, &copyCase)
	return nil
}

func (f *caseTxFake) Commit() error {
	if f.repo.commitErr != nil {
		return f.repo.commitErr
	}
	f.committed = true
	f.repo.byCourt[f.courtID] = f.staged
	return nil
}

func (f *caseTxFake) Rollback() error {
	f.rolled = true
	return nil
}

type caseRepoFake struct {
	byCourt    map[int64]map[string]*domain.Case
	beginErr   error
	numbersErr error
	commitErr  error
	rowErrs    map[string]error
	lastTx     *caseTxFake
}

func newCaseRepoFake(existing ...domain.Case) *caseRepoFake {
	repo := &caseRepoFake{byCourt: map[int64]map[string]*domain.Case{}, rowErrs: map[string]error{}}
	for i := range existing {
		c := existing[i]
		if repo.byCourt[c.CourtID] == nil {
			repo.byCourt[c.CourtID] = map[string]*domain.Case{}
		}
		repo.byCourt[c.CourtID][c.CaseNumber] = &c
	}
	return repo
}

func (f *caseRepoFake) BeginImport(_ context.Context, courtID int64) (ports.CaseImportTx, error) {
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	staged := make(map[string]*domain.Case)
	for k, v := range f.byCourt[courtID] {
		copyCase := *v
		staged[k] = &copyCase
	}
	f.lastTx = &caseTxFake{repo: f, courtID: courtID, staged: staged}
	return f.lastTx, nil
}

func (f *caseRepoFake) ListByCourt(_ context.Context, courtID int64) ([]domain.Case, error) {
	var out []domain.Case
	for _, c := range f.byCourt[courtID] {
		out = append(out, *c)
	}
	return out, nil
}

// stagedWith stages rows as cases.json for court 7.
func stagedWith(rows ...map[string]any) *stagingFake {
	return &stagingFake{owner: 7, payloads: map[string]*domain.StagedPayload{
		"cases.json": {Data: rows},
	}}
}

var testActor = domain.Actor{CourtID: 7, UserID: 3}

func hasSkip(result *domain.ImportResult, row int, reason string) bool {
	for _, s := range result.Skipped {
		if s.Row == row && s.Reason == reason {
			return true
		}
	}
	return false
}

func TestImportInsertsWithDefaults(t *testing.T) {
	repo := newCaseRepoFake()
	staging := stagedWith(map[string]any{
		"case_number":  "55/2025",
		"case_date":    "2025-01-10",
		"status":       "نشط",
		"num_sessions": nil,
		"plaintiff":    "أحمد",
	})
	uc := NewImportCasesUseCase(staging, repo, nil)

	result, err := uc.Import(context.Background(), testActor, "cases.json")
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if !result.Success || result.CasesAdded != 1 || result.Inserted != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected one status warning, got %v", result.Errors)
	}
	got := repo.byCourt[7]["55/2025"]
	if got == nil {
		t.Fatalf("expected case persisted for court 7")
	}
	if got.Status != domain.CaseStatusInactive || got.NumSessions != 1 || got.OrderIndex != domain.DefaultOrderIndex {
		t.Fatalf("expected defaults, got %+v", got)
	}
	if got.CaseDate == nil || got.CaseDate.Format("2006-01-02") != "2025-01-10" {
		t.Fatalf("unexpected case date %v", got.CaseDate)
	}
	if got.CourtID != 7 || got.UserID != 3 || got.Plaintiff != "أحمد" {
		t.Fatalf("unexpected ownership/fields: %+v", got)
	}
}

func TestImportUpdatesExistingAndInBatchDuplicates(t *testing.T) {
	repo := newCaseRepoFake(domain.Case{
		ID: 1, CourtID: 7, CaseNumber: "1/2024", OrderIndex: 4, Defendant: "old", Plaintiff: "keep", Status: domain.CaseStatusActive,
	})
	staging := stagedWith(
		map[string]any{"case_number": "1/2024", "defendant": "new", "plaintiff": "", "status": "Finished", "order_index": json.Number("1")},
		map[string]any{"case_number": json.Number("2"), "status": "in session"},
		map[string]any{"case_number": "2", "num_sessions": json.Number("4")},
	)
	uc := NewImportCasesUseCase(staging, repo, nil)

	result, err := uc.Import(context.Background(), testActor, "cases.json")
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if result.CasesAdded != 3 || result.Inserted != 1 || result.Updated != 2 {
		t.Fatalf("unexpected counts: %+v", result)
	}
	existing := repo.byCourt[7]["1/2024"]
	if existing.Defendant != "new" || existing.Plaintiff != "keep" || existing.Status != domain.CaseStatusFinished {
		t.Fatalf("unexpected update: %+v", existing)
	}
	if existing.OrderIndex != 4 {
		t.Fatalf("order index must not change on update, got %d", existing.OrderIndex)
	}
	dup := repo.byCourt[7]["2"]
	if dup.NumSessions != 4 || dup.Status != domain.CaseStatusInactive {
		t.Fatalf("expected second row to update the in-batch insert, got %+v", dup)
	}
}

func TestImportIsScopedToCourt(t *testing.T) {
	repo := newCaseRepoFake(domain.Case{ID: 1, CourtID: 9, CaseNumber: "1/2024", Defendant: "other court"})
	uc := NewImportCasesUseCase(stagedWith(map[string]any{"case_number": "1/2024"}), repo, nil)

	result, err := uc.Import(context.Background(), testActor, "cases.json")
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if result.Inserted != 1 || result.Updated != 0 {
		t.Fatalf("same number in another court must insert, got %+v", result)
	}
	if repo.byCourt[9]["1/2024"].Defendant != "other court" {
		t.Fatalf("other court's case must be untouched")
	}
}

func TestImportSkipsInvalidRows(t *testing.T) {
	repo := newCaseRepoFake()
	staging := stagedWith(
		map[string]any{"case_number": nil},
		map[string]any{"case_number": "  "},
		map[string]any{"case_number": "2/2025", "case_date": "10/01/2025"},
		map[string]any{"case_number": "4/2025", "order_index": "first", "num_sessions": json.Number("-2")},
	)
	uc := NewImportCasesUseCase(staging, repo, nil)

	result, err := uc.Import(context.Background(), testActor, "cases.json")
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if !result.Success || result.CasesAdded != 1 {
		t.Fatalf("expected one insert, got %+v", result)
	}
	if !hasSkip(result, 1, domain.SkipMissingCaseNumber) || !hasSkip(result, 2, domain.SkipMissingCaseNumber) {
		t.Fatalf("expected missing case numbers skipped: %+v", result.Skipped)
	}
	if !hasSkip(result, 3, domain.SkipInvalidCaseDate) {
		t.Fatalf("expected invalid date skipped: %+v", result.Skipped)
	}
	got := repo.byCourt[7]["4/2025"]
	if got.OrderIndex != domain.DefaultOrderIndex || got.NumSessions != domain.DefaultNumSessions {
		t.Fatalf("expected defaults for invalid integers, got %+v", got)
	}
}

func TestImportRowStorageErrorRollsBackBatch(t *testing.T) {
	repo := newCaseRepoFake()
	repo.rowErrs["2/2025"] = errors.New("value too long for type")
	staging := stagedWith(
		map[string]any{"case_number": "1/2025"},
		map[string]any{"case_number": "2/2025"},
		map[string]any{"case_number": "3/2025"},
	)
	uc := NewImportCasesUseCase(staging, repo, nil)

	result, err := uc.Import(context.Background(), testActor, "cases.json")
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if result.Success || result.CasesAdded != 0 || result.Inserted != 0 || result.Updated != 0 {
		t.Fatalf("expected zeroed failure, got %+v", result)
	}
	if repo.lastTx.committed || !repo.lastTx.rolled {
		t.Fatalf("expected rollback without commit, committed=%v rolled=%v", repo.lastTx.committed, repo.lastTx.rolled)
	}
	if !hasSkip(result, 2, domain.SkipStorageError) || !hasSkip(result, 1, domain.SkipRolledBack) {
		t.Fatalf("unexpected skipped rows: %+v", result.Skipped)
	}
	if hasSkip(result, 3, domain.SkipRolledBack) || len(repo.lastTx.inserted) != 1 {
		t.Fatalf("processing must stop at the failing row: skipped=%+v inserted=%d", result.Skipped, len(repo.lastTx.inserted))
	}
	if len(repo.byCourt[7]) != 0 {
		t.Fatalf("nothing may be persisted, got %v", repo.byCourt[7])
	}
}

func TestImportCommitFailureRollsBackEverything(t *testing.T) {
	repo := newCaseRepoFake()
	repo.commitErr = errors.New("serialization failure")
	staging := stagedWith(
		map[string]any{"case_number": "1/2025"},
		map[string]any{"case_number": nil},
		map[string]any{"case_number": "2/2025"},
	)
	uc := NewImportCasesUseCase(staging, repo, nil)

	result, err := uc.Import(context.Background(), testActor, "cases.json")
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if result.Success || result.CasesAdded != 0 || result.Inserted != 0 {
		t.Fatalf("expected zeroed failure, got %+v", result)
	}
	if !repo.lastTx.rolled {
		t.Fatalf("expected rollback after commit failure")
	}
	if !hasSkip(result, 1, domain.SkipRolledBack) || !hasSkip(result, 3, domain.SkipRolledBack) || !hasSkip(result, 2, domain.SkipMissingCaseNumber) {
		t.Fatalf("expected rolled back rows in skipped: %+v", result.Skipped)
	}
	if result.Errors[len(result.Errors)-1] != "database commit failed" {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(repo.byCourt[7]) != 0 {
		t.Fatalf("nothing may be persisted")
	}
}

func TestImportEmptyAndStorageFailures(t *testing.T) {
	uc := NewImportCasesUseCase(stagedWith(), newCaseRepoFake(), nil)
	result, err := uc.Import(context.Background(), testActor, "cases.json")
	if err != nil || result.Success || len(result.Errors) != 1 {
		t.Fatalf("expected empty data failure, got %+v err=%v", result, err)
	}

	repo := newCaseRepoFake()
	repo.numbersErr = errors.New("connection reset")
	uc = NewImportCasesUseCase(stagedWith(map[string]any{"case_number": "1"}), repo, nil)
	result, err = uc.Import(context.Background(), testActor, "cases.json")
	if err != nil || result.Success || result.Errors[0] != "database error fetching existing cases" {
		t.Fatalf("expected fetch failure, got %+v err=%v", result, err)
	}
	if !repo.lastTx.rolled {
		t.Fatalf("expected rollback when numbers cannot be loaded")
	}
}

func TestImportTypedErrors(t *testing.T) {
	uc := NewImportCasesUseCase(stagedWith(), newCaseRepoFake(), nil)

	if _, err := uc.Import(context.Background(), testActor, "missing.json"); !domain.IsKind(err, domain.ErrStagedFileNotFound) {
		t.Fatalf("expected staged file not found, got %v", err)
	}
	if _, err := uc.Import(context.Background(), domain.Actor{}, "cases.json"); !domain.IsKind(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden without court, got %v", err)
	}
}

func TestImportCannotReadAnotherCourtsStagedFile(t *testing.T) {
	repo := newCaseRepoFake()
	uc := NewImportCasesUseCase(stagedWith(map[string]any{"case_number": "1/2025", "plaintiff": "Confidential Party"}), repo, nil)

	_, err := uc.Import(context.Background(), domain.Actor{CourtID: 9, UserID: 4}, "cases.json")
	if !domain.IsKind(err, domain.ErrStagedFileNotFound) {
		t.Fatalf("expected staged file not found for another court, got %v", err)
	}
	if len(repo.byCourt[9]) != 0 || repo.lastTx != nil {
		t.Fatalf("no import may start for another court's file")
	}
}

func TestReadStagedPassesThroughStore(t *testing.T) {
	uc := NewImportCasesUseCase(stagedWith(map[string]any{"case_number": "1/2024"}), newCaseRepoFake(), nil)

	payload, err := uc.ReadStaged(context.Background(), testActor, "cases.json")
	if err != nil {
		t.Fatalf("ReadStaged() error = %v", err)
	}
	if len(payload.Data) != 1 || payload.Data[0]["case_number"] != "1/2024" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if _, err := uc.ReadStaged(context.Background(), testActor, "other.json"); !domain.IsKind(err, domain.ErrStagedFileNotFound) {
		t.Fatalf("expected staged file not found, got %v", err)
	}
	if _, err := uc.ReadStaged(context.Background(), domain.Actor{CourtID: 9}, "cases.json"); !domain.IsKind(err, domain.ErrStagedFileNotFound) {
		t.Fatalf("another court must not read the payload, got %v", err)
	}
	if _, err := uc.ReadStaged(context.Background(), domain.Actor{}, "cases.json"); !domain.IsKind(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden without court, got %v", err)
	}
}
