package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/court-docket/internal/core/domain"
)

func TestDisplayRepositoryAddEntryAppendsAtEnd(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewDisplayRepository(db)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM courts WHERE id = \\$1 FOR UPDATE").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery("FROM cases WHERE id").
		WithArgs(int64(42), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("FROM display_entries WHERE case_id").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("INSERT INTO display_entries").
		WithArgs(int64(42), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "display_order", "added_date"}).AddRow(int64(5), 3, now))
	mock.ExpectCommit()

	entry, err := repo.AddEntry(context.Background(), 7, 42)
	if err != nil {
		t.Fatalf("AddEntry() error = %v", err)
	}
	if entry.ID != 5 || entry.DisplayOrder != 3 || entry.CustomOrder != nil || entry.CourtID != 7 {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDisplayRepositoryAddEntryRejections(t *testing.T) {
	tests := []struct {
		name      string
		owned     bool
		displayed bool
		want      error
	}{
		{name: "case of another court", owned: false, want: domain.ErrCaseNotFound},
		{name: "already displayed", owned: true, displayed: true, want: domain.ErrAlreadyDisplayed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db, mock, done := newMockDB(t)
			defer done()
			repo := NewDisplayRepository(db)

			mock.ExpectBegin()
			mock.ExpectQuery("FOR UPDATE").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
			mock.ExpectQuery("FROM cases WHERE id").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(tc.owned))
			if tc.owned {
				mock.ExpectQuery("FROM display_entries WHERE case_id").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(tc.displayed))
			}
			mock.ExpectRollback()

			_, err := repo.AddEntry(context.Background(), 7, 42)
			if !domain.IsKind(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("expectations: %v", err)
			}
		})
	}
}

func TestDisplayRepositoryUnknownCourt(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewDisplayRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(int64(99)).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	if _, err := repo.AddEntry(context.Background(), 99, 1); !domain.IsKind(err, domain.ErrCourtNotFound) {
		t.Fatalf("expected ErrCourtNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDisplayRepositoryRemoveEntryRenumbers(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewDisplayRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectExec("DELETE FROM display_entries").
		WithArgs(int64(7), int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("ROW_NUMBER").
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	if err := repo.RemoveEntry(context.Background(), 7, 42); err != nil {
		t.Fatalf("RemoveEntry() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDisplayRepositoryRemoveEntryNotDisplayed(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewDisplayRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectExec("DELETE FROM display_entries").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	if err := repo.RemoveEntry(context.Background(), 7, 42); !domain.IsKind(err, domain.ErrDisplayEntryNotFound) {
		t.Fatalf("expected ErrDisplayEntryNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDisplayRepositorySetCustomOrdersCountsChangedRows(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewDisplayRepository(db)
	two := 2

	mock.ExpectBegin()
	mock.ExpectQuery("FROM courts WHERE id = \\$1 FOR UPDATE").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectExec("UPDATE display_entries").
		WithArgs(int64(7), int64(1), nil).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE display_entries").
		WithArgs(int64(7), int64(3), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	updated, err := repo.SetCustomOrders(context.Background(), 7, map[int64]*int{3: &two, 1: nil})
	if err != nil {
		t.Fatalf("SetCustomOrders() error = %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected 1 updated row, got %d", updated)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDisplayRepositorySetCustomOrdersNoChangeRollsBack(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewDisplayRepository(db)
	one := 1

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectExec("UPDATE display_entries").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	updated, err := repo.SetCustomOrders(context.Background(), 7, map[int64]*int{5: &one})
	if err != nil || updated != 0 {
		t.Fatalf("expected no update, got %d, %v", updated, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDisplayRepositorySetCustomOrdersUnknownCourt(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewDisplayRepository(db)
	one := 1

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(int64(99)).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	if _, err := repo.SetCustomOrders(context.Background(), 99, map[int64]*int{5: &one}); !domain.IsKind(err, domain.ErrCourtNotFound) {
		t.Fatalf("expected ErrCourtNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDisplayRepositoryListEntries(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewDisplayRepository(db)
	now := time.Now().UTC()

	columns := append([]string{"id", "case_id", "court_id", "display_order", "custom_order", "added_date"}, caseColumnNames...)
	mock.ExpectQuery("FROM display_entries d").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(int64(1), int64(10), int64(7), 2, nil, now,
				int64(10), int64(7), nil, "10/2024", nil, 1, "", "", 1, "", "", "", "", "", "", "active", now).
			AddRow(int64(2), int64(11), int64(7), 1, int64(4), now,
				int64(11), int64(7), nil, "11/2024", nil, 2, "", "", 1, "", "", "", "", "", "", "postponed", now))

	entries, err := repo.ListEntries(context.Background(), 7)
	if err != nil {
		t.Fatalf("ListEntries() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].CustomOrder != nil || entries[0].Case.CaseNumber != "10/2024" {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].CustomOrder == nil || *entries[1].CustomOrder != 4 || entries[1].Case.Status != domain.CaseStatusPostponed {
		t.Fatalf("unexpected second entry: %+v", entries[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCourtRepositoryGetCourtNotFound(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewCourtRepository(db)

	mock.ExpectQuery("FROM courts").WithArgs(int64(3)).WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "is_active"}))

	if _, err := repo.GetCourt(context.Background(), 3); !domain.IsKind(err, domain.ErrCourtNotFound) {
		t.Fatalf("expected ErrCourtNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCourtRepositoryFirstActiveCourt(t *testing.T) {
	db, mock, done := newMockDB(t)
	defer done()
	repo := NewCourtRepository(db)

	mock.ExpectQuery("WHERE is_active").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "is_active"}).AddRow(int64(2), "Court A", "", true))

	court, err := repo.FirstActiveCourt(context.Background())
	if err != nil {
		t.Fatalf("FirstActiveCourt() error = %v", err)
	}
	if court.ID != 2 || court.Name != "Court A" {
		t.Fatalf("unexpected court: %+v", court)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if isUniqueViolation(errors.New("duplicate")) {
		t.Fatalf("plain error must not be a unique violation")
	}
}
