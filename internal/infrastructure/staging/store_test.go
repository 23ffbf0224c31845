package staging

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/court-docket/internal/core/domain"
	"github.com/kirillkom/court-docket/internal/infrastructure/storage/localfs"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	storage, err := localfs.New(dir)
	if err != nil {
		t.Fatalf("localfs.New() error = %v", err)
	}
	store := NewStore(storage)
	store.now = func() time.Time { return time.Date(2025, 3, 4, 5, 6, 7, 0, time.FixedZone("UTC+3", 3*3600)) }
	return store, dir
}

func samplePayload() *domain.StagedPayload {
	return &domain.StagedPayload{
		Schema: domain.StagedSchema{
			OriginalHeaders:   []string{"رقم الدعوى", "عدد الجلسات"},
			TranslatedHeaders: map[string]string{"رقم الدعوى": "case_number", "عدد الجلسات": "num_sessions"},
			ColumnTypes:       map[string]domain.ColumnType{"case_number": domain.ColumnString, "num_sessions": domain.ColumnInteger},
			RowCount:          1,
			ProcessedDate:     "2025-03-04T02:06:07Z",
		},
		Data: []map[string]any{{"case_number": "55/2025", "num_sessions": int64(3), "notes": nil}},
	}
}

func TestStagedFilename(t *testing.T) {
	at := time.Date(2025, 1, 10, 23, 59, 1, 0, time.UTC)

	tests := []struct {
		source string
		want   string
	}{
		{"cases jan-2025.xlsx", "cases_jan_2025_20250110_235901.json"},
		{"uploads/قضايا يناير.xlsx", "قضايا_يناير_20250110_235901.json"},
		{`C:\files\report.csv`, "report_20250110_235901.json"},
		{".xlsx", "upload_20250110_235901.json"},
		{strings.Repeat("a", 80) + ".xlsx", strings.Repeat("a", 50) + "_20250110_235901.json"},
	}
	for _, tc := range tests {
		if got := StagedFilename(tc.source, at); got != tc.want {
			t.Fatalf("StagedFilename(%q) = %q, want %q", tc.source, got, tc.want)
		}
	}
}

func TestWriteThenRead(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	name, err := store.Write(ctx, 7, "cases.xlsx", samplePayload())
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if name != "cases_20250304_020607.json" {
		t.Fatalf("unexpected staged name %q", name)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "court_7", name))
	if err != nil {
		t.Fatalf("expected payload in the court directory: %v", err)
	}
	if !strings.Contains(string(raw), "رقم الدعوى") {
		t.Fatalf("non-ASCII text must not be escaped: %s", raw)
	}
	if !strings.Contains(string(raw), "\n  \"schema\"") {
		t.Fatalf("expected indented JSON: %s", raw)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "court_7"))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("temporary file must be renamed away, got %d entries", len(entries))
	}

	payload, err := store.Read(ctx, 7, name)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(payload.Data) != 1 || payload.Data[0]["case_number"] != "55/2025" {
		t.Fatalf("unexpected data: %+v", payload.Data)
	}
	if payload.Data[0]["num_sessions"] != json.Number("3") {
		t.Fatalf("expected json.Number, got %#v", payload.Data[0]["num_sessions"])
	}
	if payload.Data[0]["notes"] != nil {
		t.Fatalf("expected null notes, got %#v", payload.Data[0]["notes"])
	}
	if payload.Schema.ColumnTypes["num_sessions"] != domain.ColumnInteger {
		t.Fatalf("unexpected column types: %v", payload.Schema.ColumnTypes)
	}
}

func TestReadIsScopedToCourt(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	name, err := store.Write(ctx, 7, "secret.csv", samplePayload())
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if _, err := store.Read(ctx, 9, name); !domain.IsKind(err, domain.ErrStagedFileNotFound) {
		t.Fatalf("another court must not see the payload, got %v", err)
	}
	if _, err := store.Read(ctx, 0, name); !domain.IsKind(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden without a court, got %v", err)
	}
	if _, err := store.Write(ctx, 0, "secret.csv", samplePayload()); !domain.IsKind(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden write without a court, got %v", err)
	}
}

func TestReadErrors(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Read(ctx, 7, "missing_20250101_000000.json"); !domain.IsKind(err, domain.ErrStagedFileNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := os.MkdirAll(filepath.Join(dir, "court_7"), 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "court_7", "broken.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := store.Read(ctx, 7, "broken.json"); !domain.IsKind(err, domain.ErrStagedFileUnreadable) {
		t.Fatalf("expected unreadable, got %v", err)
	}

	for _, name := range []string{"../etc/passwd.json", "a/b.json", ".tmp-x.json", "cases.xlsx", ""} {
		if _, err := store.Read(ctx, 7, name); !domain.IsKind(err, domain.ErrInvalidInput) {
			t.Fatalf("name %q: expected invalid input, got %v", name, err)
		}
	}
}

type failingStorage struct {
	saveErr   error
	renameErr error
	removed   []string
}

func (f *failingStorage) Save(context.Context, string, io.Reader) error { return f.saveErr }
func (f *failingStorage) Open(context.Context, string) (io.ReadCloser, error) {
	return nil, errors.New("unused")
}
func (f *failingStorage) Rename(context.Context, string, string) error { return f.renameErr }
func (f *failingStorage) Remove(_ context.Context, key string) error {
	f.removed = append(f.removed, key)
	return nil
}
func (f *failingStorage) List(context.Context, string) ([]domain.Upload, error) { return nil, nil }

func TestWriteCleansUpTemporaryFileOnFailure(t *testing.T) {
	storage := &failingStorage{renameErr: errors.New("disk full")}
	store := NewStore(storage)

	if _, err := store.Write(context.Background(), 7, "cases.xlsx", samplePayload()); err == nil {
		t.Fatalf("expected rename failure")
	}
	if len(storage.removed) != 1 || !strings.HasPrefix(storage.removed[0], "court_7/.tmp-") {
		t.Fatalf("expected temporary file removed, got %v", storage.removed)
	}
}
