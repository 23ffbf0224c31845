package localfs

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/court-docket/internal/core/domain"
)

func TestSaveOpenRoundTrip(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	if err := store.Save(ctx, "2025/01-January/10/court_1_cases_1.csv", strings.NewReader("a,b\n")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	rc, err := store.Open(ctx, "2025/01-January/10/court_1_cases_1.csv")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != "a,b\n" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestResolveRejectsTraversal(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for _, key := range []string{"../escape.json", "/etc/passwd", "a/../../b", "..", "", `a\b`} {
		if err := store.Save(context.Background(), key, strings.NewReader("x")); !domain.IsKind(err, domain.ErrInvalidInput) {
			t.Fatalf("Save(%q) expected invalid input, got %v", key, err)
		}
	}
}

func TestOpenMissingKeepsNotExist(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = store.Open(context.Background(), "missing.json")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestRenameAndRemove(t *testing.T) {
	base := t.TempDir()
	store, err := New(base)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	if err := store.Save(ctx, ".tmp-1", strings.NewReader("{}")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Rename(ctx, ".tmp-1", "final.json"); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(base, "final.json")); err != nil {
		t.Fatalf("expected renamed file: %v", err)
	}
	if err := store.Remove(ctx, "final.json"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := store.Remove(ctx, "final.json"); err != nil {
		t.Fatalf("Remove() of missing file should be a no-op, got %v", err)
	}
}

func TestListFiltersByNamePrefixNewestFirst(t *testing.T) {
	base := t.TempDir()
	store, err := New(base)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	files := []string{
		"2025/01-January/10/court_1_old_1.xlsx",
		"2025/02-February/01/court_1_new_2.xlsx",
		"2025/02-February/01/court_2_other_3.xlsx",
	}
	for i, key := range files {
		if err := store.Save(ctx, key, strings.NewReader("x")); err != nil {
			t.Fatalf("Save(%s) error = %v", key, err)
		}
		mtime := time.Date(2025, 1, 1+i, 0, 0, 0, 0, time.UTC)
		if err := os.Chtimes(filepath.Join(base, filepath.FromSlash(key)), mtime, mtime); err != nil {
			t.Fatalf("Chtimes() error = %v", err)
		}
	}

	got, err := store.List(ctx, "court_1_")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 uploads for court 1, got %+v", got)
	}
	if got[0].Key != files[1] || got[1].Key != files[0] {
		t.Fatalf("unexpected order: %+v", got)
	}
	if got[0].Filename != "court_1_new_2.xlsx" || got[0].Size != 1 {
		t.Fatalf("unexpected metadata: %+v", got[0])
	}
}
