// Package staging persists processed spreadsheets as JSON payloads awaiting
// import.
package staging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/kirillkom/court-docket/internal/core/domain"
	"github.com/kirillkom/court-docket/internal/core/ports"
)

const maxBaseRunes = 50

type Store struct {
	storage ports.ObjectStorage
	now     func() time.Time
}

func NewStore(storage ports.ObjectStorage) *Store {
	return &Store{storage: storage, now: time.Now}
}

// Write encodes the payload under a name derived from the source filename in
// the court's directory and returns that name. The payload lands under a
// temporary key first, so a failed write never leaves a partial staged file
// behind.
func (s *Store) Write(ctx context.Context, courtID int64, sourceFilename string, payload *domain.StagedPayload) (string, error) {
	dir, err := courtDir(courtID)
	if err != nil {
		return "", err
	}
	if payload == nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "write staged payload", errors.New("nil payload"))
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return "", fmt.Errorf("encode staged payload: %w", err)
	}

	name := StagedFilename(sourceFilename, s.now())
	tmp := path.Join(dir, ".tmp-"+uuid.NewString()+".json")
	if err := s.storage.Save(ctx, tmp, &buf); err != nil {
		_ = s.storage.Remove(ctx, tmp)
		return "", fmt.Errorf("save staged payload: %w", err)
	}
	if err := s.storage.Rename(ctx, tmp, path.Join(dir, name)); err != nil {
		_ = s.storage.Remove(ctx, tmp)
		return "", fmt.Errorf("publish staged payload: %w", err)
	}
	return name, nil
}

// Read only looks inside the court's directory; another court's payload is
// reported as not found.
func (s *Store) Read(ctx context.Context, courtID int64, filename string) (*domain.StagedPayload, error) {
	dir, err := courtDir(courtID)
	if err != nil {
		return nil, err
	}
	if err := ValidateFilename(filename); err != nil {
		return nil, err
	}

	rc, err := s.storage.Open(ctx, path.Join(dir, filename))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.WrapError(domain.ErrStagedFileNotFound, "read staged payload", err)
		}
		return nil, fmt.Errorf("open staged payload: %w", err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read staged payload: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var payload domain.StagedPayload
	if err := dec.Decode(&payload); err != nil {
		return nil, domain.WrapError(domain.ErrStagedFileUnreadable, "decode staged payload", err)
	}
	return &payload, nil
}

func courtDir(courtID int64) (string, error) {
	if courtID <= 0 {
		return "", domain.WrapError(domain.ErrForbidden, "resolve staging dir", errors.New("staged files belong to a court"))
	}
	return fmt.Sprintf("court_%d", courtID), nil
}

// StagedFilename is <safe base>_<YYYYMMDD_HHMMSS>.json with the timestamp in UTC.
// The safe base replaces every non-alphanumeric rune with "_" and keeps at most
// 50 runes.
func StagedFilename(sourceFilename string, at time.Time) string {
	base := path.Base(strings.ReplaceAll(sourceFilename, "\\", "/"))
	base = strings.TrimSuffix(base, path.Ext(base))

	runes := make([]rune, 0, maxBaseRunes)
	for _, r := range base {
		if len(runes) == maxBaseRunes {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			runes = append(runes, r)
		} else {
			runes = append(runes, '_')
		}
	}
	safe := string(runes)
	if safe == "" {
		safe = "upload"
	}
	return fmt.Sprintf("%s_%s.json", safe, at.UTC().Format("20060102_150405"))
}

// ValidateFilename accepts only plain *.json base names.
func ValidateFilename(filename string) error {
	switch {
	case filename == "",
		strings.ContainsAny(filename, `/\`),
		strings.HasPrefix(filename, "."),
		!strings.HasSuffix(strings.ToLower(filename), ".json"):
		return domain.WrapError(domain.ErrInvalidInput, "validate staged filename", fmt.Errorf("invalid staged filename %q", filename))
	}
	return nil
}
