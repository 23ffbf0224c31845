package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/kirillkom/court-docket/internal/core/domain"
	"github.com/kirillkom/court-docket/internal/core/ports"
)

var uploadExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".csv":  true,
}

type UploadUseCase struct {
	storage   ports.ObjectStorage
	processor ports.SpreadsheetProcessor
	now       func() time.Time
}

func NewUploadUseCase(storage ports.ObjectStorage, processor ports.SpreadsheetProcessor) *UploadUseCase {
	return &UploadUseCase{
		storage:   storage,
		processor: processor,
		now:       time.Now,
	}
}

// Upload stores the file under YYYY/MM-Month/DD/court_<id>_<base>_<unix><ext>.
func (uc *UploadUseCase) Upload(ctx context.Context, actor domain.Actor, filename string, body io.Reader) (*domain.Upload, error) {
	if !actor.HasCourt() {
		return nil, domain.WrapError(domain.ErrForbidden, "upload spreadsheet", errors.New("no court assigned to your account"))
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !uploadExtensions[ext] {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload spreadsheet", fmt.Errorf("unsupported file type %q, expected .xlsx, .xlsm or .csv", ext))
	}

	now := uc.now().UTC()
	base := sanitizeFilename(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
	name := fmt.Sprintf("%s%s_%d%s", courtPrefix(actor.CourtID), base, now.Unix(), ext)
	key := path.Join(
		now.Format("2006"),
		now.Format("01-January"),
		now.Format("02"),
		name,
	)

	counter := &countingReader{r: body}
	if err := uc.storage.Save(ctx, key, counter); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	return &domain.Upload{
		Key:        key,
		Filename:   name,
		Size:       counter.n,
		UploadedAt: now,
	}, nil
}

func (uc *UploadUseCase) ListUploads(ctx context.Context, actor domain.Actor) ([]domain.Upload, error) {
	if !actor.HasCourt() {
		return nil, domain.WrapError(domain.ErrForbidden, "list uploads", errors.New("no court assigned to your account"))
	}
	uploads, err := uc.storage.List(ctx, courtPrefix(actor.CourtID))
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	return uploads, nil
}

// ProcessUpload runs the processor over a stored upload owned by the actor's court.
func (uc *UploadUseCase) ProcessUpload(ctx context.Context, actor domain.Actor, key string) (*domain.ProcessResult, error) {
	if !actor.HasCourt() {
		return nil, domain.WrapError(domain.ErrForbidden, "process upload", errors.New("no court assigned to your account"))
	}
	cleaned := path.Clean(key)
	if key == "" || path.IsAbs(key) || cleaned != key || strings.HasPrefix(cleaned, "..") || strings.Contains(key, "\\") {
		return nil, domain.WrapError(domain.ErrInvalidInput, "process upload", fmt.Errorf("invalid upload key %q", key))
	}
	if !strings.HasPrefix(path.Base(cleaned), courtPrefix(actor.CourtID)) {
		return nil, domain.WrapError(domain.ErrForbidden, "process upload", errors.New("upload belongs to another court"))
	}

	rc, err := uc.storage.Open(ctx, cleaned)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.WrapError(domain.ErrUploadNotFound, "process upload", err)
		}
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer rc.Close()

	return uc.processor.ProcessSpreadsheet(ctx, actor, path.Base(cleaned), rc)
}

func courtPrefix(courtID int64) string {
	return fmt.Sprintf("court_%d_", courtID)
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	base = strings.Trim(base, "._")
	if base == "" {
		return "upload"
	}
	return base
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
