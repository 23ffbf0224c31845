package ports

import (
	"context"
	"io"

	"github.com/kirillkom/court-docket/internal/core/domain"
)

// CaseRepository persists case records.
type CaseRepository interface {
	BeginImport(ctx context.Context, courtID int64) (CaseImportTx, error)
	ListByCourt(ctx context.Context, courtID int64) ([]domain.Case, error)
}

// CaseImportTx is one court-scoped import batch. Nothing is visible to other
// readers until Commit.
type CaseImportTx interface {
	CaseNumbers(ctx context.Context) (map[string]struct{}, error)
	FindByNumber(ctx context.Context, caseNumber string) (*domain.Case, error)
	Insert(ctx context.Context, c *domain.Case) error
	Update(ctx context.Context, c *domain.Case) error
	Commit() error
	Rollback() error
}

// DisplayRepository persists display entries.
type DisplayRepository interface {
	AddEntry(ctx context.Context, courtID, caseID int64) (*domain.DisplayEntry, error)
	RemoveEntry(ctx context.Context, courtID, caseID int64) error
	SetCustomOrders(ctx context.Context, courtID int64, orders map[int64]*int) (int, error)
	ListEntries(ctx context.Context, courtID int64) ([]domain.DisplayEntry, error)
}

// DisplaySettingsRepository persists a court's board field configuration.
// ListSettings returns only stored rows; an unconfigured court has none.
type DisplaySettingsRepository interface {
	ListSettings(ctx context.Context, courtID int64) ([]domain.DisplayField, error)
	SaveSettings(ctx context.Context, courtID int64, fields []domain.DisplayField) error
}

// CourtRepository reads courts.
type CourtRepository interface {
	GetCourt(ctx context.Context, id int64) (*domain.Court, error)
	FirstActiveCourt(ctx context.Context) (*domain.Court, error)
}

// ObjectStorage stores uploaded spreadsheets and staged payloads.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Rename(ctx context.Context, from, to string) error
	Remove(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]domain.Upload, error)
}

// StagingStore writes and reads staged import payloads. Payloads are owned by
// one court and are only visible to it.
type StagingStore interface {
	Write(ctx context.Context, courtID int64, sourceFilename string, payload *domain.StagedPayload) (string, error)
	Read(ctx context.Context, courtID int64, filename string) (*domain.StagedPayload, error)
}

// SheetReader parses the first worksheet of a spreadsheet.
type SheetReader interface {
	Read(ctx context.Context, filename string, body io.Reader) (*domain.Sheet, error)
}

// DisplayNotifier hands display events to the live-update channel. It never blocks
// and never fails the caller.
type DisplayNotifier interface {
	Notify(event domain.DisplayUpdate)
}

// DisplaySubscriber streams display events of one court until ctx is done.
type DisplaySubscriber interface {
	SubscribeDisplayUpdates(ctx context.Context, courtID int64, handler func(domain.DisplayUpdate)) error
}
