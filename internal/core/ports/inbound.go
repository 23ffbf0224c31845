package ports

import (
	"context"
	"io"

	"github.com/kirillkom/court-docket/internal/core/domain"
)

// SpreadsheetProcessor turns an uploaded spreadsheet into a staged JSON payload
// owned by the actor's court.
type SpreadsheetProcessor interface {
	ProcessSpreadsheet(ctx context.Context, actor domain.Actor, filename string, body io.Reader) (*domain.ProcessResult, error)
}

// UploadService stores raw spreadsheets per court and processes stored ones.
type UploadService interface {
	Upload(ctx context.Context, actor domain.Actor, filename string, body io.Reader) (*domain.Upload, error)
	ListUploads(ctx context.Context, actor domain.Actor) ([]domain.Upload, error)
	ProcessUpload(ctx context.Context, actor domain.Actor, key string) (*domain.ProcessResult, error)
}

// CaseImporter reconciles a staged payload against the court's existing cases.
type CaseImporter interface {
	Import(ctx context.Context, actor domain.Actor, stagedFilename string) (*domain.ImportResult, error)
}

// StagedReader exposes the actor's court's staged payloads read-only.
type StagedReader interface {
	ReadStaged(ctx context.Context, actor domain.Actor, filename string) (*domain.StagedPayload, error)
}

// CaseReader is the read model for a court's cases.
type CaseReader interface {
	ListByCourt(ctx context.Context, courtID int64) ([]domain.Case, error)
}

// DisplayService manages the public display list of a court.
type DisplayService interface {
	Add(ctx context.Context, actor domain.Actor, caseID int64) (*domain.DisplayEntry, error)
	Remove(ctx context.Context, actor domain.Actor, caseID int64) error
	Reorder(ctx context.Context, actor domain.Actor, orders []domain.OrderInput) (*domain.ReorderResult, error)
	ReorderSequence(ctx context.Context, actor domain.Actor, caseIDs []int64) (*domain.ReorderResult, error)
	List(ctx context.Context, actor domain.Actor) ([]domain.DisplayEntry, error)
	Board(ctx context.Context, courtID int64) (*domain.Board, error)
	Settings(ctx context.Context, actor domain.Actor) ([]domain.DisplayField, error)
	UpdateSettings(ctx context.Context, actor domain.Actor, fields []domain.DisplayField) ([]domain.DisplayField, error)
}
