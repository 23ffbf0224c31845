package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/court-docket/internal/core/domain"
	"github.com/kirillkom/court-docket/internal/core/ingest"
	"github.com/kirillkom/court-docket/internal/core/ports"
)

type ProcessSpreadsheetUseCase struct {
	reader    ports.SheetReader
	dict      *ingest.Dictionary
	staging   ports.StagingStore
	essential []string
	logger    *slog.Logger
	now       func() time.Time
}

func NewProcessSpreadsheetUseCase(
	reader ports.SheetReader,
	dict *ingest.Dictionary,
	staging ports.StagingStore,
	essential []string,
	logger *slog.Logger,
) *ProcessSpreadsheetUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessSpreadsheetUseCase{
		reader:    reader,
		dict:      dict,
		staging:   staging,
		essential: essential,
		logger:    logger,
		now:       time.Now,
	}
}

// ProcessSpreadsheet translates, types and formats the first worksheet and
// stages it as JSON for the actor's court. Problems with the file itself come
// back as a result with Success=false; the returned error is reserved for
// authorization and for failures of the caller's context or of the reader's
// transport.
func (uc *ProcessSpreadsheetUseCase) ProcessSpreadsheet(ctx context.Context, actor domain.Actor, filename string, body io.Reader) (*domain.ProcessResult, error) {
	if !actor.HasCourt() {
		return nil, domain.WrapError(domain.ErrForbidden, "process spreadsheet", errors.New("no court assigned to your account"))
	}
	sheet, err := uc.reader.Read(ctx, filename, body)
	if err != nil {
		if domain.IsKind(err, domain.ErrInvalidInput) {
			uc.logger.Warn("spreadsheet_rejected", "filename", filename, "error", err.Error())
			return failure(fmt.Sprintf("failed to read spreadsheet: %v", err), "Error reading file content."), nil
		}
		return nil, fmt.Errorf("read spreadsheet: %w", err)
	}

	translation := uc.dict.Translate(sheet.Headers)
	for _, header := range translation.Unknown {
		uc.logger.Warn("unknown_header", "filename", filename, "header", header, "field", ingest.Slug(header))
	}
	for _, c := range translation.Collisions {
		uc.logger.Warn("header_collision", "filename", filename, "header", c.Original, "canonical", c.Canonical, "assigned", c.Assigned)
	}

	if missing := missingColumns(uc.essential, translation.Canonical); len(missing) > 0 {
		return failure(
			fmt.Sprintf("missing essential column(s): %s", strings.Join(missing, ", ")),
			"Essential columns missing.",
		), nil
	}

	rows := nonBlankRows(sheet.Rows)
	if len(rows) == 0 {
		return failure("spreadsheet has no data rows", "No data found in file."), nil
	}

	columns := make([]ingest.Inference, len(translation.Canonical))
	columnTypes := make(map[string]domain.ColumnType, len(columns))
	for col, name := range translation.Canonical {
		cells := make([]domain.Cell, len(rows))
		for i, row := range rows {
			cells[i] = cellAt(row, col)
		}
		columns[col] = ingest.InferColumnType(cells)
		columnTypes[name] = columns[col].Type
	}

	data := make([]map[string]any, 0, len(rows))
	var warnings []domain.FormatWarning
	for i, row := range rows {
		record := make(map[string]any, len(columns))
		for col, name := range translation.Canonical {
			cell := cellAt(row, col)
			value, reason := ingest.FormatCell(cell, columns[col])
			record[name] = value
			if reason != "" {
				warnings = append(warnings, domain.FormatWarning{
					Row:    i + 1,
					Column: name,
					Value:  cell.Text,
					Type:   columns[col].Type,
					Reason: reason,
				})
			}
		}
		data = append(data, record)
	}
	if len(warnings) > 0 {
		uc.logger.Warn("format_warnings", "filename", filename, "count", len(warnings), "first_reason", warnings[0].Reason)
	}

	mapping := translation.Mapping()
	schema := domain.StagedSchema{
		OriginalHeaders:    translation.Originals,
		TranslatedHeaders:  mapping,
		ColumnTypes:        columnTypes,
		RowCount:           len(data),
		ProcessedDate:      uc.now().UTC().Format(time.RFC3339),
		TranslationMapping: make(map[string]domain.HeaderTranslation, len(mapping)),
	}
	for original, translated := range mapping {
		schema.TranslationMapping[original] = domain.HeaderTranslation{Translated: translated, Original: original}
	}

	staged, err := uc.staging.Write(ctx, actor.CourtID, filename, &domain.StagedPayload{Schema: schema, Data: data})
	if err != nil {
		uc.logger.Error("staging_write_failed", "court_id", actor.CourtID, "filename", filename, "error", err.Error())
		return failure("failed to save processed data", "Error saving JSON file."), nil
	}

	uc.logger.Info("spreadsheet_processed",
		"court_id", actor.CourtID,
		"filename", filename,
		"staged_file", staged,
		"rows", len(data),
		"columns", len(translation.Canonical),
		"unknown_headers", len(translation.Unknown),
		"warnings", len(warnings),
	)

	return &domain.ProcessResult{
		Success: true,
		Message: fmt.Sprintf("File processed successfully. %d rows and %d columns extracted. Saved to %s.",
			len(data), len(translation.Canonical), staged),
		Schema:           &schema,
		StagedFile:       staged,
		RowCount:         len(data),
		ColumnCount:      len(translation.Canonical),
		ExtractedColumns: translation.Canonical,
		UnknownHeaders:   translation.Unknown,
		Collisions:       translation.Collisions,
		Warnings:         warnings,
	}, nil
}

func failure(errMessage, message string) *domain.ProcessResult {
	return &domain.ProcessResult{Success: false, Error: errMessage, Message: message}
}

func missingColumns(required, present []string) []string {
	have := make(map[string]bool, len(present))
	for _, name := range present {
		have[name] = true
	}
	var missing []string
	for _, name := range required {
		if !have[name] {
			missing = append(missing, name)
		}
	}
	return missing
}

func nonBlankRows(rows [][]domain.Cell) [][]domain.Cell {
	out := make([][]domain.Cell, 0, len(rows))
	for _, row := range rows {
		for _, cell := range row {
			if !cell.IsEmpty() {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

func cellAt(row []domain.Cell, col int) domain.Cell {
	if col < len(row) {
		return row[col]
	}
	return domain.Cell{}
}
