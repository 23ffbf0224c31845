// Package spreadsheet reads the first worksheet of an uploaded file into a
// domain.Sheet. Excel workbooks go through excelize; CSV through encoding/csv.
package spreadsheet

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/kirillkom/court-docket/internal/core/domain"
)

type Reader struct{}

func NewReader() *Reader {
	return &Reader{}
}

// Supported reports whether the file extension has a reader.
func Supported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm", ".csv":
		return true
	default:
		return false
	}
}

func (r *Reader) Read(ctx context.Context, filename string, body io.Reader) (*domain.Sheet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		rows [][]domain.Cell
		name string
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		name, rows, err = readWorkbook(body)
	case ".csv":
		name, rows, err = readCSV(filename, body)
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "read spreadsheet", fmt.Errorf("unsupported file type %q", filepath.Ext(filename)))
	}
	if err != nil {
		return nil, err
	}
	return buildSheet(name, rows)
}

// buildSheet takes the first non-blank row as the header row and pads every
// row to the widest one.
func buildSheet(name string, rows [][]domain.Cell) (*domain.Sheet, error) {
	start := 0
	for start < len(rows) && blankRow(rows[start]) {
		start++
	}
	if start == len(rows) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "read spreadsheet", fmt.Errorf("no header row"))
	}
	rows = rows[start:]

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	headers := make([]string, width)
	for i, cell := range rows[0] {
		headers[i] = strings.TrimSpace(cell.Text)
	}

	data := make([][]domain.Cell, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) < width {
			padded := make([]domain.Cell, width)
			copy(padded, row)
			row = padded
		}
		data = append(data, row)
	}

	return &domain.Sheet{Name: name, Headers: headers, Rows: data}, nil
}

func blankRow(row []domain.Cell) bool {
	for _, cell := range row {
		if !cell.IsEmpty() {
			return false
		}
	}
	return true
}
