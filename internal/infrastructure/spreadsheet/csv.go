package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/court-docket/internal/core/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func readCSV(filename string, body io.Reader) (string, [][]domain.Cell, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return "", nil, fmt.Errorf("read csv: %w", err)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if !utf8.Valid(raw) {
		return "", nil, domain.WrapError(domain.ErrInvalidInput, "read csv", fmt.Errorf("file is not valid UTF-8: %s", filename))
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return "", nil, domain.WrapError(domain.ErrInvalidInput, "parse csv", err)
	}

	rows := make([][]domain.Cell, len(records))
	for i, record := range records {
		row := make([]domain.Cell, len(record))
		for j, value := range record {
			row[j] = domain.TextCell(value)
		}
		rows[i] = row
	}
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	return name, rows, nil
}
