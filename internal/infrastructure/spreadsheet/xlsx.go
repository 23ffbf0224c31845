package spreadsheet

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/court-docket/internal/core/domain"
)

func readWorkbook(body io.Reader) (string, [][]domain.Cell, error) {
	f, err := excelize.OpenReader(body)
	if err != nil {
		return "", nil, domain.WrapError(domain.ErrInvalidInput, "open workbook", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", nil, domain.WrapError(domain.ErrInvalidInput, "open workbook", fmt.Errorf("no sheets found"))
	}
	sheet := sheets[0]

	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return "", nil, domain.WrapError(domain.ErrInvalidInput, "read rows", err)
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	styles := &dateStyles{file: f, known: make(map[int]bool)}
	rows := make([][]domain.Cell, len(raw))
	for r, values := range raw {
		row := make([]domain.Cell, len(values))
		for c, value := range values {
			row[c] = domain.TextCell(value)
			if r == 0 || value == "" {
				continue
			}
			serial, err := strconv.ParseFloat(value, 64)
			if err != nil {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil || !styles.isDate(sheet, axis) {
				continue
			}
			t, err := excelize.ExcelDateToTime(serial, date1904)
			if err != nil {
				continue
			}
			row[c] = domain.TimeCell(t)
		}
		rows[r] = row
	}
	return sheet, rows, nil
}

// dateStyles caches, per style id, whether the number format renders a date.
type dateStyles struct {
	file  *excelize.File
	known map[int]bool
}

func (d *dateStyles) isDate(sheet, axis string) bool {
	id, err := d.file.GetCellStyle(sheet, axis)
	if err != nil || id == 0 {
		return false
	}
	if v, ok := d.known[id]; ok {
		return v
	}
	style, err := d.file.GetStyle(id)
	isDate := err == nil && style != nil && dateNumFmt(style.NumFmt, style.CustomNumFmt)
	d.known[id] = isDate
	return isDate
}

func dateNumFmt(id int, custom *string) bool {
	if custom != nil && *custom != "" {
		return customDateFormat(*custom)
	}
	switch {
	case id >= 14 && id <= 22,
		id >= 27 && id <= 36,
		id >= 45 && id <= 47,
		id >= 50 && id <= 58:
		return true
	default:
		return false
	}
}

// customDateFormat looks for day or year tokens outside quoted literals and
// bracketed sections such as colors or elapsed time.
func customDateFormat(format string) bool {
	inQuote, inBracket := false, false
	for _, r := range strings.ToLower(format) {
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '[':
			inBracket = true
		case r == ']':
			inBracket = false
		case inBracket:
		case r == 'y' || r == 'd':
			return true
		}
	}
	return false
}
