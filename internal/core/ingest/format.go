package ingest

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/court-docket/internal/core/domain"
)

const (
	dateOutputLayout     = "2006-01-02"
	dateTimeOutputLayout = "2006-01-02T15:04:05"
)

var genericDateLayouts = append(append([]string{}, dateLayouts...),
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/1/2 15:04:05",
	"2 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
)

// FormatCell converts one cell into a JSON-safe value for its column. It never
// fails: when a conversion is not possible the cell's text is kept and a
// non-empty warning explains why.
func FormatCell(cell domain.Cell, column Inference) (any, string) {
	if cell.IsEmpty() {
		return nil, ""
	}

	switch column.Type {
	case domain.ColumnDate:
		if cell.IsTime {
			return formatTime(cell.Time), ""
		}
		if t, ok := parseDate(cell.Text, column.Layout); ok {
			return t.Format(dateOutputLayout), ""
		}
		return cell.Text, "not a recognizable date"
	case domain.ColumnInteger:
		if cell.IsTime {
			return formatTime(cell.Time), "date value in integer column"
		}
		// Exact first; float64 only holds integers up to 2^53.
		if n, err := strconv.ParseInt(strings.TrimSpace(cell.Text), 10, 64); err == nil {
			return n, ""
		}
		f, ok := parseNumber(cell.Text)
		if !ok {
			return cell.Text, "not a number"
		}
		if f >= math.MaxInt64 || f < math.MinInt64 {
			return cell.Text, "integer out of range"
		}
		n := int64(f)
		if float64(n) != f {
			return n, "fractional part dropped"
		}
		return n, ""
	case domain.ColumnFloat:
		if cell.IsTime {
			return formatTime(cell.Time), "date value in float column"
		}
		f, ok := parseNumber(cell.Text)
		if !ok {
			return cell.Text, "not a number"
		}
		return f, ""
	default:
		if cell.IsTime {
			return formatTime(cell.Time), ""
		}
		return cell.Text, ""
	}
}

func formatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format(dateOutputLayout)
	}
	return t.Format(dateTimeOutputLayout)
}

func parseDate(text, preferred string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if preferred != "" {
		if t, err := time.Parse(preferred, text); err == nil {
			return t, true
		}
	}
	for _, layout := range genericDateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseISODate parses the strict YYYY-MM-DD form written to staged payloads.
func ParseISODate(text string) (time.Time, error) {
	return time.Parse(dateOutputLayout, strings.TrimSpace(text))
}
