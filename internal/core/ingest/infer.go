package ingest

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/court-docket/internal/core/domain"
)

const sampleSize = 10

// dateLayouts is tried in order; a column is a date column when the whole
// sample parses under one of them.
var dateLayouts = []string{
	"2006-1-2",
	"2/1/2006",
	"1/2/2006",
	"2006/1/2",
	"2-1-2006",
}

// Inference is the detected type of a column. Layout is the date layout that
// matched the sample, empty for native date cells and non-date columns.
type Inference struct {
	Type   domain.ColumnType
	Layout string
}

// InferColumnType classifies a column from at most its first ten non-empty
// cells. Values past the sample are never inspected.
func InferColumnType(cells []domain.Cell) Inference {
	sample := sampleCells(cells)
	if len(sample) == 0 {
		return Inference{Type: domain.ColumnString}
	}

	if allNativeTime(sample) {
		return Inference{Type: domain.ColumnDate}
	}

	if layout, ok := commonDateLayout(sample); ok {
		return Inference{Type: domain.ColumnDate, Layout: layout}
	}

	integral := true
	for _, cell := range sample {
		if cell.IsTime {
			return Inference{Type: domain.ColumnString}
		}
		f, ok := parseNumber(cell.Text)
		if !ok {
			return Inference{Type: domain.ColumnString}
		}
		if f != math.Trunc(f) {
			integral = false
		}
	}
	if integral {
		return Inference{Type: domain.ColumnInteger}
	}
	return Inference{Type: domain.ColumnFloat}
}

func sampleCells(cells []domain.Cell) []domain.Cell {
	sample := make([]domain.Cell, 0, sampleSize)
	for _, cell := range cells {
		if cell.IsEmpty() {
			continue
		}
		sample = append(sample, cell)
		if len(sample) == sampleSize {
			break
		}
	}
	return sample
}

func allNativeTime(sample []domain.Cell) bool {
	for _, cell := range sample {
		if !cell.IsTime {
			return false
		}
	}
	return true
}

func commonDateLayout(sample []domain.Cell) (string, bool) {
	for _, layout := range dateLayouts {
		matched := true
		for _, cell := range sample {
			if cell.IsTime {
				continue
			}
			if _, err := time.Parse(layout, strings.TrimSpace(cell.Text)); err != nil {
				matched = false
				break
			}
		}
		if matched {
			return layout, true
		}
	}
	return "", false
}

func parseNumber(text string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
