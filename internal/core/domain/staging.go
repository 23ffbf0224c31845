package domain

import (
	"strings"
	"time"
)

type ColumnType string

const (
	ColumnDate    ColumnType = "date"
	ColumnInteger ColumnType = "integer"
	ColumnFloat   ColumnType = "float"
	ColumnString  ColumnType = "string"
)

// Cell is one spreadsheet value. IsTime is set when the source carried native date typing.
type Cell struct {
	Text   string
	Time   time.Time
	IsTime bool
}

func TextCell(text string) Cell {
	return Cell{Text: text}
}

func TimeCell(t time.Time) Cell {
	return Cell{Time: t, IsTime: true, Text: t.Format("2006-01-02T15:04:05")}
}

func (c Cell) IsEmpty() bool {
	if c.IsTime {
		return c.Time.IsZero()
	}
	return strings.TrimSpace(c.Text) == ""
}

// Sheet is the first worksheet of an uploaded file: one header row, then data rows
// padded to len(Headers).
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]Cell
}

type HeaderTranslation struct {
	Translated string `json:"translated"`
	Original   string `json:"original"`
}

type StagedSchema struct {
	OriginalHeaders    []string                     `json:"original_headers"`
	TranslatedHeaders  map[string]string            `json:"translated_headers"`
	ColumnTypes        map[string]ColumnType        `json:"column_types"`
	RowCount           int                          `json:"row_count"`
	ProcessedDate      string                       `json:"processed_date"`
	TranslationMapping map[string]HeaderTranslation `json:"translation_mapping"`
}

type StagedPayload struct {
	Schema StagedSchema     `json:"schema"`
	Data   []map[string]any `json:"data"`
}

type FormatWarning struct {
	Row    int        `json:"row"`
	Column string     `json:"column"`
	Value  string     `json:"value"`
	Type   ColumnType `json:"type"`
	Reason string     `json:"reason"`
}

type HeaderCollision struct {
	Original  string `json:"original"`
	Canonical string `json:"canonical"`
	Assigned  string `json:"assigned"`
}

type ProcessResult struct {
	Success          bool              `json:"success"`
	Message          string            `json:"message"`
	Error            string            `json:"error,omitempty"`
	Schema           *StagedSchema     `json:"schema,omitempty"`
	StagedFile       string            `json:"json_filename,omitempty"`
	RowCount         int               `json:"row_count"`
	ColumnCount      int               `json:"column_count"`
	ExtractedColumns []string          `json:"extracted_columns,omitempty"`
	UnknownHeaders   []string          `json:"unknown_headers,omitempty"`
	Collisions       []HeaderCollision `json:"header_collisions,omitempty"`
	Warnings         []FormatWarning   `json:"warnings,omitempty"`
}

type Upload struct {
	Key        string    `json:"key"`
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}
