package domain

const (
	SkipMissingCaseNumber = "missing case number"
	SkipCaseNumberTooLong = "case number too long"
	SkipInvalidCaseDate   = "invalid case date"
	SkipStorageError      = "storage error"
	SkipRolledBack        = "rolled back"
)

type SkippedRow struct {
	Row        int    `json:"row"`
	Reason     string `json:"reason"`
	CaseNumber string `json:"case_number,omitempty"`
	Value      any    `json:"value,omitempty"`
}

// ImportResult reports one import run. CasesAdded counts inserts and updates together;
// Inserted and Updated break it down.
type ImportResult struct {
	Success    bool         `json:"success"`
	CasesAdded int          `json:"cases_added"`
	Inserted   int          `json:"inserted"`
	Updated    int          `json:"updated"`
	Skipped    []SkippedRow `json:"skipped"`
	Errors     []string     `json:"errors"`
}
