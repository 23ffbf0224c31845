package domain

import "time"

type DisplayEntry struct {
	ID           int64     `json:"id"`
	CaseID       int64     `json:"case_id"`
	CourtID      int64     `json:"court_id"`
	DisplayOrder int       `json:"display_order"`
	CustomOrder  *int      `json:"custom_order"`
	AddedDate    time.Time `json:"added_date"`
	Case         Case      `json:"case"`
}

type DisplayUpdateType string

const (
	DisplayUpdateAdd      DisplayUpdateType = "add"
	DisplayUpdateRemove   DisplayUpdateType = "remove"
	DisplayUpdateOrder    DisplayUpdateType = "order"
	DisplayUpdateSettings DisplayUpdateType = "settings"
)

// DisplayUpdate is the live-update event published after a display list change is committed.
type DisplayUpdate struct {
	UpdateType DisplayUpdateType `json:"update_type"`
	CourtID    int64             `json:"court_id"`
	CaseID     int64             `json:"case_id,omitempty"`
	Message    string            `json:"message,omitempty"`
}

type OrderInput struct {
	CaseID int64
	Value  string
}

type ReorderResult struct {
	Updated  int      `json:"updated"`
	Warnings []string `json:"warnings"`
}

type Board struct {
	Court         Court             `json:"court"`
	Cases         []Case            `json:"cases"`
	VisibleFields []string          `json:"visible_fields"`
	FieldLabels   map[string]string `json:"field_labels"`
}

// MaxDisplayLabelLen bounds a configured field label.
const MaxDisplayLabelLen = 50

// DisplayField is one case field as shown on the public board.
type DisplayField struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Visible bool   `json:"visible"`
}

// DisplayFieldNames are the case fields a court can show on its board, in
// settings order.
var DisplayFieldNames = []string{
	"case_number",
	"case_date",
	"added_date",
	"order_index",
	"next_session_date",
	"session_result",
	"num_sessions",
	"case_subject",
	"defendant",
	"plaintiff",
	"prosecution_number",
	"police_department",
	"police_case_number",
	"status",
}

// DefaultFieldLabels label fields in the settings screen until a court sets its own.
var DefaultFieldLabels = map[string]string{
	"case_number":        "رقم الدعوى",
	"case_date":          "تاريخ الدعوى",
	"added_date":         "تاريخ الإضافة",
	"order_index":        "الترتيب",
	"next_session_date":  "تاريخ الجلسة القادمة",
	"session_result":     "نتيجة الجلسة",
	"num_sessions":       "رقم الجلسة",
	"case_subject":       "موضوع الدعوى",
	"defendant":          "المستأنف ضده",
	"plaintiff":          "المستأنف",
	"prosecution_number": "الرقم المقابل",
	"police_department":  "مركز الشرطة",
	"police_case_number": "رقم الشرطة",
	"status":             "الحالة",
}

// DefaultBoardFields is what an unconfigured board shows, with shorter labels.
var DefaultBoardFields = []DisplayField{
	{Name: "case_number", Label: "رقم الدعوى", Visible: true},
	{Name: "next_session_date", Label: "الجلسة القادمة", Visible: true},
	{Name: "case_subject", Label: "الموضوع", Visible: true},
	{Name: "plaintiff", Label: "المستأنف", Visible: true},
	{Name: "defendant", Label: "المستأنف ضده", Visible: true},
	{Name: "status", Label: "الحالة", Visible: true},
}

func IsDisplayField(name string) bool {
	_, ok := DefaultFieldLabels[name]
	return ok
}
