package domain

import (
	"fmt"
	"strings"
	"time"
)

type CaseStatus string

const (
	CaseStatusActive    CaseStatus = "active"
	CaseStatusInactive  CaseStatus = "inactive"
	CaseStatusFinished  CaseStatus = "finished"
	CaseStatusPostponed CaseStatus = "postponed"
	CaseStatusInSession CaseStatus = "in_session"
)

const (
	DefaultOrderIndex  = 9999
	DefaultNumSessions = 1
	MaxCaseNumberLen   = 50
)

// ParseCaseStatus matches case-insensitively; "in session" is accepted for in_session.
func ParseCaseStatus(raw string) (CaseStatus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "active":
		return CaseStatusActive, nil
	case "inactive":
		return CaseStatusInactive, nil
	case "finished":
		return CaseStatusFinished, nil
	case "postponed":
		return CaseStatusPostponed, nil
	case "in_session", "in session":
		return CaseStatusInSession, nil
	default:
		return "", fmt.Errorf("unknown case status %q", raw)
	}
}

type Court struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"is_active"`
}

type Case struct {
	ID                int64      `json:"id"`
	CourtID           int64      `json:"court_id"`
	UserID            int64      `json:"user_id,omitempty"`
	CaseNumber        string     `json:"case_number"`
	CaseDate          *time.Time `json:"case_date,omitempty"`
	OrderIndex        int        `json:"order_index"`
	NextSessionDate   string     `json:"next_session_date,omitempty"`
	SessionResult     string     `json:"session_result,omitempty"`
	NumSessions       int        `json:"num_sessions"`
	CaseSubject       string     `json:"case_subject,omitempty"`
	Defendant         string     `json:"defendant,omitempty"`
	Plaintiff         string     `json:"plaintiff,omitempty"`
	ProsecutionNumber string     `json:"prosecution_number,omitempty"`
	PoliceDepartment  string     `json:"police_department,omitempty"`
	PoliceCaseNumber  string     `json:"police_case_number,omitempty"`
	Status            CaseStatus `json:"status"`
	AddedDate         time.Time  `json:"added_date"`
}

// Actor is the tenant and user on whose behalf an operation runs.
type Actor struct {
	CourtID int64
	UserID  int64
}

func (a Actor) HasCourt() bool {
	return a.CourtID > 0
}
