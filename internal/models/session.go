package models

import (
	"time"

	"gorm.io/datatypes"
)

type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionTerminated SessionStatus = "terminated"
	SessionArchived   SessionStatus = "archived"
)

// IsTerminal reports whether no transition may leave the status.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionCompleted || s == SessionTerminated || s == SessionArchived
}

const (
	TerminationExcessiveViolations = "EXCESSIVE_VIOLATIONS"
	TerminationByAdministrator     = "ADMINISTRATOR"
)

// Session is one candidate's run through one test. At most one non-terminal
// session exists per (candidate email, access link) pair; a fresh start
// archives the previous one instead of mutating it. Sessions are never
// hard-deleted; terminal states are kept for audit.
type Session struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	TestID uint `json:"test_id" gorm:"not null;index"`

	// Nullable back-reference: deleting a link must never cascade into
	// attempt history. The partial unique index on (candidate_email,
	// access_link_id) WHERE status = 'in_progress' is what makes the
	// one-active-session rule hold under concurrent starts: the archive
	// step in one transaction cannot see the other's uncommitted insert,
	// so the index must reject the second in_progress row.
	AccessLinkID *uint `json:"access_link_id" gorm:"index;uniqueIndex:idx_sessions_active_candidate_link,priority:2"`

	CandidateName  string `json:"candidate_name" gorm:"not null;size:100" validate:"required,min=1,max=100"`
	CandidateEmail string `json:"candidate_email" gorm:"not null;size:255;index;uniqueIndex:idx_sessions_active_candidate_link,priority:1,where:status = 'in_progress'" validate:"required,email"`

	Status      SessionStatus `json:"status" gorm:"default:in_progress;index"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at"`

	// Proctoring state
	ProctoringEnabled  bool    `json:"proctoring_enabled" gorm:"default:false"`
	PermissionsGranted bool    `json:"permissions_granted" gorm:"default:false"`
	StrikeCount        int     `json:"strike_count" gorm:"not null;default:0"`
	MaxStrikesAllowed  int     `json:"max_strikes_allowed" gorm:"not null;default:2"`
	TerminationReason  *string `json:"termination_reason" gorm:"size:100"`

	// Results. RiskScore stays nil until computed at completion.
	RawScore  float64  `json:"raw_score"`
	RiskScore *float64 `json:"risk_score"`

	// Client-reported data (current index, tab-switch counters, browser
	// info). Advisory telemetry only, never consulted for scoring or
	// resume eligibility.
	Telemetry datatypes.JSON `json:"telemetry" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Test       Test             `json:"test" gorm:"foreignKey:TestID"`
	AccessLink *AccessLink      `json:"access_link" gorm:"foreignKey:AccessLinkID"`
	Answers    []Answer         `json:"answers" gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
	Violations []ViolationEvent `json:"violations" gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
}

func (Session) TableName() string {
	return "sessions"
}
