package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/assesshq/session-engine/internal/models"
)

// ===== REQUEST / RESPONSE TYPES =====

type StartSessionRequest struct {
	LinkToken          string `json:"link_token" validate:"required"`
	CandidateName      string `json:"candidate_name" validate:"required,min=1,max=100"`
	CandidateEmail     string `json:"candidate_email" validate:"required,email"`
	PermissionsGranted bool   `json:"permissions_granted"`
}

type StartSessionResponse struct {
	SessionID         uint `json:"session_id"`
	TestID            uint `json:"test_id"`
	TotalQuestions    int  `json:"total_questions"`
	DurationMinutes   int  `json:"duration_minutes"`
	ProctoringEnabled bool `json:"proctoring_enabled"`
}

type RecordAnswerRequest struct {
	QuestionID       uint `json:"question_id" validate:"required"`
	SelectedIndex    int  `json:"selected_index" validate:"min=0"`
	TimeTakenSeconds int  `json:"time_taken_seconds" validate:"min=0"`

	// Advisory telemetry only. Stored for tab-switch accounting, never
	// consulted for scoring or resumability.
	ClientIndex *int `json:"client_index"`
}

type ResumeState struct {
	SessionID       uint                 `json:"session_id"`
	Status          models.SessionStatus `json:"status"`
	AnsweredCount   int                  `json:"answered_count"`
	TotalQuestions  int                  `json:"total_questions"`
	CurrentPosition int                  `json:"current_position"`
	CanResume       bool                 `json:"can_resume"`
}

type ReportViolationRequest struct {
	Type   models.ViolationType `json:"type" validate:"required,violation_type"`
	Detail json.RawMessage      `json:"detail"`
}

type ViolationReport struct {
	StrikeCount       int                `json:"strike_count"`
	MaxStrikesAllowed int                `json:"max_strikes_allowed"`
	Level             models.StrikeLevel `json:"level"`
	Terminated        bool               `json:"terminated"`
}

type CompleteSessionRequest struct {
	// Trailing answers flushed with the completion request.
	Answers []RecordAnswerRequest `json:"answers" validate:"omitempty,dive"`
}

type CompletionResult struct {
	SessionID   uint                 `json:"session_id"`
	Status      models.SessionStatus `json:"status"`
	RawScore    float64              `json:"raw_score"`
	RiskScore   *float64             `json:"risk_score"`
	CompletedAt *time.Time           `json:"completed_at"`
}

type CreateLinkRequest struct {
	TestID       uint       `json:"test_id" validate:"required"`
	ExpiresAt    *time.Time `json:"expires_at"`
	MaxUses      *int       `json:"max_uses" validate:"omitempty,min=1"`
	TimeWindowID *uint      `json:"time_window_id"`
}

type BackfillResult struct {
	TestID    uint `json:"test_id"`
	Scanned   int  `json:"scanned"`
	Updated   int  `json:"updated"`
	Unchanged int  `json:"unchanged"`
}

// ===== SERVICE INTERFACES =====

// SessionService owns the lifecycle state machine for one candidate's
// attempt at one test.
type SessionService interface {
	Start(ctx context.Context, req *StartSessionRequest) (*StartSessionResponse, error)
	Complete(ctx context.Context, sessionID uint, req *CompleteSessionRequest) (*CompletionResult, error)
	Terminate(ctx context.Context, sessionID uint, reason string) error
}

// AnswerService is the answer ledger plus the progress tracker derived
// from it.
type AnswerService interface {
	RecordAnswer(ctx context.Context, sessionID uint, req *RecordAnswerRequest) error
	ResumeState(ctx context.Context, sessionID uint) (*ResumeState, error)
}

// ViolationService ingests proctoring events and escalates strikes.
type ViolationService interface {
	ReportViolation(ctx context.Context, sessionID uint, req *ReportViolationRequest) (*ViolationReport, error)
}

// LinkService is the administrative surface over admission policies.
type LinkService interface {
	Create(ctx context.Context, req *CreateLinkRequest) (*models.AccessLink, error)
	Deactivate(ctx context.Context, id uint) error
	Sessions(ctx context.Context, id uint) ([]*models.Session, error)
}

// MaintenanceService recomputes persisted risk scores from the event log.
// Must produce the same value the completion-time computation produced for
// the same event set.
type MaintenanceService interface {
	BackfillRiskScores(ctx context.Context, testID uint) (*BackfillResult, error)
}

// ExportService renders a session's audit trail (answers + violation log)
// as a spreadsheet.
type ExportService interface {
	ExportSessionAudit(ctx context.Context, sessionID uint) ([]byte, error)
}
