package events

import (
	"time"

	"github.com/google/uuid"
)

// SessionEventType identifies the lifecycle outcomes published for external
// consumers (analytics, reporting). Only final states are published; the
// engine never exposes intermediate per-answer activity.
type SessionEventType string

const (
	EventSessionCompleted  SessionEventType = "session.completed"
	EventSessionTerminated SessionEventType = "session.terminated"
)

// SessionEvent is the envelope written to the session-events topic.
type SessionEvent struct {
	ID        string           `json:"id"`
	Type      SessionEventType `json:"type"`
	Source    string           `json:"source"`
	Version   string           `json:"version"`
	Timestamp time.Time        `json:"timestamp"`
	Data      interface{}      `json:"data"`
}

// SessionCompletedEvent carries the final state analytics consumes.
type SessionCompletedEvent struct {
	SessionID      uint       `json:"session_id"`
	TestID         uint       `json:"test_id"`
	CandidateEmail string     `json:"candidate_email"`
	RawScore       float64    `json:"raw_score"`
	RiskScore      *float64   `json:"risk_score"`
	CompletedAt    *time.Time `json:"completed_at"`
}

// SessionTerminatedEvent signals a forced or administrative termination.
type SessionTerminatedEvent struct {
	SessionID      uint   `json:"session_id"`
	TestID         uint   `json:"test_id"`
	CandidateEmail string `json:"candidate_email"`
	Reason         string `json:"reason"`
	StrikeCount    int    `json:"strike_count"`
}

// NewSessionEvent wraps event data in the standard envelope.
func NewSessionEvent(eventType SessionEventType, data interface{}) *SessionEvent {
	return &SessionEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    "session-engine",
		Version:   "1.0",
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}
