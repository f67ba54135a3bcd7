package models

import (
	"time"

	"gorm.io/datatypes"
)

type ViolationType string

const (
	ViolationCopy           ViolationType = "copy"
	ViolationPaste          ViolationType = "paste"
	ViolationTabHidden      ViolationType = "tab_hidden"
	ViolationWindowBlur     ViolationType = "window_blur"
	ViolationContextMenu    ViolationType = "context_menu"
	ViolationFullscreenExit ViolationType = "fullscreen_exit"
	ViolationPhoneDetected  ViolationType = "phone_detected"
	ViolationMultiplePeople ViolationType = "multiple_people"
)

// AllViolationTypes lists every type the tracker accepts.
var AllViolationTypes = []ViolationType{
	ViolationCopy,
	ViolationPaste,
	ViolationTabHidden,
	ViolationWindowBlur,
	ViolationContextMenu,
	ViolationFullscreenExit,
	ViolationPhoneDetected,
	ViolationMultiplePeople,
}

// strikeWorthy is the set of types that increment the session strike count.
// Passive signals (tab_hidden, window_blur, ...) are logged for the risk
// scorer but do not count toward forced termination.
var strikeWorthy = map[ViolationType]bool{
	ViolationCopy:           true,
	ViolationPaste:          true,
	ViolationPhoneDetected:  true,
	ViolationMultiplePeople: true,
}

// IsStrikeWorthy reports whether the type counts toward termination.
func (t ViolationType) IsStrikeWorthy() bool {
	return strikeWorthy[t]
}

// IsValid reports whether the type is one the tracker accepts.
func (t ViolationType) IsValid() bool {
	for _, vt := range AllViolationTypes {
		if t == vt {
			return true
		}
	}
	return false
}

// ViolationEvent is an append-only log entry describing one suspicious
// occurrence. Never mutated or deleted while the owning session is active;
// the full log is the risk scorer's input.
type ViolationEvent struct {
	ID        uint          `json:"id" gorm:"primaryKey"`
	SessionID uint          `json:"session_id" gorm:"not null;index"`
	Type      ViolationType `json:"type" gorm:"not null;index;size:40"`

	// Optional structured detail (question id, selection contents, camera
	// frame reference, ...).
	Detail datatypes.JSON `json:"detail" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	Session Session `json:"session" gorm:"foreignKey:SessionID"`
}

func (ViolationEvent) TableName() string {
	return "violation_events"
}

// StrikeLevel is the escalation step reported back to the client so it can
// render an appropriately severe warning.
type StrikeLevel string

const (
	StrikeLevelNone       StrikeLevel = "none"
	StrikeLevelFirst      StrikeLevel = "first"
	StrikeLevelSecond     StrikeLevel = "second"
	StrikeLevelTerminated StrikeLevel = "terminated"
)

// StrikeLevelFor maps a strike count against the allowed maximum.
func StrikeLevelFor(count, maxAllowed int) StrikeLevel {
	switch {
	case count > maxAllowed:
		return StrikeLevelTerminated
	case count >= 2:
		return StrikeLevelSecond
	case count == 1:
		return StrikeLevelFirst
	default:
		return StrikeLevelNone
	}
}
