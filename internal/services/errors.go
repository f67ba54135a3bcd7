package services

import (
	"errors"
	"fmt"

	apperrors "github.com/assesshq/session-engine/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrConflict         = errors.New("resource conflict")

	// Admission errors. Each failing admission check surfaces distinctly
	// so the caller can message the candidate, but all of them mean
	// "admission denied".
	ErrLinkNotFound        = errors.New("access link not found")
	ErrLinkDeactivated     = errors.New("access link has been deactivated")
	ErrLinkExpired         = errors.New("access link has expired")
	ErrLinkCapacityReached = errors.New("access link has reached its usage limit")
	ErrLinkOutsideWindow   = errors.New("access link is outside its scheduled window")

	// Session errors
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionNotActive = errors.New("session is not in progress")

	// Reference errors
	ErrTestNotFound     = errors.New("test not found")
	ErrQuestionNotFound = errors.New("question not found")

	// Violation errors
	ErrInvalidViolationType = errors.New("unknown violation type")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from the errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// StateError reports an operation that is invalid for the session's current
// lifecycle state.
type StateError struct {
	SessionID uint   `json:"session_id"`
	Status    string `json:"status"`
	Operation string `json:"operation"`
}

func (se *StateError) Error() string {
	return fmt.Sprintf("operation %s invalid for session %d in state %s",
		se.Operation, se.SessionID, se.Status)
}

func NewStateError(sessionID uint, status, operation string) *StateError {
	return &StateError{SessionID: sessionID, Status: status, Operation: operation}
}

// ===== ERROR HELPERS =====

// IsAdmissionDenied reports whether err is one of the admission failures.
func IsAdmissionDenied(err error) bool {
	return errors.Is(err, ErrLinkNotFound) ||
		errors.Is(err, ErrLinkDeactivated) ||
		errors.Is(err, ErrLinkExpired) ||
		errors.Is(err, ErrLinkCapacityReached) ||
		errors.Is(err, ErrLinkOutsideWindow)
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrTestNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrLinkNotFound)
}

// IsConflict checks if error represents a lifecycle/state conflict
func IsConflict(err error) bool {
	if errors.Is(err, ErrConflict) || errors.Is(err, ErrSessionNotActive) {
		return true
	}
	var se *StateError
	return errors.As(err, &se)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}
