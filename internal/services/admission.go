package services

import (
	"time"

	"github.com/assesshq/session-engine/internal/models"
)

// EvaluateAdmission decides whether a candidate may start a session against
// the link's admission policy. Checks run in a fixed order and short-circuit
// on the first failure; each failure is a distinct sentinel error so callers
// can message the candidate precisely.
//
// Evaluation has no side effects. Consuming link capacity happens together
// with session creation inside one transaction, so admission and capacity
// consumption cannot race.
func EvaluateAdmission(link *models.AccessLink, now time.Time) error {
	if link == nil {
		return ErrLinkNotFound
	}
	if !link.Active {
		return ErrLinkDeactivated
	}
	if link.IsExpired(now) {
		return ErrLinkExpired
	}
	if link.IsExhausted() {
		return ErrLinkCapacityReached
	}
	if link.TimeWindow != nil {
		if now.Before(link.TimeWindow.StartsAt) || !now.Before(link.TimeWindow.EndsAt) {
			return ErrLinkOutsideWindow
		}
	}
	return nil
}
