package services

import (
	"github.com/assesshq/session-engine/internal/models"
)

// MaxRiskScore bounds the integrity score.
const MaxRiskScore = 10.0

// RiskBreakdown tallies the violation event set the score is derived from.
// Kept alongside the score for audit exports.
type RiskBreakdown struct {
	CopyCount        int  `json:"copy_count"`
	PasteCount       int  `json:"paste_count"`
	TabHiddenCount   int  `json:"tab_hidden_count"`
	WindowBlurCount  int  `json:"window_blur_count"`
	ContextMenuCount int  `json:"context_menu_count"`
	PhoneDetected    bool `json:"phone_detected"`
	MultiplePeople   bool `json:"multiple_people"`
}

// TallyViolations aggregates the event list into per-type counts and
// high-severity flags.
func TallyViolations(events []*models.ViolationEvent) RiskBreakdown {
	var b RiskBreakdown
	for _, e := range events {
		switch e.Type {
		case models.ViolationCopy:
			b.CopyCount++
		case models.ViolationPaste:
			b.PasteCount++
		case models.ViolationTabHidden:
			b.TabHiddenCount++
		case models.ViolationWindowBlur:
			b.WindowBlurCount++
		case models.ViolationContextMenu:
			b.ContextMenuCount++
		case models.ViolationPhoneDetected:
			b.PhoneDetected = true
		case models.ViolationMultiplePeople:
			b.MultiplePeople = true
		}
	}
	return b
}

// ComputeRiskScore derives a bounded [0, 10] integrity score from the full
// violation event list of a session. The rule order is load-bearing: the
// medium-risk floor applies before the high-severity additions, which
// changes the clamp outcome at the boundary. Historical scores were
// computed with exactly this order, so it must not be rearranged.
func ComputeRiskScore(events []*models.ViolationEvent) float64 {
	b := TallyViolations(events)
	score := 0.0

	if b.CopyCount > 1 {
		score += 2
	}
	if b.PasteCount > 0 {
		score += 1.5
	}
	if b.TabHiddenCount > 3 {
		score += 2
	}
	if b.WindowBlurCount > 1 {
		score += 1.5
	}

	// Combined-threshold floor: all three signals together force at least
	// medium risk before the high-severity additions apply.
	if b.CopyCount > 1 && b.WindowBlurCount > 1 && b.TabHiddenCount > 3 && score < 5 {
		score = 5
	}

	if b.PhoneDetected {
		score += 4
	}
	if b.MultiplePeople {
		score += 5
	}

	if b.TabHiddenCount > 10 {
		score += 2
	}
	if b.CopyCount+b.PasteCount > 5 {
		score += 2
	}

	if score > MaxRiskScore {
		score = MaxRiskScore
	}
	return score
}
