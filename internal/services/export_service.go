package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/assesshq/session-engine/internal/models"
	"github.com/assesshq/session-engine/internal/repositories"
)

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{
		repo:   repo,
		logger: logger,
	}
}

// ExportSessionAudit renders one session's full audit trail (summary,
// answer ledger, violation log and risk breakdown) as an xlsx workbook.
func (s *exportService) ExportSessionAudit(ctx context.Context, sessionID uint) ([]byte, error) {
	session, err := s.repo.Session().GetByIDWithDetails(ctx, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := s.writeSummarySheet(f, session); err != nil {
		return nil, err
	}
	if err := s.writeAnswerSheet(f, session.Answers); err != nil {
		return nil, err
	}
	if err := s.writeViolationSheet(f, session.Violations); err != nil {
		return nil, err
	}
	f.DeleteSheet("Sheet1")

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	s.logger.Info("Session audit exported",
		"session_id", sessionID,
		"answers", len(session.Answers),
		"violations", len(session.Violations))

	return buf.Bytes(), nil
}

func (s *exportService) writeSummarySheet(f *excelize.File, session *models.Session) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	violations := make([]*models.ViolationEvent, len(session.Violations))
	for i := range session.Violations {
		violations[i] = &session.Violations[i]
	}
	breakdown := TallyViolations(violations)

	rows := [][]interface{}{
		{"Session ID", session.ID},
		{"Test", session.Test.Title},
		{"Candidate", session.CandidateName},
		{"Email", session.CandidateEmail},
		{"Status", string(session.Status)},
		{"Started At", session.StartedAt.Format(time.RFC3339)},
		{"Completed At", formatTimePtr(session.CompletedAt)},
		{"Raw Score", session.RawScore},
		{"Risk Score", formatFloatPtr(session.RiskScore)},
		{"Strike Count", session.StrikeCount},
		{"Termination Reason", formatStringPtr(session.TerminationReason)},
		{"Copy Count", breakdown.CopyCount},
		{"Paste Count", breakdown.PasteCount},
		{"Tab Hidden Count", breakdown.TabHiddenCount},
		{"Window Blur Count", breakdown.WindowBlurCount},
		{"Context Menu Count", breakdown.ContextMenuCount},
		{"Phone Detected", breakdown.PhoneDetected},
		{"Multiple People", breakdown.MultiplePeople},
	}
	for i, row := range rows {
		cell := fmt.Sprintf("A%d", i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
	}
	return nil
}

func (s *exportService) writeAnswerSheet(f *excelize.File, answers []models.Answer) error {
	const sheet = "Answers"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	header := []interface{}{"Question ID", "Selected Index", "Correct", "Time Taken (s)", "Submitted At"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write answer header: %w", err)
	}
	for i, a := range answers {
		row := []interface{}{
			a.QuestionID,
			a.SelectedIndex,
			formatBoolPtr(a.IsCorrect),
			a.TimeTakenSeconds,
			a.SubmittedAt.Format(time.RFC3339),
		}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return fmt.Errorf("failed to write answer row: %w", err)
		}
	}
	return nil
}

func (s *exportService) writeViolationSheet(f *excelize.File, violations []models.ViolationEvent) error {
	const sheet = "Violations"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	header := []interface{}{"Type", "Strike-Worthy", "Detail", "Recorded At"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write violation header: %w", err)
	}
	for i, v := range violations {
		row := []interface{}{
			string(v.Type),
			v.Type.IsStrikeWorthy(),
			string(v.Detail),
			v.CreatedAt.Format(time.RFC3339),
		}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return fmt.Errorf("failed to write violation row: %w", err)
		}
	}
	return nil
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func formatFloatPtr(f *float64) interface{} {
	if f == nil {
		return ""
	}
	return *f
}

func formatStringPtr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatBoolPtr(b *bool) string {
	if b == nil {
		return ""
	}
	if *b {
		return "yes"
	}
	return "no"
}
