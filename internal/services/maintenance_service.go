package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/assesshq/session-engine/internal/repositories"
)

const backfillBatchSize = 200

type maintenanceService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewMaintenanceService(repo repositories.Repository, logger *slog.Logger) MaintenanceService {
	return &maintenanceService{
		repo:   repo,
		logger: logger,
	}
}

// BackfillRiskScores recomputes the persisted risk score of every terminal
// proctored session of a test from its violation event log. The scorer is
// the same function the completion path runs, so a backfill over an
// unchanged event set is a no-op: recomputation yields the identical value.
func (s *maintenanceService) BackfillRiskScores(ctx context.Context, testID uint) (*BackfillResult, error) {
	result := &BackfillResult{TestID: testID}

	for offset := 0; ; offset += backfillBatchSize {
		sessions, err := s.repo.Session().ListCompletedByTest(ctx, testID, backfillBatchSize, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		if len(sessions) == 0 {
			break
		}

		for _, session := range sessions {
			if !session.ProctoringEnabled {
				continue
			}
			result.Scanned++

			violations, err := s.repo.Violation().GetBySession(ctx, session.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to load violations for session %d: %w", session.ID, err)
			}

			score := ComputeRiskScore(violations)
			if session.RiskScore != nil && *session.RiskScore == score {
				result.Unchanged++
				continue
			}

			if err := s.repo.Session().UpdateRiskScore(ctx, session.ID, score); err != nil {
				return nil, fmt.Errorf("failed to update risk score for session %d: %w", session.ID, err)
			}
			result.Updated++
		}

		if len(sessions) < backfillBatchSize {
			break
		}
	}

	s.logger.Info("Risk score backfill finished",
		"test_id", testID,
		"scanned", result.Scanned,
		"updated", result.Updated,
		"unchanged", result.Unchanged)

	return result, nil
}
