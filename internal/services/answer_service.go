package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/datatypes"

	"github.com/assesshq/session-engine/internal/cache"
	"github.com/assesshq/session-engine/internal/models"
	"github.com/assesshq/session-engine/internal/repositories"
	"github.com/assesshq/session-engine/internal/utils"
)

const questionCountTTL = 10 * time.Minute

type answerService struct {
	repo      repositories.Repository
	cache     cache.CacheService
	logger    *slog.Logger
	validator *utils.Validator
}

func NewAnswerService(
	repo repositories.Repository,
	cacheService cache.CacheService,
	logger *slog.Logger,
	validator *utils.Validator,
) AnswerService {
	return &answerService{
		repo:      repo,
		cache:     cacheService,
		logger:    logger,
		validator: validator,
	}
}

// RecordAnswer upserts one answer keyed by (session, question). Safe to call
// repeatedly with different payloads (a candidate changing their mind) and
// under concurrent duplicate submissions (client retry): the ledger converges
// to the last write, never a duplicate row.
func (s *answerService) RecordAnswer(ctx context.Context, sessionID uint, req *RecordAnswerRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	session, err := s.repo.Session().GetByID(ctx, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("failed to get session: %w", err)
	}

	// Status is checked here, not inside the upsert statement: an answer
	// racing a terminate may land just after the transition. That is
	// harmless; terminal sessions are never re-scored, so a trailing row
	// cannot change a persisted result.
	if session.Status != models.SessionInProgress {
		return NewStateError(sessionID, string(session.Status), "record_answer")
	}

	question, err := s.repo.Question().GetByID(ctx, req.QuestionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to get question: %w", err)
	}
	if question.TestID != session.TestID {
		return ErrQuestionNotFound
	}

	answer := &models.Answer{
		SessionID:        sessionID,
		QuestionID:       question.ID,
		SelectedIndex:    req.SelectedIndex,
		IsCorrect:        DeriveCorrectness(question, req.SelectedIndex),
		TimeTakenSeconds: req.TimeTakenSeconds,
		SubmittedAt:      time.Now().UTC(),
	}
	if err := s.repo.Answer().Upsert(ctx, answer); err != nil {
		return fmt.Errorf("failed to upsert answer: %w", err)
	}

	// Client-reported position is stored as telemetry only. It is never
	// consulted for scoring or resume eligibility: a replayed or forged
	// index must not move the authoritative position.
	if req.ClientIndex != nil {
		s.storeTelemetry(ctx, sessionID, *req.ClientIndex)
	}

	s.logger.Debug("Answer recorded",
		"session_id", sessionID,
		"question_id", question.ID)

	return nil
}

// ResumeState derives the resumable position purely from the answer ledger.
func (s *answerService) ResumeState(ctx context.Context, sessionID uint) (*ResumeState, error) {
	session, err := s.repo.Session().GetByID(ctx, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	answered, err := s.repo.Answer().CountBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to count answers: %w", err)
	}

	total, err := s.totalQuestions(ctx, session.TestID)
	if err != nil {
		return nil, err
	}

	return &ResumeState{
		SessionID:       sessionID,
		Status:          session.Status,
		AnsweredCount:   int(answered),
		TotalQuestions:  total,
		CurrentPosition: int(answered),
		CanResume:       session.Status == models.SessionInProgress && int(answered) < total,
	}, nil
}

// totalQuestions caches the per-test question count; a cold or failing cache
// degrades to the database count.
func (s *answerService) totalQuestions(ctx context.Context, testID uint) (int, error) {
	key := fmt.Sprintf("test:%d:question_count", testID)

	if s.cache != nil {
		var cached int
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	count, err := s.repo.Question().CountByTest(ctx, testID)
	if err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, int(count), questionCountTTL); err != nil {
			s.logger.Warn("Failed to cache question count", "test_id", testID, "error", err)
		}
	}
	return int(count), nil
}

func (s *answerService) storeTelemetry(ctx context.Context, sessionID uint, clientIndex int) {
	payload, err := json.Marshal(map[string]interface{}{
		"client_index": clientIndex,
		"reported_at":  time.Now().UTC(),
	})
	if err != nil {
		return
	}
	if err := s.repo.Session().UpdateTelemetry(ctx, sessionID, datatypes.JSON(payload)); err != nil {
		s.logger.Warn("Failed to store client telemetry",
			"session_id", sessionID,
			"error", err)
	}
}
