package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/assesshq/session-engine/internal/events"
	"github.com/assesshq/session-engine/internal/models"
	"github.com/assesshq/session-engine/internal/repositories"
	"github.com/assesshq/session-engine/internal/utils"
)

// startAttempts bounds the retry loop for the archive-then-create race on
// the active-session unique index.
const startAttempts = 3

type sessionService struct {
	repo      repositories.TransactionRepository
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *utils.Validator
}

func NewSessionService(
	repo repositories.TransactionRepository,
	publisher events.EventPublisher,
	logger *slog.Logger,
	validator *utils.Validator,
) SessionService {
	return &sessionService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

// ===== START =====

// Start admits the candidate, archives any prior in-progress session for the
// same candidate+link, consumes link capacity, and creates the new session,
// all inside one transaction. Concurrent starts against a near-capacity link
// race on the conditional usage increment, so over-admission cannot happen.
func (s *sessionService) Start(ctx context.Context, req *StartSessionRequest) (*StartSessionResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	link, err := s.repo.Link().GetByToken(ctx, req.LinkToken)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get access link: %w", err)
	}

	now := time.Now().UTC()
	if err := EvaluateAdmission(link, now); err != nil {
		s.logger.Info("Admission denied",
			"link_id", link.ID,
			"candidate_email", req.CandidateEmail,
			"reason", err.Error())
		return nil, err
	}

	test, err := s.repo.Test().GetByID(ctx, link.TestID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	totalQuestions, err := s.repo.Question().CountByTest(ctx, test.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count questions: %w", err)
	}

	var session *models.Session
	for attempt := 1; ; attempt++ {
		session, err = s.createSession(ctx, req, link, test, now)
		if err == nil {
			break
		}
		if !repositories.IsDuplicateError(err) {
			return nil, err
		}
		// The active-session unique index rejected the insert: a concurrent
		// start for the same candidate+link committed its in_progress row
		// after our archive ran. Retrying archives that row, so the later
		// start survives.
		if attempt >= startAttempts {
			return nil, fmt.Errorf("%w: concurrent session starts for candidate", ErrConflict)
		}
	}

	s.logger.Info("Session started",
		"session_id", session.ID,
		"test_id", test.ID,
		"link_id", link.ID,
		"candidate_email", req.CandidateEmail)

	return &StartSessionResponse{
		SessionID:         session.ID,
		TestID:            test.ID,
		TotalQuestions:    int(totalQuestions),
		DurationMinutes:   test.Duration,
		ProctoringEnabled: test.ProctoringEnabled,
	}, nil
}

// createSession runs archive+consume+create as one transaction. A duplicate
// error from Create is returned unwrapped so the caller's retry loop can
// recognize it.
func (s *sessionService) createSession(
	ctx context.Context,
	req *StartSessionRequest,
	link *models.AccessLink,
	test *models.Test,
	now time.Time,
) (*models.Session, error) {
	txRepo, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			txRepo.Rollback(ctx)
		}
	}()

	// A later start supersedes, never mutates, the previous attempt.
	if err = txRepo.Session().ArchiveActive(ctx, req.CandidateEmail, link.ID); err != nil {
		return nil, fmt.Errorf("failed to archive prior session: %w", err)
	}

	admitted, err := txRepo.Link().ConsumeUse(ctx, link.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to consume link use: %w", err)
	}
	if !admitted {
		err = ErrLinkCapacityReached
		return nil, err
	}

	linkID := link.ID
	session := &models.Session{
		TestID:             test.ID,
		AccessLinkID:       &linkID,
		CandidateName:      req.CandidateName,
		CandidateEmail:     req.CandidateEmail,
		Status:             models.SessionInProgress,
		StartedAt:          now,
		ProctoringEnabled:  test.ProctoringEnabled,
		PermissionsGranted: req.PermissionsGranted,
		MaxStrikesAllowed:  test.MaxStrikesAllowed,
	}
	if err = txRepo.Session().Create(ctx, session); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if err = txRepo.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return session, nil
}

// ===== COMPLETE =====

// Complete persists trailing answers, computes the raw score from the full
// answer ledger (never from client totals), computes the risk score if
// proctoring was on, and performs the guarded transition. Retrying against
// an already-terminal session is a no-op that returns the stored result.
func (s *sessionService) Complete(ctx context.Context, sessionID uint, req *CompleteSessionRequest) (*CompletionResult, error) {
	session, err := s.repo.Session().GetByID(ctx, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if session.Status.IsTerminal() {
		return s.completionResult(session), nil
	}

	if req != nil {
		for i := range req.Answers {
			answer, derr := s.buildAnswer(ctx, session, &req.Answers[i])
			if derr != nil {
				return nil, derr
			}
			if derr = s.repo.Answer().Upsert(ctx, answer); derr != nil {
				return nil, fmt.Errorf("failed to persist trailing answer for question %d: %w",
					req.Answers[i].QuestionID, derr)
			}
		}
	}

	rawScore, err := s.computeRawScore(ctx, session)
	if err != nil {
		return nil, err
	}

	var riskScore *float64
	if session.ProctoringEnabled {
		violations, verr := s.repo.Violation().GetBySession(ctx, sessionID)
		if verr != nil {
			return nil, fmt.Errorf("failed to load violation log: %w", verr)
		}
		score := ComputeRiskScore(violations)
		riskScore = &score
	}

	completedAt := time.Now().UTC()
	transitioned, err := s.repo.Session().TransitionToCompleted(ctx, sessionID, completedAt, rawScore, riskScore)
	if err != nil {
		return nil, fmt.Errorf("failed to complete session: %w", err)
	}
	if !transitioned {
		// Lost the race against a concurrent complete/terminate. The stored
		// terminal state wins.
		current, rerr := s.repo.Session().GetByID(ctx, sessionID)
		if rerr != nil {
			return nil, fmt.Errorf("failed to re-read session: %w", rerr)
		}
		return s.completionResult(current), nil
	}

	s.logger.Info("Session completed",
		"session_id", sessionID,
		"raw_score", rawScore,
		"proctoring_enabled", session.ProctoringEnabled)

	s.publish(ctx, events.NewSessionEvent(events.EventSessionCompleted, events.SessionCompletedEvent{
		SessionID:      sessionID,
		TestID:         session.TestID,
		CandidateEmail: session.CandidateEmail,
		RawScore:       rawScore,
		RiskScore:      riskScore,
		CompletedAt:    &completedAt,
	}))

	return &CompletionResult{
		SessionID:   sessionID,
		Status:      models.SessionCompleted,
		RawScore:    rawScore,
		RiskScore:   riskScore,
		CompletedAt: &completedAt,
	}, nil
}

// ===== TERMINATE =====

// Terminate forces the session into its terminal failed state. Valid only
// from in_progress; a retry against an already-terminal session is a no-op,
// so the violation tracker's threshold trigger fires effects exactly once.
func (s *sessionService) Terminate(ctx context.Context, sessionID uint, reason string) error {
	session, err := s.repo.Session().GetByID(ctx, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("failed to get session: %w", err)
	}

	completedAt := time.Now().UTC()
	transitioned, err := s.repo.Session().TransitionToTerminated(ctx, sessionID, reason, completedAt)
	if err != nil {
		return fmt.Errorf("failed to terminate session: %w", err)
	}
	if !transitioned {
		return nil
	}

	s.logger.Warn("Session terminated",
		"session_id", sessionID,
		"reason", reason,
		"strike_count", session.StrikeCount)

	s.publish(ctx, events.NewSessionEvent(events.EventSessionTerminated, events.SessionTerminatedEvent{
		SessionID:      sessionID,
		TestID:         session.TestID,
		CandidateEmail: session.CandidateEmail,
		Reason:         reason,
		StrikeCount:    session.StrikeCount,
	}))

	return nil
}

// ===== HELPERS =====

func (s *sessionService) completionResult(session *models.Session) *CompletionResult {
	return &CompletionResult{
		SessionID:   session.ID,
		Status:      session.Status,
		RawScore:    session.RawScore,
		RiskScore:   session.RiskScore,
		CompletedAt: session.CompletedAt,
	}
}

// buildAnswer derives correctness from the question's canonical answer at
// write time, same as the answer ledger's own path.
func (s *sessionService) buildAnswer(ctx context.Context, session *models.Session, req *RecordAnswerRequest) (*models.Answer, error) {
	question, err := s.repo.Question().GetByID(ctx, req.QuestionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return &models.Answer{
		SessionID:        session.ID,
		QuestionID:       question.ID,
		SelectedIndex:    req.SelectedIndex,
		IsCorrect:        DeriveCorrectness(question, req.SelectedIndex),
		TimeTakenSeconds: req.TimeTakenSeconds,
		SubmittedAt:      time.Now().UTC(),
	}, nil
}

// computeRawScore sums the points of correctly answered questions from the
// ledger. Correctness was denormalized at write time, so no re-join to
// question content is needed for the verdicts, only for the point values.
func (s *sessionService) computeRawScore(ctx context.Context, session *models.Session) (float64, error) {
	answers, err := s.repo.Answer().GetBySession(ctx, session.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to load answer ledger: %w", err)
	}

	questions, err := s.repo.Question().GetByTest(ctx, session.TestID)
	if err != nil {
		return 0, fmt.Errorf("failed to load questions: %w", err)
	}
	points := make(map[uint]int, len(questions))
	for _, q := range questions {
		points[q.ID] = q.Points
	}

	score := 0.0
	for _, a := range answers {
		if a.IsCorrect != nil && *a.IsCorrect {
			score += float64(points[a.QuestionID])
		}
	}
	return score, nil
}

func (s *sessionService) publish(ctx context.Context, event *events.SessionEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSessionEvent(ctx, event); err != nil {
		// Event delivery is best-effort; the session's own state is already
		// durable.
		s.logger.Error("Failed to publish session event",
			"event_type", event.Type,
			"error", err)
	}
}

// DeriveCorrectness compares a selection against the question's canonical
// answer. Nil when the question has none.
func DeriveCorrectness(question *models.Question, selectedIndex int) *bool {
	if question.CorrectOption == nil {
		return nil
	}
	correct := selectedIndex == *question.CorrectOption
	return &correct
}
