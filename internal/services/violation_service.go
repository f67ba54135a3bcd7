package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/datatypes"

	"github.com/assesshq/session-engine/internal/models"
	"github.com/assesshq/session-engine/internal/repositories"
	"github.com/assesshq/session-engine/internal/utils"
)

type violationService struct {
	repo      repositories.Repository
	sessions  SessionService
	logger    *slog.Logger
	validator *utils.Validator
}

func NewViolationService(
	repo repositories.Repository,
	sessions SessionService,
	logger *slog.Logger,
	validator *utils.Validator,
) ViolationService {
	return &violationService{
		repo:      repo,
		sessions:  sessions,
		logger:    logger,
		validator: validator,
	}
}

// ReportViolation appends the event unconditionally (the full log feeds the
// risk scorer, even for non-strike-worthy signals), escalates strike-worthy
// types through the atomic counter, and forces termination once the count
// crosses the allowed maximum. The increment and the guarded transition
// together make the threshold trigger race-safe: two simultaneous reports
// both count, and exactly one of them performs the termination.
func (s *violationService) ReportViolation(ctx context.Context, sessionID uint, req *ReportViolationRequest) (*ViolationReport, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	if !req.Type.IsValid() {
		return nil, ErrInvalidViolationType
	}

	session, err := s.repo.Session().GetByID(ctx, sessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	event := &models.ViolationEvent{
		SessionID: sessionID,
		Type:      req.Type,
	}
	if len(req.Detail) > 0 {
		event.Detail = datatypes.JSON(req.Detail)
	}
	if err := s.repo.Violation().Append(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to append violation event: %w", err)
	}

	// Terminal sessions keep logging but never re-escalate.
	if session.Status.IsTerminal() || !req.Type.IsStrikeWorthy() {
		return s.report(session.StrikeCount, session.MaxStrikesAllowed, session.Status), nil
	}

	count, incremented, err := s.repo.Session().IncrementStrikes(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to increment strikes: %w", err)
	}
	if !incremented {
		// The session turned terminal under us; re-read for the final count.
		current, rerr := s.repo.Session().GetByID(ctx, sessionID)
		if rerr != nil {
			return nil, fmt.Errorf("failed to re-read session: %w", rerr)
		}
		return s.report(current.StrikeCount, current.MaxStrikesAllowed, current.Status), nil
	}

	s.logger.Info("Strike recorded",
		"session_id", sessionID,
		"violation_type", req.Type,
		"strike_count", count,
		"max_strikes", session.MaxStrikesAllowed)

	terminated := false
	if count > session.MaxStrikesAllowed {
		// Terminate is guarded by the in_progress status, so if two reports
		// cross the threshold together only one performs the transition.
		if err := s.sessions.Terminate(ctx, sessionID, models.TerminationExcessiveViolations); err != nil {
			return nil, fmt.Errorf("failed to terminate session: %w", err)
		}
		terminated = true
	}

	rep := s.report(count, session.MaxStrikesAllowed, session.Status)
	rep.Terminated = terminated
	if terminated {
		rep.Level = models.StrikeLevelTerminated
	}
	return rep, nil
}

func (s *violationService) report(count, maxAllowed int, status models.SessionStatus) *ViolationReport {
	level := models.StrikeLevelFor(count, maxAllowed)
	if status == models.SessionTerminated {
		level = models.StrikeLevelTerminated
	}
	return &ViolationReport{
		StrikeCount:       count,
		MaxStrikesAllowed: maxAllowed,
		Level:             level,
		Terminated:        status == models.SessionTerminated,
	}
}
