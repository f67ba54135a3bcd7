package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/assesshq/session-engine/internal/models"
	"github.com/assesshq/session-engine/internal/repositories"
	"github.com/assesshq/session-engine/internal/utils"
)

type linkService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *utils.Validator
}

func NewLinkService(repo repositories.Repository, logger *slog.Logger, validator *utils.Validator) LinkService {
	return &linkService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

func (s *linkService) Create(ctx context.Context, req *CreateLinkRequest) (*models.AccessLink, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	if _, err := s.repo.Test().GetByID(ctx, req.TestID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	link := &models.AccessLink{
		Token:        strings.ReplaceAll(uuid.NewString(), "-", ""),
		TestID:       req.TestID,
		Active:       true,
		ExpiresAt:    req.ExpiresAt,
		MaxUses:      req.MaxUses,
		TimeWindowID: req.TimeWindowID,
	}
	if err := s.repo.Link().Create(ctx, link); err != nil {
		return nil, fmt.Errorf("failed to create access link: %w", err)
	}

	s.logger.Info("Access link created",
		"link_id", link.ID,
		"test_id", req.TestID)

	return link, nil
}

// Deactivate turns the link off without touching the sessions it admitted.
// Links are never deleted while sessions reference them.
func (s *linkService) Deactivate(ctx context.Context, id uint) error {
	if _, err := s.repo.Link().GetByID(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrLinkNotFound
		}
		return fmt.Errorf("failed to get access link: %w", err)
	}

	if err := s.repo.Link().Deactivate(ctx, id); err != nil {
		return fmt.Errorf("failed to deactivate access link: %w", err)
	}

	s.logger.Info("Access link deactivated", "link_id", id)
	return nil
}

// Sessions lists every session the link admitted, newest first. Archived
// and terminal sessions are included; the list is the link's attempt
// history, not its active set.
func (s *linkService) Sessions(ctx context.Context, id uint) ([]*models.Session, error) {
	if _, err := s.repo.Link().GetByID(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get access link: %w", err)
	}
	return s.repo.Session().ListByLink(ctx, id)
}
