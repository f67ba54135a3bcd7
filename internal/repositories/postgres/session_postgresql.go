package postgres

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/assesshq/session-engine/internal/models"
	"github.com/assesshq/session-engine/internal/repositories"
)

type SessionPostgreSQL struct {
	db *gorm.DB
}

func NewSessionPostgreSQL(db *gorm.DB) repositories.SessionRepository {
	return &SessionPostgreSQL{db: db}
}

func (s SessionPostgreSQL) Create(ctx context.Context, session *models.Session) error {
	return s.db.WithContext(ctx).Create(session).Error
}

func (s SessionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Session, error) {
	var session models.Session
	if err := s.db.WithContext(ctx).First(&session, id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (s SessionPostgreSQL) GetByIDWithDetails(ctx context.Context, id uint) (*models.Session, error) {
	var session models.Session
	if err := s.db.WithContext(ctx).
		Preload("Test").
		Preload("Answers").
		Preload("Violations").
		First(&session, id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (s SessionPostgreSQL) ArchiveActive(ctx context.Context, candidateEmail string, linkID uint) error {
	return s.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("candidate_email = ? AND access_link_id = ? AND status = ?",
			candidateEmail, linkID, models.SessionInProgress).
		Update("status", models.SessionArchived).Error
}

func (s SessionPostgreSQL) TransitionToCompleted(ctx context.Context, id uint, completedAt time.Time, rawScore float64, riskScore *float64) (bool, error) {
	updates := map[string]interface{}{
		"status":       models.SessionCompleted,
		"completed_at": completedAt,
		"raw_score":    rawScore,
	}
	if riskScore != nil {
		updates["risk_score"] = *riskScore
	}

	res := s.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ? AND status = ?", id, models.SessionInProgress).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s SessionPostgreSQL) TransitionToTerminated(ctx context.Context, id uint, reason string, completedAt time.Time) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ? AND status = ?", id, models.SessionInProgress).
		Updates(map[string]interface{}{
			"status":             models.SessionTerminated,
			"termination_reason": reason,
			"completed_at":       completedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// IncrementStrikes combines read-increment into one statement so two
// concurrent violation reports both count and each sees its own
// post-increment value.
func (s SessionPostgreSQL) IncrementStrikes(ctx context.Context, id uint) (int, bool, error) {
	var count int
	res := s.db.WithContext(ctx).Raw(
		`UPDATE sessions
		 SET strike_count = strike_count + 1, updated_at = ?
		 WHERE id = ? AND status = ?
		 RETURNING strike_count`,
		time.Now().UTC(), id, models.SessionInProgress,
	).Scan(&count)
	if res.Error != nil {
		return 0, false, res.Error
	}
	return count, res.RowsAffected == 1, nil
}

func (s SessionPostgreSQL) UpdateTelemetry(ctx context.Context, id uint, telemetry datatypes.JSON) error {
	return s.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ?", id).
		Update("telemetry", telemetry).Error
}

func (s SessionPostgreSQL) ListCompletedByTest(ctx context.Context, testID uint, limit, offset int) ([]*models.Session, error) {
	var sessions []*models.Session
	query := s.db.WithContext(ctx).
		Where("test_id = ? AND status IN ?", testID,
			[]models.SessionStatus{models.SessionCompleted, models.SessionTerminated}).
		Order("id")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s SessionPostgreSQL) ListByLink(ctx context.Context, linkID uint) ([]*models.Session, error) {
	var sessions []*models.Session
	if err := s.db.WithContext(ctx).
		Where("access_link_id = ?", linkID).
		Order("started_at DESC").
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s SessionPostgreSQL) UpdateRiskScore(ctx context.Context, id uint, riskScore float64) error {
	return s.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ?", id).
		Update("risk_score", riskScore).Error
}
