package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/assesshq/session-engine/internal/models"
	"github.com/assesshq/session-engine/internal/repositories"
)

type ViolationPostgreSQL struct {
	db *gorm.DB
}

func NewViolationPostgreSQL(db *gorm.DB) repositories.ViolationRepository {
	return &ViolationPostgreSQL{db: db}
}

func (v ViolationPostgreSQL) Append(ctx context.Context, event *models.ViolationEvent) error {
	return v.db.WithContext(ctx).Create(event).Error
}

func (v ViolationPostgreSQL) GetBySession(ctx context.Context, sessionID uint) ([]*models.ViolationEvent, error) {
	var events []*models.ViolationEvent
	if err := v.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (v ViolationPostgreSQL) CountBySession(ctx context.Context, sessionID uint) (int64, error) {
	var count int64
	err := v.db.WithContext(ctx).
		Model(&models.ViolationEvent{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error
	return count, err
}
