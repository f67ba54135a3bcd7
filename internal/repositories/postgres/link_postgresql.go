package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/assesshq/session-engine/internal/models"
	"github.com/assesshq/session-engine/internal/repositories"
)

type LinkPostgreSQL struct {
	db *gorm.DB
}

func NewLinkPostgreSQL(db *gorm.DB) repositories.LinkRepository {
	return &LinkPostgreSQL{db: db}
}

func (l LinkPostgreSQL) Create(ctx context.Context, link *models.AccessLink) error {
	return l.db.WithContext(ctx).Create(link).Error
}

func (l LinkPostgreSQL) GetByID(ctx context.Context, id uint) (*models.AccessLink, error) {
	var link models.AccessLink
	if err := l.db.WithContext(ctx).
		Preload("TimeWindow").
		First(&link, id).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

func (l LinkPostgreSQL) GetByToken(ctx context.Context, token string) (*models.AccessLink, error) {
	var link models.AccessLink
	if err := l.db.WithContext(ctx).
		Preload("TimeWindow").
		Preload("Test").
		Where("token = ?", token).
		First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

func (l LinkPostgreSQL) Deactivate(ctx context.Context, id uint) error {
	return l.db.WithContext(ctx).
		Model(&models.AccessLink{}).
		Where("id = ?", id).
		Update("active", false).Error
}

// ConsumeUse performs the conditional increment that makes admission and
// capacity consumption a single atomic unit. Two concurrent starts against
// a link with one use left race on this statement; exactly one row update
// succeeds.
func (l LinkPostgreSQL) ConsumeUse(ctx context.Context, id uint) (bool, error) {
	res := l.db.WithContext(ctx).
		Model(&models.AccessLink{}).
		Where("id = ? AND active = true AND (max_uses IS NULL OR used_count < max_uses)", id).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
