package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/assesshq/session-engine/internal/models"
	"github.com/assesshq/session-engine/internal/repositories"
)

type AnswerPostgreSQL struct {
	db *gorm.DB
}

func NewAnswerPostgreSQL(db *gorm.DB) repositories.AnswerRepository {
	return &AnswerPostgreSQL{db: db}
}

// Upsert converges concurrent writes for the same (session, question) key on
// last-write-wins. The conflict clause keeps the whole operation in one
// statement, so duplicate retries can never produce a duplicate row.
func (a AnswerPostgreSQL) Upsert(ctx context.Context, answer *models.Answer) error {
	return a.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "session_id"}, {Name: "question_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"selected_index", "is_correct", "time_taken_seconds", "submitted_at", "updated_at",
			}),
		}).
		Create(answer).Error
}

func (a AnswerPostgreSQL) GetBySession(ctx context.Context, sessionID uint) ([]*models.Answer, error) {
	var answers []*models.Answer
	if err := a.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("question_id").
		Find(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

func (a AnswerPostgreSQL) GetBySessionAndQuestion(ctx context.Context, sessionID, questionID uint) (*models.Answer, error) {
	var answer models.Answer
	if err := a.db.WithContext(ctx).
		Where("session_id = ? AND question_id = ?", sessionID, questionID).
		First(&answer).Error; err != nil {
		return nil, err
	}
	return &answer, nil
}

func (a AnswerPostgreSQL) CountBySession(ctx context.Context, sessionID uint) (int64, error) {
	var count int64
	err := a.db.WithContext(ctx).
		Model(&models.Answer{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error
	return count, err
}
