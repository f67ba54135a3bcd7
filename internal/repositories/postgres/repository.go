package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/assesshq/session-engine/internal/repositories"
)

// Repository binds the per-entity repositories to one *gorm.DB handle.
// Begin returns a copy bound to a transaction, so every repository reached
// through the transactional view shares the same unit of work.
type Repository struct {
	db        *gorm.DB
	link      repositories.LinkRepository
	test      repositories.TestRepository
	question  repositories.QuestionRepository
	session   repositories.SessionRepository
	answer    repositories.AnswerRepository
	violation repositories.ViolationRepository
}

func NewRepository(db *gorm.DB) repositories.TransactionRepository {
	return &Repository{
		db:        db,
		link:      NewLinkPostgreSQL(db),
		test:      NewTestPostgreSQL(db),
		question:  NewQuestionPostgreSQL(db),
		session:   NewSessionPostgreSQL(db),
		answer:    NewAnswerPostgreSQL(db),
		violation: NewViolationPostgreSQL(db),
	}
}

func (r *Repository) Link() repositories.LinkRepository           { return r.link }
func (r *Repository) Test() repositories.TestRepository           { return r.test }
func (r *Repository) Question() repositories.QuestionRepository   { return r.question }
func (r *Repository) Session() repositories.SessionRepository     { return r.session }
func (r *Repository) Answer() repositories.AnswerRepository       { return r.answer }
func (r *Repository) Violation() repositories.ViolationRepository { return r.violation }

func (r *Repository) Begin(ctx context.Context) (repositories.TransactionRepository, error) {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return NewRepository(tx), nil
}

func (r *Repository) Commit(_ context.Context) error {
	return r.db.Commit().Error
}

func (r *Repository) Rollback(_ context.Context) error {
	return r.db.Rollback().Error
}
