package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/assesshq/session-engine/internal/models"
)

// Repository aggregates the per-entity repositories behind one storage
// handle. Components receive it through their constructors; there is no
// global singleton handle.
type Repository interface {
	Link() LinkRepository
	Test() TestRepository
	Question() QuestionRepository
	Session() SessionRepository
	Answer() AnswerRepository
	Violation() ViolationRepository
}

// TransactionRepository scopes a Repository to one database transaction.
// Begin returns a transaction-bound view; Commit/Rollback release it.
type TransactionRepository interface {
	Repository
	Begin(ctx context.Context) (TransactionRepository, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// LinkRepository persists admission policies.
type LinkRepository interface {
	Create(ctx context.Context, link *models.AccessLink) error
	GetByID(ctx context.Context, id uint) (*models.AccessLink, error)
	GetByToken(ctx context.Context, token string) (*models.AccessLink, error)
	Deactivate(ctx context.Context, id uint) error

	// ConsumeUse increments used_count if and only if the link is active
	// and under its cap. Returns false when no row qualified; this is the
	// concurrency-safe capacity guard for admission.
	ConsumeUse(ctx context.Context, id uint) (bool, error)
}

type TestRepository interface {
	Create(ctx context.Context, test *models.Test) error
	GetByID(ctx context.Context, id uint) (*models.Test, error)
}

type QuestionRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	GetByTest(ctx context.Context, testID uint) ([]*models.Question, error)
	CountByTest(ctx context.Context, testID uint) (int64, error)
}

// SessionRepository persists sessions. Lifecycle transitions are guarded:
// each Transition* re-checks the current status in the same statement that
// writes the new one, so racing transitions resolve to exactly one winner.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id uint) (*models.Session, error)
	GetByIDWithDetails(ctx context.Context, id uint) (*models.Session, error)

	// ArchiveActive moves any in-progress session for the candidate+link
	// pair to archived, preserving it for audit.
	ArchiveActive(ctx context.Context, candidateEmail string, linkID uint) error

	// TransitionToCompleted succeeds only from in_progress; reports whether
	// this call performed the transition.
	TransitionToCompleted(ctx context.Context, id uint, completedAt time.Time, rawScore float64, riskScore *float64) (bool, error)

	// TransitionToTerminated succeeds only from in_progress.
	TransitionToTerminated(ctx context.Context, id uint, reason string, completedAt time.Time) (bool, error)

	// IncrementStrikes atomically increments strike_count while the session
	// is in progress, returning the post-increment count. Reports false when
	// the session is already terminal (count is then left untouched).
	IncrementStrikes(ctx context.Context, id uint) (int, bool, error)

	UpdateTelemetry(ctx context.Context, id uint, telemetry datatypes.JSON) error

	// ListCompletedByTest feeds the risk-score backfill.
	ListCompletedByTest(ctx context.Context, testID uint, limit, offset int) ([]*models.Session, error)
	ListByLink(ctx context.Context, linkID uint) ([]*models.Session, error)
	UpdateRiskScore(ctx context.Context, id uint, riskScore float64) error
}

// AnswerRepository is the answer ledger. Upsert is keyed by
// (session_id, question_id): concurrent duplicate submissions converge to
// last-write-wins with no duplicate rows.
type AnswerRepository interface {
	Upsert(ctx context.Context, answer *models.Answer) error
	GetBySession(ctx context.Context, sessionID uint) ([]*models.Answer, error)
	GetBySessionAndQuestion(ctx context.Context, sessionID, questionID uint) (*models.Answer, error)
	CountBySession(ctx context.Context, sessionID uint) (int64, error)
}

// ViolationRepository is append-only while the owning session is active.
type ViolationRepository interface {
	Append(ctx context.Context, event *models.ViolationEvent) error
	GetBySession(ctx context.Context, sessionID uint) ([]*models.ViolationEvent, error)
	CountBySession(ctx context.Context, sessionID uint) (int64, error)
}

// IsNotFoundError reports whether err is the storage layer's record-missing
// condition.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateError reports whether err is a unique-constraint violation.
func IsDuplicateError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
