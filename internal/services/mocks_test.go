package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/stretchr/testify/mock"
	"gorm.io/datatypes"

	"github.com/assesshq/session-engine/internal/models"
	"github.com/assesshq/session-engine/internal/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockLinkRepository is a mock implementation of LinkRepository
type MockLinkRepository struct {
	mock.Mock
}

func (m *MockLinkRepository) Create(ctx context.Context, link *models.AccessLink) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

func (m *MockLinkRepository) GetByID(ctx context.Context, id uint) (*models.AccessLink, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AccessLink), args.Error(1)
}

func (m *MockLinkRepository) GetByToken(ctx context.Context, token string) (*models.AccessLink, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AccessLink), args.Error(1)
}

func (m *MockLinkRepository) Deactivate(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockLinkRepository) ConsumeUse(ctx context.Context, id uint) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockTestRepository is a mock implementation of TestRepository
type MockTestRepository struct {
	mock.Mock
}

func (m *MockTestRepository) Create(ctx context.Context, test *models.Test) error {
	args := m.Called(ctx, test)
	return args.Error(0)
}

func (m *MockTestRepository) GetByID(ctx context.Context, id uint) (*models.Test, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Test), args.Error(1)
}

// MockQuestionRepository is a mock implementation of QuestionRepository
type MockQuestionRepository struct {
	mock.Mock
}

func (m *MockQuestionRepository) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Question), args.Error(1)
}

func (m *MockQuestionRepository) GetByTest(ctx context.Context, testID uint) ([]*models.Question, error) {
	args := m.Called(ctx, testID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Question), args.Error(1)
}

func (m *MockQuestionRepository) CountByTest(ctx context.Context, testID uint) (int64, error) {
	args := m.Called(ctx, testID)
	return args.Get(0).(int64), args.Error(1)
}

// MockSessionRepository is a mock implementation of SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, session *models.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) GetByID(ctx context.Context, id uint) (*models.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionRepository) GetByIDWithDetails(ctx context.Context, id uint) (*models.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionRepository) ArchiveActive(ctx context.Context, candidateEmail string, linkID uint) error {
	args := m.Called(ctx, candidateEmail, linkID)
	return args.Error(0)
}

func (m *MockSessionRepository) TransitionToCompleted(ctx context.Context, id uint, completedAt time.Time, rawScore float64, riskScore *float64) (bool, error) {
	args := m.Called(ctx, id, completedAt, rawScore, riskScore)
	return args.Bool(0), args.Error(1)
}

func (m *MockSessionRepository) TransitionToTerminated(ctx context.Context, id uint, reason string, completedAt time.Time) (bool, error) {
	args := m.Called(ctx, id, reason, completedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockSessionRepository) IncrementStrikes(ctx context.Context, id uint) (int, bool, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Bool(1), args.Error(2)
}

func (m *MockSessionRepository) UpdateTelemetry(ctx context.Context, id uint, telemetry datatypes.JSON) error {
	args := m.Called(ctx, id, telemetry)
	return args.Error(0)
}

func (m *MockSessionRepository) ListCompletedByTest(ctx context.Context, testID uint, limit, offset int) ([]*models.Session, error) {
	args := m.Called(ctx, testID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Session), args.Error(1)
}

func (m *MockSessionRepository) ListByLink(ctx context.Context, linkID uint) ([]*models.Session, error) {
	args := m.Called(ctx, linkID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Session), args.Error(1)
}

func (m *MockSessionRepository) UpdateRiskScore(ctx context.Context, id uint, riskScore float64) error {
	args := m.Called(ctx, id, riskScore)
	return args.Error(0)
}

// MockAnswerRepository is a mock implementation of AnswerRepository
type MockAnswerRepository struct {
	mock.Mock
}

func (m *MockAnswerRepository) Upsert(ctx context.Context, answer *models.Answer) error {
	args := m.Called(ctx, answer)
	return args.Error(0)
}

func (m *MockAnswerRepository) GetBySession(ctx context.Context, sessionID uint) ([]*models.Answer, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Answer), args.Error(1)
}

func (m *MockAnswerRepository) GetBySessionAndQuestion(ctx context.Context, sessionID, questionID uint) (*models.Answer, error) {
	args := m.Called(ctx, sessionID, questionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Answer), args.Error(1)
}

func (m *MockAnswerRepository) CountBySession(ctx context.Context, sessionID uint) (int64, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(int64), args.Error(1)
}

// MockViolationRepository is a mock implementation of ViolationRepository
type MockViolationRepository struct {
	mock.Mock
}

func (m *MockViolationRepository) Append(ctx context.Context, event *models.ViolationEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockViolationRepository) GetBySession(ctx context.Context, sessionID uint) ([]*models.ViolationEvent, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ViolationEvent), args.Error(1)
}

func (m *MockViolationRepository) CountBySession(ctx context.Context, sessionID uint) (int64, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(int64), args.Error(1)
}

// MockRepository aggregates the entity mocks behind the Repository interface.
// Begin returns the same instance so transactional paths hit the same
// expectations; Commit/Rollback are recorded for assertions.
type MockRepository struct {
	linkRepo      *MockLinkRepository
	testRepo      *MockTestRepository
	questionRepo  *MockQuestionRepository
	sessionRepo   *MockSessionRepository
	answerRepo    *MockAnswerRepository
	violationRepo *MockViolationRepository

	Committed  bool
	RolledBack bool
}

func newMockRepository() *MockRepository {
	return &MockRepository{
		linkRepo:      &MockLinkRepository{},
		testRepo:      &MockTestRepository{},
		questionRepo:  &MockQuestionRepository{},
		sessionRepo:   &MockSessionRepository{},
		answerRepo:    &MockAnswerRepository{},
		violationRepo: &MockViolationRepository{},
	}
}

func (m *MockRepository) Link() repositories.LinkRepository           { return m.linkRepo }
func (m *MockRepository) Test() repositories.TestRepository           { return m.testRepo }
func (m *MockRepository) Question() repositories.QuestionRepository   { return m.questionRepo }
func (m *MockRepository) Session() repositories.SessionRepository     { return m.sessionRepo }
func (m *MockRepository) Answer() repositories.AnswerRepository       { return m.answerRepo }
func (m *MockRepository) Violation() repositories.ViolationRepository { return m.violationRepo }

func (m *MockRepository) Begin(ctx context.Context) (repositories.TransactionRepository, error) {
	return m, nil
}

func (m *MockRepository) Commit(ctx context.Context) error {
	m.Committed = true
	return nil
}

func (m *MockRepository) Rollback(ctx context.Context) error {
	m.RolledBack = true
	return nil
}
