package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/assesshq/session-engine/internal/events"
	"github.com/assesshq/session-engine/internal/models"
	"github.com/assesshq/session-engine/internal/utils"
)

func newViolationFixture() (*MockRepository, *events.MockEventPublisher, ViolationService) {
	repo := newMockRepository()
	logger := testLogger()
	publisher := events.NewMockEventPublisher(logger)
	validator := utils.NewValidator()
	sessions := NewSessionService(repo, publisher, logger, validator)
	return repo, publisher, NewViolationService(repo, sessions, logger, validator)
}

func activeSession(id uint, strikes, maxStrikes int) *models.Session {
	return &models.Session{
		ID:                id,
		TestID:            1,
		CandidateEmail:    "candidate@example.com",
		Status:            models.SessionInProgress,
		ProctoringEnabled: true,
		StrikeCount:       strikes,
		MaxStrikesAllowed: maxStrikes,
	}
}

func TestReportViolation_StrikeEscalation(t *testing.T) {
	tests := []struct {
		name          string
		countAfter    int
		maxStrikes    int
		expectedLevel models.StrikeLevel
		terminates    bool
	}{
		{
			name:          "first strike warns",
			countAfter:    1,
			maxStrikes:    2,
			expectedLevel: models.StrikeLevelFirst,
			terminates:    false,
		},
		{
			name:          "second strike warns harder",
			countAfter:    2,
			maxStrikes:    2,
			expectedLevel: models.StrikeLevelSecond,
			terminates:    false,
		},
		{
			name:          "strike over the maximum terminates",
			countAfter:    3,
			maxStrikes:    2,
			expectedLevel: models.StrikeLevelTerminated,
			terminates:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, publisher, svc := newViolationFixture()
			session := activeSession(10, tt.countAfter-1, tt.maxStrikes)

			repo.sessionRepo.On("GetByID", mock.Anything, uint(10)).Return(session, nil)
			repo.violationRepo.On("Append", mock.Anything, mock.MatchedBy(func(e *models.ViolationEvent) bool {
				return e.SessionID == 10 && e.Type == models.ViolationCopy
			})).Return(nil)
			repo.sessionRepo.On("IncrementStrikes", mock.Anything, uint(10)).Return(tt.countAfter, true, nil)
			if tt.terminates {
				repo.sessionRepo.On("TransitionToTerminated", mock.Anything, uint(10),
					models.TerminationExcessiveViolations, mock.Anything).Return(true, nil)
			}

			report, err := svc.ReportViolation(context.Background(), 10, &ReportViolationRequest{
				Type: models.ViolationCopy,
			})
			require.NoError(t, err)

			assert.Equal(t, tt.countAfter, report.StrikeCount)
			assert.Equal(t, tt.expectedLevel, report.Level)
			assert.Equal(t, tt.terminates, report.Terminated)
			if tt.terminates {
				require.Len(t, publisher.Events, 1)
				assert.Equal(t, events.EventSessionTerminated, publisher.Events[0].Type)
			} else {
				assert.Empty(t, publisher.Events)
			}

			repo.sessionRepo.AssertExpectations(t)
			repo.violationRepo.AssertExpectations(t)
		})
	}
}

func TestReportViolation_NonStrikeWorthyOnlyLogs(t *testing.T) {
	repo, _, svc := newViolationFixture()
	session := activeSession(11, 1, 2)

	repo.sessionRepo.On("GetByID", mock.Anything, uint(11)).Return(session, nil)
	repo.violationRepo.On("Append", mock.Anything, mock.MatchedBy(func(e *models.ViolationEvent) bool {
		return e.Type == models.ViolationTabHidden
	})).Return(nil)

	report, err := svc.ReportViolation(context.Background(), 11, &ReportViolationRequest{
		Type: models.ViolationTabHidden,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.StrikeCount)
	assert.Equal(t, models.StrikeLevelFirst, report.Level)
	assert.False(t, report.Terminated)

	// The counter must not have been touched.
	repo.sessionRepo.AssertNotCalled(t, "IncrementStrikes", mock.Anything, mock.Anything)
	repo.violationRepo.AssertExpectations(t)
}

func TestReportViolation_TerminalSessionKeepsLogging(t *testing.T) {
	repo, _, svc := newViolationFixture()
	session := activeSession(12, 3, 2)
	session.Status = models.SessionTerminated

	repo.sessionRepo.On("GetByID", mock.Anything, uint(12)).Return(session, nil)
	repo.violationRepo.On("Append", mock.Anything, mock.Anything).Return(nil)

	report, err := svc.ReportViolation(context.Background(), 12, &ReportViolationRequest{
		Type: models.ViolationCopy,
	})
	require.NoError(t, err)

	assert.Equal(t, models.StrikeLevelTerminated, report.Level)
	assert.True(t, report.Terminated)

	// Post-termination reports never re-escalate.
	repo.sessionRepo.AssertNotCalled(t, "IncrementStrikes", mock.Anything, mock.Anything)
	repo.sessionRepo.AssertNotCalled(t, "TransitionToTerminated",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReportViolation_LostIncrementRace(t *testing.T) {
	repo, _, svc := newViolationFixture()
	session := activeSession(13, 2, 2)

	terminal := activeSession(13, 3, 2)
	terminal.Status = models.SessionTerminated

	repo.sessionRepo.On("GetByID", mock.Anything, uint(13)).Return(session, nil).Once()
	repo.violationRepo.On("Append", mock.Anything, mock.Anything).Return(nil)
	// The session turned terminal between the load and the increment.
	repo.sessionRepo.On("IncrementStrikes", mock.Anything, uint(13)).Return(0, false, nil)
	repo.sessionRepo.On("GetByID", mock.Anything, uint(13)).Return(terminal, nil).Once()

	report, err := svc.ReportViolation(context.Background(), 13, &ReportViolationRequest{
		Type: models.ViolationPaste,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, report.StrikeCount)
	assert.Equal(t, models.StrikeLevelTerminated, report.Level)
	assert.True(t, report.Terminated)
	repo.sessionRepo.AssertNotCalled(t, "TransitionToTerminated",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReportViolation_UnknownType(t *testing.T) {
	_, _, svc := newViolationFixture()

	_, err := svc.ReportViolation(context.Background(), 14, &ReportViolationRequest{
		Type: "telepathy",
	})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}
