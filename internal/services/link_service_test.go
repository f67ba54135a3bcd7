package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/assesshq/session-engine/internal/models"
	"github.com/assesshq/session-engine/internal/utils"
)

func newLinkFixture() (*MockRepository, LinkService) {
	repo := newMockRepository()
	return repo, NewLinkService(repo, testLogger(), utils.NewValidator())
}

func TestLinkService_Create(t *testing.T) {
	repo, svc := newLinkFixture()

	repo.testRepo.On("GetByID", mock.Anything, uint(7)).Return(proctoredTest(7), nil)
	repo.linkRepo.On("Create", mock.Anything, mock.MatchedBy(func(l *models.AccessLink) bool {
		return l.TestID == 7 && l.Active && len(l.Token) == 32
	})).Return(nil)

	link, err := svc.Create(context.Background(), &CreateLinkRequest{
		TestID:  7,
		MaxUses: intPtr(25),
	})
	require.NoError(t, err)

	assert.True(t, link.Active)
	assert.Equal(t, 25, *link.MaxUses)
	assert.Len(t, link.Token, 32)
	repo.linkRepo.AssertExpectations(t)
}

func TestLinkService_Create_TokensAreUnique(t *testing.T) {
	repo, svc := newLinkFixture()

	repo.testRepo.On("GetByID", mock.Anything, uint(7)).Return(proctoredTest(7), nil)
	repo.linkRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		link, err := svc.Create(context.Background(), &CreateLinkRequest{TestID: 7})
		require.NoError(t, err)
		assert.False(t, seen[link.Token])
		seen[link.Token] = true
	}
}

func TestLinkService_Create_UnknownTest(t *testing.T) {
	repo, svc := newLinkFixture()

	repo.testRepo.On("GetByID", mock.Anything, uint(404)).Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.Create(context.Background(), &CreateLinkRequest{TestID: 404})
	assert.ErrorIs(t, err, ErrTestNotFound)
	repo.linkRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestLinkService_Create_InvalidMaxUses(t *testing.T) {
	_, svc := newLinkFixture()

	_, err := svc.Create(context.Background(), &CreateLinkRequest{
		TestID:  7,
		MaxUses: intPtr(0),
	})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestLinkService_Deactivate(t *testing.T) {
	repo, svc := newLinkFixture()

	repo.linkRepo.On("GetByID", mock.Anything, uint(5)).Return(&models.AccessLink{ID: 5, Active: true}, nil)
	repo.linkRepo.On("Deactivate", mock.Anything, uint(5)).Return(nil)

	require.NoError(t, svc.Deactivate(context.Background(), 5))
	repo.linkRepo.AssertExpectations(t)
}

func TestLinkService_Sessions(t *testing.T) {
	repo, svc := newLinkFixture()

	history := []*models.Session{
		{ID: 2, Status: models.SessionInProgress},
		{ID: 1, Status: models.SessionArchived},
	}
	repo.linkRepo.On("GetByID", mock.Anything, uint(5)).Return(&models.AccessLink{ID: 5}, nil)
	repo.sessionRepo.On("ListByLink", mock.Anything, uint(5)).Return(history, nil)

	sessions, err := svc.Sessions(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	// Archived attempts stay in the history.
	assert.Equal(t, models.SessionArchived, sessions[1].Status)
}

func TestLinkService_Deactivate_Unknown(t *testing.T) {
	repo, svc := newLinkFixture()

	repo.linkRepo.On("GetByID", mock.Anything, uint(404)).Return(nil, gorm.ErrRecordNotFound)

	err := svc.Deactivate(context.Background(), 404)
	assert.ErrorIs(t, err, ErrLinkNotFound)
	repo.linkRepo.AssertNotCalled(t, "Deactivate", mock.Anything, mock.Anything)
}
