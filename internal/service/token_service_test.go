package service_test

import (
	"context"
	"testing"

	"ticket-reservation/internal/mocks"
	"ticket-reservation/internal/model"
	"ticket-reservation/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func restrictedCategory() *model.TicketCategory {
	return &model.TicketCategory{ID: 7, EventID: 1, Bounded: true, MaxTickets: 5, AccessRestricted: true}
}

func TestBindTokensTopsUpThePool(t *testing.T) {
	repo := mocks.NewSpecialPriceRepositoryMock()
	svc := service.NewTokenService(repo)
	category := restrictedCategory()

	repo.On("CountByCategory", mock.Anything, nil, 7).Return(3, nil)
	repo.On("BulkGenerate", mock.Anything, nil, 7, 2).Return(nil)
	repo.On("FindActiveUnassigned", mock.Anything, nil, 7, 2).
		Return([]*model.SpecialPrice{
			{ID: 1, CategoryID: 7, Status: model.SpecialPriceStatusFree},
			{ID: 2, CategoryID: 7, Status: model.SpecialPriceStatusFree},
		}, nil)
	repo.On("BindToSession", mock.Anything, nil, 1, "sess-1").Return(nil)
	repo.On("BindToSession", mock.Anything, nil, 2, "sess-1").Return(nil)

	codes, err := svc.BindTokens(context.Background(), nil, category, "sess-1", 2)

	assert.NoError(t, err)
	assert.Len(t, codes, 2)
	for _, code := range codes {
		assert.Equal(t, model.SpecialPriceStatusPending, code.Status)
		assert.Equal(t, "sess-1", code.SessionID)
	}
	repo.AssertExpectations(t)
}

func TestBindTokensSkipsGenerationWhenPoolIsFull(t *testing.T) {
	repo := mocks.NewSpecialPriceRepositoryMock()
	svc := service.NewTokenService(repo)
	category := restrictedCategory()

	repo.On("CountByCategory", mock.Anything, nil, 7).Return(5, nil)
	repo.On("FindActiveUnassigned", mock.Anything, nil, 7, 1).
		Return([]*model.SpecialPrice{{ID: 4, CategoryID: 7}}, nil)
	repo.On("BindToSession", mock.Anything, nil, 4, "sess-1").Return(nil)

	_, err := svc.BindTokens(context.Background(), nil, category, "sess-1", 1)

	assert.NoError(t, err)
	repo.AssertNotCalled(t, "BulkGenerate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBindTokensUnderProvisionsSilently(t *testing.T) {
	repo := mocks.NewSpecialPriceRepositoryMock()
	svc := service.NewTokenService(repo)
	category := restrictedCategory()

	// Three attendees but only one bindable code: the shorter list comes
	// back without error.
	repo.On("CountByCategory", mock.Anything, nil, 7).Return(5, nil)
	repo.On("FindActiveUnassigned", mock.Anything, nil, 7, 3).
		Return([]*model.SpecialPrice{{ID: 9, CategoryID: 7}}, nil)
	repo.On("BindToSession", mock.Anything, nil, 9, "sess-1").Return(nil)

	codes, err := svc.BindTokens(context.Background(), nil, category, "sess-1", 3)

	assert.NoError(t, err)
	assert.Len(t, codes, 1)
}
