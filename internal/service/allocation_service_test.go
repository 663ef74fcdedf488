package service_test

import (
	"context"
	"errors"
	"testing"

	"ticket-reservation/internal/mocks"
	"ticket-reservation/internal/model"
	"ticket-reservation/internal/result"
	"ticket-reservation/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func testEvent() *model.Event {
	return &model.Event{
		ID:             1,
		ShortName:      "summer-fest",
		DisplayName:    "Summer Fest",
		TimeZone:       "UTC",
		AvailableSeats: 10,
		Currency:       "EUR",
		VatPercent:     "10",
	}
}

func boundedCategory(id, maxTickets int) *model.TicketCategory {
	return &model.TicketCategory{
		ID:         id,
		EventID:    1,
		Name:       "General",
		Price:      decimal.RequireFromString("30.00"),
		Bounded:    true,
		MaxTickets: maxTickets,
	}
}

func attendees(n int) []model.Attendee {
	out := make([]model.Attendee, n)
	for i := range out {
		out[i] = model.Attendee{Email: "a@example.com", FirstName: "A", LastName: "B"}
	}
	return out
}

func newAllocationFixture() (*mocks.EventRepositoryMock, *mocks.CategoryRepositoryMock, *mocks.TicketRepositoryMock, *mocks.TokenServiceMock, service.AllocationService) {
	eventRepo := mocks.NewEventRepositoryMock()
	categoryRepo := mocks.NewCategoryRepositoryMock()
	ticketRepo := mocks.NewTicketRepositoryMock()
	tokenService := mocks.NewTokenServiceMock()
	svc := service.NewAllocationService(eventRepo, categoryRepo, ticketRepo, tokenService)
	return eventRepo, categoryRepo, ticketRepo, tokenService, svc
}

func TestReserveForCategoryAllocatesOnePerAttendee(t *testing.T) {
	_, _, ticketRepo, _, svc := newAllocationFixture()
	event := testEvent()
	category := boundedCategory(7, 3)

	ticketRepo.On("SelectFreeForUpdate", mock.Anything, nil, 1, 7, true, 2, []model.TicketStatus{model.TicketStatusFree}).
		Return([]int{11, 12}, nil)
	ticketRepo.On("Reserve", mock.Anything, nil, "res-1", []int{11, 12}, 7).Return(nil)
	ticketRepo.On("UpdatePrice", mock.Anything, nil, []int{11, 12},
		mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ticketRepo.On("UpdateOwner", mock.Anything, nil, 11, "a@example.com", "A B").Return(nil)
	ticketRepo.On("UpdateOwner", mock.Anything, nil, 12, "a@example.com", "A B").Return(nil)

	res := svc.ReserveForCategory(context.Background(), nil, event, category, model.TicketsInfo{Attendees: attendees(2)}, "res-1", "sess-1")

	assert.True(t, res.IsSuccess())
	assert.Equal(t, []int{11, 12}, res.Data)
	ticketRepo.AssertExpectations(t)
}

func TestReserveForCategoryFailsWhenShort(t *testing.T) {
	_, _, ticketRepo, _, svc := newAllocationFixture()
	event := testEvent()
	category := boundedCategory(7, 2)

	// Only two free rows for three attendees: nothing beyond the select may
	// run, the transaction rolls the partial locks back.
	ticketRepo.On("SelectFreeForUpdate", mock.Anything, nil, 1, 7, true, 3, []model.TicketStatus{model.TicketStatusFree}).
		Return([]int{11, 12}, nil)

	res := svc.ReserveForCategory(context.Background(), nil, event, category, model.TicketsInfo{Attendees: attendees(3)}, "res-1", "sess-1")

	assert.Equal(t, result.StatusConflict, res.Status)
	assert.Equal(t, result.NotEnoughSeats, res.FirstError())
	ticketRepo.AssertNotCalled(t, "Reserve", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReserveForCategorySkipsEmptyAttendees(t *testing.T) {
	_, _, ticketRepo, _, svc := newAllocationFixture()
	event := testEvent()
	category := boundedCategory(7, 3)

	people := []model.Attendee{
		{Email: "a@example.com", FirstName: "A", LastName: "B"},
		{},
		{Email: "c@example.com", FirstName: "C", LastName: "D"},
	}

	ticketRepo.On("SelectFreeForUpdate", mock.Anything, nil, 1, 7, true, 3, mock.Anything).
		Return([]int{11, 12, 13}, nil)
	ticketRepo.On("Reserve", mock.Anything, nil, "res-1", []int{11, 12, 13}, 7).Return(nil)
	ticketRepo.On("UpdatePrice", mock.Anything, nil, []int{11, 12, 13},
		mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ticketRepo.On("UpdateOwner", mock.Anything, nil, 11, "a@example.com", "A B").Return(nil)
	ticketRepo.On("UpdateOwner", mock.Anything, nil, 13, "c@example.com", "C D").Return(nil)

	res := svc.ReserveForCategory(context.Background(), nil, event, category, model.TicketsInfo{Attendees: people}, "res-1", "sess-1")

	assert.True(t, res.IsSuccess())
	// The empty attendee's ticket keeps no owner.
	ticketRepo.AssertNotCalled(t, "UpdateOwner", mock.Anything, mock.Anything, 12, mock.Anything, mock.Anything)
}

func TestReserveForCategoryBindsTokensForRestrictedCategory(t *testing.T) {
	_, _, ticketRepo, tokenService, svc := newAllocationFixture()
	event := testEvent()
	category := boundedCategory(7, 3)
	category.AccessRestricted = true

	ticketRepo.On("SelectFreeForUpdate", mock.Anything, nil, 1, 7, true, 2, mock.Anything).
		Return([]int{11, 12}, nil)
	ticketRepo.On("Reserve", mock.Anything, nil, "res-1", []int{11, 12}, 7).Return(nil)
	ticketRepo.On("UpdatePrice", mock.Anything, nil, []int{11, 12},
		mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	// Only one code is available for two attendees: under-provisioning is
	// silent, the second ticket simply carries no code.
	tokenService.On("BindTokens", mock.Anything, nil, category, "sess-1", 2).
		Return([]*model.SpecialPrice{{ID: 91, CategoryID: 7}}, nil)
	ticketRepo.On("UpdateOwner", mock.Anything, nil, 11, "a@example.com", "A B").Return(nil)
	ticketRepo.On("UpdateOwner", mock.Anything, nil, 12, "a@example.com", "A B").Return(nil)
	ticketRepo.On("BindSpecialPrice", mock.Anything, nil, 11, 91).Return(nil)

	res := svc.ReserveForCategory(context.Background(), nil, event, category, model.TicketsInfo{Attendees: attendees(2)}, "res-1", "sess-1")

	assert.True(t, res.IsSuccess())
	ticketRepo.AssertNotCalled(t, "BindSpecialPrice", mock.Anything, mock.Anything, 12, mock.Anything)
}

func TestResolveCategoryUnboundedReturnedAsIs(t *testing.T) {
	_, categoryRepo, ticketRepo, _, svc := newAllocationFixture()
	event := testEvent()
	id := 7
	unbounded := &model.TicketCategory{ID: 7, EventID: 1, Bounded: false}

	categoryRepo.On("GetByID", mock.Anything, nil, 7, 1).Return(unbounded, nil)
	ticketRepo.On("CountFreeUnbounded", mock.Anything, nil, 1).Return(4, nil)

	res := svc.ResolveCategory(context.Background(), nil, event,
		model.TicketsInfo{Category: model.CategoryRequest{ExistingCategoryID: &id}, Attendees: attendees(4)},
		model.ReservationModification{})

	assert.True(t, res.IsSuccess())
	assert.Same(t, unbounded, res.Data)
	ticketRepo.AssertNotCalled(t, "CountFree", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	ticketRepo.AssertNotCalled(t, "BulkCreate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveCategoryUnboundedGrowsPoolWhenAuthorized(t *testing.T) {
	eventRepo, categoryRepo, ticketRepo, _, svc := newAllocationFixture()
	event := testEvent()
	id := 7
	unbounded := &model.TicketCategory{ID: 7, EventID: 1, Bounded: false}

	// Five requested, three free in the pool, growth authorized: two rows
	// get minted into the pool. No cap to raise on an unbounded category.
	categoryRepo.On("GetByID", mock.Anything, nil, 7, 1).Return(unbounded, nil)
	ticketRepo.On("CountFreeUnbounded", mock.Anything, nil, 1).Return(3, nil)
	ticketRepo.On("BulkCreate", mock.Anything, nil, 1, 2, mock.Anything).Return(nil)
	eventRepo.On("UpdateAvailableSeats", mock.Anything, nil, 1, 2).Return(nil)
	eventRepo.On("FindByID", mock.Anything, nil, 1).Return(testEvent(), nil)

	ti := model.TicketsInfo{
		Category:               model.CategoryRequest{ExistingCategoryID: &id},
		Attendees:              attendees(5),
		AddSeatsIfNotAvailable: true,
	}
	rc := svc.ResolveCategory(context.Background(), nil, event, ti, model.ReservationModification{})

	assert.True(t, rc.IsSuccess())
	assert.Same(t, unbounded, rc.Data)
	categoryRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	ticketRepo.AssertNotCalled(t, "AssignFreeToCategory", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	ticketRepo.AssertExpectations(t)
	eventRepo.AssertExpectations(t)

	ticketRepo.On("SelectFreeForUpdate", mock.Anything, nil, 1, 7, false, 5, []model.TicketStatus{model.TicketStatusFree}).
		Return([]int{11, 12, 13, 14, 15}, nil)
	ticketRepo.On("Reserve", mock.Anything, nil, "res-1", []int{11, 12, 13, 14, 15}, 7).Return(nil)
	ticketRepo.On("UpdatePrice", mock.Anything, nil, []int{11, 12, 13, 14, 15},
		mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	ticketRepo.On("UpdateOwner", mock.Anything, nil, mock.Anything, "a@example.com", "A B").Return(nil)

	res := svc.ReserveForCategory(context.Background(), nil, event, rc.Data, ti, "res-1", "sess-1")

	assert.True(t, res.IsSuccess())
	assert.Equal(t, []int{11, 12, 13, 14, 15}, res.Data)
}

func TestResolveCategoryUnboundedShortWithoutAuthorization(t *testing.T) {
	_, categoryRepo, ticketRepo, _, svc := newAllocationFixture()
	event := testEvent()
	id := 7
	unbounded := &model.TicketCategory{ID: 7, EventID: 1, Bounded: false}

	categoryRepo.On("GetByID", mock.Anything, nil, 7, 1).Return(unbounded, nil)
	ticketRepo.On("CountFreeUnbounded", mock.Anything, nil, 1).Return(3, nil)

	res := svc.ResolveCategory(context.Background(), nil, event,
		model.TicketsInfo{Category: model.CategoryRequest{ExistingCategoryID: &id}, Attendees: attendees(5)},
		model.ReservationModification{})

	assert.True(t, res.IsSuccess())
	assert.Same(t, unbounded, res.Data)
	ticketRepo.AssertNotCalled(t, "BulkCreate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveCategoryEnoughFreeSeats(t *testing.T) {
	_, categoryRepo, ticketRepo, _, svc := newAllocationFixture()
	event := testEvent()
	id := 7
	category := boundedCategory(7, 5)

	categoryRepo.On("GetByID", mock.Anything, nil, 7, 1).Return(category, nil)
	ticketRepo.On("CountFree", mock.Anything, nil, 1, 7).Return(3, nil)

	res := svc.ResolveCategory(context.Background(), nil, event,
		model.TicketsInfo{Category: model.CategoryRequest{ExistingCategoryID: &id}, Attendees: attendees(2)},
		model.ReservationModification{})

	assert.True(t, res.IsSuccess())
	assert.Same(t, category, res.Data)
	categoryRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveCategoryShortWithoutAuthorizationDoesNotGrow(t *testing.T) {
	_, categoryRepo, ticketRepo, _, svc := newAllocationFixture()
	event := testEvent()
	id := 7
	category := boundedCategory(7, 2)

	categoryRepo.On("GetByID", mock.Anything, nil, 7, 1).Return(category, nil)
	ticketRepo.On("CountFree", mock.Anything, nil, 1, 7).Return(1, nil)

	res := svc.ResolveCategory(context.Background(), nil, event,
		model.TicketsInfo{Category: model.CategoryRequest{ExistingCategoryID: &id}, Attendees: attendees(3)},
		model.ReservationModification{})

	// The category comes back untouched; allocation will fail afterwards
	// with NOT_ENOUGH_SEATS.
	assert.True(t, res.IsSuccess())
	assert.Same(t, category, res.Data)
	categoryRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	ticketRepo.AssertNotCalled(t, "BulkCreate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveCategoryGrowsWhenAuthorized(t *testing.T) {
	eventRepo, categoryRepo, ticketRepo, _, svc := newAllocationFixture()
	event := testEvent()
	id := 7
	category := boundedCategory(7, 3)
	grown := boundedCategory(7, 5)

	// Five requested, three free in the category, no unallocated pool:
	// two new seats get minted and the cap rises by requested - free = 2.
	categoryRepo.On("GetByID", mock.Anything, nil, 7, 1).Return(category, nil).Once()
	ticketRepo.On("CountFree", mock.Anything, nil, 1, 7).Return(3, nil)
	ticketRepo.On("CountFreeUnbounded", mock.Anything, nil, 1).Return(0, nil)
	ticketRepo.On("BulkCreate", mock.Anything, nil, 1, 2, mock.Anything).Return(nil)
	eventRepo.On("UpdateAvailableSeats", mock.Anything, nil, 1, 2).Return(nil)
	eventRepo.On("FindByID", mock.Anything, nil, 1).Return(testEvent(), nil)
	categoryRepo.On("Update", mock.Anything, nil, 7, mock.MatchedBy(func(m model.CategoryModification) bool {
		return m.MaxTickets == 5 && m.Bounded
	})).Return(nil)
	ticketRepo.On("AssignFreeToCategory", mock.Anything, nil, 1, 7, 2).Return(int64(2), nil)
	categoryRepo.On("GetByID", mock.Anything, nil, 7, 1).Return(grown, nil).Once()

	res := svc.ResolveCategory(context.Background(), nil, event,
		model.TicketsInfo{
			Category:               model.CategoryRequest{ExistingCategoryID: &id},
			Attendees:              attendees(5),
			AddSeatsIfNotAvailable: true,
		},
		model.ReservationModification{})

	assert.True(t, res.IsSuccess())
	assert.Equal(t, 5, res.Data.MaxTickets)
	categoryRepo.AssertExpectations(t)
	ticketRepo.AssertExpectations(t)
	eventRepo.AssertExpectations(t)
}

func TestResolveCategoryUsesPoolBeforeMinting(t *testing.T) {
	eventRepo, categoryRepo, ticketRepo, _, svc := newAllocationFixture()
	event := testEvent()
	id := 7
	category := boundedCategory(7, 3)

	// Five requested, three free, two unallocated in the pool: nothing to
	// mint, the pool covers the shortfall.
	categoryRepo.On("GetByID", mock.Anything, nil, 7, 1).Return(category, nil).Once()
	ticketRepo.On("CountFree", mock.Anything, nil, 1, 7).Return(3, nil)
	ticketRepo.On("CountFreeUnbounded", mock.Anything, nil, 1).Return(2, nil)
	categoryRepo.On("Update", mock.Anything, nil, 7, mock.Anything).Return(nil)
	ticketRepo.On("AssignFreeToCategory", mock.Anything, nil, 1, 7, 2).Return(int64(2), nil)
	categoryRepo.On("GetByID", mock.Anything, nil, 7, 1).Return(boundedCategory(7, 5), nil).Once()

	res := svc.ResolveCategory(context.Background(), nil, event,
		model.TicketsInfo{
			Category:               model.CategoryRequest{ExistingCategoryID: &id},
			Attendees:              attendees(5),
			AddSeatsIfNotAvailable: true,
		},
		model.ReservationModification{})

	assert.True(t, res.IsSuccess())
	ticketRepo.AssertNotCalled(t, "BulkCreate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	eventRepo.AssertNotCalled(t, "UpdateAvailableSeats", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveCategoryCreatesNewCategory(t *testing.T) {
	_, categoryRepo, ticketRepo, _, svc := newAllocationFixture()
	event := testEvent()
	created := boundedCategory(8, 2)

	ticketRepo.On("CountFreeUnbounded", mock.Anything, nil, 1).Return(4, nil)
	categoryRepo.On("Insert", mock.Anything, nil, 1, mock.MatchedBy(func(m model.CategoryModification) bool {
		return m.Name == "VIP" && m.MaxTickets == 2 && m.Bounded
	})).Return(8, nil)
	ticketRepo.On("AssignFreeToCategory", mock.Anything, nil, 1, 8, 2).Return(int64(2), nil)
	categoryRepo.On("GetByID", mock.Anything, nil, 8, 1).Return(created, nil)

	res := svc.ResolveCategory(context.Background(), nil, event,
		model.TicketsInfo{
			Category:  model.CategoryRequest{Name: "VIP", Price: decimal.RequireFromString("99.00")},
			Attendees: attendees(2),
		},
		model.ReservationModification{})

	assert.True(t, res.IsSuccess())
	assert.Same(t, created, res.Data)
}

func TestResolveCategoryNotFound(t *testing.T) {
	_, categoryRepo, _, _, svc := newAllocationFixture()
	event := testEvent()
	id := 99

	categoryRepo.On("GetByID", mock.Anything, nil, 99, 1).Return(nil, errors.New("no rows"))

	res := svc.ResolveCategory(context.Background(), nil, event,
		model.TicketsInfo{Category: model.CategoryRequest{ExistingCategoryID: &id}, Attendees: attendees(1)},
		model.ReservationModification{})

	assert.Equal(t, result.StatusNotFound, res.Status)
	assert.Equal(t, result.CategoryNotFound, res.FirstError())
}
