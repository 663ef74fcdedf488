package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"ticket-reservation/config"
	"ticket-reservation/internal/mocks"
	"ticket-reservation/internal/model"
	"ticket-reservation/internal/result"
	"ticket-reservation/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type reservationFixture struct {
	eventRepo        *mocks.EventRepositoryMock
	reservationRepo  *mocks.ReservationRepositoryMock
	ticketRepo       *mocks.TicketRepositoryMock
	specialPriceRepo *mocks.SpecialPriceRepositoryMock
	fieldValueRepo   *mocks.FieldValueRepositoryMock
	additionalRepo   *mocks.AdditionalServiceItemRepositoryMock
	allocation       *mocks.AllocationServiceMock
	cache            *mocks.AvailabilityCacheMock
	notifier         *mocks.NotifierMock
	svc              service.ReservationService
}

func newReservationFixture() *reservationFixture {
	f := &reservationFixture{
		eventRepo:        mocks.NewEventRepositoryMock(),
		reservationRepo:  mocks.NewReservationRepositoryMock(),
		ticketRepo:       mocks.NewTicketRepositoryMock(),
		specialPriceRepo: mocks.NewSpecialPriceRepositoryMock(),
		fieldValueRepo:   mocks.NewFieldValueRepositoryMock(),
		additionalRepo:   mocks.NewAdditionalServiceItemRepositoryMock(),
		allocation:       mocks.NewAllocationServiceMock(),
		cache:            mocks.NewAvailabilityCacheMock(),
		notifier:         mocks.NewNotifierMock(),
	}
	cfg := config.ReservationConfig{
		ValidityMinutes:          25,
		ReaperIntervalSeconds:    60,
		MaxTicketsPerReservation: 5,
	}
	f.svc = service.NewReservationService(
		mocks.NewTxManagerMock(),
		f.eventRepo, f.reservationRepo, f.ticketRepo,
		f.specialPriceRepo, f.fieldValueRepo, f.additionalRepo,
		f.allocation, f.cache, f.notifier, cfg,
	)
	return f
}

func pendingReservation(id string) *model.TicketReservation {
	return &model.TicketReservation{
		ID:         id,
		EventID:    1,
		Status:     model.ReservationStatusPending,
		ValidUntil: time.Now().Add(25 * time.Minute),
	}
}

func singleCategoryRequest(categoryID, count int) model.ReservationModification {
	return model.ReservationModification{
		TicketsInfo: []model.TicketsInfo{{
			Category:  model.CategoryRequest{ExistingCategoryID: &categoryID},
			Attendees: attendees(count),
		}},
		CustomerData: model.CustomerData{Email: "buyer@example.com", FirstName: "Buy", LastName: "Er"},
		Language:     "en",
	}
}

func TestCreateReservationSuccess(t *testing.T) {
	f := newReservationFixture()
	event := testEvent()
	category := boundedCategory(7, 5)
	tickets := []*model.Ticket{{ID: 11, EventID: 1}, {ID: 12, EventID: 1}}

	f.eventRepo.On("FindByShortNameForUpdate", mock.Anything, nil, "summer-fest").Return(event, nil)
	f.reservationRepo.On("Create", mock.Anything, nil, mock.Anything, 1, mock.Anything, "en").Return(nil)
	f.reservationRepo.On("UpdateContact", mock.Anything, nil, mock.Anything, model.ReservationStatusPending,
		"buyer@example.com", "Buy Er", "", "en", (*model.PaymentMethod)(nil)).Return(nil)
	f.allocation.On("ResolveCategory", mock.Anything, nil, event, mock.Anything, mock.Anything).
		Return(result.Success(category))
	f.allocation.On("ReserveForCategory", mock.Anything, nil, event, category, mock.Anything, mock.Anything, mock.Anything).
		Return(result.Success([]int{11, 12}))
	f.ticketRepo.On("FindInReservation", mock.Anything, nil, mock.Anything).Return(tickets, nil)
	f.reservationRepo.On("StoreOrderSummary", mock.Anything, nil, mock.Anything, mock.Anything).Return(nil)
	f.reservationRepo.On("FindByIDForUpdate", mock.Anything, nil, mock.Anything).
		Return(pendingReservation("ignored"), nil)
	f.cache.On("InvalidateEvent", mock.Anything, 1).Return(nil)

	res := f.svc.Create(context.Background(), "summer-fest", singleCategoryRequest(7, 2))

	assert.True(t, res.IsSuccess())
	assert.Len(t, res.Data.Tickets, 2)
	f.reservationRepo.AssertExpectations(t)
	f.cache.AssertExpectations(t)
}

func TestCreateReservationAggregatesCategoryFailures(t *testing.T) {
	f := newReservationFixture()
	event := testEvent()

	f.eventRepo.On("FindByShortNameForUpdate", mock.Anything, nil, "summer-fest").Return(event, nil)
	f.reservationRepo.On("Create", mock.Anything, nil, mock.Anything, 1, mock.Anything, "en").Return(nil)
	f.reservationRepo.On("UpdateContact", mock.Anything, nil, mock.Anything, mock.Anything,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	// Both categories fail for independent reasons; both errors must appear,
	// in request order, under the first failure's status.
	f.allocation.On("ResolveCategory", mock.Anything, nil, event, mock.Anything, mock.Anything).
		Return(result.Conflict[*model.TicketCategory](result.NotEnoughSeats)).Once()
	f.allocation.On("ResolveCategory", mock.Anything, nil, event, mock.Anything, mock.Anything).
		Return(result.NotFound[*model.TicketCategory](result.CategoryNotFound)).Once()

	firstID, secondID := 7, 8
	mod := model.ReservationModification{
		TicketsInfo: []model.TicketsInfo{
			{Category: model.CategoryRequest{ExistingCategoryID: &firstID}, Attendees: attendees(2)},
			{Category: model.CategoryRequest{ExistingCategoryID: &secondID}, Attendees: attendees(1)},
		},
		Language: "en",
	}

	res := f.svc.Create(context.Background(), "summer-fest", mod)

	assert.Equal(t, result.StatusConflict, res.Status)
	assert.Equal(t, []result.ErrorCode{result.NotEnoughSeats, result.CategoryNotFound}, res.Errors)
	f.allocation.AssertNotCalled(t, "ReserveForCategory",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.cache.AssertNotCalled(t, "InvalidateEvent", mock.Anything, mock.Anything)
}

func TestCreateReservationRejectsTooManyTickets(t *testing.T) {
	f := newReservationFixture()
	f.eventRepo.On("FindByShortNameForUpdate", mock.Anything, nil, "summer-fest").Return(testEvent(), nil)

	res := f.svc.Create(context.Background(), "summer-fest", singleCategoryRequest(7, 6))

	assert.Equal(t, result.StatusValidationError, res.Status)
	f.reservationRepo.AssertNotCalled(t, "Create",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateReservationRejectsEmptyRequest(t *testing.T) {
	f := newReservationFixture()
	f.eventRepo.On("FindByShortNameForUpdate", mock.Anything, nil, "summer-fest").Return(testEvent(), nil)

	res := f.svc.Create(context.Background(), "summer-fest", model.ReservationModification{})

	assert.Equal(t, result.StatusValidationError, res.Status)
}

func TestCreateReservationEventNotFound(t *testing.T) {
	f := newReservationFixture()
	f.eventRepo.On("FindByShortNameForUpdate", mock.Anything, nil, "missing").Return(nil, errors.New("no rows"))

	res := f.svc.Create(context.Background(), "missing", singleCategoryRequest(7, 1))

	assert.Equal(t, result.StatusNotFound, res.Status)
	assert.Equal(t, result.EventNotFound, res.FirstError())
}

func TestUpdateReservationExtendsValidityAndRewritesAttendees(t *testing.T) {
	f := newReservationFixture()
	newDeadline := time.Now().Add(time.Hour).UTC()

	resID := "res-1"
	f.eventRepo.On("FindByShortName", mock.Anything, "summer-fest").Return(testEvent(), nil)
	f.reservationRepo.On("FindByIDForUpdate", mock.Anything, nil, "res-1").
		Return(pendingReservation("res-1"), nil)
	f.reservationRepo.On("UpdateValidity", mock.Anything, nil, "res-1", newDeadline).Return(nil)
	f.ticketRepo.On("FindByIDs", mock.Anything, []int{11}).
		Return([]*model.Ticket{{ID: 11, ReservationID: &resID}}, nil)
	f.ticketRepo.On("UpdateOwner", mock.Anything, nil, 11, "new@example.com", "New Name").Return(nil)

	mod := model.ReservationModification{
		Expiration: newDeadline,
		TicketsInfo: []model.TicketsInfo{{
			UpdateAttendees: true,
			Attendees: []model.Attendee{
				{TicketID: 11, Email: "new@example.com", FirstName: "New", LastName: "Name"},
			},
		}},
	}

	res := f.svc.Update(context.Background(), "summer-fest", "res-1", mod)

	assert.True(t, res.IsSuccess())
	// Updates never re-run allocation.
	f.allocation.AssertNotCalled(t, "ResolveCategory",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.reservationRepo.AssertExpectations(t)
}

func TestUpdateRejectsForeignTickets(t *testing.T) {
	f := newReservationFixture()
	otherID := "res-2"

	f.eventRepo.On("FindByShortName", mock.Anything, "summer-fest").Return(testEvent(), nil)
	f.reservationRepo.On("FindByIDForUpdate", mock.Anything, nil, "res-1").
		Return(pendingReservation("res-1"), nil)
	f.ticketRepo.On("FindByIDs", mock.Anything, []int{44}).
		Return([]*model.Ticket{{ID: 44, ReservationID: &otherID}}, nil)

	mod := model.ReservationModification{
		TicketsInfo: []model.TicketsInfo{{
			UpdateAttendees: true,
			Attendees: []model.Attendee{
				{TicketID: 44, Email: "x@example.com", FirstName: "X", LastName: "Y"},
			},
		}},
	}

	res := f.svc.Update(context.Background(), "summer-fest", "res-1", mod)

	assert.Equal(t, result.StatusValidationError, res.Status)
	assert.Equal(t, result.TicketsNotInReservation, res.FirstError())
	f.ticketRepo.AssertNotCalled(t, "UpdateOwner",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmReservation(t *testing.T) {
	f := newReservationFixture()
	event := testEvent()
	confirmed := pendingReservation("res-1")
	confirmed.Status = model.ReservationStatusComplete

	f.eventRepo.On("FindByShortName", mock.Anything, "summer-fest").Return(event, nil)
	f.reservationRepo.On("FindByIDForUpdate", mock.Anything, nil, "res-1").
		Return(pendingReservation("res-1"), nil).Once()
	f.ticketRepo.On("UpdateStatusForReservation", mock.Anything, nil, "res-1", model.TicketStatusAcquired).
		Return(int64(2), nil)
	f.reservationRepo.On("MarkComplete", mock.Anything, nil, "res-1", model.PaymentMethodAdmin, mock.Anything).
		Return(int64(1), nil)
	f.ticketRepo.On("FindInReservation", mock.Anything, nil, "res-1").
		Return([]*model.Ticket{{ID: 11}, {ID: 12}}, nil)
	f.reservationRepo.On("FindByIDForUpdate", mock.Anything, nil, "res-1").Return(confirmed, nil).Once()
	f.cache.On("InvalidateEvent", mock.Anything, 1).Return(nil)
	f.notifier.On("SendConfirmation", mock.Anything, event, confirmed).Return(nil)

	res := f.svc.Confirm(context.Background(), "summer-fest", "res-1")

	assert.True(t, res.IsSuccess())
	assert.Equal(t, model.ReservationStatusComplete, res.Data.Reservation.Status)
	f.notifier.AssertExpectations(t)
}

func TestConfirmMarksDiscountCodesTaken(t *testing.T) {
	f := newReservationFixture()
	event := testEvent()
	confirmed := pendingReservation("res-1")
	confirmed.Status = model.ReservationStatusComplete
	code := 91

	f.eventRepo.On("FindByShortName", mock.Anything, "summer-fest").Return(event, nil)
	f.reservationRepo.On("FindByIDForUpdate", mock.Anything, nil, "res-1").
		Return(pendingReservation("res-1"), nil).Once()
	f.ticketRepo.On("UpdateStatusForReservation", mock.Anything, nil, "res-1", model.TicketStatusAcquired).
		Return(int64(2), nil)
	f.reservationRepo.On("MarkComplete", mock.Anything, nil, "res-1", model.PaymentMethodAdmin, mock.Anything).
		Return(int64(1), nil)
	f.ticketRepo.On("FindInReservation", mock.Anything, nil, "res-1").
		Return([]*model.Ticket{{ID: 11, SpecialPriceID: &code}, {ID: 12}}, nil)
	f.specialPriceRepo.On("UpdateStatus", mock.Anything, nil, 91, model.SpecialPriceStatusTaken).Return(nil)
	f.reservationRepo.On("FindByIDForUpdate", mock.Anything, nil, "res-1").Return(confirmed, nil).Once()
	f.cache.On("InvalidateEvent", mock.Anything, 1).Return(nil)
	f.notifier.On("SendConfirmation", mock.Anything, event, confirmed).Return(nil)

	res := f.svc.Confirm(context.Background(), "summer-fest", "res-1")

	assert.True(t, res.IsSuccess())
	// Only the ticket carrying a code touches the code table.
	f.specialPriceRepo.AssertExpectations(t)
	f.specialPriceRepo.AssertNumberOfCalls(t, "UpdateStatus", 1)
}

func TestConfirmIsNotIdempotent(t *testing.T) {
	f := newReservationFixture()
	completed := pendingReservation("res-1")
	completed.Status = model.ReservationStatusComplete

	f.eventRepo.On("FindByShortName", mock.Anything, "summer-fest").Return(testEvent(), nil)
	f.reservationRepo.On("FindByIDForUpdate", mock.Anything, nil, "res-1").Return(completed, nil)

	res := f.svc.Confirm(context.Background(), "summer-fest", "res-1")

	assert.Equal(t, result.StatusConflict, res.Status)
	assert.Equal(t, result.InvalidStatus, res.FirstError())
	f.reservationRepo.AssertNotCalled(t, "MarkComplete",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestConfirmSurfacesNotificationFailureWithoutRollback(t *testing.T) {
	f := newReservationFixture()
	event := testEvent()
	confirmed := pendingReservation("res-1")
	confirmed.Status = model.ReservationStatusComplete

	f.eventRepo.On("FindByShortName", mock.Anything, "summer-fest").Return(event, nil)
	f.reservationRepo.On("FindByIDForUpdate", mock.Anything, nil, "res-1").
		Return(pendingReservation("res-1"), nil).Once()
	f.ticketRepo.On("UpdateStatusForReservation", mock.Anything, nil, "res-1", model.TicketStatusAcquired).
		Return(int64(1), nil)
	f.reservationRepo.On("MarkComplete", mock.Anything, nil, "res-1", model.PaymentMethodAdmin, mock.Anything).
		Return(int64(1), nil)
	f.ticketRepo.On("FindInReservation", mock.Anything, nil, "res-1").
		Return([]*model.Ticket{{ID: 11}}, nil)
	f.reservationRepo.On("FindByIDForUpdate", mock.Anything, nil, "res-1").Return(confirmed, nil).Once()
	f.cache.On("InvalidateEvent", mock.Anything, 1).Return(nil)
	f.notifier.On("SendConfirmation", mock.Anything, event, confirmed).Return(errors.New("smtp down"))

	res := f.svc.Confirm(context.Background(), "summer-fest", "res-1")

	// The confirmation is committed; only the delivery failure is reported.
	assert.Equal(t, result.StatusInternalError, res.Status)
	assert.Equal(t, "NOTIFICATION_FAILED", res.FirstError().Code)
	f.reservationRepo.AssertExpectations(t)
}

func TestCancelReservationReleasesEverything(t *testing.T) {
	f := newReservationFixture()
	event := testEvent()
	tickets := []*model.Ticket{{ID: 11}, {ID: 12}}

	f.eventRepo.On("FindByShortName", mock.Anything, "summer-fest").Return(event, nil)
	f.reservationRepo.On("FindByIDForUpdate", mock.Anything, nil, "res-1").
		Return(pendingReservation("res-1"), nil)
	f.ticketRepo.On("FindInReservation", mock.Anything, nil, "res-1").Return(tickets, nil)
	f.specialPriceRepo.On("FreeByTicketIDs", mock.Anything, nil, []int{11, 12}).Return(nil)
	f.fieldValueRepo.On("DeleteAllForTickets", mock.Anything, nil, []int{11, 12}).Return(nil)
	f.ticketRepo.On("ResetCategoryForUnbounded", mock.Anything, nil, []int{11, 12}).Return(nil)
	f.ticketRepo.On("ResetTickets", mock.Anything, nil, []int{11, 12}).Return(nil)
	f.additionalRepo.On("UpdateStatusForReservation", mock.Anything, nil, "res-1", model.AdditionalServiceItemStatusCancelled).Return(nil)
	f.reservationRepo.On("UpdateStatus", mock.Anything, nil, "res-1", model.ReservationStatusCancelled).
		Return(int64(1), nil)
	f.cache.On("InvalidateEvent", mock.Anything, 1).Return(nil)

	res := f.svc.Cancel(context.Background(), "summer-fest", "res-1")

	assert.True(t, res.IsSuccess())
	f.specialPriceRepo.AssertExpectations(t)
	f.ticketRepo.AssertExpectations(t)
	f.reservationRepo.AssertExpectations(t)
}

func TestCancelAlreadyCancelledFails(t *testing.T) {
	f := newReservationFixture()
	cancelled := pendingReservation("res-1")
	cancelled.Status = model.ReservationStatusCancelled

	f.eventRepo.On("FindByShortName", mock.Anything, "summer-fest").Return(testEvent(), nil)
	f.reservationRepo.On("FindByIDForUpdate", mock.Anything, nil, "res-1").Return(cancelled, nil)

	res := f.svc.Cancel(context.Background(), "summer-fest", "res-1")

	assert.Equal(t, result.StatusConflict, res.Status)
	f.ticketRepo.AssertNotCalled(t, "ResetTickets", mock.Anything, mock.Anything, mock.Anything)
}

func TestTransitionToInPayment(t *testing.T) {
	f := newReservationFixture()

	f.reservationRepo.On("FindByIDForUpdate", mock.Anything, nil, "res-1").
		Return(pendingReservation("res-1"), nil)
	f.reservationRepo.On("UpdateContact", mock.Anything, nil, "res-1", model.ReservationStatusInPayment,
		"buyer@example.com", "Buy Er", "", "", mock.Anything).Return(nil)

	customer := model.CustomerData{Email: "buyer@example.com", FirstName: "Buy", LastName: "Er"}
	res := f.svc.TransitionToInPayment(context.Background(), "res-1", customer, model.PaymentMethodCreditCard)

	assert.True(t, res.IsSuccess())
	f.reservationRepo.AssertExpectations(t)
}

func TestTransitionToInPaymentRejectsCompleted(t *testing.T) {
	f := newReservationFixture()
	completed := pendingReservation("res-1")
	completed.Status = model.ReservationStatusComplete

	f.reservationRepo.On("FindByIDForUpdate", mock.Anything, nil, "res-1").Return(completed, nil)

	res := f.svc.TransitionToInPayment(context.Background(), "res-1",
		model.CustomerData{}, model.PaymentMethodCreditCard)

	assert.Equal(t, result.StatusConflict, res.Status)
}

func TestCleanupExpired(t *testing.T) {
	f := newReservationFixture()
	cutoff := time.Now()

	f.reservationRepo.On("FindExpiredBefore", mock.Anything, nil, cutoff).
		Return([]string{"res-1", "res-2"}, nil)
	f.ticketRepo.On("FreeFromReservations", mock.Anything, nil, []string{"res-1", "res-2"}).
		Return(int64(3), nil)
	f.reservationRepo.On("Remove", mock.Anything, nil, []string{"res-1", "res-2"}).
		Return(int64(2), nil)

	reaped, err := f.svc.CleanupExpired(context.Background(), cutoff)

	assert.NoError(t, err)
	assert.Equal(t, 2, reaped)
}

func TestCleanupExpiredNothingToDo(t *testing.T) {
	f := newReservationFixture()
	cutoff := time.Now()

	f.reservationRepo.On("FindExpiredBefore", mock.Anything, nil, cutoff).Return([]string{}, nil)

	reaped, err := f.svc.CleanupExpired(context.Background(), cutoff)

	assert.NoError(t, err)
	assert.Zero(t, reaped)
	f.ticketRepo.AssertNotCalled(t, "FreeFromReservations", mock.Anything, mock.Anything, mock.Anything)
}

func TestNotifyResendsToCustomerAndAttendees(t *testing.T) {
	f := newReservationFixture()
	event := testEvent()
	reservation := pendingReservation("res-1")
	assigned := &model.Ticket{ID: 11, Email: "a@example.com", FullName: "A B"}
	placeholder := &model.Ticket{ID: 12}

	f.eventRepo.On("FindByReservationID", mock.Anything, "res-1").Return(event, nil)
	f.reservationRepo.On("FindByID", mock.Anything, "res-1").Return(reservation, nil)
	f.ticketRepo.On("ListInReservation", mock.Anything, "res-1").
		Return([]*model.Ticket{assigned, placeholder}, nil)
	f.notifier.On("SendConfirmation", mock.Anything, event, reservation).Return(nil)
	f.notifier.On("SendTicketAssigned", mock.Anything, event, reservation, assigned).Return(nil)

	res := f.svc.Notify(context.Background(), "summer-fest", "res-1",
		model.NotificationRequest{Customer: true, Attendees: true})

	assert.True(t, res.IsSuccess())
	// Placeholder tickets have no attendee to notify.
	f.notifier.AssertNotCalled(t, "SendTicketAssigned", mock.Anything, event, reservation, placeholder)
}

func TestLoadRejectsMismatchedEventPath(t *testing.T) {
	f := newReservationFixture()

	// The reservation belongs to summer-fest; loading it under another
	// event's path must not leak it.
	f.eventRepo.On("FindByReservationID", mock.Anything, "res-1").Return(testEvent(), nil)

	res := f.svc.Load(context.Background(), "winter-gala", "res-1")

	assert.Equal(t, result.StatusNotFound, res.Status)
	assert.Equal(t, result.ReservationNotFound, res.FirstError())
	f.reservationRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}
