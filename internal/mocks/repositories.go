// Package mocks holds hand-written testify mocks for the repository and
// collaborator interfaces, shared by the service and worker tests.
package mocks

import (
	"context"
	"time"

	"ticket-reservation/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type EventRepositoryMock struct {
	mock.Mock
}

func NewEventRepositoryMock() *EventRepositoryMock {
	return &EventRepositoryMock{}
}

func (m *EventRepositoryMock) FindByShortName(ctx context.Context, shortName string) (*model.Event, error) {
	args := m.Called(ctx, shortName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

func (m *EventRepositoryMock) FindByReservationID(ctx context.Context, reservationID string) (*model.Event, error) {
	args := m.Called(ctx, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

func (m *EventRepositoryMock) FindByShortNameForUpdate(ctx context.Context, tx pgx.Tx, shortName string) (*model.Event, error) {
	args := m.Called(ctx, tx, shortName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

func (m *EventRepositoryMock) FindByID(ctx context.Context, tx pgx.Tx, id int) (*model.Event, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

func (m *EventRepositoryMock) UpdateAvailableSeats(ctx context.Context, tx pgx.Tx, id int, delta int) error {
	args := m.Called(ctx, tx, id, delta)
	return args.Error(0)
}

type CategoryRepositoryMock struct {
	mock.Mock
}

func NewCategoryRepositoryMock() *CategoryRepositoryMock {
	return &CategoryRepositoryMock{}
}

func (m *CategoryRepositoryMock) ListByEvent(ctx context.Context, eventID int) ([]*model.TicketCategory, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.TicketCategory), args.Error(1)
}

func (m *CategoryRepositoryMock) GetByID(ctx context.Context, tx pgx.Tx, id int, eventID int) (*model.TicketCategory, error) {
	args := m.Called(ctx, tx, id, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TicketCategory), args.Error(1)
}

func (m *CategoryRepositoryMock) Insert(ctx context.Context, tx pgx.Tx, eventID int, mod model.CategoryModification) (int, error) {
	args := m.Called(ctx, tx, eventID, mod)
	return args.Int(0), args.Error(1)
}

func (m *CategoryRepositoryMock) Update(ctx context.Context, tx pgx.Tx, id int, mod model.CategoryModification) error {
	args := m.Called(ctx, tx, id, mod)
	return args.Error(0)
}

type TicketRepositoryMock struct {
	mock.Mock
}

func NewTicketRepositoryMock() *TicketRepositoryMock {
	return &TicketRepositoryMock{}
}

func (m *TicketRepositoryMock) FindByID(ctx context.Context, id int) (*model.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}

func (m *TicketRepositoryMock) FindByIDs(ctx context.Context, ids []int) ([]*model.Ticket, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Ticket), args.Error(1)
}

func (m *TicketRepositoryMock) ListInReservation(ctx context.Context, reservationID string) ([]*model.Ticket, error) {
	args := m.Called(ctx, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Ticket), args.Error(1)
}

func (m *TicketRepositoryMock) CountFreeByCategory(ctx context.Context, eventID int) (map[int]int, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int]int), args.Error(1)
}

func (m *TicketRepositoryMock) CountFree(ctx context.Context, tx pgx.Tx, eventID int, categoryID int) (int, error) {
	args := m.Called(ctx, tx, eventID, categoryID)
	return args.Int(0), args.Error(1)
}

func (m *TicketRepositoryMock) AssignFreeToCategory(ctx context.Context, tx pgx.Tx, eventID int, categoryID int, n int) (int64, error) {
	args := m.Called(ctx, tx, eventID, categoryID, n)
	return args.Get(0).(int64), args.Error(1)
}

func (m *TicketRepositoryMock) CountFreeUnbounded(ctx context.Context, tx pgx.Tx, eventID int) (int, error) {
	args := m.Called(ctx, tx, eventID)
	return args.Int(0), args.Error(1)
}

func (m *TicketRepositoryMock) SelectFreeForUpdate(ctx context.Context, tx pgx.Tx, eventID int, categoryID int, bounded bool, n int, statuses []model.TicketStatus) ([]int, error) {
	args := m.Called(ctx, tx, eventID, categoryID, bounded, n, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

func (m *TicketRepositoryMock) Reserve(ctx context.Context, tx pgx.Tx, reservationID string, ticketIDs []int, categoryID int) error {
	args := m.Called(ctx, tx, reservationID, ticketIDs, categoryID)
	return args.Error(0)
}

func (m *TicketRepositoryMock) UpdatePrice(ctx context.Context, tx pgx.Tx, ticketIDs []int, src, vat, discount, final decimal.Decimal) error {
	args := m.Called(ctx, tx, ticketIDs, src, vat, discount, final)
	return args.Error(0)
}

func (m *TicketRepositoryMock) UpdateOwner(ctx context.Context, tx pgx.Tx, ticketID int, email string, fullName string) error {
	args := m.Called(ctx, tx, ticketID, email, fullName)
	return args.Error(0)
}

func (m *TicketRepositoryMock) BindSpecialPrice(ctx context.Context, tx pgx.Tx, ticketID int, specialPriceID int) error {
	args := m.Called(ctx, tx, ticketID, specialPriceID)
	return args.Error(0)
}

func (m *TicketRepositoryMock) FindInReservation(ctx context.Context, tx pgx.Tx, reservationID string) ([]*model.Ticket, error) {
	args := m.Called(ctx, tx, reservationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Ticket), args.Error(1)
}

func (m *TicketRepositoryMock) UpdateStatusForReservation(ctx context.Context, tx pgx.Tx, reservationID string, status model.TicketStatus) (int64, error) {
	args := m.Called(ctx, tx, reservationID, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *TicketRepositoryMock) ResetCategoryForUnbounded(ctx context.Context, tx pgx.Tx, ticketIDs []int) error {
	args := m.Called(ctx, tx, ticketIDs)
	return args.Error(0)
}

func (m *TicketRepositoryMock) ResetTickets(ctx context.Context, tx pgx.Tx, ticketIDs []int) error {
	args := m.Called(ctx, tx, ticketIDs)
	return args.Error(0)
}

func (m *TicketRepositoryMock) FreeFromReservations(ctx context.Context, tx pgx.Tx, reservationIDs []string) (int64, error) {
	args := m.Called(ctx, tx, reservationIDs)
	return args.Get(0).(int64), args.Error(1)
}

func (m *TicketRepositoryMock) BulkCreate(ctx context.Context, tx pgx.Tx, eventID int, n int, createdAt time.Time) error {
	args := m.Called(ctx, tx, eventID, n, createdAt)
	return args.Error(0)
}

type ReservationRepositoryMock struct {
	mock.Mock
}

func NewReservationRepositoryMock() *ReservationRepositoryMock {
	return &ReservationRepositoryMock{}
}

func (m *ReservationRepositoryMock) FindByID(ctx context.Context, id string) (*model.TicketReservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TicketReservation), args.Error(1)
}

func (m *ReservationRepositoryMock) Create(ctx context.Context, tx pgx.Tx, id string, eventID int, validUntil time.Time, language string) error {
	args := m.Called(ctx, tx, id, eventID, validUntil, language)
	return args.Error(0)
}

func (m *ReservationRepositoryMock) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id string) (*model.TicketReservation, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TicketReservation), args.Error(1)
}

func (m *ReservationRepositoryMock) UpdateContact(ctx context.Context, tx pgx.Tx, id string, status model.ReservationStatus, email, fullName, billingAddress, language string, paymentMethod *model.PaymentMethod) error {
	args := m.Called(ctx, tx, id, status, email, fullName, billingAddress, language, paymentMethod)
	return args.Error(0)
}

func (m *ReservationRepositoryMock) UpdateValidity(ctx context.Context, tx pgx.Tx, id string, validUntil time.Time) error {
	args := m.Called(ctx, tx, id, validUntil)
	return args.Error(0)
}

func (m *ReservationRepositoryMock) UpdateStatus(ctx context.Context, tx pgx.Tx, id string, status model.ReservationStatus) (int64, error) {
	args := m.Called(ctx, tx, id, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *ReservationRepositoryMock) MarkComplete(ctx context.Context, tx pgx.Tx, id string, paymentMethod model.PaymentMethod, confirmedAt time.Time) (int64, error) {
	args := m.Called(ctx, tx, id, paymentMethod, confirmedAt)
	return args.Get(0).(int64), args.Error(1)
}

func (m *ReservationRepositoryMock) StoreOrderSummary(ctx context.Context, tx pgx.Tx, id string, summary []byte) error {
	args := m.Called(ctx, tx, id, summary)
	return args.Error(0)
}

func (m *ReservationRepositoryMock) FindExpiredBefore(ctx context.Context, tx pgx.Tx, ts time.Time) ([]string, error) {
	args := m.Called(ctx, tx, ts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *ReservationRepositoryMock) Remove(ctx context.Context, tx pgx.Tx, ids []string) (int64, error) {
	args := m.Called(ctx, tx, ids)
	return args.Get(0).(int64), args.Error(1)
}

type SpecialPriceRepositoryMock struct {
	mock.Mock
}

func NewSpecialPriceRepositoryMock() *SpecialPriceRepositoryMock {
	return &SpecialPriceRepositoryMock{}
}

func (m *SpecialPriceRepositoryMock) CountByCategory(ctx context.Context, tx pgx.Tx, categoryID int) (int, error) {
	args := m.Called(ctx, tx, categoryID)
	return args.Int(0), args.Error(1)
}

func (m *SpecialPriceRepositoryMock) BulkGenerate(ctx context.Context, tx pgx.Tx, categoryID int, n int) error {
	args := m.Called(ctx, tx, categoryID, n)
	return args.Error(0)
}

func (m *SpecialPriceRepositoryMock) FindActiveUnassigned(ctx context.Context, tx pgx.Tx, categoryID int, limit int) ([]*model.SpecialPrice, error) {
	args := m.Called(ctx, tx, categoryID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.SpecialPrice), args.Error(1)
}

func (m *SpecialPriceRepositoryMock) BindToSession(ctx context.Context, tx pgx.Tx, id int, sessionID string) error {
	args := m.Called(ctx, tx, id, sessionID)
	return args.Error(0)
}

func (m *SpecialPriceRepositoryMock) UpdateStatus(ctx context.Context, tx pgx.Tx, id int, status model.SpecialPriceStatus) error {
	args := m.Called(ctx, tx, id, status)
	return args.Error(0)
}

func (m *SpecialPriceRepositoryMock) FreeByTicketIDs(ctx context.Context, tx pgx.Tx, ticketIDs []int) error {
	args := m.Called(ctx, tx, ticketIDs)
	return args.Error(0)
}

type FieldValueRepositoryMock struct {
	mock.Mock
}

func NewFieldValueRepositoryMock() *FieldValueRepositoryMock {
	return &FieldValueRepositoryMock{}
}

func (m *FieldValueRepositoryMock) DeleteAllForTickets(ctx context.Context, tx pgx.Tx, ticketIDs []int) error {
	args := m.Called(ctx, tx, ticketIDs)
	return args.Error(0)
}

type AdditionalServiceItemRepositoryMock struct {
	mock.Mock
}

func NewAdditionalServiceItemRepositoryMock() *AdditionalServiceItemRepositoryMock {
	return &AdditionalServiceItemRepositoryMock{}
}

func (m *AdditionalServiceItemRepositoryMock) UpdateStatusForReservation(ctx context.Context, tx pgx.Tx, reservationID string, status model.AdditionalServiceItemStatus) error {
	args := m.Called(ctx, tx, reservationID, status)
	return args.Error(0)
}
