package mocks

import (
	"context"

	"ticket-reservation/internal/model"
	"ticket-reservation/internal/result"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// TxManagerMock runs the transactional closure with a nil pgx.Tx so service
// behavior can be exercised without a database. Commit/rollback outcomes are
// determined by the closure's own return value, exactly as in the real
// manager.
type TxManagerMock struct{}

func NewTxManagerMock() *TxManagerMock {
	return &TxManagerMock{}
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

type AvailabilityCacheMock struct {
	mock.Mock
}

func NewAvailabilityCacheMock() *AvailabilityCacheMock {
	return &AvailabilityCacheMock{}
}

func (m *AvailabilityCacheMock) SetFreeCount(ctx context.Context, eventID int, categoryID int, count int) error {
	args := m.Called(ctx, eventID, categoryID, count)
	return args.Error(0)
}

func (m *AvailabilityCacheMock) GetFreeCount(ctx context.Context, eventID int, categoryID int) (int, error) {
	args := m.Called(ctx, eventID, categoryID)
	return args.Int(0), args.Error(1)
}

func (m *AvailabilityCacheMock) InvalidateEvent(ctx context.Context, eventID int) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

type NotifierMock struct {
	mock.Mock
}

func NewNotifierMock() *NotifierMock {
	return &NotifierMock{}
}

func (m *NotifierMock) SendConfirmation(ctx context.Context, event *model.Event, reservation *model.TicketReservation) error {
	args := m.Called(ctx, event, reservation)
	return args.Error(0)
}

func (m *NotifierMock) SendTicketRemoved(ctx context.Context, event *model.Event, ticket *model.Ticket) error {
	args := m.Called(ctx, event, ticket)
	return args.Error(0)
}

func (m *NotifierMock) SendTicketAssigned(ctx context.Context, event *model.Event, reservation *model.TicketReservation, ticket *model.Ticket) error {
	args := m.Called(ctx, event, reservation, ticket)
	return args.Error(0)
}

type ConnectorMock struct {
	mock.Mock
}

func NewConnectorMock() *ConnectorMock {
	return &ConnectorMock{}
}

func (m *ConnectorMock) Refund(ctx context.Context, reservation *model.TicketReservation, event *model.Event, amount *decimal.Decimal) (bool, error) {
	args := m.Called(ctx, reservation, event, amount)
	return args.Bool(0), args.Error(1)
}

type TokenServiceMock struct {
	mock.Mock
}

func NewTokenServiceMock() *TokenServiceMock {
	return &TokenServiceMock{}
}

func (m *TokenServiceMock) BindTokens(ctx context.Context, tx pgx.Tx, category *model.TicketCategory, sessionID string, attendeeCount int) ([]*model.SpecialPrice, error) {
	args := m.Called(ctx, tx, category, sessionID, attendeeCount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.SpecialPrice), args.Error(1)
}

type AllocationServiceMock struct {
	mock.Mock
}

func NewAllocationServiceMock() *AllocationServiceMock {
	return &AllocationServiceMock{}
}

func (m *AllocationServiceMock) ResolveCategory(ctx context.Context, tx pgx.Tx, event *model.Event, ti model.TicketsInfo, mod model.ReservationModification) result.Result[*model.TicketCategory] {
	args := m.Called(ctx, tx, event, ti, mod)
	return args.Get(0).(result.Result[*model.TicketCategory])
}

func (m *AllocationServiceMock) ReserveForCategory(ctx context.Context, tx pgx.Tx, event *model.Event, category *model.TicketCategory, ti model.TicketsInfo, reservationID string, sessionID string) result.Result[[]int] {
	args := m.Called(ctx, tx, event, category, ti, reservationID, sessionID)
	return args.Get(0).(result.Result[[]int])
}
