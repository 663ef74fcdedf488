package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"ticket-reservation/internal/model"
	"ticket-reservation/internal/result"
	"ticket-reservation/internal/service"

	"github.com/stretchr/testify/assert"
)

// reservationServiceStub counts reaper invocations; the lifecycle methods
// are not exercised by the worker.
type reservationServiceStub struct {
	calls atomic.Int64
}

func (s *reservationServiceStub) Create(ctx context.Context, eventShortName string, mod model.ReservationModification) result.Result[*service.ReservationWithTickets] {
	panic("not used")
}

func (s *reservationServiceStub) Update(ctx context.Context, eventShortName string, reservationID string, mod model.ReservationModification) result.Result[bool] {
	panic("not used")
}

func (s *reservationServiceStub) Confirm(ctx context.Context, eventShortName string, reservationID string) result.Result[*service.ReservationWithTickets] {
	panic("not used")
}

func (s *reservationServiceStub) Cancel(ctx context.Context, eventShortName string, reservationID string) result.Result[bool] {
	panic("not used")
}

func (s *reservationServiceStub) TransitionToInPayment(ctx context.Context, reservationID string, customer model.CustomerData, paymentMethod model.PaymentMethod) result.Result[bool] {
	panic("not used")
}

func (s *reservationServiceStub) Load(ctx context.Context, eventShortName string, reservationID string) result.Result[*service.ReservationWithTickets] {
	panic("not used")
}

func (s *reservationServiceStub) Notify(ctx context.Context, eventShortName string, reservationID string, req model.NotificationRequest) result.Result[bool] {
	panic("not used")
}

func (s *reservationServiceStub) CleanupExpired(ctx context.Context, before time.Time) (int, error) {
	s.calls.Add(1)
	return 1, nil
}

func TestExpirationWorkerRunsPeriodically(t *testing.T) {
	stub := &reservationServiceStub{}
	w := NewExpirationWorker(stub, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.NoError(t, w.Start(ctx))

	assert.Eventually(t, func() bool {
		return stub.calls.Load() >= 2
	}, time.Second, 10*time.Millisecond)
}

func TestExpirationWorkerStopsOnContextCancel(t *testing.T) {
	stub := &reservationServiceStub{}
	w := NewExpirationWorker(stub, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	assert.NoError(t, w.Start(ctx))

	assert.Eventually(t, func() bool {
		return stub.calls.Load() >= 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	time.Sleep(20 * time.Millisecond)
	settled := stub.calls.Load()
	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, settled, stub.calls.Load())
}
