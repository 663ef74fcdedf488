package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TicketsAllocated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_allocated_total",
			Help: "Tickets allocated to reservations",
		},
		[]string{"event_id"},
	)

	AllocationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "allocation_failures_total",
			Help: "Allocation attempts rejected for insufficient seats",
		},
		[]string{"event_id"},
	)

	SeatsGrown = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seats_grown_total",
			Help: "Extra seats created through authorized capacity growth",
		},
		[]string{"event_id"},
	)

	ReservationsByOutcome = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservations_total",
			Help: "Reservation lifecycle outcomes",
		},
		[]string{"outcome"},
	)

	RefundsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refunds_issued_total",
			Help: "Compensating refunds issued to the payment connector",
		},
	)

	RefundFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "refund_failures_total",
			Help: "Refund calls rejected by the payment connector",
		},
	)
)
