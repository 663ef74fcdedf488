// Package payment defines the connector consumed by the removal and refund
// workflow. Refund execution against an actual processor lives behind this
// interface; failures are surfaced to the caller and never retried here.
package payment

import (
	"context"

	"ticket-reservation/internal/model"

	"github.com/shopspring/decimal"
)

// Connector issues compensating refunds. A nil amount means a full refund of
// the reservation.
type Connector interface {
	Refund(ctx context.Context, reservation *model.TicketReservation, event *model.Event, amount *decimal.Decimal) (bool, error)
}

// TransactionAndPaymentInfo is the read model returned by payment-info
// lookups.
type TransactionAndPaymentInfo struct {
	ReservationID  string               `json:"reservation_id"`
	PaymentMethod  *model.PaymentMethod `json:"payment_method,omitempty"`
	SupportsRefund bool                 `json:"supports_refund"`
	TotalCharged   decimal.Decimal      `json:"total_charged"`
}
