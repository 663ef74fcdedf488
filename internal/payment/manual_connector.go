package payment

import (
	"context"

	"ticket-reservation/internal/model"
	"ticket-reservation/pkg/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ManualConnector records refunds as operator actions without calling a
// processor. Used for reservations paid on site or off line, and as the
// default wiring until a gateway adapter is configured.
type ManualConnector struct{}

func NewManualConnector() *ManualConnector {
	return &ManualConnector{}
}

func (c *ManualConnector) Refund(ctx context.Context, reservation *model.TicketReservation, event *model.Event, amount *decimal.Decimal) (bool, error) {
	log := logger.WithComponent("payment").With(
		zap.String("reservation_id", reservation.ID),
		zap.Int("event_id", event.ID),
	)
	if amount != nil {
		log.Info("manual refund recorded", zap.String("amount", amount.String()))
	} else {
		log.Info("manual full refund recorded")
	}
	return true, nil
}
