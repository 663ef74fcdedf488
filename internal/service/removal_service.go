package service

import (
	"context"

	"ticket-reservation/internal/cache"
	"ticket-reservation/internal/database"
	"ticket-reservation/internal/model"
	"ticket-reservation/internal/notification"
	"ticket-reservation/internal/payment"
	"ticket-reservation/internal/repository"
	"ticket-reservation/internal/result"
	"ticket-reservation/pkg/logger"
	"ticket-reservation/pkg/metrics"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RemovalOutcome reports what a partial removal actually did. Refund
// failures are listed instead of failing the removal: the seats are already
// freed and the money is reconciled out of band.
type RemovalOutcome struct {
	RemovedTicketIDs []int `json:"removed_ticket_ids"`
	FailedRefundIDs  []int `json:"failed_refund_ids,omitempty"`
	ReservationEnded bool  `json:"reservation_ended"`
}

// RemovalService handles taking tickets out of confirmed reservations, with
// the compensating refunds that implies.
type RemovalService interface {
	RemoveTickets(ctx context.Context, eventShortName string, reservationID string, ticketIDs []int, refundIDs []int) result.Result[*RemovalOutcome]
	RemoveReservation(ctx context.Context, eventShortName string, reservationID string, refund bool) result.Result[bool]
	Refund(ctx context.Context, eventShortName string, reservationID string, amount *decimal.Decimal) result.Result[bool]
	GetPaymentInfo(ctx context.Context, reservationID string) result.Result[*payment.TransactionAndPaymentInfo]
}

type RemovalServiceImpl struct {
	txManager             database.TxManager
	eventRepository       repository.EventRepository
	reservationRepository repository.ReservationRepository
	ticketRepository      repository.TicketRepository
	specialPriceRepo      repository.SpecialPriceRepository
	fieldValueRepo        repository.FieldValueRepository
	additionalServiceRepo repository.AdditionalServiceItemRepository
	availabilityCache     cache.AvailabilityCache
	notifier              notification.Notifier
	connector             payment.Connector
	log                   *zap.Logger
}

func NewRemovalService(
	txManager database.TxManager,
	eventRepository repository.EventRepository,
	reservationRepository repository.ReservationRepository,
	ticketRepository repository.TicketRepository,
	specialPriceRepo repository.SpecialPriceRepository,
	fieldValueRepo repository.FieldValueRepository,
	additionalServiceRepo repository.AdditionalServiceItemRepository,
	availabilityCache cache.AvailabilityCache,
	notifier notification.Notifier,
	connector payment.Connector,
) RemovalService {
	return &RemovalServiceImpl{
		txManager:             txManager,
		eventRepository:       eventRepository,
		reservationRepository: reservationRepository,
		ticketRepository:      ticketRepository,
		specialPriceRepo:      specialPriceRepo,
		fieldValueRepo:        fieldValueRepo,
		additionalServiceRepo: additionalServiceRepo,
		availabilityCache:     availabilityCache,
		notifier:              notifier,
		connector:             connector,
		log:                   logger.WithComponent("removal_service"),
	}
}

type removalContext struct {
	event       *model.Event
	reservation *model.TicketReservation
	byID        map[int]*model.Ticket
}

// loadForRemoval locks the reservation and verifies the requested tickets
// actually belong to it before anything is mutated.
func (s *RemovalServiceImpl) loadForRemoval(ctx context.Context, tx pgx.Tx, eventShortName, reservationID string, ticketIDs []int) (*removalContext, *result.ErrorCode) {
	event, err := s.eventRepository.FindByShortName(ctx, eventShortName)
	if err != nil {
		e := result.EventNotFound
		return nil, &e
	}

	reservation, err := s.reservationRepository.FindByIDForUpdate(ctx, tx, reservationID)
	if err != nil {
		e := result.ReservationNotFound
		return nil, &e
	}

	members, err := s.ticketRepository.FindInReservation(ctx, tx, reservationID)
	if err != nil {
		e := result.Custom("INTERNAL_ERROR", err.Error())
		return nil, &e
	}

	byID := make(map[int]*model.Ticket, len(members))
	for _, t := range members {
		byID[t.ID] = t
	}
	for _, id := range ticketIDs {
		if _, ok := byID[id]; !ok {
			e := result.TicketsNotInReservation
			return nil, &e
		}
	}

	return &removalContext{event: event, reservation: reservation, byID: byID}, nil
}

// RemoveTickets removes the listed tickets from a confirmed reservation.
// Tickets listed in refundIDs get a compensating refund of their final
// price, issued per ticket after the removal commits. The two sets may
// overlap; both must be members of the reservation before anything is
// mutated. When the removal empties the reservation, the whole reservation
// moves to CANCELLED in the same transaction.
func (s *RemovalServiceImpl) RemoveTickets(ctx context.Context, eventShortName string, reservationID string, ticketIDs []int, refundIDs []int) result.Result[*RemovalOutcome] {
	if len(ticketIDs) == 0 {
		return result.Error[*RemovalOutcome](result.StatusValidationError,
			result.Custom("NO_TICKETS_SELECTED", "no tickets selected for removal"))
	}

	members := make([]int, 0, len(ticketIDs)+len(refundIDs))
	members = append(members, ticketIDs...)
	members = append(members, refundIDs...)

	var rc *removalContext
	res := withinTxResult(ctx, s.txManager, s.log, func(tx pgx.Tx) result.Result[*RemovalOutcome] {
		loaded, errCode := s.loadForRemoval(ctx, tx, eventShortName, reservationID, members)
		if errCode != nil {
			return removalFailure(*errCode)
		}
		rc = loaded

		if rc.reservation.Status != model.ReservationStatusComplete {
			return result.Conflict[*RemovalOutcome](result.InvalidStatus)
		}

		if err := s.releaseTickets(ctx, tx, ticketIDs); err != nil {
			return result.Internal[*RemovalOutcome](result.Custom("INTERNAL_ERROR", err.Error()))
		}

		remaining, err := s.ticketRepository.FindInReservation(ctx, tx, reservationID)
		if err != nil {
			return result.Internal[*RemovalOutcome](result.Custom("INTERNAL_ERROR", err.Error()))
		}

		outcome := &RemovalOutcome{RemovedTicketIDs: ticketIDs}
		if len(remaining) == 0 {
			if err := s.additionalServiceRepo.UpdateStatusForReservation(ctx, tx, reservationID, model.AdditionalServiceItemStatusCancelled); err != nil {
				return result.Internal[*RemovalOutcome](result.Custom("INTERNAL_ERROR", err.Error()))
			}
			if _, err := s.reservationRepository.UpdateStatus(ctx, tx, reservationID, model.ReservationStatusCancelled); err != nil {
				return result.Internal[*RemovalOutcome](result.Custom("INTERNAL_ERROR", err.Error()))
			}
			outcome.ReservationEnded = true
		}
		return result.Success(outcome)
	})

	if !res.IsSuccess() {
		return res
	}

	s.invalidateAvailability(ctx, rc.event.ID)

	// Refunds run after commit, one per ticket. A failed refund never undoes
	// the removal; it is reported back for manual follow-up.
	for _, id := range refundIDs {
		if !s.refundTicket(ctx, rc, rc.byID[id]) {
			res.Data.FailedRefundIDs = append(res.Data.FailedRefundIDs, id)
		}
	}

	for _, id := range ticketIDs {
		ticket := rc.byID[id]
		if !ticket.Assigned() {
			continue
		}
		if err := s.notifier.SendTicketRemoved(ctx, rc.event, ticket); err != nil {
			s.log.Warn("ticket removed but notification failed",
				zap.Int("ticket_id", ticket.ID), zap.Error(err))
		}
	}

	return res
}

func removalFailure(code result.ErrorCode) result.Result[*RemovalOutcome] {
	switch code.Code {
	case result.EventNotFound.Code, result.ReservationNotFound.Code:
		return result.NotFound[*RemovalOutcome](code)
	case result.TicketsNotInReservation.Code:
		return result.Error[*RemovalOutcome](result.StatusValidationError, code)
	default:
		return result.Internal[*RemovalOutcome](code)
	}
}

// releaseTickets puts the rows back into circulation: discount codes freed,
// field values purged, unbounded categories detached, ticket state reset to
// FREE.
func (s *RemovalServiceImpl) releaseTickets(ctx context.Context, tx pgx.Tx, ticketIDs []int) error {
	if err := s.specialPriceRepo.FreeByTicketIDs(ctx, tx, ticketIDs); err != nil {
		return err
	}
	if err := s.fieldValueRepo.DeleteAllForTickets(ctx, tx, ticketIDs); err != nil {
		return err
	}
	if err := s.ticketRepository.ResetCategoryForUnbounded(ctx, tx, ticketIDs); err != nil {
		return err
	}
	return s.ticketRepository.ResetTickets(ctx, tx, ticketIDs)
}

func (s *RemovalServiceImpl) refundTicket(ctx context.Context, rc *removalContext, ticket *model.Ticket) bool {
	if rc.reservation.PaymentMethod == nil || !rc.reservation.PaymentMethod.SupportsRefund() {
		s.log.Warn("refund requested for non-refundable payment method",
			zap.Int("ticket_id", ticket.ID), zap.String("reservation_id", rc.reservation.ID))
		metrics.RefundFailures.Inc()
		return false
	}
	amount := ticket.FinalPrice
	ok, err := s.connector.Refund(ctx, rc.reservation, rc.event, &amount)
	if err != nil || !ok {
		s.log.Error("refund failed",
			zap.Int("ticket_id", ticket.ID),
			zap.String("reservation_id", rc.reservation.ID),
			zap.Error(err))
		metrics.RefundFailures.Inc()
		return false
	}
	metrics.RefundsIssued.Inc()
	return true
}

// RemoveReservation cancels the whole reservation and optionally issues one
// full refund. The refund runs inside the same transaction here: if the
// processor rejects a full-reservation refund the cancellation must not
// stand.
func (s *RemovalServiceImpl) RemoveReservation(ctx context.Context, eventShortName string, reservationID string, refund bool) result.Result[bool] {
	var eventID int
	res := withinTxResult(ctx, s.txManager, s.log, func(tx pgx.Tx) result.Result[bool] {
		event, err := s.eventRepository.FindByShortName(ctx, eventShortName)
		if err != nil {
			return result.NotFound[bool](result.EventNotFound)
		}
		eventID = event.ID

		reservation, err := s.reservationRepository.FindByIDForUpdate(ctx, tx, reservationID)
		if err != nil {
			return result.NotFound[bool](result.ReservationNotFound)
		}

		if !reservation.Status.CanTransitionTo(model.ReservationStatusCancelled) {
			return result.Conflict[bool](result.InvalidStatus)
		}

		if refund {
			if reservation.PaymentMethod == nil || !reservation.PaymentMethod.SupportsRefund() {
				return result.Conflict[bool](result.RefundNotSupported)
			}
			ok, err := s.connector.Refund(ctx, reservation, event, nil)
			if err != nil || !ok {
				metrics.RefundFailures.Inc()
				return result.Conflict[bool](result.Custom("REFUND_FAILED", "full refund was rejected by the payment provider"))
			}
			metrics.RefundsIssued.Inc()
		}

		tickets, err := s.ticketRepository.FindInReservation(ctx, tx, reservationID)
		if err != nil {
			return result.Internal[bool](result.Custom("INTERNAL_ERROR", err.Error()))
		}
		if len(tickets) > 0 {
			ids := make([]int, len(tickets))
			for i, t := range tickets {
				ids[i] = t.ID
			}
			if err := s.releaseTickets(ctx, tx, ids); err != nil {
				return result.Internal[bool](result.Custom("INTERNAL_ERROR", err.Error()))
			}
		}

		if err := s.additionalServiceRepo.UpdateStatusForReservation(ctx, tx, reservationID, model.AdditionalServiceItemStatusCancelled); err != nil {
			return result.Internal[bool](result.Custom("INTERNAL_ERROR", err.Error()))
		}
		if _, err := s.reservationRepository.UpdateStatus(ctx, tx, reservationID, model.ReservationStatusCancelled); err != nil {
			return result.Internal[bool](result.Custom("INTERNAL_ERROR", err.Error()))
		}

		return result.Success(true)
	})

	if res.IsSuccess() {
		metrics.ReservationsByOutcome.WithLabelValues("removed").Inc()
		s.invalidateAvailability(ctx, eventID)
	}
	return res
}

// Refund issues a standalone partial (or, with a nil amount, full) refund
// without touching the reservation state.
func (s *RemovalServiceImpl) Refund(ctx context.Context, eventShortName string, reservationID string, amount *decimal.Decimal) result.Result[bool] {
	event, err := s.eventRepository.FindByShortName(ctx, eventShortName)
	if err != nil {
		return result.NotFound[bool](result.EventNotFound)
	}

	reservation, err := s.reservationRepository.FindByID(ctx, reservationID)
	if err != nil {
		return result.NotFound[bool](result.ReservationNotFound)
	}

	if reservation.Status != model.ReservationStatusComplete {
		return result.Conflict[bool](result.InvalidStatus)
	}
	if reservation.PaymentMethod == nil || !reservation.PaymentMethod.SupportsRefund() {
		return result.Conflict[bool](result.RefundNotSupported)
	}
	if amount != nil && amount.IsNegative() {
		return result.Error[bool](result.StatusValidationError,
			result.Custom("INVALID_AMOUNT", "refund amount must not be negative"))
	}

	ok, err := s.connector.Refund(ctx, reservation, event, amount)
	if err != nil || !ok {
		metrics.RefundFailures.Inc()
		return result.Conflict[bool](result.Custom("REFUND_FAILED", "refund was rejected by the payment provider"))
	}
	metrics.RefundsIssued.Inc()
	return result.Success(true)
}

// GetPaymentInfo reports the payment method, refundability and total charged
// for a reservation.
func (s *RemovalServiceImpl) GetPaymentInfo(ctx context.Context, reservationID string) result.Result[*payment.TransactionAndPaymentInfo] {
	reservation, err := s.reservationRepository.FindByID(ctx, reservationID)
	if err != nil {
		return result.NotFound[*payment.TransactionAndPaymentInfo](result.ReservationNotFound)
	}

	tickets, err := s.ticketRepository.ListInReservation(ctx, reservationID)
	if err != nil {
		return result.Internal[*payment.TransactionAndPaymentInfo](result.Custom("INTERNAL_ERROR", err.Error()))
	}

	total := decimal.Zero
	for _, t := range tickets {
		total = total.Add(t.FinalPrice)
	}

	info := &payment.TransactionAndPaymentInfo{
		ReservationID: reservation.ID,
		PaymentMethod: reservation.PaymentMethod,
		TotalCharged:  total,
	}
	if reservation.PaymentMethod != nil {
		info.SupportsRefund = reservation.PaymentMethod.SupportsRefund()
	}
	return result.Success(info)
}

func (s *RemovalServiceImpl) invalidateAvailability(ctx context.Context, eventID int) {
	if err := s.availabilityCache.InvalidateEvent(ctx, eventID); err != nil {
		s.log.Warn("failed to invalidate availability cache", zap.Int("event_id", eventID), zap.Error(err))
	}
}
