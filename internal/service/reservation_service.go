package service

import (
	"context"
	"encoding/json"
	"time"

	"ticket-reservation/config"
	"ticket-reservation/internal/cache"
	"ticket-reservation/internal/database"
	"ticket-reservation/internal/model"
	"ticket-reservation/internal/notification"
	"ticket-reservation/internal/repository"
	"ticket-reservation/internal/result"
	"ticket-reservation/pkg/logger"
	"ticket-reservation/pkg/metrics"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReservationWithTickets is the aggregate returned by reservation reads and
// by the create/confirm use cases.
type ReservationWithTickets struct {
	Reservation *model.TicketReservation `json:"reservation"`
	Tickets     []*model.Ticket          `json:"tickets"`
	Event       *model.Event             `json:"event"`
}

// ReservationService owns the reservation state machine and the transaction
// boundary of every lifecycle use case.
type ReservationService interface {
	Create(ctx context.Context, eventShortName string, mod model.ReservationModification) result.Result[*ReservationWithTickets]
	Update(ctx context.Context, eventShortName string, reservationID string, mod model.ReservationModification) result.Result[bool]
	Confirm(ctx context.Context, eventShortName string, reservationID string) result.Result[*ReservationWithTickets]
	Cancel(ctx context.Context, eventShortName string, reservationID string) result.Result[bool]
	TransitionToInPayment(ctx context.Context, reservationID string, customer model.CustomerData, paymentMethod model.PaymentMethod) result.Result[bool]
	Load(ctx context.Context, eventShortName string, reservationID string) result.Result[*ReservationWithTickets]
	Notify(ctx context.Context, eventShortName string, reservationID string, req model.NotificationRequest) result.Result[bool]
	CleanupExpired(ctx context.Context, before time.Time) (int, error)
}

type ReservationServiceImpl struct {
	txManager             database.TxManager
	eventRepository       repository.EventRepository
	reservationRepository repository.ReservationRepository
	ticketRepository      repository.TicketRepository
	specialPriceRepo      repository.SpecialPriceRepository
	fieldValueRepo        repository.FieldValueRepository
	additionalServiceRepo repository.AdditionalServiceItemRepository
	allocationService     AllocationService
	availabilityCache     cache.AvailabilityCache
	notifier              notification.Notifier
	cfg                   config.ReservationConfig
	log                   *zap.Logger
}

func NewReservationService(
	txManager database.TxManager,
	eventRepository repository.EventRepository,
	reservationRepository repository.ReservationRepository,
	ticketRepository repository.TicketRepository,
	specialPriceRepo repository.SpecialPriceRepository,
	fieldValueRepo repository.FieldValueRepository,
	additionalServiceRepo repository.AdditionalServiceItemRepository,
	allocationService AllocationService,
	availabilityCache cache.AvailabilityCache,
	notifier notification.Notifier,
	cfg config.ReservationConfig,
) ReservationService {
	return &ReservationServiceImpl{
		txManager:             txManager,
		eventRepository:       eventRepository,
		reservationRepository: reservationRepository,
		ticketRepository:      ticketRepository,
		specialPriceRepo:      specialPriceRepo,
		fieldValueRepo:        fieldValueRepo,
		additionalServiceRepo: additionalServiceRepo,
		allocationService:     allocationService,
		availabilityCache:     availabilityCache,
		notifier:              notifier,
		cfg:                   cfg,
		log:                   logger.WithComponent("reservation_service"),
	}
}

// Create opens one transaction, resolves every requested category, allocates
// seats per category, binds discount codes, writes attendee data, snapshots
// the order summary and commits as a single unit. Per-category failures are
// aggregated: every failing category is reported, not just the first.
func (s *ReservationServiceImpl) Create(ctx context.Context, eventShortName string, mod model.ReservationModification) result.Result[*ReservationWithTickets] {
	res := withinTxResult(ctx, s.txManager, s.log, func(tx pgx.Tx) result.Result[*ReservationWithTickets] {
		event, err := s.eventRepository.FindByShortNameForUpdate(ctx, tx, eventShortName)
		if err != nil {
			return result.NotFound[*ReservationWithTickets](result.EventNotFound)
		}

		total := 0
		for _, ti := range mod.TicketsInfo {
			total += len(ti.Attendees)
		}
		if total == 0 || (s.cfg.MaxTicketsPerReservation > 0 && total > s.cfg.MaxTicketsPerReservation) {
			return result.Error[*ReservationWithTickets](result.StatusValidationError,
				result.Custom("INVALID_TICKET_COUNT", "requested ticket count is out of range"))
		}

		reservationID := uuid.New().String()
		sessionID := uuid.New().String()

		validity := mod.Expiration
		if validity.IsZero() {
			validity = event.Now().Add(time.Duration(s.cfg.ValidityMinutes) * time.Minute)
		}

		if err := s.reservationRepository.Create(ctx, tx, reservationID, event.ID, validity, mod.Language); err != nil {
			return result.Internal[*ReservationWithTickets](result.Custom("INTERNAL_ERROR", err.Error()))
		}
		customer := mod.CustomerData
		if err := s.reservationRepository.UpdateContact(ctx, tx, reservationID, model.ReservationStatusPending,
			customer.Email, customer.FullName(), customer.BillingAddress, mod.Language, nil); err != nil {
			return result.Internal[*ReservationWithTickets](result.Custom("INTERNAL_ERROR", err.Error()))
		}

		// Phase one: resolve every category. Results are reduced rather than
		// short-circuited so each category's error is collected.
		grouped := flattenTicketsInfo(mod.TicketsInfo)
		resolved := make([]categoryAllocation, 0, len(grouped))
		categoryCheck := result.Success(true)
		for _, ti := range grouped {
			rc := s.allocationService.ResolveCategory(ctx, tx, event, ti, mod)
			if rc.IsSuccess() {
				resolved = append(resolved, categoryAllocation{category: rc.Data, ticketsInfo: ti})
			}
			categoryCheck = result.Reduce(categoryCheck, result.Map(rc, func(*model.TicketCategory) bool { return true }), mergeBool)
		}
		if !categoryCheck.IsSuccess() {
			return result.Error[*ReservationWithTickets](categoryCheck.Status, categoryCheck.Errors...)
		}

		// Phase two: allocate per category, again reducing all outcomes.
		allocated := result.Success([]int{})
		for _, ca := range resolved {
			ra := s.allocationService.ReserveForCategory(ctx, tx, event, ca.category, ca.ticketsInfo, reservationID, sessionID)
			allocated = result.Reduce(allocated, ra, mergeIDs)
		}
		if !allocated.IsSuccess() {
			return result.Error[*ReservationWithTickets](allocated.Status, allocated.Errors...)
		}

		tickets, err := s.ticketRepository.FindInReservation(ctx, tx, reservationID)
		if err != nil {
			return result.Internal[*ReservationWithTickets](result.Custom("INTERNAL_ERROR", err.Error()))
		}

		summary := buildOrderSummary(reservationID, event, resolved)
		summaryJSON, err := json.Marshal(summary)
		if err != nil {
			return result.Internal[*ReservationWithTickets](result.Custom("INTERNAL_ERROR", err.Error()))
		}
		if err := s.reservationRepository.StoreOrderSummary(ctx, tx, reservationID, summaryJSON); err != nil {
			return result.Internal[*ReservationWithTickets](result.Custom("INTERNAL_ERROR", err.Error()))
		}

		reservation, err := s.reservationRepository.FindByIDForUpdate(ctx, tx, reservationID)
		if err != nil {
			return result.Internal[*ReservationWithTickets](result.Custom("INTERNAL_ERROR", err.Error()))
		}

		return result.Success(&ReservationWithTickets{Reservation: reservation, Tickets: tickets, Event: event})
	})

	if res.IsSuccess() {
		metrics.ReservationsByOutcome.WithLabelValues("created").Inc()
		s.invalidateAvailability(ctx, res.Data.Event.ID)
	}
	return res
}

type categoryAllocation struct {
	category    *model.TicketCategory
	ticketsInfo model.TicketsInfo
}

func mergeBool(a, b bool) bool { return a && b }

func mergeIDs(a, b []int) []int {
	joined := make([]int, 0, len(a)+len(b))
	joined = append(joined, a...)
	joined = append(joined, b...)
	return joined
}

// flattenTicketsInfo merges the groups that target the same existing
// category so each category's growth decision happens exactly once. Groups
// for new categories stay separate. Merged growth authorization is the
// conjunction of the members'.
func flattenTicketsInfo(infos []model.TicketsInfo) []model.TicketsInfo {
	merged := make([]model.TicketsInfo, 0, len(infos))
	byCategory := make(map[int]int)
	for _, ti := range infos {
		if !ti.Category.IsExisting() {
			merged = append(merged, ti)
			continue
		}
		id := *ti.Category.ExistingCategoryID
		if idx, ok := byCategory[id]; ok {
			existing := merged[idx]
			existing.Attendees = append(existing.Attendees, ti.Attendees...)
			existing.AddSeatsIfNotAvailable = existing.AddSeatsIfNotAvailable && ti.AddSeatsIfNotAvailable
			existing.UpdateAttendees = existing.UpdateAttendees && ti.UpdateAttendees
			merged[idx] = existing
			continue
		}
		byCategory[id] = len(merged)
		merged = append(merged, ti)
	}
	return merged
}

func buildOrderSummary(reservationID string, event *model.Event, allocations []categoryAllocation) model.OrderSummary {
	summary := model.OrderSummary{
		ReservationID: reservationID,
		Currency:      event.Currency,
		Total:         decimal.Zero,
	}
	for _, ca := range allocations {
		quantity := len(ca.ticketsInfo.Attendees)
		subTotal := ca.category.Price.Mul(decimal.NewFromInt(int64(quantity)))
		summary.Rows = append(summary.Rows, model.OrderSummaryRow{
			CategoryName: ca.category.Name,
			Quantity:     quantity,
			UnitPrice:    ca.category.Price,
			SubTotal:     subTotal,
		})
		summary.Total = summary.Total.Add(subTotal)
	}
	return summary
}

// Update extends validity and optionally overwrites contact data and
// attendee identities on already-allocated tickets. It never re-runs
// allocation.
func (s *ReservationServiceImpl) Update(ctx context.Context, eventShortName string, reservationID string, mod model.ReservationModification) result.Result[bool] {
	return withinTxResult(ctx, s.txManager, s.log, func(tx pgx.Tx) result.Result[bool] {
		if _, err := s.eventRepository.FindByShortName(ctx, eventShortName); err != nil {
			return result.NotFound[bool](result.EventNotFound)
		}

		reservation, err := s.reservationRepository.FindByIDForUpdate(ctx, tx, reservationID)
		if err != nil {
			return result.NotFound[bool](result.ReservationNotFound)
		}

		if !mod.Expiration.IsZero() {
			if err := s.reservationRepository.UpdateValidity(ctx, tx, reservationID, mod.Expiration); err != nil {
				return result.Internal[bool](result.Custom("INTERNAL_ERROR", err.Error()))
			}
		}

		if mod.UpdateContactData {
			customer := mod.CustomerData
			if err := s.reservationRepository.UpdateContact(ctx, tx, reservationID, reservation.Status,
				customer.Email, customer.FullName(), customer.BillingAddress, mod.Language, reservation.PaymentMethod); err != nil {
				return result.Internal[bool](result.Custom("INTERNAL_ERROR", err.Error()))
			}
		}

		var targets []int
		for _, ti := range mod.TicketsInfo {
			if !ti.UpdateAttendees {
				continue
			}
			for _, attendee := range ti.Attendees {
				if attendee.TicketID != 0 {
					targets = append(targets, attendee.TicketID)
				}
			}
		}

		if len(targets) > 0 {
			// Attendee rewrites only apply to the reservation's own tickets.
			owned, err := s.ticketRepository.FindByIDs(ctx, targets)
			if err != nil {
				return result.Internal[bool](result.Custom("INTERNAL_ERROR", err.Error()))
			}
			byID := make(map[int]*model.Ticket, len(owned))
			for _, t := range owned {
				byID[t.ID] = t
			}
			for _, id := range targets {
				t, ok := byID[id]
				if !ok || t.ReservationID == nil || *t.ReservationID != reservationID {
					return result.Error[bool](result.StatusValidationError, result.TicketsNotInReservation)
				}
			}
		}

		for _, ti := range mod.TicketsInfo {
			if !ti.UpdateAttendees {
				continue
			}
			for _, attendee := range ti.Attendees {
				if attendee.TicketID == 0 {
					continue
				}
				if err := s.ticketRepository.UpdateOwner(ctx, tx, attendee.TicketID, attendee.Email, attendee.FullName()); err != nil {
					return result.Error[bool](result.StatusConflict, result.UpdateFailed)
				}
			}
		}

		return result.Success(true)
	})
}

// Confirm moves a pending reservation to COMPLETE and its tickets to
// ACQUIRED. Confirming an already-COMPLETE (or cancelled) reservation fails
// without mutating anything; confirm is deliberately not idempotent. The
// customer-facing confirmation goes out after the state is committed, and a
// notification failure surfaces as an error without rolling the
// confirmation back.
func (s *ReservationServiceImpl) Confirm(ctx context.Context, eventShortName string, reservationID string) result.Result[*ReservationWithTickets] {
	res := withinTxResult(ctx, s.txManager, s.log, func(tx pgx.Tx) result.Result[*ReservationWithTickets] {
		event, err := s.eventRepository.FindByShortName(ctx, eventShortName)
		if err != nil {
			return result.NotFound[*ReservationWithTickets](result.EventNotFound)
		}

		reservation, err := s.reservationRepository.FindByIDForUpdate(ctx, tx, reservationID)
		if err != nil {
			return result.NotFound[*ReservationWithTickets](result.ReservationNotFound)
		}

		if !reservation.Status.CanTransitionTo(model.ReservationStatusComplete) {
			return result.Conflict[*ReservationWithTickets](result.InvalidStatus)
		}

		updatedTickets, err := s.ticketRepository.UpdateStatusForReservation(ctx, tx, reservationID, model.TicketStatusAcquired)
		if err != nil || updatedTickets == 0 {
			return result.Conflict[*ReservationWithTickets](result.UpdateFailed)
		}

		paymentMethod := model.PaymentMethodAdmin
		if reservation.PaymentMethod != nil {
			paymentMethod = *reservation.PaymentMethod
		}
		updated, err := s.reservationRepository.MarkComplete(ctx, tx, reservationID, paymentMethod, time.Now().UTC())
		if err != nil || updated != 1 {
			return result.Conflict[*ReservationWithTickets](result.UpdateFailed)
		}

		tickets, err := s.ticketRepository.FindInReservation(ctx, tx, reservationID)
		if err != nil {
			return result.Internal[*ReservationWithTickets](result.Custom("INTERNAL_ERROR", err.Error()))
		}

		// Discount codes bound to the tickets are consumed for good once the
		// reservation completes.
		for _, t := range tickets {
			if t.SpecialPriceID == nil {
				continue
			}
			if err := s.specialPriceRepo.UpdateStatus(ctx, tx, *t.SpecialPriceID, model.SpecialPriceStatusTaken); err != nil {
				return result.Internal[*ReservationWithTickets](result.Custom("INTERNAL_ERROR", err.Error()))
			}
		}

		refreshed, err := s.reservationRepository.FindByIDForUpdate(ctx, tx, reservationID)
		if err != nil {
			return result.Internal[*ReservationWithTickets](result.Custom("INTERNAL_ERROR", err.Error()))
		}

		return result.Success(&ReservationWithTickets{Reservation: refreshed, Tickets: tickets, Event: event})
	})

	if !res.IsSuccess() {
		return res
	}

	metrics.ReservationsByOutcome.WithLabelValues("confirmed").Inc()
	s.invalidateAvailability(ctx, res.Data.Event.ID)

	if err := s.notifier.SendConfirmation(ctx, res.Data.Event, res.Data.Reservation); err != nil {
		s.log.Error("confirmation committed but notification failed",
			zap.String("reservation_id", reservationID), zap.Error(err))
		return result.Error[*ReservationWithTickets](result.StatusInternalError,
			result.Custom("NOTIFICATION_FAILED", "reservation confirmed, confirmation email not sent"))
	}
	return res
}

// Cancel frees every ticket back to FREE, clears unbounded category
// associations, releases discount codes, removes field values and cascades
// the cancellation to additional-service items. Cancelling an
// already-cancelled reservation is a no-op failure surfaced through the
// Result.
func (s *ReservationServiceImpl) Cancel(ctx context.Context, eventShortName string, reservationID string) result.Result[bool] {
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

		tickets, err := s.ticketRepository.FindInReservation(ctx, tx, reservationID)
		if err != nil {
			return result.Internal[bool](result.Custom("INTERNAL_ERROR", err.Error()))
		}

		ids := make([]int, len(tickets))
		for i, t := range tickets {
			ids[i] = t.ID
		}

		if len(ids) > 0 {
			if err := s.specialPriceRepo.FreeByTicketIDs(ctx, tx, ids); err != nil {
				return result.Internal[bool](result.Custom("INTERNAL_ERROR", err.Error()))
			}
			if err := s.fieldValueRepo.DeleteAllForTickets(ctx, tx, ids); err != nil {
				return result.Internal[bool](result.Custom("INTERNAL_ERROR", err.Error()))
			}
			if err := s.ticketRepository.ResetCategoryForUnbounded(ctx, tx, ids); err != nil {
				return result.Internal[bool](result.Custom("INTERNAL_ERROR", err.Error()))
			}
			if err := s.ticketRepository.ResetTickets(ctx, tx, ids); err != nil {
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
		metrics.ReservationsByOutcome.WithLabelValues("cancelled").Inc()
		s.invalidateAvailability(ctx, eventID)
	}
	return res
}

// TransitionToInPayment marks a pending reservation as handed over to the
// payment flow, saving the customer contact data alongside.
func (s *ReservationServiceImpl) TransitionToInPayment(ctx context.Context, reservationID string, customer model.CustomerData, paymentMethod model.PaymentMethod) result.Result[bool] {
	return withinTxResult(ctx, s.txManager, s.log, func(tx pgx.Tx) result.Result[bool] {
		reservation, err := s.reservationRepository.FindByIDForUpdate(ctx, tx, reservationID)
		if err != nil {
			return result.NotFound[bool](result.ReservationNotFound)
		}

		if !reservation.Status.CanTransitionTo(model.ReservationStatusInPayment) {
			return result.Conflict[bool](result.InvalidStatus)
		}

		if err := s.reservationRepository.UpdateContact(ctx, tx, reservationID, model.ReservationStatusInPayment,
			customer.Email, customer.FullName(), customer.BillingAddress, reservation.UserLanguage, &paymentMethod); err != nil {
			return result.Internal[bool](result.Custom("INTERNAL_ERROR", err.Error()))
		}

		return result.Success(true)
	})
}

// Load reads the reservation aggregate without mutating anything. The event
// is resolved through the reservation itself, so a reservation id under the
// wrong event path comes back as not found.
func (s *ReservationServiceImpl) Load(ctx context.Context, eventShortName string, reservationID string) result.Result[*ReservationWithTickets] {
	event, err := s.eventRepository.FindByReservationID(ctx, reservationID)
	if err != nil {
		return result.NotFound[*ReservationWithTickets](result.ReservationNotFound)
	}
	if event.ShortName != eventShortName {
		return result.NotFound[*ReservationWithTickets](result.ReservationNotFound)
	}

	reservation, err := s.reservationRepository.FindByID(ctx, reservationID)
	if err != nil {
		return result.NotFound[*ReservationWithTickets](result.ReservationNotFound)
	}

	tickets, err := s.ticketRepository.ListInReservation(ctx, reservationID)
	if err != nil {
		return result.Internal[*ReservationWithTickets](result.Custom("INTERNAL_ERROR", err.Error()))
	}

	return result.Success(&ReservationWithTickets{Reservation: reservation, Tickets: tickets, Event: event})
}

// Notify re-sends the confirmation to the customer and/or each assigned
// attendee's ticket.
func (s *ReservationServiceImpl) Notify(ctx context.Context, eventShortName string, reservationID string, req model.NotificationRequest) result.Result[bool] {
	loaded := s.Load(ctx, eventShortName, reservationID)
	if !loaded.IsSuccess() {
		return result.Error[bool](loaded.Status, loaded.Errors...)
	}

	aggregate := loaded.Data
	if req.Customer {
		if err := s.notifier.SendConfirmation(ctx, aggregate.Event, aggregate.Reservation); err != nil {
			return result.Internal[bool](result.Custom("NOTIFICATION_FAILED", err.Error()))
		}
	}
	if req.Attendees {
		for _, ticket := range aggregate.Tickets {
			if !ticket.Assigned() {
				continue
			}
			if err := s.notifier.SendTicketAssigned(ctx, aggregate.Event, aggregate.Reservation, ticket); err != nil {
				return result.Internal[bool](result.Custom("NOTIFICATION_FAILED", err.Error()))
			}
		}
	}
	return result.Success(true)
}

// CleanupExpired reaps pending reservations whose validity deadline passed:
// tickets return to FREE and the reservation rows are removed, all in one
// transaction.
func (s *ReservationServiceImpl) CleanupExpired(ctx context.Context, before time.Time) (int, error) {
	reaped := 0
	err := s.txManager.WithinTx(ctx, func(tx pgx.Tx) error {
		expired, err := s.reservationRepository.FindExpiredBefore(ctx, tx, before)
		if err != nil {
			return err
		}
		if len(expired) == 0 {
			return nil
		}

		if _, err := s.ticketRepository.FreeFromReservations(ctx, tx, expired); err != nil {
			return err
		}
		removed, err := s.reservationRepository.Remove(ctx, tx, expired)
		if err != nil {
			return err
		}
		reaped = int(removed)
		return nil
	})
	if err != nil {
		return 0, err
	}

	if reaped > 0 {
		metrics.ReservationsByOutcome.WithLabelValues("expired").Add(float64(reaped))
	}
	return reaped, nil
}

func (s *ReservationServiceImpl) invalidateAvailability(ctx context.Context, eventID int) {
	if err := s.availabilityCache.InvalidateEvent(ctx, eventID); err != nil {
		s.log.Warn("failed to invalidate availability cache", zap.Int("event_id", eventID), zap.Error(err))
	}
}
