package service

import (
	"context"
	"fmt"
	"strconv"

	"ticket-reservation/internal/model"
	"ticket-reservation/internal/pricing"
	"ticket-reservation/internal/repository"
	"ticket-reservation/internal/result"
	"ticket-reservation/pkg/logger"
	"ticket-reservation/pkg/metrics"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AllocationService is the inventory allocator plus the category resolver.
// Both operate strictly inside the caller's transaction: every count used
// for a capacity decision is read after the event row has been locked, and
// ticket row locks are scoped to the selected rows only.
type AllocationService interface {
	ResolveCategory(ctx context.Context, tx pgx.Tx, event *model.Event, ti model.TicketsInfo, mod model.ReservationModification) result.Result[*model.TicketCategory]
	ReserveForCategory(ctx context.Context, tx pgx.Tx, event *model.Event, category *model.TicketCategory, ti model.TicketsInfo, reservationID string, sessionID string) result.Result[[]int]
}

type AllocationServiceImpl struct {
	eventRepository    repository.EventRepository
	categoryRepository repository.CategoryRepository
	ticketRepository   repository.TicketRepository
	tokenService       TokenService
}

func NewAllocationService(
	eventRepository repository.EventRepository,
	categoryRepository repository.CategoryRepository,
	ticketRepository repository.TicketRepository,
	tokenService TokenService,
) AllocationService {
	return &AllocationServiceImpl{
		eventRepository:    eventRepository,
		categoryRepository: categoryRepository,
		ticketRepository:   ticketRepository,
		tokenService:       tokenService,
	}
}

// ResolveCategory produces the concrete category to allocate against:
// either the existing one named by the request, possibly expanded, or a
// brand-new one derived from the request. Growth never happens unless the
// request authorizes it.
func (s *AllocationServiceImpl) ResolveCategory(ctx context.Context, tx pgx.Tx, event *model.Event, ti model.TicketsInfo, mod model.ReservationModification) result.Result[*model.TicketCategory] {
	if ti.Category.IsExisting() {
		return s.checkExistingCategory(ctx, tx, event, ti)
	}
	return s.createCategory(ctx, tx, event, ti, mod)
}

func (s *AllocationServiceImpl) checkExistingCategory(ctx context.Context, tx pgx.Tx, event *model.Event, ti model.TicketsInfo) result.Result[*model.TicketCategory] {
	requested := len(ti.Attendees)

	existing, err := s.categoryRepository.GetByID(ctx, tx, *ti.Category.ExistingCategoryID, event.ID)
	if err != nil {
		return result.NotFound[*model.TicketCategory](result.CategoryNotFound)
	}

	if !existing.Bounded {
		// Unbounded categories draw straight from the shared pool. There is
		// no cap to raise, but an authorized request still mints the missing
		// rows into the pool before allocation runs.
		notAllocated, err := s.ticketRepository.CountFreeUnbounded(ctx, tx, event.ID)
		if err != nil {
			return result.Internal[*model.TicketCategory](result.Custom("INTERNAL_ERROR", err.Error()))
		}
		if missing := requested - notAllocated; missing > 0 && ti.AddSeatsIfNotAvailable {
			if _, err := s.growEventPool(ctx, tx, event, missing); err != nil {
				return result.Internal[*model.TicketCategory](result.Custom("INTERNAL_ERROR", err.Error()))
			}
		}
		return result.Success(existing)
	}

	freeInCategory, err := s.ticketRepository.CountFree(ctx, tx, event.ID, existing.ID)
	if err != nil {
		return result.Internal[*model.TicketCategory](result.Custom("INTERNAL_ERROR", err.Error()))
	}
	if freeInCategory >= requested {
		return result.Success(existing)
	}

	if !ti.AddSeatsIfNotAvailable {
		// Short and no growth authorized: leave the category untouched and
		// let allocation fail with NOT_ENOUGH_SEATS.
		return result.Success(existing)
	}

	notAllocated, err := s.ticketRepository.CountFreeUnbounded(ctx, tx, event.ID)
	if err != nil {
		return result.Internal[*model.TicketCategory](result.Custom("INTERNAL_ERROR", err.Error()))
	}

	missing := requested - (freeInCategory + notAllocated)
	if missing > 0 {
		if _, err := s.growEventPool(ctx, tx, event, missing); err != nil {
			return result.Internal[*model.TicketCategory](result.Custom("INTERNAL_ERROR", err.Error()))
		}
	}

	// Raise the cap so the bound still holds after allocation, and pull the
	// matching number of pool tickets into the category.
	extra := requested - freeInCategory
	updated := model.CategoryModification{
		Name:             existing.Name,
		Price:            existing.Price,
		MaxTickets:       existing.MaxTickets + extra,
		Bounded:          true,
		AccessRestricted: existing.AccessRestricted,
		Inception:        existing.Inception,
		Expiration:       existing.Expiration,
	}
	if err := s.categoryRepository.Update(ctx, tx, existing.ID, updated); err != nil {
		return result.Internal[*model.TicketCategory](result.Custom("INTERNAL_ERROR", err.Error()))
	}
	if _, err := s.ticketRepository.AssignFreeToCategory(ctx, tx, event.ID, existing.ID, extra); err != nil {
		return result.Internal[*model.TicketCategory](result.Custom("INTERNAL_ERROR", err.Error()))
	}

	refreshed, err := s.categoryRepository.GetByID(ctx, tx, existing.ID, event.ID)
	if err != nil {
		return result.Internal[*model.TicketCategory](result.Custom("INTERNAL_ERROR", err.Error()))
	}
	return result.Success(refreshed)
}

func (s *AllocationServiceImpl) createCategory(ctx context.Context, tx pgx.Tx, event *model.Event, ti model.TicketsInfo, mod model.ReservationModification) result.Result[*model.TicketCategory] {
	requested := len(ti.Attendees)

	notAllocated, err := s.ticketRepository.CountFreeUnbounded(ctx, tx, event.ID)
	if err != nil {
		return result.Internal[*model.TicketCategory](result.Custom("INTERNAL_ERROR", err.Error()))
	}

	missing := requested - notAllocated
	if missing > 0 && ti.AddSeatsIfNotAvailable {
		if _, err := s.growEventPool(ctx, tx, event, missing); err != nil {
			return result.Internal[*model.TicketCategory](result.Custom("INTERNAL_ERROR", err.Error()))
		}
	}

	categoryID, err := s.categoryRepository.Insert(ctx, tx, event.ID, model.CategoryModification{
		Name:       ti.Category.Name,
		Price:      ti.Category.Price,
		MaxTickets: requested,
		Bounded:    true,
		Inception:  event.Now(),
		Expiration: mod.Expiration,
	})
	if err != nil {
		return result.Internal[*model.TicketCategory](result.Custom("INTERNAL_ERROR", err.Error()))
	}

	if _, err := s.ticketRepository.AssignFreeToCategory(ctx, tx, event.ID, categoryID, requested); err != nil {
		return result.Internal[*model.TicketCategory](result.Custom("INTERNAL_ERROR", err.Error()))
	}

	category, err := s.categoryRepository.GetByID(ctx, tx, categoryID, event.ID)
	if err != nil {
		return result.Internal[*model.TicketCategory](result.Custom("INTERNAL_ERROR", err.Error()))
	}
	return result.Success(category)
}

// growEventPool mints the missing tickets into the shared pool, bumps the
// event's available-seat counter by exactly that amount and re-reads the
// event row so later decisions in the same transaction see fresh counts.
func (s *AllocationServiceImpl) growEventPool(ctx context.Context, tx pgx.Tx, event *model.Event, missing int) (*model.Event, error) {
	logger.WithComponent("allocation_service").Debug("adding extra seats to the event",
		zap.Int("event_id", event.ID),
		zap.Int("missing", missing),
	)

	if err := s.ticketRepository.BulkCreate(ctx, tx, event.ID, missing, event.Now()); err != nil {
		return nil, err
	}
	if err := s.eventRepository.UpdateAvailableSeats(ctx, tx, event.ID, missing); err != nil {
		return nil, err
	}

	refreshed, err := s.eventRepository.FindByID(ctx, tx, event.ID)
	if err != nil {
		return nil, err
	}
	*event = *refreshed

	metrics.SeatsGrown.WithLabelValues(strconv.Itoa(event.ID)).Add(float64(missing))
	return event, nil
}

// ReserveForCategory locks and reserves one ticket per attendee, prices the
// tickets, binds discount codes for access-restricted categories and assigns
// attendee identities in input order. The returned ids are in stable
// lowest-first order. Fewer available rows than attendees fails the category
// with NOT_ENOUGH_SEATS; the surrounding transaction discards any partial
// state.
func (s *AllocationServiceImpl) ReserveForCategory(ctx context.Context, tx pgx.Tx, event *model.Event, category *model.TicketCategory, ti model.TicketsInfo, reservationID string, sessionID string) result.Result[[]int] {
	attendees := ti.Attendees

	reserved, err := s.ticketRepository.SelectFreeForUpdate(ctx, tx, event.ID, category.ID, category.Bounded, len(attendees), []model.TicketStatus{model.TicketStatusFree})
	if err != nil {
		return result.Internal[[]int](result.Custom("INTERNAL_ERROR", err.Error()))
	}

	if len(reserved) != len(attendees) {
		metrics.AllocationFailures.WithLabelValues(strconv.Itoa(event.ID)).Inc()
		return result.Conflict[[]int](result.NotEnoughSeats)
	}

	if err := s.ticketRepository.Reserve(ctx, tx, reservationID, reserved, category.ID); err != nil {
		return result.Internal[[]int](result.Custom("INTERNAL_ERROR", err.Error()))
	}

	price := pricing.ForTicket(category, event, decimal.Zero)
	if err := s.ticketRepository.UpdatePrice(ctx, tx, reserved, price.SrcPrice, price.VAT(), price.Discount, price.FinalPrice()); err != nil {
		return result.Internal[[]int](result.Custom("INTERNAL_ERROR", err.Error()))
	}

	var codes []*model.SpecialPrice
	if category.AccessRestricted {
		codes, err = s.tokenService.BindTokens(ctx, tx, category, sessionID, len(attendees))
		if err != nil {
			return result.Internal[[]int](result.Custom("INTERNAL_ERROR", err.Error()))
		}
	}

	if err := s.assignTickets(ctx, tx, attendees, reserved, codes); err != nil {
		return result.Internal[[]int](result.Custom("INTERNAL_ERROR", err.Error()))
	}

	metrics.TicketsAllocated.WithLabelValues(strconv.Itoa(event.ID)).Add(float64(len(reserved)))
	return result.Success(reserved)
}

// assignTickets writes attendee identities onto the reserved tickets in
// input order. Empty attendees leave placeholder tickets and consume no
// discount code; codes run out silently when under-provisioned.
func (s *AllocationServiceImpl) assignTickets(ctx context.Context, tx pgx.Tx, attendees []model.Attendee, reserved []int, codes []*model.SpecialPrice) error {
	next := 0
	for i, attendee := range attendees {
		if attendee.IsEmpty() {
			continue
		}
		ticketID := reserved[i]
		if err := s.ticketRepository.UpdateOwner(ctx, tx, ticketID, attendee.Email, attendee.FullName()); err != nil {
			return fmt.Errorf("failed to assign ticket %d: %w", ticketID, err)
		}
		if next < len(codes) {
			if err := s.ticketRepository.BindSpecialPrice(ctx, tx, ticketID, codes[next].ID); err != nil {
				return fmt.Errorf("failed to bind discount code to ticket %d: %w", ticketID, err)
			}
			next++
		}
	}
	return nil
}
