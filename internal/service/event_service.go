package service

import (
	"context"
	"errors"

	"ticket-reservation/internal/cache"
	"ticket-reservation/internal/model"
	"ticket-reservation/internal/repository"
	"ticket-reservation/internal/result"
	apperrors "ticket-reservation/pkg/app_errors"
	"ticket-reservation/pkg/logger"

	"go.uber.org/zap"
)

// EventWithCategories is the public read model for an event.
type EventWithCategories struct {
	Event      *model.Event            `json:"event"`
	Categories []*model.TicketCategory `json:"categories"`
}

// CategoryAvailability is one category's free-seat count. CategoryID 0 names
// the event's unallocated pool.
type CategoryAvailability struct {
	CategoryID int `json:"category_id"`
	FreeSeats  int `json:"free_seats"`
}

// EventService serves the read side: event detail and cached availability.
type EventService interface {
	GetEvent(ctx context.Context, shortName string) result.Result[*EventWithCategories]
	GetAvailability(ctx context.Context, shortName string) result.Result[[]CategoryAvailability]
}

type EventServiceImpl struct {
	eventRepository    repository.EventRepository
	categoryRepository repository.CategoryRepository
	ticketRepository   repository.TicketRepository
	availabilityCache  cache.AvailabilityCache
	log                *zap.Logger
}

func NewEventService(
	eventRepository repository.EventRepository,
	categoryRepository repository.CategoryRepository,
	ticketRepository repository.TicketRepository,
	availabilityCache cache.AvailabilityCache,
) EventService {
	return &EventServiceImpl{
		eventRepository:    eventRepository,
		categoryRepository: categoryRepository,
		ticketRepository:   ticketRepository,
		availabilityCache:  availabilityCache,
		log:                logger.WithComponent("event_service"),
	}
}

func (s *EventServiceImpl) GetEvent(ctx context.Context, shortName string) result.Result[*EventWithCategories] {
	event, err := s.eventRepository.FindByShortName(ctx, shortName)
	if err != nil {
		return result.NotFound[*EventWithCategories](result.EventNotFound)
	}

	categories, err := s.categoryRepository.ListByEvent(ctx, event.ID)
	if err != nil {
		return result.Internal[*EventWithCategories](result.Custom("INTERNAL_ERROR", err.Error()))
	}

	return result.Success(&EventWithCategories{Event: event, Categories: categories})
}

// GetAvailability reads free-seat counts per category, serving from the
// Redis cache when warm and falling back to the database on a miss. Counts
// are advisory; allocation never trusts them.
func (s *EventServiceImpl) GetAvailability(ctx context.Context, shortName string) result.Result[[]CategoryAvailability] {
	event, err := s.eventRepository.FindByShortName(ctx, shortName)
	if err != nil {
		return result.NotFound[[]CategoryAvailability](result.EventNotFound)
	}

	categories, err := s.categoryRepository.ListByEvent(ctx, event.ID)
	if err != nil {
		return result.Internal[[]CategoryAvailability](result.Custom("INTERNAL_ERROR", err.Error()))
	}

	ids := make([]int, 0, len(categories)+1)
	ids = append(ids, 0)
	for _, category := range categories {
		ids = append(ids, category.ID)
	}

	cached := make([]CategoryAvailability, 0, len(ids))
	miss := false
	for _, id := range ids {
		count, err := s.availabilityCache.GetFreeCount(ctx, event.ID, id)
		if err != nil {
			if !errors.Is(err, apperrors.ErrCategoryNotFound) {
				s.log.Warn("availability cache read failed", zap.Int("event_id", event.ID), zap.Error(err))
			}
			miss = true
			break
		}
		cached = append(cached, CategoryAvailability{CategoryID: id, FreeSeats: count})
	}
	if !miss {
		return result.Success(cached)
	}

	counts, err := s.ticketRepository.CountFreeByCategory(ctx, event.ID)
	if err != nil {
		return result.Internal[[]CategoryAvailability](result.Custom("INTERNAL_ERROR", err.Error()))
	}

	availability := make([]CategoryAvailability, 0, len(ids))
	for _, id := range ids {
		count := counts[id]
		availability = append(availability, CategoryAvailability{CategoryID: id, FreeSeats: count})

		if err := s.availabilityCache.SetFreeCount(ctx, event.ID, id, count); err != nil {
			s.log.Warn("availability cache write failed", zap.Int("event_id", event.ID), zap.Error(err))
		}
	}
	return result.Success(availability)
}
