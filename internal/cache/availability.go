package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "ticket-reservation/pkg/app_errors"

	"github.com/redis/go-redis/v9"
)

// AvailabilityCache keeps per-category free-seat counts in Redis for read
// endpoints. It is never consulted for allocation decisions: those always
// read fresh counts inside the enclosing transaction. Mutating use cases
// invalidate the event's entry on success.
type AvailabilityCache interface {
	SetFreeCount(ctx context.Context, eventID int, categoryID int, count int) error
	GetFreeCount(ctx context.Context, eventID int, categoryID int) (int, error)
	InvalidateEvent(ctx context.Context, eventID int) error
}

const availabilityTTL = 30 * time.Second

type AvailabilityCacheImpl struct {
	client *redis.Client
}

func NewAvailabilityCache(client *redis.Client) AvailabilityCache {
	return &AvailabilityCacheImpl{client: client}
}

func (c *AvailabilityCacheImpl) eventKey(eventID int) string {
	return fmt.Sprintf("event:%d:availability", eventID)
}

func (c *AvailabilityCacheImpl) SetFreeCount(ctx context.Context, eventID int, categoryID int, count int) error {
	key := c.eventKey(eventID)
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, fmt.Sprintf("%d", categoryID), count)
	pipe.Expire(ctx, key, availabilityTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (c *AvailabilityCacheImpl) GetFreeCount(ctx context.Context, eventID int, categoryID int) (int, error) {
	val, err := c.client.HGet(ctx, c.eventKey(eventID), fmt.Sprintf("%d", categoryID)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, apperrors.ErrCategoryNotFound
	}
	return val, err
}

func (c *AvailabilityCacheImpl) InvalidateEvent(ctx context.Context, eventID int) error {
	return c.client.Del(ctx, c.eventKey(eventID)).Err()
}
