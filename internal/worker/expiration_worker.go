package worker

import (
	"context"
	"time"

	"ticket-reservation/internal/service"
	"ticket-reservation/pkg/logger"

	"go.uber.org/zap"
)

// ExpirationWorker periodically releases pending reservations whose validity
// deadline has passed.
type ExpirationWorker interface {
	Start(ctx context.Context) error
}

type ExpirationWorkerImpl struct {
	service  service.ReservationService
	interval time.Duration
	log      *zap.Logger
}

func NewExpirationWorker(service service.ReservationService, interval time.Duration) ExpirationWorker {
	return &ExpirationWorkerImpl{
		service:  service,
		interval: interval,
		log:      logger.WithComponent("expiration_worker"),
	}
}

func (w *ExpirationWorkerImpl) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.runOnce(ctx)
			}
		}
	}()
	return nil
}

func (w *ExpirationWorkerImpl) runOnce(ctx context.Context) {
	reaped, err := w.service.CleanupExpired(ctx, time.Now().UTC())
	if err != nil {
		w.log.Error("expired reservation cleanup failed", zap.Error(err))
		return
	}
	if reaped > 0 {
		w.log.Info("released expired reservations", zap.Int("count", reaped))
	}
}
