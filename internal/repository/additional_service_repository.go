package repository

import (
	"context"

	"ticket-reservation/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AdditionalServiceItemRepository manages the extra items attached to a
// reservation. Cancelling a reservation cascades a status change here.
type AdditionalServiceItemRepository interface {
	UpdateStatusForReservation(ctx context.Context, tx pgx.Tx, reservationID string, status model.AdditionalServiceItemStatus) error
}

type AdditionalServiceItemRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewAdditionalServiceItemRepository(pool *pgxpool.Pool) AdditionalServiceItemRepository {
	return &AdditionalServiceItemRepositoryImpl{pool: pool}
}

func (r *AdditionalServiceItemRepositoryImpl) UpdateStatusForReservation(ctx context.Context, tx pgx.Tx, reservationID string, status model.AdditionalServiceItemStatus) error {
	query := `
		UPDATE additional_service_items
		SET status = $1, updated_at = now()
		WHERE reservation_id = $2
	`

	_, err := tx.Exec(ctx, query, status, reservationID)
	return err
}
