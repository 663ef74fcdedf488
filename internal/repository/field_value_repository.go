package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FieldValueRepository manages the per-ticket custom field values collected
// at purchase time. Removal deletes them wholesale.
type FieldValueRepository interface {
	DeleteAllForTickets(ctx context.Context, tx pgx.Tx, ticketIDs []int) error
}

type FieldValueRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewFieldValueRepository(pool *pgxpool.Pool) FieldValueRepository {
	return &FieldValueRepositoryImpl{pool: pool}
}

func (r *FieldValueRepositoryImpl) DeleteAllForTickets(ctx context.Context, tx pgx.Tx, ticketIDs []int) error {
	query := `
		DELETE FROM ticket_field_values
		WHERE ticket_id = ANY($1)
	`

	_, err := tx.Exec(ctx, query, ticketIDs)
	return err
}
