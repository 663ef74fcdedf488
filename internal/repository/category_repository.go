package repository

import (
	"context"
	"errors"

	"ticket-reservation/internal/model"
	apperrors "ticket-reservation/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CategoryRepository interface {
	ListByEvent(ctx context.Context, eventID int) ([]*model.TicketCategory, error)

	// Transaction methods
	GetByID(ctx context.Context, tx pgx.Tx, id int, eventID int) (*model.TicketCategory, error)
	Insert(ctx context.Context, tx pgx.Tx, eventID int, mod model.CategoryModification) (int, error)
	Update(ctx context.Context, tx pgx.Tx, id int, mod model.CategoryModification) error
}

type CategoryRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewCategoryRepository(pool *pgxpool.Pool) CategoryRepository {
	return &CategoryRepositoryImpl{pool: pool}
}

const categoryColumns = `id, event_id, name, price, bounded, max_tickets,
		access_restricted, inception, expiration, created_at, updated_at`

func scanCategory(row pgx.Row) (*model.TicketCategory, error) {
	var category model.TicketCategory
	err := row.Scan(
		&category.ID,
		&category.EventID,
		&category.Name,
		&category.Price,
		&category.Bounded,
		&category.MaxTickets,
		&category.AccessRestricted,
		&category.Inception,
		&category.Expiration,
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

func (r *CategoryRepositoryImpl) GetByID(ctx context.Context, tx pgx.Tx, id int, eventID int) (*model.TicketCategory, error) {
	query := `
		SELECT ` + categoryColumns + `
		FROM ticket_categories
		WHERE id = $1 AND event_id = $2
	`
	return scanCategory(tx.QueryRow(ctx, query, id, eventID))
}

func (r *CategoryRepositoryImpl) ListByEvent(ctx context.Context, eventID int) ([]*model.TicketCategory, error) {
	query := `
		SELECT ` + categoryColumns + `
		FROM ticket_categories
		WHERE event_id = $1
		ORDER BY inception
	`
	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]*model.TicketCategory, 0)
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

func (r *CategoryRepositoryImpl) Insert(ctx context.Context, tx pgx.Tx, eventID int, mod model.CategoryModification) (int, error) {
	query := `
		INSERT INTO ticket_categories (
			event_id, name, price, bounded, max_tickets,
			access_restricted, inception, expiration)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	var id int
	err := tx.QueryRow(ctx, query,
		eventID, mod.Name, mod.Price, mod.Bounded, mod.MaxTickets,
		mod.AccessRestricted, mod.Inception, mod.Expiration,
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	return id, nil
}

func (r *CategoryRepositoryImpl) Update(ctx context.Context, tx pgx.Tx, id int, mod model.CategoryModification) error {
	query := `
		UPDATE ticket_categories
		SET name = $1, price = $2, max_tickets = $3,
			access_restricted = $4, inception = $5, expiration = $6,
			updated_at = now()
		WHERE id = $7
	`

	result, err := tx.Exec(ctx, query,
		mod.Name, mod.Price, mod.MaxTickets,
		mod.AccessRestricted, mod.Inception, mod.Expiration, id,
	)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrCategoryNotFound
	}

	return nil
}
