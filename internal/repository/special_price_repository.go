package repository

import (
	"context"

	"ticket-reservation/internal/model"
	apperrors "ticket-reservation/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SpecialPriceRepository interface {
	// Transaction methods
	CountByCategory(ctx context.Context, tx pgx.Tx, categoryID int) (int, error)
	BulkGenerate(ctx context.Context, tx pgx.Tx, categoryID int, n int) error
	FindActiveUnassigned(ctx context.Context, tx pgx.Tx, categoryID int, limit int) ([]*model.SpecialPrice, error)
	BindToSession(ctx context.Context, tx pgx.Tx, id int, sessionID string) error
	UpdateStatus(ctx context.Context, tx pgx.Tx, id int, status model.SpecialPriceStatus) error
	FreeByTicketIDs(ctx context.Context, tx pgx.Tx, ticketIDs []int) error
}

type SpecialPriceRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewSpecialPriceRepository(pool *pgxpool.Pool) SpecialPriceRepository {
	return &SpecialPriceRepositoryImpl{pool: pool}
}

func (r *SpecialPriceRepositoryImpl) CountByCategory(ctx context.Context, tx pgx.Tx, categoryID int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM special_prices
		WHERE category_id = $1
	`
	var count int
	err := tx.QueryRow(ctx, query, categoryID).Scan(&count)
	return count, err
}

// BulkGenerate lazily mints n fresh FREE discount codes for the category.
func (r *SpecialPriceRepositoryImpl) BulkGenerate(ctx context.Context, tx pgx.Tx, categoryID int, n int) error {
	if n <= 0 {
		return apperrors.ErrInvalidInput
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO special_prices (category_id, code, status)
		VALUES ($1, $2, $3)
	`
	for i := 0; i < n; i++ {
		batch.Queue(query, categoryID, uuid.New().String(), model.SpecialPriceStatusFree)
	}

	return tx.SendBatch(ctx, batch).Close()
}

func (r *SpecialPriceRepositoryImpl) FindActiveUnassigned(ctx context.Context, tx pgx.Tx, categoryID int, limit int) ([]*model.SpecialPrice, error) {
	query := `
		SELECT id, category_id, code, status, COALESCE(session_id, '')
		FROM special_prices
		WHERE category_id = $1 AND status = $2
		ORDER BY id
		LIMIT $3
	`

	rows, err := tx.Query(ctx, query, categoryID, model.SpecialPriceStatusFree, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	codes := make([]*model.SpecialPrice, 0, limit)
	for rows.Next() {
		var code model.SpecialPrice
		err := rows.Scan(&code.ID, &code.CategoryID, &code.Code, &code.Status, &code.SessionID)
		if err != nil {
			return nil, err
		}
		codes = append(codes, &code)
	}
	return codes, rows.Err()
}

// BindToSession transitions a FREE code to PENDING under the given session.
func (r *SpecialPriceRepositoryImpl) BindToSession(ctx context.Context, tx pgx.Tx, id int, sessionID string) error {
	query := `
		UPDATE special_prices
		SET status = $1, session_id = $2
		WHERE id = $3 AND status = $4
	`

	result, err := tx.Exec(ctx, query, model.SpecialPriceStatusPending, sessionID, id, model.SpecialPriceStatusFree)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrInvalidInput
	}

	return nil
}

func (r *SpecialPriceRepositoryImpl) UpdateStatus(ctx context.Context, tx pgx.Tx, id int, status model.SpecialPriceStatus) error {
	query := `
		UPDATE special_prices
		SET status = $1
		WHERE id = $2
	`

	_, err := tx.Exec(ctx, query, status, id)
	return err
}

// FreeByTicketIDs releases the codes bound to the given tickets, as part of
// removal or cancellation.
func (r *SpecialPriceRepositoryImpl) FreeByTicketIDs(ctx context.Context, tx pgx.Tx, ticketIDs []int) error {
	query := `
		UPDATE special_prices
		SET status = $1, session_id = NULL
		WHERE id IN (
			SELECT special_price_id FROM tickets
			WHERE id = ANY($2) AND special_price_id IS NOT NULL
		)
	`

	_, err := tx.Exec(ctx, query, model.SpecialPriceStatusFree, ticketIDs)
	return err
}
