package repository

import (
	"context"
	"errors"
	"time"

	"ticket-reservation/internal/model"
	apperrors "ticket-reservation/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type TicketRepository interface {
	FindByID(ctx context.Context, id int) (*model.Ticket, error)
	FindByIDs(ctx context.Context, ids []int) ([]*model.Ticket, error)

	ListInReservation(ctx context.Context, reservationID string) ([]*model.Ticket, error)
	CountFreeByCategory(ctx context.Context, eventID int) (map[int]int, error)

	// Transaction methods
	CountFree(ctx context.Context, tx pgx.Tx, eventID int, categoryID int) (int, error)
	AssignFreeToCategory(ctx context.Context, tx pgx.Tx, eventID int, categoryID int, n int) (int64, error)
	CountFreeUnbounded(ctx context.Context, tx pgx.Tx, eventID int) (int, error)
	SelectFreeForUpdate(ctx context.Context, tx pgx.Tx, eventID int, categoryID int, bounded bool, n int, statuses []model.TicketStatus) ([]int, error)
	Reserve(ctx context.Context, tx pgx.Tx, reservationID string, ticketIDs []int, categoryID int) error
	UpdatePrice(ctx context.Context, tx pgx.Tx, ticketIDs []int, src, vat, discount, final decimal.Decimal) error
	UpdateOwner(ctx context.Context, tx pgx.Tx, ticketID int, email string, fullName string) error
	BindSpecialPrice(ctx context.Context, tx pgx.Tx, ticketID int, specialPriceID int) error
	FindInReservation(ctx context.Context, tx pgx.Tx, reservationID string) ([]*model.Ticket, error)
	UpdateStatusForReservation(ctx context.Context, tx pgx.Tx, reservationID string, status model.TicketStatus) (int64, error)
	ResetCategoryForUnbounded(ctx context.Context, tx pgx.Tx, ticketIDs []int) error
	ResetTickets(ctx context.Context, tx pgx.Tx, ticketIDs []int) error
	FreeFromReservations(ctx context.Context, tx pgx.Tx, reservationIDs []string) (int64, error)
	BulkCreate(ctx context.Context, tx pgx.Tx, eventID int, n int, createdAt time.Time) error
}

type TicketRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &TicketRepositoryImpl{pool: pool}
}

const ticketColumns = `id, event_id, category_id, reservation_id, special_price_id,
		status, email, full_name, src_price, vat, discount, final_price,
		created_at, updated_at`

func scanTicket(row pgx.Row) (*model.Ticket, error) {
	var ticket model.Ticket
	err := row.Scan(
		&ticket.ID,
		&ticket.EventID,
		&ticket.CategoryID,
		&ticket.ReservationID,
		&ticket.SpecialPriceID,
		&ticket.Status,
		&ticket.Email,
		&ticket.FullName,
		&ticket.SrcPrice,
		&ticket.VAT,
		&ticket.Discount,
		&ticket.FinalPrice,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

func (r *TicketRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE id = $1
	`
	return scanTicket(r.pool.QueryRow(ctx, query, id))
}

func (r *TicketRepositoryImpl) FindByIDs(ctx context.Context, ids []int) ([]*model.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE id = ANY($1)
		ORDER BY id
	`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTickets(rows)
}

func collectTickets(rows pgx.Rows) ([]*model.Ticket, error) {
	tickets := make([]*model.Ticket, 0)
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	return tickets, rows.Err()
}

func (r *TicketRepositoryImpl) ListInReservation(ctx context.Context, reservationID string) ([]*model.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE reservation_id = $1
		ORDER BY id
	`
	rows, err := r.pool.Query(ctx, query, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTickets(rows)
}

// CountFreeByCategory groups the event's FREE tickets by category. The
// unallocated pool is reported under category id 0.
func (r *TicketRepositoryImpl) CountFreeByCategory(ctx context.Context, eventID int) (map[int]int, error) {
	query := `
		SELECT COALESCE(category_id, 0), COUNT(*)
		FROM tickets
		WHERE event_id = $1 AND status = 'FREE'
		GROUP BY category_id
	`
	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var categoryID, count int
		if err := rows.Scan(&categoryID, &count); err != nil {
			return nil, err
		}
		counts[categoryID] = count
	}
	return counts, rows.Err()
}

// AssignFreeToCategory moves up to n tickets from the event's unallocated
// pool into the category, lowest id first. Used when a bounded category is
// created or its cap is raised.
func (r *TicketRepositoryImpl) AssignFreeToCategory(ctx context.Context, tx pgx.Tx, eventID int, categoryID int, n int) (int64, error) {
	query := `
		UPDATE tickets
		SET category_id = $1, updated_at = now()
		WHERE id IN (
			SELECT id FROM tickets
			WHERE event_id = $2 AND category_id IS NULL AND status = $3
			ORDER BY id
			LIMIT $4
			FOR UPDATE
		)
	`

	result, err := tx.Exec(ctx, query, categoryID, eventID, model.TicketStatusFree, n)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected(), nil
}

func (r *TicketRepositoryImpl) CountFree(ctx context.Context, tx pgx.Tx, eventID int, categoryID int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM tickets
		WHERE event_id = $1 AND category_id = $2 AND status = $3
	`
	var count int
	err := tx.QueryRow(ctx, query, eventID, categoryID, model.TicketStatusFree).Scan(&count)
	return count, err
}

// CountFreeUnbounded counts the event's unallocated pool: free tickets not
// yet assigned to any category.
func (r *TicketRepositoryImpl) CountFreeUnbounded(ctx context.Context, tx pgx.Tx, eventID int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM tickets
		WHERE event_id = $1 AND category_id IS NULL AND status = $2
	`
	var count int
	err := tx.QueryRow(ctx, query, eventID, model.TicketStatusFree).Scan(&count)
	return count, err
}

// SelectFreeForUpdate locks up to n ticket rows in an acceptable status and
// returns their ids, lowest first. The lock is row-scoped: only the selected
// rows are locked, and a concurrent transaction racing for the same category
// observes a reduced free set once this one wins. Bounded categories only
// draw rows already assigned to them; unbounded ones also draw from the
// event's unallocated pool.
func (r *TicketRepositoryImpl) SelectFreeForUpdate(ctx context.Context, tx pgx.Tx, eventID int, categoryID int, bounded bool, n int, statuses []model.TicketStatus) ([]int, error) {
	categoryClause := `category_id = $2`
	if !bounded {
		categoryClause = `(category_id = $2 OR category_id IS NULL)`
	}

	query := `
		SELECT id
		FROM tickets
		WHERE event_id = $1 AND ` + categoryClause + ` AND status = ANY($3)
		ORDER BY category_id NULLS LAST, id
		LIMIT $4
		FOR UPDATE
	`

	statusValues := make([]string, len(statuses))
	for i, s := range statuses {
		statusValues[i] = string(s)
	}

	rows, err := tx.Query(ctx, query, eventID, categoryID, statusValues, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int, 0, n)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Reserve attaches the locked tickets to the reservation and category and
// moves them to PENDING.
func (r *TicketRepositoryImpl) Reserve(ctx context.Context, tx pgx.Tx, reservationID string, ticketIDs []int, categoryID int) error {
	query := `
		UPDATE tickets
		SET reservation_id = $1, category_id = $2, status = $3, updated_at = now()
		WHERE id = ANY($4)
	`

	result, err := tx.Exec(ctx, query, reservationID, categoryID, model.TicketStatusPending, ticketIDs)
	if err != nil {
		return err
	}

	if result.RowsAffected() != int64(len(ticketIDs)) {
		return apperrors.ErrTicketNotFound
	}

	return nil
}

func (r *TicketRepositoryImpl) UpdatePrice(ctx context.Context, tx pgx.Tx, ticketIDs []int, src, vat, discount, final decimal.Decimal) error {
	query := `
		UPDATE tickets
		SET src_price = $1, vat = $2, discount = $3, final_price = $4, updated_at = now()
		WHERE id = ANY($5)
	`

	_, err := tx.Exec(ctx, query, src, vat, discount, final, ticketIDs)
	return err
}

func (r *TicketRepositoryImpl) UpdateOwner(ctx context.Context, tx pgx.Tx, ticketID int, email string, fullName string) error {
	query := `
		UPDATE tickets
		SET email = $1, full_name = $2, updated_at = now()
		WHERE id = $3
	`

	result, err := tx.Exec(ctx, query, email, fullName, ticketID)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrTicketNotFound
	}

	return nil
}

func (r *TicketRepositoryImpl) BindSpecialPrice(ctx context.Context, tx pgx.Tx, ticketID int, specialPriceID int) error {
	query := `
		UPDATE tickets
		SET special_price_id = $1, updated_at = now()
		WHERE id = $2
	`

	result, err := tx.Exec(ctx, query, specialPriceID, ticketID)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrTicketNotFound
	}

	return nil
}

func (r *TicketRepositoryImpl) FindInReservation(ctx context.Context, tx pgx.Tx, reservationID string) ([]*model.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE reservation_id = $1
		ORDER BY id
	`
	rows, err := tx.Query(ctx, query, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTickets(rows)
}

func (r *TicketRepositoryImpl) UpdateStatusForReservation(ctx context.Context, tx pgx.Tx, reservationID string, status model.TicketStatus) (int64, error) {
	query := `
		UPDATE tickets
		SET status = $1, updated_at = now()
		WHERE reservation_id = $2
	`

	result, err := tx.Exec(ctx, query, status, reservationID)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected(), nil
}

// ResetCategoryForUnbounded detaches tickets that were drawn from the shared
// pool so they return to the event's unallocated inventory. Tickets in
// bounded categories keep their assignment.
func (r *TicketRepositoryImpl) ResetCategoryForUnbounded(ctx context.Context, tx pgx.Tx, ticketIDs []int) error {
	query := `
		UPDATE tickets
		SET category_id = NULL, updated_at = now()
		WHERE id = ANY($1)
		  AND category_id IN (SELECT id FROM ticket_categories WHERE bounded = false)
	`

	_, err := tx.Exec(ctx, query, ticketIDs)
	return err
}

// ResetTickets returns tickets to FREE, clearing owner, reservation, price
// and discount-code bindings.
func (r *TicketRepositoryImpl) ResetTickets(ctx context.Context, tx pgx.Tx, ticketIDs []int) error {
	query := `
		UPDATE tickets
		SET status = $1, reservation_id = NULL, special_price_id = NULL,
			email = '', full_name = '',
			src_price = 0, vat = 0, discount = 0, final_price = 0,
			updated_at = now()
		WHERE id = ANY($2)
	`

	result, err := tx.Exec(ctx, query, model.TicketStatusFree, ticketIDs)
	if err != nil {
		return err
	}

	if result.RowsAffected() != int64(len(ticketIDs)) {
		return apperrors.ErrTicketNotFound
	}

	return nil
}

// FreeFromReservations is the expiration path: every ticket held by the
// given reservations goes back to FREE in one statement.
func (r *TicketRepositoryImpl) FreeFromReservations(ctx context.Context, tx pgx.Tx, reservationIDs []string) (int64, error) {
	query := `
		UPDATE tickets
		SET status = $1, reservation_id = NULL, special_price_id = NULL,
			email = '', full_name = '',
			src_price = 0, vat = 0, discount = 0, final_price = 0,
			updated_at = now()
		WHERE reservation_id = ANY($2)
	`

	result, err := tx.Exec(ctx, query, model.TicketStatusFree, reservationIDs)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected(), nil
}

// BulkCreate mints n fresh FREE tickets into the event's unallocated pool,
// dated in the event's zone. Only authorized capacity growth calls this.
func (r *TicketRepositoryImpl) BulkCreate(ctx context.Context, tx pgx.Tx, eventID int, n int, createdAt time.Time) error {
	if n <= 0 {
		return apperrors.ErrInvalidInput
	}

	query := `
		INSERT INTO tickets (event_id, category_id, status, created_at, updated_at)
		SELECT $1, NULL, $2, $3, $3
		FROM generate_series(1, $4)
	`

	_, err := tx.Exec(ctx, query, eventID, model.TicketStatusFree, createdAt, n)
	return err
}
