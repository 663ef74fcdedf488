package repository

import (
	"context"
	"errors"
	"time"

	"ticket-reservation/internal/model"
	apperrors "ticket-reservation/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReservationRepository interface {
	FindByID(ctx context.Context, id string) (*model.TicketReservation, error)

	// Transaction methods
	Create(ctx context.Context, tx pgx.Tx, id string, eventID int, validUntil time.Time, language string) error
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id string) (*model.TicketReservation, error)
	UpdateContact(ctx context.Context, tx pgx.Tx, id string, status model.ReservationStatus, email, fullName, billingAddress, language string, paymentMethod *model.PaymentMethod) error
	UpdateValidity(ctx context.Context, tx pgx.Tx, id string, validUntil time.Time) error
	UpdateStatus(ctx context.Context, tx pgx.Tx, id string, status model.ReservationStatus) (int64, error)
	MarkComplete(ctx context.Context, tx pgx.Tx, id string, paymentMethod model.PaymentMethod, confirmedAt time.Time) (int64, error)
	StoreOrderSummary(ctx context.Context, tx pgx.Tx, id string, summary []byte) error
	FindExpiredBefore(ctx context.Context, tx pgx.Tx, ts time.Time) ([]string, error)
	Remove(ctx context.Context, tx pgx.Tx, ids []string) (int64, error)
}

type ReservationRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewReservationRepository(pool *pgxpool.Pool) ReservationRepository {
	return &ReservationRepositoryImpl{pool: pool}
}

const reservationColumns = `id, event_id, status, valid_until, email, full_name,
		billing_address, user_language, payment_method, confirmation_ts,
		created_at, updated_at`

func scanReservation(row pgx.Row) (*model.TicketReservation, error) {
	var reservation model.TicketReservation
	err := row.Scan(
		&reservation.ID,
		&reservation.EventID,
		&reservation.Status,
		&reservation.ValidUntil,
		&reservation.Email,
		&reservation.FullName,
		&reservation.BillingAddress,
		&reservation.UserLanguage,
		&reservation.PaymentMethod,
		&reservation.ConfirmationTimestamp,
		&reservation.CreatedAt,
		&reservation.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrReservationNotFound
		}
		return nil, err
	}
	return &reservation, nil
}

func (r *ReservationRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, id string, eventID int, validUntil time.Time, language string) error {
	query := `
		INSERT INTO ticket_reservations (id, event_id, status, valid_until, user_language)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := tx.Exec(ctx, query, id, eventID, model.ReservationStatusPending, validUntil, language)
	return err
}

func (r *ReservationRepositoryImpl) FindByID(ctx context.Context, id string) (*model.TicketReservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM ticket_reservations
		WHERE id = $1
	`
	return scanReservation(r.pool.QueryRow(ctx, query, id))
}

func (r *ReservationRepositoryImpl) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id string) (*model.TicketReservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM ticket_reservations
		WHERE id = $1
		FOR UPDATE
	`
	return scanReservation(tx.QueryRow(ctx, query, id))
}

func (r *ReservationRepositoryImpl) UpdateContact(ctx context.Context, tx pgx.Tx, id string, status model.ReservationStatus, email, fullName, billingAddress, language string, paymentMethod *model.PaymentMethod) error {
	query := `
		UPDATE ticket_reservations
		SET status = $1, email = $2, full_name = $3, billing_address = $4,
			user_language = $5, payment_method = $6, updated_at = now()
		WHERE id = $7
	`

	result, err := tx.Exec(ctx, query, status, email, fullName, billingAddress, language, paymentMethod, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrReservationNotFound
	}

	return nil
}

func (r *ReservationRepositoryImpl) UpdateValidity(ctx context.Context, tx pgx.Tx, id string, validUntil time.Time) error {
	query := `
		UPDATE ticket_reservations
		SET valid_until = $1, updated_at = now()
		WHERE id = $2
	`

	result, err := tx.Exec(ctx, query, validUntil, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrReservationNotFound
	}

	return nil
}

func (r *ReservationRepositoryImpl) UpdateStatus(ctx context.Context, tx pgx.Tx, id string, status model.ReservationStatus) (int64, error) {
	query := `
		UPDATE ticket_reservations
		SET status = $1, updated_at = now()
		WHERE id = $2
	`

	result, err := tx.Exec(ctx, query, status, id)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected(), nil
}

func (r *ReservationRepositoryImpl) MarkComplete(ctx context.Context, tx pgx.Tx, id string, paymentMethod model.PaymentMethod, confirmedAt time.Time) (int64, error) {
	query := `
		UPDATE ticket_reservations
		SET status = $1, payment_method = $2, confirmation_ts = $3, updated_at = now()
		WHERE id = $4
	`

	result, err := tx.Exec(ctx, query, model.ReservationStatusComplete, paymentMethod, confirmedAt, id)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected(), nil
}

// StoreOrderSummary persists the audit snapshot taken when the reservation
// was created.
func (r *ReservationRepositoryImpl) StoreOrderSummary(ctx context.Context, tx pgx.Tx, id string, summary []byte) error {
	query := `
		UPDATE ticket_reservations
		SET order_summary = $1, updated_at = now()
		WHERE id = $2
	`

	result, err := tx.Exec(ctx, query, summary, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrReservationNotFound
	}

	return nil
}

func (r *ReservationRepositoryImpl) FindExpiredBefore(ctx context.Context, tx pgx.Tx, ts time.Time) ([]string, error) {
	query := `
		SELECT id
		FROM ticket_reservations
		WHERE status = $1 AND valid_until < $2
		ORDER BY valid_until
	`

	rows, err := tx.Query(ctx, query, model.ReservationStatusPending, ts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *ReservationRepositoryImpl) Remove(ctx context.Context, tx pgx.Tx, ids []string) (int64, error) {
	query := `
		DELETE FROM ticket_reservations
		WHERE id = ANY($1)
	`

	result, err := tx.Exec(ctx, query, ids)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected(), nil
}
