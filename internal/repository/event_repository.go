package repository

import (
	"context"
	"errors"

	"ticket-reservation/internal/model"
	apperrors "ticket-reservation/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EventRepository interface {
	FindByShortName(ctx context.Context, shortName string) (*model.Event, error)
	FindByReservationID(ctx context.Context, reservationID string) (*model.Event, error)

	// Transaction methods
	FindByShortNameForUpdate(ctx context.Context, tx pgx.Tx, shortName string) (*model.Event, error)
	FindByID(ctx context.Context, tx pgx.Tx, id int) (*model.Event, error)
	UpdateAvailableSeats(ctx context.Context, tx pgx.Tx, id int, delta int) error
}

type EventRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) EventRepository {
	return &EventRepositoryImpl{pool: pool}
}

const eventColumns = `id, organization_id, short_name, display_name, time_zone,
		available_seats, currency, vat_percent, created_at, updated_at`

func scanEvent(row pgx.Row) (*model.Event, error) {
	var event model.Event
	err := row.Scan(
		&event.ID,
		&event.OrganizationID,
		&event.ShortName,
		&event.DisplayName,
		&event.TimeZone,
		&event.AvailableSeats,
		&event.Currency,
		&event.VatPercent,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, err
	}
	return &event, nil
}

func (r *EventRepositoryImpl) FindByShortName(ctx context.Context, shortName string) (*model.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE short_name = $1
	`
	return scanEvent(r.pool.QueryRow(ctx, query, shortName))
}

func (r *EventRepositoryImpl) FindByShortNameForUpdate(ctx context.Context, tx pgx.Tx, shortName string) (*model.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE short_name = $1
		FOR UPDATE
	`
	return scanEvent(tx.QueryRow(ctx, query, shortName))
}

func (r *EventRepositoryImpl) FindByID(ctx context.Context, tx pgx.Tx, id int) (*model.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE id = $1
	`
	return scanEvent(tx.QueryRow(ctx, query, id))
}

func (r *EventRepositoryImpl) FindByReservationID(ctx context.Context, reservationID string) (*model.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE id = (SELECT event_id FROM ticket_reservations WHERE id = $1)
	`
	return scanEvent(r.pool.QueryRow(ctx, query, reservationID))
}

// UpdateAvailableSeats grows (or shrinks) the event's shared seat pool by
// delta. Growth operations call this with exactly the number of tickets they
// created.
func (r *EventRepositoryImpl) UpdateAvailableSeats(ctx context.Context, tx pgx.Tx, id int, delta int) error {
	query := `
		UPDATE events
		SET available_seats = available_seats + $1, updated_at = now()
		WHERE id = $2
	`

	result, err := tx.Exec(ctx, query, delta, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrEventNotFound
	}

	return nil
}
