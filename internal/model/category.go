package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TicketCategory is a named bucket of tickets sharing price and capacity
// rules. A bounded category enforces a hard max-ticket cap; an unbounded one
// draws from the event's shared free pool.
type TicketCategory struct {
	ID               int             `json:"id" db:"id"`
	EventID          int             `json:"event_id" db:"event_id"`
	Name             string          `json:"name" db:"name"`
	Price            decimal.Decimal `json:"price" db:"price"`
	Bounded          bool            `json:"bounded" db:"bounded"`
	MaxTickets       int             `json:"max_tickets" db:"max_tickets"`
	AccessRestricted bool            `json:"access_restricted" db:"access_restricted"`
	Inception        time.Time       `json:"inception" db:"inception"`
	Expiration       time.Time       `json:"expiration" db:"expiration"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

// CategoryModification carries the fields for inserting a new category or
// updating an existing one.
type CategoryModification struct {
	Name             string
	Price            decimal.Decimal
	MaxTickets       int
	Bounded          bool
	AccessRestricted bool
	Inception        time.Time
	Expiration       time.Time
}
