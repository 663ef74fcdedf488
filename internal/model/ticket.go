package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TicketStatus is the lifecycle state of a single inventory unit.
type TicketStatus string

const (
	TicketStatusFree      TicketStatus = "FREE"
	TicketStatusPending   TicketStatus = "PENDING"
	TicketStatusAcquired  TicketStatus = "ACQUIRED"
	TicketStatusCancelled TicketStatus = "CANCELLED"
)

func (s TicketStatus) IsValid() bool {
	switch s {
	case TicketStatusFree, TicketStatusPending, TicketStatusAcquired, TicketStatusCancelled:
		return true
	}
	return false
}

// Ticket is one seat. Category assignment and status change only through
// the allocator or the removal workflow; at most one reservation holds a
// ticket at a time.
type Ticket struct {
	ID             int             `json:"id" db:"id"`
	EventID        int             `json:"event_id" db:"event_id"`
	CategoryID     *int            `json:"category_id,omitempty" db:"category_id"`
	ReservationID  *string         `json:"reservation_id,omitempty" db:"reservation_id"`
	SpecialPriceID *int            `json:"special_price_id,omitempty" db:"special_price_id"`
	Status         TicketStatus    `json:"status" db:"status"`
	Email          string          `json:"email" db:"email"`
	FullName       string          `json:"full_name" db:"full_name"`
	SrcPrice       decimal.Decimal `json:"src_price" db:"src_price"`
	VAT            decimal.Decimal `json:"vat" db:"vat"`
	Discount       decimal.Decimal `json:"discount" db:"discount"`
	FinalPrice     decimal.Decimal `json:"final_price" db:"final_price"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// Assigned reports whether an attendee has been set on the ticket.
func (t *Ticket) Assigned() bool {
	return t.Email != "" || t.FullName != ""
}
