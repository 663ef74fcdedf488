package notification

import (
	"time"

	"github.com/ThreeDotsLabs/watermill"
)

const (
	TopicReservationConfirmed = "ReservationConfirmed"
	TopicTicketRemoved        = "TicketRemoved"
	TopicTicketAssigned       = "TicketAssigned"
)

type Header struct {
	ID          string    `json:"id"`
	PublishedAt time.Time `json:"published_at"`
}

func NewHeader() Header {
	return Header{
		ID:          watermill.NewUUID(),
		PublishedAt: time.Now().UTC(),
	}
}

// ReservationConfirmed asks the mailer to send the customer-facing
// confirmation for a completed reservation.
type ReservationConfirmed struct {
	Header        Header `json:"header"`
	ReservationID string `json:"reservation_id"`
	EventName     string `json:"event_name"`
	Email         string `json:"email"`
	Language      string `json:"language"`
}

// TicketRemoved tells an attendee their ticket has been released.
type TicketRemoved struct {
	Header    Header `json:"header"`
	TicketID  int    `json:"ticket_id"`
	EventName string `json:"event_name"`
	Email     string `json:"email"`
}

// TicketAssigned re-sends a ticket to its assigned attendee.
type TicketAssigned struct {
	Header    Header `json:"header"`
	TicketID  int    `json:"ticket_id"`
	EventName string `json:"event_name"`
	Email     string `json:"email"`
	Language  string `json:"language"`
}
