package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Attendee is the transient identity attached to one requested ticket. An
// empty attendee produces a placeholder ticket with no owner yet.
type Attendee struct {
	// TicketID is only meaningful on update requests, where it names the
	// already-allocated ticket whose owner is being overwritten.
	TicketID  int    `json:"ticket_id,omitempty"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (a Attendee) IsEmpty() bool {
	return a.Email == "" && a.FirstName == "" && a.LastName == ""
}

func (a Attendee) FullName() string {
	switch {
	case a.FirstName == "":
		return a.LastName
	case a.LastName == "":
		return a.FirstName
	default:
		return a.FirstName + " " + a.LastName
	}
}

// CategoryRequest names either an existing category or the definition of a
// brand-new one to allocate against.
type CategoryRequest struct {
	ExistingCategoryID *int            `json:"existing_category_id,omitempty"`
	Name               string          `json:"name"`
	Price              decimal.Decimal `json:"price"`
}

func (c CategoryRequest) IsExisting() bool {
	return c.ExistingCategoryID != nil
}

// TicketsInfo groups the attendees requested for one category, along with
// the per-category growth authorization.
type TicketsInfo struct {
	Category               CategoryRequest `json:"category"`
	Attendees              []Attendee      `json:"attendees"`
	AddSeatsIfNotAvailable bool            `json:"add_seats_if_not_available"`
	UpdateAttendees        bool            `json:"update_attendees"`
}

// CustomerData is the contact information stored on the reservation.
type CustomerData struct {
	Email          string `json:"email"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	BillingAddress string `json:"billing_address"`
}

func (c CustomerData) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	default:
		return c.FirstName + " " + c.LastName
	}
}

// ReservationModification is the full create/update request for a
// reservation, grouping one TicketsInfo per requested category.
type ReservationModification struct {
	TicketsInfo       []TicketsInfo `json:"tickets_info"`
	CustomerData      CustomerData  `json:"customer_data"`
	Language          string        `json:"language"`
	Expiration        time.Time     `json:"expiration"`
	UpdateContactData bool          `json:"update_contact_data"`
}

// NotificationRequest selects who gets re-notified for a reservation.
type NotificationRequest struct {
	Customer  bool `json:"customer"`
	Attendees bool `json:"attendees"`
}

// OrderSummaryRow is one line of the audit snapshot stored at creation time.
type OrderSummaryRow struct {
	CategoryName string          `json:"category_name"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	SubTotal     decimal.Decimal `json:"sub_total"`
}

// OrderSummary is the audit snapshot of a reservation at creation time.
type OrderSummary struct {
	ReservationID string            `json:"reservation_id"`
	Currency      string            `json:"currency"`
	Total         decimal.Decimal   `json:"total"`
	Rows          []OrderSummaryRow `json:"rows"`
}
