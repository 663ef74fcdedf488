package model

import "time"

// Event owns the shared seat pool that unbounded categories draw from. The
// available-seat counter only ever grows, and only through an authorized
// capacity-growth operation.
type Event struct {
	ID             int       `json:"id" db:"id"`
	OrganizationID int       `json:"organization_id" db:"organization_id"`
	ShortName      string    `json:"short_name" db:"short_name"`
	DisplayName    string    `json:"display_name" db:"display_name"`
	TimeZone       string    `json:"time_zone" db:"time_zone"`
	AvailableSeats int       `json:"available_seats" db:"available_seats"`
	Currency       string    `json:"currency" db:"currency"`
	VatPercent     string    `json:"vat_percent" db:"vat_percent"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Location resolves the event time zone, falling back to UTC if the stored
// zone name is invalid.
func (e *Event) Location() *time.Location {
	loc, err := time.LoadLocation(e.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Now returns the current time in the event's zone. New tickets created by
// capacity growth are dated with this value.
func (e *Event) Now() time.Time {
	return time.Now().In(e.Location())
}
