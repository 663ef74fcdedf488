package model

// SpecialPriceStatus is the lifecycle state of a limited-use discount code.
type SpecialPriceStatus string

const (
	SpecialPriceStatusFree    SpecialPriceStatus = "FREE"
	SpecialPriceStatusPending SpecialPriceStatus = "PENDING"
	SpecialPriceStatusTaken   SpecialPriceStatus = "TAKEN"
)

// SpecialPrice is a discount code bound to at most one attendee of an
// access-restricted category. The number of PENDING/TAKEN codes for a
// category never exceeds the category capacity.
type SpecialPrice struct {
	ID         int                `json:"id" db:"id"`
	CategoryID int                `json:"category_id" db:"category_id"`
	Code       string             `json:"code" db:"code"`
	Status     SpecialPriceStatus `json:"status" db:"status"`
	SessionID  string             `json:"session_id" db:"session_id"`
}
