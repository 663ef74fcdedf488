package model

import "time"

// ReservationStatus is the state of a checkout aggregate.
type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "PENDING"
	ReservationStatusInPayment ReservationStatus = "IN_PAYMENT"
	ReservationStatusComplete  ReservationStatus = "COMPLETE"
	ReservationStatusCancelled ReservationStatus = "CANCELLED"
)

func (s ReservationStatus) IsValid() bool {
	switch s {
	case ReservationStatusPending, ReservationStatusInPayment, ReservationStatusComplete, ReservationStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo enforces the reservation state machine. There is no way
// out of CANCELLED; COMPLETE only allows explicit cancellation.
func (s ReservationStatus) CanTransitionTo(target ReservationStatus) bool {
	transitions := map[ReservationStatus][]ReservationStatus{
		ReservationStatusPending:   {ReservationStatusInPayment, ReservationStatusComplete, ReservationStatusCancelled},
		ReservationStatusInPayment: {ReservationStatusComplete, ReservationStatusCancelled},
		ReservationStatusComplete:  {ReservationStatusCancelled},
		ReservationStatusCancelled: {},
	}
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// PaymentMethod references how the reservation was, or will be, paid.
type PaymentMethod string

const (
	PaymentMethodCreditCard PaymentMethod = "CREDIT_CARD"
	PaymentMethodPayPal     PaymentMethod = "PAYPAL"
	PaymentMethodOnSite     PaymentMethod = "ON_SITE"
	PaymentMethodOffline    PaymentMethod = "OFFLINE"
	PaymentMethodAdmin      PaymentMethod = "ADMIN"
)

// SupportsRefund reports whether compensating refunds can be issued against
// this payment method.
func (p PaymentMethod) SupportsRefund() bool {
	return p == PaymentMethodCreditCard || p == PaymentMethodPayPal
}

// TicketReservation holds one or more tickets under a single customer and
// expiration deadline. Its id is an opaque token handed to the caller.
type TicketReservation struct {
	ID                    string            `json:"id" db:"id"`
	EventID               int               `json:"event_id" db:"event_id"`
	Status                ReservationStatus `json:"status" db:"status"`
	ValidUntil            time.Time         `json:"valid_until" db:"valid_until"`
	Email                 string            `json:"email" db:"email"`
	FullName              string            `json:"full_name" db:"full_name"`
	BillingAddress        string            `json:"billing_address" db:"billing_address"`
	UserLanguage          string            `json:"user_language" db:"user_language"`
	PaymentMethod         *PaymentMethod    `json:"payment_method,omitempty" db:"payment_method"`
	ConfirmationTimestamp *time.Time        `json:"confirmation_ts,omitempty" db:"confirmation_ts"`
	CreatedAt             time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at" db:"updated_at"`
}

// IsExpired reports whether the validity deadline has passed.
func (r *TicketReservation) IsExpired(now time.Time) bool {
	return now.After(r.ValidUntil)
}

// AdditionalServiceItemStatus mirrors the reservation lifecycle for attached
// extra items; cancellation of the reservation cascades here.
type AdditionalServiceItemStatus string

const (
	AdditionalServiceItemStatusPending   AdditionalServiceItemStatus = "PENDING"
	AdditionalServiceItemStatusAcquired  AdditionalServiceItemStatus = "ACQUIRED"
	AdditionalServiceItemStatusCancelled AdditionalServiceItemStatus = "CANCELLED"
)
