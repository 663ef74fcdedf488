package apperrors

import "errors"

var (
	ErrEventNotFound           = errors.New("event not found")
	ErrCategoryNotFound        = errors.New("ticket category not found")
	ErrTicketNotFound          = errors.New("ticket not found")
	ErrReservationNotFound     = errors.New("reservation not found")
	ErrNotEnoughSeats          = errors.New("not enough seats")
	ErrInvalidReservationState = errors.New("invalid reservation state")
	ErrTicketsNotInReservation = errors.New("some tickets do not belong to the reservation")
	ErrRefundNotSupported      = errors.New("payment method does not support refunds")
	ErrInvalidInput            = errors.New("invalid input")
	ErrInternalServerError     = errors.New("internal server error")
)
