// Package result implements the tagged outcome type used by every use case
// that is expected to fail under normal operation. Capacity shortfalls,
// stale reservations and ownership mismatches travel as error codes inside a
// Result, never as Go errors or panics.
package result

// Status classifies the outcome of an operation.
type Status string

const (
	StatusOK              Status = "OK"
	StatusValidationError Status = "VALIDATION_ERROR"
	StatusConflict        Status = "CONFLICT"
	StatusNotFound        Status = "NOT_FOUND"
	StatusInternalError   Status = "INTERNAL_ERROR"
)

// ErrorCode identifies a single independent cause of failure.
type ErrorCode struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

var (
	NotEnoughSeats          = ErrorCode{"NOT_ENOUGH_SEATS", "not enough seats available in the requested category"}
	EventNotFound           = ErrorCode{"EVENT_NOT_FOUND", "event not found"}
	CategoryNotFound        = ErrorCode{"CATEGORY_NOT_FOUND", "ticket category not found"}
	ReservationNotFound     = ErrorCode{"RESERVATION_NOT_FOUND", "reservation not found"}
	UpdateFailed            = ErrorCode{"UPDATE_FAILED", "reservation could not be updated"}
	InvalidStatus           = ErrorCode{"INVALID_STATUS", "reservation is not in a valid status for this operation"}
	TicketsNotInReservation = ErrorCode{"TICKETS_NOT_IN_RESERVATION", "requested tickets do not belong to the reservation"}
	RefundNotSupported      = ErrorCode{"REFUND_NOT_SUPPORTED", "payment method does not support refunds"}
)

// Custom builds an ad-hoc error code, typically wrapping an unexpected fault
// at a transaction boundary.
func Custom(code, description string) ErrorCode {
	return ErrorCode{Code: code, Description: description}
}

// Result carries either a payload (status OK) or an ordered, non-empty list
// of error codes.
type Result[T any] struct {
	Status Status
	Data   T
	Errors []ErrorCode
}

func Success[T any](data T) Result[T] {
	return Result[T]{Status: StatusOK, Data: data}
}

func Error[T any](status Status, errors ...ErrorCode) Result[T] {
	return Result[T]{Status: status, Errors: errors}
}

func Conflict[T any](errors ...ErrorCode) Result[T] {
	return Error[T](StatusConflict, errors...)
}

func NotFound[T any](errors ...ErrorCode) Result[T] {
	return Error[T](StatusNotFound, errors...)
}

func Internal[T any](errors ...ErrorCode) Result[T] {
	return Error[T](StatusInternalError, errors...)
}

func (r Result[T]) IsSuccess() bool {
	return r.Status == StatusOK
}

// FirstError returns the first error code, or a zero value for successful
// results.
func (r Result[T]) FirstError() ErrorCode {
	if len(r.Errors) == 0 {
		return ErrorCode{}
	}
	return r.Errors[0]
}

// Reduce merges two independent results over the same payload shape. Both
// must succeed for the merged result to succeed; otherwise the errors of both
// inputs are concatenated, left first, under the first non-OK status
// encountered. Error collection never short-circuits: every independent
// cause of failure is reported.
func Reduce[T any](r1, r2 Result[T], merge func(T, T) T) Result[T] {
	status := r2.Status
	if !r1.IsSuccess() {
		status = r1.Status
	}
	if r1.IsSuccess() && r2.IsSuccess() {
		return Result[T]{Status: status, Data: merge(r1.Data, r2.Data)}
	}
	errors := make([]ErrorCode, 0, len(r1.Errors)+len(r2.Errors))
	errors = append(errors, r1.Errors...)
	errors = append(errors, r2.Errors...)
	return Result[T]{Status: status, Errors: errors}
}

// Map transforms the payload of a successful result, propagating failures
// untouched.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if !r.IsSuccess() {
		return Result[U]{Status: r.Status, Errors: r.Errors}
	}
	return Success(fn(r.Data))
}

// FlatMap chains an operation that itself may fail onto a successful result.
func FlatMap[T, U any](r Result[T], fn func(T) Result[U]) Result[U] {
	if !r.IsSuccess() {
		return Result[U]{Status: r.Status, Errors: r.Errors}
	}
	return fn(r.Data)
}
