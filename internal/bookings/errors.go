package bookings

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCustomer     = errors.New("invalid customer")
	ErrInvalidProduct      = errors.New("invalid product")
	ErrInvalidDate         = errors.New("invalid booking date")
	ErrInvalidTime         = errors.New("invalid booking time")
	ErrInvalidParticipants = errors.New("invalid participant count")
	ErrSlotUnavailable     = errors.New("slot is not available for booking")
	ErrInvalidMeetingPoint = errors.New("meeting point does not match the slot")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrAlreadyCheckedIn    = errors.New("booking is already checked in")
	ErrOrderNotFound       = errors.New("order not found")
)

// CutoffError rejects bookings made too close to departure. It carries the
// configured lead time so callers can explain the rejection.
type CutoffError struct {
	CutoffMinutes int
}

func (e *CutoffError) Error() string {
	return fmt.Sprintf("bookings close %d minutes before the slot starts", e.CutoffMinutes)
}

// ConversionError means the session's hold could not be converted, usually
// because it expired mid-checkout. Callers fall back to direct creation.
type ConversionError struct {
	Reason string
}

func (e *ConversionError) Error() string {
	return "hold conversion failed: " + e.Reason
}

// TransitionError rejects an illegal booking status change.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition booking from %s to %s", e.From, e.To)
}
