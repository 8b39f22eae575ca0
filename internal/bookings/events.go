package bookings

import "context"

const (
	EventBookingConfirmed   = "booking.confirmed"
	EventBookingCancelled   = "booking.cancelled"
	EventBookingRefunded    = "booking.refunded"
	EventBookingCompleted   = "booking.completed"
	EventBookingRescheduled = "booking.rescheduled"
)

// EventPublisher hands booking lifecycle events to the messaging layer.
// Publishing is best-effort; delivery failures never roll back the booking.
type EventPublisher interface {
	PublishBookingEvent(ctx context.Context, eventType string, booking *Booking) error
}
