package bookings

import "time"

// CancellationQuote is an advisory fee computation. No money moves here; the
// external refund workflow reads it.
type CancellationQuote struct {
	BookingID    int64     `json:"booking_id"`
	Free         bool      `json:"free"`
	FeePercent   float64   `json:"fee_percent"`
	FeeAmount    float64   `json:"fee_amount"`
	RefundAmount float64   `json:"refund_amount"`
	Deadline     time.Time `json:"free_cancel_deadline"`
}

type ListBookingsResponse struct {
	Bookings   []Booking `json:"bookings"`
	TotalCount int64     `json:"total_count"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
}
