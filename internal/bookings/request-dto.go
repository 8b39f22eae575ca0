package bookings

// CreateBookingRequest carries everything needed to book a slot directly or
// to convert a checkout session's hold. Date is YYYY-MM-DD; StartTime
// accepts HH:MM or HH:MM:SS.
type CreateBookingRequest struct {
	CustomerID     int64   `json:"customer_id" binding:"required,min=1"`
	ProductID      int64   `json:"product_id" binding:"required,min=1"`
	Date           string  `json:"date" binding:"required"`
	StartTime      string  `json:"start_time" binding:"required,timeofday"`
	Adults         int     `json:"adults" binding:"required,min=1"`
	Children       int     `json:"children" binding:"min=0"`
	MeetingPointID int64   `json:"meeting_point_id"`
	Language       string  `json:"language" binding:"omitempty,max=10"`
	CustomerName   string  `json:"customer_name" binding:"required,max=255"`
	CustomerEmail  string  `json:"customer_email" binding:"required,email"`
	ExtrasAmount   float64 `json:"extras_amount" binding:"min=0"`
	SessionID      string  `json:"session_id" binding:"omitempty,max=64"`
	Notes          string  `json:"notes" binding:"omitempty,max=1000"`
}

type RescheduleRequest struct {
	NewDate string `json:"new_date" binding:"required"`
	NewTime string `json:"new_time" binding:"required,timeofday"`
	Notes   string `json:"notes" binding:"omitempty,max=1000"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=CANCELLED REFUNDED COMPLETED"`
}

type ListBookingsRequest struct {
	ProductID  int64  `form:"product_id"`
	CustomerID int64  `form:"customer_id"`
	Status     string `form:"status" binding:"omitempty,oneof=CONFIRMED CANCELLED REFUNDED COMPLETED"`
	DateFrom   string `form:"date_from"`
	DateTo     string `form:"date_to"`
	Page       int    `form:"page,default=1" binding:"omitempty,min=1"`
	Limit      int    `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
}
