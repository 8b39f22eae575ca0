package holds

// CreateHoldRequest places a temporary reservation on a slot. Date is
// YYYY-MM-DD; StartTime accepts HH:MM or HH:MM:SS.
type CreateHoldRequest struct {
	ProductID    int64  `json:"product_id" binding:"required,min=1"`
	Date         string `json:"date" binding:"required"`
	StartTime    string `json:"start_time" binding:"required,timeofday"`
	Participants int    `json:"participants" binding:"required,min=1"`
	SessionID    string `json:"session_id" binding:"required,max=64"`
}
