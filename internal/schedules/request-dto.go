package schedules

type CreateScheduleRuleRequest struct {
	ProductID       int64   `json:"product_id" binding:"required,min=1"`
	Weekday         *int    `json:"weekday" binding:"required,min=0,max=6"`
	StartTime       string  `json:"start_time" binding:"required,timeofday"`
	DurationMinutes int     `json:"duration_minutes" binding:"required,min=5,max=1440"`
	Capacity        int     `json:"capacity" binding:"required,min=1,max=100000"`
	PriceAdult      float64 `json:"price_adult" binding:"min=0"`
	PriceChild      float64 `json:"price_child" binding:"min=0"`
	MeetingPointID  int64   `json:"meeting_point_id"`
	Language        string  `json:"language" binding:"max=10"`
}

type UpdateScheduleRuleRequest struct {
	StartTime       *string  `json:"start_time"`
	DurationMinutes *int     `json:"duration_minutes" binding:"omitempty,min=5,max=1440"`
	Capacity        *int     `json:"capacity" binding:"omitempty,min=1,max=100000"`
	PriceAdult      *float64 `json:"price_adult" binding:"omitempty,min=0"`
	PriceChild      *float64 `json:"price_child" binding:"omitempty,min=0"`
	MeetingPointID  *int64   `json:"meeting_point_id"`
	Language        *string  `json:"language" binding:"omitempty,max=10"`
	IsActive        *bool    `json:"is_active"`
}

type UpsertOverrideRequest struct {
	ProductID          int64    `json:"product_id" binding:"required,min=1"`
	Date               string   `json:"date" binding:"required"`
	StartTime          *string  `json:"start_time"`
	IsClosed           bool     `json:"is_closed"`
	CapacityOverride   *int     `json:"capacity_override" binding:"omitempty,min=0"`
	PriceAdultOverride *float64 `json:"price_adult_override" binding:"omitempty,min=0"`
	PriceChildOverride *float64 `json:"price_child_override" binding:"omitempty,min=0"`
}
