package availability

// Slot is the resolved availability unit for one product, date and start
// time. It is derived on every query and never persisted.
type Slot struct {
	ProductID       int64   `json:"product_id"`
	ScheduleRuleID  int64   `json:"schedule_rule_id"`
	Date            string  `json:"date"`       // YYYY-MM-DD
	StartTime       string  `json:"start_time"` // HH:MM:SS
	EndTime         string  `json:"end_time"`   // HH:MM:SS
	DurationMinutes int     `json:"duration_minutes"`
	Capacity        int     `json:"capacity"`
	ConfirmedCount  int     `json:"confirmed_count"`
	HeldCount       int     `json:"held_count"`
	Available       int     `json:"available"`
	IsAvailable     bool    `json:"is_available"`
	PriceAdult      float64 `json:"price_adult"`
	PriceChild      float64 `json:"price_child"`
	MeetingPointID  int64   `json:"meeting_point_id"`
	Language        string  `json:"language"`
}
