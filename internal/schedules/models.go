package schedules

import (
	"time"
)

// ScheduleRule is a recurring availability template: one row per product,
// weekday and start time. Multiple rules may exist for the same
// product/weekday (different times or languages).
type ScheduleRule struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID       int64     `gorm:"index:idx_schedule_product_weekday;not null" json:"product_id"`
	Weekday         int       `gorm:"index:idx_schedule_product_weekday;not null;check:weekday >= 0 AND weekday <= 6" json:"weekday"`
	StartTime       string    `gorm:"type:varchar(8);not null" json:"start_time"` // HH:MM:SS
	DurationMinutes int       `gorm:"not null;default:60" json:"duration_minutes"`
	Capacity        int       `gorm:"not null;check:capacity > 0" json:"capacity"`
	PriceAdult      float64   `gorm:"not null;default:0" json:"price_adult"`
	PriceChild      float64   `gorm:"not null;default:0" json:"price_child"`
	MeetingPointID  int64     `gorm:"default:0" json:"meeting_point_id"`
	Language        string    `gorm:"type:varchar(10)" json:"language"`
	IsActive        bool      `gorm:"default:true" json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Override is a date-specific exception to the recurring rules. A row with
// an empty StartTime applies to every slot that day; a row with a StartTime
// applies only to the matching rule. Override values take precedence over
// the rule's capacity and prices.
type Override struct {
	ID                 int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID          int64     `gorm:"index:idx_override_product_date;not null" json:"product_id"`
	Date               string    `gorm:"index:idx_override_product_date;type:varchar(10);not null" json:"date"` // YYYY-MM-DD
	StartTime          *string   `gorm:"type:varchar(8)" json:"start_time,omitempty"`                           // nil applies to all slots that day
	IsClosed           bool      `gorm:"default:false" json:"is_closed"`
	CapacityOverride   *int      `json:"capacity_override,omitempty"`
	PriceAdultOverride *float64  `json:"price_adult_override,omitempty"`
	PriceChildOverride *float64  `json:"price_child_override,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// TableName sets the table name for ScheduleRule
func (ScheduleRule) TableName() string {
	return "schedule_rules"
}

// TableName sets the table name for Override
func (Override) TableName() string {
	return "overrides"
}

// AppliesTo reports whether the override applies to a slot starting at the
// given time of day.
func (o *Override) AppliesTo(startTime string) bool {
	return o.StartTime == nil || *o.StartTime == startTime
}
