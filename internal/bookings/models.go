package bookings

import "time"

// Booking is the durable reservation ledger entry. Rows are never deleted;
// lifecycle changes only move status forward.
type Booking struct {
	ID             int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID        int64      `gorm:"not null;default:0;index:idx_booking_order,priority:1" json:"order_id"`
	OrderItemID    int64      `gorm:"not null;default:0;index:idx_booking_order,priority:2" json:"order_item_id"`
	ProductID      int64      `gorm:"not null;index:idx_booking_slot,priority:1" json:"product_id"`
	ScheduleRuleID int64      `gorm:"not null" json:"schedule_rule_id"`
	BookingDate    string     `gorm:"type:varchar(10);not null;index:idx_booking_slot,priority:2" json:"booking_date"` // YYYY-MM-DD
	BookingTime    string     `gorm:"type:varchar(8);not null;index:idx_booking_slot,priority:3" json:"booking_time"`  // HH:MM:SS
	Adults         int        `gorm:"not null" json:"adults"`
	Children       int        `gorm:"not null;default:0" json:"children"`
	Participants   int        `gorm:"not null" json:"participants"`
	MeetingPointID int64      `gorm:"not null;default:0" json:"meeting_point_id"`
	Language       string     `gorm:"type:varchar(10)" json:"language"`
	Status         string     `gorm:"type:varchar(20);not null;default:'CONFIRMED';index:idx_booking_slot,priority:4" json:"status"`
	CustomerID     int64      `gorm:"not null;index" json:"customer_id"`
	CustomerName   string     `gorm:"type:varchar(255)" json:"customer_name"`
	CustomerEmail  string     `gorm:"type:varchar(255)" json:"customer_email"`
	BookingNumber  string     `gorm:"type:varchar(32);uniqueIndex;not null" json:"booking_number"`
	TotalAmount    float64    `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	Currency       string     `gorm:"type:varchar(3);not null" json:"currency"`
	AdminNotes     string     `gorm:"type:text" json:"admin_notes,omitempty"`
	CheckedInAt    *time.Time `json:"checked_in_at,omitempty"`
	CheckedInBy    *int64     `json:"checked_in_by,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (Booking) TableName() string {
	return "bookings"
}

// SlotDateTime parses the booking's date and time into a single instant in
// the given location.
func (b *Booking) SlotDateTime(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04:05", b.BookingDate+" "+b.BookingTime, loc)
}
