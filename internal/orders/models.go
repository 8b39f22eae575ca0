package orders

import "time"

// Order is a read-only view of the external checkout pipeline's order. The
// engine never writes these tables; the pipeline owns them.
type Order struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	CustomerID    int64     `gorm:"not null" json:"customer_id"`
	CustomerName  string    `gorm:"type:varchar(255)" json:"customer_name"`
	CustomerEmail string    `gorm:"type:varchar(255)" json:"customer_email"`
	SessionID     string    `gorm:"type:varchar(64)" json:"session_id"`
	Status        string    `gorm:"type:varchar(20);not null" json:"status"`
	Currency      string    `gorm:"type:varchar(3)" json:"currency"`
	CreatedAt     time.Time `json:"created_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem is one line on an order. Only experience lines carry slot
// fields; other item types are ignored at ingestion.
type OrderItem struct {
	ID             int64   `gorm:"primaryKey" json:"id"`
	OrderID        int64   `gorm:"not null;index" json:"order_id"`
	ItemType       string  `gorm:"type:varchar(20);not null" json:"item_type"`
	ProductID      int64   `gorm:"not null" json:"product_id"`
	SlotDate       string  `gorm:"type:varchar(10)" json:"slot_date"` // YYYY-MM-DD
	SlotTime       string  `gorm:"type:varchar(8)" json:"slot_time"`  // HH:MM:SS
	Adults         int     `json:"adults"`
	Children       int     `json:"children"`
	MeetingPointID int64   `json:"meeting_point_id"`
	Language       string  `gorm:"type:varchar(10)" json:"language"`
	LineTotal      float64 `gorm:"type:decimal(10,2)" json:"line_total"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

const (
	ItemTypeExperience = "EXPERIENCE"

	OrderStatusPaid      = "PAID"
	OrderStatusConfirmed = "CONFIRMED"
)

// Qualifies reports whether this line should produce a booking.
func (i *OrderItem) Qualifies() bool {
	return i.ItemType == ItemTypeExperience && i.ProductID > 0 && i.SlotDate != "" && i.SlotTime != ""
}
