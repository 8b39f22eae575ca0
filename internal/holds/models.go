package holds

import (
	"time"

	"github.com/google/uuid"
)

// Hold reserves capacity on a slot for a short window while a customer
// completes checkout. Expired holds no longer count against capacity even
// before the sweeper flips their status.
type Hold struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID      int64     `gorm:"not null;index:idx_hold_slot,priority:1" json:"product_id"`
	ScheduleRuleID int64     `gorm:"not null" json:"schedule_rule_id"`
	SlotDate       string    `gorm:"type:varchar(10);not null;index:idx_hold_slot,priority:2" json:"slot_date"` // YYYY-MM-DD
	SlotTime       string    `gorm:"type:varchar(8);not null;index:idx_hold_slot,priority:3" json:"slot_time"`  // HH:MM:SS
	Participants   int       `gorm:"not null" json:"participants"`
	SessionID      string    `gorm:"type:varchar(64);not null;index:idx_hold_session" json:"session_id"`
	Status         string    `gorm:"type:varchar(20);not null;default:'ACTIVE';index:idx_hold_slot,priority:4" json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	ExpiresAt      time.Time `gorm:"not null;index" json:"expires_at"`
}

func (Hold) TableName() string {
	return "holds"
}

// IsExpired reports whether the hold's window has lapsed at the given
// instant, regardless of its stored status.
func (h *Hold) IsExpired(now time.Time) bool {
	return !h.ExpiresAt.After(now)
}
