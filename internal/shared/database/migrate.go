package database

import (
	"tourbase/internal/bookings"
	"tourbase/internal/holds"
	"tourbase/internal/orders"
	"tourbase/internal/schedules"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&schedules.ScheduleRule{},
		&schedules.Override{},
		&holds.Hold{},
		&bookings.Booking{},
		&orders.Order{},
		&orders.OrderItem{},
	)
}
