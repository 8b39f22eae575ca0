package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds constraints AutoMigrate cannot express. The
// partial unique index is the idempotency backstop for order ingestion;
// direct bookings keep order_id 0 and stay out of it.
func MigrateConstraints(db *gorm.DB) error {
	err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS unique_booking_per_order_item
		ON bookings (order_id, order_item_id)
		WHERE order_id > 0;
	`).Error
	if err != nil {
		return err
	}

	// One row per product/date/time override; day-wide rows use an empty
	// sentinel so NULL start times cannot duplicate.
	err = db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS unique_override_per_slot
		ON overrides (product_id, date, COALESCE(start_time, ''));
	`).Error
	if err != nil {
		return err
	}

	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_holds_expiry_sweep
		ON holds (status, expires_at);
	`).Error
	if err != nil {
		return err
	}

	return nil
}
