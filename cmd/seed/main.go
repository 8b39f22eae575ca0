package main

import (
	"fmt"
	"log"
	"time"

	"tourbase/internal/orders"
	"tourbase/internal/schedules"
	"tourbase/internal/shared/config"
	"tourbase/internal/shared/database"
)

type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("Starting Tourbase database seeder...")

	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db}

	fmt.Println("Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}

	fmt.Println("Seeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}

	fmt.Println("Seeding completed. Database is ready for testing.")
}

// CleanDatabase truncates all tables in reverse dependency order
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"holds",
		"bookings",
		"order_items",
		"orders",
		"overrides",
		"schedule_rules",
	}

	pg := s.db.GetPostgreSQL()
	for _, table := range tables {
		if err := pg.Exec("TRUNCATE TABLE " + table + " RESTART IDENTITY CASCADE").Error; err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}
	return nil
}

func (s *Seeder) SeedAll() error {
	if err := s.seedScheduleRules(); err != nil {
		return err
	}
	if err := s.seedOverrides(); err != nil {
		return err
	}
	return s.seedOrders()
}

func (s *Seeder) seedScheduleRules() error {
	rules := []schedules.ScheduleRule{
		// Product 1: city walking tour, daily morning and afternoon
		{ProductID: 1, Weekday: 1, StartTime: "10:00:00", DurationMinutes: 120, Capacity: 15, PriceAdult: 35, PriceChild: 18, MeetingPointID: 1, Language: "en", IsActive: true},
		{ProductID: 1, Weekday: 1, StartTime: "15:00:00", DurationMinutes: 120, Capacity: 15, PriceAdult: 35, PriceChild: 18, MeetingPointID: 1, Language: "en", IsActive: true},
		{ProductID: 1, Weekday: 3, StartTime: "10:00:00", DurationMinutes: 120, Capacity: 15, PriceAdult: 35, PriceChild: 18, MeetingPointID: 1, Language: "en", IsActive: true},
		{ProductID: 1, Weekday: 5, StartTime: "10:00:00", DurationMinutes: 120, Capacity: 20, PriceAdult: 38, PriceChild: 20, MeetingPointID: 1, Language: "en", IsActive: true},
		{ProductID: 1, Weekday: 5, StartTime: "10:00:00", DurationMinutes: 150, Capacity: 12, PriceAdult: 42, PriceChild: 22, MeetingPointID: 1, Language: "it", IsActive: true},

		// Product 2: weekend wine tasting
		{ProductID: 2, Weekday: 6, StartTime: "11:00:00", DurationMinutes: 180, Capacity: 10, PriceAdult: 65, PriceChild: 0, MeetingPointID: 2, Language: "en", IsActive: true},
		{ProductID: 2, Weekday: 0, StartTime: "11:00:00", DurationMinutes: 180, Capacity: 10, PriceAdult: 65, PriceChild: 0, MeetingPointID: 2, Language: "en", IsActive: true},

		// Inactive rule, should never resolve
		{ProductID: 2, Weekday: 2, StartTime: "09:00:00", DurationMinutes: 180, Capacity: 8, PriceAdult: 60, PriceChild: 0, MeetingPointID: 2, Language: "en", IsActive: false},
	}

	return s.db.GetPostgreSQL().Create(&rules).Error
}

func (s *Seeder) seedOverrides() error {
	nextMonday := nextWeekday(time.Now(), time.Monday).Format("2006-01-02")
	nextSaturday := nextWeekday(time.Now(), time.Saturday).Format("2006-01-02")
	morning := "10:00:00"
	cap8 := 8
	promo := 29.0

	overrides := []schedules.Override{
		// Reduced capacity and promo price for one Monday morning slot
		{ProductID: 1, Date: nextMonday, StartTime: &morning, CapacityOverride: &cap8, PriceAdultOverride: &promo},
		// Whole Saturday closed for product 2
		{ProductID: 2, Date: nextSaturday, IsClosed: true},
	}

	return s.db.GetPostgreSQL().Create(&overrides).Error
}

func (s *Seeder) seedOrders() error {
	nextMonday := nextWeekday(time.Now(), time.Monday).Format("2006-01-02")

	order := orders.Order{
		ID:            1001,
		CustomerID:    501,
		CustomerName:  "Ada Rossi",
		CustomerEmail: "ada.rossi@example.com",
		SessionID:     "seed-session-1",
		Status:        orders.OrderStatusPaid,
		Currency:      "EUR",
	}
	if err := s.db.GetPostgreSQL().Create(&order).Error; err != nil {
		return err
	}

	items := []orders.OrderItem{
		{ID: 2001, OrderID: 1001, ItemType: orders.ItemTypeExperience, ProductID: 1, SlotDate: nextMonday, SlotTime: "15:00:00", Adults: 2, Children: 1, MeetingPointID: 1, Language: "en", LineTotal: 88},
		// Non-experience line, ignored at ingestion
		{ID: 2002, OrderID: 1001, ItemType: "MERCHANDISE", ProductID: 9000, LineTotal: 25},
	}
	return s.db.GetPostgreSQL().Create(&items).Error
}

func nextWeekday(from time.Time, day time.Weekday) time.Time {
	d := from.AddDate(0, 0, 1)
	for d.Weekday() != day {
		d = d.AddDate(0, 0, 1)
	}
	return d
}
