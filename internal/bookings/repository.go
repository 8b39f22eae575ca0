package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tourbase/internal/holds"
)

type ListQuery struct {
	ProductID  int64
	CustomerID int64
	Status     string
	DateFrom   string
	DateTo     string
	Page       int
	Limit      int
}

type Repository interface {
	CreateWithCapacityCheck(ctx context.Context, booking *Booking, slotCapacity int, now time.Time, convertHoldID *uuid.UUID) error
	GetByID(ctx context.Context, id int64) (*Booking, error)
	GetByBookingNumber(ctx context.Context, number string) (*Booking, error)
	GetByOrderItem(ctx context.Context, orderID, orderItemID int64) (*Booking, error)
	List(ctx context.Context, query ListQuery) ([]Booking, int64, error)
	UpdateStatus(ctx context.Context, id int64, from, to BookingStatus) error
	RescheduleWithCapacityCheck(ctx context.Context, bookingID int64, newRuleID int64, newDate, newTime string, slotCapacity int, notes string, now time.Time) error
	CountConfirmedParticipants(ctx context.Context, productID int64, date, startTime string) (int, error)
	BookingNumberExists(ctx context.Context, number string) (bool, error)
	SetCheckedIn(ctx context.Context, id int64, staffID int64, at time.Time) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// CreateWithCapacityCheck inserts a booking atomically against the slot's
// capacity. The schedule rule row is locked so concurrent bookings and holds
// for the same slot serialize on it. When convertHoldID is set, that hold is
// flipped to CONVERTED in the same transaction and its participants do not
// count against capacity.
func (r *repository) CreateWithCapacityCheck(ctx context.Context, booking *Booking, slotCapacity int, now time.Time, convertHoldID *uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rule struct {
			ID int64 `gorm:"column:id"`
		}
		err := tx.Table("schedule_rules").
			Select("id").
			Where("id = ?", booking.ScheduleRuleID).
			Set("gorm:query_option", "FOR UPDATE").
			First(&rule).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSlotUnavailable
			}
			return fmt.Errorf("failed to lock schedule rule: %w", err)
		}

		if convertHoldID != nil {
			result := tx.Table("holds").
				Where("id = ? AND status = ? AND expires_at > ?", *convertHoldID, holds.StatusActive, now).
				Update("status", holds.StatusConverted)
			if result.Error != nil {
				return fmt.Errorf("failed to convert hold: %w", result.Error)
			}
			if result.RowsAffected == 0 {
				return &ConversionError{Reason: "hold expired or is no longer active"}
			}
		}

		heldQuery := tx.Table("holds").
			Select("COALESCE(SUM(participants), 0)").
			Where("product_id = ? AND slot_date = ? AND slot_time = ? AND status = ? AND expires_at > ?",
				booking.ProductID, booking.BookingDate, booking.BookingTime, holds.StatusActive, now)

		var held int64
		if err := heldQuery.Scan(&held).Error; err != nil {
			return fmt.Errorf("failed to sum active holds: %w", err)
		}

		var confirmed int64
		err = tx.Model(&Booking{}).
			Select("COALESCE(SUM(participants), 0)").
			Where("product_id = ? AND booking_date = ? AND booking_time = ? AND status = ?",
				booking.ProductID, booking.BookingDate, booking.BookingTime, StatusConfirmed).
			Scan(&confirmed).Error
		if err != nil {
			return fmt.Errorf("failed to sum confirmed bookings: %w", err)
		}

		available := slotCapacity - int(held) - int(confirmed)
		if booking.Participants > available {
			return &holds.CapacityError{Requested: booking.Participants, Available: available}
		}

		if err := tx.Create(booking).Error; err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}

		return nil
	})
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) GetByBookingNumber(ctx context.Context, number string) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).Where("booking_number = ?", number).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) GetByOrderItem(ctx context.Context, orderID, orderItemID int64) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND order_item_id = ?", orderID, orderItemID).
		First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) List(ctx context.Context, query ListQuery) ([]Booking, int64, error) {
	baseQuery := r.db.WithContext(ctx).Model(&Booking{})

	if query.ProductID > 0 {
		baseQuery = baseQuery.Where("product_id = ?", query.ProductID)
	}
	if query.CustomerID > 0 {
		baseQuery = baseQuery.Where("customer_id = ?", query.CustomerID)
	}
	if query.Status != "" {
		baseQuery = baseQuery.Where("status = ?", query.Status)
	}
	if query.DateFrom != "" {
		baseQuery = baseQuery.Where("booking_date >= ?", query.DateFrom)
	}
	if query.DateTo != "" {
		baseQuery = baseQuery.Where("booking_date <= ?", query.DateTo)
	}

	var totalCount int64
	if err := baseQuery.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit < 1 || query.Limit > 100 {
		query.Limit = 20
	}
	offset := (query.Page - 1) * query.Limit

	var bookings []Booking
	err := baseQuery.
		Order("booking_date DESC, booking_time DESC, id DESC").
		Offset(offset).
		Limit(query.Limit).
		Find(&bookings).Error

	return bookings, totalCount, err
}

// UpdateStatus flips the booking's status guarded by its current value, so
// concurrent transitions cannot both apply.
func (r *repository) UpdateStatus(ctx context.Context, id int64, from, to BookingStatus) error {
	result := r.db.WithContext(ctx).Model(&Booking{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return &TransitionError{From: from.String(), To: to.String()}
	}
	return nil
}

// RescheduleWithCapacityCheck moves a confirmed booking to a new slot. The
// seat on the old slot is freed by the row update itself; only the new slot
// needs a capacity check.
func (r *repository) RescheduleWithCapacityCheck(ctx context.Context, bookingID int64, newRuleID int64, newDate, newTime string, slotCapacity int, notes string, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rule struct {
			ID int64 `gorm:"column:id"`
		}
		err := tx.Table("schedule_rules").
			Select("id").
			Where("id = ?", newRuleID).
			Set("gorm:query_option", "FOR UPDATE").
			First(&rule).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSlotUnavailable
			}
			return fmt.Errorf("failed to lock schedule rule: %w", err)
		}

		var booking Booking
		err = tx.Set("gorm:query_option", "FOR UPDATE").
			Where("id = ?", bookingID).
			First(&booking).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("failed to lock booking: %w", err)
		}
		if booking.Status != StatusConfirmed.String() {
			return &TransitionError{From: booking.Status, To: StatusConfirmed.String()}
		}

		var held int64
		err = tx.Table("holds").
			Select("COALESCE(SUM(participants), 0)").
			Where("product_id = ? AND slot_date = ? AND slot_time = ? AND status = ? AND expires_at > ?",
				booking.ProductID, newDate, newTime, holds.StatusActive, now).
			Scan(&held).Error
		if err != nil {
			return fmt.Errorf("failed to sum active holds: %w", err)
		}

		// Exclude this booking so a move within the same slot never fails
		// its own capacity check.
		var confirmed int64
		err = tx.Model(&Booking{}).
			Select("COALESCE(SUM(participants), 0)").
			Where("product_id = ? AND booking_date = ? AND booking_time = ? AND status = ? AND id <> ?",
				booking.ProductID, newDate, newTime, StatusConfirmed, booking.ID).
			Scan(&confirmed).Error
		if err != nil {
			return fmt.Errorf("failed to sum confirmed bookings: %w", err)
		}

		available := slotCapacity - int(held) - int(confirmed)
		if booking.Participants > available {
			return &holds.CapacityError{Requested: booking.Participants, Available: available}
		}

		updates := map[string]interface{}{
			"schedule_rule_id": newRuleID,
			"booking_date":     newDate,
			"booking_time":     newTime,
		}
		if notes != "" {
			updates["admin_notes"] = notes
		}

		err = tx.Model(&Booking{}).
			Where("id = ? AND status = ?", booking.ID, StatusConfirmed).
			Updates(updates).Error
		if err != nil {
			return fmt.Errorf("failed to reschedule booking: %w", err)
		}

		return nil
	})
}

func (r *repository) CountConfirmedParticipants(ctx context.Context, productID int64, date, startTime string) (int, error) {
	var confirmed int64
	err := r.db.WithContext(ctx).Model(&Booking{}).
		Select("COALESCE(SUM(participants), 0)").
		Where("product_id = ? AND booking_date = ? AND booking_time = ? AND status = ?",
			productID, date, startTime, StatusConfirmed).
		Scan(&confirmed).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum confirmed bookings: %w", err)
	}
	return int(confirmed), nil
}

func (r *repository) BookingNumberExists(ctx context.Context, number string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Booking{}).
		Where("booking_number = ?", number).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) SetCheckedIn(ctx context.Context, id int64, staffID int64, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&Booking{}).
		Where("id = ? AND status = ? AND checked_in_at IS NULL", id, StatusConfirmed).
		Updates(map[string]interface{}{
			"checked_in_at": at,
			"checked_in_by": staffID,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAlreadyCheckedIn
	}
	return nil
}
