package holds

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	CreateHoldWithCapacityCheck(ctx context.Context, hold *Hold, slotCapacity int, now time.Time) error
	GetByID(ctx context.Context, id uuid.UUID) (*Hold, error)
	GetActiveForSlotSession(ctx context.Context, productID int64, date, startTime, sessionID string, now time.Time) (*Hold, error)
	CountActiveHeldParticipants(ctx context.Context, productID int64, date, startTime string, now time.Time) (int, error)
	Release(ctx context.Context, id uuid.UUID) error
	ReleaseSessionHolds(ctx context.Context, sessionID string, now time.Time) (int64, error)
	ExpireStale(ctx context.Context, now time.Time) ([]Hold, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// CreateHoldWithCapacityCheck inserts a hold atomically against the slot's
// capacity. The schedule rule row is locked so concurrent holds and bookings
// for the same slot serialize on it. Any prior active hold for the same
// session and slot is released first, so re-holding refreshes the TTL rather
// than stacking.
func (r *repository) CreateHoldWithCapacityCheck(ctx context.Context, hold *Hold, slotCapacity int, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rule struct {
			ID int64 `gorm:"column:id"`
		}
		err := tx.Table("schedule_rules").
			Select("id").
			Where("id = ?", hold.ScheduleRuleID).
			Set("gorm:query_option", "FOR UPDATE").
			First(&rule).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSlotNotFound
			}
			return fmt.Errorf("failed to lock schedule rule: %w", err)
		}

		err = tx.Model(&Hold{}).
			Where("session_id = ? AND product_id = ? AND slot_date = ? AND slot_time = ? AND status = ?",
				hold.SessionID, hold.ProductID, hold.SlotDate, hold.SlotTime, StatusActive).
			Update("status", StatusReleased).Error
		if err != nil {
			return fmt.Errorf("failed to release prior session hold: %w", err)
		}

		held, err := sumActiveHolds(tx, hold.ProductID, hold.SlotDate, hold.SlotTime, now)
		if err != nil {
			return err
		}

		confirmed, err := sumConfirmedBookings(tx, hold.ProductID, hold.SlotDate, hold.SlotTime)
		if err != nil {
			return err
		}

		available := slotCapacity - held - confirmed
		if hold.Participants > available {
			return &CapacityError{Requested: hold.Participants, Available: available}
		}

		if err := tx.Create(hold).Error; err != nil {
			return fmt.Errorf("failed to create hold: %w", err)
		}

		return nil
	})
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Hold, error) {
	var hold Hold
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&hold).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHoldNotFound
		}
		return nil, err
	}
	return &hold, nil
}

// GetActiveForSlotSession finds the live hold a checkout session placed on a
// slot, if any. Used by hold conversion at order-confirmation time.
func (r *repository) GetActiveForSlotSession(ctx context.Context, productID int64, date, startTime, sessionID string, now time.Time) (*Hold, error) {
	var hold Hold
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND slot_date = ? AND slot_time = ? AND session_id = ? AND status = ? AND expires_at > ?",
			productID, date, startTime, sessionID, StatusActive, now).
		Order("created_at DESC").
		First(&hold).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHoldNotFound
		}
		return nil, err
	}
	return &hold, nil
}

func (r *repository) CountActiveHeldParticipants(ctx context.Context, productID int64, date, startTime string, now time.Time) (int, error) {
	return sumActiveHolds(r.db.WithContext(ctx), productID, date, startTime, now)
}

func (r *repository) Release(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&Hold{}).
		Where("id = ? AND status = ?", id, StatusActive).
		Update("status", StatusReleased)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrHoldNotFound
	}
	return nil
}

func (r *repository) ReleaseSessionHolds(ctx context.Context, sessionID string, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&Hold{}).
		Where("session_id = ? AND status = ? AND expires_at > ?", sessionID, StatusActive, now).
		Update("status", StatusReleased)
	return result.RowsAffected, result.Error
}

// ExpireStale flips lapsed active holds to EXPIRED and returns the affected
// rows so callers can invalidate the slots they covered.
func (r *repository) ExpireStale(ctx context.Context, now time.Time) ([]Hold, error) {
	var stale []Hold
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("status = ? AND expires_at <= ?", StatusActive, now).
			Find(&stale).Error
		if err != nil {
			return fmt.Errorf("failed to find stale holds: %w", err)
		}
		if len(stale) == 0 {
			return nil
		}

		ids := make([]uuid.UUID, 0, len(stale))
		for _, h := range stale {
			ids = append(ids, h.ID)
		}

		err = tx.Model(&Hold{}).
			Where("id IN ? AND status = ?", ids, StatusActive).
			Update("status", StatusExpired).Error
		if err != nil {
			return fmt.Errorf("failed to expire holds: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stale, nil
}

func sumActiveHolds(tx *gorm.DB, productID int64, date, startTime string, now time.Time) (int, error) {
	var held int64
	err := tx.Model(&Hold{}).
		Select("COALESCE(SUM(participants), 0)").
		Where("product_id = ? AND slot_date = ? AND slot_time = ? AND status = ? AND expires_at > ?",
			productID, date, startTime, StatusActive, now).
		Scan(&held).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum active holds: %w", err)
	}
	return int(held), nil
}

func sumConfirmedBookings(tx *gorm.DB, productID int64, date, startTime string) (int, error) {
	var confirmed int64
	err := tx.Table("bookings").
		Select("COALESCE(SUM(participants), 0)").
		Where("product_id = ? AND booking_date = ? AND booking_time = ? AND status = ?",
			productID, date, startTime, "CONFIRMED").
		Scan(&confirmed).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum confirmed bookings: %w", err)
	}
	return int(confirmed), nil
}
