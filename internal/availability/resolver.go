package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tourbase/internal/schedules"
	"tourbase/internal/shared/clock"
)

// ErrInvalidDate is returned when the caller passes a date that does not
// parse as YYYY-MM-DD. A date with no availability is not an error; a
// malformed date is a caller contract violation.
var ErrInvalidDate = errors.New("date must be in YYYY-MM-DD format")

// ScheduleSource provides the recurring rules (read-only view of the
// schedule store).
type ScheduleSource interface {
	GetRulesForDay(ctx context.Context, productID int64, weekday int) ([]schedules.ScheduleRule, error)
}

// OverrideSource provides the per-date exceptions.
type OverrideSource interface {
	GetOverridesForDate(ctx context.Context, productID int64, date string) ([]schedules.Override, error)
}

// BookedCounter sums confirmed participants for an exact slot.
type BookedCounter interface {
	CountConfirmedParticipants(ctx context.Context, productID int64, date, startTime string) (int, error)
}

// HeldCounter sums participants on active, non-expired holds for an exact slot.
type HeldCounter interface {
	CountActiveHeldParticipants(ctx context.Context, productID int64, date, startTime string, now time.Time) (int, error)
}

// Resolver merges schedule rules, overrides, confirmed bookings and active
// holds into the list of slots for a day. It is read-only; the short-TTL
// cache in front of it is invalidated on every hold/booking mutation.
type Resolver struct {
	rules     ScheduleSource
	overrides OverrideSource
	booked    BookedCounter
	held      HeldCounter
	cache     *Cache
	clock     clock.Clock
}

// NewResolver creates a new availability resolver. cache may be nil.
func NewResolver(rules ScheduleSource, overrides OverrideSource, booked BookedCounter, held HeldCounter, cache *Cache, clk clock.Clock) *Resolver {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &Resolver{
		rules:     rules,
		overrides: overrides,
		booked:    booked,
		held:      held,
		cache:     cache,
		clock:     clk,
	}
}

// ResolveDay returns the slots for a product on a calendar date. A product
// without rules for that weekday yields an empty slice, not an error.
func (r *Resolver) ResolveDay(ctx context.Context, productID int64, date string) ([]Slot, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, ErrInvalidDate
	}

	if r.cache != nil {
		if slots, ok := r.cache.Get(ctx, productID, date); ok {
			return slots, nil
		}
	}

	slots, err := r.resolveDayUncached(ctx, productID, date)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		r.cache.Put(ctx, productID, date, slots)
	}

	return slots, nil
}

// ResolveDayFresh bypasses the read cache. Capacity-consuming operations
// use this before taking their row locks.
func (r *Resolver) ResolveDayFresh(ctx context.Context, productID int64, date string) ([]Slot, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, ErrInvalidDate
	}
	return r.resolveDayUncached(ctx, productID, date)
}

// FindSlot resolves a single slot by start time, bypassing the cache.
// Returns nil when no rule produces that start time.
func (r *Resolver) FindSlot(ctx context.Context, productID int64, date, startTime string) (*Slot, error) {
	normalized, err := schedules.NormalizeTimeOfDay(startTime)
	if err != nil {
		return nil, fmt.Errorf("invalid start time: %w", err)
	}

	slots, err := r.ResolveDayFresh(ctx, productID, date)
	if err != nil {
		return nil, err
	}

	for i := range slots {
		if slots[i].StartTime == normalized {
			return &slots[i], nil
		}
	}

	return nil, nil
}

func (r *Resolver) resolveDayUncached(ctx context.Context, productID int64, date string) ([]Slot, error) {
	dateObj, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, ErrInvalidDate
	}
	weekday := int(dateObj.Weekday())

	rules, err := r.rules.GetRulesForDay(ctx, productID, weekday)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule rules: %w", err)
	}
	if len(rules) == 0 {
		return []Slot{}, nil
	}

	overrides, err := r.overrides.GetOverridesForDate(ctx, productID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load overrides: %w", err)
	}

	now := r.clock.Now()
	slots := make([]Slot, 0, len(rules))

	for _, rule := range rules {
		override := matchOverride(overrides, rule.StartTime)

		if override != nil && override.IsClosed {
			continue
		}

		capacity := rule.Capacity
		priceAdult := rule.PriceAdult
		priceChild := rule.PriceChild
		if override != nil {
			if override.CapacityOverride != nil {
				capacity = *override.CapacityOverride
			}
			if override.PriceAdultOverride != nil {
				priceAdult = *override.PriceAdultOverride
			}
			if override.PriceChildOverride != nil {
				priceChild = *override.PriceChildOverride
			}
		}

		confirmed, err := r.booked.CountConfirmedParticipants(ctx, productID, date, rule.StartTime)
		if err != nil {
			return nil, fmt.Errorf("failed to count confirmed participants: %w", err)
		}

		held, err := r.held.CountActiveHeldParticipants(ctx, productID, date, rule.StartTime, now)
		if err != nil {
			return nil, fmt.Errorf("failed to count held participants: %w", err)
		}

		available := capacity - confirmed - held
		if available < 0 {
			available = 0
		}

		slots = append(slots, Slot{
			ProductID:       productID,
			ScheduleRuleID:  rule.ID,
			Date:            date,
			StartTime:       rule.StartTime,
			EndTime:         endTime(date, rule.StartTime, rule.DurationMinutes),
			DurationMinutes: rule.DurationMinutes,
			Capacity:        capacity,
			ConfirmedCount:  confirmed,
			HeldCount:       held,
			Available:       available,
			IsAvailable:     available > 0,
			PriceAdult:      priceAdult,
			PriceChild:      priceChild,
			MeetingPointID:  rule.MeetingPointID,
			Language:        rule.Language,
		})
	}

	return slots, nil
}

// matchOverride picks the override for a start time. A time-specific row
// wins over the whole-day row.
func matchOverride(overrides []schedules.Override, startTime string) *schedules.Override {
	var dayWide *schedules.Override
	for i := range overrides {
		o := &overrides[i]
		if o.StartTime == nil {
			dayWide = o
			continue
		}
		if *o.StartTime == startTime {
			return o
		}
	}
	return dayWide
}

func endTime(date, startTime string, durationMinutes int) string {
	start, err := time.Parse("2006-01-02 15:04:05", date+" "+startTime)
	if err != nil {
		return startTime
	}
	return start.Add(time.Duration(durationMinutes) * time.Minute).Format("15:04:05")
}
