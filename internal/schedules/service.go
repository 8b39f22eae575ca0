package schedules

import (
	"context"
	"fmt"
	"time"
)

// AvailabilityInvalidator invalidates cached availability after rule or
// override mutations (interface here to avoid a dependency cycle with the
// availability package).
type AvailabilityInvalidator interface {
	InvalidateProduct(ctx context.Context, productID int64)
	Invalidate(ctx context.Context, productID int64, date string)
}

// Service interface defines the contract for schedule and override management
type Service interface {
	CreateRule(ctx context.Context, req CreateScheduleRuleRequest) (*ScheduleRule, error)
	GetRule(ctx context.Context, id int64) (*ScheduleRule, error)
	GetRulesForProduct(ctx context.Context, productID int64) ([]ScheduleRule, error)
	UpdateRule(ctx context.Context, id int64, req UpdateScheduleRuleRequest) (*ScheduleRule, error)
	DeleteRule(ctx context.Context, id int64) error

	UpsertOverride(ctx context.Context, req UpsertOverrideRequest) (*Override, error)
	GetOverridesForDate(ctx context.Context, productID int64, date string) ([]Override, error)
	DeleteOverride(ctx context.Context, overrideID int64) error
}

type service struct {
	repo        Repository
	invalidator AvailabilityInvalidator
}

// NewService creates a new schedule service instance
func NewService(repo Repository, invalidator AvailabilityInvalidator) Service {
	return &service{
		repo:        repo,
		invalidator: invalidator,
	}
}

func (s *service) CreateRule(ctx context.Context, req CreateScheduleRuleRequest) (*ScheduleRule, error) {
	startTime, err := NormalizeTimeOfDay(req.StartTime)
	if err != nil {
		return nil, fmt.Errorf("invalid start_time: %w", err)
	}

	rule := &ScheduleRule{
		ProductID:       req.ProductID,
		Weekday:         *req.Weekday,
		StartTime:       startTime,
		DurationMinutes: req.DurationMinutes,
		Capacity:        req.Capacity,
		PriceAdult:      req.PriceAdult,
		PriceChild:      req.PriceChild,
		MeetingPointID:  req.MeetingPointID,
		Language:        req.Language,
		IsActive:        true,
	}

	if err := s.repo.CreateRule(ctx, rule); err != nil {
		return nil, fmt.Errorf("failed to create schedule rule: %w", err)
	}

	if s.invalidator != nil {
		s.invalidator.InvalidateProduct(ctx, rule.ProductID)
	}

	return rule, nil
}

func (s *service) GetRule(ctx context.Context, id int64) (*ScheduleRule, error) {
	return s.repo.GetRuleByID(ctx, id)
}

func (s *service) GetRulesForProduct(ctx context.Context, productID int64) ([]ScheduleRule, error) {
	return s.repo.GetRulesForProduct(ctx, productID)
}

func (s *service) UpdateRule(ctx context.Context, id int64, req UpdateScheduleRuleRequest) (*ScheduleRule, error) {
	rule, err := s.repo.GetRuleByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("schedule rule not found: %w", err)
	}

	if req.StartTime != nil {
		startTime, err := NormalizeTimeOfDay(*req.StartTime)
		if err != nil {
			return nil, fmt.Errorf("invalid start_time: %w", err)
		}
		rule.StartTime = startTime
	}
	if req.DurationMinutes != nil {
		rule.DurationMinutes = *req.DurationMinutes
	}
	if req.Capacity != nil {
		rule.Capacity = *req.Capacity
	}
	if req.PriceAdult != nil {
		rule.PriceAdult = *req.PriceAdult
	}
	if req.PriceChild != nil {
		rule.PriceChild = *req.PriceChild
	}
	if req.MeetingPointID != nil {
		rule.MeetingPointID = *req.MeetingPointID
	}
	if req.Language != nil {
		rule.Language = *req.Language
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	rule.UpdatedAt = time.Now()

	if err := s.repo.UpdateRule(ctx, rule); err != nil {
		return nil, fmt.Errorf("failed to update schedule rule: %w", err)
	}

	if s.invalidator != nil {
		s.invalidator.InvalidateProduct(ctx, rule.ProductID)
	}

	return rule, nil
}

func (s *service) DeleteRule(ctx context.Context, id int64) error {
	rule, err := s.repo.GetRuleByID(ctx, id)
	if err != nil {
		return fmt.Errorf("schedule rule not found: %w", err)
	}

	if err := s.repo.DeleteRule(ctx, id); err != nil {
		return fmt.Errorf("failed to delete schedule rule: %w", err)
	}

	if s.invalidator != nil {
		s.invalidator.InvalidateProduct(ctx, rule.ProductID)
	}

	return nil
}

func (s *service) UpsertOverride(ctx context.Context, req UpsertOverrideRequest) (*Override, error) {
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return nil, fmt.Errorf("invalid date: %w", err)
	}

	var startTime *string
	if req.StartTime != nil {
		normalized, err := NormalizeTimeOfDay(*req.StartTime)
		if err != nil {
			return nil, fmt.Errorf("invalid start_time: %w", err)
		}
		startTime = &normalized
	}

	override := &Override{
		ProductID:          req.ProductID,
		Date:               req.Date,
		StartTime:          startTime,
		IsClosed:           req.IsClosed,
		CapacityOverride:   req.CapacityOverride,
		PriceAdultOverride: req.PriceAdultOverride,
		PriceChildOverride: req.PriceChildOverride,
	}

	if err := s.repo.UpsertOverride(ctx, override); err != nil {
		return nil, fmt.Errorf("failed to save override: %w", err)
	}

	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, override.ProductID, override.Date)
	}

	return override, nil
}

func (s *service) GetOverridesForDate(ctx context.Context, productID int64, date string) ([]Override, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("invalid date: %w", err)
	}
	return s.repo.GetOverridesForDate(ctx, productID, date)
}

func (s *service) DeleteOverride(ctx context.Context, overrideID int64) error {
	// The row carries the product and date whose cached availability the
	// deletion touches, so look it up rather than trusting the caller.
	override, err := s.repo.GetOverrideByID(ctx, overrideID)
	if err != nil {
		return fmt.Errorf("override not found: %w", err)
	}

	if err := s.repo.DeleteOverride(ctx, overrideID); err != nil {
		return fmt.Errorf("failed to delete override: %w", err)
	}

	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, override.ProductID, override.Date)
	}

	return nil
}

// NormalizeTimeOfDay parses HH:MM or HH:MM:SS and returns HH:MM:SS.
func NormalizeTimeOfDay(value string) (string, error) {
	if t, err := time.Parse("15:04:05", value); err == nil {
		return t.Format("15:04:05"), nil
	}
	if t, err := time.Parse("15:04", value); err == nil {
		return t.Format("15:04:05"), nil
	}
	return "", fmt.Errorf("time %q is not in HH:MM or HH:MM:SS format", value)
}
