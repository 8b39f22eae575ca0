package schedules

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// Schedule rules
	CreateRule(ctx context.Context, rule *ScheduleRule) error
	GetRuleByID(ctx context.Context, id int64) (*ScheduleRule, error)
	GetRulesForDay(ctx context.Context, productID int64, weekday int) ([]ScheduleRule, error)
	GetRulesForProduct(ctx context.Context, productID int64) ([]ScheduleRule, error)
	UpdateRule(ctx context.Context, rule *ScheduleRule) error
	DeleteRule(ctx context.Context, id int64) error

	// Overrides
	UpsertOverride(ctx context.Context, override *Override) error
	GetOverridesForDate(ctx context.Context, productID int64, date string) ([]Override, error)
	GetOverrideByID(ctx context.Context, id int64) (*Override, error)
	DeleteOverride(ctx context.Context, id int64) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateRule(ctx context.Context, rule *ScheduleRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *repository) GetRuleByID(ctx context.Context, id int64) (*ScheduleRule, error) {
	var rule ScheduleRule
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rule).Error
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *repository) GetRulesForDay(ctx context.Context, productID int64, weekday int) ([]ScheduleRule, error) {
	var rules []ScheduleRule
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Where("weekday = ?", weekday).
		Where("is_active = ?", true).
		Order("start_time ASC").
		Find(&rules).Error

	return rules, err
}

func (r *repository) GetRulesForProduct(ctx context.Context, productID int64) ([]ScheduleRule, error) {
	var rules []ScheduleRule
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("weekday ASC, start_time ASC").
		Find(&rules).Error

	return rules, err
}

func (r *repository) UpdateRule(ctx context.Context, rule *ScheduleRule) error {
	return r.db.WithContext(ctx).Save(rule).Error
}

func (r *repository) DeleteRule(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&ScheduleRule{}, id).Error
}

func (r *repository) UpsertOverride(ctx context.Context, override *Override) error {
	// One override per (product, date, start_time); nil start_time is the
	// whole-day row.
	var existing Override
	query := r.db.WithContext(ctx).
		Where("product_id = ?", override.ProductID).
		Where("date = ?", override.Date)

	if override.StartTime == nil {
		query = query.Where("start_time IS NULL")
	} else {
		query = query.Where("start_time = ?", *override.StartTime)
	}

	err := query.First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return r.db.WithContext(ctx).Create(override).Error
	}
	if err != nil {
		return err
	}

	override.ID = existing.ID
	override.CreatedAt = existing.CreatedAt
	return r.db.WithContext(ctx).Save(override).Error
}

func (r *repository) GetOverridesForDate(ctx context.Context, productID int64, date string) ([]Override, error) {
	var overrides []Override
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Where("date = ?", date).
		Find(&overrides).Error

	return overrides, err
}

func (r *repository) GetOverrideByID(ctx context.Context, id int64) (*Override, error) {
	var override Override
	if err := r.db.WithContext(ctx).First(&override, id).Error; err != nil {
		return nil, err
	}
	return &override, nil
}

func (r *repository) DeleteOverride(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&Override{}, id).Error
}
