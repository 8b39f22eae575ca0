package schedules

import (
	"context"
	"errors"
	"testing"
)

type fakeRepo struct {
	rules      []ScheduleRule
	overrides  []Override
	nextRuleID int64
	nextOvrID  int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{nextRuleID: 1, nextOvrID: 1}
}

func (f *fakeRepo) CreateRule(ctx context.Context, rule *ScheduleRule) error {
	rule.ID = f.nextRuleID
	f.nextRuleID++
	f.rules = append(f.rules, *rule)
	return nil
}

func (f *fakeRepo) GetRuleByID(ctx context.Context, id int64) (*ScheduleRule, error) {
	for i := range f.rules {
		if f.rules[i].ID == id {
			r := f.rules[i]
			return &r, nil
		}
	}
	return nil, errors.New("record not found")
}

func (f *fakeRepo) GetRulesForDay(ctx context.Context, productID int64, weekday int) ([]ScheduleRule, error) {
	var out []ScheduleRule
	for _, r := range f.rules {
		if r.ProductID == productID && r.Weekday == weekday && r.IsActive {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetRulesForProduct(ctx context.Context, productID int64) ([]ScheduleRule, error) {
	var out []ScheduleRule
	for _, r := range f.rules {
		if r.ProductID == productID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateRule(ctx context.Context, rule *ScheduleRule) error {
	for i := range f.rules {
		if f.rules[i].ID == rule.ID {
			f.rules[i] = *rule
			return nil
		}
	}
	return errors.New("record not found")
}

func (f *fakeRepo) DeleteRule(ctx context.Context, id int64) error {
	for i := range f.rules {
		if f.rules[i].ID == id {
			f.rules = append(f.rules[:i], f.rules[i+1:]...)
			return nil
		}
	}
	return errors.New("record not found")
}

func (f *fakeRepo) UpsertOverride(ctx context.Context, override *Override) error {
	for i := range f.overrides {
		existing := &f.overrides[i]
		if existing.ProductID != override.ProductID || existing.Date != override.Date {
			continue
		}
		sameKey := (existing.StartTime == nil && override.StartTime == nil) ||
			(existing.StartTime != nil && override.StartTime != nil && *existing.StartTime == *override.StartTime)
		if sameKey {
			override.ID = existing.ID
			*existing = *override
			return nil
		}
	}
	override.ID = f.nextOvrID
	f.nextOvrID++
	f.overrides = append(f.overrides, *override)
	return nil
}

func (f *fakeRepo) GetOverridesForDate(ctx context.Context, productID int64, date string) ([]Override, error) {
	var out []Override
	for _, o := range f.overrides {
		if o.ProductID == productID && o.Date == date {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetOverrideByID(ctx context.Context, id int64) (*Override, error) {
	for i := range f.overrides {
		if f.overrides[i].ID == id {
			o := f.overrides[i]
			return &o, nil
		}
	}
	return nil, errors.New("record not found")
}

func (f *fakeRepo) DeleteOverride(ctx context.Context, id int64) error {
	for i := range f.overrides {
		if f.overrides[i].ID == id {
			f.overrides = append(f.overrides[:i], f.overrides[i+1:]...)
			return nil
		}
	}
	return errors.New("record not found")
}

type fakeInvalidator struct {
	productCalls int
	dateCalls    []string
}

func (f *fakeInvalidator) InvalidateProduct(ctx context.Context, productID int64) {
	f.productCalls++
}

func (f *fakeInvalidator) Invalidate(ctx context.Context, productID int64, date string) {
	f.dateCalls = append(f.dateCalls, date)
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func createRuleRequest() CreateScheduleRuleRequest {
	return CreateScheduleRuleRequest{
		ProductID:       1,
		Weekday:         intPtr(1),
		StartTime:       "10:00",
		DurationMinutes: 120,
		Capacity:        10,
		PriceAdult:      35,
		PriceChild:      18,
		Language:        "en",
	}
}

func TestCreateRule(t *testing.T) {
	ctx := context.Background()

	t.Run("normalizes start time and activates", func(t *testing.T) {
		repo := newFakeRepo()
		inv := &fakeInvalidator{}
		svc := NewService(repo, inv)

		rule, err := svc.CreateRule(ctx, createRuleRequest())
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if rule.StartTime != "10:00:00" {
			t.Fatalf("start time not normalized: %s", rule.StartTime)
		}
		if !rule.IsActive {
			t.Fatal("new rule must be active")
		}
		if inv.productCalls != 1 {
			t.Fatalf("expected product-wide invalidation, got %d", inv.productCalls)
		}
	})

	t.Run("rejects malformed start time", func(t *testing.T) {
		svc := NewService(newFakeRepo(), nil)
		req := createRuleRequest()
		req.StartTime = "25:00"
		if _, err := svc.CreateRule(ctx, req); err == nil {
			t.Fatal("expected error for hour 25")
		}
	})

	t.Run("same weekday holds multiple rules", func(t *testing.T) {
		repo := newFakeRepo()
		svc := NewService(repo, nil)

		first := createRuleRequest()
		second := createRuleRequest()
		second.Language = "it"
		if _, err := svc.CreateRule(ctx, first); err != nil {
			t.Fatalf("first rule failed: %v", err)
		}
		if _, err := svc.CreateRule(ctx, second); err != nil {
			t.Fatalf("parallel rule failed: %v", err)
		}

		rules, _ := repo.GetRulesForDay(ctx, 1, 1)
		if len(rules) != 2 {
			t.Fatalf("expected 2 rules for monday, got %d", len(rules))
		}
	})
}

func TestUpdateRule(t *testing.T) {
	ctx := context.Background()

	t.Run("partial update keeps unset fields", func(t *testing.T) {
		repo := newFakeRepo()
		inv := &fakeInvalidator{}
		svc := NewService(repo, inv)

		rule, _ := svc.CreateRule(ctx, createRuleRequest())

		updated, err := svc.UpdateRule(ctx, rule.ID, UpdateScheduleRuleRequest{
			Capacity: intPtr(25),
		})
		if err != nil {
			t.Fatalf("update failed: %v", err)
		}
		if updated.Capacity != 25 {
			t.Fatalf("capacity not updated: %d", updated.Capacity)
		}
		if updated.StartTime != "10:00:00" || updated.PriceAdult != 35 {
			t.Fatalf("unset fields mutated: %+v", updated)
		}
		if inv.productCalls != 2 {
			t.Fatalf("expected invalidation on update, got %d calls", inv.productCalls)
		}
	})

	t.Run("deactivation survives the round trip", func(t *testing.T) {
		repo := newFakeRepo()
		svc := NewService(repo, nil)
		rule, _ := svc.CreateRule(ctx, createRuleRequest())

		inactive := false
		if _, err := svc.UpdateRule(ctx, rule.ID, UpdateScheduleRuleRequest{IsActive: &inactive}); err != nil {
			t.Fatalf("deactivation failed: %v", err)
		}

		rules, _ := repo.GetRulesForDay(ctx, 1, 1)
		if len(rules) != 0 {
			t.Fatalf("inactive rule still resolves: %d", len(rules))
		}
	})

	t.Run("unknown rule", func(t *testing.T) {
		svc := NewService(newFakeRepo(), nil)
		if _, err := svc.UpdateRule(ctx, 999, UpdateScheduleRuleRequest{Capacity: intPtr(5)}); err == nil {
			t.Fatal("expected error for unknown rule")
		}
	})
}

func TestUpsertOverride(t *testing.T) {
	ctx := context.Background()

	t.Run("second write replaces the first for the same key", func(t *testing.T) {
		repo := newFakeRepo()
		inv := &fakeInvalidator{}
		svc := NewService(repo, inv)

		req := UpsertOverrideRequest{
			ProductID:        1,
			Date:             "2026-09-07",
			StartTime:        strPtr("10:00"),
			CapacityOverride: intPtr(5),
		}
		first, err := svc.UpsertOverride(ctx, req)
		if err != nil {
			t.Fatalf("upsert failed: %v", err)
		}

		req.CapacityOverride = intPtr(2)
		second, err := svc.UpsertOverride(ctx, req)
		if err != nil {
			t.Fatalf("second upsert failed: %v", err)
		}
		if second.ID != first.ID {
			t.Fatalf("upsert created a second row: %d vs %d", second.ID, first.ID)
		}

		stored, _ := repo.GetOverridesForDate(ctx, 1, "2026-09-07")
		if len(stored) != 1 || *stored[0].CapacityOverride != 2 {
			t.Fatalf("override not replaced: %+v", stored)
		}
		if len(inv.dateCalls) != 2 {
			t.Fatalf("expected day invalidations, got %v", inv.dateCalls)
		}
	})

	t.Run("whole-day and time-specific rows coexist", func(t *testing.T) {
		repo := newFakeRepo()
		svc := NewService(repo, nil)

		dayWide := UpsertOverrideRequest{ProductID: 1, Date: "2026-09-07", IsClosed: true}
		timed := UpsertOverrideRequest{ProductID: 1, Date: "2026-09-07", StartTime: strPtr("10:00"), CapacityOverride: intPtr(3)}
		if _, err := svc.UpsertOverride(ctx, dayWide); err != nil {
			t.Fatalf("day-wide upsert failed: %v", err)
		}
		if _, err := svc.UpsertOverride(ctx, timed); err != nil {
			t.Fatalf("timed upsert failed: %v", err)
		}

		stored, _ := repo.GetOverridesForDate(ctx, 1, "2026-09-07")
		if len(stored) != 2 {
			t.Fatalf("expected 2 override rows, got %d", len(stored))
		}
	})

	t.Run("start time normalized before keying", func(t *testing.T) {
		repo := newFakeRepo()
		svc := NewService(repo, nil)

		short := UpsertOverrideRequest{ProductID: 1, Date: "2026-09-07", StartTime: strPtr("10:00"), CapacityOverride: intPtr(5)}
		long := UpsertOverrideRequest{ProductID: 1, Date: "2026-09-07", StartTime: strPtr("10:00:00"), CapacityOverride: intPtr(7)}
		if _, err := svc.UpsertOverride(ctx, short); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
		if _, err := svc.UpsertOverride(ctx, long); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}

		stored, _ := repo.GetOverridesForDate(ctx, 1, "2026-09-07")
		if len(stored) != 1 {
			t.Fatalf("HH:MM and HH:MM:SS must hit the same row, got %d rows", len(stored))
		}
	})

	t.Run("delete invalidates the override's own day", func(t *testing.T) {
		repo := newFakeRepo()
		inv := &fakeInvalidator{}
		svc := NewService(repo, inv)

		created, err := svc.UpsertOverride(ctx, UpsertOverrideRequest{
			ProductID: 7,
			Date:      "2026-09-07",
			IsClosed:  true,
		})
		if err != nil {
			t.Fatalf("upsert failed: %v", err)
		}

		if err := svc.DeleteOverride(ctx, created.ID); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if stored, _ := repo.GetOverridesForDate(ctx, 7, "2026-09-07"); len(stored) != 0 {
			t.Fatalf("override not deleted: %+v", stored)
		}
		// the deletion must hit the row's own (product, date), not a
		// caller-supplied one
		last := inv.dateCalls[len(inv.dateCalls)-1]
		if last != "2026-09-07" {
			t.Fatalf("wrong day invalidated: %s", last)
		}
	})

	t.Run("deleting an unknown override fails", func(t *testing.T) {
		svc := NewService(newFakeRepo(), nil)
		if err := svc.DeleteOverride(ctx, 999); err == nil {
			t.Fatal("expected error for unknown override")
		}
	})

	t.Run("rejects bad date", func(t *testing.T) {
		svc := NewService(newFakeRepo(), nil)
		req := UpsertOverrideRequest{ProductID: 1, Date: "07/09/2026", IsClosed: true}
		if _, err := svc.UpsertOverride(ctx, req); err == nil {
			t.Fatal("expected error for bad date")
		}
	})
}

func TestOverrideAppliesTo(t *testing.T) {
	dayWide := Override{ProductID: 1, Date: "2026-09-07"}
	timed := Override{ProductID: 1, Date: "2026-09-07", StartTime: strPtr("10:00:00")}

	if !dayWide.AppliesTo("10:00:00") || !dayWide.AppliesTo("15:00:00") {
		t.Fatal("day-wide override must apply to every slot")
	}
	if !timed.AppliesTo("10:00:00") {
		t.Fatal("timed override must apply to its own slot")
	}
	if timed.AppliesTo("15:00:00") {
		t.Fatal("timed override must not leak onto other slots")
	}
}

func TestNormalizeTimeOfDay(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"10:00", "10:00:00", false},
		{"10:00:00", "10:00:00", false},
		{"09:05", "09:05:00", false},
		{"23:59:59", "23:59:59", false},
		{"24:00", "", true},
		{"10", "", true},
		{"ten", "", true},
		{"", "", true},
	}

	for _, tc := range cases {
		got, err := NormalizeTimeOfDay(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("NormalizeTimeOfDay(%q): expected error, got %q", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizeTimeOfDay(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("NormalizeTimeOfDay(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
