package service

import (
	"errors"
	"testing"
	"time"

	"github.com/teampulse/internal/config"
	"github.com/teampulse/internal/db"
)

func TestRuleSettingsOverrideDefaults(t *testing.T) {
	cleanup := setupEngineTestDB(t)
	defer cleanup()

	svc := NewRuleSettingService(db.DB, config.DefaultRules())

	rules := svc.CurrentRules()
	if rules.MonthlyCap != 200 || rules.EditWindow != 24*time.Hour {
		t.Fatalf("expected defaults, got %#v", rules)
	}

	monthlyCap := 150
	window := 12
	updated, err := svc.Update(RuleSettingsInput{MonthlyCap: &monthlyCap, EditWindowHours: &window})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.MonthlyCap != 150 || updated.EditWindow != 12*time.Hour {
		t.Fatalf("unexpected rules after update: %#v", updated)
	}
	if updated.WeeklyWorkingDays != 5 || updated.PointExpiryMonths != 24 {
		t.Fatalf("untouched rules should keep defaults: %#v", updated)
	}

	monthlyCap = 180
	if _, err := svc.Update(RuleSettingsInput{MonthlyCap: &monthlyCap}); err != nil {
		t.Fatalf("second Update returned error: %v", err)
	}
	if got := svc.CurrentRules().MonthlyCap; got != 180 {
		t.Fatalf("expected upserted cap 180, got %d", got)
	}

	zero := 0
	if _, err := svc.Update(RuleSettingsInput{WeeklyWorkingDays: &zero}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for zero, got %v", err)
	}
}

func TestPointsServiceFollowsStoredRules(t *testing.T) {
	cleanup := setupEngineTestDB(t)
	defer cleanup()

	rules := NewRuleSettingService(db.DB, config.DefaultRules())
	monthlyCap := 10
	if _, err := rules.Update(RuleSettingsInput{MonthlyCap: &monthlyCap}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	points := NewPointsService(db.DB, rules)
	points.SetClock(func() time.Time { return time.Date(2024, 5, 8, 9, 0, 0, 0, time.UTC) })
	employee := seedEmployee(t, "Gwen", db.RoleEmployee)

	result, err := points.RecordMilestone(employee.ID, false)
	if err != nil {
		t.Fatalf("RecordMilestone returned error: %v", err)
	}
	if result.Awarded != 10 || !result.Capped {
		t.Fatalf("expected award truncated to 10, got %#v", result)
	}
}
