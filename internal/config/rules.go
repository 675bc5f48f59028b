package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Rules 汇总积分与考勤统计涉及的全部业务常量。
type Rules struct {
	MonthlyCap         int
	PointExpiryMonths  int
	EditWindow         time.Duration
	WeeklyWorkingDays  int
	MonthlyWorkingDays int

	PenaltyMin int
	PenaltyMax int

	AttendancePoints int
	OnTimeBonus      int
	LatePenalty      int

	UpdatePoints     int
	RichUpdatePoints int

	TaskBasePoints  int
	TaskMediumBonus int
	TaskHighBonus   int

	ProjectPoints     int
	ProjectEarlyBonus int

	MilestonePoints        int
	PremiumMilestonePoints int
}

// DefaultRules 返回默认规则。
func DefaultRules() Rules {
	return Rules{
		MonthlyCap:         200,
		PointExpiryMonths:  24,
		EditWindow:         24 * time.Hour,
		WeeklyWorkingDays:  5,
		MonthlyWorkingDays: 20,

		PenaltyMin: 20,
		PenaltyMax: 100,

		AttendancePoints: 5,
		OnTimeBonus:      2,
		LatePenalty:      1,

		UpdatePoints:     1,
		RichUpdatePoints: 3,

		TaskBasePoints:  4,
		TaskMediumBonus: 2,
		TaskHighBonus:   5,

		ProjectPoints:     10,
		ProjectEarlyBonus: 10,

		MilestonePoints:        20,
		PremiumMilestonePoints: 30,
	}
}

// LoadRules 在默认规则之上应用 RULE_* 环境变量。
func LoadRules() Rules {
	rules := DefaultRules()

	rules.MonthlyCap = envPositiveInt("RULE_MONTHLY_CAP", rules.MonthlyCap)
	rules.PointExpiryMonths = envPositiveInt("RULE_POINT_EXPIRY_MONTHS", rules.PointExpiryMonths)
	rules.WeeklyWorkingDays = envPositiveInt("RULE_WEEKLY_WORKING_DAYS", rules.WeeklyWorkingDays)
	rules.MonthlyWorkingDays = envPositiveInt("RULE_MONTHLY_WORKING_DAYS", rules.MonthlyWorkingDays)

	hours := envPositiveInt("RULE_EDIT_WINDOW_HOURS", int(rules.EditWindow/time.Hour))
	rules.EditWindow = time.Duration(hours) * time.Hour

	return rules
}

func envPositiveInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		log.Printf("config: ignoring %s=%q, expected a positive integer", key, raw)
		return fallback
	}
	return value
}
