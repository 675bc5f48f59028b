package service

import (
	"math"
	"time"
)

// Clock 返回当前时间，测试中可替换
type Clock func() time.Time

func normalizeToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// WeekStart 返回 t 所在周的周一零点；周日回退 6 天
func WeekStart(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return normalizeToDate(t.AddDate(0, 0, -(weekday - 1)))
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
