package db

import "gorm.io/gorm"

// SystemSetting 存储后台可配置的系统级键值对。
type SystemSetting struct {
	gorm.Model
	Key   string `gorm:"size:100;uniqueIndex;not null"`
	Value string `gorm:"type:text"`
}

// TableName 自定义表名以保持命名一致。
func (SystemSetting) TableName() string {
	return "system_settings"
}

const (
	// SettingKeyMonthlyCap 表示每月正向积分上限。
	SettingKeyMonthlyCap = "rule_monthly_cap"
	// SettingKeyEditWindowHours 表示日报可编辑时长（小时）。
	SettingKeyEditWindowHours = "rule_edit_window_hours"
	// SettingKeyPointExpiryMonths 表示积分有效期（月）。
	SettingKeyPointExpiryMonths = "rule_point_expiry_months"

	SettingKeyWeeklyWorkingDays  = "rule_weekly_working_days"
	SettingKeyMonthlyWorkingDays = "rule_monthly_working_days"
)
