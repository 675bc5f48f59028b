package service

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/teampulse/internal/config"
	"github.com/teampulse/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RulesProvider 为积分与报表服务提供当前生效的规则
type RulesProvider interface {
	CurrentRules() config.Rules
}

// StaticRules 固定不变的规则，多用于测试
type StaticRules config.Rules

// CurrentRules 实现 RulesProvider
func (r StaticRules) CurrentRules() config.Rules {
	return config.Rules(r)
}

// RuleSettingsInput 为后台调整规则的输入，nil 表示保持不变
type RuleSettingsInput struct {
	MonthlyCap         *int
	EditWindowHours    *int
	PointExpiryMonths  *int
	WeeklyWorkingDays  *int
	MonthlyWorkingDays *int
}

// RuleSettingService 在配置默认值之上叠加 system_settings 中保存的覆盖项
type RuleSettingService struct {
	db       *gorm.DB
	defaults config.Rules
}

var ruleSettingKeys = []string{
	db.SettingKeyMonthlyCap,
	db.SettingKeyEditWindowHours,
	db.SettingKeyPointExpiryMonths,
	db.SettingKeyWeeklyWorkingDays,
	db.SettingKeyMonthlyWorkingDays,
}

// NewRuleSettingService 构造 RuleSettingService
func NewRuleSettingService(gdb *gorm.DB, defaults config.Rules) *RuleSettingService {
	return &RuleSettingService{db: gdb, defaults: defaults}
}

// CurrentRules 读取失败时回退到默认规则
func (s *RuleSettingService) CurrentRules() config.Rules {
	rules, err := s.Get()
	if err != nil {
		log.Printf("[rules] falling back to defaults: %v", err)
		return s.defaults
	}
	return rules
}

// Get 读取规则，未设置的项使用默认值
func (s *RuleSettingService) Get() (config.Rules, error) {
	result := s.defaults

	var records []db.SystemSetting
	if err := s.db.Where("key IN ?", ruleSettingKeys).Find(&records).Error; err != nil {
		return result, fmt.Errorf("load rule settings: %w", err)
	}

	for _, record := range records {
		value, err := strconv.Atoi(strings.TrimSpace(record.Value))
		if err != nil || value <= 0 {
			continue
		}
		switch record.Key {
		case db.SettingKeyMonthlyCap:
			result.MonthlyCap = value
		case db.SettingKeyEditWindowHours:
			result.EditWindow = time.Duration(value) * time.Hour
		case db.SettingKeyPointExpiryMonths:
			result.PointExpiryMonths = value
		case db.SettingKeyWeeklyWorkingDays:
			result.WeeklyWorkingDays = value
		case db.SettingKeyMonthlyWorkingDays:
			result.MonthlyWorkingDays = value
		}
	}

	return result, nil
}

// Update 保存规则覆盖项，所有数值必须为正
func (s *RuleSettingService) Update(input RuleSettingsInput) (config.Rules, error) {
	updates := map[string]*int{
		db.SettingKeyMonthlyCap:         input.MonthlyCap,
		db.SettingKeyEditWindowHours:    input.EditWindowHours,
		db.SettingKeyPointExpiryMonths:  input.PointExpiryMonths,
		db.SettingKeyWeeklyWorkingDays:  input.WeeklyWorkingDays,
		db.SettingKeyMonthlyWorkingDays: input.MonthlyWorkingDays,
	}

	for key, value := range updates {
		if value != nil && *value <= 0 {
			return config.Rules{}, validationErrorf("%s must be positive", key)
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, key := range ruleSettingKeys {
			value := updates[key]
			if value == nil {
				continue
			}
			if err := upsertSetting(tx, key, strconv.Itoa(*value)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return config.Rules{}, fmt.Errorf("update rule settings: %w", err)
	}

	rules, err := s.Get()
	if err != nil {
		return config.Rules{}, err
	}
	log.Printf("[rules] updated: cap=%d edit_window=%s expiry_months=%d weekly_days=%d monthly_days=%d",
		rules.MonthlyCap, rules.EditWindow, rules.PointExpiryMonths, rules.WeeklyWorkingDays, rules.MonthlyWorkingDays)
	return rules, nil
}

func upsertSetting(tx *gorm.DB, key, value string) error {
	setting := db.SystemSetting{Key: key, Value: value}
	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      value,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&setting).Error; err != nil {
		return fmt.Errorf("upsert setting %s: %w", key, err)
	}
	return nil
}
