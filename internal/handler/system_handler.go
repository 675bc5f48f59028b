package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/teampulse/internal/config"
	"github.com/teampulse/internal/service"
)

// HealthCheck 提供部署平台与监控系统使用的健康检查端点。
func (a *API) HealthCheck(c *gin.Context) {
	sqlDB, err := a.db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "database handle unavailable",
		})
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "error",
			"message": "database unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": "up",
	})
}

type ruleSettingsRequest struct {
	MonthlyCap         *int `json:"monthly_cap"`
	EditWindowHours    *int `json:"edit_window_hours"`
	PointExpiryMonths  *int `json:"point_expiry_months"`
	WeeklyWorkingDays  *int `json:"weekly_working_days"`
	MonthlyWorkingDays *int `json:"monthly_working_days"`
}

// GetRuleSettings 返回当前生效的积分与报表规则。
func (a *API) GetRuleSettings(c *gin.Context) {
	rules, err := a.rules.Get()
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": ruleSettingsPayload(rules)})
}

// UpdateRuleSettings 保存规则覆盖项，仅管理员可用。
func (a *API) UpdateRuleSettings(c *gin.Context) {
	var payload ruleSettingsRequest
	if !bindJSON(c, &payload, "invalid rule settings") {
		return
	}

	rules, err := a.rules.Update(payload.toInput())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rules": ruleSettingsPayload(rules)})
}

func (r ruleSettingsRequest) toInput() service.RuleSettingsInput {
	return service.RuleSettingsInput{
		MonthlyCap:         r.MonthlyCap,
		EditWindowHours:    r.EditWindowHours,
		PointExpiryMonths:  r.PointExpiryMonths,
		WeeklyWorkingDays:  r.WeeklyWorkingDays,
		MonthlyWorkingDays: r.MonthlyWorkingDays,
	}
}

func ruleSettingsPayload(rules config.Rules) gin.H {
	return gin.H{
		"monthly_cap":          rules.MonthlyCap,
		"edit_window_hours":    rules.EditWindow.Hours(),
		"point_expiry_months":  rules.PointExpiryMonths,
		"weekly_working_days":  rules.WeeklyWorkingDays,
		"monthly_working_days": rules.MonthlyWorkingDays,
		"penalty_min":          rules.PenaltyMin,
		"penalty_max":          rules.PenaltyMax,
	}
}
