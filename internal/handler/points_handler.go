package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/teampulse/internal/db"
	"github.com/teampulse/internal/service"
)

type taskCompletionPayload struct {
	EmployeeID uint   `json:"employee_id"`
	Priority   string `json:"priority" binding:"omitempty,task_priority"`
}

type milestonePayload struct {
	EmployeeID uint `json:"employee_id" binding:"required"`
	Premium    bool `json:"premium"`
}

type penaltyPayload struct {
	EmployeeID uint   `json:"employee_id" binding:"required"`
	Amount     int    `json:"amount"`
	Reason     string `json:"reason" binding:"required"`
}

// PointsSummary 返回积分汇总
func (a *API) PointsSummary(c *gin.Context) {
	employeeID, err := resolveEmployeeID(c, currentPrincipal(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	summary, err := a.points.Summary(employeeID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summaryToPayload(*summary)})
}

// PointsHistory 返回最近的积分流水
func (a *API) PointsHistory(c *gin.Context) {
	employeeID, err := resolveEmployeeID(c, currentPrincipal(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	limit, err := parseIntQuery(c, "limit", 0)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := a.points.History(employeeID, limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	items := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		items = append(items, transactionToPayload(entry))
	}
	c.JSON(http.StatusOK, gin.H{"transactions": items})
}

// Leaderboard 返回积分排行
func (a *API) Leaderboard(c *gin.Context) {
	limit, err := parseIntQuery(c, "limit", 10)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	board, err := a.points.Leaderboard(limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	items := make([]gin.H, 0, len(board))
	for i, summary := range board {
		item := summaryToPayload(summary)
		item["rank"] = i + 1
		items = append(items, item)
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": items})
}

// CompleteTask 记录任务完成积分
func (a *API) CompleteTask(c *gin.Context) {
	var payload taskCompletionPayload
	if !bindJSON(c, &payload, "invalid task payload") {
		return
	}

	principal := currentPrincipal(c)
	if payload.EmployeeID == 0 {
		payload.EmployeeID = principal.EmployeeID
	}
	if err := service.AuthorizeFor(principal, payload.EmployeeID); err != nil {
		handleServiceError(c, err)
		return
	}

	result, err := a.points.RecordTaskCompletion(payload.EmployeeID, payload.Priority)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"points": accrualToPayload(result)})
}

// RecordMilestone 记录里程碑积分，需要管理权限
func (a *API) RecordMilestone(c *gin.Context) {
	var payload milestonePayload
	if !bindJSON(c, &payload, "invalid milestone payload") {
		return
	}

	result, err := a.points.RecordMilestone(payload.EmployeeID, payload.Premium)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"points": accrualToPayload(result)})
}

// ApplyPenalty 扣分，需要管理员权限
func (a *API) ApplyPenalty(c *gin.Context) {
	var payload penaltyPayload
	if !bindJSON(c, &payload, "invalid penalty payload") {
		return
	}

	result, err := a.points.ApplyPenalty(payload.EmployeeID, payload.Amount, payload.Reason)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"points": accrualToPayload(result)})
}

func transactionToPayload(entry db.PointsTransaction) gin.H {
	return gin.H{
		"id":          entry.ID,
		"employee_id": entry.EmployeeID,
		"points":      entry.Points,
		"description": entry.Description,
		"category":    entry.Category,
		"created_at":  formatTimestamp(&entry.CreatedAt),
	}
}

func summaryToPayload(summary service.PointsSummary) gin.H {
	return gin.H{
		"employee_id":           summary.EmployeeID,
		"employee_name":         summary.EmployeeName,
		"total_points":          summary.TotalPoints,
		"monthly_points":        summary.MonthlyPoints,
		"monthly_accrued":       summary.MonthlyAccrued,
		"monthly_cap_remaining": summary.MonthlyCapRemaining,
		"expiry_date":           formatTimestamp(summary.ExpiryDate),
		"is_active":             summary.IsActive,
	}
}
