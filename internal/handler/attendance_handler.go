package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/teampulse/internal/db"
	"github.com/teampulse/internal/service"
)

type markAttendancePayload struct {
	EmployeeID uint   `json:"employee_id"`
	Status     string `json:"status" binding:"required,attendance_status"`
	ProjectID  *uint  `json:"project_id"`
	Notes      string `json:"notes"`
}

type attendancePatchPayload struct {
	Status *string `json:"status" binding:"omitempty,attendance_status"`
	Notes  *string `json:"notes"`
}

type checkoutPayload struct {
	EmployeeID uint `json:"employee_id"`
}

// MarkAttendance 打卡并返回同一事务中累计的积分
func (a *API) MarkAttendance(c *gin.Context) {
	var payload markAttendancePayload
	if !bindJSON(c, &payload, "invalid attendance payload") {
		return
	}

	principal := currentPrincipal(c)
	if payload.EmployeeID == 0 {
		payload.EmployeeID = principal.EmployeeID
	}

	result, err := a.attendance.Mark(principal, service.MarkAttendanceInput{
		EmployeeID: payload.EmployeeID,
		Status:     payload.Status,
		ProjectID:  payload.ProjectID,
		Notes:      payload.Notes,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"attendance": attendanceToPayload(*result.Record),
		"points":     accrualToPayload(result.Accrual),
	})
}

// TodayAttendance 返回当天考勤
func (a *API) TodayAttendance(c *gin.Context) {
	principal := currentPrincipal(c)
	employeeID, err := resolveEmployeeID(c, principal)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	record, err := a.attendance.Today(employeeID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attendance": attendanceToPayload(*record)})
}

// AttendanceHistory 按 ?start=&end= 返回考勤历史，默认最近 30 天
func (a *API) AttendanceHistory(c *gin.Context) {
	principal := currentPrincipal(c)
	employeeID, err := resolveEmployeeID(c, principal)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	start, err := a.parseDateQuery(c, "start")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	end, err := a.parseDateQuery(c, "end")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	records, err := a.attendance.History(employeeID, start, end)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	items := make([]gin.H, 0, len(records))
	for _, record := range records {
		items = append(items, attendanceToPayload(record))
	}
	c.JSON(http.StatusOK, gin.H{"attendance": items})
}

// CheckOut 记录签退时间
func (a *API) CheckOut(c *gin.Context) {
	var payload checkoutPayload
	if c.Request.ContentLength > 0 && !bindJSON(c, &payload, "invalid checkout payload") {
		return
	}

	principal := currentPrincipal(c)
	if payload.EmployeeID == 0 {
		payload.EmployeeID = principal.EmployeeID
	}

	record, err := a.attendance.CheckOut(principal, payload.EmployeeID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attendance": attendanceToPayload(*record)})
}

// UpdateAttendance 修改考勤状态或备注，不重新计算积分
func (a *API) UpdateAttendance(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload attendancePatchPayload
	if !bindJSON(c, &payload, "invalid attendance payload") {
		return
	}

	record, err := a.attendance.Update(currentPrincipal(c), id, service.AttendancePatch{
		Status: payload.Status,
		Notes:  payload.Notes,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attendance": attendanceToPayload(*record)})
}

func attendanceToPayload(record db.AttendanceRecord) gin.H {
	payload := gin.H{
		"id":             record.ID,
		"employee_id":    record.EmployeeID,
		"date":           formatDate(record.Date),
		"status":         record.Status,
		"check_in_time":  formatTimestamp(&record.CheckInTime),
		"check_out_time": formatTimestamp(record.CheckOutTime),
		"notes":          record.Notes,
		"project_id":     record.ProjectID,
	}
	if record.Project != nil {
		payload["project"] = gin.H{"id": record.Project.ID, "title": record.Project.Title}
	}
	return payload
}

func accrualToPayload(result *service.AccrualResult) gin.H {
	if result == nil {
		return gin.H{"awarded": 0}
	}
	payload := gin.H{
		"requested": result.Requested,
		"awarded":   result.Awarded,
		"capped":    result.Capped,
	}
	if result.Transaction != nil {
		payload["transaction"] = transactionToPayload(*result.Transaction)
	}
	return payload
}
