package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/teampulse/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// WeeklyReport 周报：?week_start=YYYY-MM-DD 任意一天均归一到周一，?format=csv|xlsx 导出
func (a *API) WeeklyReport(c *gin.Context) {
	weekStart, err := a.parseDateQuery(c, "week_start")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	report, err := a.reports.Weekly(weekStart, reportScope(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	a.respondReport(c, report)
}

// MonthlyReport 月报：?month=&year= 缺省为当前月
func (a *API) MonthlyReport(c *gin.Context) {
	month, err := parseIntQuery(c, "month", 0)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	year, err := parseIntQuery(c, "year", 0)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	report, err := a.reports.Monthly(month, year, reportScope(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	a.respondReport(c, report)
}

func (a *API) respondReport(c *gin.Context, report *service.ReportData) {
	switch strings.ToLower(strings.TrimSpace(c.Query("format"))) {
	case "", "json":
		c.JSON(http.StatusOK, gin.H{"report": reportToPayload(report)})
	case "csv":
		var buf bytes.Buffer
		if err := service.WriteReportCSV(&buf, report); err != nil {
			handleServiceError(c, err)
			return
		}
		attachment(c, service.ReportFileName(report, "csv"))
		c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
	case "xlsx":
		var buf bytes.Buffer
		if err := service.WriteReportXLSX(&buf, report); err != nil {
			handleServiceError(c, err)
			return
		}
		attachment(c, service.ReportFileName(report, "xlsx"))
		c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
	default:
		respondError(c, http.StatusBadRequest, "format must be json, csv or xlsx")
	}
}

// reportScope 普通员工只能查看自己的报表
func reportScope(c *gin.Context) []uint {
	principal := currentPrincipal(c)
	if !principal.CanManage() {
		return []uint{principal.EmployeeID}
	}
	return parseUintQuerySlice(c.QueryArray("employee_id"))
}

func attachment(c *gin.Context, filename string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}

func reportToPayload(report *service.ReportData) gin.H {
	rows := make([]gin.H, 0, len(report.Employees))
	for _, row := range report.Employees {
		rows = append(rows, gin.H{
			"employee_id":     row.EmployeeID,
			"employee_name":   row.EmployeeName,
			"department":      row.Department,
			"total_days":      row.TotalDays,
			"present":         row.Present,
			"late":            row.Late,
			"absent":          row.Absent,
			"wfh":             row.WFH,
			"half_day":        row.HalfDay,
			"on_leave":        row.OnLeave,
			"attendance_rate": row.AttendanceRate,
			"projects":        row.Projects,
		})
	}

	return gin.H{
		"kind":          report.Window.Kind,
		"start":         formatDate(report.Window.Start),
		"end":           formatDate(report.Window.End),
		"expected_days": report.Window.ExpectedDays,
		"generated_at":  formatTimestamp(&report.GeneratedAt),
		"employees":     rows,
	}
}
