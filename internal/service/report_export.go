package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var reportColumns = []string{
	"employee_id",
	"employee_name",
	"total_days",
	"present",
	"late",
	"absent",
	"wfh",
	"half_day",
	"on_leave",
	"attendance_rate",
	"projects",
}

// ReportFileName 生成导出文件名，例如 attendance-weekly-2024-05-06.csv
func ReportFileName(data *ReportData, ext string) string {
	return fmt.Sprintf("attendance-%s-%s.%s", data.Window.Kind, data.Window.Start.Format("2006-01-02"), ext)
}

// WriteReportCSV 以固定两位小数输出出勤率
func WriteReportCSV(w io.Writer, data *ReportData) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(reportColumns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, row := range data.Employees {
		record := []string{
			strconv.FormatUint(uint64(row.EmployeeID), 10),
			row.EmployeeName,
			strconv.Itoa(row.TotalDays),
			strconv.Itoa(row.Present),
			strconv.Itoa(row.Late),
			strconv.Itoa(row.Absent),
			strconv.Itoa(row.WFH),
			strconv.Itoa(row.HalfDay),
			strconv.Itoa(row.OnLeave),
			strconv.FormatFloat(row.AttendanceRate, 'f', 2, 64),
			strings.Join(row.Projects, "; "),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteReportXLSX 输出与 CSV 相同列的 Excel 工作簿
func WriteReportXLSX(w io.Writer, data *ReportData) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := data.Window.Kind
	if sheet == "" {
		sheet = "report"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, 0, len(reportColumns))
	for _, column := range reportColumns {
		header = append(header, column)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write xlsx header: %w", err)
	}

	rateStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return fmt.Errorf("create rate style: %w", err)
	}

	for i, row := range data.Employees {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{
			row.EmployeeID,
			row.EmployeeName,
			row.TotalDays,
			row.Present,
			row.Late,
			row.Absent,
			row.WFH,
			row.HalfDay,
			row.OnLeave,
			row.AttendanceRate,
			strings.Join(row.Projects, "; "),
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write xlsx row: %w", err)
		}
	}

	if len(data.Employees) > 0 {
		last := fmt.Sprintf("J%d", len(data.Employees)+1)
		if err := f.SetCellStyle(sheet, "J2", last, rateStyle); err != nil {
			return fmt.Errorf("apply rate style: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
