package service

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/teampulse/internal/db"
	"gorm.io/gorm"
)

const (
	ReportWeekly  = "weekly"
	ReportMonthly = "monthly"
)

// ReportService 只读地汇总考勤数据，缺失数据的员工以零值行返回而不是报错
type ReportService struct {
	db    *gorm.DB
	rules RulesProvider
	now   Clock
}

// ReportWindow 描述统计区间
type ReportWindow struct {
	Kind         string
	Start        time.Time
	End          time.Time
	ExpectedDays int
}

// EmployeeAttendanceReport 为单个员工在区间内的考勤汇总
type EmployeeAttendanceReport struct {
	EmployeeID     uint
	EmployeeName   string
	Department     string
	TotalDays      int
	Present        int
	Late           int
	Absent         int
	WFH            int
	HalfDay        int
	OnLeave        int
	AttendanceRate float64
	Projects       []string
}

// ReportData 为一次报表计算的结果
type ReportData struct {
	Window      ReportWindow
	Employees   []EmployeeAttendanceReport
	GeneratedAt time.Time
}

// NewReportService 构造 ReportService
func NewReportService(gdb *gorm.DB, rules RulesProvider) *ReportService {
	return &ReportService{db: gdb, rules: rules, now: time.Now}
}

// SetClock 替换时间来源，主要面向测试场景。
func (s *ReportService) SetClock(clock Clock) {
	if clock == nil {
		clock = time.Now
	}
	s.now = clock
}

// WeeklyWindow 将任意日期归一到所在周的周一，结束于第 7 天 23:59:59.999
func (s *ReportService) WeeklyWindow(weekStart *time.Time) ReportWindow {
	ref := s.now()
	if weekStart != nil {
		ref = weekStart.In(ref.Location())
	}
	start := WeekStart(ref)
	return ReportWindow{
		Kind:         ReportWeekly,
		Start:        start,
		End:          endOfDay(start.AddDate(0, 0, 6)),
		ExpectedDays: s.rules.CurrentRules().WeeklyWorkingDays,
	}
}

// MonthlyWindow month/year 为 0 时取当前月
func (s *ReportService) MonthlyWindow(month, year int) (ReportWindow, error) {
	now := s.now()
	if month == 0 {
		month = int(now.Month())
	}
	if year == 0 {
		year = now.Year()
	}
	if month < 1 || month > 12 {
		return ReportWindow{}, validationErrorf("month must be between 1 and 12, got %d", month)
	}
	if year < 1970 || year > 9999 {
		return ReportWindow{}, validationErrorf("invalid year %d", year)
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, now.Location())
	return ReportWindow{
		Kind:         ReportMonthly,
		Start:        start,
		End:          endOfDay(start.AddDate(0, 1, -1)),
		ExpectedDays: s.rules.CurrentRules().MonthlyWorkingDays,
	}, nil
}

// Weekly 计算周报；employeeIDs 为空时统计全部在职员工
func (s *ReportService) Weekly(weekStart *time.Time, employeeIDs []uint) (*ReportData, error) {
	return s.Compute(s.WeeklyWindow(weekStart), employeeIDs)
}

// Monthly 计算月报；employeeIDs 为空时统计全部在职员工
func (s *ReportService) Monthly(month, year int, employeeIDs []uint) (*ReportData, error) {
	window, err := s.MonthlyWindow(month, year)
	if err != nil {
		return nil, err
	}
	return s.Compute(window, employeeIDs)
}

// Compute 按区间统计每位员工的考勤分布、出勤率与涉及项目
func (s *ReportService) Compute(window ReportWindow, employeeIDs []uint) (*ReportData, error) {
	population, err := s.population(employeeIDs)
	if err != nil {
		return nil, err
	}

	data := &ReportData{
		Window:      window,
		Employees:   make([]EmployeeAttendanceReport, 0, len(population)),
		GeneratedAt: s.now(),
	}
	if len(population) == 0 {
		return data, nil
	}

	ids := make([]uint, 0, len(population))
	for _, row := range population {
		ids = append(ids, row.EmployeeID)
	}

	var records []db.AttendanceRecord
	if err := s.db.Preload("Project").
		Where("employee_id IN ?", ids).
		Where("date BETWEEN ? AND ?", window.Start, window.End).
		Order("date ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list attendance for report: %w", err)
	}

	grouped := make(map[uint][]db.AttendanceRecord, len(population))
	for _, record := range records {
		grouped[record.EmployeeID] = append(grouped[record.EmployeeID], record)
	}

	for _, row := range population {
		tallyAttendance(&row, grouped[row.EmployeeID], window.ExpectedDays)
		data.Employees = append(data.Employees, row)
	}
	return data, nil
}

// population 返回统计对象；指定但不存在的员工以空名零值行占位
func (s *ReportService) population(employeeIDs []uint) ([]EmployeeAttendanceReport, error) {
	var employees []db.Employee
	query := s.db.Model(&db.Employee{})

	ids := uniqueIDs(employeeIDs)
	if len(ids) > 0 {
		query = query.Where("id IN ?", ids)
	} else {
		query = query.Where("status = ?", db.EmployeeActive)
	}
	if err := query.Order("name ASC, id ASC").Find(&employees).Error; err != nil {
		return nil, fmt.Errorf("list report employees: %w", err)
	}

	known := make(map[uint]db.Employee, len(employees))
	for _, employee := range employees {
		known[employee.ID] = employee
	}

	rows := make([]EmployeeAttendanceReport, 0, max(len(ids), len(employees)))
	if len(ids) == 0 {
		for _, employee := range employees {
			rows = append(rows, EmployeeAttendanceReport{EmployeeID: employee.ID, EmployeeName: employee.Name, Department: employee.Department})
		}
		return rows, nil
	}

	for _, id := range ids {
		employee := known[id]
		rows = append(rows, EmployeeAttendanceReport{EmployeeID: id, EmployeeName: employee.Name, Department: employee.Department})
	}
	return rows, nil
}

// tallyAttendance 出勤率 = 非缺勤且非请假的记录数 / 期望工作日 × 100，保留两位小数
func tallyAttendance(row *EmployeeAttendanceReport, records []db.AttendanceRecord, expectedDays int) {
	projects := make([]string, 0)
	presentLike := 0

	for _, record := range records {
		row.TotalDays++
		switch record.Status {
		case db.AttendancePresent:
			row.Present++
		case db.AttendanceLate:
			row.Late++
		case db.AttendanceAbsent:
			row.Absent++
		case db.AttendanceWFH:
			row.WFH++
		case db.AttendanceHalfDay:
			row.HalfDay++
		case db.AttendanceOnLeave:
			row.OnLeave++
		}
		if record.Status != db.AttendanceAbsent && record.Status != db.AttendanceOnLeave {
			presentLike++
		}

		if record.Project != nil {
			if title := strings.TrimSpace(record.Project.Title); title != "" && !slices.Contains(projects, title) {
				projects = append(projects, title)
			}
		}
	}

	slices.Sort(projects)
	row.Projects = projects

	if row.TotalDays > 0 && expectedDays > 0 {
		row.AttendanceRate = round2(float64(presentLike) / float64(expectedDays) * 100)
	}
}
