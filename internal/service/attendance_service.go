package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teampulse/internal/db"
	"gorm.io/gorm"
)

const defaultHistoryDays = 30

// AttendanceService 负责打卡、签退与考勤记录查询
type AttendanceService struct {
	db     *gorm.DB
	points *PointsService
	now    Clock
}

// MarkAttendanceInput 定义打卡时的输入对象
type MarkAttendanceInput struct {
	EmployeeID uint
	Status     string
	ProjectID  *uint
	Notes      string
}

// MarkAttendanceResult 打卡结果与同一事务中写入的积分
type MarkAttendanceResult struct {
	Record  *db.AttendanceRecord
	Accrual *AccrualResult
}

// AttendancePatch 为考勤记录的可修改字段，nil 表示不变
type AttendancePatch struct {
	Status *string
	Notes  *string
}

// NewAttendanceService 构造 AttendanceService
func NewAttendanceService(gdb *gorm.DB, points *PointsService) *AttendanceService {
	return &AttendanceService{db: gdb, points: points, now: time.Now}
}

// SetClock 替换时间来源，主要面向测试场景。
func (s *AttendanceService) SetClock(clock Clock) {
	if clock == nil {
		clock = time.Now
	}
	s.now = clock
}

// ParseAttendanceStatus 接受 "Present"、"Half-day"、"On Leave"、"WFH" 等写法
func ParseAttendanceStatus(raw string) (db.AttendanceStatus, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer(" ", "", "-", "", "_", "").Replace(key)

	switch key {
	case "present":
		return db.AttendancePresent, nil
	case "absent":
		return db.AttendanceAbsent, nil
	case "late":
		return db.AttendanceLate, nil
	case "halfday":
		return db.AttendanceHalfDay, nil
	case "onleave", "leave":
		return db.AttendanceOnLeave, nil
	case "wfh", "workfromhome":
		return db.AttendanceWFH, nil
	default:
		return "", validationErrorf("unrecognized attendance status %q", raw)
	}
}

// Mark 为当天打卡；记录写入与积分累计处于同一事务，任一失败均不落库
// 同一员工同一天的唯一性由数据库唯一索引保证
func (s *AttendanceService) Mark(p Principal, input MarkAttendanceInput) (*MarkAttendanceResult, error) {
	if err := AuthorizeFor(p, input.EmployeeID); err != nil {
		return nil, err
	}

	status, err := ParseAttendanceStatus(input.Status)
	if err != nil {
		return nil, err
	}

	rules := s.points.rules.CurrentRules()
	now := s.now()
	result := &MarkAttendanceResult{}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := ensureEmployee(tx, input.EmployeeID); err != nil {
			return err
		}
		if input.ProjectID != nil {
			if _, err := findProject(tx, *input.ProjectID); err != nil {
				return err
			}
		}

		record := db.AttendanceRecord{
			EmployeeID:  input.EmployeeID,
			Date:        normalizeToDate(now),
			Status:      status,
			CheckInTime: now,
			ProjectID:   input.ProjectID,
			Notes:       strings.TrimSpace(input.Notes),
		}
		if err := tx.Create(&record).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: employee %d on %s", ErrDuplicateAttendance, input.EmployeeID, record.Date.Format(time.DateOnly))
			}
			return fmt.Errorf("create attendance record: %w", err)
		}

		accrual, err := s.points.recordAttendanceTx(tx, rules, input.EmployeeID, status, status != db.AttendanceLate)
		if err != nil {
			return err
		}

		result.Record = &record
		result.Accrual = accrual
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Today 返回员工当天的考勤记录
func (s *AttendanceService) Today(employeeID uint) (*db.AttendanceRecord, error) {
	var record db.AttendanceRecord
	if err := s.db.Preload("Project").
		Where("employee_id = ? AND date = ?", employeeID, normalizeToDate(s.now())).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("no attendance for employee %d today", employeeID)
		}
		return nil, fmt.Errorf("get today attendance: %w", err)
	}
	return &record, nil
}

// History 返回区间内的考勤记录，未指定时默认最近 30 天
func (s *AttendanceService) History(employeeID uint, start, end *time.Time) ([]db.AttendanceRecord, error) {
	to := normalizeToDate(s.now())
	if end != nil {
		to = normalizeToDate(*end)
	}
	from := to.AddDate(0, 0, -(defaultHistoryDays - 1))
	if start != nil {
		from = normalizeToDate(*start)
	}
	if to.Before(from) {
		return nil, validationErrorf("invalid range: end before start")
	}

	var records []db.AttendanceRecord
	if err := s.db.Preload("Project").
		Where("employee_id = ?", employeeID).
		Where("date BETWEEN ? AND ?", from, to).
		Order("date DESC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list attendance history: %w", err)
	}
	return records, nil
}

// CheckOut 记录当天签退时间，重复签退视为非法
func (s *AttendanceService) CheckOut(p Principal, employeeID uint) (*db.AttendanceRecord, error) {
	if err := AuthorizeFor(p, employeeID); err != nil {
		return nil, err
	}

	record, err := s.Today(employeeID)
	if err != nil {
		return nil, err
	}
	if record.CheckOutTime != nil {
		return nil, validationErrorf("already checked out at %s", record.CheckOutTime.Format(time.TimeOnly))
	}

	now := s.now()
	if err := s.db.Model(record).Update("check_out_time", now).Error; err != nil {
		return nil, fmt.Errorf("check out: %w", err)
	}
	record.CheckOutTime = &now
	return record, nil
}

// Update 允许记录所属员工或管理者修改状态与备注；状态修改不会重新计算积分
func (s *AttendanceService) Update(p Principal, recordID uint, patch AttendancePatch) (*db.AttendanceRecord, error) {
	var record db.AttendanceRecord
	if err := s.db.First(&record, recordID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("attendance record %d", recordID)
		}
		return nil, fmt.Errorf("find attendance record: %w", err)
	}

	if err := AuthorizeFor(p, record.EmployeeID); err != nil {
		return nil, err
	}

	if patch.Status != nil {
		status, err := ParseAttendanceStatus(*patch.Status)
		if err != nil {
			return nil, err
		}
		record.Status = status
	}
	if patch.Notes != nil {
		record.Notes = strings.TrimSpace(*patch.Notes)
	}

	if err := s.db.Model(&record).Select("Status", "Notes").Updates(&record).Error; err != nil {
		return nil, fmt.Errorf("update attendance record: %w", err)
	}
	return &record, nil
}
