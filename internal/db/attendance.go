package db

import (
	"time"

	"gorm.io/gorm"
)

// AttendanceStatus 为考勤状态
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceHalfDay AttendanceStatus = "half_day"
	AttendanceOnLeave AttendanceStatus = "on_leave"
	AttendanceWFH     AttendanceStatus = "wfh"
)

// AttendanceStatuses 按展示顺序列出全部状态
var AttendanceStatuses = []AttendanceStatus{
	AttendancePresent,
	AttendanceAbsent,
	AttendanceLate,
	AttendanceHalfDay,
	AttendanceOnLeave,
	AttendanceWFH,
}

// AttendanceRecord 记录员工每日考勤
// EmployeeID + Date 采用唯一索引，同一员工同一天只允许一条记录；Date 归一到当天零点
// ProjectID 为当天选择的项目，可为空
type AttendanceRecord struct {
	gorm.Model
	EmployeeID   uint             `gorm:"not null;index;index:idx_attendance_employee_date,unique"`
	Employee     Employee         `gorm:"constraint:OnDelete:CASCADE"`
	Date         time.Time        `gorm:"not null;index;index:idx_attendance_employee_date,unique"`
	Status       AttendanceStatus `gorm:"size:20;not null"`
	CheckInTime  time.Time        `gorm:"not null"`
	CheckOutTime *time.Time
	ProjectID    *uint    `gorm:"index"`
	Project      *Project `gorm:"constraint:OnDelete:SET NULL"`
	Notes        string
}

// TableName 重写确保唯一索引作用到 employee_id + date
func (AttendanceRecord) TableName() string {
	return "attendance_records"
}
