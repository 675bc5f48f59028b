package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CategoryAttendance = "attendance"
	CategoryUpdate     = "update"
	CategoryTask       = "task"
	CategoryProject    = "project"
	CategoryMilestone  = "milestone"
	CategoryPenalty    = "penalty"
)

// PointsTransaction 是积分流水，只追加不修改；更正通过新增一条抵消流水完成
type PointsTransaction struct {
	ID          string    `gorm:"primaryKey;size:36"`
	EmployeeID  uint      `gorm:"not null;index:idx_points_employee_created"`
	Points      int       `gorm:"not null"`
	Description string    `gorm:"not null"`
	Category    string    `gorm:"size:20;not null;index"`
	CreatedAt   time.Time `gorm:"not null;index:idx_points_employee_created"`
}

// TableName 自定义表名以保持命名一致。
func (PointsTransaction) TableName() string {
	return "points_transactions"
}

// BeforeCreate 为流水分配 UUID
func (t *PointsTransaction) BeforeCreate(_ *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
