package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChecklistItem 是日报中的结构化事项
type ChecklistItem struct {
	Label     string `json:"label"`
	Completed bool   `json:"completed"`
}

// DailyUpdate 记录员工提交的日报
// 创建后 24 小时内仅作者本人可修改，CreatedAt 永不变更
type DailyUpdate struct {
	ID          uint            `gorm:"primaryKey"`
	PublicID    string          `gorm:"size:36;uniqueIndex;not null"`
	AuthorID    uint            `gorm:"not null;index"`
	Author      Employee        `gorm:"constraint:OnDelete:CASCADE"`
	Summary     string          `gorm:"type:text;not null"`
	Checklist   []ChecklistItem `gorm:"serializer:json"`
	NextPlan    string          `gorm:"type:text"`
	VideoURL    string
	HoursWorked *float64
	EditCount   int `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BeforeCreate 生成对外使用的 UUID
func (u *DailyUpdate) BeforeCreate(_ *gorm.DB) error {
	if u.PublicID == "" {
		u.PublicID = uuid.NewString()
	}
	return nil
}
