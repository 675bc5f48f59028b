package db

import (
	"time"

	"gorm.io/gorm"
)

const (
	ProjectActive    = "active"
	ProjectCompleted = "completed"
)

// Project 定义了项目模型，考勤记录可引用当天所选项目
type Project struct {
	gorm.Model
	Title       string `gorm:"not null"`
	Description string
	Status      string `gorm:"size:20;not null;default:active"`
	Deadline    *time.Time
	CompletedAt *time.Time
}
