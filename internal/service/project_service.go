package service

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/teampulse/internal/db"
	"gorm.io/gorm"
)

// ProjectService 负责项目的创建、查询与完成结算
type ProjectService struct {
	db     *gorm.DB
	points *PointsService
	now    Clock
}

// ProjectInput 定义创建项目时可配置字段
type ProjectInput struct {
	Title       string
	Description string
	Deadline    *time.Time
}

// ProjectCompletion 项目完成结果
type ProjectCompletion struct {
	Project  *db.Project
	WasEarly bool
	Accruals map[uint]*AccrualResult
}

// NewProjectService 构造 ProjectService
func NewProjectService(gdb *gorm.DB, points *PointsService) *ProjectService {
	return &ProjectService{db: gdb, points: points, now: time.Now}
}

// SetClock 替换时间来源，主要面向测试场景。
func (s *ProjectService) SetClock(clock Clock) {
	if clock == nil {
		clock = time.Now
	}
	s.now = clock
}

// Create 新建项目，需要管理权限
func (s *ProjectService) Create(p Principal, input ProjectInput) (*db.Project, error) {
	if err := RequireManager(p); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, validationErrorf("project title is required")
	}

	project := db.Project{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Status:      db.ProjectActive,
		Deadline:    input.Deadline,
	}
	if err := s.db.Create(&project).Error; err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return &project, nil
}

// List 返回项目列表，status 为空时返回全部
func (s *ProjectService) List(status string) ([]db.Project, error) {
	var projects []db.Project

	query := s.db.Model(&db.Project{})
	if status = strings.TrimSpace(status); status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// Get 根据 ID 获取项目
func (s *ProjectService) Get(id uint) (*db.Project, error) {
	return findProject(s.db, id)
}

// Complete 标记项目完成并为每位成员累计项目积分，全部在同一事务内完成
// wasEarly 为 nil 时依据截止日期推断
func (s *ProjectService) Complete(p Principal, projectID uint, employeeIDs []uint, wasEarly *bool) (*ProjectCompletion, error) {
	if err := RequireManager(p); err != nil {
		return nil, err
	}

	members := uniqueIDs(employeeIDs)
	if len(members) == 0 {
		return nil, validationErrorf("at least one employee is required")
	}

	rules := s.points.rules.CurrentRules()
	now := s.now()
	completion := &ProjectCompletion{Accruals: make(map[uint]*AccrualResult, len(members))}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		project, err := findProject(tx, projectID)
		if err != nil {
			return err
		}
		if project.Status == db.ProjectCompleted {
			return validationErrorf("project %d is already completed", projectID)
		}

		early := false
		if wasEarly != nil {
			early = *wasEarly
		} else if project.Deadline != nil {
			early = now.Before(*project.Deadline)
		}

		project.Status = db.ProjectCompleted
		project.CompletedAt = &now
		if err := tx.Model(project).Select("Status", "CompletedAt").Updates(project).Error; err != nil {
			return fmt.Errorf("complete project: %w", err)
		}

		for _, employeeID := range members {
			accrual, err := s.points.recordProjectTx(tx, rules, employeeID, early, project.Title)
			if err != nil {
				return err
			}
			completion.Accruals[employeeID] = accrual
		}

		completion.Project = project
		completion.WasEarly = early
		return nil
	})
	if err != nil {
		return nil, err
	}
	return completion, nil
}

func findProject(tx *gorm.DB, id uint) (*db.Project, error) {
	var project db.Project
	if err := tx.First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("project %d", id)
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &project, nil
}

func uniqueIDs(ids []uint) []uint {
	result := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 || slices.Contains(result, id) {
			continue
		}
		result = append(result, id)
	}
	return result
}
