package service

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/teampulse/internal/db"
	"gorm.io/gorm"
)

const (
	UpdateStateCreated = "created"
	UpdateStateEdited  = "edited"
	UpdateStateLocked  = "locked"
)

// UpdateService 负责日报提交与编辑时限
type UpdateService struct {
	db     *gorm.DB
	points *PointsService
	now    Clock
}

// SubmitUpdateInput 定义提交日报的输入
type SubmitUpdateInput struct {
	AuthorID    uint
	Summary     string
	Checklist   []db.ChecklistItem
	NextPlan    string
	VideoURL    string
	HoursWorked *float64
}

// UpdatePatch 为日报可修改的内容字段，nil 表示不变
type UpdatePatch struct {
	Summary     *string
	Checklist   *[]db.ChecklistItem
	NextPlan    *string
	VideoURL    *string
	HoursWorked *float64
}

// NewUpdateService 构造 UpdateService
func NewUpdateService(gdb *gorm.DB, points *PointsService) *UpdateService {
	return &UpdateService{db: gdb, points: points, now: time.Now}
}

// SetClock 替换时间来源，主要面向测试场景。
func (s *UpdateService) SetClock(clock Clock) {
	if clock == nil {
		clock = time.Now
	}
	s.now = clock
}

// Submit 创建日报并在同一事务内累计积分：含清单或视频链接 +3，否则 +1
func (s *UpdateService) Submit(p Principal, input SubmitUpdateInput) (*db.DailyUpdate, *AccrualResult, error) {
	if input.AuthorID == 0 {
		input.AuthorID = p.EmployeeID
	}
	if p.EmployeeID == 0 || input.AuthorID != p.EmployeeID {
		return nil, nil, fmt.Errorf("%w: updates can only be submitted by their author", ErrForbidden)
	}

	update := db.DailyUpdate{
		AuthorID:    input.AuthorID,
		Summary:     strings.TrimSpace(input.Summary),
		Checklist:   cleanChecklist(input.Checklist),
		NextPlan:    strings.TrimSpace(input.NextPlan),
		VideoURL:    strings.TrimSpace(input.VideoURL),
		HoursWorked: input.HoursWorked,
	}
	if err := validateUpdate(&update); err != nil {
		return nil, nil, err
	}

	rules := s.points.rules.CurrentRules()
	now := s.now()
	update.CreatedAt = now
	update.UpdatedAt = now

	var accrual *AccrualResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := ensureEmployee(tx, update.AuthorID); err != nil {
			return err
		}
		if err := tx.Create(&update).Error; err != nil {
			return fmt.Errorf("create daily update: %w", err)
		}

		var err error
		accrual, err = s.points.recordUpdateTx(tx, rules, update.AuthorID, isRichUpdate(&update))
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return &update, accrual, nil
}

// Get 根据对外 ID 获取日报
func (s *UpdateService) Get(publicID string) (*db.DailyUpdate, error) {
	var update db.DailyUpdate
	if err := s.db.Where("public_id = ?", strings.TrimSpace(publicID)).First(&update).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("daily update %s", publicID)
		}
		return nil, fmt.Errorf("get daily update: %w", err)
	}
	return &update, nil
}

// ListByAuthor 返回作者最近的日报
func (s *UpdateService) ListByAuthor(authorID uint, limit int) ([]db.DailyUpdate, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	limit = min(limit, maxHistoryLimit)

	var updates []db.DailyUpdate
	if err := s.db.Where("author_id = ?", authorID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&updates).Error; err != nil {
		return nil, fmt.Errorf("list daily updates: %w", err)
	}
	return updates, nil
}

// CanEdit 仅作者本人且创建未满编辑时限（严格小于）时返回 true
func (s *UpdateService) CanEdit(update *db.DailyUpdate, requesterID uint) bool {
	return checkEditable(update, requesterID, s.now(), s.points.rules.CurrentRules().EditWindow) == nil
}

// State 返回日报所处状态：created / edited / locked
func (s *UpdateService) State(update *db.DailyUpdate) string {
	if s.now().Sub(update.CreatedAt) >= s.points.rules.CurrentRules().EditWindow {
		return UpdateStateLocked
	}
	if update.EditCount > 0 {
		return UpdateStateEdited
	}
	return UpdateStateCreated
}

// Edit 作者在编辑时限内修改内容字段；CreatedAt 保持不变
// 作者不符返回 ErrForbidden，超时返回 *EditWindowExpiredError
func (s *UpdateService) Edit(p Principal, publicID string, patch UpdatePatch) (*db.DailyUpdate, error) {
	update, err := s.Get(publicID)
	if err != nil {
		return nil, err
	}

	if err := checkEditable(update, p.EmployeeID, s.now(), s.points.rules.CurrentRules().EditWindow); err != nil {
		return nil, err
	}

	if patch.Summary != nil {
		update.Summary = strings.TrimSpace(*patch.Summary)
	}
	if patch.Checklist != nil {
		update.Checklist = cleanChecklist(*patch.Checklist)
	}
	if patch.NextPlan != nil {
		update.NextPlan = strings.TrimSpace(*patch.NextPlan)
	}
	if patch.VideoURL != nil {
		update.VideoURL = strings.TrimSpace(*patch.VideoURL)
	}
	if patch.HoursWorked != nil {
		hours := *patch.HoursWorked
		update.HoursWorked = &hours
	}
	if err := validateUpdate(update); err != nil {
		return nil, err
	}
	update.EditCount++

	if err := s.db.Model(update).
		Select("Summary", "Checklist", "NextPlan", "VideoURL", "HoursWorked", "EditCount").
		Updates(update).Error; err != nil {
		return nil, fmt.Errorf("update daily update: %w", err)
	}
	return update, nil
}

func checkEditable(update *db.DailyUpdate, requesterID uint, now time.Time, window time.Duration) error {
	if update == nil {
		return notFoundf("daily update")
	}
	if requesterID == 0 || requesterID != update.AuthorID {
		return fmt.Errorf("%w: only the author can edit this update", ErrForbidden)
	}

	elapsed := now.Sub(update.CreatedAt)
	if elapsed >= window {
		return &EditWindowExpiredError{HoursElapsed: elapsed.Hours()}
	}
	return nil
}

func validateUpdate(update *db.DailyUpdate) error {
	if update.Summary == "" {
		return validationErrorf("summary is required")
	}
	for i, item := range update.Checklist {
		if item.Label == "" {
			return validationErrorf("checklist item %d has no label", i+1)
		}
	}
	if update.HoursWorked != nil && (*update.HoursWorked < 0 || *update.HoursWorked > 24) {
		return validationErrorf("hours worked must be between 0 and 24")
	}
	if update.VideoURL != "" {
		parsed, err := url.Parse(update.VideoURL)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return validationErrorf("video link must be an http(s) URL")
		}
	}
	return nil
}

func cleanChecklist(items []db.ChecklistItem) []db.ChecklistItem {
	if len(items) == 0 {
		return nil
	}
	cleaned := make([]db.ChecklistItem, 0, len(items))
	for _, item := range items {
		cleaned = append(cleaned, db.ChecklistItem{Label: strings.TrimSpace(item.Label), Completed: item.Completed})
	}
	return cleaned
}

func isRichUpdate(update *db.DailyUpdate) bool {
	return len(update.Checklist) > 0 || update.VideoURL != ""
}
