package service

import (
	"cmp"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/teampulse/internal/config"
	"github.com/teampulse/internal/db"
	"gorm.io/gorm"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"

	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// PointsService 负责积分累计、月度上限与汇总
// 流水只追加；负向积分与扣分不受月度上限约束
type PointsService struct {
	db    *gorm.DB
	rules RulesProvider
	now   Clock
}

// AccrualResult 描述一次累计的结果
// Transaction 为 nil 表示没有写入流水（状态不计分或月度额度已用尽）
type AccrualResult struct {
	Transaction *db.PointsTransaction
	Requested   int
	Awarded     int
	Capped      bool
}

// PointsSummary 为某员工的积分汇总，实时计算不落库
type PointsSummary struct {
	EmployeeID          uint
	EmployeeName        string
	TotalPoints         int
	MonthlyPoints       int
	MonthlyAccrued      int
	MonthlyCapRemaining int
	ExpiryDate          *time.Time
	IsActive            bool
}

// NewPointsService 构造 PointsService
func NewPointsService(gdb *gorm.DB, rules RulesProvider) *PointsService {
	return &PointsService{db: gdb, rules: rules, now: time.Now}
}

// SetClock 替换时间来源，主要面向测试场景。
func (s *PointsService) SetClock(clock Clock) {
	if clock == nil {
		clock = time.Now
	}
	s.now = clock
}

// RecordAttendance 出勤/远程 +5，准时再 +2；迟到 -1；其余状态不产生流水
func (s *PointsService) RecordAttendance(employeeID uint, status db.AttendanceStatus, isOnTime bool) (*AccrualResult, error) {
	return s.recordAttendanceTx(s.db, s.rules.CurrentRules(), employeeID, status, isOnTime)
}

// RecordUpdateSubmission 提交日报：含清单或附件 +3，否则 +1
func (s *PointsService) RecordUpdateSubmission(employeeID uint, isRich bool) (*AccrualResult, error) {
	return s.recordUpdateTx(s.db, s.rules.CurrentRules(), employeeID, isRich)
}

// RecordTaskCompletion 完成任务：基础 +4，中优先级再 +2，高优先级再 +5
func (s *PointsService) RecordTaskCompletion(employeeID uint, priority string) (*AccrualResult, error) {
	rules := s.rules.CurrentRules()
	points, label, err := taskDelta(rules, priority)
	if err != nil {
		return nil, err
	}
	return s.appendEntry(s.db, rules, employeeID, points, db.CategoryTask, fmt.Sprintf("task completed (%s priority)", label), true)
}

// RecordProjectCompletion 项目完成：每位成员 +10，提前完成再 +10
func (s *PointsService) RecordProjectCompletion(employeeID uint, wasEarly bool) (*AccrualResult, error) {
	return s.recordProjectTx(s.db, s.rules.CurrentRules(), employeeID, wasEarly, "")
}

// RecordMilestone 里程碑：标准 +20，高级 +30
func (s *PointsService) RecordMilestone(employeeID uint, isPremium bool) (*AccrualResult, error) {
	rules := s.rules.CurrentRules()
	points, description := rules.MilestonePoints, "milestone reached"
	if isPremium {
		points, description = rules.PremiumMilestonePoints, "premium milestone reached"
	}
	return s.appendEntry(s.db, rules, employeeID, points, db.CategoryMilestone, description, true)
}

// ApplyPenalty 扣分，amount 必须位于 [20,100]，以负数入账且绕过月度上限
func (s *PointsService) ApplyPenalty(employeeID uint, amount int, reason string) (*AccrualResult, error) {
	rules := s.rules.CurrentRules()
	if amount < rules.PenaltyMin || amount > rules.PenaltyMax {
		return nil, fmt.Errorf("%w: %d is outside [%d, %d]", ErrInvalidAmount, amount, rules.PenaltyMin, rules.PenaltyMax)
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, validationErrorf("penalty reason is required")
	}

	return s.appendEntry(s.db, rules, employeeID, -amount, db.CategoryPenalty, "penalty: "+reason, false)
}

func (s *PointsService) recordAttendanceTx(gdb *gorm.DB, rules config.Rules, employeeID uint, status db.AttendanceStatus, isOnTime bool) (*AccrualResult, error) {
	points, description, ok, err := attendanceDelta(rules, status, isOnTime)
	if err != nil {
		return nil, err
	}
	if !ok {
		if _, err := ensureEmployee(gdb, employeeID); err != nil {
			return nil, err
		}
		return &AccrualResult{}, nil
	}
	return s.appendEntry(gdb, rules, employeeID, points, db.CategoryAttendance, description, true)
}

func (s *PointsService) recordUpdateTx(gdb *gorm.DB, rules config.Rules, employeeID uint, isRich bool) (*AccrualResult, error) {
	points, description := rules.UpdatePoints, "daily update"
	if isRich {
		points, description = rules.RichUpdatePoints, "daily update (rich)"
	}
	return s.appendEntry(gdb, rules, employeeID, points, db.CategoryUpdate, description, true)
}

func (s *PointsService) recordProjectTx(gdb *gorm.DB, rules config.Rules, employeeID uint, wasEarly bool, title string) (*AccrualResult, error) {
	points := rules.ProjectPoints
	description := "project completed"
	if title = strings.TrimSpace(title); title != "" {
		description += ": " + title
	}
	if wasEarly {
		points += rules.ProjectEarlyBonus
		description += " (early)"
	}
	return s.appendEntry(gdb, rules, employeeID, points, db.CategoryProject, description, true)
}

// appendEntry 在单个事务中完成上限检查与写入，尽量缩小读写竞争窗口
func (s *PointsService) appendEntry(gdb *gorm.DB, rules config.Rules, employeeID uint, points int, category, description string, applyCap bool) (*AccrualResult, error) {
	result := &AccrualResult{Requested: points}
	now := s.now()

	err := gdb.Transaction(func(tx *gorm.DB) error {
		if _, err := ensureEmployee(tx, employeeID); err != nil {
			return err
		}

		awarded := points
		if applyCap && points > 0 {
			accrued, err := monthlyAccrued(tx, employeeID, now)
			if err != nil {
				return err
			}
			remaining := max(0, rules.MonthlyCap-accrued)
			if awarded > remaining {
				awarded = remaining
				result.Capped = true
			}
		}
		result.Awarded = awarded

		if awarded == 0 {
			return nil
		}

		entry := db.PointsTransaction{
			EmployeeID:  employeeID,
			Points:      awarded,
			Description: description,
			Category:    category,
			CreatedAt:   now,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("append points transaction: %w", err)
		}
		result.Transaction = &entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Capped {
		log.Printf("[points] monthly cap reached: employee=%d category=%s requested=%d awarded=%d",
			employeeID, category, result.Requested, result.Awarded)
	}
	return result, nil
}

func monthlyAccrued(tx *gorm.DB, employeeID uint, now time.Time) (int, error) {
	start := monthStart(now)
	end := start.AddDate(0, 1, 0)

	var total int64
	if err := tx.Model(&db.PointsTransaction{}).
		Select("COALESCE(SUM(points), 0)").
		Where("employee_id = ? AND points > 0", employeeID).
		Where("created_at >= ? AND created_at < ?", start, end).
		Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("sum monthly points: %w", err)
	}
	return int(total), nil
}

// Summary 计算某员工的积分汇总；未知员工返回零值汇总
func (s *PointsService) Summary(employeeID uint) (*PointsSummary, error) {
	rules := s.rules.CurrentRules()

	var entries []db.PointsTransaction
	if err := s.db.Where("employee_id = ?", employeeID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("load points transactions: %w", err)
	}

	summary := computeSummary(rules, entries, s.now())
	summary.EmployeeID = employeeID

	var employee db.Employee
	if err := s.db.Select("id", "name").Limit(1).Find(&employee, employeeID).Error; err == nil {
		summary.EmployeeName = employee.Name
	}
	return &summary, nil
}

// History 返回最近的积分流水，默认 20 条，最多 100 条
func (s *PointsService) History(employeeID uint, limit int) ([]db.PointsTransaction, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	limit = min(limit, maxHistoryLimit)

	var entries []db.PointsTransaction
	if err := s.db.Where("employee_id = ?", employeeID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list points history: %w", err)
	}
	return entries, nil
}

// Leaderboard 按总积分降序、姓名升序返回在职员工排行
func (s *PointsService) Leaderboard(limit int) ([]PointsSummary, error) {
	rules := s.rules.CurrentRules()
	now := s.now()

	var employees []db.Employee
	if err := s.db.Where("status = ?", db.EmployeeActive).Find(&employees).Error; err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	if len(employees) == 0 {
		return []PointsSummary{}, nil
	}

	ids := make([]uint, 0, len(employees))
	for _, employee := range employees {
		ids = append(ids, employee.ID)
	}

	var entries []db.PointsTransaction
	if err := s.db.Where("employee_id IN ?", ids).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("load points transactions: %w", err)
	}

	grouped := make(map[uint][]db.PointsTransaction, len(employees))
	for _, entry := range entries {
		grouped[entry.EmployeeID] = append(grouped[entry.EmployeeID], entry)
	}

	board := make([]PointsSummary, 0, len(employees))
	for _, employee := range employees {
		summary := computeSummary(rules, grouped[employee.ID], now)
		summary.EmployeeID = employee.ID
		summary.EmployeeName = employee.Name
		board = append(board, summary)
	}

	sortLeaderboard(board)
	if limit > 0 && len(board) > limit {
		board = board[:limit]
	}
	return board, nil
}

func sortLeaderboard(board []PointsSummary) {
	slices.SortStableFunc(board, func(a, b PointsSummary) int {
		if diff := cmp.Compare(b.TotalPoints, a.TotalPoints); diff != 0 {
			return diff
		}
		return cmp.Compare(a.EmployeeName, b.EmployeeName)
	})
}

// computeSummary 采用账户级滚动有效期：
// 从最早一笔流水起算 PointExpiryMonths 个月为一个周期，周期到期后该周期内流水全部失效，
// 下一个周期从到期后的第一笔流水重新起算。entries 需按 CreatedAt 升序。
func computeSummary(rules config.Rules, entries []db.PointsTransaction, now time.Time) PointsSummary {
	var summary PointsSummary

	start := monthStart(now)
	end := start.AddDate(0, 1, 0)
	for _, entry := range entries {
		if entry.CreatedAt.Before(start) || !entry.CreatedAt.Before(end) {
			continue
		}
		summary.MonthlyPoints += entry.Points
		if entry.Points > 0 {
			summary.MonthlyAccrued += entry.Points
		}
	}
	summary.MonthlyCapRemaining = max(0, rules.MonthlyCap-summary.MonthlyAccrued)

	i := 0
	for i < len(entries) {
		epochExpiry := entries[i].CreatedAt.AddDate(0, rules.PointExpiryMonths, 0)
		if epochExpiry.After(now) {
			break
		}
		for i < len(entries) && entries[i].CreatedAt.Before(epochExpiry) {
			i++
		}
	}

	if i >= len(entries) {
		return summary
	}

	expiry := entries[i].CreatedAt.AddDate(0, rules.PointExpiryMonths, 0)
	for _, entry := range entries[i:] {
		summary.TotalPoints += entry.Points
	}
	summary.ExpiryDate = &expiry
	summary.IsActive = expiry.After(now)
	return summary
}

func attendanceDelta(rules config.Rules, status db.AttendanceStatus, isOnTime bool) (int, string, bool, error) {
	switch status {
	case db.AttendancePresent, db.AttendanceWFH:
		points := rules.AttendancePoints
		if isOnTime {
			points += rules.OnTimeBonus
		}
		return points, "attendance", true, nil
	case db.AttendanceLate:
		return -rules.LatePenalty, "late arrival", true, nil
	case db.AttendanceAbsent, db.AttendanceOnLeave, db.AttendanceHalfDay:
		return 0, "", false, nil
	default:
		return 0, "", false, validationErrorf("unrecognized attendance status %q", status)
	}
}

func taskDelta(rules config.Rules, priority string) (int, string, error) {
	label, err := NormalizePriority(priority)
	if err != nil {
		return 0, "", err
	}

	points := rules.TaskBasePoints
	switch label {
	case PriorityMedium:
		points += rules.TaskMediumBonus
	case PriorityHigh:
		points += rules.TaskHighBonus
	}
	return points, label, nil
}

// NormalizePriority 规范化任务优先级，空值视为 low
func NormalizePriority(priority string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(priority)) {
	case "", PriorityLow:
		return PriorityLow, nil
	case PriorityMedium:
		return PriorityMedium, nil
	case PriorityHigh:
		return PriorityHigh, nil
	default:
		return "", validationErrorf("unsupported task priority %q", priority)
	}
}
