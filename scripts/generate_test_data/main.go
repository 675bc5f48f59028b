package main

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/teampulse/internal/config"
	"github.com/teampulse/internal/db"
	"github.com/teampulse/internal/service"
	"gorm.io/gorm"
)

// seedStats 记录生成的数据量
type seedStats struct {
	Employees  int
	Projects   int
	Attendance int
	Updates    int
	Tasks      int
}

type seedEmployee struct {
	username   string
	name       string
	role       string
	department string
}

var demoEmployees = []seedEmployee{
	{username: "admin", name: "Administrator", role: db.RoleAdmin, department: "Ops"},
	{username: "maya", name: "Maya Chen", role: db.RoleManager, department: "Engineering"},
	{username: "leo", name: "Leo Park", role: db.RoleEmployee, department: "Engineering"},
	{username: "nina", name: "Nina Rossi", role: db.RoleEmployee, department: "Engineering"},
	{username: "omar", name: "Omar Haddad", role: db.RoleEmployee, department: "Design"},
	{username: "priya", name: "Priya Nair", role: db.RoleEmployee, department: "Design"},
}

// 测试数据生成器
func main() {
	// 初始化数据库
	cfg := config.Load()
	if err := db.Init(cfg.DatabaseDriver, cfg.DatabasePath, cfg.DatabaseDSN); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	fmt.Println("开始生成测试数据...")

	stats, err := seedDemoData(db.DB, cfg.Rules, time.Now().In(cfg.Location), 30)
	if err != nil {
		log.Fatal("生成测试数据失败:", err)
	}

	fmt.Println("测试数据生成完成！")
	fmt.Printf("员工: %d，项目: %d，考勤: %d，日报: %d，任务: %d\n",
		stats.Employees, stats.Projects, stats.Attendance, stats.Updates, stats.Tasks)
	fmt.Println("账号: admin / maya / leo ... (密码: demo123)")
}

// seedDemoData 通过服务层回放过去 days 天的考勤、日报与任务，积分流水与真实使用一致
func seedDemoData(gdb *gorm.DB, rules config.Rules, now time.Time, days int) (seedStats, error) {
	var stats seedStats
	rng := rand.New(rand.NewSource(42))

	clock := now
	points := service.NewPointsService(gdb, service.StaticRules(rules))
	attendance := service.NewAttendanceService(gdb, points)
	updates := service.NewUpdateService(gdb, points)
	projects := service.NewProjectService(gdb, points)
	for _, svc := range []interface{ SetClock(service.Clock) }{points, attendance, updates, projects} {
		svc.SetClock(func() time.Time { return clock })
	}

	employees, err := createTestEmployees(gdb)
	if err != nil {
		return stats, err
	}
	stats.Employees = len(employees)

	var manager service.Principal
	for _, employee := range employees {
		if employee.Role == db.RoleManager {
			manager = service.Principal{EmployeeID: employee.ID, Role: employee.Role}
		}
	}

	deadline := now.AddDate(0, 0, 14)
	project, err := projects.Create(manager, service.ProjectInput{Title: "Customer Portal", Description: "self-service onboarding", Deadline: &deadline})
	if err != nil {
		return stats, fmt.Errorf("create project: %w", err)
	}
	stats.Projects = 1

	statuses := []string{"Present", "Present", "Present", "WFH", "Late", "Half-day", "Absent", "On Leave"}
	start := time.Date(now.Year(), now.Month(), now.Day(), 9, 0, 0, 0, now.Location()).AddDate(0, 0, -days)

	for day := 0; day < days; day++ {
		date := start.AddDate(0, 0, day)
		if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
			continue
		}

		for _, employee := range employees {
			self := service.Principal{EmployeeID: employee.ID, Role: employee.Role}
			clock = date.Add(time.Duration(rng.Intn(60)) * time.Minute)

			status := statuses[rng.Intn(len(statuses))]
			if _, err := attendance.Mark(self, service.MarkAttendanceInput{EmployeeID: employee.ID, Status: status, ProjectID: &project.ID}); err != nil {
				if errors.Is(err, service.ErrDuplicateAttendance) {
					continue
				}
				return stats, fmt.Errorf("mark attendance for %s: %w", employee.Username, err)
			}
			stats.Attendance++

			if status == "Absent" || status == "On Leave" {
				continue
			}

			clock = date.Add(8 * time.Hour)
			input := service.SubmitUpdateInput{
				AuthorID: employee.ID,
				Summary:  fmt.Sprintf("Worked on %s, day %d", project.Title, day+1),
				NextPlan: "Continue with the next milestone",
			}
			if rng.Intn(2) == 0 {
				input.Checklist = []db.ChecklistItem{{Label: "code review", Completed: true}, {Label: "write tests", Completed: rng.Intn(2) == 0}}
			}
			if _, _, err := updates.Submit(self, input); err != nil {
				return stats, fmt.Errorf("submit update for %s: %w", employee.Username, err)
			}
			stats.Updates++

			if rng.Intn(3) == 0 {
				priority := []string{service.PriorityLow, service.PriorityMedium, service.PriorityHigh}[rng.Intn(3)]
				if _, err := points.RecordTaskCompletion(employee.ID, priority); err != nil {
					return stats, fmt.Errorf("record task for %s: %w", employee.Username, err)
				}
				stats.Tasks++
			}
		}
	}

	return stats, nil
}

// 创建测试员工，已存在的用户名直接复用
func createTestEmployees(gdb *gorm.DB) ([]db.Employee, error) {
	svc := service.NewEmployeeService(gdb)
	result := make([]db.Employee, 0, len(demoEmployees))

	for _, seed := range demoEmployees {
		var existing db.Employee
		if err := gdb.Where("username = ?", seed.username).Limit(1).Find(&existing).Error; err != nil {
			return nil, err
		}
		if existing.ID != 0 {
			result = append(result, existing)
			continue
		}

		employee, err := svc.Create(service.EmployeeInput{
			Username:   seed.username,
			Password:   "demo123",
			Name:       seed.name,
			Role:       seed.role,
			Department: seed.department,
		})
		if err != nil {
			return nil, fmt.Errorf("create employee %s: %w", seed.username, err)
		}
		result = append(result, *employee)
	}

	fmt.Println("✅ 测试员工创建完成")
	return result, nil
}
