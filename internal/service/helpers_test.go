package service

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/teampulse/internal/config"
	"github.com/teampulse/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupEngineTestDB(t *testing.T) func() {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	db.DB = gdb

	return func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

// testClock 可手动拨动的时钟
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func seedEmployee(t *testing.T, name, role string) db.Employee {
	t.Helper()
	employee := db.Employee{
		Username: strings.ToLower(strings.ReplaceAll(name, " ", ".")),
		Password: "not-a-real-hash",
		Name:     name,
		Role:     role,
		Status:   db.EmployeeActive,
	}
	if err := db.DB.Create(&employee).Error; err != nil {
		t.Fatalf("failed to seed employee %s: %v", name, err)
	}
	return employee
}

func seedTransaction(t *testing.T, employeeID uint, points int, createdAt time.Time) {
	t.Helper()
	entry := db.PointsTransaction{
		EmployeeID:  employeeID,
		Points:      points,
		Description: "seed",
		Category:    db.CategoryTask,
		CreatedAt:   createdAt,
	}
	if err := db.DB.Create(&entry).Error; err != nil {
		t.Fatalf("failed to seed transaction: %v", err)
	}
}

func newTestPointsService(clock *testClock) *PointsService {
	svc := NewPointsService(db.DB, StaticRules(config.DefaultRules()))
	svc.SetClock(clock.Now)
	return svc
}

func countTransactions(t *testing.T, employeeID uint) int64 {
	t.Helper()
	var count int64
	if err := db.DB.Model(&db.PointsTransaction{}).Where("employee_id = ?", employeeID).Count(&count).Error; err != nil {
		t.Fatalf("failed to count transactions: %v", err)
	}
	return count
}

func sumTransactions(t *testing.T, employeeID uint) int {
	t.Helper()
	var total int64
	if err := db.DB.Model(&db.PointsTransaction{}).
		Select("COALESCE(SUM(points), 0)").
		Where("employee_id = ?", employeeID).
		Scan(&total).Error; err != nil {
		t.Fatalf("failed to sum transactions: %v", err)
	}
	return int(total)
}

func ptr[T any](v T) *T {
	return &v
}
