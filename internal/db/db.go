package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DB 是一个全局的数据库连接实例
var DB *gorm.DB

// Init 初始化数据库连接并执行自动迁移。
// driver 支持 sqlite（默认）与 postgres；sqlite 使用 databasePath，postgres 使用 dsn。
func Init(driver, databasePath, dsn string) error {
	gdb, err := Open(driver, databasePath, dsn)
	if err != nil {
		return err
	}

	if err := Migrate(gdb); err != nil {
		return err
	}

	DB = gdb
	return nil
}

// Open 按驱动建立连接，开启错误转换以便唯一约束冲突映射为 gorm.ErrDuplicatedKey。
func Open(driver, databasePath, dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{TranslateError: true}

	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite":
		path := strings.TrimSpace(databasePath)
		if path == "" {
			path = "teampulse.db"
		}
		if err := ensureParentDir(path); err != nil {
			return nil, err
		}
		return gorm.Open(sqlite.Open(path), cfg)
	case "postgres":
		if strings.TrimSpace(dsn) == "" {
			return nil, errors.New("postgres driver requires DATABASE_DSN")
		}
		return gorm.Open(postgres.Open(dsn), cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Migrate 为全部核心模型创建或更新表结构
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&Employee{},
		&Project{},
		&AttendanceRecord{},
		&PointsTransaction{},
		&DailyUpdate{},
		&SystemSetting{},
	)
}

func ensureParentDir(path string) error {
	if strings.HasPrefix(path, "file:") {
		return nil
	}

	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
