package db

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	RoleEmployee = "employee"
	RoleManager  = "manager"
	RoleAdmin    = "admin"

	EmployeeActive   = "active"
	EmployeeInactive = "inactive"
)

// Employee 定义了员工账号模型
type Employee struct {
	gorm.Model
	Username   string `gorm:"unique;not null"`
	Password   string `gorm:"not null"`
	Name       string `gorm:"not null"`
	Role       string `gorm:"size:20;not null;default:employee"`
	Department string
	Status     string `gorm:"size:20;not null;default:active"`
}

// EnsureEmployee 存在性检查：若提供的用户名与密码均非空且不存在对应账号，则创建一个 bcrypt 哈希的管理员。
func EnsureEmployee(username, password string) error {
	trimmedUser := strings.TrimSpace(username)
	trimmedPassword := strings.TrimSpace(password)
	if trimmedUser == "" || trimmedPassword == "" {
		return nil
	}

	if DB == nil {
		return errors.New("database not initialized")
	}

	var existing Employee
	if err := DB.Where("username = ?", trimmedUser).First(&existing).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(trimmedPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		return DB.Create(&Employee{
			Username: trimmedUser,
			Password: string(hashed),
			Name:     trimmedUser,
			Role:     RoleAdmin,
			Status:   EmployeeActive,
		}).Error
	}

	return nil
}
