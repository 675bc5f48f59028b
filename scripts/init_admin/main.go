package main

import (
	"fmt"
	"log"

	"github.com/teampulse/internal/config"
	"github.com/teampulse/internal/db"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg := config.Load()

	// 初始化数据库
	if err := db.Init(cfg.DatabaseDriver, cfg.DatabasePath, cfg.DatabaseDSN); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	// 检查是否已存在员工
	var count int64
	db.DB.Model(&db.Employee{}).Count(&count)
	if count > 0 {
		fmt.Println("员工已存在，无需初始化")
		return
	}

	// 创建默认管理员
	password := "admin123" // 默认密码
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("密码加密失败:", err)
	}

	admin := db.Employee{
		Username: "admin",
		Password: string(hashedPassword),
		Name:     "Administrator",
		Role:     db.RoleAdmin,
		Status:   db.EmployeeActive,
	}

	if err := db.DB.Create(&admin).Error; err != nil {
		log.Fatal("创建管理员失败:", err)
	}

	fmt.Println("默认管理员创建成功")
	fmt.Println("用户名: admin")
	fmt.Println("密码: admin123")
}
