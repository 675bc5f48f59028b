package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/teampulse/internal/db"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// EmployeeService 负责员工账号的增查与登录校验
type EmployeeService struct {
	db *gorm.DB
}

// EmployeeFilter 描述列表过滤条件
type EmployeeFilter struct {
	Role       string
	Department string
	Status     string
	Search     string
}

// EmployeeInput 定义创建员工时可配置字段
type EmployeeInput struct {
	Username   string
	Password   string
	Name       string
	Role       string
	Department string
}

// NewEmployeeService 构造 EmployeeService
func NewEmployeeService(gdb *gorm.DB) *EmployeeService {
	return &EmployeeService{db: gdb}
}

// Create 新建员工，密码以 bcrypt 存储
func (s *EmployeeService) Create(input EmployeeInput) (*db.Employee, error) {
	username := strings.TrimSpace(input.Username)
	name := strings.TrimSpace(input.Name)
	if username == "" {
		return nil, validationErrorf("username is required")
	}
	if name == "" {
		name = username
	}
	if len(strings.TrimSpace(input.Password)) < 6 {
		return nil, validationErrorf("password must be at least 6 characters")
	}

	role, err := normalizeRole(input.Role)
	if err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(input.Password)), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	employee := db.Employee{
		Username:   username,
		Password:   string(hashed),
		Name:       name,
		Role:       role,
		Department: strings.TrimSpace(input.Department),
		Status:     db.EmployeeActive,
	}

	if err := s.db.Create(&employee).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, validationErrorf("username %q is already taken", username)
		}
		return nil, fmt.Errorf("create employee: %w", err)
	}
	return &employee, nil
}

// Get 根据 ID 获取员工
func (s *EmployeeService) Get(id uint) (*db.Employee, error) {
	var employee db.Employee
	if err := s.db.First(&employee, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("employee %d", id)
		}
		return nil, fmt.Errorf("get employee: %w", err)
	}
	return &employee, nil
}

// List 返回员工集合，支持基本筛选
func (s *EmployeeService) List(filter EmployeeFilter) ([]db.Employee, error) {
	var employees []db.Employee

	query := s.db.Model(&db.Employee{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Department != "" {
		query = query.Where("department = ?", filter.Department)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		like := fmt.Sprintf("%%%s%%", strings.TrimSpace(filter.Search))
		query = query.Where("name LIKE ? OR username LIKE ?", like, like)
	}

	if err := query.Order("name ASC, id ASC").Find(&employees).Error; err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	return employees, nil
}

// Authenticate 校验用户名与密码，停用账号不可登录
func (s *EmployeeService) Authenticate(username, password string) (*db.Employee, error) {
	var employee db.Employee
	if err := s.db.Where("username = ?", strings.TrimSpace(username)).First(&employee).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find employee: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(employee.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if employee.Status == db.EmployeeInactive {
		return nil, ErrInvalidCredentials
	}
	return &employee, nil
}

func normalizeRole(role string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "", db.RoleEmployee:
		return db.RoleEmployee, nil
	case db.RoleManager:
		return db.RoleManager, nil
	case db.RoleAdmin:
		return db.RoleAdmin, nil
	default:
		return "", validationErrorf("unsupported role %q", role)
	}
}

func ensureEmployee(tx *gorm.DB, employeeID uint) (*db.Employee, error) {
	if employeeID == 0 {
		return nil, validationErrorf("employee id is required")
	}

	var employee db.Employee
	if err := tx.First(&employee, employeeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("employee %d", employeeID)
		}
		return nil, fmt.Errorf("find employee: %w", err)
	}
	return &employee, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}
