package service

import (
	"fmt"

	"github.com/teampulse/internal/db"
)

// Principal 描述发起请求的员工身份，显式传入每个需要鉴权的操作
type Principal struct {
	EmployeeID uint
	Role       string
}

// IsAdmin 仅管理员返回 true
func (p Principal) IsAdmin() bool {
	return p.Role == db.RoleAdmin
}

// CanManage 管理员与经理返回 true
func (p Principal) CanManage() bool {
	return p.Role == db.RoleAdmin || p.Role == db.RoleManager
}

// AuthorizeFor 允许本人或具备管理权限的请求者操作 employeeID 的数据
func AuthorizeFor(p Principal, employeeID uint) error {
	if p.EmployeeID == 0 {
		return fmt.Errorf("%w: missing principal", ErrForbidden)
	}
	if p.EmployeeID == employeeID || p.CanManage() {
		return nil
	}
	return fmt.Errorf("%w: cannot act on behalf of employee %d", ErrForbidden, employeeID)
}

// RequireManager 要求管理员或经理
func RequireManager(p Principal) error {
	if !p.CanManage() {
		return fmt.Errorf("%w: manager role required", ErrForbidden)
	}
	return nil
}

// RequireAdmin 要求管理员
func RequireAdmin(p Principal) error {
	if !p.IsAdmin() {
		return fmt.Errorf("%w: admin role required", ErrForbidden)
	}
	return nil
}
