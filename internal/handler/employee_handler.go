package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/teampulse/internal/db"
	"github.com/teampulse/internal/service"
)

type employeePayload struct {
	Username   string `json:"username" binding:"required"`
	Password   string `json:"password" binding:"required"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

// ListEmployees 返回员工列表
func (a *API) ListEmployees(c *gin.Context) {
	employees, err := a.employees.List(service.EmployeeFilter{
		Role:       c.Query("role"),
		Department: c.Query("department"),
		Status:     c.Query("status"),
		Search:     c.Query("search"),
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	items := make([]gin.H, 0, len(employees))
	for _, employee := range employees {
		items = append(items, employeeToPayload(employee))
	}
	c.JSON(http.StatusOK, gin.H{"employees": items})
}

// CreateEmployee 新建员工账号
func (a *API) CreateEmployee(c *gin.Context) {
	var payload employeePayload
	if !bindJSON(c, &payload, "invalid employee payload") {
		return
	}

	// 仅管理员可创建经理与管理员账号
	principal := currentPrincipal(c)
	if role := strings.ToLower(strings.TrimSpace(payload.Role)); role != "" && role != db.RoleEmployee && !principal.IsAdmin() {
		handleServiceError(c, service.RequireAdmin(principal))
		return
	}

	employee, err := a.employees.Create(service.EmployeeInput{
		Username:   payload.Username,
		Password:   payload.Password,
		Name:       payload.Name,
		Role:       payload.Role,
		Department: payload.Department,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"employee": employeeToPayload(*employee)})
}
