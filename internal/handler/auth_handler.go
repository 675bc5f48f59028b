package handler

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/teampulse/internal/db"
	"github.com/teampulse/internal/service"
)

const (
	sessionEmployeeKey = "employee_id"
	sessionRoleKey     = "role"
	principalKey       = "__principal"
)

type loginPayload struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login 校验账号后写入会话
func (a *API) Login(c *gin.Context) {
	var payload loginPayload
	if !bindJSON(c, &payload, "invalid login payload") {
		return
	}

	employee, err := a.employees.Authenticate(payload.Username, payload.Password)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(sessionEmployeeKey, employee.ID)
	session.Set(sessionRoleKey, employee.Role)
	if err := session.Save(); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"employee": employeeToPayload(*employee)})
}

// Logout 清除会话
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	c.JSON(http.StatusOK, gin.H{"logged_out": true})
}

// Me 返回当前登录员工
func (a *API) Me(c *gin.Context) {
	principal := currentPrincipal(c)
	employee, err := a.employees.Get(principal.EmployeeID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"employee": employeeToPayload(*employee)})
}

// AuthRequired 从会话恢复 Principal，未登录返回 401
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		employeeID, ok := session.Get(sessionEmployeeKey).(uint)
		role, _ := session.Get(sessionRoleKey).(string)
		if !ok || employeeID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required", "kind": service.KindInvalidCredentials})
			return
		}

		c.Set(principalKey, service.Principal{EmployeeID: employeeID, Role: role})
		c.Next()
	}
}

// ManagerRequired 仅允许经理与管理员
func ManagerRequired() gin.HandlerFunc {
	return requireRole(service.RequireManager)
}

// AdminRequired 仅允许管理员
func AdminRequired() gin.HandlerFunc {
	return requireRole(service.RequireAdmin)
}

func requireRole(check func(service.Principal) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := check(currentPrincipal(c)); err != nil {
			handleServiceError(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

func currentPrincipal(c *gin.Context) service.Principal {
	if value, exists := c.Get(principalKey); exists {
		if principal, ok := value.(service.Principal); ok {
			return principal
		}
	}
	return service.Principal{}
}

// resolveEmployeeID 读取 ?employee_id=，缺省为当前登录员工
func resolveEmployeeID(c *gin.Context, principal service.Principal) (uint, error) {
	ids := parseUintQuerySlice(c.QueryArray("employee_id"))
	if len(ids) == 0 {
		return principal.EmployeeID, nil
	}
	if err := service.AuthorizeFor(principal, ids[0]); err != nil {
		return 0, err
	}
	return ids[0], nil
}

func employeeToPayload(employee db.Employee) gin.H {
	return gin.H{
		"id":         employee.ID,
		"username":   employee.Username,
		"name":       employee.Name,
		"role":       employee.Role,
		"department": employee.Department,
		"status":     employee.Status,
		"created_at": formatTimestamp(&employee.CreatedAt),
	}
}
