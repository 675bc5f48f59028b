package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/teampulse/internal/db"
	"github.com/teampulse/internal/service"
)

type projectPayload struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Deadline    string `json:"deadline"`
}

type projectCompletionPayload struct {
	EmployeeIDs []uint `json:"employee_ids" binding:"required,min=1"`
	WasEarly    *bool  `json:"was_early"`
}

// CreateProject 新建项目
func (a *API) CreateProject(c *gin.Context) {
	var payload projectPayload
	if !bindJSON(c, &payload, "invalid project payload") {
		return
	}

	var deadline *time.Time
	if raw := strings.TrimSpace(payload.Deadline); raw != "" {
		parsed, err := time.ParseInLocation(dateFormat, raw, a.location)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid deadline, expected YYYY-MM-DD")
			return
		}
		// 截止日当天仍算按期
		end := parsed.AddDate(0, 0, 1).Add(-time.Millisecond)
		deadline = &end
	}

	project, err := a.projects.Create(currentPrincipal(c), service.ProjectInput{
		Title:       payload.Title,
		Description: payload.Description,
		Deadline:    deadline,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"project": projectToPayload(*project)})
}

// ListProjects 返回项目列表，可按 ?status= 过滤
func (a *API) ListProjects(c *gin.Context) {
	projects, err := a.projects.List(c.Query("status"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	items := make([]gin.H, 0, len(projects))
	for _, project := range projects {
		items = append(items, projectToPayload(project))
	}
	c.JSON(http.StatusOK, gin.H{"projects": items})
}

// CompleteProject 标记项目完成并为成员结算积分
func (a *API) CompleteProject(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload projectCompletionPayload
	if !bindJSON(c, &payload, "invalid completion payload") {
		return
	}

	completion, err := a.projects.Complete(currentPrincipal(c), id, payload.EmployeeIDs, payload.WasEarly)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	accruals := make(gin.H, len(completion.Accruals))
	for employeeID, accrual := range completion.Accruals {
		accruals[formatUint(employeeID)] = accrualToPayload(accrual)
	}

	c.JSON(http.StatusOK, gin.H{
		"project":   projectToPayload(*completion.Project),
		"was_early": completion.WasEarly,
		"points":    accruals,
	})
}

func projectToPayload(project db.Project) gin.H {
	return gin.H{
		"id":           project.ID,
		"title":        project.Title,
		"description":  project.Description,
		"status":       project.Status,
		"deadline":     formatTimestamp(project.Deadline),
		"completed_at": formatTimestamp(project.CompletedAt),
		"created_at":   formatTimestamp(&project.CreatedAt),
	}
}
