package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/teampulse/internal/db"
	"github.com/teampulse/internal/service"
)

type updatePayload struct {
	Summary     string             `json:"summary" binding:"required"`
	Checklist   []db.ChecklistItem `json:"checklist"`
	NextPlan    string             `json:"next_plan"`
	VideoURL    string             `json:"video_url"`
	HoursWorked *float64           `json:"hours_worked"`
}

type updatePatchPayload struct {
	Summary     *string             `json:"summary"`
	Checklist   *[]db.ChecklistItem `json:"checklist"`
	NextPlan    *string             `json:"next_plan"`
	VideoURL    *string             `json:"video_url"`
	HoursWorked *float64            `json:"hours_worked"`
}

// SubmitUpdate 提交日报，作者为当前登录员工
func (a *API) SubmitUpdate(c *gin.Context) {
	var payload updatePayload
	if !bindJSON(c, &payload, "invalid update payload") {
		return
	}

	principal := currentPrincipal(c)
	update, accrual, err := a.updates.Submit(principal, service.SubmitUpdateInput{
		AuthorID:    principal.EmployeeID,
		Summary:     payload.Summary,
		Checklist:   payload.Checklist,
		NextPlan:    payload.NextPlan,
		VideoURL:    payload.VideoURL,
		HoursWorked: payload.HoursWorked,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"update": a.updateToPayload(*update, principal.EmployeeID),
		"points": accrualToPayload(accrual),
	})
}

// ListUpdates 返回员工最近的日报
func (a *API) ListUpdates(c *gin.Context) {
	principal := currentPrincipal(c)
	authorID, err := resolveEmployeeID(c, principal)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	limit, err := parseIntQuery(c, "limit", 0)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	updates, err := a.updates.ListByAuthor(authorID, limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	items := make([]gin.H, 0, len(updates))
	for _, update := range updates {
		items = append(items, a.updateToPayload(update, principal.EmployeeID))
	}
	c.JSON(http.StatusOK, gin.H{"updates": items})
}

// GetUpdate 返回单条日报及其可编辑状态
func (a *API) GetUpdate(c *gin.Context) {
	principal := currentPrincipal(c)
	update, err := a.updates.Get(c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if err := service.AuthorizeFor(principal, update.AuthorID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"update": a.updateToPayload(*update, principal.EmployeeID)})
}

// EditUpdate 作者在编辑时限内修改日报
func (a *API) EditUpdate(c *gin.Context) {
	var payload updatePatchPayload
	if !bindJSON(c, &payload, "invalid update payload") {
		return
	}

	principal := currentPrincipal(c)
	update, err := a.updates.Edit(principal, c.Param("id"), service.UpdatePatch{
		Summary:     payload.Summary,
		Checklist:   payload.Checklist,
		NextPlan:    payload.NextPlan,
		VideoURL:    payload.VideoURL,
		HoursWorked: payload.HoursWorked,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"update": a.updateToPayload(*update, principal.EmployeeID)})
}

func (a *API) updateToPayload(update db.DailyUpdate, requesterID uint) gin.H {
	checklist := update.Checklist
	if checklist == nil {
		checklist = []db.ChecklistItem{}
	}

	payload := gin.H{
		"id":           update.PublicID,
		"author_id":    update.AuthorID,
		"summary":      update.Summary,
		"checklist":    checklist,
		"next_plan":    update.NextPlan,
		"video_url":    update.VideoURL,
		"hours_worked": update.HoursWorked,
		"edit_count":   update.EditCount,
		"state":        a.updates.State(&update),
		"can_edit":     a.updates.CanEdit(&update, requesterID),
		"created_at":   formatTimestamp(&update.CreatedAt),
		"updated_at":   formatTimestamp(&update.UpdatedAt),
	}

	if rendered, err := renderMarkdown(update.Summary); err == nil {
		payload["summary_html"] = rendered
	} else {
		log.Printf("[updates] render summary %s: %v", update.PublicID, err)
	}
	if rendered, err := renderMarkdown(update.NextPlan); err == nil {
		payload["next_plan_html"] = rendered
	}
	if embed, ok := describeVideoLink(update.VideoURL); ok {
		payload["video"] = embed
	}
	return payload
}
