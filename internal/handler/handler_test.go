package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/teampulse/internal/config"
	"github.com/teampulse/internal/db"
	"github.com/teampulse/internal/service"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) (*API, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
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

	return NewAPI(db.DB, config.DefaultRules(), time.UTC), func() {
		sqlDB, err := db.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func seedTestEmployee(t *testing.T, username, role string) db.Employee {
	t.Helper()
	employee := db.Employee{Username: username, Password: "hashed", Name: strings.ToUpper(username[:1]) + username[1:], Role: role, Status: db.EmployeeActive}
	if err := db.DB.Create(&employee).Error; err != nil {
		t.Fatalf("failed to seed employee: %v", err)
	}
	return employee
}

// newJSONContext 构造带登录身份的测试上下文
func newJSONContext(method, target string, body any, principal service.Principal) (*gin.Context, *httptest.ResponseRecorder) {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	if principal.EmployeeID != 0 {
		c.Set(principalKey, principal)
	}
	return c, w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return payload
}

func fixedAPIClock(api *API, now time.Time) *time.Time {
	current := now
	api.SetClock(func() time.Time { return current })
	return &current
}

func TestMarkAttendanceDuplicateReturnsConflict(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	fixedAPIClock(api, time.Date(2024, 5, 8, 9, 0, 0, 0, time.UTC))
	employee := seedTestEmployee(t, "alice", db.RoleEmployee)
	principal := service.Principal{EmployeeID: employee.ID, Role: employee.Role}

	c, w := newJSONContext(http.MethodPost, "/api/attendance", gin.H{"status": "Present"}, principal)
	api.MarkAttendance(c)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	points, _ := body["points"].(map[string]any)
	if points["awarded"] != float64(7) {
		t.Fatalf("expected 7 awarded points, got %v", points["awarded"])
	}

	c, w = newJSONContext(http.MethodPost, "/api/attendance", gin.H{"status": "WFH"}, principal)
	api.MarkAttendance(c)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", w.Code)
	}
	if kind := decodeBody(t, w)["kind"]; kind != service.KindDuplicateAttendance {
		t.Fatalf("expected duplicate_attendance kind, got %v", kind)
	}
}

func TestMarkAttendanceRejectsUnknownStatus(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	employee := seedTestEmployee(t, "bob", db.RoleEmployee)
	c, w := newJSONContext(http.MethodPost, "/api/attendance", gin.H{"status": "Sick"}, service.Principal{EmployeeID: employee.ID, Role: employee.Role})
	api.MarkAttendance(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "attendance status") {
		t.Fatalf("expected validator message, got %s", w.Body.String())
	}
}

func TestApplyPenaltyOutOfRange(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	admin := seedTestEmployee(t, "root", db.RoleAdmin)
	target := seedTestEmployee(t, "carl", db.RoleEmployee)
	principal := service.Principal{EmployeeID: admin.ID, Role: admin.Role}

	c, w := newJSONContext(http.MethodPost, "/api/penalties", gin.H{"employee_id": target.ID, "amount": 150, "reason": "late report"}, principal)
	api.ApplyPenalty(c)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", w.Code)
	}
	if kind := decodeBody(t, w)["kind"]; kind != service.KindInvalidAmount {
		t.Fatalf("expected invalid_amount kind, got %v", kind)
	}

	c, w = newJSONContext(http.MethodPost, "/api/penalties", gin.H{"employee_id": target.ID, "amount": 50, "reason": "late report"}, principal)
	api.ApplyPenalty(c)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
}

func TestEditUpdateAfterWindowReportsHours(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	created := time.Date(2024, 5, 8, 9, 0, 0, 0, time.UTC)
	now := fixedAPIClock(api, created)
	author := seedTestEmployee(t, "dina", db.RoleEmployee)
	principal := service.Principal{EmployeeID: author.ID, Role: author.Role}

	c, w := newJSONContext(http.MethodPost, "/api/updates", gin.H{
		"summary":   "**Shipped** the export",
		"video_url": "https://youtu.be/dQw4w9WgXcQ",
	}, principal)
	api.SubmitUpdate(c)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	update, _ := decodeBody(t, w)["update"].(map[string]any)
	publicID, _ := update["id"].(string)
	if update["can_edit"] != true || update["state"] != service.UpdateStateCreated {
		t.Fatalf("unexpected initial state: %v", update)
	}
	if html, _ := update["summary_html"].(string); !strings.Contains(html, "<strong>Shipped</strong>") {
		t.Fatalf("expected rendered summary, got %q", html)
	}
	if video, _ := update["video"].(map[string]any); video["platform"] != "youtube" {
		t.Fatalf("expected youtube embed, got %v", update["video"])
	}

	*now = created.Add(25 * time.Hour)
	c, w = newJSONContext(http.MethodPut, "/api/updates/"+publicID, gin.H{"summary": "late edit"}, principal)
	c.Params = gin.Params{gin.Param{Key: "id", Value: publicID}}
	api.EditUpdate(c)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["kind"] != service.KindEditWindowExpired {
		t.Fatalf("expected edit_window_expired kind, got %v", body["kind"])
	}
	if hours, _ := body["hours_elapsed"].(float64); hours < 24.99 || hours > 25.01 {
		t.Fatalf("expected about 25 hours elapsed, got %v", body["hours_elapsed"])
	}
}

func TestWeeklyReportCSVExport(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	fixedAPIClock(api, time.Date(2024, 5, 10, 18, 0, 0, 0, time.UTC))
	manager := seedTestEmployee(t, "erin", db.RoleManager)

	c, w := newJSONContext(http.MethodGet, "/api/reports/weekly?week_start=2024-05-08&format=csv", nil, service.Principal{EmployeeID: manager.ID, Role: manager.Role})
	api.WeeklyReport(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Content-Disposition"); !strings.Contains(got, "attendance-weekly-2024-05-06.csv") {
		t.Fatalf("unexpected content disposition %q", got)
	}
	if !strings.HasPrefix(w.Body.String(), "employee_id,employee_name,total_days") {
		t.Fatalf("unexpected csv body %q", w.Body.String())
	}
}

func TestProjectRoutesRequireManager(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	employee := seedTestEmployee(t, "finn", db.RoleEmployee)
	c, w := newJSONContext(http.MethodPost, "/api/projects", gin.H{"title": "Apollo"}, service.Principal{EmployeeID: employee.ID, Role: employee.Role})
	api.CreateProject(c)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", w.Code)
	}
}
