package handler

import (
	"time"

	"github.com/teampulse/internal/config"
	"github.com/teampulse/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db         *gorm.DB
	location   *time.Location
	rules      *service.RuleSettingService
	employees  *service.EmployeeService
	points     *service.PointsService
	attendance *service.AttendanceService
	projects   *service.ProjectService
	updates    *service.UpdateService
	reports    *service.ReportService
	clocked    []interface{ SetClock(service.Clock) }
}

// NewAPI constructs a handler set with shared services.
// defaults 为环境配置中的规则，system_settings 中的覆盖项优先
func NewAPI(gdb *gorm.DB, defaults config.Rules, location *time.Location) *API {
	if location == nil {
		location = time.Local
	}
	RegisterValidators()

	rules := service.NewRuleSettingService(gdb, defaults)
	points := service.NewPointsService(gdb, rules)

	api := &API{
		db:         gdb,
		location:   location,
		rules:      rules,
		employees:  service.NewEmployeeService(gdb),
		points:     points,
		attendance: service.NewAttendanceService(gdb, points),
		projects:   service.NewProjectService(gdb, points),
		updates:    service.NewUpdateService(gdb, points),
		reports:    service.NewReportService(gdb, rules),
	}
	api.clocked = []interface{ SetClock(service.Clock) }{
		api.points, api.attendance, api.projects, api.updates, api.reports,
	}
	api.SetClock(time.Now)
	return api
}

// SetClock 统一替换各服务的时间来源，时间按配置时区输出
func (a *API) SetClock(clock service.Clock) {
	if clock == nil {
		clock = time.Now
	}
	loc := a.location
	localized := func() time.Time { return clock().In(loc) }
	for _, svc := range a.clocked {
		svc.SetClock(localized)
	}
}

// DB exposes the underlying gorm instance for health checks.
func (a *API) DB() *gorm.DB {
	return a.db
}
