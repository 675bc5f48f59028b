package router

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/teampulse/internal/config"
	"github.com/teampulse/internal/db"
	"github.com/teampulse/internal/handler"
)

const sessionName = "teampulse_session"

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(cfg config.AppConfig) *gin.Engine {
	r := gin.Default()

	// 配置会话中间件
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
	})
	r.Use(sessions.Sessions(sessionName, store))

	api := handler.NewAPI(db.DB, cfg.Rules, cfg.Location)
	Register(r, api)
	return r
}

// Register 挂载全部路由，测试中可直接复用
func Register(r *gin.Engine, api *handler.API) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})
	r.GET("/healthz", api.HealthCheck)

	public := r.Group("/api")
	{
		public.POST("/login", api.Login)
		public.POST("/logout", api.Logout)
	}

	// 需要登录的路由
	auth := r.Group("/api")
	auth.Use(handler.AuthRequired())
	{
		auth.GET("/me", api.Me)

		auth.POST("/attendance", api.MarkAttendance)
		auth.GET("/attendance/today", api.TodayAttendance)
		auth.GET("/attendance/history", api.AttendanceHistory)
		auth.POST("/attendance/checkout", api.CheckOut)
		auth.PUT("/attendance/:id", api.UpdateAttendance)

		auth.POST("/updates", api.SubmitUpdate)
		auth.GET("/updates", api.ListUpdates)
		auth.GET("/updates/:id", api.GetUpdate)
		auth.PUT("/updates/:id", api.EditUpdate)

		auth.POST("/tasks/complete", api.CompleteTask)

		auth.GET("/points/summary", api.PointsSummary)
		auth.GET("/points/history", api.PointsHistory)
		auth.GET("/points/leaderboard", api.Leaderboard)

		auth.GET("/reports/weekly", api.WeeklyReport)
		auth.GET("/reports/monthly", api.MonthlyReport)

		manager := auth.Group("")
		manager.Use(handler.ManagerRequired())
		{
			manager.GET("/projects", api.ListProjects)
			manager.POST("/projects", api.CreateProject)
			manager.POST("/projects/:id/complete", api.CompleteProject)
			manager.POST("/milestones", api.RecordMilestone)
			manager.GET("/employees", api.ListEmployees)
			manager.POST("/employees", api.CreateEmployee)
		}

		admin := auth.Group("")
		admin.Use(handler.AdminRequired())
		{
			admin.POST("/penalties", api.ApplyPenalty)
			admin.GET("/rules", api.GetRuleSettings)
			admin.PUT("/rules", api.UpdateRuleSettings)
		}
	}
}
