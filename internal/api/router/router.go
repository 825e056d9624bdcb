package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/edbrsk/uoc-planner/config"
	"github.com/edbrsk/uoc-planner/internal/api/handler"
	"github.com/edbrsk/uoc-planner/internal/api/middleware"
	"github.com/edbrsk/uoc-planner/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 可为 nil（未启用 Redis 时导入不限流）
func Setup(cfg *config.Config, h *handler.Handler, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "storage": cfg.Storage.Mode})
	})

	importLimit := middleware.RateLimit(rdb, cfg.Import.RateLimit, time.Duration(cfg.Import.RateWindow)*time.Second)
	bodyLimit := middleware.BodyLimit(cfg.Import.MaxBodyBytes)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.Owner(cfg.Storage.Mode, cfg.Storage.LocalUser))
	{
		// 导入（先预览后提交）
		imports := v1.Group("/import")
		imports.Use(bodyLimit)
		{
			imports.POST("/preview", h.Transfer.PreviewImport)
			imports.POST("", importLimit, h.Transfer.Import)
		}

		// 学期模块
		semesters := v1.Group("/semesters")
		{
			semesters.GET("", h.Semester.ListSemesters)
			semesters.POST("", h.Semester.CreateSemester)
			semesters.GET("/last", h.Semester.GetLastSemester)
			semesters.PUT("/last", h.Semester.SetLastSemester)
			semesters.GET("/:id", h.Semester.GetSemester)
			semesters.PUT("/:id", h.Semester.UpdateSemester)
			semesters.DELETE("/:id", h.Semester.DeleteSemester)
			semesters.GET("/:id/courses", h.Semester.ListCourses)

			// 周次
			semesters.PUT("/:id/weeks/:num", h.Week.SaveWeek)
			semesters.DELETE("/:id/weeks/:num", h.Week.DeleteWeek)

			// 任务
			semesters.GET("/:id/tasks", h.Task.ListTasks)
			semesters.POST("/:id/tasks", h.Task.CreateTask)
			semesters.POST("/:id/tasks/reset", h.Task.ResetTasks)
			semesters.PUT("/:id/tasks/:taskId", h.Task.UpdateTask)
			semesters.PATCH("/:id/tasks/:taskId/done", h.Task.ToggleTask)
			semesters.DELETE("/:id/tasks/:taskId", h.Task.DeleteTask)

			// 截止日期
			semesters.GET("/:id/deadlines", h.Deadline.ListDeadlines)
			semesters.POST("/:id/deadlines", h.Deadline.CreateDeadline)
			semesters.PUT("/:id/deadlines/:deadlineId", h.Deadline.UpdateDeadline)
			semesters.DELETE("/:id/deadlines/:deadlineId", h.Deadline.DeleteDeadline)

			// 笔记
			semesters.GET("/:id/notes", h.Note.ListNotes)
			semesters.POST("/:id/notes", h.Note.CreateNote)
			semesters.PUT("/:id/notes/:noteId", h.Note.UpdateNote)
			semesters.DELETE("/:id/notes/:noteId", h.Note.DeleteNote)

			// 路线图与导出
			semesters.GET("/:id/roadmap", h.Transfer.GetRoadmap)
			semesters.GET("/:id/export", h.Transfer.Export)
			semesters.GET("/:id/export.xlsx", h.Export.ExportSpreadsheet)
			semesters.GET("/:id/calendar.ics", h.Export.ExportCalendar)
			semesters.POST("/:id/calendar/import", bodyLimit, h.Export.ImportCalendar)
		}
	}

	return r
}
