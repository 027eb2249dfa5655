package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/handler"
	"github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
	"github.com/noah-isme/sma-timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-timetable-api/pkg/middleware/requestid"
)

type handlers struct {
	schedules *handler.ScheduleHandler
	groups    *handler.LectureGroupHandler
	timetable *handler.TimetableHandler
	audits    *handler.AuditHandler
	exports   *handler.ExportHandler
	setup     *handler.SetupHandler
	metrics   *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, metricsSvc *service.MetricsService, auth *service.AuthService, h handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", h.metrics.Health)
	r.GET("/metrics", h.metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(auth), middleware.ResponseMeta())

	read := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher)
	write := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin)

	setup := api.Group("/setup")
	setup.GET("/configuration", read, h.setup.GetConfiguration)
	setup.PUT("/configuration", write, h.setup.UpsertConfiguration)
	setup.GET("/teachers", read, h.setup.ListTeachers)
	setup.POST("/teachers", write, h.setup.CreateTeacher)
	setup.GET("/facilities", read, h.setup.ListFacilities)
	setup.POST("/facilities", write, h.setup.CreateFacility)
	setup.GET("/subjects", read, h.setup.ListSubjects)
	setup.POST("/subjects", write, h.setup.CreateSubject)
	setup.GET("/time-offs", read, h.setup.ListTimeOffs)
	setup.PUT("/time-offs", write, h.setup.ReplaceTimeOffs)

	schedules := api.Group("/schedules")
	schedules.POST("/metadata", write, h.schedules.Create)
	schedules.GET("/metadata", read, h.schedules.List)
	schedules.GET("/metadata/:id", read, h.schedules.Get)
	schedules.POST("/metadata/:id/activate", write, h.schedules.Activate)
	schedules.POST("/metadata/:id/publish", write, h.schedules.Publish)
	schedules.DELETE("/metadata/:id", write, h.schedules.Delete)
	schedules.GET("/active", read, h.schedules.Active)
	schedules.POST("/validate-check", read, h.timetable.ValidateCheck)

	schedules.POST("/:id/groups", write, h.groups.Create)
	schedules.POST("/:id/groups/batch", write, h.groups.BatchCreate)
	schedules.GET("/:id/groups", read, h.groups.List)
	schedules.DELETE("/:id/groups/:groupId", write, h.groups.Delete)

	schedules.POST("/:id/blocks", write, h.timetable.CreateBlock)
	schedules.GET("/:id/blocks", read, h.timetable.ListBlocks)
	schedules.DELETE("/:id/blocks/:blockId", write, h.timetable.DeleteBlock)
	schedules.GET("/:id/validate", read, h.timetable.Validate)
	schedules.POST("/:id/reset", write, h.timetable.Reset)
	if cfg.Scheduler.Enabled {
		schedules.POST("/:id/auto-schedule", write, h.timetable.AutoSchedule)
	}

	schedules.GET("/:id/audits", read, h.audits.List)
	schedules.POST("/:id/audits", write, h.audits.Run)
	schedules.GET("/:id/export", read, h.exports.Export)

	return r
}
