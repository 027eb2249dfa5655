package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-timetable-api/api/swagger"
	"github.com/noah-isme/sma-timetable-api/internal/handler"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	"github.com/noah-isme/sma-timetable-api/pkg/cache"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
	"github.com/noah-isme/sma-timetable-api/pkg/database"
	"github.com/noah-isme/sma-timetable-api/pkg/export"
	"github.com/noah-isme/sma-timetable-api/pkg/logger"
)

// @title SMA Timetable API
// @version 1.0.0
// @description School timetable versions, lecture groups, automatic scheduling and constraint checks.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.ValidationCache.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, validation cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
		}
	}

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	schedules := repository.NewScheduleMetadataRepository(db)
	groups := repository.NewLectureGroupRepository(db)
	blocks := repository.NewLectureBlockRepository(db)
	teachers := repository.NewTeacherRepository(db)
	facilities := repository.NewFacilityRepository(db)
	subjects := repository.NewSubjectRepository(db)
	timeOffs := repository.NewTeacherTimeOffRepository(db)
	configs := repository.NewSchoolConfigurationRepository(db)
	audits := repository.NewScheduleAuditRepository(db)

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.ValidationCache.TTL, logr, cacheRepo != nil)

	auditSvc := service.NewAuditService(schedules, blocks, timeOffs, audits, metricsSvc, logr, service.AuditConfig{
		Workers:            cfg.Audit.Workers,
		Retries:            cfg.Audit.Retries,
		DailyLoadThreshold: cfg.Scheduler.DailyLoadThreshold,
	})
	auditSvc.Start(ctx)
	defer auditSvc.Stop()

	authSvc := service.NewAuthService(logr, service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret})
	versionSvc := service.NewScheduleVersionService(schedules, db, cacheSvc, validate, logr)
	locks := service.NewVersionLocks()
	groupSvc := service.NewLectureGroupService(schedules, groups, subjects, teachers, db, cacheSvc, auditSvc, locks, validate, logr)
	timetableSvc := service.NewTimetableService(service.TimetableStores{
		Schedules:  schedules,
		Groups:     groups,
		Blocks:     blocks,
		Subjects:   subjects,
		Facilities: facilities,
		TimeOffs:   timeOffs,
		Configs:    configs,
		Tx:         db,
		Locks:      locks,
	}, cacheSvc, auditSvc, metricsSvc, validate, logr, service.TimetableConfig{
		DailyLoadThreshold: cfg.Scheduler.DailyLoadThreshold,
		MaxSteps:           cfg.Scheduler.MaxSteps,
		SpreadAcrossDays:   cfg.Scheduler.SpreadAcrossDays,
		DefaultDays:        cfg.Scheduler.DefaultDays,
		DefaultPeriods:     cfg.Scheduler.DefaultPeriods,
		ValidationTTL:      cfg.ValidationCache.TTL,
	})
	setupSvc := service.NewSchoolSetupService(service.SchoolSetupStores{
		Configs:    configs,
		Teachers:   teachers,
		Facilities: facilities,
		Subjects:   subjects,
		TimeOffs:   timeOffs,
		Tx:         db,
	}, cacheSvc, validate, logr, cfg.Scheduler.DefaultDays, cfg.Scheduler.DefaultPeriods)
	exportSvc := service.NewExportService(service.ExportStores{
		Schedules:  schedules,
		Blocks:     blocks,
		Teachers:   teachers,
		Subjects:   subjects,
		Facilities: facilities,
	}, timetableSvc.Grid, logr, export.NewCSVExporter(), export.NewLandscapePDFExporter(), export.NewXLSXExporter())

	checks := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error { return cache.Ping(ctx, redisClient) })
	}

	router := newRouter(cfg, logr, metricsSvc, authSvc, handlers{
		schedules: handler.NewScheduleHandler(versionSvc),
		groups:    handler.NewLectureGroupHandler(groupSvc),
		timetable: handler.NewTimetableHandler(timetableSvc),
		audits:    handler.NewAuditHandler(auditSvc),
		exports:   handler.NewExportHandler(exportSvc),
		setup:     handler.NewSetupHandler(setupSvc),
		metrics:   handler.NewMetricsHandler(metricsSvc, checks),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
