package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/seatwise/seatwise-api/api/swagger"
	"github.com/seatwise/seatwise-api/internal/handler"
	"github.com/seatwise/seatwise-api/internal/middleware"
	"github.com/seatwise/seatwise-api/internal/repository"
	"github.com/seatwise/seatwise-api/internal/service"
	"github.com/seatwise/seatwise-api/pkg/cache"
	"github.com/seatwise/seatwise-api/pkg/config"
	"github.com/seatwise/seatwise-api/pkg/database"
	"github.com/seatwise/seatwise-api/pkg/logger"
	corsmiddleware "github.com/seatwise/seatwise-api/pkg/middleware/cors"
	reqidmiddleware "github.com/seatwise/seatwise-api/pkg/middleware/requestid"
)

// @title Seatwise API
// @version 0.1.0
// @description Seat subscription administration service
// @BasePath /
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	var catalogCache service.PlanCache
	if cfg.PlanCache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, plan cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			catalogCache = service.NewRedisPlanCache(redisClient)
		}
	}

	seatRepo := repository.NewSeatRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	planRepo := repository.NewPlanRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	metrics := service.NewMetricsService()

	audit := service.NewAuditRecorder(auditRepo, cfg.Audit, logr)
	audit.SetMetrics(metrics)
	audit.Start(context.Background())
	defer audit.Stop()

	assignments := service.NewAssignmentService(seatRepo, studentRepo, audit, nil, logr)
	students := service.NewStudentService(studentRepo, audit, nil, logr)
	plans := service.NewPlanService(planRepo, catalogCache, cfg.PlanCache.TTL, audit, nil, logr)
	payments := service.NewPaymentService(paymentRepo, studentRepo, plans, audit, nil, logr)
	expenses := service.NewExpenseService(expenseRepo, audit, nil, logr)
	dashboard := service.NewDashboardService(seatRepo, studentRepo, paymentRepo, expenseRepo, logr)

	seatHandler := handler.NewSeatHandler(assignments)
	studentHandler := handler.NewStudentHandler(students)
	paymentHandler := handler.NewPaymentHandler(payments)
	planHandler := handler.NewPlanHandler(plans)
	expenseHandler := handler.NewExpenseHandler(expenses)
	dashboardHandler := handler.NewDashboardHandler(dashboard)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.Actor(cfg.Actor.TokenSecret))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/seats", seatHandler.List)
		api.POST("/seats", seatHandler.Create)
		api.GET("/seats/:id", seatHandler.Get)
		api.POST("/seats/:id/assign", seatHandler.Assign)
		api.POST("/seats/:id/deallocate", seatHandler.Deallocate)
		api.PUT("/seats/:id/status", seatHandler.UpdateStatus)

		api.GET("/students", studentHandler.List)
		api.POST("/students", studentHandler.Create)
		api.GET("/students/:id", studentHandler.Get)
		api.PUT("/students/:id", studentHandler.Update)
		api.POST("/students/:id/toggle-active", studentHandler.ToggleActive)

		api.GET("/payments", paymentHandler.List)
		api.POST("/payments", paymentHandler.Create)
		api.GET("/payments/:id", paymentHandler.Get)

		api.GET("/plans", planHandler.List)
		api.POST("/plans", planHandler.Create)
		api.GET("/plans/:id", planHandler.Get)

		api.GET("/expenses", expenseHandler.List)
		api.POST("/expenses", expenseHandler.Create)

		api.GET("/dashboard/summary", dashboardHandler.Summary)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
