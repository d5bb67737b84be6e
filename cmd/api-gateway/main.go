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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/jury-scheduler-api/api/swagger"
	"github.com/noah-isme/jury-scheduler-api/internal/app"
	"github.com/noah-isme/jury-scheduler-api/internal/handler"
	internalmiddleware "github.com/noah-isme/jury-scheduler-api/internal/middleware"
	"github.com/noah-isme/jury-scheduler-api/internal/models"
	"github.com/noah-isme/jury-scheduler-api/internal/service"
	"github.com/noah-isme/jury-scheduler-api/pkg/config"
	"github.com/noah-isme/jury-scheduler-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/jury-scheduler-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/jury-scheduler-api/pkg/middleware/requestid"
)

// @title Jury Scheduler API
// @version 1.0.0
// @description Automatic scheduling of defense juries for pending student projects
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg, "api")
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	rt, err := app.New(cfg, logr)
	if err != nil {
		logr.Fatal("failed to initialise runtime", zap.Error(err))
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var runs *service.JuryRunService
	if cfg.Jury.AsyncEnabled {
		runs = rt.NewRunService()
		runs.Start(ctx)
		defer runs.Stop()
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(rt.Metrics))

	metricsHandler := handler.NewMetricsHandler(rt.Metrics, rt.DB)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	juryHandler := newJuryHandler(rt.Scheduler, runs, logr)
	tokens := service.NewTokenService(cfg.JWT.Secret)

	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.JWT(tokens))
	api.Use(internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin))
	{
		api.POST("/juries/schedule", juryHandler.Schedule)
		api.POST("/juries/schedule/jobs", juryHandler.Enqueue)
		api.GET("/juries/schedule/jobs/:id", juryHandler.Job)
		api.GET("/juries/schedule/last", juryHandler.Last)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "asyncRuns", cfg.Jury.AsyncEnabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

// newJuryHandler keeps the runner interface nil when async runs are disabled.
func newJuryHandler(scheduler *service.JurySchedulerService, runs *service.JuryRunService, logr *zap.Logger) *handler.JurySchedulerHandler {
	if runs == nil {
		return handler.NewJurySchedulerHandler(scheduler, nil, logr)
	}
	return handler.NewJurySchedulerHandler(scheduler, runs, logr)
}
