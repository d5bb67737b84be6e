package app

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/jury-scheduler-api/internal/repository"
	"github.com/noah-isme/jury-scheduler-api/internal/service"
	"github.com/noah-isme/jury-scheduler-api/pkg/cache"
	"github.com/noah-isme/jury-scheduler-api/pkg/config"
	"github.com/noah-isme/jury-scheduler-api/pkg/database"
)

// Runtime holds the shared infrastructure of the API and CLI processes.
type Runtime struct {
	Config    *config.Config
	Logger    *zap.Logger
	DB        *sqlx.DB
	Redis     *redis.Client
	Metrics   *service.MetricsService
	Cache     *service.CacheService
	Scheduler *service.JurySchedulerService
	Validator *validator.Validate
}

// New opens the database and optional Redis connection and wires the jury scheduler.
func New(cfg *config.Config, logger *zap.Logger) (*Runtime, error) {
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	rt, err := wire(cfg, logger, db, redisClient)
	if err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

func wire(cfg *config.Config, logger *zap.Logger, db *sqlx.DB, redisClient *redis.Client) (*Runtime, error) {
	rt := &Runtime{
		Config:    cfg,
		Logger:    logger,
		DB:        db,
		Redis:     redisClient,
		Metrics:   service.NewMetricsService(),
		Validator: validator.New(),
	}
	rt.Cache = service.NewCacheService(
		repository.NewCacheRepository(redisClient, logger),
		rt.Metrics,
		cfg.Jury.SummaryTTL,
		logger,
		redisClient != nil,
	)

	scheduler, err := service.NewJurySchedulerService(
		service.JurySchedulerRepositories{
			Departments:  repository.NewDepartmentRepository(db),
			Projects:     repository.NewProjectRepository(db),
			Faculty:      repository.NewFacultyRepository(db),
			Rooms:        repository.NewRoomRepository(db),
			Availability: repository.NewAvailabilityRepository(db),
			Juries:       repository.NewJuryRepository(db),
		},
		rt.Cache,
		rt.Metrics,
		rt.Validator,
		logger.Named("jury-scheduler"),
		service.JurySchedulerConfig{
			DayStart:      cfg.Jury.DayStart,
			DayEnd:        cfg.Jury.DayEnd,
			SlotMinutes:   cfg.Jury.SlotMinutes,
			LookaheadDays: cfg.Jury.LookaheadDays,
			LockTTL:       cfg.Jury.LockTTL,
			SummaryTTL:    cfg.Jury.SummaryTTL,
		},
	)
	if err != nil {
		return rt, err
	}
	rt.Scheduler = scheduler
	return rt, nil
}

// NewRunService builds the asynchronous runner on top of the scheduler.
func (rt *Runtime) NewRunService() *service.JuryRunService {
	return service.NewJuryRunService(rt.Scheduler, rt.Validator, rt.Logger.Named("jury-runs"), service.JuryRunConfig{
		TTL:        rt.Config.Jury.RunTTL,
		MaxRetries: rt.Config.Jury.WorkerRetries,
	})
}

// Close releases connections.
func (rt *Runtime) Close() {
	if rt == nil {
		return
	}
	if rt.Redis != nil {
		_ = rt.Redis.Close()
	}
	if rt.DB != nil {
		_ = rt.DB.Close()
	}
}
