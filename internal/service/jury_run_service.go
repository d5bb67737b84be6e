package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/jury-scheduler-api/internal/dto"
	"github.com/noah-isme/jury-scheduler-api/pkg/jobs"
	appErrors "github.com/noah-isme/jury-scheduler-api/pkg/errors"
)

const juryRunJobType = "jury.schedule"

type juryScheduler interface {
	Schedule(ctx context.Context, req dto.ScheduleJuriesRequest) (*dto.ScheduleJuriesResponse, error)
}

// JuryRunConfig governs asynchronous scheduling runs.
type JuryRunConfig struct {
	TTL        time.Duration
	MaxRetries int
	RetryDelay time.Duration
	BufferSize int
}

// JuryRunService executes scheduling runs on a single background worker so runs never overlap.
type JuryRunService struct {
	scheduler juryScheduler
	queue     *jobs.Queue
	store     *juryRunStore
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewJuryRunService wires the run queue. Call Start before enqueueing.
func NewJuryRunService(scheduler juryScheduler, validate *validator.Validate, logger *zap.Logger, cfg JuryRunConfig) *JuryRunService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 5 * time.Second
	}
	svc := &JuryRunService{
		scheduler: scheduler,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
	svc.store = newJuryRunStore(cfg.TTL, svc.clock)
	svc.queue = jobs.NewQueue("jury-runs", svc.handle, jobs.QueueConfig{
		Workers:     1,
		BufferSize:  cfg.BufferSize,
		MaxRetries:  cfg.MaxRetries,
		RetryDelay:  cfg.RetryDelay,
		Logger:      logger,
		OnExhausted: svc.exhausted,
	})
	return svc
}

func (s *JuryRunService) clock() time.Time {
	return s.now()
}

// Start launches the worker.
func (s *JuryRunService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the worker.
func (s *JuryRunService) Stop() {
	s.queue.Stop()
}

// Enqueue records a queued run and hands it to the worker.
func (s *JuryRunService) Enqueue(_ context.Context, req dto.ScheduleJuriesRequest) (*dto.JuryRunResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid jury scheduling payload")
	}
	run := dto.JuryRunResponse{
		RunID:      uuid.NewString(),
		Status:     dto.JuryRunQueued,
		Request:    req,
		EnqueuedAt: s.now().UTC(),
	}
	s.store.Save(run)

	if err := s.queue.Enqueue(jobs.Job{ID: run.RunID, Type: juryRunJobType, Payload: req, Enqueued: run.EnqueuedAt}); err != nil {
		s.store.Delete(run.RunID)
		return nil, appErrors.Wrap(err, appErrors.ErrPreconditionFailed.Code, appErrors.ErrPreconditionFailed.Status, "jury run queue unavailable")
	}
	s.logger.Info("jury run queued", zap.String("run_id", run.RunID), zap.String("department_id", req.DepartmentID))
	return &run, nil
}

// Get returns the state of a run.
func (s *JuryRunService) Get(_ context.Context, id string) (*dto.JuryRunResponse, error) {
	run, ok := s.store.Get(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "jury run not found")
	}
	return &run, nil
}

func (s *JuryRunService) handle(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(dto.ScheduleJuriesRequest)
	if !ok {
		s.finish(job.ID, nil, fmt.Errorf("unexpected payload %T", job.Payload))
		return nil
	}
	started := s.now().UTC()
	s.store.Update(job.ID, func(run *dto.JuryRunResponse) {
		run.Status = dto.JuryRunRunning
		run.StartedAt = &started
		run.Error = ""
	})

	resp, err := s.scheduler.Schedule(ctx, req)
	if err != nil && retryableRunError(err) {
		s.store.Update(job.ID, func(run *dto.JuryRunResponse) {
			run.Status = dto.JuryRunQueued
			run.Error = err.Error()
		})
		return err
	}
	s.finish(job.ID, resp, err)
	return nil
}

func (s *JuryRunService) exhausted(job jobs.Job, err error) {
	s.finish(job.ID, nil, err)
}

func (s *JuryRunService) finish(id string, resp *dto.ScheduleJuriesResponse, err error) {
	completed := s.now().UTC()
	s.store.Update(id, func(run *dto.JuryRunResponse) {
		run.Result = resp
		run.CompletedAt = &completed
		if err != nil {
			run.Status = dto.JuryRunFailed
			run.Error = err.Error()
			return
		}
		run.Status = dto.JuryRunSucceeded
		run.Error = ""
	})
	if err != nil {
		s.logger.Warn("jury run failed", zap.String("run_id", id), zap.Error(err))
		return
	}
	s.logger.Info("jury run finished", zap.String("run_id", id))
}

// retryableRunError reports whether a run failed before writing anything.
func retryableRunError(err error) bool {
	var appErr *appErrors.Error
	if !errors.As(err, &appErr) {
		return true
	}
	switch appErr.Code {
	case appErrors.ErrValidation.Code, appErrors.ErrNotFound.Code, appErrors.ErrPersistence.Code:
		return false
	default:
		return true
	}
}

type juryRunStore struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	items map[string]dto.JuryRunResponse
}

func newJuryRunStore(ttl time.Duration, now func() time.Time) *juryRunStore {
	return &juryRunStore{ttl: ttl, now: now, items: make(map[string]dto.JuryRunResponse)}
}

func (s *juryRunStore) Save(run dto.JuryRunResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[run.RunID] = run
}

func (s *juryRunStore) Update(id string, mutate func(*dto.JuryRunResponse)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.items[id]
	if !ok {
		return
	}
	mutate(&run)
	s.items[id] = run
}

func (s *juryRunStore) Get(id string) (dto.JuryRunResponse, bool) {
	s.mu.RLock()
	run, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return dto.JuryRunResponse{}, false
	}
	if run.CompletedAt != nil && s.now().Sub(*run.CompletedAt) > s.ttl {
		s.Delete(id)
		return dto.JuryRunResponse{}, false
	}
	return run, true
}

func (s *juryRunStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}
