package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/jury-scheduler-api/internal/dto"
	"github.com/noah-isme/jury-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/jury-scheduler-api/pkg/errors"
)

type juryDepartmentReader interface {
	FindByID(ctx context.Context, id string) (*models.Department, error)
}

type juryProjectStore interface {
	ListPendingByDepartment(ctx context.Context, departmentID string) ([]models.Project, error)
	UpdateScheduleStatus(ctx context.Context, id string, status models.ProjectStatus, date time.Time, location string) error
}

type juryFacultyStore interface {
	ListByDepartment(ctx context.Context, departmentID string, countsBefore time.Time) ([]models.Faculty, error)
	AppendParticipation(ctx context.Context, facultyID, juryID string) error
}

type juryRoomReader interface {
	List(ctx context.Context) ([]models.Room, error)
}

type juryAvailabilityReader interface {
	ListByFaculty(ctx context.Context, facultyIDs []string, start, end time.Time) ([]models.Availability, error)
}

type juryStore interface {
	ListInWindow(ctx context.Context, start, end time.Time) ([]models.Jury, error)
	BulkCreate(ctx context.Context, drafts []models.JuryDraft) ([]models.Jury, error)
}

type juryRunCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Lock(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key, owner string) error
}

type juryRunMetrics interface {
	ObserveJuryRun(outcome string, scheduled, failed int, duration time.Duration)
}

// JurySchedulerConfig governs the slot template, conflict lookahead and run bookkeeping.
type JurySchedulerConfig struct {
	DayStart      string
	DayEnd        string
	SlotMinutes   int
	LookaheadDays int
	LockTTL       time.Duration
	SummaryTTL    time.Duration
}

// JurySchedulerRepositories groups the collaborators read and written by a run.
type JurySchedulerRepositories struct {
	Departments  juryDepartmentReader
	Projects     juryProjectStore
	Faculty      juryFacultyStore
	Rooms        juryRoomReader
	Availability juryAvailabilityReader
	Juries       juryStore
}

// JurySchedulerService assigns defense juries to pending projects of a department.
type JurySchedulerService struct {
	departments  juryDepartmentReader
	projects     juryProjectStore
	faculty      juryFacultyStore
	rooms        juryRoomReader
	availability juryAvailabilityReader
	juries       juryStore
	cache        juryRunCache
	metrics      juryRunMetrics
	validator    *validator.Validate
	logger       *zap.Logger
	cfg          JurySchedulerConfig
	template     dayTemplate
	now          func() time.Time
}

// NewJurySchedulerService wires scheduler dependencies. cache and metrics are optional.
func NewJurySchedulerService(
	repos JurySchedulerRepositories,
	cache juryRunCache,
	metrics juryRunMetrics,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg JurySchedulerConfig,
) (*JurySchedulerService, error) {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DayStart == "" {
		cfg.DayStart = "08:00"
	}
	if cfg.DayEnd == "" {
		cfg.DayEnd = "17:30"
	}
	if cfg.SlotMinutes <= 0 {
		cfg.SlotMinutes = 30
	}
	if cfg.LookaheadDays <= 0 {
		cfg.LookaheadDays = 14
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Minute
	}
	tpl, err := newDayTemplate(cfg.DayStart, cfg.DayEnd, cfg.SlotMinutes)
	if err != nil {
		return nil, fmt.Errorf("jury slot template: %w", err)
	}
	return &JurySchedulerService{
		departments:  repos.Departments,
		projects:     repos.Projects,
		faculty:      repos.Faculty,
		rooms:        repos.Rooms,
		availability: repos.Availability,
		juries:       repos.Juries,
		cache:        cache,
		metrics:      metrics,
		validator:    validate,
		logger:       logger,
		cfg:          cfg,
		template:     tpl,
		now:          time.Now,
	}, nil
}

// Schedule runs one full allocation for a department. Per-project failures are part of the
// returned summary. A persistence failure returns the summary together with an ErrPersistence error.
func (s *JurySchedulerService) Schedule(ctx context.Context, req dto.ScheduleJuriesRequest) (*dto.ScheduleJuriesResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid jury scheduling payload")
	}
	startDate, err := time.Parse(juryDateLayout, req.StartDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "startDate must be formatted as YYYY-MM-DD")
	}
	if _, err := s.departments.FindByID(ctx, req.DepartmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}

	lockKey := juryLockKey(req.DepartmentID)
	owner := uuid.NewString()
	if s.cache != nil {
		acquired, err := s.cache.Lock(ctx, lockKey, owner, s.cfg.LockTTL)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire scheduling lock")
		}
		if !acquired {
			return nil, appErrors.Clone(appErrors.ErrLocked, fmt.Sprintf("a scheduling run for department %s is already in progress", req.DepartmentID))
		}
		defer func() {
			_ = s.cache.Unlock(context.WithoutCancel(ctx), lockKey, owner)
		}()
	}

	started := s.now()
	resp, outcome, err := s.run(ctx, req, startDate)
	if s.metrics != nil {
		scheduled, failed := 0, 0
		if resp != nil {
			scheduled, failed = resp.Scheduled, resp.Failed
		}
		s.metrics.ObserveJuryRun(outcome, scheduled, failed, s.now().Sub(started))
	}
	if resp != nil && !resp.DryRun && !resp.NoWork {
		s.rememberSummary(ctx, resp)
	}
	return resp, err
}

func (s *JurySchedulerService) run(ctx context.Context, req dto.ScheduleJuriesRequest, startDate time.Time) (*dto.ScheduleJuriesResponse, string, error) {
	logger := s.logger.With(zap.String("department_id", req.DepartmentID), zap.String("start_date", req.StartDate), zap.Bool("dry_run", req.DryRun))

	projects, err := s.projects.ListPendingByDepartment(ctx, req.DepartmentID)
	if err != nil {
		return nil, JuryOutcomeError, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pending projects")
	}
	resp := &dto.ScheduleJuriesResponse{
		DepartmentID: req.DepartmentID,
		StartDate:    req.StartDate,
		DryRun:       req.DryRun,
		Total:        len(projects),
		Errors:       []string{},
		Juries:       []dto.JuryAssignment{},
	}
	if len(projects) == 0 {
		logger.Info("no pending projects to schedule")
		resp.NoWork = true
		resp.CompletedAt = s.now().UTC()
		return resp, JuryOutcomeNoWork, nil
	}

	slots, err := buildCandidateSlots(startDate, len(projects), s.template)
	if err != nil {
		return nil, JuryOutcomeError, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build candidate calendar")
	}
	window := s.conflictWindow(slots)
	resp.Window = &dto.ScheduleWindow{
		FirstDate:      slots[0].Date.Format(juryDateLayout),
		LastDate:       slots[len(slots)-1].Date.Format(juryDateLayout),
		CandidateSlots: len(slots),
		ConflictsFrom:  window.from,
		ConflictsUntil: window.until,
	}

	idx, err := s.buildIndex(ctx, req.DepartmentID, projects, slots, window)
	if err != nil {
		return nil, JuryOutcomeError, err
	}

	result := allocateJuries(projects, slots, idx)
	resp.Scheduled = len(result.Drafts)
	resp.Failed = len(result.Failures)
	resp.Errors = result.Failures
	logger.Info("jury allocation finished",
		zap.Int("total", resp.Total),
		zap.Int("scheduled", resp.Scheduled),
		zap.Int("failed", resp.Failed),
		zap.Int("candidate_slots", len(slots)))

	if req.DryRun {
		for _, draft := range result.Drafts {
			resp.Juries = append(resp.Juries, dto.NewJuryAssignment(draft, ""))
		}
		resp.CompletedAt = s.now().UTC()
		return resp, JuryOutcomeDryRun, nil
	}

	persistErr := s.persist(ctx, result.Drafts, resp)
	resp.CompletedAt = s.now().UTC()
	if persistErr != nil {
		logger.Error("jury persistence incomplete", zap.Strings("persistence_errors", resp.PersistenceErrors), zap.Error(persistErr))
		return resp, JuryOutcomePersistenceFailure, appErrors.Wrap(persistErr, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, appErrors.ErrPersistence.Message)
	}
	return resp, JuryOutcomeCompleted, nil
}

type conflictWindow struct {
	from  time.Time
	until time.Time
}

// conflictWindow spans both the lookahead from today and the whole candidate range.
func (s *JurySchedulerService) conflictWindow(slots []candidateSlot) conflictWindow {
	today := truncateDate(s.now().UTC())
	from := today
	until := today.AddDate(0, 0, s.cfg.LookaheadDays)
	if first := slots[0].Date; first.Before(from) {
		from = first
	}
	if last := slots[len(slots)-1].Date.AddDate(0, 0, 1); last.After(until) {
		until = last
	}
	return conflictWindow{from: from, until: until}
}

func (s *JurySchedulerService) buildIndex(ctx context.Context, departmentID string, projects []models.Project, slots []candidateSlot, window conflictWindow) (*juryIndex, error) {
	roster, err := s.faculty.ListByDepartment(ctx, departmentID, window.from)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty")
	}
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	existing, err := s.juries.ListInWindow(ctx, window.from, window.until)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load existing juries")
	}

	tracked := make([]string, 0, len(roster)+len(projects))
	seen := make(map[string]bool, len(roster)+len(projects))
	for _, member := range roster {
		tracked = append(tracked, member.ID)
		seen[member.ID] = true
	}
	var extra []string
	for _, project := range projects {
		if project.SupervisorID == "" || seen[project.SupervisorID] {
			continue
		}
		seen[project.SupervisorID] = true
		tracked = append(tracked, project.SupervisorID)
		extra = append(extra, project.SupervisorID)
	}

	declarations, err := s.availability.ListByFaculty(ctx, tracked, window.from, window.until)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty availability")
	}

	idx := buildJuryIndex(roster, extra, rooms, existing, declarations, slots)
	if skipped := idx.Skipped(); len(skipped) > 0 {
		s.logger.Warn("unreadable time ranges treated conservatively",
			zap.String("department_id", departmentID),
			zap.Strings("records", skipped))
	}
	return idx, nil
}

// persist writes juries in one transaction, then project statuses and faculty participation
// independently. Individual write failures are collected rather than rolled back. Writes are
// detached from ctx cancellation so committed juries always get their follow-up updates.
func (s *JurySchedulerService) persist(ctx context.Context, drafts []models.JuryDraft, resp *dto.ScheduleJuriesResponse) error {
	if len(drafts) == 0 {
		return nil
	}
	ctx = context.WithoutCancel(ctx)
	created, err := s.juries.BulkCreate(ctx, drafts)
	if err != nil {
		resp.PersistenceErrors = append(resp.PersistenceErrors, fmt.Sprintf("insert juries: %v", err))
		for _, draft := range drafts {
			resp.Juries = append(resp.Juries, dto.NewJuryAssignment(draft, ""))
		}
		return err
	}

	var errs []error
	for i, jury := range created {
		draft := drafts[i]
		resp.Juries = append(resp.Juries, dto.NewJuryAssignment(draft, jury.ID))

		if err := s.projects.UpdateScheduleStatus(ctx, jury.ProjectID, models.ProjectStatusScheduled, jury.Date, jury.Location); err != nil {
			errs = append(errs, err)
			resp.PersistenceErrors = append(resp.PersistenceErrors, fmt.Sprintf("project %s: %v", jury.ProjectID, err))
		}
		for _, member := range jury.Members() {
			if err := s.faculty.AppendParticipation(ctx, member, jury.ID); err != nil {
				errs = append(errs, err)
				resp.PersistenceErrors = append(resp.PersistenceErrors, fmt.Sprintf("faculty %s on jury %s: %v", member, jury.ID, err))
			}
		}
	}
	return errors.Join(errs...)
}

func (s *JurySchedulerService) rememberSummary(ctx context.Context, resp *dto.ScheduleJuriesResponse) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(context.WithoutCancel(ctx), jurySummaryKey(resp.DepartmentID), resp, s.cfg.SummaryTTL); err != nil {
		s.logger.Warn("failed to cache jury summary", zap.String("department_id", resp.DepartmentID), zap.Error(err))
	}
}

// LastSummary returns the most recent persisted run for a department.
func (s *JurySchedulerService) LastSummary(ctx context.Context, departmentID string) (*dto.ScheduleJuriesResponse, error) {
	if departmentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "departmentId is required")
	}
	if s.cache == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no scheduling run recorded for department")
	}
	var resp dto.ScheduleJuriesResponse
	hit, err := s.cache.Get(ctx, jurySummaryKey(departmentID), &resp)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read last jury summary")
	}
	if !hit {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no scheduling run recorded for department")
	}
	return &resp, nil
}

func juryLockKey(departmentID string) string {
	return "jury:lock:" + departmentID
}

func jurySummaryKey(departmentID string) string {
	return "jury:summary:" + departmentID
}
