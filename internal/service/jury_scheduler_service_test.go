package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/jury-scheduler-api/internal/dto"
	"github.com/noah-isme/jury-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/jury-scheduler-api/pkg/errors"
)

type departmentReaderStub struct {
	known map[string]bool
	err   error
}

func (s departmentReaderStub) FindByID(_ context.Context, id string) (*models.Department, error) {
	if s.err != nil {
		return nil, s.err
	}
	if !s.known[id] {
		return nil, sql.ErrNoRows
	}
	return &models.Department{ID: id, Name: "Department " + id}, nil
}

type projectUpdate struct {
	ID       string
	Status   models.ProjectStatus
	Date     time.Time
	Location string
}

type projectStoreStub struct {
	mu        sync.Mutex
	pending   []models.Project
	listErr   error
	failFor   map[string]bool
	updates   []projectUpdate
	listCalls int
}

func (s *projectStoreStub) ListPendingByDepartment(context.Context, string) ([]models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	return s.pending, s.listErr
}

func (s *projectStoreStub) UpdateScheduleStatus(ctx context.Context, id string, status models.ProjectStatus, date time.Time, location string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.failFor[id] {
		return fmt.Errorf("update project %s: connection reset", id)
	}
	s.updates = append(s.updates, projectUpdate{ID: id, Status: status, Date: date, Location: location})
	return nil
}

type facultyStoreStub struct {
	mu            sync.Mutex
	roster        []models.Faculty
	countsBefore  time.Time
	participation map[string][]string
}

func (s *facultyStoreStub) ListByDepartment(_ context.Context, _ string, countsBefore time.Time) ([]models.Faculty, error) {
	s.countsBefore = countsBefore
	return s.roster, nil
}

func (s *facultyStoreStub) AppendParticipation(ctx context.Context, facultyID, juryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.participation == nil {
		s.participation = make(map[string][]string)
	}
	s.participation[facultyID] = append(s.participation[facultyID], juryID)
	return nil
}

type roomReaderStub struct {
	rooms []models.Room
}

func (s roomReaderStub) List(context.Context) ([]models.Room, error) {
	return s.rooms, nil
}

type availabilityReaderStub struct {
	items        []models.Availability
	requestedIDs []string
	start, end   time.Time
}

func (s *availabilityReaderStub) ListByFaculty(_ context.Context, ids []string, start, end time.Time) ([]models.Availability, error) {
	s.requestedIDs = ids
	s.start, s.end = start, end
	return s.items, nil
}

type juryStoreStub struct {
	existing    []models.Jury
	bulkErr     error
	created     []models.Jury
	windowStart time.Time
	windowEnd   time.Time
	bulkCalls   int
	afterCommit func()
}

func (s *juryStoreStub) ListInWindow(_ context.Context, start, end time.Time) ([]models.Jury, error) {
	s.windowStart, s.windowEnd = start, end
	return s.existing, nil
}

func (s *juryStoreStub) BulkCreate(_ context.Context, drafts []models.JuryDraft) ([]models.Jury, error) {
	s.bulkCalls++
	if s.bulkErr != nil {
		return nil, s.bulkErr
	}
	juries := make([]models.Jury, 0, len(drafts))
	for i, draft := range drafts {
		juries = append(juries, models.Jury{
			ID:           fmt.Sprintf("jury-%d", len(s.created)+i+1),
			ProjectID:    draft.ProjectID,
			SupervisorID: draft.SupervisorID,
			PresidentID:  draft.PresidentID,
			ReporterID:   draft.ReporterID,
			Date:         draft.Date,
			StartTime:    draft.StartTime,
			EndTime:      draft.EndTime,
			Location:     draft.Location,
			Status:       models.JuryStatusScheduled,
		})
	}
	s.created = append(s.created, juries...)
	if s.afterCommit != nil {
		s.afterCommit()
	}
	return juries, nil
}

type juryRunRecorder struct {
	outcomes []string
}

func (r *juryRunRecorder) ObserveJuryRun(outcome string, _, _ int, _ time.Duration) {
	r.outcomes = append(r.outcomes, outcome)
}

type schedulerFixture struct {
	service      *JurySchedulerService
	projects     *projectStoreStub
	faculty      *facultyStoreStub
	availability *availabilityReaderStub
	juries       *juryStoreStub
	cacheRepo    *memoryCacheRepo
	metrics      *juryRunRecorder
}

func newJurySchedulerFixture(t *testing.T, projects []models.Project) *schedulerFixture {
	t.Helper()
	fx := &schedulerFixture{
		projects: &projectStoreStub{pending: projects, failFor: map[string]bool{}},
		faculty: &facultyStoreStub{roster: []models.Faculty{
			facultyFixture("s", 1, 0, 0),
			facultyFixture("a", 2, 0, 0),
			facultyFixture("b", 1, 0, 0),
		}},
		availability: &availabilityReaderStub{},
		juries:       &juryStoreStub{},
		cacheRepo:    newMemoryCacheRepo(),
		metrics:      &juryRunRecorder{},
	}
	svc, err := NewJurySchedulerService(
		JurySchedulerRepositories{
			Departments:  departmentReaderStub{known: map[string]bool{"dept-1": true}},
			Projects:     fx.projects,
			Faculty:      fx.faculty,
			Rooms:        roomReaderStub{rooms: []models.Room{{ID: "r", Name: "R", Building: "Main"}}},
			Availability: fx.availability,
			Juries:       fx.juries,
		},
		NewCacheService(fx.cacheRepo, nil, time.Hour, nil, true),
		fx.metrics,
		nil,
		nil,
		JurySchedulerConfig{},
	)
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Date(2024, 2, 28, 10, 0, 0, 0, time.UTC) }
	fx.service = svc
	return fx
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code)
}

func TestJurySchedulerServiceScheduleSuccess(t *testing.T) {
	fx := newJurySchedulerFixture(t, []models.Project{projectFixture("p-1", "s")})

	resp, err := fx.service.Schedule(context.Background(), dto.ScheduleJuriesRequest{DepartmentID: "dept-1", StartDate: "2024-03-01"})
	require.NoError(t, err)

	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, 1, resp.Scheduled)
	assert.Equal(t, 0, resp.Failed)
	assert.Empty(t, resp.Errors)
	require.Len(t, resp.Juries, 1)
	jury := resp.Juries[0]
	assert.Equal(t, "jury-1", jury.JuryID)
	assert.Equal(t, "2024-03-04", jury.Date)
	assert.Equal(t, "08:00", jury.StartTime)
	assert.Equal(t, "08:30", jury.EndTime)
	assert.Equal(t, "R - Main", jury.Location)

	require.Len(t, fx.projects.updates, 1)
	assert.Equal(t, models.ProjectStatusScheduled, fx.projects.updates[0].Status)
	assert.Equal(t, "R - Main", fx.projects.updates[0].Location)
	assert.Equal(t, []string{"jury-1"}, fx.faculty.participation["s"])
	assert.Equal(t, []string{"jury-1"}, fx.faculty.participation["a"])
	assert.Equal(t, []string{"jury-1"}, fx.faculty.participation["b"])

	today := time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, today, fx.juries.windowStart)
	assert.Equal(t, today.AddDate(0, 0, 14), fx.juries.windowEnd)
	assert.Equal(t, today, fx.faculty.countsBefore)
	require.NotNil(t, resp.Window)
	assert.Equal(t, "2024-03-04", resp.Window.FirstDate)
	assert.Equal(t, "2024-03-05", resp.Window.LastDate)
	assert.Equal(t, 38, resp.Window.CandidateSlots)

	assert.Equal(t, []string{JuryOutcomeCompleted}, fx.metrics.outcomes)
	assert.Empty(t, fx.cacheRepo.locks)

	last, err := fx.service.LastSummary(context.Background(), "dept-1")
	require.NoError(t, err)
	assert.Equal(t, 1, last.Scheduled)
	assert.Equal(t, "jury-1", last.Juries[0].JuryID)
}

func TestJurySchedulerServiceScheduleValidation(t *testing.T) {
	fx := newJurySchedulerFixture(t, nil)

	_, err := fx.service.Schedule(context.Background(), dto.ScheduleJuriesRequest{StartDate: "2024-03-01"})
	assertAppErrorCode(t, err, appErrors.ErrValidation.Code)

	_, err = fx.service.Schedule(context.Background(), dto.ScheduleJuriesRequest{DepartmentID: "dept-1", StartDate: "2024-13-40"})
	assertAppErrorCode(t, err, appErrors.ErrValidation.Code)

	assert.Zero(t, fx.projects.listCalls)
}

func TestJurySchedulerServiceScheduleUnknownDepartment(t *testing.T) {
	fx := newJurySchedulerFixture(t, []models.Project{projectFixture("p-1", "s")})

	resp, err := fx.service.Schedule(context.Background(), dto.ScheduleJuriesRequest{DepartmentID: "dept-404", StartDate: "2024-03-01"})
	assert.Nil(t, resp)
	assertAppErrorCode(t, err, appErrors.ErrNotFound.Code)
	assert.Zero(t, fx.projects.listCalls)
}

func TestJurySchedulerServiceScheduleNoWork(t *testing.T) {
	fx := newJurySchedulerFixture(t, nil)

	resp, err := fx.service.Schedule(context.Background(), dto.ScheduleJuriesRequest{DepartmentID: "dept-1", StartDate: "2024-03-01"})
	require.NoError(t, err)
	assert.True(t, resp.NoWork)
	assert.Equal(t, 0, resp.Total)
	assert.Nil(t, resp.Window)
	assert.Zero(t, fx.juries.bulkCalls)
	assert.Equal(t, []string{JuryOutcomeNoWork}, fx.metrics.outcomes)
}

func TestJurySchedulerServiceScheduleDryRun(t *testing.T) {
	fx := newJurySchedulerFixture(t, []models.Project{projectFixture("p-1", "s")})

	resp, err := fx.service.Schedule(context.Background(), dto.ScheduleJuriesRequest{DepartmentID: "dept-1", StartDate: "2024-03-01", DryRun: true})
	require.NoError(t, err)
	assert.True(t, resp.DryRun)
	require.Len(t, resp.Juries, 1)
	assert.Empty(t, resp.Juries[0].JuryID)
	assert.Zero(t, fx.juries.bulkCalls)
	assert.Empty(t, fx.projects.updates)

	_, err = fx.service.LastSummary(context.Background(), "dept-1")
	assertAppErrorCode(t, err, appErrors.ErrNotFound.Code)
}

func TestJurySchedulerServiceScheduleReportsAllocationFailures(t *testing.T) {
	fx := newJurySchedulerFixture(t, []models.Project{projectFixture("p-1", "s"), projectFixture("p-2", "s")})

	resp, err := fx.service.Schedule(context.Background(), dto.ScheduleJuriesRequest{DepartmentID: "dept-1", StartDate: "2024-03-01"})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 1, resp.Scheduled)
	assert.Equal(t, 1, resp.Failed)
	assert.Equal(t, resp.Total, resp.Scheduled+resp.Failed)
	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0], "Project p-2")
}

func TestJurySchedulerServiceScheduleBulkInsertFailure(t *testing.T) {
	fx := newJurySchedulerFixture(t, []models.Project{projectFixture("p-1", "s")})
	fx.juries.bulkErr = errors.New("deadlock detected")

	resp, err := fx.service.Schedule(context.Background(), dto.ScheduleJuriesRequest{DepartmentID: "dept-1", StartDate: "2024-03-01"})
	require.NotNil(t, resp)
	assertAppErrorCode(t, err, appErrors.ErrPersistence.Code)
	assert.Equal(t, 1, resp.Scheduled)
	require.Len(t, resp.PersistenceErrors, 1)
	assert.Contains(t, resp.PersistenceErrors[0], "deadlock detected")
	assert.Empty(t, fx.projects.updates)
	assert.Empty(t, fx.faculty.participation)
	assert.Equal(t, []string{JuryOutcomePersistenceFailure}, fx.metrics.outcomes)
}

func TestJurySchedulerServiceSchedulePartialPersistence(t *testing.T) {
	fx := newJurySchedulerFixture(t, []models.Project{projectFixture("p-1", "s"), projectFixture("p-2", "b")})
	fx.faculty.roster = []models.Faculty{
		facultyFixture("s", 5, 0, 0),
		facultyFixture("a", 5, 0, 0),
		facultyFixture("b", 5, 0, 0),
	}
	fx.projects.failFor["p-1"] = true

	resp, err := fx.service.Schedule(context.Background(), dto.ScheduleJuriesRequest{DepartmentID: "dept-1", StartDate: "2024-03-01"})
	require.NotNil(t, resp)
	assertAppErrorCode(t, err, appErrors.ErrPersistence.Code)
	assert.Equal(t, 2, resp.Scheduled)
	require.Len(t, resp.PersistenceErrors, 1)
	assert.Contains(t, resp.PersistenceErrors[0], "project p-1")
	require.Len(t, fx.projects.updates, 1)
	assert.Equal(t, "p-2", fx.projects.updates[0].ID)
	assert.Len(t, fx.faculty.participation["a"], 2)
}

func TestJurySchedulerServiceFinishesPersistenceAfterCancellation(t *testing.T) {
	fx := newJurySchedulerFixture(t, []models.Project{projectFixture("p-1", "s")})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fx.juries.afterCommit = cancel

	resp, err := fx.service.Schedule(ctx, dto.ScheduleJuriesRequest{DepartmentID: "dept-1", StartDate: "2024-03-01"})
	require.NoError(t, err)
	require.ErrorIs(t, ctx.Err(), context.Canceled)

	assert.Empty(t, resp.PersistenceErrors)
	require.Len(t, fx.projects.updates, 1)
	assert.Equal(t, models.ProjectStatusScheduled, fx.projects.updates[0].Status)
	for _, member := range fx.juries.created[0].Members() {
		assert.Equal(t, []string{"jury-1"}, fx.faculty.participation[member], member)
	}
}

func TestJurySchedulerServiceScheduleLocked(t *testing.T) {
	fx := newJurySchedulerFixture(t, []models.Project{projectFixture("p-1", "s")})
	fx.cacheRepo.locks[juryLockKey("dept-1")] = "someone-else"

	resp, err := fx.service.Schedule(context.Background(), dto.ScheduleJuriesRequest{DepartmentID: "dept-1", StartDate: "2024-03-01"})
	assert.Nil(t, resp)
	assertAppErrorCode(t, err, appErrors.ErrLocked.Code)
	assert.Zero(t, fx.projects.listCalls)
	assert.Equal(t, "someone-else", fx.cacheRepo.locks[juryLockKey("dept-1")])
}

func TestJurySchedulerServiceConflictWindowCoversFutureStart(t *testing.T) {
	fx := newJurySchedulerFixture(t, []models.Project{projectFixture("p-1", "external")})

	resp, err := fx.service.Schedule(context.Background(), dto.ScheduleJuriesRequest{DepartmentID: "dept-1", StartDate: "2024-06-03", DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC), fx.juries.windowStart)
	assert.Equal(t, time.Date(2024, 6, 6, 0, 0, 0, 0, time.UTC), fx.juries.windowEnd)
	assert.Equal(t, fx.juries.windowStart, fx.availability.start)
	assert.Equal(t, fx.juries.windowEnd, fx.availability.end)
	assert.Equal(t, []string{"s", "a", "b", "external"}, fx.availability.requestedIDs)
	require.Len(t, resp.Juries, 1)
	assert.Equal(t, "2024-06-04", resp.Juries[0].Date)
}

func TestJurySchedulerServiceRespectsExistingJuries(t *testing.T) {
	fx := newJurySchedulerFixture(t, []models.Project{projectFixture("p-1", "s")})
	fx.juries.existing = []models.Jury{{
		ID: "old", SupervisorID: "s", PresidentID: "x", ReporterID: "y",
		Date: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), StartTime: "08:00", EndTime: "09:00", Location: "R - Main",
	}}

	resp, err := fx.service.Schedule(context.Background(), dto.ScheduleJuriesRequest{DepartmentID: "dept-1", StartDate: "2024-03-01", DryRun: true})
	require.NoError(t, err)
	require.Len(t, resp.Juries, 1)
	assert.Equal(t, "09:00", resp.Juries[0].StartTime)
}

func TestJurySchedulerServiceLastSummaryMissing(t *testing.T) {
	fx := newJurySchedulerFixture(t, nil)

	_, err := fx.service.LastSummary(context.Background(), "dept-1")
	assertAppErrorCode(t, err, appErrors.ErrNotFound.Code)

	_, err = fx.service.LastSummary(context.Background(), "")
	assertAppErrorCode(t, err, appErrors.ErrValidation.Code)
}

func TestNewJurySchedulerServiceRejectsBadTemplate(t *testing.T) {
	_, err := NewJurySchedulerService(JurySchedulerRepositories{}, nil, nil, nil, nil, JurySchedulerConfig{DayStart: "18:00", DayEnd: "08:00"})
	assert.Error(t, err)
}
