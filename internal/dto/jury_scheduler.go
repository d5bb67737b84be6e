package dto

import (
	"time"

	"github.com/noah-isme/jury-scheduler-api/internal/models"
)

// ScheduleJuriesRequest asks the engine to place every pending project of a department.
type ScheduleJuriesRequest struct {
	DepartmentID string `json:"departmentId" validate:"required"`
	StartDate    string `json:"startDate" validate:"required,datetime=2006-01-02"`
	DryRun       bool   `json:"dryRun"`
}

// ScheduleWindow describes the candidate calendar and conflict lookahead used by a run.
type ScheduleWindow struct {
	FirstDate      string    `json:"firstDate" yaml:"firstDate"`
	LastDate       string    `json:"lastDate" yaml:"lastDate"`
	CandidateSlots int       `json:"candidateSlots" yaml:"candidateSlots"`
	ConflictsFrom  time.Time `json:"conflictsFrom" yaml:"conflictsFrom"`
	ConflictsUntil time.Time `json:"conflictsUntil" yaml:"conflictsUntil"`
}

// JuryAssignment is a placed jury as reported back to callers.
type JuryAssignment struct {
	JuryID       string `json:"juryId,omitempty" yaml:"juryId,omitempty"`
	ProjectID    string `json:"projectId" yaml:"projectId"`
	ProjectTitle string `json:"projectTitle" yaml:"projectTitle"`
	SupervisorID string `json:"supervisorId" yaml:"supervisorId"`
	PresidentID  string `json:"presidentId" yaml:"presidentId"`
	ReporterID   string `json:"reporterId" yaml:"reporterId"`
	Date         string `json:"date" yaml:"date"`
	StartTime    string `json:"startTime" yaml:"startTime"`
	EndTime      string `json:"endTime" yaml:"endTime"`
	Location     string `json:"location" yaml:"location"`
}

// ScheduleJuriesResponse summarises a scheduling run.
type ScheduleJuriesResponse struct {
	DepartmentID      string           `json:"departmentId" yaml:"departmentId"`
	StartDate         string           `json:"startDate" yaml:"startDate"`
	DryRun            bool             `json:"dryRun" yaml:"dryRun"`
	NoWork            bool             `json:"noWork" yaml:"noWork"`
	Total             int              `json:"total" yaml:"total"`
	Scheduled         int              `json:"scheduled" yaml:"scheduled"`
	Failed            int              `json:"failed" yaml:"failed"`
	Errors            []string         `json:"errors" yaml:"errors"`
	PersistenceErrors []string         `json:"persistenceErrors,omitempty" yaml:"persistenceErrors,omitempty"`
	Juries            []JuryAssignment `json:"juries" yaml:"juries"`
	Window            *ScheduleWindow  `json:"window,omitempty" yaml:"window,omitempty"`
	CompletedAt       time.Time        `json:"completedAt" yaml:"completedAt"`
}

// JuryRunStatus tracks an asynchronous scheduling job.
type JuryRunStatus string

const (
	JuryRunQueued    JuryRunStatus = "queued"
	JuryRunRunning   JuryRunStatus = "running"
	JuryRunSucceeded JuryRunStatus = "succeeded"
	JuryRunFailed    JuryRunStatus = "failed"
)

// JuryRunResponse reports the state of an asynchronous scheduling job.
type JuryRunResponse struct {
	RunID       string                  `json:"runId"`
	Status      JuryRunStatus           `json:"status"`
	Request     ScheduleJuriesRequest   `json:"request"`
	Result      *ScheduleJuriesResponse `json:"result,omitempty"`
	Error       string                  `json:"error,omitempty"`
	EnqueuedAt  time.Time               `json:"enqueuedAt"`
	StartedAt   *time.Time              `json:"startedAt,omitempty"`
	CompletedAt *time.Time              `json:"completedAt,omitempty"`
}

// NewJuryAssignment converts a draft (and the persisted id, when known) for output.
func NewJuryAssignment(draft models.JuryDraft, juryID string) JuryAssignment {
	return JuryAssignment{
		JuryID:       juryID,
		ProjectID:    draft.ProjectID,
		ProjectTitle: draft.ProjectTitle,
		SupervisorID: draft.SupervisorID,
		PresidentID:  draft.PresidentID,
		ReporterID:   draft.ReporterID,
		Date:         draft.Date.Format("2006-01-02"),
		StartTime:    draft.StartTime,
		EndTime:      draft.EndTime,
		Location:     draft.Location,
	}
}
