package models

import "time"

// ProjectStatus tracks a final-year project through its defense lifecycle.
type ProjectStatus string

const (
	ProjectStatusPending   ProjectStatus = "pending"
	ProjectStatusScheduled ProjectStatus = "scheduled"
	ProjectStatusCompleted ProjectStatus = "completed"
)

// Project is a student deliverable awaiting (or holding) a defense jury.
type Project struct {
	ID            string        `db:"id" json:"id"`
	Title         string        `db:"title" json:"title"`
	DepartmentID  string        `db:"department_id" json:"department_id"`
	SupervisorID  string        `db:"supervisor_id" json:"supervisor_id"`
	Status        ProjectStatus `db:"status" json:"status"`
	ScheduledDate *time.Time    `db:"scheduled_date" json:"scheduled_date,omitempty"`
	Location      *string       `db:"location" json:"location,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// DisplayName is the label used in failure reports.
func (p Project) DisplayName() string {
	if p.Title != "" {
		return p.Title
	}
	return p.ID
}
