package models

import (
	"errors"
	"time"
)

// JuryStatus represents lifecycle phases of a defense jury.
type JuryStatus string

const (
	JuryStatusScheduled JuryStatus = "scheduled"
	JuryStatusCompleted JuryStatus = "completed"
)

// JuryRole names a rotating seat on the jury. The supervisor seat is fixed by the project.
type JuryRole string

const (
	JuryRolePresident JuryRole = "president"
	JuryRoleReporter  JuryRole = "reporter"
)

// ErrDuplicateJuryMember is returned when one faculty member would hold two seats.
var ErrDuplicateJuryMember = errors.New("supervisor, president and reporter must be distinct")

// JuryDraft is an allocation decision that has not been persisted yet.
type JuryDraft struct {
	ProjectID    string    `json:"project_id"`
	ProjectTitle string    `json:"project_title"`
	SupervisorID string    `json:"supervisor_id"`
	PresidentID  string    `json:"president_id"`
	ReporterID   string    `json:"reporter_id"`
	Date         time.Time `json:"date"`
	StartTime    string    `json:"start_time"`
	EndTime      string    `json:"end_time"`
	RoomID       string    `json:"room_id"`
	Location     string    `json:"location"`
}

// Validate enforces seat distinctness.
func (d JuryDraft) Validate() error {
	if d.SupervisorID == d.PresidentID || d.SupervisorID == d.ReporterID || d.PresidentID == d.ReporterID {
		return ErrDuplicateJuryMember
	}
	return nil
}

// Jury is a persisted defense panel.
type Jury struct {
	ID           string     `db:"id" json:"id"`
	ProjectID    string     `db:"project_id" json:"project_id"`
	SupervisorID string     `db:"supervisor_id" json:"supervisor_id"`
	PresidentID  string     `db:"president_id" json:"president_id"`
	ReporterID   string     `db:"reporter_id" json:"reporter_id"`
	Date         time.Time  `db:"date" json:"date"`
	StartTime    string     `db:"start_time" json:"start_time"`
	EndTime      string     `db:"end_time" json:"end_time"`
	Location     string     `db:"location" json:"location"`
	Status       JuryStatus `db:"status" json:"status"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Members lists the three faculty ids in seat order.
func (j Jury) Members() []string {
	return []string{j.SupervisorID, j.PresidentID, j.ReporterID}
}
