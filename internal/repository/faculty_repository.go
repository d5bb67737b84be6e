package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/jury-scheduler-api/internal/models"
)

// FacultyRepository reads the faculty roster together with workload counters.
type FacultyRepository struct {
	db *sqlx.DB
}

// NewFacultyRepository creates a new faculty repository.
func NewFacultyRepository(db *sqlx.DB) *FacultyRepository {
	return &FacultyRepository{db: db}
}

// ListByDepartment returns the department roster ordered by id. Supervision counts cover every
// project; president and reporter counts only include juries dated before countsBefore so they
// do not overlap with juries the scheduler loads for its conflict window.
func (r *FacultyRepository) ListByDepartment(ctx context.Context, departmentID string, countsBefore time.Time) ([]models.Faculty, error) {
	const query = `SELECT f.id, f.full_name, f.department_id,
	(SELECT COUNT(*) FROM projects p WHERE p.supervisor_id = f.id) AS supervised_count,
	(SELECT COUNT(*) FROM juries j WHERE j.president_id = f.id AND j.date < $2) AS president_count,
	(SELECT COUNT(*) FROM juries j WHERE j.reporter_id = f.id AND j.date < $2) AS reporter_count
FROM faculty f WHERE f.department_id = $1 ORDER BY f.id ASC`
	var faculty []models.Faculty
	if err := r.db.SelectContext(ctx, &faculty, query, departmentID, countsBefore); err != nil {
		return nil, fmt.Errorf("list faculty: %w", err)
	}
	return faculty, nil
}

// AppendParticipation adds a jury to a faculty member's participation history.
func (r *FacultyRepository) AppendParticipation(ctx context.Context, facultyID, juryID string) error {
	const query = `INSERT INTO faculty_juries (faculty_id, jury_id, created_at) VALUES ($1, $2, $3) ON CONFLICT (faculty_id, jury_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, facultyID, juryID, time.Now().UTC()); err != nil {
		return fmt.Errorf("append faculty participation: %w", err)
	}
	return nil
}
