package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/jury-scheduler-api/internal/models"
)

// ProjectRepository provides persistence for final-year projects.
type ProjectRepository struct {
	db *sqlx.DB
}

// NewProjectRepository creates a new project repository.
func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// ListPendingByDepartment returns pending projects in a stable retrieval order.
func (r *ProjectRepository) ListPendingByDepartment(ctx context.Context, departmentID string) ([]models.Project, error) {
	const query = `SELECT id, title, department_id, supervisor_id, status, scheduled_date, location, created_at, updated_at
FROM projects WHERE department_id = $1 AND status = $2 ORDER BY created_at ASC, id ASC`
	var projects []models.Project
	if err := r.db.SelectContext(ctx, &projects, query, departmentID, models.ProjectStatusPending); err != nil {
		return nil, fmt.Errorf("list pending projects: %w", err)
	}
	return projects, nil
}

// UpdateScheduleStatus records the outcome of a scheduling decision on the project.
func (r *ProjectRepository) UpdateScheduleStatus(ctx context.Context, id string, status models.ProjectStatus, date time.Time, location string) error {
	const query = `UPDATE projects SET status = $1, scheduled_date = $2, location = $3, updated_at = $4 WHERE id = $5`
	result, err := r.db.ExecContext(ctx, query, status, date, location, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update project status: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update project status: project %s not found", id)
	}
	return nil
}
