package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/jury-scheduler-api/internal/models"
)

// AvailabilityRepository reads faculty-declared free windows.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository creates a new availability repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// ListByFaculty returns declarations of the given faculty dated within [start, end).
func (r *AvailabilityRepository) ListByFaculty(ctx context.Context, facultyIDs []string, start, end time.Time) ([]models.Availability, error) {
	if len(facultyIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, faculty_id, date, to_char(start_time, 'HH24:MI') AS start_time, to_char(end_time, 'HH24:MI') AS end_time
FROM faculty_availabilities WHERE faculty_id IN (?) AND date >= ? AND date < ? ORDER BY faculty_id ASC, date ASC, start_time ASC`, facultyIDs, start, end)
	if err != nil {
		return nil, fmt.Errorf("build availability query: %w", err)
	}
	var items []models.Availability
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	return items, nil
}
