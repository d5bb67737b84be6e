package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/jury-scheduler-api/internal/models"
)

// JuryRepository provides persistence for defense juries.
type JuryRepository struct {
	db *sqlx.DB
}

// NewJuryRepository creates a new jury repository.
func NewJuryRepository(db *sqlx.DB) *JuryRepository {
	return &JuryRepository{db: db}
}

// ListInWindow returns juries dated within [start, end) ordered by date and time.
func (r *JuryRepository) ListInWindow(ctx context.Context, start, end time.Time) ([]models.Jury, error) {
	const query = `SELECT id, project_id, supervisor_id, president_id, reporter_id, date,
	to_char(start_time, 'HH24:MI') AS start_time, to_char(end_time, 'HH24:MI') AS end_time,
	location, status, created_at, updated_at
FROM juries WHERE date >= $1 AND date < $2 ORDER BY date ASC, start_time ASC`
	var juries []models.Jury
	if err := r.db.SelectContext(ctx, &juries, query, start, end); err != nil {
		return nil, fmt.Errorf("list juries in window: %w", err)
	}
	return juries, nil
}

// BulkCreate inserts all drafts within one transaction and returns the stored juries in draft order.
func (r *JuryRepository) BulkCreate(ctx context.Context, drafts []models.JuryDraft) (juries []models.Jury, err error) {
	if len(drafts) == 0 {
		return nil, nil
	}
	for _, draft := range drafts {
		if err := draft.Validate(); err != nil {
			return nil, fmt.Errorf("jury for project %s: %w", draft.ProjectID, err)
		}
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin bulk create juries: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO juries (id, project_id, supervisor_id, president_id, reporter_id, date, start_time, end_time, location, status, created_at, updated_at)
VALUES (:id, :project_id, :supervisor_id, :president_id, :reporter_id, :date, :start_time, :end_time, :location, :status, :created_at, :updated_at)`

	now := time.Now().UTC()
	juries = make([]models.Jury, 0, len(drafts))
	for _, draft := range drafts {
		jury := models.Jury{
			ID:           uuid.NewString(),
			ProjectID:    draft.ProjectID,
			SupervisorID: draft.SupervisorID,
			PresidentID:  draft.PresidentID,
			ReporterID:   draft.ReporterID,
			Date:         draft.Date,
			StartTime:    draft.StartTime,
			EndTime:      draft.EndTime,
			Location:     draft.Location,
			Status:       models.JuryStatusScheduled,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if _, err = sqlx.NamedExecContext(ctx, tx, query, &jury); err != nil {
			return nil, fmt.Errorf("bulk insert jury: %w", err)
		}
		juries = append(juries, jury)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit bulk create juries: %w", err)
	}
	return juries, nil
}
