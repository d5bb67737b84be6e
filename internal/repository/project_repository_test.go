package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/jury-scheduler-api/internal/models"
)

func TestProjectRepositoryListPendingByDepartment(t *testing.T) {
	db, mock, cleanup := newRepoMock(t, "sqlmock")
	defer cleanup()
	repo := NewProjectRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "title", "department_id", "supervisor_id", "status", "scheduled_date", "location", "created_at", "updated_at"}).
		AddRow("p-1", "Solar grid", "dept-1", "f-1", "pending", nil, nil, now, now).
		AddRow("p-2", "Edge cache", "dept-1", "f-2", "pending", nil, nil, now, now)
	mock.ExpectQuery("SELECT (.+) FROM projects WHERE department_id = \\$1 AND status = \\$2 ORDER BY created_at ASC, id ASC").
		WithArgs("dept-1", models.ProjectStatusPending).
		WillReturnRows(rows)

	projects, err := repo.ListPendingByDepartment(context.Background(), "dept-1")
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "p-1", projects[0].ID)
	assert.Equal(t, models.ProjectStatusPending, projects[1].Status)
	assert.Nil(t, projects[0].ScheduledDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProjectRepositoryUpdateScheduleStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t, "sqlmock")
	defer cleanup()
	repo := NewProjectRepository(db)

	date := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE projects SET status = $1, scheduled_date = $2, location = $3, updated_at = $4 WHERE id = $5")).
		WithArgs(models.ProjectStatusScheduled, date, "B12 - Block C", sqlmock.AnyArg(), "p-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateScheduleStatus(context.Background(), "p-1", models.ProjectStatusScheduled, date, "B12 - Block C"))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE projects SET")).
		WithArgs(models.ProjectStatusScheduled, date, "B12 - Block C", sqlmock.AnyArg(), "p-404").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateScheduleStatus(context.Background(), "p-404", models.ProjectStatusScheduled, date, "B12 - Block C")
	assert.ErrorContains(t, err, "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}
