package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFacultyRepositoryListByDepartment(t *testing.T) {
	db, mock, cleanup := newRepoMock(t, "sqlmock")
	defer cleanup()
	repo := NewFacultyRepository(db)

	before := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "full_name", "department_id", "supervised_count", "president_count", "reporter_count"}).
		AddRow("f-1", "Dr. Amal", "dept-1", 4, 1, 2).
		AddRow("f-2", "Dr. Badr", "dept-1", 0, 0, 0)
	mock.ExpectQuery("SELECT f.id, f.full_name, f.department_id,(.+)FROM faculty f WHERE f.department_id = \\$1 ORDER BY f.id ASC").
		WithArgs("dept-1", before).
		WillReturnRows(rows)

	faculty, err := repo.ListByDepartment(context.Background(), "dept-1", before)
	require.NoError(t, err)
	require.Len(t, faculty, 2)
	assert.Equal(t, 4, faculty[0].SupervisedCount)
	assert.Equal(t, 1, faculty[0].PresidentCount)
	assert.Equal(t, 2, faculty[0].ReporterCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFacultyRepositoryAppendParticipation(t *testing.T) {
	db, mock, cleanup := newRepoMock(t, "sqlmock")
	defer cleanup()
	repo := NewFacultyRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO faculty_juries (faculty_id, jury_id, created_at) VALUES ($1, $2, $3) ON CONFLICT (faculty_id, jury_id) DO NOTHING")).
		WithArgs("f-1", "jury-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.AppendParticipation(context.Background(), "f-1", "jury-1"))

	mock.ExpectExec("INSERT INTO faculty_juries").
		WithArgs("f-2", "jury-1", sqlmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))
	err := repo.AppendParticipation(context.Background(), "f-2", "jury-1")
	assert.ErrorContains(t, err, "append faculty participation")
	assert.NoError(t, mock.ExpectationsWereMet())
}
