package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepartmentRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t, "sqlmock")
	defer cleanup()
	repo := NewDepartmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name FROM departments WHERE id = $1")).
		WithArgs("dept-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("dept-1", "Computer Science"))

	department, err := repo.FindByID(context.Background(), "dept-1")
	require.NoError(t, err)
	assert.Equal(t, "Computer Science", department.Name)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name FROM departments WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
