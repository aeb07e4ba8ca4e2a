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

func TestClassSubjectRepositoryListSubjects(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassSubjectRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "code", "created_at", "updated_at"}).
		AddRow("s2", "English", nil, time.Now(), time.Now()).
		AddRow("s1", "Mathematics", "MTH", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE cs.class_id = $1")).WithArgs("c1").WillReturnRows(rows)

	subjects, err := repo.ListSubjects(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Equal(t, "English", subjects[0].Name)
	assert.Nil(t, subjects[0].Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassSubjectRepositoryAssignIgnoresDuplicates(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassSubjectRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (class_id, subject_id) DO NOTHING")).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Assign(context.Background(), "c1", "s1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassSubjectRepositoryReplaceAssignments(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassSubjectRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM class_subjects WHERE class_id = $1")).WithArgs("c1").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO class_subjects").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO class_subjects").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.ReplaceAssignments(context.Background(), "c1", []string{"s1", "s2"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassSubjectRepositoryReplaceAssignmentsRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewClassSubjectRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM class_subjects WHERE class_id = $1")).WithArgs("c1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO class_subjects").WillReturnError(errors.New("fk violation"))
	mock.ExpectRollback()

	err := repo.ReplaceAssignments(context.Background(), "c1", []string{"unknown"})
	assert.ErrorContains(t, err, "insert class subject")
	assert.NoError(t, mock.ExpectationsWereMet())
}
