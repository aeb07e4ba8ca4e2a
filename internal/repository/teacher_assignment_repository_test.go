package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-results-api/internal/models"
)

func TestTeacherAssignmentRepositoryListByTeacher(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherAssignmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "teacher_id", "class_id", "subject_id", "created_at", "class_name", "subject_name"}).
		AddRow("a1", "t1", "c1", "s1", time.Now(), "Form 1", "Mathematics")
	mock.ExpectQuery("SELECT ta.id, ta.teacher_id").WithArgs("t1").WillReturnRows(rows)

	assignments, err := repo.ListByTeacher(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, "Form 1", assignments[0].ClassName)
	assert.Equal(t, "s1", assignments[0].SubjectID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherAssignmentRepositoryExists(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherAssignmentRepository(db)

	query := regexp.QuoteMeta("SELECT 1 FROM teacher_assignments WHERE teacher_id = $1 AND class_id = $2 AND subject_id = $3 LIMIT 1")
	mock.ExpectQuery(query).WithArgs("t1", "c1", "s1").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(query).WithArgs("t1", "c1", "s2").WillReturnError(sql.ErrNoRows)

	exists, err := repo.Exists(context.Background(), "t1", "c1", "s1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(context.Background(), "t1", "c1", "s2")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherAssignmentRepositorySubjectIDsForClassRequiresActiveTeacher(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherAssignmentRepository(db)

	mock.ExpectQuery(`SELECT ta.subject_id\s+FROM teacher_assignments ta\s+JOIN teachers t ON t.id = ta.teacher_id\s+WHERE ta.teacher_id = \$1 AND ta.class_id = \$2 AND t.active`).
		WithArgs("t1", "c1").
		WillReturnRows(sqlmock.NewRows([]string{"subject_id"}).AddRow("s1").AddRow("s2"))

	subjectIDs, err := repo.SubjectIDsForClass(context.Background(), "t1", "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2"}, subjectIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherAssignmentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherAssignmentRepository(db)

	mock.ExpectExec("INSERT INTO teacher_assignments").WillReturnResult(sqlmock.NewResult(1, 1))

	assignment := &models.TeacherAssignment{TeacherID: "t1", ClassID: "c1", SubjectID: "s1"}
	require.NoError(t, repo.Create(context.Background(), assignment))
	assert.NotEmpty(t, assignment.ID)
	assert.False(t, assignment.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherAssignmentRepositoryDeleteChecksOwnership(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherAssignmentRepository(db)

	query := regexp.QuoteMeta("DELETE FROM teacher_assignments WHERE id = $1 AND teacher_id = $2")
	mock.ExpectExec(query).WithArgs("a1", "t1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(query).WithArgs("a1", "t2").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "t1", "a1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "t2", "a1"), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
