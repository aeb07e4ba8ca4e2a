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

	"github.com/noah-isme/sma-results-api/internal/grading"
	"github.com/noah-isme/sma-results-api/internal/models"
)

var gradeConfigRowColumns = []string{"id", "name", "calculation_method", "weight_qa1", "weight_qa2", "weight_end_of_term", "pass_mark", "is_active", "created_at", "updated_at"}

func TestGradeConfigRepositoryFindActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeConfigRepository(db)

	rows := sqlmock.NewRows(gradeConfigRowColumns).
		AddRow("cfg-1", "Weighted", "weighted_average", 20.0, 20.0, 60.0, 45.0, true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM grade_configurations WHERE is_active = TRUE")).WillReturnRows(rows)

	cfg, err := repo.FindActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, grading.MethodWeightedAverage, cfg.CalculationMethod)
	policy := cfg.Policy()
	assert.Equal(t, 45.0, policy.EffectivePassMark())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeConfigRepositoryFindActiveNone(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeConfigRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM grade_configurations WHERE is_active = TRUE")).WillReturnError(sql.ErrNoRows)

	_, err := repo.FindActive(context.Background())
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestGradeConfigRepositoryActivate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeConfigRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE grade_configurations SET is_active = FALSE")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE grade_configurations SET is_active = TRUE, updated_at = $2 WHERE id = $1")).
		WithArgs("cfg-2", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Activate(context.Background(), "cfg-2"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeConfigRepositoryCreateActiveDeactivatesOthers(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeConfigRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE grade_configurations SET is_active = FALSE")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO grade_configurations")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	cfg := &models.GradeConfiguration{Name: "End of term", CalculationMethod: grading.MethodEndOfTermOnly, PassMark: 50, IsActive: true}
	require.NoError(t, repo.Create(context.Background(), cfg))
	assert.NotEmpty(t, cfg.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeConfigRepositoryCreateInactiveSkipsDeactivation(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeConfigRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO grade_configurations")).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.GradeConfiguration{Name: "Draft", CalculationMethod: grading.MethodAverageAll})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
