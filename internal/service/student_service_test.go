package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-results-api/internal/models"
	appErrors "github.com/noah-isme/sma-results-api/pkg/errors"
)

type mockClassLookup struct {
	classes map[string]models.Class
}

func (m *mockClassLookup) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if c, ok := m.classes[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

type mockStudentRepo struct {
	students   map[string]models.Student
	lastFilter models.StudentFilter
	listTotal  int
	deleted    []string
	err        error
	seq        int
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	m.lastFilter = filter
	if m.err != nil {
		return nil, 0, m.err
	}
	details := make([]models.StudentDetail, 0, len(m.students))
	for _, s := range m.students {
		details = append(details, models.StudentDetail{Student: s})
	}
	return details, m.listTotal, nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	if s, ok := m.students[id]; ok {
		return &models.StudentDetail{Student: s}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) ExistsByExamNumber(ctx context.Context, examNumber, excludeID string) (bool, error) {
	for id, s := range m.students {
		if s.ExamNumber == examNumber && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStudentRepo) CountByClass(ctx context.Context, classID string) (int, error) {
	count := 0
	for _, s := range m.students {
		if s.ClassID == classID {
			count++
		}
	}
	return count, nil
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if m.students == nil {
		m.students = make(map[string]models.Student)
	}
	m.seq++
	student.ID = fmt.Sprintf("stu-%d", m.seq)
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error {
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) Delete(ctx context.Context, id string) error {
	delete(m.students, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func newStudentServiceForTest(repo *mockStudentRepo) *StudentService {
	classes := &mockClassLookup{classes: map[string]models.Class{
		"class-1": {ID: "class-1", Name: "Form 4 Blue", AcademicYear: "2025/2026", Term: "Term 1"},
		"class-2": {ID: "class-2", Name: "Remedial", AcademicYear: "2025/2026", Term: "Term 1"},
	}}
	svc := NewStudentService(repo, classes, nil, nil, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC) }
	return svc
}

func TestFormatExamNumber(t *testing.T) {
	now := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "24-4001", FormatExamNumber("Form 4 Blue", 1, now))
	assert.Equal(t, "24-12015", FormatExamNumber("Grade 12 A", 15, now))
	assert.Equal(t, "24-0100", FormatExamNumber("Remedial", 100, now))
	assert.Equal(t, "24-31234", FormatExamNumber("S3", 1234, now))
}

func TestStudentServiceCreateGeneratesExamNumber(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{
		"old": {ID: "old", ExamNumber: "26-4001", ClassID: "class-1"},
	}}
	svc := newStudentServiceForTest(repo)

	student, err := svc.Create(context.Background(), StudentRequest{Name: "  Ada Obi ", ClassID: "class-1"})
	require.NoError(t, err)
	assert.Equal(t, "26-4002", student.ExamNumber)
	assert.Equal(t, "Ada Obi", student.Name)
}

func TestStudentServiceCreateSkipsTakenGeneratedNumber(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{
		"moved": {ID: "moved", ExamNumber: "26-0001", ClassID: "class-1"},
	}}
	svc := newStudentServiceForTest(repo)

	student, err := svc.Create(context.Background(), StudentRequest{Name: "Bola", ClassID: "class-2"})
	require.NoError(t, err)
	assert.Equal(t, "26-0002", student.ExamNumber)
}

func TestStudentServiceCreateDuplicateExamNumber(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{
		"s1": {ID: "s1", ExamNumber: "26-4001", ClassID: "class-1"},
	}}
	svc := newStudentServiceForTest(repo)

	_, err := svc.Create(context.Background(), StudentRequest{ExamNumber: " 26-4001", Name: "Chi", ClassID: "class-1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
}

func TestStudentServiceCreateUnknownClass(t *testing.T) {
	svc := newStudentServiceForTest(&mockStudentRepo{})

	_, err := svc.Create(context.Background(), StudentRequest{Name: "Chi", ClassID: "nope"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestStudentServiceCreateValidation(t *testing.T) {
	svc := newStudentServiceForTest(&mockStudentRepo{})

	_, err := svc.Create(context.Background(), StudentRequest{ClassID: "class-1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestStudentServiceUpdate(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{
		"s1": {ID: "s1", ExamNumber: "26-4001", Name: "Old", ClassID: "class-1"},
		"s2": {ID: "s2", ExamNumber: "26-4002", Name: "Other", ClassID: "class-1"},
	}}
	svc := newStudentServiceForTest(repo)

	updated, err := svc.Update(context.Background(), "s1", StudentRequest{Name: "New", ClassID: "class-2"})
	require.NoError(t, err)
	assert.Equal(t, "26-4001", updated.ExamNumber)
	assert.Equal(t, "class-2", repo.students["s1"].ClassID)

	_, err = svc.Update(context.Background(), "s1", StudentRequest{ExamNumber: "26-4002", Name: "New", ClassID: "class-1"})
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	_, err = svc.Update(context.Background(), "missing", StudentRequest{Name: "New", ClassID: "class-1"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestStudentServiceDelete(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{"s1": {ID: "s1"}}}
	svc := newStudentServiceForTest(repo)

	require.NoError(t, svc.Delete(context.Background(), "s1"))
	assert.Equal(t, []string{"s1"}, repo.deleted)
	assert.True(t, errors.Is(svc.Delete(context.Background(), "s1"), appErrors.ErrNotFound))
}

func TestStudentServiceListPagination(t *testing.T) {
	repo := &mockStudentRepo{listTotal: 42}
	svc := newStudentServiceForTest(repo)

	_, pagination, err := svc.List(context.Background(), models.StudentFilter{ClassID: "class-1", Page: 0, PageSize: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 42, pagination.TotalCount)
	assert.Equal(t, "class-1", repo.lastFilter.ClassID)

	repo.err = errors.New("db down")
	_, _, err = svc.List(context.Background(), models.StudentFilter{})
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
}
