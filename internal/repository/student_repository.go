package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-results-api/internal/models"
)

const studentDetailSelect = `SELECT s.id, s.exam_number, s.name, s.class_id, s.photo_url, s.created_at, s.updated_at,
        c.name AS class_name, c.term, c.academic_year, c.class_code`

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	base := "FROM students s JOIN classes c ON c.id = s.class_id"
	var args []interface{}
	conditions := []string{"1=1"}

	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("s.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.name) LIKE $%d OR LOWER(s.exam_number) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"name":        "s.name",
		"exam_number": "s.exam_number",
		"created_at":  "s.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "s.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	size, offset := pageWindow(filter.Page, filter.PageSize)

	query := fmt.Sprintf("%s\n        %s ORDER BY %s %s LIMIT %d OFFSET %d", studentDetailSelect, base, column, order, size, offset)

	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// ListByClass returns every student of a class in roster order.
func (r *StudentRepository) ListByClass(ctx context.Context, classID string) ([]models.Student, error) {
	const query = `SELECT id, exam_number, name, class_id, photo_url, created_at, updated_at FROM students WHERE class_id = $1 ORDER BY name ASC, exam_number ASC`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, classID); err != nil {
		return nil, fmt.Errorf("list class students: %w", err)
	}
	return students, nil
}

// FindByID returns a student with class context.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	query := studentDetailSelect + "\n        FROM students s JOIN classes c ON c.id = s.class_id WHERE s.id = $1"
	var student models.StudentDetail
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByExamNumber looks a student up by exam number, ignoring case and surrounding spaces.
func (r *StudentRepository) FindByExamNumber(ctx context.Context, examNumber string) (*models.StudentDetail, error) {
	query := studentDetailSelect + "\n        FROM students s JOIN classes c ON c.id = s.class_id WHERE UPPER(s.exam_number) = UPPER($1)"
	var student models.StudentDetail
	if err := r.db.GetContext(ctx, &student, query, strings.TrimSpace(examNumber)); err != nil {
		return nil, err
	}
	return &student, nil
}

// ExistsByExamNumber checks exam number uniqueness.
func (r *StudentRepository) ExistsByExamNumber(ctx context.Context, examNumber, excludeID string) (bool, error) {
	query := "SELECT 1 FROM students WHERE UPPER(exam_number) = UPPER($1)"
	args := []interface{}{examNumber}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check exam number: %w", err)
	}
	return true, nil
}

// CountByClass returns the class head count.
func (r *StudentRepository) CountByClass(ctx context.Context, classID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM students WHERE class_id = $1`, classID); err != nil {
		return 0, fmt.Errorf("count students by class: %w", err)
	}
	return count, nil
}

// Create inserts a new student.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now

	const query = `INSERT INTO students (id, exam_number, name, class_id, photo_url, created_at, updated_at)
        VALUES (:id, :exam_number, :name, :class_id, :photo_url, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET exam_number = :exam_number, name = :name, class_id = :class_id, photo_url = :photo_url, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// Delete removes a student and everything recorded against them.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	for _, stmt := range []string{
		`DELETE FROM assessments WHERE student_id = $1`,
		`DELETE FROM report_cards WHERE student_id = $1`,
		`DELETE FROM students WHERE id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("delete student: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete student: %w", err)
	}
	return nil
}
