package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-results-api/internal/models"
)

const assessmentSelect = `SELECT a.id, a.student_id, a.subject_id, s.name AS subject_name, a.qa1, a.qa2, a.end_of_term,
        a.qa1_absent, a.qa2_absent, a.end_of_term_absent, a.created_at, a.updated_at
        FROM assessments a
        JOIN subjects s ON s.id = a.subject_id`

// AssessmentRepository persists per-subject scores.
type AssessmentRepository struct {
	db *sqlx.DB
}

// NewAssessmentRepository constructs an AssessmentRepository.
func NewAssessmentRepository(db *sqlx.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// ListByStudent returns the recorded assessments of one student ordered by subject name.
func (r *AssessmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Assessment, error) {
	query := assessmentSelect + "\n        WHERE a.student_id = $1 ORDER BY s.name ASC"
	var assessments []models.Assessment
	if err := r.db.SelectContext(ctx, &assessments, query, studentID); err != nil {
		return nil, fmt.Errorf("list student assessments: %w", err)
	}
	return assessments, nil
}

// ListByClass returns the assessments of every student in the class.
func (r *AssessmentRepository) ListByClass(ctx context.Context, classID string) ([]models.Assessment, error) {
	query := assessmentSelect + "\n        JOIN students st ON st.id = a.student_id\n        WHERE st.class_id = $1 ORDER BY a.student_id, s.name ASC"
	var assessments []models.Assessment
	if err := r.db.SelectContext(ctx, &assessments, query, classID); err != nil {
		return nil, fmt.Errorf("list class assessments: %w", err)
	}
	return assessments, nil
}

// BulkUpsert writes all assessments in a single transaction, replacing existing rows
// for the same student and subject.
func (r *AssessmentRepository) BulkUpsert(ctx context.Context, assessments []models.Assessment) error {
	if len(assessments) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	const upsert = `INSERT INTO assessments (id, student_id, subject_id, qa1, qa2, end_of_term, qa1_absent, qa2_absent, end_of_term_absent, created_at, updated_at)
        VALUES (:id, :student_id, :subject_id, :qa1, :qa2, :end_of_term, :qa1_absent, :qa2_absent, :end_of_term_absent, :created_at, :updated_at)
        ON CONFLICT (student_id, subject_id) DO UPDATE SET qa1 = EXCLUDED.qa1, qa2 = EXCLUDED.qa2, end_of_term = EXCLUDED.end_of_term,
        qa1_absent = EXCLUDED.qa1_absent, qa2_absent = EXCLUDED.qa2_absent, end_of_term_absent = EXCLUDED.end_of_term_absent, updated_at = EXCLUDED.updated_at`

	now := time.Now().UTC()
	for i := range assessments {
		if assessments[i].ID == "" {
			assessments[i].ID = uuid.NewString()
		}
		if assessments[i].CreatedAt.IsZero() {
			assessments[i].CreatedAt = now
		}
		assessments[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, upsert, assessments[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("upsert assessment: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit assessments: %w", err)
	}
	return nil
}
