package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-results-api/internal/models"
)

// ClassSubjectRepository manages which subjects are taught in which class.
type ClassSubjectRepository struct {
	db *sqlx.DB
}

// NewClassSubjectRepository creates a new repository.
func NewClassSubjectRepository(db *sqlx.DB) *ClassSubjectRepository {
	return &ClassSubjectRepository{db: db}
}

// ListSubjects returns the subjects assigned to a class ordered by name.
func (r *ClassSubjectRepository) ListSubjects(ctx context.Context, classID string) ([]models.Subject, error) {
	const query = `SELECT s.id, s.name, s.code, s.created_at, s.updated_at
        FROM class_subjects cs
        JOIN subjects s ON s.id = cs.subject_id
        WHERE cs.class_id = $1
        ORDER BY s.name ASC`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query, classID); err != nil {
		return nil, fmt.Errorf("list class subjects: %w", err)
	}
	return subjects, nil
}

// Assign links a subject to a class unless the link already exists.
func (r *ClassSubjectRepository) Assign(ctx context.Context, classID, subjectID string) error {
	mapping := models.ClassSubject{
		ID:        uuid.NewString(),
		ClassID:   classID,
		SubjectID: subjectID,
		CreatedAt: time.Now().UTC(),
	}
	const query = `INSERT INTO class_subjects (id, class_id, subject_id, created_at) VALUES (:id, :class_id, :subject_id, :created_at)
        ON CONFLICT (class_id, subject_id) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, &mapping); err != nil {
		return fmt.Errorf("assign class subject: %w", err)
	}
	return nil
}

// ReplaceAssignments sets the subjects of a class within a transaction.
func (r *ClassSubjectRepository) ReplaceAssignments(ctx context.Context, classID string, subjectIDs []string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace class subjects: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM class_subjects WHERE class_id = $1`, classID); err != nil {
		return fmt.Errorf("clear existing class subjects: %w", err)
	}

	now := time.Now().UTC()
	for _, subjectID := range subjectIDs {
		mapping := models.ClassSubject{ID: uuid.NewString(), ClassID: classID, SubjectID: subjectID, CreatedAt: now}
		if _, err = tx.NamedExecContext(ctx, `INSERT INTO class_subjects (id, class_id, subject_id, created_at) VALUES (:id, :class_id, :subject_id, :created_at)`, &mapping); err != nil {
			return fmt.Errorf("insert class subject: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace class subjects: %w", err)
	}
	return nil
}
