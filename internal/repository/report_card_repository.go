package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-results-api/internal/models"
)

// ReportCardRepository stores attendance and remarks entered for report cards.
type ReportCardRepository struct {
	db *sqlx.DB
}

// NewReportCardRepository constructs a ReportCardRepository.
func NewReportCardRepository(db *sqlx.DB) *ReportCardRepository {
	return &ReportCardRepository{db: db}
}

// FindByStudent returns the report card row of a student or sql.ErrNoRows.
func (r *ReportCardRepository) FindByStudent(ctx context.Context, studentID string) (*models.ReportCard, error) {
	const query = `SELECT id, student_id, days_present, days_absent, days_late, teacher_remarks, created_at, updated_at FROM report_cards WHERE student_id = $1`
	var card models.ReportCard
	if err := r.db.GetContext(ctx, &card, query, studentID); err != nil {
		return nil, err
	}
	return &card, nil
}

// Upsert creates or replaces the report card row of the card's student.
func (r *ReportCardRepository) Upsert(ctx context.Context, card *models.ReportCard) error {
	if card.ID == "" {
		card.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if card.CreatedAt.IsZero() {
		card.CreatedAt = now
	}
	card.UpdatedAt = now

	const query = `INSERT INTO report_cards (id, student_id, days_present, days_absent, days_late, teacher_remarks, created_at, updated_at)
        VALUES (:id, :student_id, :days_present, :days_absent, :days_late, :teacher_remarks, :created_at, :updated_at)
        ON CONFLICT (student_id) DO UPDATE SET days_present = EXCLUDED.days_present, days_absent = EXCLUDED.days_absent,
        days_late = EXCLUDED.days_late, teacher_remarks = EXCLUDED.teacher_remarks, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, card); err != nil {
		return fmt.Errorf("upsert report card: %w", err)
	}
	return nil
}
