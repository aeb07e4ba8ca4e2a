package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-results-api/internal/models"
)

const gradeConfigColumns = "id, name, calculation_method, weight_qa1, weight_qa2, weight_end_of_term, pass_mark, is_active, created_at, updated_at"

// GradeConfigRepository manages grade configuration persistence.
type GradeConfigRepository struct {
	db *sqlx.DB
}

// NewGradeConfigRepository creates a new repository instance.
func NewGradeConfigRepository(db *sqlx.DB) *GradeConfigRepository {
	return &GradeConfigRepository{db: db}
}

// List returns every configuration, active first.
func (r *GradeConfigRepository) List(ctx context.Context) ([]models.GradeConfiguration, error) {
	query := "SELECT " + gradeConfigColumns + " FROM grade_configurations ORDER BY is_active DESC, created_at DESC"
	var configs []models.GradeConfiguration
	if err := r.db.SelectContext(ctx, &configs, query); err != nil {
		return nil, fmt.Errorf("list grade configurations: %w", err)
	}
	return configs, nil
}

// FindByID returns a configuration by ID.
func (r *GradeConfigRepository) FindByID(ctx context.Context, id string) (*models.GradeConfiguration, error) {
	query := "SELECT " + gradeConfigColumns + " FROM grade_configurations WHERE id = $1"
	var config models.GradeConfiguration
	if err := r.db.GetContext(ctx, &config, query, id); err != nil {
		return nil, err
	}
	return &config, nil
}

// FindActive returns the active configuration or sql.ErrNoRows.
func (r *GradeConfigRepository) FindActive(ctx context.Context) (*models.GradeConfiguration, error) {
	query := "SELECT " + gradeConfigColumns + " FROM grade_configurations WHERE is_active = TRUE ORDER BY updated_at DESC LIMIT 1"
	var config models.GradeConfiguration
	if err := r.db.GetContext(ctx, &config, query); err != nil {
		return nil, err
	}
	return &config, nil
}

// Create inserts a configuration. An active configuration deactivates the others in the same transaction.
func (r *GradeConfigRepository) Create(ctx context.Context, config *models.GradeConfiguration) error {
	if config.ID == "" {
		config.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if config.CreatedAt.IsZero() {
		config.CreatedAt = now
	}
	config.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if config.IsActive {
		if err := deactivateAllTx(ctx, tx, now); err != nil {
			tx.Rollback() //nolint:errcheck
			return err
		}
	}
	const insert = `INSERT INTO grade_configurations (id, name, calculation_method, weight_qa1, weight_qa2, weight_end_of_term, pass_mark, is_active, created_at, updated_at)
        VALUES (:id, :name, :calculation_method, :weight_qa1, :weight_qa2, :weight_end_of_term, :pass_mark, :is_active, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insert, config); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("insert grade configuration: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit grade configuration: %w", err)
	}
	return nil
}

// Update applies changes to a configuration. Activation goes through Activate.
func (r *GradeConfigRepository) Update(ctx context.Context, config *models.GradeConfiguration) error {
	config.UpdatedAt = time.Now().UTC()
	const query = `UPDATE grade_configurations SET name = :name, calculation_method = :calculation_method, weight_qa1 = :weight_qa1,
        weight_qa2 = :weight_qa2, weight_end_of_term = :weight_end_of_term, pass_mark = :pass_mark, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, config); err != nil {
		return fmt.Errorf("update grade configuration: %w", err)
	}
	return nil
}

// Activate marks id as the only active configuration.
func (r *GradeConfigRepository) Activate(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if err := deactivateAllTx(ctx, tx, now); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE grade_configurations SET is_active = TRUE, updated_at = $2 WHERE id = $1`, id, now); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("activate grade configuration: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit grade configuration activation: %w", err)
	}
	return nil
}

func deactivateAllTx(ctx context.Context, tx *sqlx.Tx, now time.Time) error {
	if _, err := tx.ExecContext(ctx, `UPDATE grade_configurations SET is_active = FALSE, updated_at = $1 WHERE is_active = TRUE`, now); err != nil {
		return fmt.Errorf("deactivate grade configurations: %w", err)
	}
	return nil
}
