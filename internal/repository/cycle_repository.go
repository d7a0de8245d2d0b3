package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/it-logbook-api/internal/models"
)

// CycleRepository provides persistence for internship program cycles.
type CycleRepository struct {
	db *sqlx.DB
}

// NewCycleRepository creates the repository.
func NewCycleRepository(db *sqlx.DB) *CycleRepository {
	return &CycleRepository{db: db}
}

// List returns program cycles, most recent start date first.
func (r *CycleRepository) List(ctx context.Context) ([]models.ProgramCycle, error) {
	const query = `SELECT id, name, start_date, end_date FROM program_cycles ORDER BY start_date DESC`
	var cycles []models.ProgramCycle
	if err := r.db.SelectContext(ctx, &cycles, query); err != nil {
		return nil, fmt.Errorf("list program cycles: %w", err)
	}
	return cycles, nil
}

// Create inserts a new program cycle.
func (r *CycleRepository) Create(ctx context.Context, cycle *models.ProgramCycle) error {
	if cycle.ID == "" {
		cycle.ID = uuid.NewString()
	}
	const query = `INSERT INTO program_cycles (id, name, start_date, end_date) VALUES (:id, :name, :start_date, :end_date)`
	if _, err := r.db.NamedExecContext(ctx, query, cycle); err != nil {
		return fmt.Errorf("create program cycle: %w", err)
	}
	return nil
}

// Delete removes a program cycle.
func (r *CycleRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM program_cycles WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete program cycle: %w", err)
	}
	return nil
}
