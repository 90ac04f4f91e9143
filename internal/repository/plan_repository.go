package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/seatwise/seatwise-api/internal/models"
)

// PlanRepository manages the plan catalog. Plans are reference data and
// are never updated once created.
type PlanRepository struct {
	db *sqlx.DB
}

// NewPlanRepository constructs a PlanRepository.
func NewPlanRepository(db *sqlx.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// List returns every plan ordered by price.
func (r *PlanRepository) List(ctx context.Context) ([]models.Plan, error) {
	const query = "SELECT id, name, price, duration_days, created_at FROM plans ORDER BY price ASC"
	var plans []models.Plan
	if err := r.db.SelectContext(ctx, &plans, query); err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	return plans, nil
}

// FindByID fetches a plan by ID.
func (r *PlanRepository) FindByID(ctx context.Context, id string) (*models.Plan, error) {
	const query = "SELECT id, name, price, duration_days, created_at FROM plans WHERE id = $1"
	var plan models.Plan
	if err := r.db.GetContext(ctx, &plan, query, id); err != nil {
		return nil, err
	}
	return &plan, nil
}

// Create inserts a new plan.
func (r *PlanRepository) Create(ctx context.Context, plan *models.Plan) error {
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	plan.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO plans (id, name, price, duration_days, created_at)
        VALUES (:id, :name, :price, :duration_days, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, plan); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicate
		}
		return fmt.Errorf("create plan: %w", err)
	}
	return nil
}
