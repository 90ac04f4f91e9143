package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/seatwise/seatwise-api/internal/models"
)

// ExpenseRepository persists operating expenses.
type ExpenseRepository struct {
	db *sqlx.DB
}

// NewExpenseRepository constructs an ExpenseRepository.
func NewExpenseRepository(db *sqlx.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

// List returns expenses matching the provided filters.
func (r *ExpenseRepository) List(ctx context.Context, filter models.ExpenseFilter) ([]models.Expense, int, error) {
	base := "FROM expenses"
	var conditions []string
	var args []interface{}

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("incurred_on >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("incurred_on < $%d", len(args)+1))
		args = append(args, *filter.To)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, category, amount, notes, incurred_on, created_at
        %s ORDER BY incurred_on DESC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var expenses []models.Expense
	if err := r.db.SelectContext(ctx, &expenses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list expenses: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count expenses: %w", err)
	}
	return expenses, total, nil
}

// Create inserts a new expense record.
func (r *ExpenseRepository) Create(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.NewString()
	}
	expense.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO expenses (id, category, amount, notes, incurred_on, created_at)
        VALUES (:id, :category, :amount, :notes, :incurred_on, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, expense); err != nil {
		return fmt.Errorf("create expense: %w", err)
	}
	return nil
}

// SumBetween totals expenses incurred in the half-open interval [from, to).
func (r *ExpenseRepository) SumBetween(ctx context.Context, from, to time.Time) (float64, error) {
	const query = "SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE incurred_on >= $1 AND incurred_on < $2"
	var total float64
	if err := r.db.GetContext(ctx, &total, query, from, to); err != nil {
		return 0, fmt.Errorf("sum expenses: %w", err)
	}
	return total, nil
}
