package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/seatwise/seatwise-api/internal/models"
	appErrors "github.com/seatwise/seatwise-api/pkg/errors"
)

type expenseRepository interface {
	List(ctx context.Context, filter models.ExpenseFilter) ([]models.Expense, int, error)
	Create(ctx context.Context, expense *models.Expense) error
}

// CreateExpenseRequest holds payload for recording an operating expense.
type CreateExpenseRequest struct {
	Category   string     `json:"category" validate:"required"`
	Amount     float64    `json:"amount" validate:"gt=0"`
	Notes      string     `json:"notes"`
	IncurredOn *time.Time `json:"incurred_on"`
}

// ExpenseService records the space's operating costs.
type ExpenseService struct {
	repo      expenseRepository
	audit     auditTrail
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExpenseService constructs the expense service.
func NewExpenseService(repo expenseRepository, audit auditTrail, validate *validator.Validate, logger *zap.Logger) *ExpenseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpenseService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// List returns expenses and pagination metadata.
func (s *ExpenseService) List(ctx context.Context, filter models.ExpenseFilter) ([]models.Expense, *models.Pagination, error) {
	expenses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to list expenses")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return expenses, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Create records an expense. The incurred date defaults to today.
func (s *ExpenseService) Create(ctx context.Context, req CreateExpenseRequest) (*models.Expense, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid expense payload")
	}

	incurred := dateOnly(time.Now().UTC())
	if req.IncurredOn != nil {
		incurred = dateOnly(*req.IncurredOn)
	}

	expense := &models.Expense{
		Category:   req.Category,
		Amount:     req.Amount,
		Notes:      req.Notes,
		IncurredOn: incurred,
	}
	if err := s.repo.Create(ctx, expense); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to create expense")
	}

	s.audit.Record(ctx, "expense", expense.ID, models.AuditActionExpenseCreate, map[string]interface{}{"category": expense.Category, "amount": expense.Amount})
	return expense, nil
}
