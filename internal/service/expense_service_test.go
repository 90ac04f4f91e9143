package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seatwise/seatwise-api/internal/models"
	appErrors "github.com/seatwise/seatwise-api/pkg/errors"
)

type mockExpenseRepo struct {
	expenses []models.Expense
}

func (m *mockExpenseRepo) List(ctx context.Context, filter models.ExpenseFilter) ([]models.Expense, int, error) {
	return m.expenses, len(m.expenses), nil
}

func (m *mockExpenseRepo) Create(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = "new-expense"
	}
	m.expenses = append(m.expenses, *expense)
	return nil
}

func TestExpenseCreateDefaultsDate(t *testing.T) {
	repo := &mockExpenseRepo{}
	audit := &recordedAudit{}
	svc := NewExpenseService(repo, audit, validator.New(), zap.NewNop())

	expense, err := svc.Create(context.Background(), CreateExpenseRequest{Category: "electricity", Amount: 2400})
	require.NoError(t, err)
	assert.Equal(t, "electricity", expense.Category)
	assert.False(t, expense.IncurredOn.IsZero())
	assert.Equal(t, expense.IncurredOn, expense.IncurredOn.Truncate(24*time.Hour))
	assert.Contains(t, audit.actions, models.AuditActionExpenseCreate)
}

func TestExpenseCreateExplicitDate(t *testing.T) {
	repo := &mockExpenseRepo{}
	svc := NewExpenseService(repo, &recordedAudit{}, validator.New(), zap.NewNop())

	incurred := time.Date(2024, 2, 10, 18, 45, 0, 0, time.UTC)
	expense, err := svc.Create(context.Background(), CreateExpenseRequest{Category: "rent", Amount: 15000, IncurredOn: &incurred})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), expense.IncurredOn)
}

func TestExpenseCreateValidation(t *testing.T) {
	svc := NewExpenseService(&mockExpenseRepo{}, &recordedAudit{}, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateExpenseRequest{Category: "", Amount: 100})
	require.Error(t, err)
	assert.True(t, appErrors.IsKind(err, appErrors.ErrValidation.Code))
}
