package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seatwise/seatwise-api/internal/models"
)

type mockSeatCounter struct{}

func (m *mockSeatCounter) CountByStatus(ctx context.Context) (*models.SeatOccupancy, error) {
	return &models.SeatOccupancy{Available: 12, Occupied: 30, Maintenance: 2}, nil
}

type mockStudentCounter struct{}

func (m *mockStudentCounter) CountActive(ctx context.Context) (int, error) {
	return 30, nil
}

type mockPaymentSummer struct {
	from, to time.Time
}

func (m *mockPaymentSummer) SumCollectedBetween(ctx context.Context, from, to time.Time) (float64, error) {
	m.from, m.to = from, to
	return 36000, nil
}

type mockExpenseSummer struct{}

func (m *mockExpenseSummer) SumBetween(ctx context.Context, from, to time.Time) (float64, error) {
	return 9500, nil
}

func TestDashboardSummary(t *testing.T) {
	payments := &mockPaymentSummer{}
	svc := NewDashboardService(&mockSeatCounter{}, &mockStudentCounter{}, payments, &mockExpenseSummer{}, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 30, summary.ActiveStudents)
	assert.Equal(t, 12, summary.Seats.Available)
	assert.Equal(t, 36000.0, summary.CollectedThisMonth)
	assert.Equal(t, 9500.0, summary.ExpensesThisMonth)
	// The money window is the current calendar month.
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), payments.from)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), payments.to)
}
