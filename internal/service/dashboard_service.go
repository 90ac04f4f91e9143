package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/seatwise/seatwise-api/internal/models"
	appErrors "github.com/seatwise/seatwise-api/pkg/errors"
)

type seatCounter interface {
	CountByStatus(ctx context.Context) (*models.SeatOccupancy, error)
}

type studentCounter interface {
	CountActive(ctx context.Context) (int, error)
}

type paymentSummer interface {
	SumCollectedBetween(ctx context.Context, from, to time.Time) (float64, error)
}

type expenseSummer interface {
	SumBetween(ctx context.Context, from, to time.Time) (float64, error)
}

// DashboardService aggregates occupancy and money figures for the
// current calendar month. Read-only; no invariants.
type DashboardService struct {
	seats    seatCounter
	students studentCounter
	payments paymentSummer
	expenses expenseSummer
	logger   *zap.Logger
	now      func() time.Time
}

// NewDashboardService constructs the dashboard service.
func NewDashboardService(seats seatCounter, students studentCounter, payments paymentSummer, expenses expenseSummer, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{seats: seats, students: students, payments: payments, expenses: expenses, logger: logger, now: time.Now}
}

// Summary returns the current month's aggregate view.
func (s *DashboardService) Summary(ctx context.Context) (*models.DashboardSummary, error) {
	occupancy, err := s.seats.CountByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to count seats")
	}
	active, err := s.students.CountActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to count students")
	}

	now := s.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	nextMonth := monthStart.AddDate(0, 1, 0)

	collected, err := s.payments.SumCollectedBetween(ctx, monthStart, nextMonth)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to sum payments")
	}
	spent, err := s.expenses.SumBetween(ctx, monthStart, nextMonth)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to sum expenses")
	}

	return &models.DashboardSummary{
		Seats:              *occupancy,
		ActiveStudents:     active,
		CollectedThisMonth: collected,
		ExpensesThisMonth:  spent,
	}, nil
}
