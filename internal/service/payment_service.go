package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/seatwise/seatwise-api/internal/models"
	appErrors "github.com/seatwise/seatwise-api/pkg/errors"
)

type paymentRepository interface {
	List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	Create(ctx context.Context, payment *models.Payment) error
}

type payerRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ApplyPayment(ctx context.Context, studentID, planID string, renewalDate time.Time, includesRegistration bool) (*models.Student, error)
}

type planReader interface {
	Get(ctx context.Context, id string) (*models.Plan, error)
}

// CreatePaymentRequest holds payload for collecting a fee.
type CreatePaymentRequest struct {
	StudentID            string             `json:"student_id" validate:"required"`
	PlanID               string             `json:"plan_id" validate:"required"`
	AmountPaid           *float64           `json:"amount_paid"`
	ValidFrom            *time.Time         `json:"valid_from"`
	ValidUntil           *time.Time         `json:"valid_until"`
	Mode                 models.PaymentMode `json:"mode" validate:"required,oneof=upi cash"`
	IncludesRegistration bool               `json:"includes_registration"`
	Notes                string             `json:"notes"`
}

// PaymentResult carries the created payment and the student it renewed.
type PaymentResult struct {
	Payment *models.Payment `json:"payment"`
	Student *models.Student `json:"student"`
}

// PaymentService records fee collections and is the sole writer of a
// student's renewal window.
type PaymentService struct {
	payments  paymentRepository
	students  payerRepository
	plans     planReader
	audit     auditTrail
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewPaymentService constructs the payment service.
func NewPaymentService(payments paymentRepository, students payerRepository, plans planReader, audit auditTrail, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		payments:  payments,
		students:  students,
		plans:     plans,
		audit:     audit,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns payments and pagination metadata.
func (s *PaymentService) List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, *models.Pagination, error) {
	payments, total, err := s.payments.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to list payments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return payments, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a payment by id.
func (s *PaymentService) Get(ctx context.Context, id string) (*models.Payment, error) {
	payment, err := s.payments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load payment")
	}
	return payment, nil
}

// Create records a fee collection and extends the student's subscription
// window. Omitted fields default from the plan: valid_from to today,
// valid_until to valid_from plus the plan duration, amount to the plan
// price. The payment insert and the student update are sequential; a
// failure of the second is surfaced as a failure of the whole operation.
func (s *PaymentService) Create(ctx context.Context, req CreatePaymentRequest) (*PaymentResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load student")
	}

	plan, err := s.plans.Get(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}

	validFrom := dateOnly(s.now().UTC())
	if req.ValidFrom != nil {
		validFrom = dateOnly(*req.ValidFrom)
	}
	validUntil := validFrom.AddDate(0, 0, plan.DurationDays)
	if req.ValidUntil != nil {
		validUntil = dateOnly(*req.ValidUntil)
	}
	if !validUntil.After(validFrom) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "valid_until must be after valid_from")
	}

	// Non-numeric amounts (NaN, ±Inf) fall back to the plan price; a
	// negative but otherwise valid number is a caller mistake.
	amount := plan.Price
	if req.AmountPaid != nil && !math.IsNaN(*req.AmountPaid) && !math.IsInf(*req.AmountPaid, 0) {
		if *req.AmountPaid < 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "amount_paid must not be negative")
		}
		amount = *req.AmountPaid
	}

	payment := &models.Payment{
		StudentID:            student.ID,
		PlanID:               plan.ID,
		AmountPaid:           amount,
		ValidFrom:            validFrom,
		ValidUntil:           validUntil,
		Mode:                 req.Mode,
		IncludesRegistration: req.IncludesRegistration,
		Notes:                req.Notes,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to create payment")
	}

	updatedStudent, err := s.students.ApplyPayment(ctx, student.ID, plan.ID, validUntil, req.IncludesRegistration)
	if err != nil {
		// The payment row is durable at this point; the renewal write is
		// the second half of the sequence and its failure fails the
		// whole operation.
		s.logger.Sugar().Errorw("payment recorded but renewal update failed", "payment_id", payment.ID, "student_id", student.ID, "error", err)
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to update student renewal")
	}

	s.audit.Record(ctx, "payment", payment.ID, models.AuditActionPaymentCreate, map[string]interface{}{
		"student_id": student.ID,
		"plan_id":    plan.ID,
		"amount":     amount,
	})
	s.audit.Record(ctx, "student", student.ID, models.AuditActionStudentRenewal, map[string]interface{}{
		"renewal_date": validUntil.Format("2006-01-02"),
	})

	return &PaymentResult{Payment: payment, Student: updatedStudent}, nil
}

// dateOnly strips the time component, keeping the calendar date in UTC.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
