package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/seatwise/seatwise-api/internal/models"
	appErrors "github.com/seatwise/seatwise-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindDetailByID(ctx context.Context, id string) (*models.StudentDetail, error)
	Create(ctx context.Context, student *models.Student) error
	UpdateProfile(ctx context.Context, student *models.Student) error
	ToggleActive(ctx context.Context, id string) (*models.Student, error)
}

// CreateStudentRequest holds payload for registering students.
type CreateStudentRequest struct {
	FullName       string `json:"full_name" validate:"required"`
	Phone          string `json:"phone"`
	Email          string `json:"email" validate:"omitempty,email"`
	Address        string `json:"address"`
	PreferredShift string `json:"preferred_shift"`
	FeePlanType    string `json:"fee_plan_type"`
	FeeCycle       string `json:"fee_cycle"`
	LimitedDays    int    `json:"limited_days" validate:"gte=0"`
}

// UpdateStudentRequest is the narrow profile patch. Seat, plan, renewal
// and registration fields are not part of it; those change only through
// the assignment and payment flows.
type UpdateStudentRequest struct {
	FullName       string `json:"full_name" validate:"required"`
	Phone          string `json:"phone"`
	Email          string `json:"email" validate:"omitempty,email"`
	Address        string `json:"address"`
	PreferredShift string `json:"preferred_shift"`
	FeePlanType    string `json:"fee_plan_type"`
	FeeCycle       string `json:"fee_cycle"`
	LimitedDays    int    `json:"limited_days" validate:"gte=0"`
}

// StudentService handles student directory use-cases.
type StudentService struct {
	repo      studentRepository
	audit     auditTrail
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, audit auditTrail, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns detailed student information.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a new student with membership defaults applied. Seat
// and plan assignment are separate operations composed by the caller.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	student := &models.Student{
		FullName:         req.FullName,
		Phone:            req.Phone,
		Email:            req.Email,
		Address:          req.Address,
		Active:           true,
		RegistrationPaid: false,
		PreferredShift:   req.PreferredShift,
		FeePlanType:      req.FeePlanType,
		FeeCycle:         req.FeeCycle,
		LimitedDays:      req.LimitedDays,
		JoinDate:         time.Now().UTC(),
	}
	if student.PreferredShift == "" {
		student.PreferredShift = models.DefaultPreferredShift
	}
	if student.FeePlanType == "" {
		student.FeePlanType = models.DefaultFeePlanType
	}
	if student.FeeCycle == "" {
		student.FeeCycle = models.DefaultFeeCycle
	}

	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to create student")
	}

	s.audit.Record(ctx, "student", student.ID, models.AuditActionStudentCreate, map[string]interface{}{"full_name": student.FullName})
	return student, nil
}

// Update merges the profile patch onto the existing record.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load student")
	}

	student.FullName = req.FullName
	student.Phone = req.Phone
	student.Email = req.Email
	student.Address = req.Address
	student.PreferredShift = req.PreferredShift
	student.FeePlanType = req.FeePlanType
	student.FeeCycle = req.FeeCycle
	student.LimitedDays = req.LimitedDays

	if err := s.repo.UpdateProfile(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to update student")
	}

	s.audit.Record(ctx, "student", student.ID, models.AuditActionStudentUpdate, nil)
	return student, nil
}

// ToggleActive flips the active flag. Each call is a state transition:
// two calls in a row return the student to the original value.
func (s *StudentService) ToggleActive(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.ToggleActive(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to toggle student")
	}

	s.audit.Record(ctx, "student", student.ID, models.AuditActionStudentToggle, map[string]interface{}{"active": student.Active})
	return student, nil
}
