package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/seatwise/seatwise-api/internal/models"
	"github.com/seatwise/seatwise-api/internal/repository"
	appErrors "github.com/seatwise/seatwise-api/pkg/errors"
)

type seatRepository interface {
	List(ctx context.Context, filter models.SeatFilter) ([]models.SeatDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Seat, error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)
	Create(ctx context.Context, seat *models.Seat) error
	Occupy(ctx context.Context, seatID, studentID string) (*models.Seat, error)
	Release(ctx context.Context, seatID string) (*models.Seat, error)
	SetAvailable(ctx context.Context, seatID string) (*models.Seat, error)
	SetMaintenance(ctx context.Context, seatID string) (*models.Seat, error)
}

type seatHolderRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ClaimSeat(ctx context.Context, studentID, seatID string) (*models.Student, error)
	ReleaseSeat(ctx context.Context, studentID, seatID string) (*models.Student, error)
}

// CreateSeatRequest holds payload for registering seats.
type CreateSeatRequest struct {
	SeatNumber string `json:"seat_number" validate:"required"`
	Status     string `json:"status" validate:"omitempty,oneof=available maintenance"`
}

// AssignSeatRequest names the student a seat is assigned to.
type AssignSeatRequest struct {
	StudentID string `json:"student_id" validate:"required"`
}

// AssignmentResult carries both sides of a completed assignment.
type AssignmentResult struct {
	Seat    *models.Seat    `json:"seat"`
	Student *models.Student `json:"student"`
}

// DeallocationResult carries the freed seat and, when the seat had an
// occupant, the unlinked student.
type DeallocationResult struct {
	Seat    *models.Seat    `json:"seat"`
	Student *models.Student `json:"student,omitempty"`
}

// AssignmentService keeps the seat-student link bidirectionally
// consistent. Both sides of an assignment are written through guarded
// single-row updates, so a caller either sees the operation fully
// applied or rejected with a specific error.
type AssignmentService struct {
	seats     seatRepository
	students  seatHolderRepository
	audit     auditTrail
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssignmentService constructs the assignment service.
func NewAssignmentService(seats seatRepository, students seatHolderRepository, audit auditTrail, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{seats: seats, students: students, audit: audit, validator: validate, logger: logger}
}

// ListSeats returns seats and pagination metadata.
func (s *AssignmentService) ListSeats(ctx context.Context, filter models.SeatFilter) ([]models.SeatDetail, *models.Pagination, error) {
	seats, total, err := s.seats.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to list seats")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return seats, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// GetSeat returns a seat by id.
func (s *AssignmentService) GetSeat(ctx context.Context, id string) (*models.Seat, error) {
	seat, err := s.seats.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "seat not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load seat")
	}
	return seat, nil
}

// CreateSeat registers a new seat. Seat numbers are normalized to
// uppercase and must be unique regardless of case.
func (s *AssignmentService) CreateSeat(ctx context.Context, req CreateSeatRequest) (*models.Seat, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid seat payload")
	}
	number := strings.ToUpper(strings.TrimSpace(req.SeatNumber))
	if number == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "seat number required")
	}
	status := models.SeatStatus(req.Status)
	if req.Status == "" {
		status = models.SeatStatusAvailable
	}

	exists, err := s.seats.ExistsByNumber(ctx, number)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to validate seat number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "seat number already exists")
	}

	seat := &models.Seat{SeatNumber: number, Status: status}
	if err := s.seats.Create(ctx, seat); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "seat number already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to create seat")
	}

	s.audit.Record(ctx, "seat", seat.ID, models.AuditActionSeatCreate, map[string]interface{}{"seat_number": seat.SeatNumber})
	return seat, nil
}

// AssignSeat links a free seat to an unseated student. Preconditions are
// checked in order against a fresh read; the writes themselves re-check
// them, so a concurrent assignment loses cleanly instead of
// double-booking.
func (s *AssignmentService) AssignSeat(ctx context.Context, seatID string, req AssignSeatRequest) (*AssignmentResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	seat, err := s.seats.FindByID(ctx, seatID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "seat not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load seat")
	}
	if seat.Status == models.SeatStatusMaintenance {
		return nil, appErrors.Clone(appErrors.ErrConflict, "seat under maintenance")
	}
	if seat.CurrentStudentID != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "seat already occupied")
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load student")
	}
	if student.CurrentSeatID != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already has a seat")
	}

	updatedSeat, err := s.seats.Occupy(ctx, seatID, student.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "seat already occupied")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to occupy seat")
	}

	updatedStudent, err := s.students.ClaimSeat(ctx, student.ID, seatID)
	if err != nil {
		s.rollbackOccupy(ctx, seatID, student.ID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "student already has a seat")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to link student to seat")
	}

	s.audit.Record(ctx, "seat", seatID, models.AuditActionSeatAssign, map[string]interface{}{"student_id": student.ID})
	s.audit.Record(ctx, "student", student.ID, models.AuditActionSeatAssign, map[string]interface{}{"seat_id": seatID})

	return &AssignmentResult{Seat: updatedSeat, Student: updatedStudent}, nil
}

// rollbackOccupy releases a seat claimed by a failed assignment so a
// half-applied link is not left behind. The original failure is reported
// regardless of the compensation outcome.
func (s *AssignmentService) rollbackOccupy(ctx context.Context, seatID, studentID string) {
	if _, err := s.seats.Release(ctx, seatID); err != nil {
		s.logger.Sugar().Errorw("failed to release seat after aborted assignment", "seat_id", seatID, "student_id", studentID, "error", err)
	}
}

// DeallocateSeat frees a seat and unlinks its occupant if any. Calling
// it on an already available seat succeeds and re-writes the same state.
func (s *AssignmentService) DeallocateSeat(ctx context.Context, seatID string) (*DeallocationResult, error) {
	seat, err := s.seats.FindByID(ctx, seatID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "seat not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load seat")
	}
	occupant := seat.CurrentStudentID

	updatedSeat, err := s.seats.Release(ctx, seatID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to release seat")
	}

	result := &DeallocationResult{Seat: updatedSeat}
	if occupant != nil {
		student, err := s.students.ReleaseSeat(ctx, *occupant, seatID)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to unlink student from seat")
			}
			// Student side was already clear; fall back to the current record.
			student, err = s.students.FindByID(ctx, *occupant)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load student")
			}
		}
		result.Student = student
		s.audit.Record(ctx, "student", *occupant, models.AuditActionSeatDeallocate, map[string]interface{}{"seat_id": seatID})
	}

	s.audit.Record(ctx, "seat", seatID, models.AuditActionSeatDeallocate, nil)
	return result, nil
}

// UpdateSeatStatus performs the administrative available/maintenance
// transition. Occupied seats are refused; they must be deallocated
// first.
func (s *AssignmentService) UpdateSeatStatus(ctx context.Context, seatID string, status models.SeatStatus) (*models.Seat, error) {
	if status != models.SeatStatusAvailable && status != models.SeatStatusMaintenance {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be available or maintenance")
	}

	seat, err := s.seats.FindByID(ctx, seatID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "seat not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load seat")
	}
	if seat.Status == models.SeatStatusOccupied {
		return nil, appErrors.Clone(appErrors.ErrConflict, "seat is occupied")
	}

	// Both writes are guarded on current_student_id IS NULL; an
	// assignment landing after the read above leaves zero rows.
	var updated *models.Seat
	if status == models.SeatStatusMaintenance {
		updated, err = s.seats.SetMaintenance(ctx, seatID)
	} else {
		updated, err = s.seats.SetAvailable(ctx, seatID)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "seat is occupied")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to update seat status")
	}

	s.audit.Record(ctx, "seat", seatID, models.AuditActionSeatStatus, map[string]interface{}{"status": string(status)})
	return updated, nil
}
