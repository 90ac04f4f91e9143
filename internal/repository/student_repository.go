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

const studentColumns = `id, full_name, phone, email, address, active, current_seat_id, current_plan_id,
        renewal_date, registration_paid, preferred_shift, fee_plan_type, fee_cycle, limited_days, join_date,
        created_at, updated_at`

// StudentRepository manages persistence for students. Seat and renewal
// references are written through guarded statements so the assignment
// and payment flows never race a stale read.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	base := "FROM students st LEFT JOIN seats se ON se.id = st.current_seat_id LEFT JOIN plans p ON p.id = st.current_plan_id"
	var conditions []string
	var args []interface{}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("st.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.ExpiringBefore != nil {
		conditions = append(conditions, fmt.Sprintf("st.renewal_date IS NOT NULL AND st.renewal_date < $%d", len(args)+1))
		args = append(args, *filter.ExpiringBefore)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(st.full_name) LIKE $%d OR st.phone LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"full_name":    "st.full_name",
		"join_date":    "st.join_date",
		"renewal_date": "st.renewal_date",
		"created_at":   "st.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "st.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
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

	query := fmt.Sprintf(`SELECT st.id, st.full_name, st.phone, st.email, st.address, st.active,
        st.current_seat_id, st.current_plan_id, st.renewal_date, st.registration_paid, st.preferred_shift,
        st.fee_plan_type, st.fee_cycle, st.limited_days, st.join_date, st.created_at, st.updated_at,
        se.seat_number AS seat_number, p.name AS plan_name
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, column, order, size, offset)

	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE id = $1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindDetailByID fetches a student with seat and plan context.
func (r *StudentRepository) FindDetailByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	const query = `SELECT st.id, st.full_name, st.phone, st.email, st.address, st.active,
        st.current_seat_id, st.current_plan_id, st.renewal_date, st.registration_paid, st.preferred_shift,
        st.fee_plan_type, st.fee_cycle, st.limited_days, st.join_date, st.created_at, st.updated_at,
        se.seat_number AS seat_number, p.name AS plan_name
        FROM students st
        LEFT JOIN seats se ON se.id = st.current_seat_id
        LEFT JOIN plans p ON p.id = st.current_plan_id
        WHERE st.id = $1`
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, full_name, phone, email, address, active, current_seat_id,
        current_plan_id, renewal_date, registration_paid, preferred_shift, fee_plan_type, fee_cycle,
        limited_days, join_date, created_at, updated_at)
        VALUES (:id, :full_name, :phone, :email, :address, :active, :current_seat_id, :current_plan_id,
        :renewal_date, :registration_paid, :preferred_shift, :fee_plan_type, :fee_cycle, :limited_days,
        :join_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// UpdateProfile modifies the general profile fields of a student. Seat,
// plan, renewal and registration fields are deliberately not touched;
// those move only through ClaimSeat, ReleaseSeat and ApplyPayment.
func (r *StudentRepository) UpdateProfile(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET full_name = :full_name, phone = :phone, email = :email,
        address = :address, preferred_shift = :preferred_shift, fee_plan_type = :fee_plan_type,
        fee_cycle = :fee_cycle, limited_days = :limited_days, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// ToggleActive flips the active flag in a single statement and returns
// the updated record.
func (r *StudentRepository) ToggleActive(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf(`UPDATE students SET active = NOT active, updated_at = $2 WHERE id = $1
        RETURNING %s`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id, time.Now().UTC()); err != nil {
		return nil, err
	}
	return &student, nil
}

// ClaimSeat links the student to a seat. The update only matches while
// the student holds no seat; sql.ErrNoRows means another assignment won.
func (r *StudentRepository) ClaimSeat(ctx context.Context, studentID, seatID string) (*models.Student, error) {
	query := fmt.Sprintf(`UPDATE students SET current_seat_id = $2, updated_at = $3
        WHERE id = $1 AND current_seat_id IS NULL
        RETURNING %s`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, studentID, seatID, time.Now().UTC()); err != nil {
		return nil, err
	}
	return &student, nil
}

// ReleaseSeat clears the student's seat reference when it still points
// at the given seat. sql.ErrNoRows means the link was already gone.
func (r *StudentRepository) ReleaseSeat(ctx context.Context, studentID, seatID string) (*models.Student, error) {
	query := fmt.Sprintf(`UPDATE students SET current_seat_id = NULL, updated_at = $3
        WHERE id = $1 AND current_seat_id = $2
        RETURNING %s`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, studentID, seatID, time.Now().UTC()); err != nil {
		return nil, err
	}
	return &student, nil
}

// ApplyPayment records the subscription window opened by a payment. The
// registration flag is monotonic: once true it stays true.
func (r *StudentRepository) ApplyPayment(ctx context.Context, studentID, planID string, renewalDate time.Time, includesRegistration bool) (*models.Student, error) {
	query := fmt.Sprintf(`UPDATE students
        SET current_plan_id = $2, renewal_date = $3, registration_paid = registration_paid OR $4, updated_at = $5
        WHERE id = $1
        RETURNING %s`, studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, studentID, planID, renewalDate, includesRegistration, time.Now().UTC()); err != nil {
		return nil, err
	}
	return &student, nil
}

// CountActive returns the number of active students.
func (r *StudentRepository) CountActive(ctx context.Context) (int, error) {
	const query = "SELECT COUNT(*) FROM students WHERE active = true"
	var total int
	if err := r.db.GetContext(ctx, &total, query); err != nil {
		return 0, fmt.Errorf("count active students: %w", err)
	}
	return total, nil
}
