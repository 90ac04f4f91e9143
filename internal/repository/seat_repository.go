package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/seatwise/seatwise-api/internal/models"
)

const seatColumns = "id, seat_number, status, current_student_id, created_at, updated_at"

// SeatRepository manages persistence for seats. Occupancy transitions
// are guarded in SQL so the precondition and the write are a single
// statement; a zero-row result means the guard no longer held.
type SeatRepository struct {
	db *sqlx.DB
}

// NewSeatRepository constructs a SeatRepository.
func NewSeatRepository(db *sqlx.DB) *SeatRepository {
	return &SeatRepository{db: db}
}

// List returns seats matching the provided filters.
func (r *SeatRepository) List(ctx context.Context, filter models.SeatFilter) ([]models.SeatDetail, int, error) {
	base := "FROM seats se LEFT JOIN students st ON st.id = se.current_student_id"
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("se.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(se.seat_number) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"seat_number": "se.seat_number",
		"status":      "se.status",
		"created_at":  "se.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "se.seat_number"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
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

	query := fmt.Sprintf(`SELECT se.id, se.seat_number, se.status, se.current_student_id, se.created_at, se.updated_at,
        st.full_name AS student_name
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, column, order, size, offset)

	var seats []models.SeatDetail
	if err := r.db.SelectContext(ctx, &seats, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list seats: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count seats: %w", err)
	}
	return seats, total, nil
}

// FindByID fetches a seat by ID.
func (r *SeatRepository) FindByID(ctx context.Context, id string) (*models.Seat, error) {
	query := fmt.Sprintf("SELECT %s FROM seats WHERE id = $1", seatColumns)
	var seat models.Seat
	if err := r.db.GetContext(ctx, &seat, query, id); err != nil {
		return nil, err
	}
	return &seat, nil
}

// ExistsByNumber checks whether a seat with the given normalized number
// exists. Numbers are stored uppercase, so the comparison is exact.
func (r *SeatRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	const query = "SELECT 1 FROM seats WHERE seat_number = $1 LIMIT 1"
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, number); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check seat number: %w", err)
	}
	return true, nil
}

// Create inserts a new seat record.
func (r *SeatRepository) Create(ctx context.Context, seat *models.Seat) error {
	if seat.ID == "" {
		seat.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	seat.CreatedAt = now
	seat.UpdatedAt = now
	const query = `INSERT INTO seats (id, seat_number, status, current_student_id, created_at, updated_at)
        VALUES (:id, :seat_number, :status, :current_student_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, seat); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicate
		}
		return fmt.Errorf("create seat: %w", err)
	}
	return nil
}

// Occupy claims the seat for a student. The update only matches when the
// seat is free and not under maintenance; sql.ErrNoRows signals the
// claim was lost to a concurrent writer or the precondition changed.
func (r *SeatRepository) Occupy(ctx context.Context, seatID, studentID string) (*models.Seat, error) {
	query := fmt.Sprintf(`UPDATE seats
        SET status = $2, current_student_id = $3, updated_at = $4
        WHERE id = $1 AND current_student_id IS NULL AND status = $5
        RETURNING %s`, seatColumns)
	var seat models.Seat
	err := r.db.GetContext(ctx, &seat, query, seatID, models.SeatStatusOccupied, studentID, time.Now().UTC(), models.SeatStatusAvailable)
	if err != nil {
		return nil, err
	}
	return &seat, nil
}

// Release frees the seat unconditionally. Deallocating an already
// available seat re-writes the same values; the returned record is
// identical either way.
func (r *SeatRepository) Release(ctx context.Context, seatID string) (*models.Seat, error) {
	query := fmt.Sprintf(`UPDATE seats
        SET status = $2, current_student_id = NULL, updated_at = $3
        WHERE id = $1
        RETURNING %s`, seatColumns)
	var seat models.Seat
	err := r.db.GetContext(ctx, &seat, query, seatID, models.SeatStatusAvailable, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return &seat, nil
}

// SetAvailable returns a seat to service. The guard keeps it from
// clobbering an assignment that landed after the caller's read; an
// occupied seat does not match and yields sql.ErrNoRows.
func (r *SeatRepository) SetAvailable(ctx context.Context, seatID string) (*models.Seat, error) {
	query := fmt.Sprintf(`UPDATE seats
        SET status = $2, updated_at = $3
        WHERE id = $1 AND current_student_id IS NULL
        RETURNING %s`, seatColumns)
	var seat models.Seat
	err := r.db.GetContext(ctx, &seat, query, seatID, models.SeatStatusAvailable, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return &seat, nil
}

// SetMaintenance places a free seat under maintenance. Occupied seats do
// not match the guard and must be deallocated first.
func (r *SeatRepository) SetMaintenance(ctx context.Context, seatID string) (*models.Seat, error) {
	query := fmt.Sprintf(`UPDATE seats
        SET status = $2, updated_at = $3
        WHERE id = $1 AND current_student_id IS NULL
        RETURNING %s`, seatColumns)
	var seat models.Seat
	err := r.db.GetContext(ctx, &seat, query, seatID, models.SeatStatusMaintenance, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return &seat, nil
}

// CountByStatus aggregates seats into occupancy buckets.
func (r *SeatRepository) CountByStatus(ctx context.Context) (*models.SeatOccupancy, error) {
	const query = `SELECT
        COUNT(*) FILTER (WHERE status = 'available') AS available,
        COUNT(*) FILTER (WHERE status = 'occupied') AS occupied,
        COUNT(*) FILTER (WHERE status = 'maintenance') AS maintenance
        FROM seats`
	var occupancy models.SeatOccupancy
	if err := r.db.GetContext(ctx, &occupancy, query); err != nil {
		return nil, fmt.Errorf("count seats by status: %w", err)
	}
	return &occupancy, nil
}
