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

// PaymentRepository persists fee collection events. Payments are
// append-only: there is no update or delete path.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs a PaymentRepository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// List returns payments matching the provided filters.
func (r *PaymentRepository) List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentDetail, int, error) {
	base := `FROM payments pay
LEFT JOIN students st ON st.id = pay.student_id
LEFT JOIN plans p ON p.id = pay.plan_id`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("pay.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("pay.created_at >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("pay.created_at < $%d", len(args)+1))
		args = append(args, *filter.To)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
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

	query := fmt.Sprintf(`SELECT pay.id, pay.student_id, pay.plan_id, pay.amount_paid, pay.valid_from,
        pay.valid_until, pay.mode, pay.includes_registration, pay.notes, pay.created_at,
        st.full_name AS student_name, p.name AS plan_name
        %s ORDER BY pay.created_at %s LIMIT %d OFFSET %d`, base+clause, order, size, offset)

	var payments []models.PaymentDetail
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count payments: %w", err)
	}
	return payments, total, nil
}

// FindByID fetches a payment by ID.
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	const query = `SELECT id, student_id, plan_id, amount_paid, valid_from, valid_until, mode,
        includes_registration, notes, created_at FROM payments WHERE id = $1`
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		return nil, err
	}
	return &payment, nil
}

// Create inserts a new payment record.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	payment.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO payments (id, student_id, plan_id, amount_paid, valid_from, valid_until,
        mode, includes_registration, notes, created_at)
        VALUES (:id, :student_id, :plan_id, :amount_paid, :valid_from, :valid_until, :mode,
        :includes_registration, :notes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// SumCollectedBetween totals amounts collected in the half-open interval
// [from, to).
func (r *PaymentRepository) SumCollectedBetween(ctx context.Context, from, to time.Time) (float64, error) {
	const query = "SELECT COALESCE(SUM(amount_paid), 0) FROM payments WHERE created_at >= $1 AND created_at < $2"
	var total float64
	if err := r.db.GetContext(ctx, &total, query, from, to); err != nil {
		return 0, fmt.Errorf("sum payments: %w", err)
	}
	return total, nil
}
