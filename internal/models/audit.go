package models

import "time"

// Audit actions recorded by the mutating operations.
const (
	AuditActionSeatCreate     = "SEAT_CREATE"
	AuditActionSeatAssign     = "SEAT_ASSIGN"
	AuditActionSeatDeallocate = "SEAT_DEALLOCATE"
	AuditActionSeatStatus     = "SEAT_STATUS_CHANGE"
	AuditActionStudentCreate  = "STUDENT_CREATE"
	AuditActionStudentUpdate  = "STUDENT_UPDATE"
	AuditActionStudentToggle  = "STUDENT_TOGGLE_ACTIVE"
	AuditActionStudentRenewal = "STUDENT_RENEWAL_UPDATE"
	AuditActionPaymentCreate  = "PAYMENT_CREATE"
	AuditActionExpenseCreate  = "EXPENSE_CREATE"
	AuditActionPlanCreate     = "PLAN_CREATE"
)

// AuditEntry is an append-only observational record of who changed what.
// Writes are best-effort and never block the primary operation.
type AuditEntry struct {
	ID         string    `db:"id" json:"id"`
	ObjectType string    `db:"object_type" json:"object_type"`
	ObjectID   string    `db:"object_id" json:"object_id"`
	Action     string    `db:"action" json:"action"`
	ActorID    *string   `db:"actor_id" json:"actor_id,omitempty"`
	ActorRole  *string   `db:"actor_role" json:"actor_role,omitempty"`
	Metadata   []byte    `db:"metadata" json:"metadata,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
