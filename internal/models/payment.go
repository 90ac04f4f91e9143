package models

import "time"

// PaymentMode is the channel a fee was collected through.
type PaymentMode string

// Accepted payment modes.
const (
	PaymentModeUPI  PaymentMode = "upi"
	PaymentModeCash PaymentMode = "cash"
)

// Payment is an immutable record of a fee collection event. The row is
// never updated or deleted after insertion.
type Payment struct {
	ID                   string      `db:"id" json:"id"`
	StudentID            string      `db:"student_id" json:"student_id"`
	PlanID               string      `db:"plan_id" json:"plan_id"`
	AmountPaid           float64     `db:"amount_paid" json:"amount_paid"`
	ValidFrom            time.Time   `db:"valid_from" json:"valid_from"`
	ValidUntil           time.Time   `db:"valid_until" json:"valid_until"`
	Mode                 PaymentMode `db:"mode" json:"mode"`
	IncludesRegistration bool        `db:"includes_registration" json:"includes_registration"`
	Notes                string      `db:"notes" json:"notes"`
	CreatedAt            time.Time   `db:"created_at" json:"created_at"`
}

// PaymentDetail enriches Payment with student and plan names.
type PaymentDetail struct {
	Payment
	StudentName string `db:"student_name" json:"student_name"`
	PlanName    string `db:"plan_name" json:"plan_name"`
}

// PaymentFilter encapsulates allowed search parameters for listing payments.
type PaymentFilter struct {
	StudentID string
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
	SortOrder string
}
