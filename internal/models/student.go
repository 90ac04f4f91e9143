package models

import "time"

// Fee plan defaults applied when a student is registered.
const (
	DefaultPreferredShift = "Morning"
	DefaultFeePlanType    = "monthly"
	DefaultFeeCycle       = "calendar"
)

// Student represents a member of the study space. Seat, plan and renewal
// references are written only by the assignment and payment flows.
type Student struct {
	ID               string     `db:"id" json:"id"`
	FullName         string     `db:"full_name" json:"full_name"`
	Phone            string     `db:"phone" json:"phone"`
	Email            string     `db:"email" json:"email"`
	Address          string     `db:"address" json:"address"`
	Active           bool       `db:"active" json:"active"`
	CurrentSeatID    *string    `db:"current_seat_id" json:"current_seat_id,omitempty"`
	CurrentPlanID    *string    `db:"current_plan_id" json:"current_plan_id,omitempty"`
	RenewalDate      *time.Time `db:"renewal_date" json:"renewal_date,omitempty"`
	RegistrationPaid bool       `db:"registration_paid" json:"registration_paid"`
	PreferredShift   string     `db:"preferred_shift" json:"preferred_shift"`
	FeePlanType      string     `db:"fee_plan_type" json:"fee_plan_type"`
	FeeCycle         string     `db:"fee_cycle" json:"fee_cycle"`
	LimitedDays      int        `db:"limited_days" json:"limited_days"`
	JoinDate         time.Time  `db:"join_date" json:"join_date"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// StudentDetail contains student information with seat and plan context.
type StudentDetail struct {
	Student
	SeatNumber *string `db:"seat_number" json:"seat_number,omitempty"`
	PlanName   *string `db:"plan_name" json:"plan_name,omitempty"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search         string
	Active         *bool
	ExpiringBefore *time.Time
	Page           int
	PageSize       int
	SortBy         string
	SortOrder      string
}
