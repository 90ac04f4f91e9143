package models

import "time"

// Plan is a subscription tier. Plans are reference data: created
// administratively and never mutated by the core flows.
type Plan struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Price        float64   `db:"price" json:"price"`
	DurationDays int       `db:"duration_days" json:"duration_days"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
