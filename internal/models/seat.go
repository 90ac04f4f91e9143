package models

import "time"

// SeatStatus represents the occupancy state of a seat.
type SeatStatus string

// Possible seat statuses.
const (
	SeatStatusAvailable   SeatStatus = "available"
	SeatStatusOccupied    SeatStatus = "occupied"
	SeatStatusMaintenance SeatStatus = "maintenance"
)

// Valid reports whether the status is one of the known values.
func (s SeatStatus) Valid() bool {
	switch s {
	case SeatStatusAvailable, SeatStatusOccupied, SeatStatusMaintenance:
		return true
	}
	return false
}

// Seat is a physical unit of capacity. CurrentStudentID is set exactly
// when Status is occupied.
type Seat struct {
	ID               string     `db:"id" json:"id"`
	SeatNumber       string     `db:"seat_number" json:"seat_number"`
	Status           SeatStatus `db:"status" json:"status"`
	CurrentStudentID *string    `db:"current_student_id" json:"current_student_id,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// SeatDetail enriches Seat with the occupant's name when occupied.
type SeatDetail struct {
	Seat
	StudentName *string `db:"student_name" json:"student_name,omitempty"`
}

// SeatFilter encapsulates allowed search parameters for listing seats.
type SeatFilter struct {
	Status    SeatStatus
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// SeatOccupancy aggregates seat counts per status.
type SeatOccupancy struct {
	Available   int `db:"available" json:"available"`
	Occupied    int `db:"occupied" json:"occupied"`
	Maintenance int `db:"maintenance" json:"maintenance"`
}
