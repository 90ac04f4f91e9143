package models

// DashboardSummary is a read-only aggregate for the landing view.
type DashboardSummary struct {
	Seats              SeatOccupancy `json:"seats"`
	ActiveStudents     int           `json:"active_students"`
	CollectedThisMonth float64       `json:"collected_this_month"`
	ExpensesThisMonth  float64       `json:"expenses_this_month"`
}
