// Command consistency_check scans the database for seat-student link
// violations: occupied seats whose student does not point back, students
// holding a seat that does not point back, and status values out of sync
// with occupancy. Intended for cron or post-incident verification; exits
// non-zero when any violation is found.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type violation struct {
	Kind      string
	SeatID    string
	StudentID string
	Detail    string
}

func main() {
	var (
		dsn     string
		timeout time.Duration
	)
	flag.StringVar(&dsn, "dsn", os.Getenv("DATABASE_URL"), "Postgres connection string")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "overall timeout")
	flag.Parse()

	if dsn == "" {
		log.Fatal("no DSN: pass -dsn or set DATABASE_URL")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer db.Close()

	var violations []violation
	for _, check := range []func(context.Context, *sqlx.DB) ([]violation, error){
		checkSeatSideLinks,
		checkStudentSideLinks,
		checkStatusConsistency,
	} {
		found, err := check(ctx, db)
		if err != nil {
			log.Fatalf("check failed: %v", err)
		}
		violations = append(violations, found...)
	}

	if len(violations) == 0 {
		fmt.Println("OK: seat-student links are consistent")
		return
	}
	for _, v := range violations {
		fmt.Printf("%-22s seat=%-36s student=%-36s %s\n", v.Kind, v.SeatID, v.StudentID, v.Detail)
	}
	fmt.Printf("%d violation(s) found\n", len(violations))
	os.Exit(1)
}

// checkSeatSideLinks finds occupied seats whose occupant does not point
// back at the seat.
func checkSeatSideLinks(ctx context.Context, db *sqlx.DB) ([]violation, error) {
	const query = `SELECT se.id AS seat_id, se.current_student_id AS student_id
        FROM seats se
        LEFT JOIN students st ON st.id = se.current_student_id
        WHERE se.current_student_id IS NOT NULL
          AND (st.id IS NULL OR st.current_seat_id IS DISTINCT FROM se.id)`
	var rows []struct {
		SeatID    string `db:"seat_id"`
		StudentID string `db:"student_id"`
	}
	if err := db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("seat side links: %w", err)
	}
	var out []violation
	for _, r := range rows {
		out = append(out, violation{Kind: "dangling-seat-link", SeatID: r.SeatID, StudentID: r.StudentID, Detail: "student does not point back"})
	}
	return out, nil
}

// checkStudentSideLinks finds students whose seat does not point back at
// them.
func checkStudentSideLinks(ctx context.Context, db *sqlx.DB) ([]violation, error) {
	const query = `SELECT st.id AS student_id, st.current_seat_id AS seat_id
        FROM students st
        LEFT JOIN seats se ON se.id = st.current_seat_id
        WHERE st.current_seat_id IS NOT NULL
          AND (se.id IS NULL OR se.current_student_id IS DISTINCT FROM st.id)`
	var rows []struct {
		StudentID string `db:"student_id"`
		SeatID    string `db:"seat_id"`
	}
	if err := db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("student side links: %w", err)
	}
	var out []violation
	for _, r := range rows {
		out = append(out, violation{Kind: "dangling-student-link", SeatID: r.SeatID, StudentID: r.StudentID, Detail: "seat does not point back"})
	}
	return out, nil
}

// checkStatusConsistency finds seats whose status disagrees with their
// occupancy column.
func checkStatusConsistency(ctx context.Context, db *sqlx.DB) ([]violation, error) {
	const query = `SELECT id AS seat_id, status, COALESCE(current_student_id, '') AS student_id
        FROM seats
        WHERE (status = 'occupied') <> (current_student_id IS NOT NULL)`
	var rows []struct {
		SeatID    string `db:"seat_id"`
		Status    string `db:"status"`
		StudentID string `db:"student_id"`
	}
	if err := db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("status consistency: %w", err)
	}
	var out []violation
	for _, r := range rows {
		out = append(out, violation{Kind: "status-mismatch", SeatID: r.SeatID, StudentID: r.StudentID, Detail: fmt.Sprintf("status %q disagrees with occupancy", r.Status)})
	}
	return out, nil
}
