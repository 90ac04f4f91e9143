package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatwise/seatwise-api/internal/models"
)

func newStudentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func studentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "full_name", "phone", "email", "address", "active",
		"current_seat_id", "current_plan_id", "renewal_date", "registration_paid", "preferred_shift",
		"fee_plan_type", "fee_cycle", "limited_days", "join_date", "created_at", "updated_at"})
}

func TestStudentRepositoryClaimSeatGuarded(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	now := time.Now()
	mock.ExpectQuery("UPDATE students SET current_seat_id").
		WithArgs("alice", "seat-1", sqlmock.AnyArg()).
		WillReturnRows(studentRows().AddRow("alice", "Alice", "", "", "", true,
			"seat-1", nil, nil, false, "Morning", "monthly", "calendar", 0, now, now, now))

	student, err := repo.ClaimSeat(context.Background(), "alice", "seat-1")
	require.NoError(t, err)
	require.NotNil(t, student.CurrentSeatID)
	assert.Equal(t, "seat-1", *student.CurrentSeatID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryClaimSeatLosesRace(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("UPDATE students SET current_seat_id").
		WithArgs("alice", "seat-1", sqlmock.AnyArg()).
		WillReturnRows(studentRows())

	_, err := repo.ClaimSeat(context.Background(), "alice", "seat-1")
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryReleaseSeatAlreadyClear(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("UPDATE students SET current_seat_id = NULL").
		WithArgs("alice", "seat-1", sqlmock.AnyArg()).
		WillReturnRows(studentRows())

	_, err := repo.ReleaseSeat(context.Background(), "alice", "seat-1")
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryToggleActive(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	now := time.Now()
	mock.ExpectQuery("UPDATE students SET active = NOT active").
		WithArgs("alice", sqlmock.AnyArg()).
		WillReturnRows(studentRows().AddRow("alice", "Alice", "", "", "", false,
			nil, nil, nil, false, "Morning", "monthly", "calendar", 0, now, now, now))

	student, err := repo.ToggleActive(context.Background(), "alice")
	require.NoError(t, err)
	assert.False(t, student.Active)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryApplyPayment(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	now := time.Now()
	renewal := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("UPDATE students").
		WithArgs("alice", "monthly", renewal, false, sqlmock.AnyArg()).
		WillReturnRows(studentRows().AddRow("alice", "Alice", "", "", "", true,
			nil, "monthly", renewal, true, "Morning", "monthly", "calendar", 0, now, now, now))

	student, err := repo.ApplyPayment(context.Background(), "alice", "monthly", renewal, false)
	require.NoError(t, err)
	require.NotNil(t, student.RenewalDate)
	assert.Equal(t, renewal, student.RenewalDate.UTC())
	// registration_paid OR false keeps an earlier true.
	assert.True(t, student.RegistrationPaid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("INSERT INTO students").
		WillReturnResult(sqlmock.NewResult(1, 1))

	student := &models.Student{FullName: "Alice", Active: true, PreferredShift: "Morning", FeePlanType: "monthly", FeeCycle: "calendar", JoinDate: time.Now()}
	err := repo.Create(context.Background(), student)
	require.NoError(t, err)
	assert.NotEmpty(t, student.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCountActive(t *testing.T) {
	db, mock, cleanup := newStudentMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	total, err := repo.CountActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
