package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatwise/seatwise-api/internal/models"
	"github.com/seatwise/seatwise-api/internal/service"
	"github.com/seatwise/seatwise-api/pkg/response"
)

type fakeSeatRepo struct {
	seats map[string]models.Seat
}

func (f *fakeSeatRepo) List(ctx context.Context, filter models.SeatFilter) ([]models.SeatDetail, int, error) {
	var list []models.SeatDetail
	for _, s := range f.seats {
		list = append(list, models.SeatDetail{Seat: s})
	}
	return list, len(list), nil
}

func (f *fakeSeatRepo) FindByID(ctx context.Context, id string) (*models.Seat, error) {
	if s, ok := f.seats[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSeatRepo) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	for _, s := range f.seats {
		if s.SeatNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSeatRepo) Create(ctx context.Context, seat *models.Seat) error {
	if f.seats == nil {
		f.seats = make(map[string]models.Seat)
	}
	seat.ID = "new-seat"
	seat.CreatedAt = time.Now()
	seat.UpdatedAt = seat.CreatedAt
	f.seats[seat.ID] = *seat
	return nil
}

func (f *fakeSeatRepo) Occupy(ctx context.Context, seatID, studentID string) (*models.Seat, error) {
	s, ok := f.seats[seatID]
	if !ok || s.CurrentStudentID != nil || s.Status != models.SeatStatusAvailable {
		return nil, sql.ErrNoRows
	}
	s.Status = models.SeatStatusOccupied
	s.CurrentStudentID = &studentID
	f.seats[seatID] = s
	return &s, nil
}

func (f *fakeSeatRepo) Release(ctx context.Context, seatID string) (*models.Seat, error) {
	s, ok := f.seats[seatID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	s.Status = models.SeatStatusAvailable
	s.CurrentStudentID = nil
	f.seats[seatID] = s
	return &s, nil
}

func (f *fakeSeatRepo) SetAvailable(ctx context.Context, seatID string) (*models.Seat, error) {
	s, ok := f.seats[seatID]
	if !ok || s.CurrentStudentID != nil {
		return nil, sql.ErrNoRows
	}
	s.Status = models.SeatStatusAvailable
	f.seats[seatID] = s
	return &s, nil
}

func (f *fakeSeatRepo) SetMaintenance(ctx context.Context, seatID string) (*models.Seat, error) {
	s, ok := f.seats[seatID]
	if !ok || s.CurrentStudentID != nil {
		return nil, sql.ErrNoRows
	}
	s.Status = models.SeatStatusMaintenance
	f.seats[seatID] = s
	return &s, nil
}

type fakeSeatHolderRepo struct {
	students map[string]models.Student
}

func (f *fakeSeatHolderRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := f.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSeatHolderRepo) ClaimSeat(ctx context.Context, studentID, seatID string) (*models.Student, error) {
	s, ok := f.students[studentID]
	if !ok || s.CurrentSeatID != nil {
		return nil, sql.ErrNoRows
	}
	s.CurrentSeatID = &seatID
	f.students[studentID] = s
	return &s, nil
}

func (f *fakeSeatHolderRepo) ReleaseSeat(ctx context.Context, studentID, seatID string) (*models.Student, error) {
	s, ok := f.students[studentID]
	if !ok || s.CurrentSeatID == nil || *s.CurrentSeatID != seatID {
		return nil, sql.ErrNoRows
	}
	s.CurrentSeatID = nil
	f.students[studentID] = s
	return &s, nil
}

type nopAudit struct{}

func (nopAudit) Record(ctx context.Context, objectType, objectID, action string, metadata map[string]interface{}) {
}

func newSeatHandlerFixture(seats *fakeSeatRepo, students *fakeSeatHolderRepo) *SeatHandler {
	svc := service.NewAssignmentService(seats, students, nopAudit{}, nil, nil)
	return NewSeatHandler(svc)
}

func TestSeatHandlerCreateReturns201(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newSeatHandlerFixture(&fakeSeatRepo{}, &fakeSeatHolderRepo{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/seats", strings.NewReader(`{"seat_number":"a-1"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "A-1", data["seat_number"])
}

func TestSeatHandlerCreateConflictReturns409(t *testing.T) {
	gin.SetMode(gin.TestMode)
	seats := &fakeSeatRepo{seats: map[string]models.Seat{"s1": {ID: "s1", SeatNumber: "A-1", Status: models.SeatStatusAvailable}}}
	handler := newSeatHandlerFixture(seats, &fakeSeatHolderRepo{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/seats", strings.NewReader(`{"seat_number":"a-1"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "CONFLICT", envelope.Error.Code)
}

func TestSeatHandlerAssignUnknownSeatReturns404(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newSeatHandlerFixture(&fakeSeatRepo{}, &fakeSeatHolderRepo{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/seats/ghost/assign", strings.NewReader(`{"student_id":"alice"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "ghost"}}

	handler.Assign(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSeatHandlerAssignMissingBodyReturns400(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newSeatHandlerFixture(&fakeSeatRepo{}, &fakeSeatHolderRepo{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/seats/s1/assign", strings.NewReader(`{}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "s1"}}

	handler.Assign(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSeatHandlerDeallocateReturnsBothSides(t *testing.T) {
	gin.SetMode(gin.TestMode)
	occupant := "alice"
	seatID := "s1"
	seats := &fakeSeatRepo{seats: map[string]models.Seat{seatID: {ID: seatID, SeatNumber: "A-1", Status: models.SeatStatusOccupied, CurrentStudentID: &occupant}}}
	students := &fakeSeatHolderRepo{students: map[string]models.Student{occupant: {ID: occupant, CurrentSeatID: &seatID}}}
	handler := newSeatHandlerFixture(seats, students)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/seats/s1/deallocate", nil)
	c.Params = gin.Params{{Key: "id", Value: seatID}}

	handler.Deallocate(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	seat, ok := data["seat"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "available", seat["status"])
}
