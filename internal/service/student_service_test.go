package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seatwise/seatwise-api/internal/models"
	appErrors "github.com/seatwise/seatwise-api/pkg/errors"
)

type mockStudentRepo struct {
	students map[string]models.Student
	created  *models.Student
	updated  *models.Student
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	var list []models.StudentDetail
	for _, s := range m.students {
		list = append(list, models.StudentDetail{Student: s})
	}
	return list, len(list), nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) FindDetailByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	if s, ok := m.students[id]; ok {
		return &models.StudentDetail{Student: s}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if m.students == nil {
		m.students = make(map[string]models.Student)
	}
	if student.ID == "" {
		student.ID = "new-student"
	}
	m.students[student.ID] = *student
	m.created = student
	return nil
}

func (m *mockStudentRepo) UpdateProfile(ctx context.Context, student *models.Student) error {
	if _, ok := m.students[student.ID]; !ok {
		return sql.ErrNoRows
	}
	m.students[student.ID] = *student
	m.updated = student
	return nil
}

func (m *mockStudentRepo) ToggleActive(ctx context.Context, id string) (*models.Student, error) {
	s, ok := m.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	s.Active = !s.Active
	m.students[id] = s
	return &s, nil
}

func newStudentFixture(repo *mockStudentRepo) (*StudentService, *recordedAudit) {
	audit := &recordedAudit{}
	return NewStudentService(repo, audit, validator.New(), zap.NewNop()), audit
}

func TestStudentCreateAppliesDefaults(t *testing.T) {
	repo := &mockStudentRepo{}
	svc, audit := newStudentFixture(repo)

	student, err := svc.Create(context.Background(), CreateStudentRequest{FullName: "Alice"})
	require.NoError(t, err)
	assert.True(t, student.Active)
	assert.False(t, student.RegistrationPaid)
	assert.Equal(t, models.DefaultPreferredShift, student.PreferredShift)
	assert.Equal(t, models.DefaultFeePlanType, student.FeePlanType)
	assert.Equal(t, models.DefaultFeeCycle, student.FeeCycle)
	assert.Nil(t, student.CurrentSeatID)
	assert.Nil(t, student.CurrentPlanID)
	assert.Contains(t, audit.actions, models.AuditActionStudentCreate)
}

func TestStudentCreateRequiresName(t *testing.T) {
	svc, _ := newStudentFixture(&mockStudentRepo{})

	_, err := svc.Create(context.Background(), CreateStudentRequest{})
	require.Error(t, err)
	assert.True(t, appErrors.IsKind(err, appErrors.ErrValidation.Code))
}

func TestStudentCreateRejectsBadEmail(t *testing.T) {
	svc, _ := newStudentFixture(&mockStudentRepo{})

	_, err := svc.Create(context.Background(), CreateStudentRequest{FullName: "Alice", Email: "not-an-email"})
	require.Error(t, err)
	assert.True(t, appErrors.IsKind(err, appErrors.ErrValidation.Code))
}

func TestStudentUpdateKeepsMembershipFields(t *testing.T) {
	seatID := "seat-1"
	repo := &mockStudentRepo{students: map[string]models.Student{
		"alice": {ID: "alice", FullName: "Alice", CurrentSeatID: &seatID, RegistrationPaid: true, PreferredShift: "Morning", FeePlanType: "monthly", FeeCycle: "calendar"},
	}}
	svc, audit := newStudentFixture(repo)

	student, err := svc.Update(context.Background(), "alice", UpdateStudentRequest{FullName: "Alice B", Phone: "9999", PreferredShift: "Evening", FeePlanType: "monthly", FeeCycle: "calendar"})
	require.NoError(t, err)
	assert.Equal(t, "Alice B", student.FullName)
	assert.Equal(t, "Evening", student.PreferredShift)
	// Seat and registration state are untouched by a profile update.
	require.NotNil(t, student.CurrentSeatID)
	assert.Equal(t, seatID, *student.CurrentSeatID)
	assert.True(t, student.RegistrationPaid)
	assert.Contains(t, audit.actions, models.AuditActionStudentUpdate)
}

func TestStudentUpdateNotFound(t *testing.T) {
	svc, _ := newStudentFixture(&mockStudentRepo{})

	_, err := svc.Update(context.Background(), "ghost", UpdateStudentRequest{FullName: "Ghost"})
	require.Error(t, err)
	assert.True(t, appErrors.IsKind(err, appErrors.ErrNotFound.Code))
}

func TestStudentToggleActiveTwiceRestoresState(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{"alice": {ID: "alice", Active: true}}}
	svc, audit := newStudentFixture(repo)

	first, err := svc.ToggleActive(context.Background(), "alice")
	require.NoError(t, err)
	assert.False(t, first.Active)

	second, err := svc.ToggleActive(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, second.Active)
	assert.Len(t, audit.actions, 2)
}

func TestStudentToggleActiveNotFound(t *testing.T) {
	svc, _ := newStudentFixture(&mockStudentRepo{})

	_, err := svc.ToggleActive(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, appErrors.IsKind(err, appErrors.ErrNotFound.Code))
}
