package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seatwise/seatwise-api/internal/models"
	"github.com/seatwise/seatwise-api/internal/repository"
	appErrors "github.com/seatwise/seatwise-api/pkg/errors"
)

type mockPlanRepo struct {
	plans     map[string]models.Plan
	findCalls int
	createErr error
}

func (m *mockPlanRepo) List(ctx context.Context) ([]models.Plan, error) {
	var list []models.Plan
	for _, p := range m.plans {
		list = append(list, p)
	}
	return list, nil
}

func (m *mockPlanRepo) FindByID(ctx context.Context, id string) (*models.Plan, error) {
	m.findCalls++
	if p, ok := m.plans[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPlanRepo) Create(ctx context.Context, plan *models.Plan) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.plans == nil {
		m.plans = make(map[string]models.Plan)
	}
	if plan.ID == "" {
		plan.ID = "new-plan"
	}
	m.plans[plan.ID] = *plan
	return nil
}

type mapPlanCache struct {
	entries map[string]string
	sets    int
}

func (c *mapPlanCache) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *mapPlanCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if c.entries == nil {
		c.entries = make(map[string]string)
	}
	c.entries[key] = value
	c.sets++
	return nil
}

func TestPlanGetReadsThroughCache(t *testing.T) {
	repo := &mockPlanRepo{plans: map[string]models.Plan{"monthly": {ID: "monthly", Name: "Monthly", Price: 1200, DurationDays: 30}}}
	cache := &mapPlanCache{}
	svc := NewPlanService(repo, cache, time.Minute, &recordedAudit{}, validator.New(), zap.NewNop())

	plan, err := svc.Get(context.Background(), "monthly")
	require.NoError(t, err)
	assert.Equal(t, "Monthly", plan.Name)
	assert.Equal(t, 1, repo.findCalls)
	assert.Equal(t, 1, cache.sets)

	// Second read is served from the cache.
	plan, err = svc.Get(context.Background(), "monthly")
	require.NoError(t, err)
	assert.Equal(t, 1200.0, plan.Price)
	assert.Equal(t, 1, repo.findCalls)
}

func TestPlanGetCorruptCacheEntryFallsThrough(t *testing.T) {
	repo := &mockPlanRepo{plans: map[string]models.Plan{"monthly": {ID: "monthly", Name: "Monthly"}}}
	cache := &mapPlanCache{entries: map[string]string{"plan:monthly": "{not json"}}
	svc := NewPlanService(repo, cache, time.Minute, &recordedAudit{}, validator.New(), zap.NewNop())

	plan, err := svc.Get(context.Background(), "monthly")
	require.NoError(t, err)
	assert.Equal(t, "Monthly", plan.Name)
	assert.Equal(t, 1, repo.findCalls)

	var cached models.Plan
	require.NoError(t, json.Unmarshal([]byte(cache.entries["plan:monthly"]), &cached))
	assert.Equal(t, "monthly", cached.ID)
}

func TestPlanGetWithoutCache(t *testing.T) {
	repo := &mockPlanRepo{plans: map[string]models.Plan{"monthly": {ID: "monthly"}}}
	svc := NewPlanService(repo, nil, time.Minute, &recordedAudit{}, validator.New(), zap.NewNop())

	_, err := svc.Get(context.Background(), "monthly")
	require.NoError(t, err)
}

func TestPlanGetNotFound(t *testing.T) {
	svc := NewPlanService(&mockPlanRepo{}, nil, time.Minute, &recordedAudit{}, validator.New(), zap.NewNop())

	_, err := svc.Get(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, appErrors.IsKind(err, appErrors.ErrNotFound.Code))
}

func TestPlanCreateDuplicateName(t *testing.T) {
	repo := &mockPlanRepo{createErr: repository.ErrDuplicate}
	svc := NewPlanService(repo, nil, time.Minute, &recordedAudit{}, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreatePlanRequest{Name: "Monthly", Price: 1200, DurationDays: 30})
	require.Error(t, err)
	assert.True(t, appErrors.IsKind(err, appErrors.ErrConflict.Code))
}

func TestPlanCreateValidation(t *testing.T) {
	svc := NewPlanService(&mockPlanRepo{}, nil, time.Minute, &recordedAudit{}, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreatePlanRequest{Name: "Free", Price: 0, DurationDays: 30})
	require.Error(t, err)
	assert.True(t, appErrors.IsKind(err, appErrors.ErrValidation.Code))
}
