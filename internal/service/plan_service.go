package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/seatwise/seatwise-api/internal/models"
	"github.com/seatwise/seatwise-api/internal/repository"
	appErrors "github.com/seatwise/seatwise-api/pkg/errors"
)

type planRepository interface {
	List(ctx context.Context) ([]models.Plan, error)
	FindByID(ctx context.Context, id string) (*models.Plan, error)
	Create(ctx context.Context, plan *models.Plan) error
}

// PlanCache abstracts the read-through cache so tests can use a map.
type PlanCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// redisPlanCache adapts a redis client to the PlanCache interface.
type redisPlanCache struct {
	client *redis.Client
}

// NewRedisPlanCache wraps a redis client for plan caching.
func NewRedisPlanCache(client *redis.Client) PlanCache {
	return &redisPlanCache{client: client}
}

func (c *redisPlanCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *redisPlanCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// CreatePlanRequest holds payload for defining subscription plans.
type CreatePlanRequest struct {
	Name         string  `json:"name" validate:"required"`
	Price        float64 `json:"price" validate:"gt=0"`
	DurationDays int     `json:"duration_days" validate:"gt=0"`
}

// PlanService serves the plan catalog. Plans are immutable, so the cache
// never needs invalidation; entries simply expire.
type PlanService struct {
	repo      planRepository
	cache     PlanCache
	ttl       time.Duration
	audit     auditTrail
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPlanService constructs the plan service. cache may be nil to
// disable caching.
func NewPlanService(repo planRepository, cache PlanCache, ttl time.Duration, audit auditTrail, validate *validator.Validate, logger *zap.Logger) *PlanService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &PlanService{repo: repo, cache: cache, ttl: ttl, audit: audit, validator: validate, logger: logger}
}

// List returns the full catalog.
func (s *PlanService) List(ctx context.Context) ([]models.Plan, error) {
	plans, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to list plans")
	}
	return plans, nil
}

// Get returns a plan by id, reading through the cache when available.
func (s *PlanService) Get(ctx context.Context, id string) (*models.Plan, error) {
	key := planCacheKey(id)
	if s.cache != nil {
		if raw, hit, err := s.cache.Get(ctx, key); err != nil {
			s.logger.Sugar().Warnw("plan cache read failed", "plan_id", id, "error", err)
		} else if hit {
			var plan models.Plan
			if err := json.Unmarshal([]byte(raw), &plan); err == nil {
				return &plan, nil
			}
			s.logger.Sugar().Warnw("plan cache entry corrupt", "plan_id", id)
		}
	}

	plan, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "plan not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load plan")
	}

	if s.cache != nil {
		if raw, err := json.Marshal(plan); err == nil {
			if err := s.cache.Set(ctx, key, string(raw), s.ttl); err != nil {
				s.logger.Sugar().Warnw("plan cache write failed", "plan_id", id, "error", err)
			}
		}
	}
	return plan, nil
}

// Create defines a new plan.
func (s *PlanService) Create(ctx context.Context, req CreatePlanRequest) (*models.Plan, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid plan payload")
	}

	plan := &models.Plan{Name: req.Name, Price: req.Price, DurationDays: req.DurationDays}
	if err := s.repo.Create(ctx, plan); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "plan name already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to create plan")
	}

	s.audit.Record(ctx, "plan", plan.ID, models.AuditActionPlanCreate, map[string]interface{}{"name": plan.Name})
	return plan, nil
}

func planCacheKey(id string) string {
	return fmt.Sprintf("plan:%s", id)
}
