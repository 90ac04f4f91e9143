package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seatwise/seatwise-api/internal/models"
	"github.com/seatwise/seatwise-api/pkg/config"
	"github.com/seatwise/seatwise-api/pkg/jobs"
)

type auditAppender interface {
	Append(ctx context.Context, entry *models.AuditEntry) error
}

// auditTrail is the side channel the write paths publish to. Implementations
// must never fail the caller; Record has no error return on purpose.
type auditTrail interface {
	Record(ctx context.Context, objectType, objectID, action string, metadata map[string]interface{})
}

// AuditRecorder appends audit entries off the request path. Appends are
// best-effort: a full buffer, a stopped queue or a failing insert is
// logged and otherwise invisible to the primary operation.
type AuditRecorder struct {
	repo    auditAppender
	queue   *jobs.Queue
	logger  *zap.Logger
	metrics *MetricsService
}

// NewAuditRecorder constructs the recorder and its worker queue. Call
// Start before recording and Stop on shutdown.
func NewAuditRecorder(repo auditAppender, cfg config.AuditConfig, logger *zap.Logger) *AuditRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &AuditRecorder{repo: repo, logger: logger}
	r.queue = jobs.NewQueue("audit", r.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return r
}

// SetMetrics attaches drop accounting.
func (r *AuditRecorder) SetMetrics(m *MetricsService) {
	r.metrics = m
}

// Start launches the background writers.
func (r *AuditRecorder) Start(ctx context.Context) {
	r.queue.Start(ctx)
}

// Stop drains the workers.
func (r *AuditRecorder) Stop() {
	r.queue.Stop()
}

// Record enqueues an audit entry for the given mutation. Actor identity
// is taken from the request context when the upstream gateway supplied it.
func (r *AuditRecorder) Record(ctx context.Context, objectType, objectID, action string, metadata map[string]interface{}) {
	entry := &models.AuditEntry{
		ID:         uuid.NewString(),
		ObjectType: objectType,
		ObjectID:   objectID,
		Action:     action,
		CreatedAt:  time.Now().UTC(),
	}
	if actor := models.ActorFromContext(ctx); actor != nil {
		entry.ActorID = &actor.ActorID
		entry.ActorRole = &actor.Role
	}
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			r.logger.Sugar().Warnw("audit metadata not serializable", "action", action, "object_id", objectID, "error", err)
		} else {
			entry.Metadata = raw
		}
	}

	job := jobs.Job{ID: entry.ID, Type: action, Payload: entry}
	if err := r.queue.TryEnqueue(job); err != nil {
		if r.metrics != nil {
			r.metrics.CountAuditDrop()
		}
		r.logger.Sugar().Warnw("audit entry dropped", "action", action, "object_type", objectType, "object_id", objectID, "error", err)
	}
}

func (r *AuditRecorder) handle(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(*models.AuditEntry)
	if !ok {
		r.logger.Sugar().Warnw("audit job carried unexpected payload", "job_id", job.ID)
		return nil
	}
	return r.repo.Append(ctx, entry)
}
