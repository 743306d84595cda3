package jobs

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/aldercommerce/alder-admin/internal/coupons"
	"github.com/aldercommerce/alder-admin/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskImportProcess processes one uploaded CSV import.
	TaskImportProcess = "import:process"
	// TaskCouponBulkGenerate mints a batch of single-use coupon codes.
	TaskCouponBulkGenerate = "coupon:bulk_generate"
	// TaskDomainVerifyPoll re-checks DNS for a pending custom domain.
	TaskDomainVerifyPoll = "domain:verify_poll"
	// TaskAuditRetention prunes audit rows past the retention window.
	TaskAuditRetention = "audit:retention"
	// TaskIdempotencyCleanup prunes expired idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// ImportProcessPayload identifies the job to process.
type ImportProcessPayload struct {
	UserID   string    `json:"userId"`
	TenantID string    `json:"tenantId"`
	JobID    uuid.UUID `json:"jobId"`
}

// Identity rebuilds the acting identity from the payload.
func (p ImportProcessPayload) Identity() shared.Identity {
	return shared.Identity{UserID: p.UserID, TenantID: p.TenantID}
}

// NewImportProcessTask constructs the import task.
func NewImportProcessTask(id shared.Identity, jobID uuid.UUID) (*asynq.Task, error) {
	data, err := json.Marshal(ImportProcessPayload{UserID: id.UserID, TenantID: id.TenantID, JobID: jobID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskImportProcess, data, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}

// CouponBulkPayload carries the validated bulk generation request.
type CouponBulkPayload struct {
	UserID   string                      `json:"userId"`
	TenantID string                      `json:"tenantId"`
	BatchID  uuid.UUID                   `json:"batchId"`
	Request  coupons.BulkGenerateRequest `json:"request"`
}

// Identity rebuilds the acting identity from the payload.
func (p CouponBulkPayload) Identity() shared.Identity {
	return shared.Identity{UserID: p.UserID, TenantID: p.TenantID}
}

// NewCouponBulkTask constructs the bulk generation task.
func NewCouponBulkTask(id shared.Identity, batchID uuid.UUID, req coupons.BulkGenerateRequest) (*asynq.Task, error) {
	data, err := json.Marshal(CouponBulkPayload{UserID: id.UserID, TenantID: id.TenantID, BatchID: batchID, Request: req})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCouponBulkGenerate, data, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}

// DomainVerifyPayload identifies the domain to re-check.
type DomainVerifyPayload struct {
	UserID   string `json:"userId"`
	TenantID string `json:"tenantId"`
	DomainID string `json:"domainId"`
	// Attempt counts poll rounds so the handler can stop rescheduling.
	Attempt int `json:"attempt"`
}

// Identity rebuilds the acting identity from the payload.
func (p DomainVerifyPayload) Identity() shared.Identity {
	return shared.Identity{UserID: p.UserID, TenantID: p.TenantID}
}

// NewDomainVerifyTask constructs the verification poll task.
func NewDomainVerifyTask(id shared.Identity, domainID string, attempt int) (*asynq.Task, error) {
	data, err := json.Marshal(DomainVerifyPayload{UserID: id.UserID, TenantID: id.TenantID, DomainID: domainID, Attempt: attempt})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDomainVerifyPoll, data, asynq.Queue(QueueDefault), asynq.MaxRetry(2)), nil
}

// NewAuditRetentionTask constructs the retention cron task.
func NewAuditRetentionTask() *asynq.Task {
	return asynq.NewTask(TaskAuditRetention, nil, asynq.Queue(QueueDefault))
}

// NewIdempotencyCleanupTask constructs the idempotency cleanup cron task.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskIdempotencyCleanup, nil, asynq.Queue(QueueDefault))
}
