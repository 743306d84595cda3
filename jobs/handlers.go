package jobs

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/aldercommerce/alder-admin/internal/audit"
	"github.com/aldercommerce/alder-admin/internal/coupons"
	"github.com/aldercommerce/alder-admin/internal/domains"
	"github.com/aldercommerce/alder-admin/internal/imports"
	jobmetrics "github.com/aldercommerce/alder-admin/internal/jobs"
	"github.com/aldercommerce/alder-admin/internal/shared"
)

const (
	// maxVerifyAttempts bounds domain verification polling.
	maxVerifyAttempts = 12
	// verifyPollInterval spaces domain verification rounds.
	verifyPollInterval = 5 * time.Minute
	// couponPushBatch bounds one upstream coupon push.
	couponPushBatch = 500
)

// Handlers owns the worker-side task implementations.
type Handlers struct {
	Importer    *imports.Processor
	Coupons     *coupons.Service
	Domains     *domains.Service
	Audit       *audit.Recorder
	Idempotency *shared.IdempotencyStore
	Client      *Client

	AuditRetention       time.Duration
	IdempotencyRetention time.Duration

	Metrics *jobmetrics.Metrics
	Logger  *slog.Logger
}

// HandleImportProcess runs one CSV import to completion.
func (h *Handlers) HandleImportProcess(ctx context.Context, t *asynq.Task) error {
	var payload ImportProcessPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := h.Metrics.Track("import_process")
	err := h.Importer.Process(ctx, payload.Identity(), payload.JobID)
	if err != nil {
		h.Logger.Error("import process",
			slog.String("job", payload.JobID.String()),
			slog.Any("error", err))
	}
	return tracker.End(err)
}

// HandleCouponBulkGenerate mints the requested codes and pushes them upstream
// in batches.
func (h *Handlers) HandleCouponBulkGenerate(ctx context.Context, t *asynq.Task) error {
	var payload CouponBulkPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := h.Metrics.Track("coupon_bulk_generate")
	err := h.generateCoupons(ctx, payload)
	if err != nil {
		h.Logger.Error("coupon bulk generate",
			slog.String("batch", payload.BatchID.String()),
			slog.Any("error", err))
	}
	return tracker.End(err)
}

func (h *Handlers) generateCoupons(ctx context.Context, payload CouponBulkPayload) error {
	req := payload.Request
	batch := make([]coupons.CouponInput, 0, couponPushBatch)
	for i := 0; i < req.Count; i++ {
		suffix, err := randomCode(8)
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		batch = append(batch, coupons.CouponInput{
			Code:        req.Prefix + "-" + suffix,
			Type:        req.Type,
			PercentOff:  req.PercentOff,
			AmountCents: req.AmountCents,
			Currency:    req.Currency,
			StartsAt:    req.StartsAt,
			EndsAt:      req.EndsAt,
			MaxUses:     1,
		})
		if len(batch) == couponPushBatch {
			if err := h.Coupons.PushBatch(ctx, payload.Identity(), batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := h.Coupons.PushBatch(ctx, payload.Identity(), batch); err != nil {
			return err
		}
	}
	return h.Audit.Record(ctx, audit.Entry{
		TenantID: payload.TenantID,
		Actor:    payload.UserID,
		Action:   "coupon.bulk_generated",
		Entity:   "coupon_batch",
		EntityID: payload.BatchID.String(),
		Meta:     map[string]any{"count": req.Count, "prefix": req.Prefix},
	})
}

// codeAlphabet omits easily confused characters (0/O, 1/I/L).
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

func randomCode(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}

// HandleDomainVerifyPoll re-checks a pending domain and reschedules itself
// until the domain verifies, fails, or the attempt budget runs out.
func (h *Handlers) HandleDomainVerifyPoll(ctx context.Context, t *asynq.Task) error {
	var payload DomainVerifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := h.Metrics.Track("domain_verify_poll")

	domain, err := h.Domains.CheckVerification(ctx, payload.Identity(), payload.DomainID)
	if err != nil {
		h.Logger.Warn("domain verify poll",
			slog.String("domain", payload.DomainID),
			slog.Any("error", err))
		return tracker.End(err)
	}

	if domain.Status == domains.StatusPending && payload.Attempt+1 < maxVerifyAttempts {
		if err := h.Client.enqueueDomainVerify(ctx, payload.Identity(), payload.DomainID, payload.Attempt+1, verifyPollInterval); err != nil {
			return tracker.End(err)
		}
	}
	if domain.Status == domains.StatusPending && payload.Attempt+1 >= maxVerifyAttempts {
		h.Logger.Info("domain verification gave up",
			slog.String("domain", payload.DomainID),
			slog.Int("attempts", payload.Attempt+1))
	}
	return tracker.End(nil)
}

// HandleAuditRetention prunes audit rows past the retention window.
func (h *Handlers) HandleAuditRetention(ctx context.Context, _ *asynq.Task) error {
	tracker := h.Metrics.Track("audit_retention")
	removed, err := h.Audit.Cleanup(ctx, h.AuditRetention)
	if err == nil && removed > 0 {
		h.Logger.Info("audit retention pruned rows", slog.Int64("removed", removed))
	}
	return tracker.End(err)
}

// HandleIdempotencyCleanup prunes expired idempotency keys.
func (h *Handlers) HandleIdempotencyCleanup(ctx context.Context, _ *asynq.Task) error {
	tracker := h.Metrics.Track("idempotency_cleanup")
	return tracker.End(h.Idempotency.Cleanup(ctx, h.IdempotencyRetention))
}
