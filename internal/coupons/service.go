package coupons

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/currency"

	"github.com/aldercommerce/alder-admin/internal/audit"
	"github.com/aldercommerce/alder-admin/internal/platform/httpx"
	"github.com/aldercommerce/alder-admin/internal/platform/upstream"
	"github.com/aldercommerce/alder-admin/internal/shared"
)

const serviceName = "coupon"

// BulkEnqueuer hands bulk code generation off to the worker queue.
type BulkEnqueuer interface {
	EnqueueCouponBulk(ctx context.Context, id shared.Identity, req BulkGenerateRequest) (string, error)
}

// Service proxies coupon operations to the coupon-service.
type Service struct {
	client   *upstream.Client
	cache    *upstream.ReadCache
	recorder *audit.Recorder
	enqueuer BulkEnqueuer
	validate *validator.Validate
}

// NewService constructs a Service.
func NewService(client *upstream.Client, cache *upstream.ReadCache, recorder *audit.Recorder, enqueuer BulkEnqueuer) *Service {
	return &Service{client: client, cache: cache, recorder: recorder, enqueuer: enqueuer, validate: validator.New()}
}

// List returns a page of coupons for the tenant.
func (s *Service) List(ctx context.Context, id shared.Identity, filters ListFilters) (ListResult, error) {
	query := url.Values{}
	if filters.Type != "" {
		query.Set("type", filters.Type)
	}
	if filters.Active != "" {
		query.Set("active", filters.Active)
	}
	if filters.Search != "" {
		query.Set("q", filters.Search)
	}
	if filters.Page > 0 {
		query.Set("page", strconv.Itoa(filters.Page))
	}
	if filters.PerPage > 0 {
		query.Set("perPage", strconv.Itoa(filters.PerPage))
	}

	var result ListResult
	key := upstream.Key(id.TenantID, serviceName, "/v1/coupons", query.Encode())
	err := s.cache.FetchJSON(ctx, key, &result, func(ctx context.Context) (any, error) {
		var fresh ListResult
		if err := s.client.Get(ctx, id, "/v1/coupons", query, &fresh); err != nil {
			return nil, err
		}
		return fresh, nil
	})
	if err != nil {
		return ListResult{}, err
	}
	if result.Items == nil {
		result.Items = []Coupon{}
	}
	return result, nil
}

// Get fetches one coupon.
func (s *Service) Get(ctx context.Context, id shared.Identity, couponID string) (Coupon, error) {
	if couponID == "" {
		return Coupon{}, fmt.Errorf("coupon id required: %w", httpx.ErrValidation)
	}
	var coupon Coupon
	if err := s.client.Get(ctx, id, "/v1/coupons/"+couponID, nil, &coupon); err != nil {
		return Coupon{}, err
	}
	return coupon, nil
}

// Create submits a new coupon upstream.
func (s *Service) Create(ctx context.Context, id shared.Identity, input CouponInput) (Coupon, error) {
	if err := s.validateInput(input); err != nil {
		return Coupon{}, err
	}
	var coupon Coupon
	if err := s.client.Post(ctx, id, "/v1/coupons", input, &coupon); err != nil {
		return Coupon{}, err
	}
	s.recordAndInvalidate(ctx, id, "coupon.create", coupon.ID, map[string]any{"code": coupon.Code})
	return coupon, nil
}

// Update replaces a coupon definition.
func (s *Service) Update(ctx context.Context, id shared.Identity, couponID string, input CouponInput) (Coupon, error) {
	if couponID == "" {
		return Coupon{}, fmt.Errorf("coupon id required: %w", httpx.ErrValidation)
	}
	if err := s.validateInput(input); err != nil {
		return Coupon{}, err
	}
	var coupon Coupon
	if err := s.client.Put(ctx, id, "/v1/coupons/"+couponID, input, &coupon); err != nil {
		return Coupon{}, err
	}
	s.recordAndInvalidate(ctx, id, "coupon.update", couponID, nil)
	return coupon, nil
}

// Disable turns a coupon off without deleting its redemption history.
func (s *Service) Disable(ctx context.Context, id shared.Identity, couponID string) (Coupon, error) {
	if couponID == "" {
		return Coupon{}, fmt.Errorf("coupon id required: %w", httpx.ErrValidation)
	}
	var coupon Coupon
	if err := s.client.Post(ctx, id, "/v1/coupons/"+couponID+"/disable", nil, &coupon); err != nil {
		return Coupon{}, err
	}
	s.recordAndInvalidate(ctx, id, "coupon.disable", couponID, nil)
	return coupon, nil
}

// BulkGenerate validates and enqueues a bulk code generation job, returning
// the job reference.
func (s *Service) BulkGenerate(ctx context.Context, id shared.Identity, req BulkGenerateRequest) (string, error) {
	if err := s.validate.Struct(req); err != nil {
		return "", fmt.Errorf("%v: %w", err, httpx.ErrValidation)
	}
	if err := validateDiscount(req.Type, req.PercentOff, req.AmountCents, req.Currency); err != nil {
		return "", err
	}
	if err := validateSchedule(req.StartsAt, req.EndsAt); err != nil {
		return "", err
	}
	if s.enqueuer == nil {
		return "", fmt.Errorf("coupons: bulk generation not configured")
	}
	ref, err := s.enqueuer.EnqueueCouponBulk(ctx, id, req)
	if err != nil {
		return "", err
	}
	_ = s.recorder.Record(ctx, audit.Entry{
		TenantID: id.TenantID,
		Actor:    id.UserID,
		Action:   "coupon.bulk_generate",
		Entity:   "coupon_batch",
		EntityID: ref,
		Meta:     map[string]any{"prefix": req.Prefix, "count": req.Count},
	})
	return ref, nil
}

// PushBatch submits generated codes upstream. Called from the worker.
func (s *Service) PushBatch(ctx context.Context, id shared.Identity, inputs []CouponInput) error {
	if len(inputs) == 0 {
		return nil
	}
	return s.client.Post(ctx, id, "/v1/coupons/batch", map[string]any{"coupons": inputs}, nil)
}

func (s *Service) validateInput(input CouponInput) error {
	if err := s.validate.Struct(input); err != nil {
		return fmt.Errorf("%v: %w", err, httpx.ErrValidation)
	}
	if err := validateDiscount(input.Type, input.PercentOff, input.AmountCents, input.Currency); err != nil {
		return err
	}
	return validateSchedule(input.StartsAt, input.EndsAt)
}

func validateDiscount(kind string, percentOff float64, amountCents int64, currencyCode string) error {
	switch kind {
	case TypePercentage:
		if percentOff <= 0 {
			return fmt.Errorf("percentage coupon requires percentOff: %w", httpx.ErrValidation)
		}
	case TypeFixedAmount:
		if amountCents <= 0 {
			return fmt.Errorf("fixed amount coupon requires amountCents: %w", httpx.ErrValidation)
		}
		if _, err := currency.ParseISO(currencyCode); err != nil {
			return fmt.Errorf("unknown currency %q: %w", currencyCode, httpx.ErrValidation)
		}
	}
	return nil
}

func validateSchedule(startsAt, endsAt time.Time) error {
	if !endsAt.IsZero() && !endsAt.After(startsAt) {
		return fmt.Errorf("endsAt must be after startsAt: %w", httpx.ErrValidation)
	}
	return nil
}

func (s *Service) recordAndInvalidate(ctx context.Context, id shared.Identity, action, entityID string, meta map[string]any) {
	_ = s.recorder.Record(ctx, audit.Entry{
		TenantID: id.TenantID,
		Actor:    id.UserID,
		Action:   action,
		Entity:   "coupon",
		EntityID: entityID,
		Meta:     meta,
	})
	_ = s.cache.Invalidate(ctx, id.TenantID, serviceName)
}
