package campaigns

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/currency"

	"github.com/aldercommerce/alder-admin/internal/audit"
	"github.com/aldercommerce/alder-admin/internal/platform/httpx"
	"github.com/aldercommerce/alder-admin/internal/platform/upstream"
	"github.com/aldercommerce/alder-admin/internal/shared"
)

const serviceName = "ad-manager"

// Service proxies campaign operations to the ad-manager-service, recording
// every mutation in the local audit trail.
type Service struct {
	client   *upstream.Client
	cache    *upstream.ReadCache
	recorder *audit.Recorder
	validate *validator.Validate
}

// NewService constructs a Service.
func NewService(client *upstream.Client, cache *upstream.ReadCache, recorder *audit.Recorder) *Service {
	return &Service{client: client, cache: cache, recorder: recorder, validate: validator.New()}
}

// List returns a page of campaigns for the tenant.
func (s *Service) List(ctx context.Context, id shared.Identity, filters ListFilters) (ListResult, error) {
	query := url.Values{}
	if filters.Status != "" {
		query.Set("status", filters.Status)
	}
	if filters.Channel != "" {
		query.Set("channel", filters.Channel)
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
	key := upstream.Key(id.TenantID, serviceName, "/v1/campaigns", query.Encode())
	err := s.cache.FetchJSON(ctx, key, &result, func(ctx context.Context) (any, error) {
		var fresh ListResult
		if err := s.client.Get(ctx, id, "/v1/campaigns", query, &fresh); err != nil {
			return nil, err
		}
		return fresh, nil
	})
	if err != nil {
		return ListResult{}, err
	}
	if result.Items == nil {
		result.Items = []Campaign{}
	}
	return result, nil
}

// Get fetches one campaign.
func (s *Service) Get(ctx context.Context, id shared.Identity, campaignID string) (Campaign, error) {
	if campaignID == "" {
		return Campaign{}, fmt.Errorf("campaign id required: %w", httpx.ErrValidation)
	}
	var campaign Campaign
	if err := s.client.Get(ctx, id, "/v1/campaigns/"+campaignID, nil, &campaign); err != nil {
		return Campaign{}, err
	}
	return campaign, nil
}

// Create submits a new campaign upstream.
func (s *Service) Create(ctx context.Context, id shared.Identity, input CreateInput) (Campaign, error) {
	if err := s.validate.Struct(input); err != nil {
		return Campaign{}, fmt.Errorf("%v: %w", err, httpx.ErrValidation)
	}
	if err := validateCurrency(input.Currency); err != nil {
		return Campaign{}, err
	}
	if !input.EndAt.IsZero() && !input.EndAt.After(input.StartAt) {
		return Campaign{}, fmt.Errorf("end must be after start: %w", httpx.ErrValidation)
	}
	if input.DailyCents > input.TotalCents {
		return Campaign{}, fmt.Errorf("daily budget exceeds total: %w", httpx.ErrValidation)
	}

	var campaign Campaign
	if err := s.client.Post(ctx, id, "/v1/campaigns", input, &campaign); err != nil {
		return Campaign{}, err
	}
	s.recordAndInvalidate(ctx, id, "campaign.create", campaign.ID, map[string]any{"name": campaign.Name})
	return campaign, nil
}

// Update patches mutable fields of a campaign.
func (s *Service) Update(ctx context.Context, id shared.Identity, campaignID string, input UpdateInput) (Campaign, error) {
	if campaignID == "" {
		return Campaign{}, fmt.Errorf("campaign id required: %w", httpx.ErrValidation)
	}
	if err := s.validate.Struct(input); err != nil {
		return Campaign{}, fmt.Errorf("%v: %w", err, httpx.ErrValidation)
	}
	if input.DailyCents != nil && input.TotalCents != nil && *input.DailyCents > *input.TotalCents {
		return Campaign{}, fmt.Errorf("daily budget exceeds total: %w", httpx.ErrValidation)
	}

	var campaign Campaign
	if err := s.client.Patch(ctx, id, "/v1/campaigns/"+campaignID, input, &campaign); err != nil {
		return Campaign{}, err
	}
	s.recordAndInvalidate(ctx, id, "campaign.update", campaignID, nil)
	return campaign, nil
}

// Pause stops delivery without losing campaign state.
func (s *Service) Pause(ctx context.Context, id shared.Identity, campaignID string) (Campaign, error) {
	return s.transition(ctx, id, campaignID, "pause")
}

// Resume restarts a paused campaign.
func (s *Service) Resume(ctx context.Context, id shared.Identity, campaignID string) (Campaign, error) {
	return s.transition(ctx, id, campaignID, "resume")
}

// Archive retires a campaign permanently.
func (s *Service) Archive(ctx context.Context, id shared.Identity, campaignID string) (Campaign, error) {
	return s.transition(ctx, id, campaignID, "archive")
}

func (s *Service) transition(ctx context.Context, id shared.Identity, campaignID, verb string) (Campaign, error) {
	if campaignID == "" {
		return Campaign{}, fmt.Errorf("campaign id required: %w", httpx.ErrValidation)
	}
	var campaign Campaign
	if err := s.client.Post(ctx, id, "/v1/campaigns/"+campaignID+"/"+verb, nil, &campaign); err != nil {
		return Campaign{}, err
	}
	s.recordAndInvalidate(ctx, id, "campaign."+verb, campaignID, nil)
	return campaign, nil
}

func (s *Service) recordAndInvalidate(ctx context.Context, id shared.Identity, action, entityID string, meta map[string]any) {
	_ = s.recorder.Record(ctx, audit.Entry{
		TenantID: id.TenantID,
		Actor:    id.UserID,
		Action:   action,
		Entity:   "campaign",
		EntityID: entityID,
		Meta:     meta,
	})
	_ = s.cache.Invalidate(ctx, id.TenantID, serviceName)
}

func validateCurrency(code string) error {
	if _, err := currency.ParseISO(code); err != nil {
		return fmt.Errorf("unknown currency %q: %w", code, httpx.ErrValidation)
	}
	return nil
}
