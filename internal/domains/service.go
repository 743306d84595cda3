package domains

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/net/idna"

	"github.com/aldercommerce/alder-admin/internal/audit"
	"github.com/aldercommerce/alder-admin/internal/platform/httpx"
	"github.com/aldercommerce/alder-admin/internal/platform/upstream"
	"github.com/aldercommerce/alder-admin/internal/shared"
)

const serviceName = "custom-domain"

// VerifyEnqueuer schedules a verification poll for a newly added domain.
type VerifyEnqueuer interface {
	EnqueueDomainVerify(ctx context.Context, id shared.Identity, domainID string) error
}

// Service proxies custom-domain operations to the custom-domain-service.
type Service struct {
	client   *upstream.Client
	cache    *upstream.ReadCache
	recorder *audit.Recorder
	enqueuer VerifyEnqueuer
	validate *validator.Validate
}

// NewService constructs a Service.
func NewService(client *upstream.Client, cache *upstream.ReadCache, recorder *audit.Recorder, enqueuer VerifyEnqueuer) *Service {
	return &Service{client: client, cache: cache, recorder: recorder, enqueuer: enqueuer, validate: validator.New()}
}

// NormalizeHostname lowercases and IDNA-encodes a hostname so that
// "Café.example" and "xn--caf-dma.example" compare equal. Rejects
// hostnames that do not survive a lookup-strict round trip.
func NormalizeHostname(raw string) (string, error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(raw), ".")
	if trimmed == "" {
		return "", fmt.Errorf("hostname required: %w", httpx.ErrValidation)
	}
	ascii, err := idna.Lookup.ToASCII(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid hostname %q: %w", raw, httpx.ErrValidation)
	}
	if !strings.Contains(ascii, ".") {
		return "", fmt.Errorf("hostname %q needs at least one dot: %w", raw, httpx.ErrValidation)
	}
	return ascii, nil
}

// List returns the tenant's custom domains.
func (s *Service) List(ctx context.Context, id shared.Identity) (ListResult, error) {
	var result ListResult
	key := upstream.Key(id.TenantID, serviceName, "/v1/domains", "")
	err := s.cache.FetchJSON(ctx, key, &result, func(ctx context.Context) (any, error) {
		var fresh ListResult
		if err := s.client.Get(ctx, id, "/v1/domains", nil, &fresh); err != nil {
			return nil, err
		}
		return fresh, nil
	})
	if err != nil {
		return ListResult{}, err
	}
	if result.Items == nil {
		result.Items = []Domain{}
	}
	return result, nil
}

// Get fetches one domain, including its TXT verification record.
func (s *Service) Get(ctx context.Context, id shared.Identity, domainID string) (Domain, error) {
	if domainID == "" {
		return Domain{}, fmt.Errorf("domain id required: %w", httpx.ErrValidation)
	}
	var domain Domain
	if err := s.client.Get(ctx, id, "/v1/domains/"+domainID, nil, &domain); err != nil {
		return Domain{}, err
	}
	return domain, nil
}

// Add attaches a hostname. The upstream issues a TXT token; verification is
// polled asynchronously by the worker.
func (s *Service) Add(ctx context.Context, id shared.Identity, input AddInput) (Domain, error) {
	if err := s.validate.Struct(input); err != nil {
		return Domain{}, fmt.Errorf("%v: %w", err, httpx.ErrValidation)
	}
	hostname, err := NormalizeHostname(input.Hostname)
	if err != nil {
		return Domain{}, err
	}
	var domain Domain
	if err := s.client.Post(ctx, id, "/v1/domains", AddInput{Hostname: hostname}, &domain); err != nil {
		return Domain{}, err
	}
	s.recordAndInvalidate(ctx, id, "domain.add", domain.ID, map[string]any{"hostname": hostname})
	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueueDomainVerify(ctx, id, domain.ID); err != nil {
			return Domain{}, fmt.Errorf("schedule verification: %w", err)
		}
	}
	return domain, nil
}

// Remove detaches a hostname.
func (s *Service) Remove(ctx context.Context, id shared.Identity, domainID string) error {
	if domainID == "" {
		return fmt.Errorf("domain id required: %w", httpx.ErrValidation)
	}
	if err := s.client.Delete(ctx, id, "/v1/domains/"+domainID); err != nil {
		return err
	}
	s.recordAndInvalidate(ctx, id, "domain.remove", domainID, nil)
	return nil
}

// SetPrimary marks one verified domain as the storefront's primary hostname.
func (s *Service) SetPrimary(ctx context.Context, id shared.Identity, domainID string) (Domain, error) {
	if domainID == "" {
		return Domain{}, fmt.Errorf("domain id required: %w", httpx.ErrValidation)
	}
	var domain Domain
	if err := s.client.Post(ctx, id, "/v1/domains/"+domainID+"/primary", nil, &domain); err != nil {
		return Domain{}, err
	}
	s.recordAndInvalidate(ctx, id, "domain.set_primary", domainID, nil)
	return domain, nil
}

// CheckVerification asks the upstream to re-check DNS for a pending domain.
// Called from the worker poll task; returns the refreshed domain so the
// caller can decide whether to reschedule.
func (s *Service) CheckVerification(ctx context.Context, id shared.Identity, domainID string) (Domain, error) {
	if domainID == "" {
		return Domain{}, fmt.Errorf("domain id required: %w", httpx.ErrValidation)
	}
	var domain Domain
	if err := s.client.Post(ctx, id, "/v1/domains/"+domainID+"/verify", nil, &domain); err != nil {
		return Domain{}, err
	}
	if domain.Status == StatusVerified {
		s.recordAndInvalidate(ctx, id, "domain.verified", domainID, map[string]any{"hostname": domain.Hostname})
	}
	return domain, nil
}

func (s *Service) recordAndInvalidate(ctx context.Context, id shared.Identity, action, entityID string, meta map[string]any) {
	_ = s.recorder.Record(ctx, audit.Entry{
		TenantID: id.TenantID,
		Actor:    id.UserID,
		Action:   action,
		Entity:   "domain",
		EntityID: entityID,
		Meta:     meta,
	})
	_ = s.cache.Invalidate(ctx, id.TenantID, serviceName)
}
