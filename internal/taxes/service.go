package taxes

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/aldercommerce/alder-admin/internal/audit"
	"github.com/aldercommerce/alder-admin/internal/platform/httpx"
	"github.com/aldercommerce/alder-admin/internal/platform/upstream"
	"github.com/aldercommerce/alder-admin/internal/shared"
)

const serviceName = "tax"

// Service proxies tax configuration to the tax-service.
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

// ListClasses returns all tax classes for the tenant.
func (s *Service) ListClasses(ctx context.Context, id shared.Identity) (ClassListResult, error) {
	var result ClassListResult
	key := upstream.Key(id.TenantID, serviceName, "/v1/tax-classes", "")
	err := s.cache.FetchJSON(ctx, key, &result, func(ctx context.Context) (any, error) {
		var fresh ClassListResult
		if err := s.client.Get(ctx, id, "/v1/tax-classes", nil, &fresh); err != nil {
			return nil, err
		}
		return fresh, nil
	})
	if err != nil {
		return ClassListResult{}, err
	}
	if result.Items == nil {
		result.Items = []TaxClass{}
	}
	return result, nil
}

// GetClass fetches one tax class.
func (s *Service) GetClass(ctx context.Context, id shared.Identity, classID string) (TaxClass, error) {
	if classID == "" {
		return TaxClass{}, fmt.Errorf("class id required: %w", httpx.ErrValidation)
	}
	var class TaxClass
	if err := s.client.Get(ctx, id, "/v1/tax-classes/"+classID, nil, &class); err != nil {
		return TaxClass{}, err
	}
	return class, nil
}

// CreateClass adds a tax class upstream.
func (s *Service) CreateClass(ctx context.Context, id shared.Identity, input TaxClassInput) (TaxClass, error) {
	if err := s.validate.Struct(input); err != nil {
		return TaxClass{}, fmt.Errorf("%v: %w", err, httpx.ErrValidation)
	}
	var class TaxClass
	if err := s.client.Post(ctx, id, "/v1/tax-classes", input, &class); err != nil {
		return TaxClass{}, err
	}
	s.recordAndInvalidate(ctx, id, "tax_class.create", class.ID, map[string]any{"name": class.Name})
	return class, nil
}

// UpdateClass replaces a tax class definition.
func (s *Service) UpdateClass(ctx context.Context, id shared.Identity, classID string, input TaxClassInput) (TaxClass, error) {
	if classID == "" {
		return TaxClass{}, fmt.Errorf("class id required: %w", httpx.ErrValidation)
	}
	if err := s.validate.Struct(input); err != nil {
		return TaxClass{}, fmt.Errorf("%v: %w", err, httpx.ErrValidation)
	}
	var class TaxClass
	if err := s.client.Put(ctx, id, "/v1/tax-classes/"+classID, input, &class); err != nil {
		return TaxClass{}, err
	}
	s.recordAndInvalidate(ctx, id, "tax_class.update", classID, nil)
	return class, nil
}

// DeleteClass removes a tax class.
func (s *Service) DeleteClass(ctx context.Context, id shared.Identity, classID string) error {
	if classID == "" {
		return fmt.Errorf("class id required: %w", httpx.ErrValidation)
	}
	if err := s.client.Delete(ctx, id, "/v1/tax-classes/"+classID); err != nil {
		return err
	}
	s.recordAndInvalidate(ctx, id, "tax_class.delete", classID, nil)
	return nil
}

// ListRates returns the regional rates of one class.
func (s *Service) ListRates(ctx context.Context, id shared.Identity, classID string) (RateListResult, error) {
	if classID == "" {
		return RateListResult{}, fmt.Errorf("class id required: %w", httpx.ErrValidation)
	}
	path := "/v1/tax-classes/" + classID + "/rates"
	var result RateListResult
	key := upstream.Key(id.TenantID, serviceName, path, "")
	err := s.cache.FetchJSON(ctx, key, &result, func(ctx context.Context) (any, error) {
		var fresh RateListResult
		if err := s.client.Get(ctx, id, path, nil, &fresh); err != nil {
			return nil, err
		}
		return fresh, nil
	})
	if err != nil {
		return RateListResult{}, err
	}
	if result.Items == nil {
		result.Items = []Rate{}
	}
	return result, nil
}

// UpsertRate creates or replaces a regional rate on a class. The tax-service
// keys rates by (country, region, postal code), so a repeat upsert with the
// same region updates in place.
func (s *Service) UpsertRate(ctx context.Context, id shared.Identity, classID string, input RateInput) (Rate, error) {
	if classID == "" {
		return Rate{}, fmt.Errorf("class id required: %w", httpx.ErrValidation)
	}
	if err := s.validate.Struct(input); err != nil {
		return Rate{}, fmt.Errorf("%v: %w", err, httpx.ErrValidation)
	}
	var rate Rate
	if err := s.client.Put(ctx, id, "/v1/tax-classes/"+classID+"/rates", input, &rate); err != nil {
		return Rate{}, err
	}
	s.recordAndInvalidate(ctx, id, "tax_rate.upsert", rate.ID, map[string]any{
		"classId": classID,
		"country": input.CountryCode,
	})
	return rate, nil
}

// DeleteRate removes a regional rate.
func (s *Service) DeleteRate(ctx context.Context, id shared.Identity, classID, rateID string) error {
	if classID == "" || rateID == "" {
		return fmt.Errorf("class and rate id required: %w", httpx.ErrValidation)
	}
	if err := s.client.Delete(ctx, id, "/v1/tax-classes/"+classID+"/rates/"+rateID); err != nil {
		return err
	}
	s.recordAndInvalidate(ctx, id, "tax_rate.delete", rateID, map[string]any{"classId": classID})
	return nil
}

func (s *Service) recordAndInvalidate(ctx context.Context, id shared.Identity, action, entityID string, meta map[string]any) {
	_ = s.recorder.Record(ctx, audit.Entry{
		TenantID: id.TenantID,
		Actor:    id.UserID,
		Action:   action,
		Entity:   "tax",
		EntityID: entityID,
		Meta:     meta,
	})
	_ = s.cache.Invalidate(ctx, id.TenantID, serviceName)
}
