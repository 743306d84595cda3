package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/aldercommerce/alder-admin/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Account, error) {
	account, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !account.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return account, nil
}

// ResolveTenant picks the tenant for a fresh login. An explicit request must
// be backed by a membership; otherwise the oldest membership wins.
func (s *Service) ResolveTenant(ctx context.Context, accountID, requested string) (string, error) {
	if requested != "" {
		member, err := s.repo.IsMember(ctx, accountID, requested)
		if err != nil {
			return "", err
		}
		if !member {
			return "", shared.ErrNotMember
		}
		return requested, nil
	}
	tenants, err := s.repo.ListTenants(ctx, accountID)
	if err != nil {
		return "", err
	}
	if len(tenants) == 0 {
		return "", shared.ErrNotMember
	}
	return tenants[0], nil
}

// SwitchTenant validates a tenant change for an established identity.
func (s *Service) SwitchTenant(ctx context.Context, accountID, tenantID string) error {
	if tenantID == "" {
		return shared.ErrNotMember
	}
	member, err := s.repo.IsMember(ctx, accountID, tenantID)
	if err != nil {
		return err
	}
	if !member {
		return shared.ErrNotMember
	}
	return nil
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id, accountID, tenantID string, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, accountID, tenantID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}
