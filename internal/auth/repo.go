package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aldercommerce/alder-admin/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	ListTenants(ctx context.Context, accountID string) ([]string, error)
	IsMember(ctx context.Context, accountID, tenantID string) (bool, error)
	CreateSession(ctx context.Context, id, accountID, tenantID string, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, id string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByEmail fetches an account by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	const query = `SELECT id, email, password_hash, is_active, created_at, updated_at
		FROM admin_accounts WHERE email = $1`
	var acc Account
	err := r.pool.QueryRow(ctx, query, email).Scan(
		&acc.ID, &acc.Email, &acc.PasswordHash, &acc.IsActive, &acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &acc, nil
}

// ListTenants returns the tenant ids the account belongs to, oldest first.
func (r *PGRepository) ListTenants(ctx context.Context, accountID string) ([]string, error) {
	const query = `SELECT tenant_id FROM tenant_memberships
		WHERE account_id = $1 ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tenants []string
	for rows.Next() {
		var tenantID string
		if err := rows.Scan(&tenantID); err != nil {
			return nil, err
		}
		tenants = append(tenants, tenantID)
	}
	return tenants, rows.Err()
}

// IsMember reports whether the account belongs to the tenant.
func (r *PGRepository) IsMember(ctx context.Context, accountID, tenantID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM tenant_memberships
		WHERE account_id = $1 AND tenant_id = $2)`
	var member bool
	if err := r.pool.QueryRow(ctx, query, accountID, tenantID).Scan(&member); err != nil {
		return false, err
	}
	return member, nil
}

// CreateSession persists a login session record for auditing.
func (r *PGRepository) CreateSession(ctx context.Context, id, accountID, tenantID string, expiresAt time.Time, ip, ua string) error {
	const query = `INSERT INTO sessions (id, account_id, tenant_id, created_at, expires_at, ip, ua)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''))`
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, query, id, accountID, tenantID, now, expiresAt.UTC(), ip, ua)
	return err
}

// DeleteSession removes a session record.
func (r *PGRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

var _ Repository = (*PGRepository)(nil)
