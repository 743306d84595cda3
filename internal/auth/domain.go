package auth

import "time"

// Account represents a first-party admin account.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Membership links an account to a tenant it may administer.
type Membership struct {
	AccountID string
	TenantID  string
	CreatedAt time.Time
}
