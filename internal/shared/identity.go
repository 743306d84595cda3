package shared

import (
	"net/http"
	"strings"
)

// Claim headers set by the platform edge proxy after JWT verification.
// The staff-service and every upstream expect the same trio.
const (
	HeaderClaimTenantID = "x-jwt-claim-tenant-id"
	HeaderClaimSub      = "x-jwt-claim-sub"
	HeaderClaimEmail    = "x-jwt-claim-email"
)

// Identity describes the authenticated staff member acting on a tenant.
type Identity struct {
	UserID   string
	TenantID string
	Email    string
}

// Valid reports whether the identity carries both a user and a tenant.
// Permission resolution requires both; anything less fails closed.
func (id Identity) Valid() bool {
	return id.UserID != "" && id.TenantID != ""
}

// IdentityFromHeaders reads the edge-injected claim headers.
func IdentityFromHeaders(r *http.Request) Identity {
	return Identity{
		UserID:   strings.TrimSpace(r.Header.Get(HeaderClaimSub)),
		TenantID: strings.TrimSpace(r.Header.Get(HeaderClaimTenantID)),
		Email:    strings.TrimSpace(r.Header.Get(HeaderClaimEmail)),
	}
}

// ApplyClaimHeaders stamps the identity onto an outgoing upstream request.
func (id Identity) ApplyClaimHeaders(h http.Header) {
	if id.TenantID != "" {
		h.Set(HeaderClaimTenantID, id.TenantID)
	}
	if id.UserID != "" {
		h.Set(HeaderClaimSub, id.UserID)
	}
	if id.Email != "" {
		h.Set(HeaderClaimEmail, id.Email)
	}
}
