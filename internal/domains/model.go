package domains

import "time"

// Verification statuses reported by the custom-domain-service.
const (
	StatusPending  = "pending"
	StatusVerified = "verified"
	StatusFailed   = "failed"
)

// Domain is a custom storefront hostname attached to a tenant.
type Domain struct {
	ID          string    `json:"id"`
	Hostname    string    `json:"hostname"`
	Status      string    `json:"status"`
	Primary     bool      `json:"primary"`
	TXTRecord   string    `json:"txtRecord,omitempty"`
	VerifiedAt  time.Time `json:"verifiedAt,omitempty"`
	LastChecked time.Time `json:"lastChecked,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// AddInput carries a hostname to attach.
type AddInput struct {
	Hostname string `json:"hostname" validate:"required,min=4,max=253"`
}

// ListResult is the custom-domain-service listing.
type ListResult struct {
	Items []Domain `json:"items"`
	Total int      `json:"total"`
}
