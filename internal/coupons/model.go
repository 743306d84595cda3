package coupons

import "time"

// Coupon mirrors the coupon-service resource.
type Coupon struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Type        string    `json:"type"`
	PercentOff  float64   `json:"percentOff,omitempty"`
	AmountCents int64     `json:"amountCents,omitempty"`
	Currency    string    `json:"currency,omitempty"`
	StartsAt    time.Time `json:"startsAt"`
	EndsAt      time.Time `json:"endsAt,omitempty"`
	MaxUses     int       `json:"maxUses,omitempty"`
	Uses        int       `json:"uses"`
	Disabled    bool      `json:"disabled"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Coupon types.
const (
	TypePercentage  = "percentage"
	TypeFixedAmount = "fixed_amount"
)

// ListFilters narrows coupon listings.
type ListFilters struct {
	Type    string
	Active  string
	Search  string
	Page    int
	PerPage int
}

// ListResult is a page of coupons.
type ListResult struct {
	Items      []Coupon `json:"items"`
	Total      int      `json:"total"`
	Page       int      `json:"page"`
	PerPage    int      `json:"perPage"`
	TotalPages int      `json:"totalPages"`
}

// CouponInput carries a coupon definition for create and update.
type CouponInput struct {
	Code        string    `json:"code" validate:"required,min=3,max=40,uppercase"`
	Type        string    `json:"type" validate:"required,oneof=percentage fixed_amount"`
	PercentOff  float64   `json:"percentOff" validate:"gte=0,lte=100"`
	AmountCents int64     `json:"amountCents" validate:"gte=0"`
	Currency    string    `json:"currency"`
	StartsAt    time.Time `json:"startsAt" validate:"required"`
	EndsAt      time.Time `json:"endsAt"`
	MaxUses     int       `json:"maxUses" validate:"gte=0"`
}

// BulkGenerateRequest asks the worker to mint a batch of single-use codes.
type BulkGenerateRequest struct {
	Prefix      string    `json:"prefix" validate:"required,min=2,max=12,uppercase"`
	Count       int       `json:"count" validate:"required,gt=0,lte=10000"`
	Type        string    `json:"type" validate:"required,oneof=percentage fixed_amount"`
	PercentOff  float64   `json:"percentOff" validate:"gte=0,lte=100"`
	AmountCents int64     `json:"amountCents" validate:"gte=0"`
	Currency    string    `json:"currency"`
	StartsAt    time.Time `json:"startsAt" validate:"required"`
	EndsAt      time.Time `json:"endsAt"`
}
