package campaigns

import "time"

// Campaign mirrors the ad-manager-service campaign resource.
type Campaign struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Channel   string    `json:"channel"`
	Budget    Budget    `json:"budget"`
	StartAt   time.Time `json:"startAt"`
	EndAt     time.Time `json:"endAt,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Budget is the campaign spend ceiling.
type Budget struct {
	DailyCents int64  `json:"dailyCents"`
	TotalCents int64  `json:"totalCents"`
	Currency   string `json:"currency"`
}

// Campaign statuses as the ad-manager reports them.
const (
	StatusDraft    = "draft"
	StatusActive   = "active"
	StatusPaused   = "paused"
	StatusArchived = "archived"
)

// ListFilters narrows campaign listings.
type ListFilters struct {
	Status  string
	Channel string
	Search  string
	Page    int
	PerPage int
}

// ListResult is a page of campaigns.
type ListResult struct {
	Items      []Campaign `json:"items"`
	Total      int        `json:"total"`
	Page       int        `json:"page"`
	PerPage    int        `json:"perPage"`
	TotalPages int        `json:"totalPages"`
}

// CreateInput carries a new campaign definition.
type CreateInput struct {
	Name       string    `json:"name" validate:"required,min=3,max=120"`
	Channel    string    `json:"channel" validate:"required,oneof=search display social email"`
	DailyCents int64     `json:"dailyCents" validate:"gte=0"`
	TotalCents int64     `json:"totalCents" validate:"required,gt=0"`
	Currency   string    `json:"currency" validate:"required,len=3"`
	StartAt    time.Time `json:"startAt" validate:"required"`
	EndAt      time.Time `json:"endAt"`
}

// UpdateInput carries mutable campaign fields.
type UpdateInput struct {
	Name       string    `json:"name" validate:"omitempty,min=3,max=120"`
	DailyCents *int64    `json:"dailyCents" validate:"omitempty,gte=0"`
	TotalCents *int64    `json:"totalCents" validate:"omitempty,gt=0"`
	EndAt      time.Time `json:"endAt"`
}
