package taxes

import "time"

// TaxClass groups products under a shared tax treatment.
type TaxClass struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsDefault   bool      `json:"isDefault"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TaxClassInput carries a class definition for create and update.
type TaxClassInput struct {
	Name        string `json:"name" validate:"required,min=2,max=80"`
	Description string `json:"description" validate:"max=400"`
	IsDefault   bool   `json:"isDefault"`
}

// Rate is a regional tax rate attached to a class.
type Rate struct {
	ID          string    `json:"id"`
	ClassID     string    `json:"classId"`
	CountryCode string    `json:"countryCode"`
	Region      string    `json:"region,omitempty"`
	PostalCode  string    `json:"postalCode,omitempty"`
	Percent     float64   `json:"percent"`
	Compound    bool      `json:"compound"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// RateInput carries a regional rate for upsert.
type RateInput struct {
	CountryCode string  `json:"countryCode" validate:"required,iso3166_1_alpha2"`
	Region      string  `json:"region" validate:"max=10"`
	PostalCode  string  `json:"postalCode" validate:"max=16"`
	Percent     float64 `json:"percent" validate:"gte=0,lte=100"`
	Compound    bool    `json:"compound"`
}

// ClassListResult is the tax-service class listing.
type ClassListResult struct {
	Items []TaxClass `json:"items"`
	Total int        `json:"total"`
}

// RateListResult is the tax-service rate listing for one class.
type RateListResult struct {
	Items []Rate `json:"items"`
	Total int    `json:"total"`
}
