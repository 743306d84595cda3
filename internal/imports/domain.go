package imports

import (
	"time"

	"github.com/google/uuid"
)

// Import kinds.
const (
	KindProducts  = "products"
	KindCoupons   = "coupons"
	KindCustomers = "customers"
)

// Job statuses. A job moves pending → running → completed or failed.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Job is one CSV import run.
type Job struct {
	ID            uuid.UUID `json:"id"`
	TenantID      string    `json:"tenantId"`
	Kind          string    `json:"kind"`
	Status        string    `json:"status"`
	Filename      string    `json:"filename"`
	ObjectKey     string    `json:"-"`
	ReportKey     string    `json:"-"`
	TotalRows     int       `json:"totalRows"`
	ProcessedRows int       `json:"processedRows"`
	FailedRows    int       `json:"failedRows"`
	Error         string    `json:"error,omitempty"`
	CreatedBy     string    `json:"createdBy"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// HasReport reports whether a failed-row report was written.
func (j Job) HasReport() bool {
	return j.ReportKey != "" && j.FailedRows > 0
}

// ValidKind reports whether kind names a supported import.
func ValidKind(kind string) bool {
	switch kind {
	case KindProducts, KindCoupons, KindCustomers:
		return true
	}
	return false
}
