package approvals

import (
	"time"

	"github.com/google/uuid"
)

// Action enumerates decision log actions.
type Action string

const (
	// ActionSubmit marks a submit action.
	ActionSubmit Action = "SUBMIT"
	// ActionApprove marks an approve action.
	ActionApprove Action = "APPROVE"
	// ActionReject marks a reject action.
	ActionReject Action = "REJECT"
)

// Step is one escalation stage of a workflow. Steps are ordered; each names
// the minimum priority level an approver needs at that stage.
type Step struct {
	Name        string `json:"name" yaml:"name" validate:"required,min=2,max=80"`
	MinPriority int    `json:"minPriority" yaml:"minPriority" validate:"gt=0,lte=100"`
}

// Workflow is a tenant's approval configuration for one module.
type Workflow struct {
	ID             uuid.UUID `json:"id"`
	TenantID       string    `json:"tenantId"`
	Name           string    `json:"name"`
	Module         string    `json:"module"`
	ThresholdCents int64     `json:"thresholdCents"`
	Steps          []Step    `json:"steps"`
	Enabled        bool      `json:"enabled"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// WorkflowInput carries a workflow definition for create and update.
type WorkflowInput struct {
	Name           string `json:"name" validate:"required,min=2,max=80"`
	Module         string `json:"module" validate:"required,oneof=campaigns coupons taxes domains imports"`
	ThresholdCents int64  `json:"thresholdCents" validate:"gte=0"`
	Steps          []Step `json:"steps" validate:"required,min=1,max=5,dive"`
	Enabled        bool   `json:"enabled"`
}

// Decision is one entry of the decision log.
type Decision struct {
	ID       int64     `json:"id"`
	TenantID string    `json:"tenantId"`
	Module   string    `json:"module"`
	RefID    uuid.UUID `json:"refId"`
	Actor    string    `json:"actor"`
	Action   Action    `json:"action"`
	Note     string    `json:"note,omitempty"`
	At       time.Time `json:"at"`
}

// DecisionInput carries an approve/reject/submit request.
type DecisionInput struct {
	Note string `json:"note" validate:"max=400"`
}
