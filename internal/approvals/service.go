package approvals

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/aldercommerce/alder-admin/internal/audit"
	"github.com/aldercommerce/alder-admin/internal/permissions"
	"github.com/aldercommerce/alder-admin/internal/platform/httpx"
	"github.com/aldercommerce/alder-admin/internal/shared"
)

// ErrNotSubmitted is returned when approving or rejecting a reference that
// has no submit record.
var ErrNotSubmitted = errors.New("reference not submitted for approval")

// ErrPriorityTooLow is returned when the actor's priority level is below the
// workflow step's minimum.
var ErrPriorityTooLow = errors.New("priority level below workflow step minimum")

// Service owns approval workflow configuration and the decision log.
type Service struct {
	repo     Repository
	recorder *audit.Recorder
	resolver *permissions.Resolver
	logger   *slog.Logger
	validate *validator.Validate
}

// NewService constructs a Service.
func NewService(repo Repository, recorder *audit.Recorder, resolver *permissions.Resolver, logger *slog.Logger) *Service {
	return &Service{repo: repo, recorder: recorder, resolver: resolver, logger: logger, validate: validator.New()}
}

// EnsureSeeded inserts the default workflows for a tenant that has none yet.
func (s *Service) EnsureSeeded(ctx context.Context, id shared.Identity) error {
	count, err := s.repo.CountWorkflows(ctx, id.TenantID)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	defaults, err := DefaultWorkflows()
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, input := range defaults {
		w := Workflow{
			ID:             uuid.New(),
			TenantID:       id.TenantID,
			Name:           input.Name,
			Module:         input.Module,
			ThresholdCents: input.ThresholdCents,
			Steps:          input.Steps,
			Enabled:        input.Enabled,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.repo.InsertWorkflow(ctx, w); err != nil {
			return fmt.Errorf("seed workflow %s: %w", input.Name, err)
		}
	}
	s.logger.Info("seeded default approval workflows",
		slog.String("tenant", id.TenantID),
		slog.Int("count", len(defaults)))
	return nil
}

// List returns the tenant's workflows, seeding defaults on first use.
func (s *Service) List(ctx context.Context, id shared.Identity) ([]Workflow, error) {
	if err := s.EnsureSeeded(ctx, id); err != nil {
		return nil, err
	}
	workflows, err := s.repo.ListWorkflows(ctx, id.TenantID)
	if err != nil {
		return nil, err
	}
	if workflows == nil {
		workflows = []Workflow{}
	}
	return workflows, nil
}

// Get fetches one workflow.
func (s *Service) Get(ctx context.Context, id shared.Identity, workflowID uuid.UUID) (Workflow, error) {
	return s.repo.GetWorkflow(ctx, id.TenantID, workflowID)
}

// Create adds a workflow.
func (s *Service) Create(ctx context.Context, id shared.Identity, input WorkflowInput) (Workflow, error) {
	if err := s.validateInput(input); err != nil {
		return Workflow{}, err
	}
	now := time.Now().UTC()
	w := Workflow{
		ID:             uuid.New(),
		TenantID:       id.TenantID,
		Name:           input.Name,
		Module:         input.Module,
		ThresholdCents: input.ThresholdCents,
		Steps:          input.Steps,
		Enabled:        input.Enabled,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.InsertWorkflow(ctx, w); err != nil {
		return Workflow{}, err
	}
	s.record(ctx, id, "approval_workflow.create", w.ID.String(), map[string]any{"name": w.Name, "module": w.Module})
	return w, nil
}

// Update replaces a workflow definition.
func (s *Service) Update(ctx context.Context, id shared.Identity, workflowID uuid.UUID, input WorkflowInput) (Workflow, error) {
	if err := s.validateInput(input); err != nil {
		return Workflow{}, err
	}
	current, err := s.repo.GetWorkflow(ctx, id.TenantID, workflowID)
	if err != nil {
		return Workflow{}, err
	}
	current.Name = input.Name
	current.Module = input.Module
	current.ThresholdCents = input.ThresholdCents
	current.Steps = input.Steps
	current.Enabled = input.Enabled
	if err := s.repo.UpdateWorkflow(ctx, current); err != nil {
		return Workflow{}, err
	}
	s.record(ctx, id, "approval_workflow.update", workflowID.String(), nil)
	return s.repo.GetWorkflow(ctx, id.TenantID, workflowID)
}

// Delete removes a workflow.
func (s *Service) Delete(ctx context.Context, id shared.Identity, workflowID uuid.UUID) error {
	if err := s.repo.DeleteWorkflow(ctx, id.TenantID, workflowID); err != nil {
		return err
	}
	s.record(ctx, id, "approval_workflow.delete", workflowID.String(), nil)
	return nil
}

// Submit opens the decision log for a module reference.
func (s *Service) Submit(ctx context.Context, id shared.Identity, module string, ref uuid.UUID, note string) error {
	if ref == uuid.Nil {
		return fmt.Errorf("reference id required: %w", httpx.ErrValidation)
	}
	exists, err := s.repo.HasDecision(ctx, id.TenantID, module, ref, ActionSubmit)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.decide(ctx, id, module, ref, ActionSubmit, note)
}

// Approve records an approval. The actor's priority level must meet the
// first enabled workflow step for the module.
func (s *Service) Approve(ctx context.Context, id shared.Identity, module string, ref uuid.UUID, note string) error {
	return s.closeOut(ctx, id, module, ref, ActionApprove, note)
}

// Reject records a rejection.
func (s *Service) Reject(ctx context.Context, id shared.Identity, module string, ref uuid.UUID, note string) error {
	return s.closeOut(ctx, id, module, ref, ActionReject, note)
}

// Decisions lists the decision log for a module reference in submit order.
func (s *Service) Decisions(ctx context.Context, id shared.Identity, module string, ref uuid.UUID) ([]Decision, error) {
	if ref == uuid.Nil {
		return nil, fmt.Errorf("reference id required: %w", httpx.ErrValidation)
	}
	decisions, err := s.repo.ListDecisions(ctx, id.TenantID, module, ref)
	if err != nil {
		return nil, err
	}
	if decisions == nil {
		decisions = []Decision{}
	}
	return decisions, nil
}

func (s *Service) closeOut(ctx context.Context, id shared.Identity, module string, ref uuid.UUID, action Action, note string) error {
	if ref == uuid.Nil {
		return fmt.Errorf("reference id required: %w", httpx.ErrValidation)
	}
	submitted, err := s.repo.HasDecision(ctx, id.TenantID, module, ref, ActionSubmit)
	if err != nil {
		return err
	}
	if !submitted {
		return ErrNotSubmitted
	}
	if err := s.checkStepPriority(ctx, id, module); err != nil {
		return err
	}
	return s.decide(ctx, id, module, ref, action, note)
}

// checkStepPriority enforces the first enabled workflow's lowest step
// minimum against the actor's resolved priority level.
func (s *Service) checkStepPriority(ctx context.Context, id shared.Identity, module string) error {
	workflows, err := s.repo.ListWorkflows(ctx, id.TenantID)
	if err != nil {
		return err
	}
	for _, w := range workflows {
		if w.Module != module || !w.Enabled || len(w.Steps) == 0 {
			continue
		}
		snap, err := s.resolver.Resolve(ctx, id)
		if err != nil {
			return fmt.Errorf("resolve approver priority: %w", err)
		}
		if snap.Priority < w.Steps[0].MinPriority {
			return fmt.Errorf("%w: have %d, need %d", ErrPriorityTooLow, snap.Priority, w.Steps[0].MinPriority)
		}
		return nil
	}
	return nil
}

func (s *Service) decide(ctx context.Context, id shared.Identity, module string, ref uuid.UUID, action Action, note string) error {
	d := Decision{
		TenantID: id.TenantID,
		Module:   module,
		RefID:    ref,
		Actor:    id.UserID,
		Action:   action,
		Note:     note,
		At:       time.Now().UTC(),
	}
	if err := s.repo.InsertDecision(ctx, d); err != nil {
		return err
	}
	s.record(ctx, id, "approval."+string(action), ref.String(), map[string]any{"module": module})
	return nil
}

func (s *Service) validateInput(input WorkflowInput) error {
	if err := s.validate.Struct(input); err != nil {
		return fmt.Errorf("%v: %w", err, httpx.ErrValidation)
	}
	for i := 1; i < len(input.Steps); i++ {
		if input.Steps[i].MinPriority <= input.Steps[i-1].MinPriority {
			return fmt.Errorf("step priorities must escalate: %w", httpx.ErrValidation)
		}
	}
	return nil
}

func (s *Service) record(ctx context.Context, id shared.Identity, action, entityID string, meta map[string]any) {
	_ = s.recorder.Record(ctx, audit.Entry{
		TenantID: id.TenantID,
		Actor:    id.UserID,
		Action:   action,
		Entity:   "approval",
		EntityID: entityID,
		Meta:     meta,
	})
}
