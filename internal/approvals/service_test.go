package approvals

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/aldercommerce/alder-admin/internal/permissions"
	"github.com/aldercommerce/alder-admin/internal/platform/httpx"
	"github.com/aldercommerce/alder-admin/internal/shared"
)

type memRepo struct {
	workflows []Workflow
	decisions []Decision
}

func (m *memRepo) CountWorkflows(_ context.Context, tenantID string) (int, error) {
	count := 0
	for _, w := range m.workflows {
		if w.TenantID == tenantID {
			count++
		}
	}
	return count, nil
}

func (m *memRepo) ListWorkflows(_ context.Context, tenantID string) ([]Workflow, error) {
	var out []Workflow
	for _, w := range m.workflows {
		if w.TenantID == tenantID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (m *memRepo) GetWorkflow(_ context.Context, tenantID string, id uuid.UUID) (Workflow, error) {
	for _, w := range m.workflows {
		if w.TenantID == tenantID && w.ID == id {
			return w, nil
		}
	}
	return Workflow{}, shared.ErrNotFound
}

func (m *memRepo) InsertWorkflow(_ context.Context, w Workflow) error {
	m.workflows = append(m.workflows, w)
	return nil
}

func (m *memRepo) UpdateWorkflow(_ context.Context, w Workflow) error {
	for i := range m.workflows {
		if m.workflows[i].TenantID == w.TenantID && m.workflows[i].ID == w.ID {
			m.workflows[i] = w
			return nil
		}
	}
	return shared.ErrNotFound
}

func (m *memRepo) DeleteWorkflow(_ context.Context, tenantID string, id uuid.UUID) error {
	for i := range m.workflows {
		if m.workflows[i].TenantID == tenantID && m.workflows[i].ID == id {
			m.workflows = append(m.workflows[:i], m.workflows[i+1:]...)
			return nil
		}
	}
	return shared.ErrNotFound
}

func (m *memRepo) InsertDecision(_ context.Context, d Decision) error {
	d.ID = int64(len(m.decisions) + 1)
	m.decisions = append(m.decisions, d)
	return nil
}

func (m *memRepo) ListDecisions(_ context.Context, tenantID, module string, ref uuid.UUID) ([]Decision, error) {
	var out []Decision
	for _, d := range m.decisions {
		if d.TenantID == tenantID && d.Module == module && d.RefID == ref {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memRepo) HasDecision(_ context.Context, tenantID, module string, ref uuid.UUID, action Action) (bool, error) {
	for _, d := range m.decisions {
		if d.TenantID == tenantID && d.Module == module && d.RefID == ref && d.Action == action {
			return true, nil
		}
	}
	return false, nil
}

type fixedFetcher struct {
	priority int
}

func (f fixedFetcher) Fetch(_ context.Context, id shared.Identity) (permissions.Snapshot, error) {
	return permissions.Snapshot{
		UserID:    id.UserID,
		TenantID:  id.TenantID,
		Priority:  f.priority,
		FetchedAt: time.Now(),
	}, nil
}

func testService(repo *memRepo, priority int) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	resolver := permissions.NewResolver(fixedFetcher{priority: priority}, permissions.NewCache(0), logger)
	return NewService(repo, nil, resolver, logger)
}

func testIdentity() shared.Identity {
	return shared.Identity{UserID: "u1", TenantID: "t1"}
}

func TestListSeedsDefaultsOnFirstUse(t *testing.T) {
	repo := &memRepo{}
	service := testService(repo, 80)

	workflows, err := service.List(context.Background(), testIdentity())
	require.NoError(t, err)
	require.NotEmpty(t, workflows)
	for _, w := range workflows {
		require.Equal(t, "t1", w.TenantID)
		require.NotEmpty(t, w.Steps)
	}

	// Second call must not duplicate the seed.
	again, err := service.List(context.Background(), testIdentity())
	require.NoError(t, err)
	require.Len(t, again, len(workflows))
}

func TestCreateRejectsNonEscalatingSteps(t *testing.T) {
	service := testService(&memRepo{}, 80)

	_, err := service.Create(context.Background(), testIdentity(), WorkflowInput{
		Name:   "Backwards",
		Module: "campaigns",
		Steps: []Step{
			{Name: "Admin", MinPriority: 80},
			{Name: "Lead", MinPriority: 50},
		},
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestApproveRequiresSubmit(t *testing.T) {
	service := testService(&memRepo{}, 100)

	err := service.Approve(context.Background(), testIdentity(), "campaigns", uuid.New(), "lgtm")
	require.ErrorIs(t, err, ErrNotSubmitted)
}

func TestApproveEnforcesStepPriority(t *testing.T) {
	repo := &memRepo{
		workflows: []Workflow{{
			ID:       uuid.New(),
			TenantID: "t1",
			Name:     "Campaign spend",
			Module:   "campaigns",
			Enabled:  true,
			Steps:    []Step{{Name: "Lead", MinPriority: 50}},
		}},
	}
	ref := uuid.New()

	low := testService(repo, 10)
	require.NoError(t, low.Submit(context.Background(), testIdentity(), "campaigns", ref, "please review"))
	err := low.Approve(context.Background(), testIdentity(), "campaigns", ref, "")
	require.ErrorIs(t, err, ErrPriorityTooLow)

	high := testService(repo, 60)
	require.NoError(t, high.Approve(context.Background(), testIdentity(), "campaigns", ref, "approved"))

	decisions, err := high.Decisions(context.Background(), testIdentity(), "campaigns", ref)
	require.NoError(t, err)
	require.Len(t, decisions, 2)
	require.Equal(t, ActionSubmit, decisions[0].Action)
	require.Equal(t, ActionApprove, decisions[1].Action)
}

func TestSubmitIsIdempotent(t *testing.T) {
	repo := &memRepo{}
	service := testService(repo, 80)
	ref := uuid.New()

	require.NoError(t, service.Submit(context.Background(), testIdentity(), "coupons", ref, "first"))
	require.NoError(t, service.Submit(context.Background(), testIdentity(), "coupons", ref, "second"))

	decisions, err := service.Decisions(context.Background(), testIdentity(), "coupons", ref)
	require.NoError(t, err)
	require.Len(t, decisions, 1)
}

func TestDefaultWorkflowsParse(t *testing.T) {
	defaults, err := DefaultWorkflows()
	require.NoError(t, err)
	require.NotEmpty(t, defaults)
	for _, w := range defaults {
		require.NotEmpty(t, w.Name)
		require.NotEmpty(t, w.Module)
		require.NotEmpty(t, w.Steps)
	}
}
