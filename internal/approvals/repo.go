package approvals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aldercommerce/alder-admin/internal/shared"
)

// Repository persists workflows and the decision log.
type Repository interface {
	CountWorkflows(ctx context.Context, tenantID string) (int, error)
	ListWorkflows(ctx context.Context, tenantID string) ([]Workflow, error)
	GetWorkflow(ctx context.Context, tenantID string, id uuid.UUID) (Workflow, error)
	InsertWorkflow(ctx context.Context, w Workflow) error
	UpdateWorkflow(ctx context.Context, w Workflow) error
	DeleteWorkflow(ctx context.Context, tenantID string, id uuid.UUID) error

	InsertDecision(ctx context.Context, d Decision) error
	ListDecisions(ctx context.Context, tenantID, module string, ref uuid.UUID) ([]Decision, error)
	HasDecision(ctx context.Context, tenantID, module string, ref uuid.UUID, action Action) (bool, error)
}

// PGRepository is the pgx-backed Repository.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository constructs PGRepository.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) CountWorkflows(ctx context.Context, tenantID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM approval_workflows WHERE tenant_id=$1`, tenantID).Scan(&count)
	return count, err
}

func (r *PGRepository) ListWorkflows(ctx context.Context, tenantID string) ([]Workflow, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, tenant_id, name, module, threshold_cents, steps, enabled, created_at, updated_at
FROM approval_workflows WHERE tenant_id=$1 ORDER BY module, name`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workflows []Workflow
	for rows.Next() {
		w, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, w)
	}
	return workflows, rows.Err()
}

func (r *PGRepository) GetWorkflow(ctx context.Context, tenantID string, id uuid.UUID) (Workflow, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, tenant_id, name, module, threshold_cents, steps, enabled, created_at, updated_at
FROM approval_workflows WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	w, err := scanWorkflow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Workflow{}, shared.ErrNotFound
	}
	return w, err
}

func (r *PGRepository) InsertWorkflow(ctx context.Context, w Workflow) error {
	steps, err := json.Marshal(w.Steps)
	if err != nil {
		return fmt.Errorf("encode steps: %w", err)
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO approval_workflows (id, tenant_id, name, module, threshold_cents, steps, enabled, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`,
		w.ID, w.TenantID, w.Name, w.Module, w.ThresholdCents, steps, w.Enabled, w.CreatedAt)
	return err
}

func (r *PGRepository) UpdateWorkflow(ctx context.Context, w Workflow) error {
	steps, err := json.Marshal(w.Steps)
	if err != nil {
		return fmt.Errorf("encode steps: %w", err)
	}
	tag, err := r.pool.Exec(ctx, `UPDATE approval_workflows
SET name=$3, module=$4, threshold_cents=$5, steps=$6, enabled=$7, updated_at=NOW()
WHERE tenant_id=$1 AND id=$2`,
		w.TenantID, w.ID, w.Name, w.Module, w.ThresholdCents, steps, w.Enabled)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *PGRepository) DeleteWorkflow(ctx context.Context, tenantID string, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM approval_workflows WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *PGRepository) InsertDecision(ctx context.Context, d Decision) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO approval_decisions (tenant_id, module, ref_id, actor, action, note, at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		d.TenantID, d.Module, d.RefID, d.Actor, string(d.Action), d.Note, d.At)
	return err
}

func (r *PGRepository) ListDecisions(ctx context.Context, tenantID, module string, ref uuid.UUID) ([]Decision, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, tenant_id, module, ref_id, actor, action, note, at
FROM approval_decisions WHERE tenant_id=$1 AND module=$2 AND ref_id=$3 ORDER BY at ASC`, tenantID, module, ref)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var decisions []Decision
	for rows.Next() {
		var d Decision
		var action string
		if err := rows.Scan(&d.ID, &d.TenantID, &d.Module, &d.RefID, &d.Actor, &action, &d.Note, &d.At); err != nil {
			return nil, err
		}
		d.Action = Action(action)
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}

func (r *PGRepository) HasDecision(ctx context.Context, tenantID, module string, ref uuid.UUID, action Action) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT true FROM approval_decisions
WHERE tenant_id=$1 AND module=$2 AND ref_id=$3 AND action=$4 LIMIT 1`,
		tenantID, module, ref, string(action)).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return exists, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row rowScanner) (Workflow, error) {
	var w Workflow
	var steps []byte
	if err := row.Scan(&w.ID, &w.TenantID, &w.Name, &w.Module, &w.ThresholdCents, &steps, &w.Enabled, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return Workflow{}, err
	}
	if err := json.Unmarshal(steps, &w.Steps); err != nil {
		return Workflow{}, fmt.Errorf("decode steps: %w", err)
	}
	return w, nil
}
