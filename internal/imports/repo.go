package imports

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aldercommerce/alder-admin/internal/shared"
)

// Repository persists import jobs.
type Repository interface {
	Insert(ctx context.Context, job Job) error
	Get(ctx context.Context, tenantID string, id uuid.UUID) (Job, error)
	List(ctx context.Context, tenantID string, limit int) ([]Job, error)
	SetStatus(ctx context.Context, id uuid.UUID, status, errMsg string) error
	SetProgress(ctx context.Context, id uuid.UUID, total, processed, failed int) error
	SetReportKey(ctx context.Context, id uuid.UUID, reportKey string) error
}

// PGRepository is the pgx-backed Repository.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository constructs PGRepository.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const jobColumns = `id, tenant_id, kind, status, filename, object_key, report_key,
total_rows, processed_rows, failed_rows, error, created_by, created_at, updated_at`

func (r *PGRepository) Insert(ctx context.Context, job Job) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO import_jobs
(id, tenant_id, kind, status, filename, object_key, report_key, total_rows, processed_rows, failed_rows, error, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, '', 0, 0, 0, '', $7, $8, $8)`,
		job.ID, job.TenantID, job.Kind, job.Status, job.Filename, job.ObjectKey, job.CreatedBy, job.CreatedAt)
	return err
}

func (r *PGRepository) Get(ctx context.Context, tenantID string, id uuid.UUID) (Job, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM import_jobs WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	job, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Job{}, shared.ErrNotFound
	}
	return job, err
}

func (r *PGRepository) List(ctx context.Context, tenantID string, limit int) ([]Job, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `SELECT `+jobColumns+` FROM import_jobs
WHERE tenant_id=$1 ORDER BY created_at DESC LIMIT $2`, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (r *PGRepository) SetStatus(ctx context.Context, id uuid.UUID, status, errMsg string) error {
	_, err := r.pool.Exec(ctx, `UPDATE import_jobs SET status=$2, error=$3, updated_at=NOW() WHERE id=$1`,
		id, status, errMsg)
	return err
}

func (r *PGRepository) SetProgress(ctx context.Context, id uuid.UUID, total, processed, failed int) error {
	_, err := r.pool.Exec(ctx, `UPDATE import_jobs
SET total_rows=$2, processed_rows=$3, failed_rows=$4, updated_at=NOW() WHERE id=$1`,
		id, total, processed, failed)
	return err
}

func (r *PGRepository) SetReportKey(ctx context.Context, id uuid.UUID, reportKey string) error {
	_, err := r.pool.Exec(ctx, `UPDATE import_jobs SET report_key=$2, updated_at=NOW() WHERE id=$1`, id, reportKey)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (Job, error) {
	var job Job
	err := row.Scan(&job.ID, &job.TenantID, &job.Kind, &job.Status, &job.Filename,
		&job.ObjectKey, &job.ReportKey, &job.TotalRows, &job.ProcessedRows,
		&job.FailedRows, &job.Error, &job.CreatedBy, &job.CreatedAt, &job.UpdatedAt)
	return job, err
}
