package imports

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aldercommerce/alder-admin/internal/audit"
	"github.com/aldercommerce/alder-admin/internal/platform/httpx"
	"github.com/aldercommerce/alder-admin/internal/shared"
)

// MaxUploadBytes caps a single CSV upload.
const MaxUploadBytes = 32 << 20

// ObjectStore is the subset of the S3 store the import flow needs.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// Enqueuer hands a pending job to the worker queue.
type Enqueuer interface {
	EnqueueImport(ctx context.Context, id shared.Identity, jobID uuid.UUID) error
}

// Service owns the upload side of CSV imports.
type Service struct {
	repo     Repository
	store    ObjectStore
	enqueuer Enqueuer
	recorder *audit.Recorder
}

// NewService constructs a Service.
func NewService(repo Repository, store ObjectStore, enqueuer Enqueuer, recorder *audit.Recorder) *Service {
	return &Service{repo: repo, store: store, enqueuer: enqueuer, recorder: recorder}
}

// Upload stores the CSV, creates the job row and enqueues processing.
func (s *Service) Upload(ctx context.Context, id shared.Identity, kind, filename string, body io.Reader) (Job, error) {
	if !ValidKind(kind) {
		return Job{}, fmt.Errorf("unknown import kind %q: %w", kind, httpx.ErrValidation)
	}
	if !strings.EqualFold(path.Ext(filename), ".csv") {
		return Job{}, fmt.Errorf("only CSV uploads are accepted: %w", httpx.ErrValidation)
	}

	jobID := uuid.New()
	objectKey := fmt.Sprintf("imports/%s/%s.csv", id.TenantID, jobID)
	if err := s.store.Put(ctx, objectKey, io.LimitReader(body, MaxUploadBytes)); err != nil {
		return Job{}, fmt.Errorf("store upload: %w", err)
	}

	job := Job{
		ID:        jobID,
		TenantID:  id.TenantID,
		Kind:      kind,
		Status:    StatusPending,
		Filename:  path.Base(filename),
		ObjectKey: objectKey,
		CreatedBy: id.UserID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, job); err != nil {
		return Job{}, err
	}
	if err := s.enqueuer.EnqueueImport(ctx, id, jobID); err != nil {
		_ = s.repo.SetStatus(ctx, jobID, StatusFailed, "enqueue failed")
		return Job{}, fmt.Errorf("enqueue import: %w", err)
	}

	_ = s.recorder.Record(ctx, audit.Entry{
		TenantID: id.TenantID,
		Actor:    id.UserID,
		Action:   "import.upload",
		Entity:   "import_job",
		EntityID: jobID.String(),
		Meta:     map[string]any{"kind": kind, "filename": job.Filename},
	})
	return job, nil
}

// List returns the tenant's recent jobs.
func (s *Service) List(ctx context.Context, id shared.Identity, limit int) ([]Job, error) {
	jobs, err := s.repo.List(ctx, id.TenantID, limit)
	if err != nil {
		return nil, err
	}
	if jobs == nil {
		jobs = []Job{}
	}
	return jobs, nil
}

// Get fetches one job.
func (s *Service) Get(ctx context.Context, id shared.Identity, jobID uuid.UUID) (Job, error) {
	return s.repo.Get(ctx, id.TenantID, jobID)
}

// Report streams the failed-row report of a completed job.
func (s *Service) Report(ctx context.Context, id shared.Identity, jobID uuid.UUID) (io.ReadCloser, error) {
	job, err := s.repo.Get(ctx, id.TenantID, jobID)
	if err != nil {
		return nil, err
	}
	if !job.HasReport() {
		return nil, shared.ErrNotFound
	}
	return s.store.Get(ctx, job.ReportKey)
}
