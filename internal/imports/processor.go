package imports

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/aldercommerce/alder-admin/internal/shared"
)

// pushBatchSize bounds one upstream push.
const pushBatchSize = 500

// RowPusher delivers validated rows to the owning platform service.
type RowPusher interface {
	PushRows(ctx context.Context, id shared.Identity, kind string, rows []map[string]string) error
}

// Processor runs import jobs on the worker.
type Processor struct {
	repo     Repository
	store    ObjectStore
	pusher   RowPusher
	logger   *slog.Logger
	validate *validator.Validate
}

// NewProcessor constructs a Processor.
func NewProcessor(repo Repository, store ObjectStore, pusher RowPusher, logger *slog.Logger) *Processor {
	return &Processor{repo: repo, store: store, pusher: pusher, logger: logger, validate: validator.New()}
}

// NormalizeHeader folds a CSV column name to its canonical form: NFKC
// normalization, lowercase, trimmed, spaces and dashes collapsed to
// underscores. "Price (Cents)" and "price_cents" map to the same column.
func NormalizeHeader(raw string) string {
	folded := strings.ToLower(strings.TrimSpace(norm.NFKC.String(raw)))
	folded = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-':
			return '_'
		case '(', ')':
			return -1
		}
		return r
	}, folded)
	return strings.Trim(folded, "_")
}

// Process runs one job to completion. Hard failures (missing object,
// unreadable CSV) mark the job failed; per-row failures are collected into
// the report and do not abort the run.
func (p *Processor) Process(ctx context.Context, id shared.Identity, jobID uuid.UUID) error {
	job, err := p.repo.Get(ctx, id.TenantID, jobID)
	if err != nil {
		return fmt.Errorf("load import job: %w", err)
	}
	if job.Status != StatusPending {
		p.logger.Info("skipping import job not in pending state",
			slog.String("job", jobID.String()),
			slog.String("status", job.Status))
		return nil
	}
	if err := p.repo.SetStatus(ctx, jobID, StatusRunning, ""); err != nil {
		return err
	}

	body, err := p.store.Get(ctx, job.ObjectKey)
	if err != nil {
		_ = p.repo.SetStatus(ctx, jobID, StatusFailed, "source object unavailable")
		return err
	}
	defer func() { _ = body.Close() }()

	total, processed, failures, err := p.run(ctx, id, job, body)
	if err != nil {
		_ = p.repo.SetStatus(ctx, jobID, StatusFailed, err.Error())
		return err
	}

	_ = p.repo.SetProgress(ctx, jobID, total, processed, len(failures))
	if len(failures) > 0 {
		reportKey := fmt.Sprintf("reports/%s/%s.csv", job.TenantID, jobID)
		if err := p.writeReport(ctx, reportKey, failures); err != nil {
			p.logger.Error("write import report", slog.Any("error", err))
		} else {
			_ = p.repo.SetReportKey(ctx, jobID, reportKey)
		}
	}
	return p.repo.SetStatus(ctx, jobID, StatusCompleted, "")
}

type rowFailure struct {
	line   int
	reason string
}

func (p *Processor) run(ctx context.Context, id shared.Identity, job Job, body io.Reader) (total, processed int, failures []rowFailure, err error) {
	reader := csv.NewReader(body)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return 0, 0, nil, fmt.Errorf("read CSV header: %w", err)
	}
	columns := make([]string, len(header))
	for i, col := range header {
		columns[i] = NormalizeHeader(col)
	}

	batch := make([]map[string]string, 0, pushBatchSize)
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			failures = append(failures, rowFailure{line: line, reason: "malformed CSV row"})
			total++
			continue
		}
		total++

		row := make(map[string]string, len(columns))
		for i, value := range record {
			if i < len(columns) && columns[i] != "" {
				row[columns[i]] = strings.TrimSpace(norm.NFKC.String(value))
			}
		}
		if reason := p.validateRow(job.Kind, row); reason != "" {
			failures = append(failures, rowFailure{line: line, reason: reason})
			continue
		}

		batch = append(batch, row)
		if len(batch) == pushBatchSize {
			if err := p.pusher.PushRows(ctx, id, job.Kind, batch); err != nil {
				return total, processed, failures, fmt.Errorf("push batch: %w", err)
			}
			processed += len(batch)
			batch = batch[:0]
			_ = p.repo.SetProgress(ctx, job.ID, total, processed, len(failures))
		}
	}
	if len(batch) > 0 {
		if err := p.pusher.PushRows(ctx, id, job.Kind, batch); err != nil {
			return total, processed, failures, fmt.Errorf("push batch: %w", err)
		}
		processed += len(batch)
	}
	return total, processed, failures, nil
}

type productRow struct {
	SKU        string `validate:"required,min=1,max=64"`
	Name       string `validate:"required,min=1,max=200"`
	PriceCents int64  `validate:"gte=0"`
}

type couponRow struct {
	Code string `validate:"required,min=3,max=40"`
	Type string `validate:"required,oneof=percentage fixed_amount"`
}

type customerRow struct {
	Email string `validate:"required,email"`
	Name  string `validate:"required,min=1,max=200"`
}

func (p *Processor) validateRow(kind string, row map[string]string) string {
	switch kind {
	case KindProducts:
		price, err := strconv.ParseInt(orZero(row["price_cents"]), 10, 64)
		if err != nil {
			return "price_cents is not a number"
		}
		if err := p.validate.Struct(productRow{SKU: row["sku"], Name: row["name"], PriceCents: price}); err != nil {
			return validationReason(err)
		}
	case KindCoupons:
		if err := p.validate.Struct(couponRow{Code: row["code"], Type: row["type"]}); err != nil {
			return validationReason(err)
		}
	case KindCustomers:
		if err := p.validate.Struct(customerRow{Email: row["email"], Name: row["name"]}); err != nil {
			return validationReason(err)
		}
	default:
		return "unknown import kind"
	}
	return ""
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

func validationReason(err error) string {
	var fields validator.ValidationErrors
	if errors.As(err, &fields) && len(fields) > 0 {
		return fmt.Sprintf("%s failed %s", strings.ToLower(fields[0].Field()), fields[0].Tag())
	}
	return "validation failed"
}

func (p *Processor) writeReport(ctx context.Context, key string, failures []rowFailure) error {
	var sb strings.Builder
	writer := csv.NewWriter(&sb)
	_ = writer.Write([]string{"line", "reason"})
	for _, f := range failures {
		_ = writer.Write([]string{strconv.Itoa(f.line), f.reason})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return p.store.Put(ctx, key, strings.NewReader(sb.String()))
}
