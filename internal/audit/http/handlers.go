package audithttp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/aldercommerce/alder-admin/internal/audit"
	"github.com/aldercommerce/alder-admin/internal/platform/httpx"
	"github.com/aldercommerce/alder-admin/internal/shared"
)

const (
	defaultDateRange = 7 * 24 * time.Hour
	maxDateRange     = 90 * 24 * time.Hour
)

// TimelineService defines the business contract for timeline data.
type TimelineService interface {
	Timeline(ctx context.Context, filters audit.TimelineFilters) (audit.Result, error)
	Export(ctx context.Context, filters audit.TimelineFilters) ([]audit.TimelineRow, error)
}

// Exporter writes audit timeline exports.
type Exporter interface {
	WriteCSV(rows []audit.TimelineRow) ([]byte, error)
}

// Handler menangani permintaan audit timeline.
type Handler struct {
	logger   *slog.Logger
	service  TimelineService
	exporter Exporter
	now      func() time.Time
}

// NewHandler membuat handler audit baru.
func NewHandler(logger *slog.Logger, service TimelineService, exporter Exporter) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, exporter: exporter, now: time.Now}
}

func (h *Handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	filters, err := h.parseFilters(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	result, err := h.service.Timeline(r.Context(), filters)
	if err != nil {
		h.logger.Error("load audit timeline", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	filters, err := h.parseFilters(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	rows, err := h.service.Export(r.Context(), filters)
	if err != nil {
		h.logger.Error("export audit timeline", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	payload, err := h.exporter.WriteCSV(rows)
	if err != nil {
		h.logger.Error("write audit csv", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	filename := fmt.Sprintf("audit-%s.csv", h.now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

// parseFilters membaca query params dan memaksa rentang tanggal yang masuk akal.
func (h *Handler) parseFilters(r *http.Request) (audit.TimelineFilters, error) {
	id := shared.IdentityFromContext(r.Context())
	query := r.URL.Query()

	filters := audit.TimelineFilters{
		TenantID: id.TenantID,
		Actor:    query.Get("actor"),
		Entity:   query.Get("entity"),
		Action:   query.Get("action"),
	}

	now := h.now()
	filters.To = now
	filters.From = now.Add(-defaultDateRange)

	if raw := query.Get("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return audit.TimelineFilters{}, fmt.Errorf("invalid from date %q", raw)
		}
		filters.From = parsed
	}
	if raw := query.Get("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return audit.TimelineFilters{}, fmt.Errorf("invalid to date %q", raw)
		}
		// Inclusive end of day.
		filters.To = parsed.Add(24*time.Hour - time.Second)
	}
	if filters.To.Before(filters.From) {
		return audit.TimelineFilters{}, fmt.Errorf("date range inverted")
	}
	if filters.To.Sub(filters.From) > maxDateRange {
		return audit.TimelineFilters{}, fmt.Errorf("date range exceeds 90 days")
	}

	if raw := query.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return audit.TimelineFilters{}, fmt.Errorf("invalid page %q", raw)
		}
		filters.Page = page
	}
	if raw := query.Get("pageSize"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 {
			return audit.TimelineFilters{}, fmt.Errorf("invalid pageSize %q", raw)
		}
		filters.PageSize = size
	}
	return filters, nil
}
