package imports

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aldercommerce/alder-admin/internal/permissions"
	"github.com/aldercommerce/alder-admin/internal/platform/httpx"
	"github.com/aldercommerce/alder-admin/internal/shared"
)

// Handler wires the import endpoints.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	idempotency *shared.IdempotencyStore
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, idempotency *shared.IdempotencyStore) *Handler {
	return &Handler{logger: logger, service: service, idempotency: idempotency}
}

// MountRoutes registers import routes behind the permission gates.
func (h *Handler) MountRoutes(r chi.Router, gate permissions.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(gate.RequireAny(permissions.PermImportsView, permissions.PermImportsManage))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Get("/{id}/report", h.report)
	})
	r.Group(func(r chi.Router) {
		r.Use(gate.Require(permissions.PermImportsManage))
		r.Post("/", h.upload)
	})
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	if !h.claimIdempotency(w, r, id) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "file field required")
		return
	}
	defer func() { _ = file.Close() }()

	job, err := h.service.Upload(r.Context(), id, r.FormValue("kind"), header.Filename, file)
	if err != nil {
		h.logger.Error("upload import", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, job)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	jobs, err := h.service.List(r.Context(), id, limit)
	if err != nil {
		h.logger.Error("list imports", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": jobs})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid job id")
		return
	}
	job, err := h.service.Get(r.Context(), id, jobID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, job)
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid job id")
		return
	}
	body, err := h.service.Report(r.Context(), id, jobID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	defer func() { _ = body.Close() }()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="import-report-`+jobID.String()+`.csv"`)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Error("stream import report", slog.Any("error", err))
	}
}

// claimIdempotency consumes the Idempotency-Key header when present.
func (h *Handler) claimIdempotency(w http.ResponseWriter, r *http.Request, id shared.Identity) bool {
	key := r.Header.Get(shared.IdempotencyHeader)
	if key == "" || h.idempotency == nil {
		return true
	}
	if err := h.idempotency.CheckAndInsert(r.Context(), key, "imports", id.TenantID); err != nil {
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			httpx.Problem(w, http.StatusConflict, "Duplicate", "request already processed")
			return false
		}
		h.logger.Error("idempotency check", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return false
	}
	return true
}
