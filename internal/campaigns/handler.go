package campaigns

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/aldercommerce/alder-admin/internal/permissions"
	"github.com/aldercommerce/alder-admin/internal/platform/httpx"
	"github.com/aldercommerce/alder-admin/internal/shared"
)

// Handler wires campaign HTTP endpoints.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	idempotency *shared.IdempotencyStore
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, idempotency *shared.IdempotencyStore) *Handler {
	return &Handler{logger: logger, service: service, idempotency: idempotency}
}

// MountRoutes registers campaign routes behind the permission gates.
func (h *Handler) MountRoutes(r chi.Router, gate permissions.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(gate.RequireAny(permissions.PermCampaignsView, permissions.PermCampaignsManage))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(gate.Require(permissions.PermCampaignsManage))
		r.Post("/", h.create)
		r.Patch("/{id}", h.update)
		r.Post("/{id}/pause", h.transition("pause"))
		r.Post("/{id}/resume", h.transition("resume"))
		r.Post("/{id}/archive", h.transition("archive"))
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	perPage, _ := strconv.Atoi(query.Get("perPage"))
	filters := ListFilters{
		Status:  query.Get("status"),
		Channel: query.Get("channel"),
		Search:  query.Get("q"),
		Page:    page,
		PerPage: perPage,
	}
	result, err := h.service.List(r.Context(), id, filters)
	if err != nil {
		h.logger.Error("list campaigns", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	campaign, err := h.service.Get(r.Context(), id, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, campaign)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	if !h.claimIdempotency(w, r, id) {
		return
	}
	var input CreateInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	campaign, err := h.service.Create(r.Context(), id, input)
	if err != nil {
		h.logger.Error("create campaign", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, campaign)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	var input UpdateInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	campaign, err := h.service.Update(r.Context(), id, chi.URLParam(r, "id"), input)
	if err != nil {
		h.logger.Error("update campaign", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, campaign)
}

func (h *Handler) transition(verb string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := shared.IdentityFromContext(r.Context())
		campaignID := chi.URLParam(r, "id")
		var campaign Campaign
		var err error
		switch verb {
		case "pause":
			campaign, err = h.service.Pause(r.Context(), id, campaignID)
		case "resume":
			campaign, err = h.service.Resume(r.Context(), id, campaignID)
		default:
			campaign, err = h.service.Archive(r.Context(), id, campaignID)
		}
		if err != nil {
			h.logger.Error("campaign "+verb, slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, campaign)
	}
}

// claimIdempotency consumes the Idempotency-Key header when present.
func (h *Handler) claimIdempotency(w http.ResponseWriter, r *http.Request, id shared.Identity) bool {
	key := r.Header.Get(shared.IdempotencyHeader)
	if key == "" || h.idempotency == nil {
		return true
	}
	if err := h.idempotency.CheckAndInsert(r.Context(), key, "campaigns", id.TenantID); err != nil {
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
