package coupons

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

// Handler wires coupon HTTP endpoints.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	idempotency *shared.IdempotencyStore
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, idempotency *shared.IdempotencyStore) *Handler {
	return &Handler{logger: logger, service: service, idempotency: idempotency}
}

// MountRoutes registers coupon routes behind the permission gates.
func (h *Handler) MountRoutes(r chi.Router, gate permissions.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(gate.RequireAny(permissions.PermCouponsView, permissions.PermCouponsManage))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(gate.Require(permissions.PermCouponsManage))
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Post("/{id}/disable", h.disable)
		r.Post("/bulk", h.bulkGenerate)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	perPage, _ := strconv.Atoi(query.Get("perPage"))
	filters := ListFilters{
		Type:    query.Get("type"),
		Active:  query.Get("active"),
		Search:  query.Get("q"),
		Page:    page,
		PerPage: perPage,
	}
	result, err := h.service.List(r.Context(), id, filters)
	if err != nil {
		h.logger.Error("list coupons", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	coupon, err := h.service.Get(r.Context(), id, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, coupon)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	if !h.claimIdempotency(w, r, id) {
		return
	}
	var input CouponInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	coupon, err := h.service.Create(r.Context(), id, input)
	if err != nil {
		h.logger.Error("create coupon", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, coupon)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	var input CouponInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	coupon, err := h.service.Update(r.Context(), id, chi.URLParam(r, "id"), input)
	if err != nil {
		h.logger.Error("update coupon", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, coupon)
}

func (h *Handler) disable(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	coupon, err := h.service.Disable(r.Context(), id, chi.URLParam(r, "id"))
	if err != nil {
		h.logger.Error("disable coupon", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, coupon)
}

func (h *Handler) bulkGenerate(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	if !h.claimIdempotency(w, r, id) {
		return
	}
	var req BulkGenerateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	ref, err := h.service.BulkGenerate(r.Context(), id, req)
	if err != nil {
		h.logger.Error("bulk generate coupons", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{"jobId": ref})
}

// claimIdempotency consumes the Idempotency-Key header when present.
func (h *Handler) claimIdempotency(w http.ResponseWriter, r *http.Request, id shared.Identity) bool {
	key := r.Header.Get(shared.IdempotencyHeader)
	if key == "" || h.idempotency == nil {
		return true
	}
	if err := h.idempotency.CheckAndInsert(r.Context(), key, "coupons", id.TenantID); err != nil {
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
