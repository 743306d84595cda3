package domains

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aldercommerce/alder-admin/internal/permissions"
	"github.com/aldercommerce/alder-admin/internal/platform/httpx"
	"github.com/aldercommerce/alder-admin/internal/shared"
)

// Handler wires custom-domain endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers domain routes behind the permission gates.
func (h *Handler) MountRoutes(r chi.Router, gate permissions.Middleware) {
	r.Group(func(r chi.Router) {
		r.Use(gate.RequireAny(permissions.PermDomainsView, permissions.PermDomainsManage))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
	r.Group(func(r chi.Router) {
		r.Use(gate.Require(permissions.PermDomainsManage))
		r.Post("/", h.add)
		r.Delete("/{id}", h.remove)
		r.Post("/{id}/primary", h.setPrimary)
		r.Post("/{id}/verify", h.verify)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	result, err := h.service.List(r.Context(), id)
	if err != nil {
		h.logger.Error("list domains", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	domain, err := h.service.Get(r.Context(), id, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, domain)
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	var input AddInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	domain, err := h.service.Add(r.Context(), id, input)
	if err != nil {
		h.logger.Error("add domain", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, domain)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	if err := h.service.Remove(r.Context(), id, chi.URLParam(r, "id")); err != nil {
		h.logger.Error("remove domain", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setPrimary(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	domain, err := h.service.SetPrimary(r.Context(), id, chi.URLParam(r, "id"))
	if err != nil {
		h.logger.Error("set primary domain", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, domain)
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	id := shared.IdentityFromContext(r.Context())
	domain, err := h.service.CheckVerification(r.Context(), id, chi.URLParam(r, "id"))
	if err != nil {
		h.logger.Error("verify domain", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, domain)
}
