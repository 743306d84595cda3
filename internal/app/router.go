package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/aldercommerce/alder-admin/internal/approvals"
	audithttp "github.com/aldercommerce/alder-admin/internal/audit/http"
	"github.com/aldercommerce/alder-admin/internal/auth"
	"github.com/aldercommerce/alder-admin/internal/campaigns"
	"github.com/aldercommerce/alder-admin/internal/coupons"
	"github.com/aldercommerce/alder-admin/internal/domains"
	"github.com/aldercommerce/alder-admin/internal/imports"
	"github.com/aldercommerce/alder-admin/internal/observability"
	"github.com/aldercommerce/alder-admin/internal/permissions"
	"github.com/aldercommerce/alder-admin/internal/shared"
	"github.com/aldercommerce/alder-admin/internal/staff"
	"github.com/aldercommerce/alder-admin/internal/taxes"
	"github.com/aldercommerce/alder-admin/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Tokens         TokenVerifier
	Gate           permissions.Middleware

	AuthHandler     *auth.Handler
	StaffHandler    *staff.Handler
	CampaignHandler *campaigns.Handler
	CouponHandler   *coupons.Handler
	TaxHandler      *taxes.Handler
	DomainHandler   *domains.Handler
	ApprovalHandler *approvals.Handler
	ImportHandler   *imports.Handler
	AuditHandler    *audithttp.Handler
	JobHandler      *jobs.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router for the admin gateway.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Tokens:         params.Tokens,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Route("/api", func(r chi.Router) {
		r.Route("/staff", params.StaffHandler.MountRoutes)
		r.Route("/campaigns", func(r chi.Router) {
			params.CampaignHandler.MountRoutes(r, params.Gate)
		})
		r.Route("/coupons", func(r chi.Router) {
			params.CouponHandler.MountRoutes(r, params.Gate)
		})
		r.Route("/taxes", func(r chi.Router) {
			params.TaxHandler.MountRoutes(r, params.Gate)
		})
		r.Route("/domains", func(r chi.Router) {
			params.DomainHandler.MountRoutes(r, params.Gate)
		})
		r.Route("/approvals", func(r chi.Router) {
			params.ApprovalHandler.MountRoutes(r, params.Gate)
		})
		r.Route("/imports", func(r chi.Router) {
			params.ImportHandler.MountRoutes(r, params.Gate)
		})
		if params.AuditHandler != nil {
			params.AuditHandler.MountRoutes(r, params.Gate)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
