package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/lintaskurir/lintaskurir/internal/attendance"
	audithttp "github.com/lintaskurir/lintaskurir/internal/audit/http"
	"github.com/lintaskurir/lintaskurir/internal/auth"
	"github.com/lintaskurir/lintaskurir/internal/geofence"
	"github.com/lintaskurir/lintaskurir/internal/observability"
	"github.com/lintaskurir/lintaskurir/internal/packages"
	"github.com/lintaskurir/lintaskurir/internal/scan"
	"github.com/lintaskurir/lintaskurir/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	AuthMiddleware    *auth.Middleware
	AuthHandler       *auth.Handler
	PackagesHandler   *packages.Handler
	ScanHandler       *scan.Handler
	AttendanceHandler *attendance.Handler
	GeofenceHandler   *geofence.Handler
	AuditHandler      *audithttp.Handler
	JobHandler        *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with LintasKurir defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Auth:    params.AuthMiddleware,
		Metrics: params.Metrics,
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
	r.Route("/packages", func(r chi.Router) {
		params.PackagesHandler.MountRoutes(r)
		params.ScanHandler.MountManualRoutes(r)
	})
	r.Route("/barcode", params.ScanHandler.MountScanRoutes)
	r.Route("/attendance", params.AttendanceHandler.MountRoutes)
	r.Route("/geofence", params.GeofenceHandler.MountRoutes)
	if params.AuditHandler != nil {
		r.Route("/audit", params.AuditHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
