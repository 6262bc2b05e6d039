package scan

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/lintaskurir/lintaskurir/internal/auth"
	"github.com/lintaskurir/lintaskurir/internal/platform/httpx"
	"github.com/lintaskurir/lintaskurir/internal/shared"
)

// Handler exposes barcode scanning and the manual lifecycle fallbacks.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountScanRoutes registers the barcode endpoint, mounted under /barcode.
func (h *Handler) MountScanRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(shared.RoleKurir))
		r.Post("/scan", h.scan)
	})
}

// MountManualRoutes registers the manual lifecycle endpoints, mounted under
// /packages alongside the registry routes.
func (h *Handler) MountManualRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(shared.RoleKurir))
		r.Post("/{id}/pickup", h.pickup)
		r.Post("/{id}/depart", h.depart)
		r.Post("/{id}/delivery", h.deliver)
	})
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(shared.RoleStaff, shared.RolePIC))
		r.Get("/{id}/scans", h.listScans)
	})
}

func (h *Handler) scan(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	var req Request
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	pkg, err := h.service.Scan(r.Context(), req, actor.ID)
	if err != nil {
		h.logger.Warn("scan rejected",
			slog.String("barcode", req.Barcode),
			slog.String("scan_type", string(req.ScanType)),
			slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pkg)
}

func (h *Handler) pickup(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	id, err := packageID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid package id")
		return
	}
	pkg, err := h.service.Pickup(r.Context(), id, actor.ID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pkg)
}

func (h *Handler) depart(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	id, err := packageID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid package id")
		return
	}
	pkg, err := h.service.Depart(r.Context(), id, actor.ID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pkg)
}

func (h *Handler) deliver(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	id, err := packageID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid package id")
		return
	}
	var req DeliverRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	pkg, err := h.service.Deliver(r.Context(), id, actor.ID, req.Notes)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pkg)
}

func (h *Handler) listScans(w http.ResponseWriter, r *http.Request) {
	id, err := packageID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid package id")
		return
	}
	logs, err := h.service.Logs(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"scans": logs})
}

func packageID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
