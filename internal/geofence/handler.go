package geofence

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

// Handler manages geofence zone endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

// MountRoutes registers zone routes. Zone CRUD is staff-only.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(shared.RoleStaff))
		r.Get("/", h.listZones)
		r.Post("/", h.createZone)
		r.Get("/{id}", h.getZone)
		r.Put("/{id}", h.updateZone)
		r.Delete("/{id}", h.deleteZone)
	})
}

func (h *Handler) listZones(w http.ResponseWriter, r *http.Request) {
	zones, err := h.service.ListZones(r.Context())
	if err != nil {
		h.logger.Error("list zones", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"zones": zones})
}

func (h *Handler) createZone(w http.ResponseWriter, r *http.Request) {
	var req CreateZoneRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	zone, err := h.service.CreateZone(r.Context(), req)
	if err != nil {
		h.logger.Error("create zone", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, zone)
}

func (h *Handler) getZone(w http.ResponseWriter, r *http.Request) {
	id, err := zoneID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid zone id")
		return
	}
	zone, err := h.service.GetZone(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, zone)
}

func (h *Handler) updateZone(w http.ResponseWriter, r *http.Request) {
	id, err := zoneID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid zone id")
		return
	}
	var req UpdateZoneRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	zone, err := h.service.UpdateZone(r.Context(), id, req)
	if err != nil {
		h.logger.Error("update zone", slog.Int64("zone_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, zone)
}

func (h *Handler) deleteZone(w http.ResponseWriter, r *http.Request) {
	id, err := zoneID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid zone id")
		return
	}
	if err := h.service.DeleteZone(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func zoneID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
