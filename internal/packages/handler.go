package packages

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

// Handler manages package registry and assignment endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers package routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(shared.RoleStaff))
		r.Post("/", h.createPackage)
		r.Get("/", h.listPackages)
		r.Put("/{id}/assign", h.assignPackage)
		r.Put("/{id}/reassign", h.reassignPackage)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(shared.RoleKurir))
		r.Get("/available", h.listAvailable)
		r.Get("/mine", h.listMine)
		r.Post("/{id}/take", h.claimPackage)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(shared.RoleStaff, shared.RoleKurir, shared.RolePIC))
		r.Get("/{id}", h.getPackage)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(shared.RoleStaff, shared.RolePIC))
		r.Get("/{id}/history", h.packageHistory)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(shared.RoleStaff, shared.RoleKurir))
		r.Post("/{id}/fail", h.failPackage)
	})
}

func (h *Handler) createPackage(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	var req CreateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	pkg, err := h.service.Create(r.Context(), req, actor.ID)
	if err != nil {
		h.logger.Error("create package", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, pkg)
}

func (h *Handler) listPackages(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{Limit: 20}
	q := r.URL.Query()
	if page, _ := strconv.Atoi(q.Get("page")); page > 1 {
		filter.Offset = (page - 1) * filter.Limit
	}
	if status := q.Get("status"); status != "" {
		s := Status(status)
		filter.Status = &s
	}
	if kurir := q.Get("kurir_id"); kurir != "" {
		if id, err := strconv.ParseInt(kurir, 10, 64); err == nil {
			filter.KurirID = &id
		}
	}
	if search := q.Get("search"); search != "" {
		filter.Search = &search
	}
	items, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list packages", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"packages": items,
		"total":    total,
	})
}

func (h *Handler) listAvailable(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListAvailable(r.Context())
	if err != nil {
		h.logger.Error("list available", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"packages": items})
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	items, err := h.service.ListByKurir(r.Context(), actor.ID)
	if err != nil {
		h.logger.Error("list mine", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"packages": items})
}

func (h *Handler) getPackage(w http.ResponseWriter, r *http.Request) {
	id, err := packageID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid package id")
		return
	}
	pkg, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pkg)
}

func (h *Handler) packageHistory(w http.ResponseWriter, r *http.Request) {
	id, err := packageID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid package id")
		return
	}
	entries, err := h.service.History(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"history": entries})
}

func (h *Handler) claimPackage(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	id, err := packageID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid package id")
		return
	}
	pkg, err := h.service.Claim(r.Context(), id, actor.ID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pkg)
}

func (h *Handler) assignPackage(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	id, err := packageID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid package id")
		return
	}
	var req AssignRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	pkg, err := h.service.AssignExplicit(r.Context(), id, req.KurirID, actor.ID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pkg)
}

func (h *Handler) reassignPackage(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	id, err := packageID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid package id")
		return
	}
	var req AssignRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	pkg, err := h.service.Reassign(r.Context(), id, req.KurirID, actor.ID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pkg)
}

func (h *Handler) failPackage(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	id, err := packageID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid package id")
		return
	}
	var req FailRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	pkg, err := h.service.MarkFailed(r.Context(), id, actor.ID, req.Notes)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pkg)
}

func packageID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
