package attendance

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/lintaskurir/lintaskurir/internal/auth"
	"github.com/lintaskurir/lintaskurir/internal/platform/httpx"
	"github.com/lintaskurir/lintaskurir/internal/shared"
)

// Handler exposes the attendance endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers attendance routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(shared.RoleKurir))
		r.Post("/checkin", h.checkIn)
		r.Post("/checkout", h.checkOut)
		r.Get("/me", h.today)
		r.Get("/me/summary", h.mySummary)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(shared.RolePIC, shared.RoleStaff))
		r.Get("/", h.listForDate)
		r.Put("/{id}/approve", h.review)
	})
}

func (h *Handler) checkIn(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	req, ok := h.decodeCheck(w, r)
	if !ok {
		return
	}
	rec, err := h.service.CheckIn(r.Context(), actor.ID, req.Lat, req.Lng)
	if err != nil {
		h.logger.Warn("check-in rejected", slog.Int64("kurir_id", actor.ID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, rec)
}

func (h *Handler) checkOut(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	req, ok := h.decodeCheck(w, r)
	if !ok {
		return
	}
	rec, err := h.service.CheckOut(r.Context(), actor.ID, req.Lat, req.Lng)
	if err != nil {
		h.logger.Warn("check-out rejected", slog.Int64("kurir_id", actor.ID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) decodeCheck(w http.ResponseWriter, r *http.Request) (CheckRequest, bool) {
	var req CheckRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return CheckRequest{}, false
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return CheckRequest{}, false
	}
	return req, true
}

func (h *Handler) today(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	rec, err := h.service.Today(r.Context(), actor.ID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) mySummary(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	now := time.Now().UTC()
	year, month := now.Year(), now.Month()
	q := r.URL.Query()
	if y, err := strconv.Atoi(q.Get("year")); err == nil && y > 0 {
		year = y
	}
	if m, err := strconv.Atoi(q.Get("month")); err == nil && m >= 1 && m <= 12 {
		month = time.Month(m)
	}
	sum, err := h.service.MonthlySummary(r.Context(), actor.ID, year, month)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sum)
}

func (h *Handler) listForDate(w http.ResponseWriter, r *http.Request) {
	date := time.Now().UTC().Truncate(24 * time.Hour)
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}
	records, err := h.service.ListForDate(r.Context(), date)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"records": records})
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request) {
	actor := shared.ActorFromContext(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid record id")
		return
	}
	var req ReviewRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	rec, err := h.service.Review(r.Context(), id, actor.ID, req.Status, req.Notes)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}
