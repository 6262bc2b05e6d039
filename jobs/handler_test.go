package jobs

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/lintaskurir/lintaskurir/internal/shared"
)

type fakeEnqueuer struct {
	payloads []AbsentSweepPayload
	err      error
}

func (f *fakeEnqueuer) EnqueueAbsentSweep(_ context.Context, payload AbsentSweepPayload) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.payloads = append(f.payloads, payload)
	return &asynq.TaskInfo{ID: "task-1", Queue: QueueDefault}, nil
}

func newJobsRouter(sweeps SweepEnqueuer) chi.Router {
	h := NewHandler(nil, sweeps, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	r.Route("/jobs", h.MountRoutes)
	return r
}

func sweepRequest(body string, actor *shared.Actor) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(http.MethodPost, "/jobs/attendance/absent-sweep", reader)
	if actor != nil {
		req = req.WithContext(shared.ContextWithActor(req.Context(), actor))
	}
	return req
}

func TestEnqueueSweepRequiresStaff(t *testing.T) {
	router := newJobsRouter(&fakeEnqueuer{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, sweepRequest("", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, sweepRequest("", &shared.Actor{ID: 7, Role: shared.RoleKurir}))
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestEnqueueSweepValidatesDate(t *testing.T) {
	sweeps := &fakeEnqueuer{}
	router := newJobsRouter(sweeps)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, sweepRequest(`{"date":"not-a-date"}`, &shared.Actor{ID: 1, Role: shared.RoleStaff}))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, sweeps.payloads)
}

func TestEnqueueSweepAcceptsEmptyBody(t *testing.T) {
	sweeps := &fakeEnqueuer{}
	router := newJobsRouter(sweeps)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, sweepRequest("", &shared.Actor{ID: 1, Role: shared.RoleStaff}))
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, sweeps.payloads, 1)
	require.Empty(t, sweeps.payloads[0].Date)
	require.Contains(t, rec.Body.String(), "task-1")
}

func TestEnqueueSweepForwardsExplicitDate(t *testing.T) {
	sweeps := &fakeEnqueuer{}
	router := newJobsRouter(sweeps)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, sweepRequest(`{"date":"2025-08-24"}`, &shared.Actor{ID: 1, Role: shared.RoleStaff}))
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, sweeps.payloads, 1)
	require.Equal(t, "2025-08-24", sweeps.payloads[0].Date)
}
